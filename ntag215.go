// drempelbox
// Copyright (c) 2025 The Drempelbox Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of drempelbox.
//
// drempelbox is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// drempelbox is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with drempelbox; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package drempelbox

import (
	"context"
	"fmt"

	"github.com/drempelbox/drempelbox/ndef"
)

// NTAG215 memory geometry
const (
	NTAG215PageSize       = 4
	NTAG215PageCount      = 135
	NTAG215TotalBytes     = NTAG215PageCount * NTAG215PageSize
	NTAG215BlockSize      = 16
	NTAG215FullBlockCount = NTAG215TotalBytes / NTAG215BlockSize
	NTAG215TailBytes      = NTAG215TotalBytes - NTAG215FullBlockCount*NTAG215BlockSize
)

// NTAG215 memory regions as byte offsets, end inclusive
const (
	NTAG215UIDStart         = 0
	NTAG215UIDEnd           = 8
	NTAG215Internal         = 9
	NTAG215LockStart        = 10
	NTAG215LockEnd          = 11
	NTAG215CCStart          = 12
	NTAG215CCEnd            = 15
	NTAG215UserStart        = 16
	NTAG215UserEnd          = 515
	NTAG215DynamicLockStart = 516
	NTAG215DynamicLockEnd   = 518
	NTAG215RFUI0            = 519
	NTAG215CFG0Start        = 520
	NTAG215CFG0End          = 523
	NTAG215CFG1Start        = 524
	NTAG215CFG1End          = 527
	NTAG215PWDStart         = 528
	NTAG215PWDEnd           = 531
	NTAG215PACKStart        = 532
	NTAG215PACKEnd          = 533
	NTAG215RFUI1Start       = 534
	NTAG215RFUI1End         = 535
)

// Tag reads NTAG215 tokens through a Chip.
//
// Thread Safety: Tag is NOT thread-safe. The chip select and halt state is
// shared by every caller, so callers serialize access with a mutex.
type Tag struct {
	chip       Chip
	validation *ValidationConfig
	counters   validationCounters
	memory     [NTAG215TotalBytes]byte
	// failedBlocks counts the block reads of the last read that failed
	failedBlocks int
}

// NewTag returns a Tag reading through chip. Writes are verified with
// DefaultValidationConfig.
func NewTag(chip Chip) *Tag {
	return &Tag{chip: chip, validation: DefaultValidationConfig()}
}

// SelectContext selects a token in the field. REQA only wakes idle tags, so
// a tag left halted by an earlier read is recovered with HLTA and WUPA.
func (t *Tag) SelectContext(ctx context.Context) (UID, error) {
	atqa, err := t.chip.REQA(ctx)
	if err != nil {
		debugf("REQA failed, retrying with WUPA: %v", err)
		if err := t.chip.HLTA(ctx); err != nil {
			return nil, fmt.Errorf("HLTA: %w", err)
		}
		atqa, err = t.chip.WUPA(ctx)
		if err != nil {
			return nil, fmt.Errorf("WUPA: %w", err)
		}
	}

	uid, err := t.chip.Select(ctx, atqa)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return uid, nil
}

// IsTokenPresentContext reports whether a token can be selected. It does not
// read tag memory. Transport failures are reported as absent.
func (t *Tag) IsTokenPresentContext(ctx context.Context) (UID, bool) {
	uid, err := t.SelectContext(ctx)
	if err != nil {
		return nil, false
	}
	return uid, true
}

// IsTokenPresent is IsTokenPresentContext with a background context
func (t *Tag) IsTokenPresent() (UID, bool) {
	return t.IsTokenPresentContext(context.Background())
}

// ReadContext selects the token, reads its whole memory and decodes the NDEF
// message in the user memory region.
func (t *Tag) ReadContext(ctx context.Context) (*ndef.Message, error) {
	if _, err := t.SelectContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTagNotFound, err)
	}

	t.readMemory(ctx)

	msg, err := ndef.Parse(t.memory[NTAG215UserStart : NTAG215UserEnd+1])
	if err != nil {
		return nil, fmt.Errorf("decode user memory: %w", err)
	}
	return msg, nil
}

// Read is ReadContext with a background context
func (t *Tag) Read() (*ndef.Message, error) {
	return t.ReadContext(context.Background())
}

// readMemory fills the memory buffer block by block. A failed block read
// leaves the bytes of that block unchanged and is not retried.
func (t *Tag) readMemory(ctx context.Context) {
	t.failedBlocks = 0

	for block := 0; block < NTAG215FullBlockCount; block++ {
		page := byte(block * NTAG215BlockSize / NTAG215PageSize)
		data, err := t.chip.MFRead(ctx, page)
		if err != nil {
			t.failedBlocks++
			debugf("block %d read failed: %v", block, err)
			continue
		}
		copy(t.memory[block*NTAG215BlockSize:], data[:])
	}

	// the tail read wraps past the last page, only the first bytes are kept
	tailStart := NTAG215FullBlockCount * NTAG215BlockSize
	data, err := t.chip.MFRead(ctx, byte(tailStart/NTAG215PageSize))
	if err != nil {
		t.failedBlocks++
		debugf("tail block read failed: %v", err)
		return
	}
	copy(t.memory[tailStart:], data[:NTAG215TailBytes])
}

// WriteURIContext programs a single URI record into user memory. The chip
// must implement PageWriter. Pages after the message are left untouched.
func (t *Tag) WriteURIContext(ctx context.Context, uri string) error {
	writer, ok := t.chip.(PageWriter)
	if !ok {
		return ErrNotSupported
	}

	data, err := ndef.EncodeURI(uri)
	if err != nil {
		return fmt.Errorf("encode URI: %w", err)
	}
	if len(data) > NTAG215UserEnd-NTAG215UserStart+1 {
		return NewDataTooLargeError("write", "")
	}

	if _, err := t.SelectContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrTagNotFound, err)
	}

	first := NTAG215UserStart / NTAG215PageSize
	for offset := 0; offset < len(data); offset += NTAG215PageSize {
		var page [NTAG215PageSize]byte
		copy(page[:], data[offset:])
		if err := t.writePage(ctx, writer, byte(first+offset/NTAG215PageSize), page); err != nil {
			return err
		}
		copy(t.memory[NTAG215UserStart+offset:], page[:])
	}
	return nil
}

// WriteURI is WriteURIContext with a background context
func (t *Tag) WriteURI(uri string) error {
	return t.WriteURIContext(context.Background(), uri)
}

// FailedBlocks returns how many block reads failed during the last read
func (t *Tag) FailedBlocks() int {
	return t.failedBlocks
}

// Memory returns a copy of the memory buffer from the last read
func (t *Tag) Memory() [NTAG215TotalBytes]byte {
	return t.memory
}

// UserMemory returns a copy of the user memory region from the last read
func (t *Tag) UserMemory() []byte {
	out := make([]byte, NTAG215UserEnd-NTAG215UserStart+1)
	copy(out, t.memory[NTAG215UserStart:])
	return out
}
