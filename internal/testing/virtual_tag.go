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

// Package testing provides a virtual MFRC522 with a virtual NTAG215 so the
// driver can be exercised without hardware.
package testing

import (
	"encoding/hex"
	"errors"
	"strings"
	"sync"

	"github.com/drempelbox/drempelbox/internal/frame"
	"github.com/drempelbox/drempelbox/ndef"
)

// NTAG215 geometry
const (
	ntag215Pages     = 135
	ntag215PageSize  = 4
	ntag215Bytes     = ntag215Pages * ntag215PageSize
	ntag215UserStart = 16
	ntag215UserEnd   = 516
)

// PICC commands understood by the virtual tag
const (
	piccREQA   = 0x26
	piccWUPA   = 0x52
	piccHLTA   = 0x50
	piccSelCL1 = 0x93
	piccSelCL2 = 0x95
	piccRead   = 0x30
	piccWrite  = 0xA2
	ackNibble  = 0x0A
	cascadeTag = 0x88
)

// ErrUserMemoryFull is returned when an NDEF message does not fit in user memory
var ErrUserMemoryFull = errors.New("NDEF message does not fit in user memory")

// TestNTAG215UID is the default 7 byte UID of virtual tags
var TestNTAG215UID = []byte{0x04, 0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0x80}

type tagState int

const (
	stateIdle tagState = iota
	stateReady1
	stateReady2
	stateActive
	stateHalt
)

// VirtualTag represents a simulated NTAG215 in the reader field
type VirtualTag struct {
	UID     []byte
	memory  [ntag215Bytes]byte
	mu      sync.Mutex
	state   tagState
	present bool
}

// NewVirtualNTAG215 creates a present, blank NTAG215 with a formatted
// capability container
func NewVirtualNTAG215(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestNTAG215UID
	}
	tag := &VirtualTag{
		UID:     append([]byte(nil), uid...),
		present: true,
	}
	tag.initMemory()
	return tag
}

func (v *VirtualTag) initMemory() {
	// serial number pages with both check bytes
	copy(v.memory[0:3], v.UID[0:3])
	v.memory[3] = frame.BCC(append([]byte{cascadeTag}, v.UID[0:3]...))
	copy(v.memory[4:8], v.UID[3:7])
	v.memory[8] = frame.BCC(v.UID[3:7])
	// capability container: NDEF 1.0, 496 bytes, read/write
	copy(v.memory[12:16], []byte{0xE1, 0x10, 0x3E, 0x00})
	// empty NDEF TLV followed by a terminator
	copy(v.memory[ntag215UserStart:], []byte{0x03, 0x00, 0xFE})
}

// GetUIDString returns the UID as upper case hex
func (v *VirtualTag) GetUIDString() string {
	return strings.ToUpper(hex.EncodeToString(v.UID))
}

// SetURI writes a single URI record message into user memory
func (v *VirtualTag) SetURI(uri string) error {
	data, err := ndef.EncodeURI(uri)
	if err != nil {
		return err
	}
	return v.SetUserMemory(data)
}

// SetUserMemory overwrites the start of user memory with data
func (v *VirtualTag) SetUserMemory(data []byte) error {
	if len(data) > ntag215UserEnd-ntag215UserStart {
		return ErrUserMemoryFull
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	copy(v.memory[ntag215UserStart:], data)
	return nil
}

// Memory returns a copy of the whole tag memory
func (v *VirtualTag) Memory() [ntag215Bytes]byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.memory
}

// Remove takes the tag out of the field
func (v *VirtualTag) Remove() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.present = false
	v.state = stateIdle
}

// Insert puts the tag back in the field, powered up and idle
func (v *VirtualTag) Insert() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.present = true
	v.state = stateIdle
}

// Halted reports whether the tag is in the halt state
func (v *VirtualTag) Halted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state == stateHalt
}

// respond handles one frame sent by the reader. It returns the reply, the
// valid bits of its last byte and whether the tag answered at all.
func (v *VirtualTag) respond(data []byte, txLastBits byte) (reply []byte, rxLastBits byte, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.present || len(data) == 0 {
		return nil, 0, false
	}

	if txLastBits == 7 && len(data) == 1 {
		return v.request(data[0])
	}

	switch data[0] {
	case piccHLTA:
		if len(data) == 4 && frame.CheckCRC(data) && v.state == stateActive {
			v.state = stateHalt
		}
		return nil, 0, false
	case piccSelCL1, piccSelCL2:
		return v.selectLevel(data)
	case piccRead:
		return v.read(data)
	case piccWrite:
		return v.write(data)
	default:
		return nil, 0, false
	}
}

func (v *VirtualTag) request(cmd byte) ([]byte, byte, bool) {
	switch {
	case cmd == piccREQA && v.state == stateIdle,
		cmd == piccWUPA && (v.state == stateIdle || v.state == stateHalt):
		v.state = stateReady1
		return []byte{0x44, 0x00}, 0, true
	case cmd == piccREQA || cmd == piccWUPA:
		// a tag that is not idle ignores REQA and falls back to idle
		if v.state != stateHalt {
			v.state = stateIdle
		}
		return nil, 0, false
	default:
		return nil, 0, false
	}
}

func (v *VirtualTag) selectLevel(data []byte) ([]byte, byte, bool) {
	level := stateReady1
	part := append([]byte{cascadeTag}, v.UID[0:3]...)
	sak := byte(0x04)
	next := stateReady2
	if data[0] == piccSelCL2 {
		level = stateReady2
		part = append([]byte(nil), v.UID[3:7]...)
		sak = 0x00
		next = stateActive
	}
	if v.state != level {
		return nil, 0, false
	}

	// anticollision
	if len(data) == 2 && data[1] == 0x20 {
		return append(part, frame.BCC(part)), 0, true
	}

	// select
	if len(data) == 9 && data[1] == 0x70 && frame.CheckCRC(data) {
		if string(data[2:6]) != string(part) {
			v.state = stateIdle
			return nil, 0, false
		}
		v.state = next
		return frame.AppendCRC([]byte{sak}), 0, true
	}

	v.state = stateIdle
	return nil, 0, false
}

func (v *VirtualTag) read(data []byte) ([]byte, byte, bool) {
	if v.state != stateActive || len(data) != 4 || !frame.CheckCRC(data) {
		return nil, 0, false
	}
	page := int(data[1])
	if page >= ntag215Pages {
		v.state = stateIdle
		return []byte{0x00}, 4, true
	}
	out := make([]byte, 16, 18)
	start := page * ntag215PageSize
	for i := range out {
		out[i] = v.memory[(start+i)%ntag215Bytes]
	}
	return frame.AppendCRC(out), 0, true
}

func (v *VirtualTag) write(data []byte) ([]byte, byte, bool) {
	if v.state != stateActive || len(data) != 8 || !frame.CheckCRC(data) {
		return nil, 0, false
	}
	page := int(data[1])
	if page < ntag215UserStart/ntag215PageSize || page >= ntag215UserEnd/ntag215PageSize {
		v.state = stateIdle
		return []byte{0x00}, 4, true
	}
	copy(v.memory[page*ntag215PageSize:], data[2:6])
	return []byte{ackNibble}, 4, true
}
