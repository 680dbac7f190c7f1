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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drempelbox/drempelbox/ndef"
)

var testUID = UID{0x04, 0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0x80}

const testURI = "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M"

func memoryWithURI(t *testing.T, uri string) [NTAG215TotalBytes]byte {
	t.Helper()

	data, err := ndef.EncodeURI(uri)
	require.NoError(t, err)

	var memory [NTAG215TotalBytes]byte
	copy(memory[NTAG215CCStart:], []byte{0xE1, 0x10, 0x3E, 0x00})
	copy(memory[NTAG215UserStart:], data)
	// marker bytes in the config region show up only through the tail read
	memory[NTAG215PWDStart] = 0xAA
	memory[NTAG215RFUI1End] = 0xBB
	return memory
}

func TestNTAG215Geometry(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 540, NTAG215TotalBytes)
	assert.Equal(t, 33, NTAG215FullBlockCount)
	assert.Equal(t, 12, NTAG215TailBytes)
	assert.Equal(t, 500, NTAG215UserEnd-NTAG215UserStart+1)
	assert.Equal(t, 535, NTAG215RFUI1End)
	// bytes 536..539 come with the tail read but belong to no region
	assert.Equal(t, 4, NTAG215TotalBytes-1-NTAG215RFUI1End)
}

func TestTag_ReadContext(t *testing.T) {
	t.Parallel()

	chip := NewMockChip()
	chip.PlaceToken(testUID, memoryWithURI(t, testURI))
	tag := NewTag(chip)

	msg, err := tag.ReadContext(context.Background())
	require.NoError(t, err)

	uri, ok := msg.URI()
	require.True(t, ok)
	assert.Equal(t, testURI, uri)
	assert.Equal(t, 0, tag.FailedBlocks())

	memory := tag.Memory()
	assert.Equal(t, byte(0xAA), memory[NTAG215PWDStart])
	assert.Equal(t, byte(0xBB), memory[NTAG215RFUI1End])
	assert.Len(t, tag.UserMemory(), 500)
}

func TestTag_ReadIssuesBlockReads(t *testing.T) {
	t.Parallel()

	chip := NewMockChip()
	chip.PlaceToken(testUID, memoryWithURI(t, testURI))
	tag := NewTag(chip)

	_, err := tag.Read()
	require.NoError(t, err)

	var reads []string
	for _, call := range chip.Calls() {
		if len(call) > 6 && call[:6] == "MFRead" {
			reads = append(reads, call)
		}
	}
	require.Len(t, reads, NTAG215FullBlockCount+1)
	assert.Equal(t, "MFRead(0)", reads[0])
	assert.Equal(t, "MFRead(4)", reads[1])
	assert.Equal(t, "MFRead(128)", reads[32])
	assert.Equal(t, "MFRead(132)", reads[33])
}

func TestTag_FailedBlockLeavesBufferUnchanged(t *testing.T) {
	t.Parallel()

	chip := NewMockChip()
	chip.PlaceToken(testUID, memoryWithURI(t, testURI))
	tag := NewTag(chip)

	_, err := tag.Read()
	require.NoError(t, err)

	// a second token whose block 1 cannot be read
	other := memoryWithURI(t, "file:///music/a.mp3")
	chip.PlaceToken(UID{0x01, 0x02, 0x03, 0x04}, other)
	chip.FailPage(4, ErrChecksumMismatch)

	// the result mixes both tokens, only the buffer contents matter here
	_, _ = tag.Read()
	assert.Equal(t, 1, tag.FailedBlocks())

	memory := tag.Memory()
	first := memoryWithURI(t, testURI)
	assert.Equal(t, first[16:32], memory[16:32])
	assert.Equal(t, other[32:48], memory[32:48])
}

func TestTag_ReadNoToken(t *testing.T) {
	t.Parallel()

	tag := NewTag(NewMockChip())
	msg, err := tag.Read()
	require.ErrorIs(t, err, ErrTagNotFound)
	assert.Nil(t, msg)
}

func TestTag_ReadMalformedMessage(t *testing.T) {
	t.Parallel()

	var memory [NTAG215TotalBytes]byte
	memory[NTAG215UserStart] = 0x02

	chip := NewMockChip()
	chip.PlaceToken(testUID, memory)

	msg, err := NewTag(chip).Read()
	require.ErrorIs(t, err, ndef.ErrInvalidMarker)
	assert.True(t, ndef.IsFormatError(err))
	assert.Nil(t, msg)
}

func TestTag_IsTokenPresent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		setup     func(*MockChip)
		name      string
		wantCalls []string
		wantUID   UID
		want      bool
	}{
		{
			name:      "idle token answers REQA",
			setup:     func(c *MockChip) { c.PlaceToken(testUID, [NTAG215TotalBytes]byte{}) },
			want:      true,
			wantUID:   testUID,
			wantCalls: []string{"REQA", "Select"},
		},
		{
			name: "halted token recovered with WUPA",
			setup: func(c *MockChip) {
				c.PlaceToken(testUID, [NTAG215TotalBytes]byte{})
				c.Halt()
			},
			want:      true,
			wantUID:   testUID,
			wantCalls: []string{"REQA", "HLTA", "WUPA", "Select"},
		},
		{
			name:      "empty field",
			setup:     func(*MockChip) {},
			want:      false,
			wantCalls: []string{"REQA", "HLTA", "WUPA"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			chip := NewMockChip()
			tt.setup(chip)

			uid, ok := NewTag(chip).IsTokenPresent()
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.wantUID, uid)
			assert.Equal(t, tt.wantCalls, chip.Calls())
		})
	}
}

func TestTag_IsTokenPresentDoesNotReadMemory(t *testing.T) {
	t.Parallel()

	chip := NewMockChip()
	chip.PlaceToken(testUID, memoryWithURI(t, testURI))

	_, ok := NewTag(chip).IsTokenPresentContext(context.Background())
	require.True(t, ok)
	for _, call := range chip.Calls() {
		assert.NotContains(t, call, "MFRead")
	}
}

func TestTag_CancelledContext(t *testing.T) {
	t.Parallel()

	chip := NewMockChip()
	chip.PlaceToken(testUID, memoryWithURI(t, testURI))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := NewTag(chip).IsTokenPresentContext(ctx)
	assert.False(t, ok)
}

func TestTag_WriteURI(t *testing.T) {
	t.Parallel()

	chip := NewMockChip()
	chip.PlaceToken(testUID, [NTAG215TotalBytes]byte{})
	tag := NewTag(chip)

	require.NoError(t, tag.WriteURI(testURI))

	msg, err := tag.Read()
	require.NoError(t, err)
	uri, ok := msg.URI()
	require.True(t, ok)
	assert.Equal(t, testURI, uri)

	writes := 0
	for _, call := range chip.Calls() {
		if len(call) > 7 && call[:7] == "MFWrite" {
			writes++
		}
	}
	data, err := ndef.EncodeURI(testURI)
	require.NoError(t, err)
	assert.Equal(t, (len(data)+NTAG215PageSize-1)/NTAG215PageSize, writes)
}

func TestTag_WriteURIErrors(t *testing.T) {
	t.Parallel()

	chip := NewMockChip()
	tag := NewTag(chip)

	err := tag.WriteURI(testURI)
	require.ErrorIs(t, err, ErrTagNotFound)

	chip.PlaceToken(testUID, [NTAG215TotalBytes]byte{})
	chip.FailPage(5, ErrNAK)
	err = tag.WriteURI(testURI)
	require.ErrorIs(t, err, ErrNAK)

	err = tag.WriteURI("")
	require.Error(t, err)
}
