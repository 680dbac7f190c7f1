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

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/drempelbox/drempelbox"
	"github.com/drempelbox/drempelbox/internal/config"
	"github.com/drempelbox/drempelbox/ndef"
	"github.com/drempelbox/drempelbox/player"
)

func TestEncodeCommand(t *testing.T) {
	var out bytes.Buffer
	encodeCmd.SetOut(&out)
	t.Cleanup(func() { encodeCmd.SetOut(nil) })

	require.NoError(t, encodeCmd.RunE(encodeCmd, []string{"https://open.spotify.com/track/abc"}))
	// NDEF message TLV, then a short well-known URI record
	assert.True(t, strings.HasPrefix(out.String(), "00000000  03 "), out.String())
	assert.Contains(t, out.String(), "d1 01")
}

func TestEncodeCommand_Empty(t *testing.T) {
	require.Error(t, encodeCmd.RunE(encodeCmd, []string{""}))
}

func TestDumpMemory(t *testing.T) {
	t.Parallel()

	data, err := ndef.EncodeURI("file:///music/a.mp3")
	require.NoError(t, err)
	var memory [drempelbox.NTAG215TotalBytes]byte
	copy(memory[drempelbox.NTAG215UserStart:], data)

	chip := drempelbox.NewMockChip()
	chip.PlaceToken(drempelbox.UID{0x04, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}, memory)
	tag := drempelbox.NewTag(chip)
	_, err = tag.Read()
	require.NoError(t, err)

	var user bytes.Buffer
	dumpMemory(&user, tag, false)
	// user memory starts with the message TLV and holds 500 bytes
	assert.True(t, strings.HasPrefix(user.String(), "00000000  03 "), user.String())
	assert.Contains(t, user.String(), "000001f0")
	assert.NotContains(t, user.String(), "00000200")

	var full bytes.Buffer
	dumpMemory(&full, tag, true)
	assert.Contains(t, full.String(), "00000210")
	assert.Contains(t, full.String(), "00000010  03 ")
}

func TestDetails(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "address=0x28 bus=/dev/i2c-1", details(map[string]string{
		"bus":     "/dev/i2c-1",
		"address": "0x28",
	}))
	assert.Empty(t, details(nil))
}

func TestOpenTransport_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := openTransport(config.Reader{Transport: "usb"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport type")
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = newLogger(false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNewRouter(t *testing.T) {
	t.Parallel()

	cfg := config.Default().Player
	cfg.MixerControl = "drempelbox-test-missing"

	router, err := newRouter(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Empty(t, router.NowPlaying())

	cfg.FileCommand = nil
	_, err = newRouter(context.Background(), cfg, zaptest.NewLogger(t))
	require.ErrorIs(t, err, player.ErrEmptyCommand)
}

func TestSetupHardware_NoPins(t *testing.T) {
	t.Parallel()

	amp, tasks := setupHardware(config.Pins{}, nil, zaptest.NewLogger(t))
	assert.Nil(t, amp)
	assert.Empty(t, tasks)
}
