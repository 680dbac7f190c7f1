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

package i2c

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/conntest"

	"github.com/drempelbox/drempelbox"
)

func TestTransport_ReadWrite(t *testing.T) {
	t.Parallel()

	playback := &conntest.Playback{
		Ops: []conntest.IO{
			{W: []byte{0x37}, R: []byte{0x91}},
			{W: []byte{0x01, 0x0C}},
			{W: []byte{0x09}, R: []byte{0x44, 0x00}},
		},
		DontPanic: true,
	}
	transport := NewWithConn(playback, "test")

	version, err := transport.ReadRegister(0x37)
	require.NoError(t, err)
	assert.Equal(t, byte(0x91), version)

	require.NoError(t, transport.WriteRegister(0x01, 0x0C))

	values, err := transport.ReadRegisters(0x09, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x44, 0x00}, values)
	require.NoError(t, playback.Close())
}

func TestTransport_RetriesBusyBus(t *testing.T) {
	t.Parallel()

	// nothing queued: every Tx fails and is retried before giving up
	playback := &conntest.Playback{DontPanic: true}
	transport := NewWithConn(playback, "i2c-1")

	_, err := transport.ReadRegister(0x37)
	require.ErrorIs(t, err, drempelbox.ErrTransportRead)

	var te *drempelbox.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "i2c-1", te.Port)

	err = transport.WriteRegister(0x01, 0x00)
	require.ErrorIs(t, err, drempelbox.ErrTransportWrite)
}

func TestTransport_Close(t *testing.T) {
	t.Parallel()

	transport := NewWithConn(&conntest.Playback{DontPanic: true}, "test")
	assert.Equal(t, drempelbox.TransportI2C, transport.Type())
	assert.True(t, transport.IsConnected())

	require.NoError(t, transport.Close())
	assert.False(t, transport.IsConnected())
	require.ErrorIs(t, transport.WriteRegister(0x01, 0x00), drempelbox.ErrTransportClosed)
}
