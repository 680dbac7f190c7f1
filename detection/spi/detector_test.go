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

package spi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drempelbox/drempelbox/detection"
)

type fakeRegisters struct {
	err     error
	version byte
	closed  bool
}

func (f *fakeRegisters) ReadRegister(reg byte) (byte, error) {
	if reg != detection.VersionRegister {
		return 0, errors.New("unexpected register")
	}
	return f.version, f.err
}

func (f *fakeRegisters) Close() error {
	f.closed = true
	return nil
}

func TestDetect(t *testing.T) {
	t.Parallel()

	chips := map[string]*fakeRegisters{
		"/dev/spidev0.0": {version: 0x91},
		"/dev/spidev0.1": {version: 0x00},
		"/dev/spidev1.0": {err: errors.New("bus error")},
	}
	d := &detector{
		ports: func() ([]string, error) {
			return []string{"/dev/spidev0.0", "/dev/spidev0.1", "/dev/spidev1.0"}, nil
		},
		open: func(name string) (detection.RegisterReader, error) {
			return chips[name], nil
		},
	}

	devices, err := d.Detect(context.Background(), detection.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, devices, 2)

	assert.Equal(t, "/dev/spidev0.0", devices[0].Path)
	assert.Equal(t, detection.High, devices[0].Confidence)
	assert.Equal(t, "0x91", devices[0].Metadata["version"])
	assert.Equal(t, detection.Low, devices[1].Confidence)

	for name, chip := range chips {
		assert.True(t, chip.closed, name)
	}
}

func TestDetect_Passive(t *testing.T) {
	t.Parallel()

	d := &detector{
		ports: func() ([]string, error) { return []string{"/dev/spidev0.0", "/dev/spidev0.1"}, nil },
		open: func(string) (detection.RegisterReader, error) {
			return nil, errors.New("passive detection must not open ports")
		},
	}

	devices, err := d.Detect(context.Background(), &detection.Options{Mode: detection.Passive})
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, detection.Medium, devices[0].Confidence)
	assert.Equal(t, detection.Low, devices[1].Confidence)
}

func TestDetect_NoPorts(t *testing.T) {
	t.Parallel()

	d := &detector{ports: func() ([]string, error) { return nil, nil }}
	_, err := d.Detect(context.Background(), detection.DefaultOptions())
	require.ErrorIs(t, err, detection.ErrNoDevicesFound)
}
