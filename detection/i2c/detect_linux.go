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

//go:build linux

package i2c

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/drempelbox/drempelbox/detection"
)

// I2CSlave is the ioctl request that binds the file descriptor to an address
const I2CSlave = 0x0703

func findBuses() ([]string, error) {
	matches, err := filepath.Glob("/dev/i2c-*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan for I2C buses: %w", err)
	}
	return matches, nil
}

func readVersion(ctx context.Context, bus string, addr uint16) (byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, detection.ErrDetectionTimeout
	}

	fd, err := unix.Open(bus, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", bus, err)
	}
	defer unix.Close(fd) //nolint:errcheck

	if err := unix.IoctlSetInt(fd, I2CSlave, int(addr)); err != nil {
		return 0, fmt.Errorf("set address 0x%02X: %w", addr, err)
	}

	if _, err := unix.Write(fd, []byte{detection.VersionRegister}); err != nil {
		return 0, fmt.Errorf("write register address: %w", err)
	}

	buf := make([]byte, 1)
	n, err := unix.Read(fd, buf)
	if err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	if n != 1 {
		return 0, detection.ErrNoDevicesFound
	}
	return buf[0], nil
}
