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

package detection

import (
	"fmt"

	"github.com/drempelbox/drempelbox"
)

// VersionRegister is the MFRC522 register holding the chip version
const VersionRegister = 0x37

// RegisterReader is the part of a transport probing needs
type RegisterReader interface {
	ReadRegister(reg byte) (byte, error)
	Close() error
}

// ClassifyVersion maps a version register value to a confidence
func ClassifyVersion(version byte) Confidence {
	switch version {
	case drempelbox.VersionMFRC522v1, drempelbox.VersionMFRC522v2:
		return High
	case 0x00, 0xFF:
		// floating bus
		return Low
	default:
		return Medium
	}
}

// Probe reads the version register through r and closes it
func Probe(r RegisterReader) (byte, Confidence, error) {
	defer r.Close() //nolint:errcheck

	version, err := r.ReadRegister(VersionRegister)
	if err != nil {
		return 0, Low, fmt.Errorf("read version register: %w", err)
	}
	return version, ClassifyVersion(version), nil
}
