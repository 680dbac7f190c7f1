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

package frame

// Register addresses are 6 bits wide.
const RegisterMask = 0x3F

// SPIAddress returns the address byte for an SPI register access. The MSB
// selects a read and the LSB is always zero.
func SPIAddress(reg byte, read bool) byte {
	addr := (reg & RegisterMask) << 1
	if read {
		addr |= 0x80
	}
	return addr
}

// UARTAddress returns the address byte for a UART register access. The chip
// echoes it back on writes.
func UARTAddress(reg byte, read bool) byte {
	addr := reg & RegisterMask
	if read {
		addr |= 0x80
	}
	return addr
}

// I2C bus address of the MFRC522 with both address pins low.
const I2CAddress = 0x28
