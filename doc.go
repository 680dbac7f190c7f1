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

/*
Package drempelbox drives an MFRC522 contactless reader and reads NTAG215
tokens holding a single NDEF URI record.

The MFRC522 is a 13.56 MHz ISO/IEC 14443 A reader IC. This package talks to
it through register transports and implements the few tag primitives the
appliance needs: REQA, WUPA, HLTA, anticollision and SELECT, READ and WRITE.

Features:
  - Register transports for SPI, I2C and UART
  - NTAG215 memory reads with per-block failure tolerance
  - NDEF URI decoding and encoding
  - Retry logic with configurable backoff
  - Write verification by page read-back

Basic Usage:

	import (
	    "github.com/drempelbox/drempelbox"
	    "github.com/drempelbox/drempelbox/transport/spi"
	)

	// Open the SPI port, pulsing the reset pin
	transport, err := spi.New("/dev/spidev0.0", spi.WithResetPin("GPIO25"))
	if err != nil {
	    log.Fatal(err)
	}

	// Create and initialize the device
	device, err := drempelbox.New(transport,
	    drempelbox.WithRetry(),
	    drempelbox.WithTimeout(50*time.Millisecond),
	)
	if err != nil {
	    log.Fatal(err)
	}
	defer device.Close()

	if err := device.Init(); err != nil {
	    log.Fatal(err)
	}

	tag := drempelbox.NewTag(device)
	if uid, ok := tag.IsTokenPresent(); ok {
	    msg, err := tag.Read()
	    if err != nil {
	        log.Fatal(err)
	    }
	    if uri, ok := msg.URI(); ok {
	        fmt.Printf("%s: %s\n", uid, uri)
	    }
	}

Transport Selection:

  - SPI: the usual wiring on a Raspberry Pi, mode 0 at 1 MHz by default
  - I2C: boards with the interface pins strapped for I2C, address 0x28
  - UART: 9600 baud 8N1, one register per address byte

Error Handling:

Bus failures are *TransportError values classified as transient, timeout or
permanent. Tag failures wrap sentinels that can be inspected:

	if errors.Is(err, drempelbox.ErrTagNotFound) {
	    // token left the field
	}

Thread Safety:

Device and Tag are not thread-safe. The polling package serializes access
through a shared reader.
*/
package drempelbox
