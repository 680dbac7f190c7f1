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
	"time"
)

// TransportProfile holds the timing defaults a device uses on one kind of bus
type TransportProfile struct {
	// Timeout bounds one transceive
	Timeout time.Duration
	// RetryDelay is the first backoff after a retryable bus error
	RetryDelay time.Duration
	// MaxRetries is the total number of attempts for a bus operation
	MaxRetries int
}

// TransportTuner is implemented by transports that know their own timing
type TransportTuner interface {
	Profile() TransportProfile
}

// ProfileFor returns the timing defaults for transport
func ProfileFor(transport Transport) TransportProfile {
	if tuner, ok := transport.(TransportTuner); ok {
		return tuner.Profile()
	}

	switch transport.Type() {
	case TransportUART:
		// 9600 baud, every register access is two bytes on the wire
		return TransportProfile{
			Timeout:    200 * time.Millisecond,
			RetryDelay: 20 * time.Millisecond,
			MaxRetries: 3,
		}
	case TransportI2C:
		// the chip NAKs its address while busy
		return TransportProfile{
			Timeout:    75 * time.Millisecond,
			RetryDelay: 5 * time.Millisecond,
			MaxRetries: 5,
		}
	case TransportSPI:
		return TransportProfile{
			Timeout:    50 * time.Millisecond,
			RetryDelay: 2 * time.Millisecond,
			MaxRetries: 3,
		}
	default:
		return defaultProfile()
	}
}

func defaultProfile() TransportProfile {
	config := DefaultDeviceConfig()
	return TransportProfile{
		Timeout:    config.Timeout,
		RetryDelay: config.RetryConfig.InitialBackoff,
		MaxRetries: config.RetryConfig.MaxAttempts,
	}
}

// apply sets the device defaults from p
func (p TransportProfile) apply(config *DeviceConfig) {
	if p.Timeout > 0 {
		config.Timeout = p.Timeout
	}
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig()
	}
	if p.RetryDelay > 0 {
		config.RetryConfig.InitialBackoff = p.RetryDelay
	}
	if p.MaxRetries > 0 {
		config.RetryConfig.MaxAttempts = p.MaxRetries
	}
}
