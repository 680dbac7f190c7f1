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

// Package hardware drives the appliance GPIO: amplifier, LED, volume
// buttons and the shutdown button
package hardware

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var (
	// ErrPinNotFound is returned for a GPIO name unknown to the host
	ErrPinNotFound = errors.New("GPIO pin not found")
	// ErrPinNotConfigured is returned when an optional pin is not wired
	ErrPinNotConfigured = errors.New("GPIO pin not configured")
)

var hostInit = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// OpenPin initializes the host drivers once and looks up a pin by name,
// for example "GPIO21" or "21"
func OpenPin(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, ErrPinNotConfigured
	}
	if err := hostInit(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("%w: %s", ErrPinNotFound, name)
	}
	return pin, nil
}
