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

package hardware

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
)

// LED is an indicator LED driven high when lit
type LED struct {
	pin gpio.PinOut
	mu  sync.Mutex
	on  bool
}

// NewLED switches the LED off and returns it
func NewLED(pin gpio.PinOut) (*LED, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to set LED pin %s low: %w", pin, err)
	}
	return &LED{pin: pin}, nil
}

// On lights the LED
func (l *LED) On() error {
	return l.set(true)
}

// Off switches the LED off
func (l *LED) Off() error {
	return l.set(false)
}

// IsOn reports the last level written
func (l *LED) IsOn() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

func (l *LED) set(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.pin.Out(gpio.Level(on)); err != nil {
		return fmt.Errorf("failed to switch LED: %w", err)
	}
	l.on = on
	return nil
}
