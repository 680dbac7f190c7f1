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

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
)

// Amp controls the amplifier. The shutdown (SD) input is active low: the
// amp plays while SD is low. An optional power pin switches the amp supply
// and an optional LED mirrors the SD state.
type Amp struct {
	sd     gpio.PinOut
	power  gpio.PinOut
	led    *LED
	logger *zap.Logger
	mu     sync.Mutex
	on     bool
	// powered is the last level written to the power pin
	powered bool
}

// NewAmp drives SD high so the amp starts muted. power and led may be nil.
func NewAmp(sd, power gpio.PinOut, led *LED, logger *zap.Logger) (*Amp, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := sd.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("failed to initialize amp SD pin %s: %w", sd, err)
	}
	return &Amp{sd: sd, power: power, led: led, logger: logger}, nil
}

// On unmutes the amp
func (a *Amp) On() error {
	return a.enable(true)
}

// Off mutes the amp
func (a *Amp) Off() error {
	return a.enable(false)
}

func (a *Amp) enable(on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.sd.Out(gpio.Level(!on)); err != nil {
		a.logger.Error("error switching amp", zap.Bool("enable", on), zap.Error(err))
		return fmt.Errorf("failed to switch amp: %w", err)
	}
	a.on = on

	if a.led != nil {
		var err error
		if on {
			err = a.led.On()
		} else {
			err = a.led.Off()
		}
		if err != nil {
			a.logger.Warn("couldn't switch amp LED", zap.Error(err))
		}
	}
	return nil
}

// PowerOn switches the amp supply on
func (a *Amp) PowerOn() error {
	return a.setPower(true)
}

// PowerOff switches the amp supply off
func (a *Amp) PowerOff() error {
	return a.setPower(false)
}

func (a *Amp) setPower(on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.power == nil {
		return ErrPinNotConfigured
	}
	if err := a.power.Out(gpio.Level(on)); err != nil {
		return fmt.Errorf("failed to switch amp power: %w", err)
	}
	a.powered = on
	return nil
}

// State reports whether the amp is unmuted and powered
func (a *Amp) State() (on, powered bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.on, a.powered
}
