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
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
)

// holdCounter counts consecutive low reads of an active low button
type holdCounter struct {
	lows  int
	holds int
}

// observe records one read and reports whether the button has now been
// held for the required number of reads. The count restarts after firing
// and on every high read.
func (c *holdCounter) observe(level gpio.Level) bool {
	if level == gpio.High {
		c.lows = 0
		return false
	}
	c.lows++
	if c.lows >= c.holds {
		c.lows = 0
		return true
	}
	return false
}

// HoldButton polls an active low push button with a pull-up and fires
// after it reads low on a number of consecutive polls. Holding it fires
// repeatedly.
type HoldButton struct {
	pin      gpio.PinIn
	logger   *zap.Logger
	name     string
	interval time.Duration
	holds    int
}

// NewHoldButton configures pin as a pulled up input
func NewHoldButton(name string, pin gpio.PinIn, interval time.Duration, holds int, logger *zap.Logger) (*HoldButton, error) {
	if interval <= 0 || holds <= 0 {
		return nil, fmt.Errorf("invalid button timing for %s: interval %v, holds %d", name, interval, holds)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to configure %s button pin %s: %w", name, pin, err)
	}
	return &HoldButton{
		pin:      pin,
		logger:   logger.With(zap.String("button", name)),
		name:     name,
		interval: interval,
		holds:    holds,
	}, nil
}

// Run polls the button until ctx is done and calls action on the polling
// goroutine each time it fires
func (b *HoldButton) Run(ctx context.Context, action func(context.Context)) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	counter := holdCounter{holds: b.holds}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		level := b.pin.Read()
		if level == gpio.Low {
			b.logger.Debug("button pin low", zap.Int("count", counter.lows+1))
		}
		if counter.observe(level) {
			b.logger.Info("button pressed")
			action(ctx)
		}
	}
}
