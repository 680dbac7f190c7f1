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

// Package i2c provides I2C transport implementation for the MFRC522
package i2c

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/drempelbox/drempelbox"
	"github.com/drempelbox/drempelbox/internal/frame"
	"github.com/drempelbox/drempelbox/internal/transport"
)

const (
	// Max clock frequency (400 kHz).
	maxClockFreq = 400 * physic.KiloHertz

	// the chip NAKs while busy, a few retries cover it
	busyRetries = 2
	busyDelay   = time.Millisecond
)

// Transport implements the drempelbox.Transport interface for I2C
type Transport struct {
	dev     conn.Conn
	bus     i2c.BusCloser
	busName string
	mu      sync.Mutex
}

// New opens busName, for example "/dev/i2c-1" or "1", and addresses the
// MFRC522 at addr. Zero selects the default address 0x28.
func New(busName string, addr uint16) (*Transport, error) {
	if addr == 0 {
		addr = frame.I2CAddress
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, drempelbox.NewTransportError("open", busName,
			fmt.Errorf("%w: %w", drempelbox.ErrDeviceNotFound, err), drempelbox.ErrorTypePermanent)
	}

	// Ignore error, continue with default speed
	_ = bus.SetSpeed(maxClockFreq)

	return &Transport{
		dev:     &i2c.Dev{Addr: addr, Bus: bus},
		bus:     bus,
		busName: busName,
	}, nil
}

// NewWithConn wraps a conn already addressed to the chip
func NewWithConn(c conn.Conn, name string) *Transport {
	return &Transport{dev: c, busName: name}
}

func (t *Transport) tx(op string, w, r []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dev == nil {
		return drempelbox.ErrTransportClosed
	}

	var lastErr error
	_, err := transport.WithRetry(transport.RetryConfig{
		Description: op,
		Port:        t.busName,
		MaxRetries:  busyRetries,
		RetryDelay:  busyDelay,
	}, func() (struct{}, bool, error) {
		lastErr = t.dev.Tx(w, r)
		return struct{}{}, lastErr != nil, nil
	})
	if err == nil {
		return nil
	}
	if r != nil {
		return drempelbox.NewReadError(op, t.busName, lastErr)
	}
	return drempelbox.NewWriteError(op, t.busName, lastErr)
}

// ReadRegister reads one register
func (t *Transport) ReadRegister(reg byte) (byte, error) {
	values, err := t.ReadRegisters(reg, 1)
	if err != nil {
		return 0, err
	}
	return values[0], nil
}

// ReadRegisters reads n bytes from reg in one combined transaction
func (t *Transport) ReadRegisters(reg byte, n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	r := make([]byte, n)
	if err := t.tx("ReadRegisters", []byte{reg & frame.RegisterMask}, r); err != nil {
		return nil, err
	}
	return r, nil
}

// WriteRegister writes one register
func (t *Transport) WriteRegister(reg, value byte) error {
	return t.WriteRegisters(reg, []byte{value})
}

// WriteRegisters writes values to reg in one transaction
func (t *Transport) WriteRegisters(reg byte, values []byte) error {
	if len(values) == 0 {
		return nil
	}
	w := make([]byte, 0, len(values)+1)
	w = append(w, reg&frame.RegisterMask)
	w = append(w, values...)
	return t.tx("WriteRegisters", w, nil)
}

// Close releases the I2C bus
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dev = nil
	if t.bus == nil {
		return nil
	}
	err := t.bus.Close()
	t.bus = nil
	if err != nil {
		return fmt.Errorf("failed to close I2C bus %s: %w", t.busName, err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dev != nil
}

// Type returns the transport type
func (*Transport) Type() drempelbox.TransportType {
	return drempelbox.TransportI2C
}

var _ drempelbox.Transport = (*Transport)(nil)
