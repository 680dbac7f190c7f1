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

// Package spi provides SPI transport implementation for the MFRC522
package spi

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/drempelbox/drempelbox"
	"github.com/drempelbox/drempelbox/internal/frame"
)

const (
	// DefaultSpeed is the SPI clock used unless WithSpeed is given.
	DefaultSpeed = 1 * physic.MegaHertz

	// the MFRC522 FIFO holds 64 bytes
	maxBurst = 64

	resetPulse = 50 * time.Millisecond
)

// Option configures a Transport opened with New
type Option func(*config)

type config struct {
	resetPin string
	speed    physic.Frequency
}

// WithSpeed sets the SPI clock frequency
func WithSpeed(speed physic.Frequency) Option {
	return func(c *config) {
		c.speed = speed
	}
}

// WithResetPin names the GPIO wired to the NRSTPD pin. The chip is hard
// reset through it when the transport is opened.
func WithResetPin(name string) Option {
	return func(c *config) {
		c.resetPin = name
	}
}

// Transport implements the drempelbox.Transport interface for SPI
type Transport struct {
	conn    conn.Conn
	port    spi.PortCloser
	reset   gpio.PinOut
	busName string
	mu      sync.Mutex
}

// New opens the SPI port busName, for example "/dev/spidev0.0" or "SPI0.0"
func New(busName string, opts ...Option) (*Transport, error) {
	cfg := &config{speed: DefaultSpeed}
	for _, opt := range opts {
		opt(cfg)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(busName)
	if err != nil {
		return nil, drempelbox.NewTransportError("open", busName,
			fmt.Errorf("%w: %w", drempelbox.ErrDeviceNotFound, err), drempelbox.ErrorTypePermanent)
	}

	c, err := port.Connect(cfg.speed, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to configure SPI port %s: %w", busName, err)
	}

	t := &Transport{conn: c, port: port, busName: busName}

	if cfg.resetPin != "" {
		pin := gpioreg.ByName(cfg.resetPin)
		if pin == nil {
			_ = port.Close()
			return nil, fmt.Errorf("reset pin %s: %w", cfg.resetPin, drempelbox.ErrDeviceNotFound)
		}
		t.reset = pin
		if err := t.HardReset(); err != nil {
			_ = port.Close()
			return nil, err
		}
	}

	return t, nil
}

// NewWithConn wraps an already connected SPI conn
func NewWithConn(c conn.Conn, name string) *Transport {
	return &Transport{conn: c, busName: name}
}

// HardReset pulses the reset pin low
func (t *Transport) HardReset() error {
	if t.reset == nil {
		return nil
	}
	if err := t.reset.Out(gpio.Low); err != nil {
		return fmt.Errorf("reset pin low: %w", err)
	}
	time.Sleep(time.Millisecond)
	if err := t.reset.Out(gpio.High); err != nil {
		return fmt.Errorf("reset pin high: %w", err)
	}
	// oscillator start-up
	time.Sleep(resetPulse)
	return nil
}

// ReadRegister reads one register
func (t *Transport) ReadRegister(reg byte) (byte, error) {
	values, err := t.ReadRegisters(reg, 1)
	if err != nil {
		return 0, err
	}
	return values[0], nil
}

// ReadRegisters reads the same register n times in one transaction. The
// first byte clocked in answers the first address byte and is dropped.
func (t *Transport) ReadRegisters(reg byte, n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > maxBurst {
		return nil, drempelbox.NewDataTooLargeError("ReadRegisters", t.busName)
	}

	w := make([]byte, n+1)
	addr := frame.SPIAddress(reg, true)
	for i := 0; i < n; i++ {
		w[i] = addr
	}
	r := make([]byte, n+1)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil, drempelbox.ErrTransportClosed
	}
	if err := t.conn.Tx(w, r); err != nil {
		return nil, drempelbox.NewReadError("ReadRegisters", t.busName, err)
	}
	return r[1:], nil
}

// WriteRegister writes one register
func (t *Transport) WriteRegister(reg, value byte) error {
	return t.WriteRegisters(reg, []byte{value})
}

// WriteRegisters writes values to the same register in one transaction
func (t *Transport) WriteRegisters(reg byte, values []byte) error {
	if len(values) == 0 {
		return nil
	}
	if len(values) > maxBurst {
		return drempelbox.NewDataTooLargeError("WriteRegisters", t.busName)
	}

	w := make([]byte, 0, len(values)+1)
	w = append(w, frame.SPIAddress(reg, false))
	w = append(w, values...)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return drempelbox.ErrTransportClosed
	}
	if err := t.conn.Tx(w, nil); err != nil {
		return drempelbox.NewWriteError("WriteRegisters", t.busName, err)
	}
	return nil
}

// Close releases the SPI port
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conn = nil
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("failed to close SPI port %s: %w", t.busName, err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Type returns the transport type
func (*Transport) Type() drempelbox.TransportType {
	return drempelbox.TransportSPI
}

var _ drempelbox.Transport = (*Transport)(nil)
