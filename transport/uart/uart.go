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

// Package uart provides UART transport implementation for the MFRC522
package uart

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/drempelbox/drempelbox"
	"github.com/drempelbox/drempelbox/internal/frame"
	"github.com/drempelbox/drempelbox/internal/transport"
)

const (
	// DefaultBaudRate is the MFRC522 UART rate after reset
	DefaultBaudRate = 9600

	defaultTimeout = 50 * time.Millisecond
	readChunk      = 10 * time.Millisecond
)

// port is the subset of serial.Port used by the transport
type port interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
}

// Transport implements the drempelbox.Transport interface for UART. The
// chip answers one register per address byte.
type Transport struct {
	port     port
	portName string
	timeout  time.Duration
	mu       sync.Mutex
}

// New opens portName at the default baud rate
func New(portName string) (*Transport, error) {
	mode := &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(portName, mode)
	if err != nil {
		return nil, drempelbox.NewTransportError("open", portName,
			fmt.Errorf("%w: %w", drempelbox.ErrDeviceNotFound, err), drempelbox.ErrorTypePermanent)
	}

	if err := p.SetReadTimeout(readChunk); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}

	return newTransport(p, portName), nil
}

func newTransport(p port, name string) *Transport {
	return &Transport{port: p, portName: name, timeout: defaultTimeout}
}

// SetTimeout sets how long to wait for each answer byte
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return drempelbox.ErrInvalidParameter
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
	return nil
}

func (t *Transport) readByte() (byte, error) {
	buf := make([]byte, 1)
	return transport.TimeoutRetry(t.timeout, t.portName, func() (byte, bool, error) {
		n, err := t.port.Read(buf)
		if err != nil {
			return 0, false, drempelbox.NewReadError("read", t.portName, err)
		}
		return buf[0], n == 0, nil
	})
}

func (t *Transport) write(data []byte) error {
	if _, err := t.port.Write(data); err != nil {
		return drempelbox.NewWriteError("write", t.portName, err)
	}
	return nil
}

func (t *Transport) readRegister(reg byte) (byte, error) {
	if err := t.write([]byte{frame.UARTAddress(reg, true)}); err != nil {
		return 0, err
	}
	return t.readByte()
}

func (t *Transport) writeRegister(reg, value byte) error {
	addr := frame.UARTAddress(reg, false)
	if err := t.write([]byte{addr, value}); err != nil {
		return err
	}
	echo, err := t.readByte()
	if err != nil {
		return err
	}
	if echo != addr {
		_ = t.port.ResetInputBuffer()
		return drempelbox.NewTransportError("write", t.portName,
			fmt.Errorf("%w: echo %02X for address %02X", drempelbox.ErrCommunicationFailed, echo, addr),
			drempelbox.ErrorTypeTransient)
	}
	return nil
}

func (t *Transport) lock() error {
	t.mu.Lock()
	if t.port == nil {
		t.mu.Unlock()
		return drempelbox.ErrTransportClosed
	}
	return nil
}

// ReadRegister reads one register
func (t *Transport) ReadRegister(reg byte) (byte, error) {
	if err := t.lock(); err != nil {
		return 0, err
	}
	defer t.mu.Unlock()
	return t.readRegister(reg)
}

// ReadRegisters reads reg n times
func (t *Transport) ReadRegisters(reg byte, n int) ([]byte, error) {
	if err := t.lock(); err != nil {
		return nil, err
	}
	defer t.mu.Unlock()

	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		value, err := t.readRegister(reg)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}

// WriteRegister writes one register
func (t *Transport) WriteRegister(reg, value byte) error {
	if err := t.lock(); err != nil {
		return err
	}
	defer t.mu.Unlock()
	return t.writeRegister(reg, value)
}

// WriteRegisters writes values to reg one at a time
func (t *Transport) WriteRegisters(reg byte, values []byte) error {
	if err := t.lock(); err != nil {
		return err
	}
	defer t.mu.Unlock()

	for _, value := range values {
		if err := t.writeRegister(reg, value); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the serial port
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", t.portName, err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() drempelbox.TransportType {
	return drempelbox.TransportUART
}

var _ drempelbox.Transport = (*Transport)(nil)
