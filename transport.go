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
	"context"
	"fmt"
)

// Transport is register level access to an MFRC522. It is implemented by
// the SPI, I2C and UART backends.
type Transport interface {
	// ReadRegister reads a single register
	ReadRegister(reg byte) (byte, error)

	// WriteRegister writes a single register
	WriteRegister(reg, value byte) error

	// ReadRegisters reads the same register n times, used to drain the FIFO
	ReadRegisters(reg byte, n int) ([]byte, error)

	// WriteRegisters writes values to the same register in order, used to
	// fill the FIFO
	WriteRegisters(reg byte, values []byte) error

	// Close closes the transport connection
	Close() error

	// IsConnected returns true if the transport is connected
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportSPI represents SPI bus transport.
	TransportSPI TransportType = "spi"
	// TransportI2C represents I2C bus transport.
	TransportI2C TransportType = "i2c"
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// TransportWithRetry wraps a Transport with retry capabilities
type TransportWithRetry struct {
	transport Transport
	config    *RetryConfig
}

// NewTransportWithRetry creates a new transport wrapper with retry logic
func NewTransportWithRetry(transport Transport, config *RetryConfig) *TransportWithRetry {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &TransportWithRetry{
		transport: transport,
		config:    config,
	}
}

func (t *TransportWithRetry) retry(op string, fn func() error) error {
	return RetryWithConfig(context.Background(), t.config, func() error {
		if err := fn(); err != nil {
			return &TransportError{
				Op:        op,
				Err:       err,
				Type:      GetErrorType(err),
				Retryable: IsRetryable(err),
			}
		}
		return nil
	})
}

// ReadRegister reads a register with retry logic
func (t *TransportWithRetry) ReadRegister(reg byte) (byte, error) {
	var value byte
	err := t.retry("ReadRegister", func() error {
		var err error
		value, err = t.transport.ReadRegister(reg)
		return err
	})
	return value, err
}

// WriteRegister writes a register with retry logic
func (t *TransportWithRetry) WriteRegister(reg, value byte) error {
	return t.retry("WriteRegister", func() error {
		return t.transport.WriteRegister(reg, value)
	})
}

// ReadRegisters drains the FIFO without retrying, since a partial drain has
// already consumed bytes. The next transceive flushes the FIFO first.
func (t *TransportWithRetry) ReadRegisters(reg byte, n int) ([]byte, error) {
	values, err := t.transport.ReadRegisters(reg, n)
	if err != nil {
		return nil, wrapOnce("ReadRegisters", err)
	}
	return values, nil
}

// WriteRegisters fills the FIFO without retrying, since a partial fill has
// already queued bytes. The next transceive flushes the FIFO first.
func (t *TransportWithRetry) WriteRegisters(reg byte, values []byte) error {
	if err := t.transport.WriteRegisters(reg, values); err != nil {
		return wrapOnce("WriteRegisters", err)
	}
	return nil
}

func wrapOnce(op string, err error) error {
	return &TransportError{
		Op:        op,
		Err:       err,
		Type:      GetErrorType(err),
		Retryable: IsRetryable(err),
	}
}

// Close closes the transport connection
func (t *TransportWithRetry) Close() error {
	if err := t.transport.Close(); err != nil {
		return fmt.Errorf("failed to close underlying transport: %w", err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *TransportWithRetry) IsConnected() bool {
	return t.transport.IsConnected()
}

// Type returns the transport type
func (t *TransportWithRetry) Type() TransportType {
	return t.transport.Type()
}

// SetRetryConfig updates the retry configuration
func (t *TransportWithRetry) SetRetryConfig(config *RetryConfig) {
	t.config = config
}
