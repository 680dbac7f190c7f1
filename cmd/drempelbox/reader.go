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

package main

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/drempelbox/drempelbox"
	"github.com/drempelbox/drempelbox/internal/config"
	"github.com/drempelbox/drempelbox/transport/i2c"
	"github.com/drempelbox/drempelbox/transport/spi"
	"github.com/drempelbox/drempelbox/transport/uart"
)

func openTransport(cfg config.Reader) (drempelbox.Transport, error) {
	switch cfg.Transport {
	case config.TransportSPI:
		var opts []spi.Option
		if cfg.ResetPin != "" {
			opts = append(opts, spi.WithResetPin(cfg.ResetPin))
		}
		t, err := spi.New(cfg.Device, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create SPI transport: %w", err)
		}
		return t, nil
	case config.TransportI2C:
		t, err := i2c.New(cfg.Device, cfg.Address)
		if err != nil {
			return nil, fmt.Errorf("failed to create I2C transport: %w", err)
		}
		return t, nil
	case config.TransportUART:
		t, err := uart.New(cfg.Device)
		if err != nil {
			return nil, fmt.Errorf("failed to create UART transport: %w", err)
		}
		if cfg.Timeout > 0 {
			if err := t.SetTimeout(cfg.Timeout); err != nil {
				_ = t.Close()
				return nil, fmt.Errorf("failed to set UART timeout: %w", err)
			}
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", cfg.Transport)
	}
}

// openDevice opens the configured transport and initializes the chip on it
func openDevice(ctx context.Context, cfg config.Reader, logger *zap.Logger) (*drempelbox.Device, error) {
	transport, err := openTransport(cfg)
	if err != nil {
		return nil, err
	}

	opts := []drempelbox.Option{drempelbox.WithRetry()}
	if cfg.Timeout > 0 {
		opts = append(opts, drempelbox.WithTimeout(cfg.Timeout))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, drempelbox.WithMaxRetries(cfg.MaxRetries))
	}

	device, err := drempelbox.New(transport, opts...)
	if err != nil {
		var result *multierror.Error
		result = multierror.Append(result, fmt.Errorf("failed to create device: %w", err))
		if closeErr := transport.Close(); closeErr != nil {
			result = multierror.Append(result, closeErr)
		}
		return nil, result.ErrorOrNil()
	}

	if err := device.InitContext(ctx); err != nil {
		var result *multierror.Error
		result = multierror.Append(result, fmt.Errorf("failed to initialize reader: %w", err))
		if closeErr := device.Close(); closeErr != nil {
			result = multierror.Append(result, closeErr)
		}
		return nil, result.ErrorOrNil()
	}

	logger.Info("reader initialized",
		zap.String("transport", string(transport.Type())),
		zap.String("device", cfg.Device),
		zap.String("version", fmt.Sprintf("0x%02X", device.FirmwareVersion())))

	return device, nil
}
