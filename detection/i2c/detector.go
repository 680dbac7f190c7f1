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

// Package i2c detects MFRC522 readers on I2C buses
package i2c

import (
	"context"
	"fmt"

	"github.com/drempelbox/drempelbox/detection"
)

// MFRC522 I2C addresses selectable with the address pins
const (
	FirstAddress = 0x28
	LastAddress  = 0x2F
)

// probeFunc reads the version register of the chip at addr on bus
type probeFunc func(ctx context.Context, bus string, addr uint16) (byte, error)

type detector struct {
	buses func() ([]string, error)
	probe probeFunc
}

// New creates an I2C detector for this platform
func New() detection.Detector {
	return &detector{buses: findBuses, probe: readVersion}
}

func init() {
	detection.RegisterDetector(New())
}

func (*detector) Transport() string {
	return "i2c"
}

// Detect lists I2C buses and, unless passive, reads the version register of
// every MFRC522 address on them
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	buses, err := d.buses()
	if err != nil {
		return nil, err
	}
	if len(buses) == 0 {
		return nil, detection.ErrNoDevicesFound
	}

	devices := scan(ctx, buses, opts, d.probe)
	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

func scan(ctx context.Context, buses []string, opts *detection.Options, probe probeFunc) []detection.DeviceInfo {
	var devices []detection.DeviceInfo

	for _, bus := range buses {
		if opts.Mode == detection.Passive {
			devices = append(devices, deviceInfo(bus, FirstAddress, detection.Medium, nil))
			continue
		}

		for addr := uint16(FirstAddress); addr <= LastAddress; addr++ {
			if ctx.Err() != nil {
				return devices
			}

			version, err := probe(ctx, bus, addr)
			if err != nil {
				continue
			}

			devices = append(devices, deviceInfo(bus, addr, detection.ClassifyVersion(version), map[string]string{
				"version": fmt.Sprintf("0x%02X", version),
			}))
		}
	}
	return devices
}

func deviceInfo(bus string, addr uint16, confidence detection.Confidence, extra map[string]string) detection.DeviceInfo {
	metadata := map[string]string{
		"bus":     bus,
		"address": fmt.Sprintf("0x%02X", addr),
	}
	for k, v := range extra {
		metadata[k] = v
	}

	return detection.DeviceInfo{
		Transport:  "i2c",
		Path:       fmt.Sprintf("%s:0x%02X", bus, addr),
		Name:       fmt.Sprintf("MFRC522 on %s address 0x%02X", bus, addr),
		Confidence: confidence,
		Metadata:   metadata,
	}
}
