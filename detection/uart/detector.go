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

// Package uart detects MFRC522 readers behind serial ports
package uart

import (
	"context"
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"

	"github.com/drempelbox/drempelbox/detection"
	uarttransport "github.com/drempelbox/drempelbox/transport/uart"
)

type openFunc func(name string) (detection.RegisterReader, error)

type detector struct {
	ports func() ([]*enumerator.PortDetails, error)
	open  openFunc
}

// New creates a serial port detector
func New() detection.Detector {
	return &detector{ports: enumerator.GetDetailedPortsList, open: openTransport}
}

func init() {
	detection.RegisterDetector(New())
}

func openTransport(name string) (detection.RegisterReader, error) {
	t, err := uarttransport.New(name)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (*detector) Transport() string {
	return "uart"
}

// Detect enumerates serial ports, skips blocklisted USB adapters and, unless
// passive, reads the version register through each remaining port
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	ports, err := d.ports()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	var devices []detection.DeviceInfo
	for _, port := range ports {
		if ctx.Err() != nil {
			break
		}

		vidpid := ""
		if port.IsUSB {
			vidpid = detection.FormatVIDPID(port.VID, port.PID)
			if detection.IsBlocked(vidpid, opts.Blocklist) {
				continue
			}
		}
		// onboard consoles are never readers
		if !port.IsUSB && !strings.HasPrefix(port.Name, "/dev/serial") && opts.Mode == detection.Passive {
			continue
		}

		info := detection.DeviceInfo{
			Transport:  "uart",
			Path:       port.Name,
			Name:       portName(port),
			Confidence: detection.Low,
			Metadata:   map[string]string{},
		}
		if vidpid != "" {
			info.Metadata["vidpid"] = vidpid
		}
		if port.SerialNumber != "" {
			info.Metadata["serial"] = port.SerialNumber
		}

		if opts.Mode != detection.Passive {
			r, err := d.open(port.Name)
			if err != nil {
				continue
			}
			version, confidence, err := detection.Probe(r)
			if err != nil || confidence == detection.Low {
				continue
			}
			info.Confidence = confidence
			info.Metadata["version"] = fmt.Sprintf("0x%02X", version)
		}

		devices = append(devices, info)
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

func portName(port *enumerator.PortDetails) string {
	if port.Product != "" {
		return fmt.Sprintf("%s (%s)", port.Product, port.Name)
	}
	return "serial port " + port.Name
}
