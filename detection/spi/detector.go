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

// Package spi detects MFRC522 readers on SPI ports
package spi

import (
	"context"
	"fmt"
	"strings"

	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/drempelbox/drempelbox/detection"
	spitransport "github.com/drempelbox/drempelbox/transport/spi"
)

type openFunc func(name string) (detection.RegisterReader, error)

type detector struct {
	ports func() ([]string, error)
	open  openFunc
}

// New creates an SPI detector backed by the periph registry
func New() detection.Detector {
	return &detector{ports: registeredPorts, open: openTransport}
}

func init() {
	detection.RegisterDetector(New())
}

func registeredPorts() ([]string, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	refs := spireg.All()
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	return names, nil
}

func openTransport(name string) (detection.RegisterReader, error) {
	t, err := spitransport.New(name)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (*detector) Transport() string {
	return "spi"
}

// Detect lists SPI ports and, unless passive, reads the version register
// through each
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	ports, err := d.ports()
	if err != nil {
		return nil, err
	}

	var devices []detection.DeviceInfo
	for _, name := range ports {
		if ctx.Err() != nil {
			break
		}

		info := detection.DeviceInfo{
			Transport:  "spi",
			Path:       name,
			Name:       "SPI port " + name,
			Confidence: detection.Low,
			Metadata:   map[string]string{},
		}
		// chip select 0 of the first bus is the usual wiring
		if strings.HasSuffix(name, "0.0") {
			info.Confidence = detection.Medium
		}

		if opts.Mode != detection.Passive {
			r, err := d.open(name)
			if err != nil {
				continue
			}
			version, confidence, err := detection.Probe(r)
			if err != nil {
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
