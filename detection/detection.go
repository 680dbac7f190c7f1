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

// Package detection finds MFRC522 readers attached to the host
package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Detection errors
var (
	ErrNoDevicesFound      = errors.New("no reader devices found")
	ErrUnsupportedPlatform = errors.New("detection not supported on this platform")
	ErrDetectionTimeout    = errors.New("detection timed out")
)

// Mode controls how invasive detection is
type Mode int

const (
	// Passive lists candidate buses without talking to them
	Passive Mode = iota
	// Safe reads the version register of candidates
	Safe
)

// Confidence ranks how likely a candidate is a reader
type Confidence int

const (
	// Low means the bus exists
	Low Confidence = iota
	// Medium means the bus or address matches a typical wiring
	Medium
	// High means the version register answered with a known value
	High
)

func (c Confidence) String() string {
	switch c {
	case High:
		return "high"
	case Medium:
		return "medium"
	default:
		return "low"
	}
}

// DeviceInfo describes a candidate reader
type DeviceInfo struct {
	Metadata   map[string]string
	Transport  string
	Path       string
	Name       string
	Confidence Confidence
}

// Options configures a detection run
type Options struct {
	// IgnorePaths are device paths never reported
	IgnorePaths []string
	// Blocklist holds USB VID:PID pairs never probed
	Blocklist []string
	// Timeout bounds the whole run, zero means no bound
	Timeout time.Duration
	Mode    Mode
}

// DefaultOptions returns options for a safe probe
func DefaultOptions() *Options {
	return &Options{
		Mode:      Safe,
		Timeout:   5 * time.Second,
		Blocklist: DefaultBlocklist(),
	}
}

// Detector finds readers on one kind of transport
type Detector interface {
	Transport() string
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Detector{}
)

// RegisterDetector makes d available to DetectAll. A later registration for
// the same transport replaces the earlier one.
func RegisterDetector(d Detector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Transport()] = d
}

// Detectors returns the registered detectors ordered by transport
func Detectors() []Detector {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Detector, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Transport() < out[j].Transport()
	})
	return out
}

// DetectAll runs every registered detector concurrently. Detectors that find
// nothing or do not support the platform are skipped. The result is ordered
// by confidence, highest first.
func DetectAll(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	return detectWith(ctx, Detectors(), opts)
}

func detectWith(ctx context.Context, detectors []Detector, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var (
		mu      sync.Mutex
		devices []DeviceInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, d := range detectors {
		g.Go(func() error {
			found, err := d.Detect(gctx, opts)
			switch {
			case errors.Is(err, ErrNoDevicesFound), errors.Is(err, ErrUnsupportedPlatform):
				return nil
			case err != nil:
				return fmt.Errorf("%s detection: %w", d.Transport(), err)
			}

			mu.Lock()
			defer mu.Unlock()
			for _, dev := range found {
				if !IsPathIgnored(dev.Path, opts.IgnorePaths) {
					devices = append(devices, dev)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil && len(devices) == 0 {
		return nil, ErrDetectionTimeout
	}
	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}

	sort.SliceStable(devices, func(i, j int) bool {
		if devices[i].Confidence != devices[j].Confidence {
			return devices[i].Confidence > devices[j].Confidence
		}
		return devices[i].Path < devices[j].Path
	})
	return devices, nil
}
