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

package player

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/siderolabs/go-cmd/pkg/cmd"
)

// DefaultVolume is applied to the mixer at startup
const DefaultVolume = 0.8

// ErrMixerOutput is returned when amixer output has no volume level
var ErrMixerOutput = errors.New("no volume level in mixer output")

var percentPattern = regexp.MustCompile(`\[(\d{1,3})%\]`)

// Mixer reads and sets the output volume in [0, 1]
type Mixer interface {
	Volume(ctx context.Context) (float64, error)
	SetVolume(ctx context.Context, v float64) (float64, error)
}

// runFunc matches cmd.RunContext
type runFunc func(ctx context.Context, name string, args ...string) (string, error)

// AlsaMixer drives an ALSA simple mixer control through amixer
type AlsaMixer struct {
	run     runFunc
	control string
}

// NewAlsaMixer creates a mixer for control, "Master" when empty
func NewAlsaMixer(control string) *AlsaMixer {
	if control == "" {
		control = "Master"
	}
	return &AlsaMixer{control: control, run: cmd.RunContext}
}

// Volume returns the current playback level of the control
func (m *AlsaMixer) Volume(ctx context.Context) (float64, error) {
	out, err := m.run(ctx, "amixer", "sget", m.control)
	if err != nil {
		return 0, fmt.Errorf("failed to read mixer %s: %w", m.control, err)
	}
	return parseLevel(out)
}

// SetVolume sets all playback channels of the control to v, clamped to
// [0, 1], and returns the level read back
func (m *AlsaMixer) SetVolume(ctx context.Context, v float64) (float64, error) {
	percent := int(math.Round(clamp(v) * 100))
	out, err := m.run(ctx, "amixer", "sset", m.control, strconv.Itoa(percent)+"%")
	if err != nil {
		return 0, fmt.Errorf("failed to set mixer %s: %w", m.control, err)
	}
	return parseLevel(out)
}

func parseLevel(out string) (float64, error) {
	match := percentPattern.FindStringSubmatch(out)
	if match == nil {
		return 0, ErrMixerOutput
	}
	percent, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMixerOutput, err)
	}
	return clamp(float64(percent) / 100), nil
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
