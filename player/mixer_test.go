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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const amixerOutput = `Simple mixer control 'Master',0
  Capabilities: pvolume pvolume-joined pswitch pswitch-joined
  Playback channels: Mono
  Limits: Playback 0 - 87
  Mono: Playback 70 [80%] [-17.00dB] [on]
`

func TestAlsaMixer(t *testing.T) {
	t.Parallel()

	var got [][]string
	mixer := NewAlsaMixer("")
	mixer.run = func(_ context.Context, name string, args ...string) (string, error) {
		got = append(got, append([]string{name}, args...))
		return amixerOutput, nil
	}

	level, err := mixer.Volume(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.8, level, 1e-9)

	_, err = mixer.SetVolume(context.Background(), 1.7)
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"amixer", "sget", "Master"},
		{"amixer", "sset", "Master", "100%"},
	}, got)
}

func TestAlsaMixer_Errors(t *testing.T) {
	t.Parallel()

	mixer := NewAlsaMixer("PCM")
	mixer.run = func(context.Context, string, ...string) (string, error) {
		return "", errors.New("amixer: Unable to find simple control")
	}
	_, err := mixer.Volume(context.Background())
	require.Error(t, err)

	mixer.run = func(context.Context, string, ...string) (string, error) {
		return "Simple mixer control 'PCM',0\n", nil
	}
	_, err = mixer.SetVolume(context.Background(), 0.5)
	require.ErrorIs(t, err, ErrMixerOutput)
}

func TestClamp(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.0, clamp(-0.1), 0)
	assert.InDelta(t, 1.0, clamp(3), 0)
	assert.InDelta(t, 0.42, clamp(0.42), 0)
}
