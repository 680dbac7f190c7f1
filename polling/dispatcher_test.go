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

package polling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/drempelbox/drempelbox"
	"github.com/drempelbox/drempelbox/ndef"
	"github.com/drempelbox/drempelbox/player"
)

const playlistURL = "https://open.spotify.com/playlist/62Q9JugytREDtl4i4fcHfX?si=PW2kLwTGQ66_NUEFJD6WYg"

type recordingSender struct {
	err  error
	cmds []player.Command
	mu   sync.Mutex
}

func (s *recordingSender) Send(_ context.Context, cmd player.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.cmds = append(s.cmds, cmd)
	return nil
}

func (s *recordingSender) Commands() []player.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]player.Command(nil), s.cmds...)
}

func tokenMemory(t *testing.T, uri string) [drempelbox.NTAG215TotalBytes]byte {
	t.Helper()

	var memory [drempelbox.NTAG215TotalBytes]byte
	data, err := ndef.EncodeURI(uri)
	require.NoError(t, err)
	copy(memory[drempelbox.NTAG215UserStart:], data)
	return memory
}

func newTestDispatcher(t *testing.T, chip *drempelbox.MockChip, sender Sender) (*Dispatcher, *counters, *[]Update) {
	t.Helper()

	var updates []Update
	c := &counters{}
	d := &Dispatcher{
		reader:   NewSharedReader(drempelbox.NewTag(chip)),
		sender:   sender,
		logger:   zaptest.NewLogger(t),
		counters: c,
		writes:   &writeSlot{},
		notify:   func(u Update) { updates = append(updates, u) },
	}
	return d, c, &updates
}

func TestDispatcher_ArrivalPlays(t *testing.T) {
	t.Parallel()

	chip := drempelbox.NewMockChip()
	chip.PlaceToken(uidA, tokenMemory(t, playlistURL))
	sender := &recordingSender{}
	d, c, updates := newTestDispatcher(t, chip, sender)

	d.Handle(context.Background(), Event{Kind: Arrival, UID: uidA})

	cmds := sender.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, player.KindPlay, cmds[0].Kind)
	assert.Equal(t, playlistURL, cmds[0].URL.String())
	assert.Equal(t, "open.spotify.com", cmds[0].URL.Host)

	assert.Equal(t, int64(1), c.snapshot().Arrivals)
	require.Len(t, *updates, 1)
	assert.Equal(t, "arrival", (*updates)[0].Kind)
	assert.Equal(t, playlistURL, (*updates)[0].URL)
	assert.Equal(t, uidA.String(), (*updates)[0].UID)
}

func TestDispatcher_DepartureStops(t *testing.T) {
	t.Parallel()

	// departures never touch the reader
	chip := drempelbox.NewMockChip()
	sender := &recordingSender{}
	d, c, _ := newTestDispatcher(t, chip, sender)

	d.Handle(context.Background(), Event{Kind: Departure, UID: uidA})

	cmds := sender.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, player.KindStop, cmds[0].Kind)
	assert.Empty(t, chip.Calls())
	assert.Equal(t, int64(1), c.snapshot().Departures)
}

func TestDispatcher_ArrivalFailuresEmitNothing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		setup   func(t *testing.T, chip *drempelbox.MockChip)
		wantErr error
		name    string
	}{
		{
			name:    "Token_Gone",
			setup:   func(*testing.T, *drempelbox.MockChip) {},
			wantErr: drempelbox.ErrTagNotFound,
		},
		{
			name: "Malformed_NDEF",
			setup: func(_ *testing.T, chip *drempelbox.MockChip) {
				var memory [drempelbox.NTAG215TotalBytes]byte
				memory[drempelbox.NTAG215UserStart] = 0x01
				chip.PlaceToken(uidA, memory)
			},
			wantErr: ndef.ErrInvalidMarker,
		},
		{
			name: "Invalid_URL",
			setup: func(t *testing.T, chip *drempelbox.MockChip) {
				chip.PlaceToken(uidA, tokenMemory(t, "https://open.spotify.com/%zz"))
			},
			wantErr: ErrInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			chip := drempelbox.NewMockChip()
			tt.setup(t, chip)
			sender := &recordingSender{}
			d, c, updates := newTestDispatcher(t, chip, sender)

			d.Handle(context.Background(), Event{Kind: Arrival, UID: uidA})

			assert.Empty(t, sender.Commands())
			assert.Equal(t, int64(1), c.snapshot().ReadFailures)
			require.Len(t, *updates, 1)
			require.ErrorIs(t, (*updates)[0].Err, tt.wantErr)
			assert.NotEmpty(t, (*updates)[0].Error)
		})
	}
}

func TestDispatcher_ClosedQueueIsNotFatal(t *testing.T) {
	t.Parallel()

	chip := drempelbox.NewMockChip()
	chip.PlaceToken(uidA, tokenMemory(t, playlistURL))
	sender := &recordingSender{err: player.ErrQueueClosed}
	d, c, updates := newTestDispatcher(t, chip, sender)

	d.Handle(context.Background(), Event{Kind: Arrival, UID: uidA})
	d.Handle(context.Background(), Event{Kind: Departure, UID: uidA})

	assert.Equal(t, int64(2), c.snapshot().SendFailures)
	require.Len(t, *updates, 2)
	require.ErrorIs(t, (*updates)[1].Err, player.ErrQueueClosed)
}

func TestDispatcher_RunOrdersCommands(t *testing.T) {
	t.Parallel()

	chip := drempelbox.NewMockChip()
	chip.PlaceToken(uidA, tokenMemory(t, "file:///music/a.mp3"))
	sender := &recordingSender{}
	d, _, _ := newTestDispatcher(t, chip, sender)

	in := make(chan Sample, 5)
	for _, s := range []Sample{Absent(), PresentSample(uidA), PresentSample(uidA), Absent(), Absent()} {
		in <- s
	}
	close(in)

	require.NoError(t, d.Run(context.Background(), in))

	cmds := sender.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, player.KindPlay, cmds[0].Kind)
	assert.Equal(t, "/music/a.mp3", cmds[0].URL.Path)
	assert.Equal(t, player.KindStop, cmds[1].Kind)
}

func TestDispatcher_SendErrorWraps(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	d, _, updates := newTestDispatcher(t, drempelbox.NewMockChip(), &recordingSender{err: boom})

	d.Handle(context.Background(), Event{Kind: Departure, UID: uidB})
	require.Len(t, *updates, 1)
	require.ErrorIs(t, (*updates)[0].Err, boom)
}

func TestReadFailureLevel(t *testing.T) {
	t.Parallel()

	_, formatErr := ndef.Parse([]byte{0x01})
	require.Error(t, formatErr)

	tests := []struct {
		err  error
		name string
		want zapcore.Level
	}{
		{name: "Malformed_NDEF", err: fmt.Errorf("read tag: %w", formatErr), want: zapcore.WarnLevel},
		{name: "No_URI", err: ErrNoURI, want: zapcore.WarnLevel},
		{name: "Invalid_URL", err: fmt.Errorf("%w: bad escape", ErrInvalidURL), want: zapcore.WarnLevel},
		{name: "Bus_Failure", err: drempelbox.ErrTransportTimeout, want: zapcore.ErrorLevel},
		{name: "Tag_Gone", err: drempelbox.ErrNoResponse, want: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, readFailureLevel(tt.err))
		})
	}
}
