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
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/drempelbox/drempelbox"
	"github.com/drempelbox/drempelbox/ndef"
	"github.com/drempelbox/drempelbox/player"
)

func startSession(t *testing.T, chip *drempelbox.MockChip, sender Sender) (*Session, func()) {
	t.Helper()

	session, err := NewSession(drempelbox.NewTag(chip), sender, zaptest.NewLogger(t), &Config{
		PollInterval: 2 * time.Millisecond,
		BufferSize:   4,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()

	require.Eventually(t, func() bool {
		return session.Metrics().PollCycles >= 2
	}, time.Second, time.Millisecond)

	return session, func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("session did not stop")
		}
	}
}

func TestNewSession_Validation(t *testing.T) {
	t.Parallel()

	tag := drempelbox.NewTag(drempelbox.NewMockChip())

	_, err := NewSession(nil, &recordingSender{}, nil, nil)
	require.ErrorIs(t, err, ErrNilReader)

	_, err = NewSession(tag, nil, nil, nil)
	require.Error(t, err)

	_, err = NewSession(tag, &recordingSender{}, nil, &Config{PollInterval: 0})
	require.Error(t, err)

	session, err := NewSession(tag, &recordingSender{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, session.poller.interval)
	assert.Equal(t, 16, cap(session.samples))
}

func TestSession_TapPlaysThenStops(t *testing.T) {
	t.Parallel()

	chip := drempelbox.NewMockChip()
	sender := &recordingSender{}
	session, stop := startSession(t, chip, sender)

	var updates []Update
	updateCh := make(chan Update, 8)
	session.OnEvent(func(u Update) { updateCh <- u })

	chip.PlaceToken(uidA, tokenMemory(t, playlistURL))
	require.Eventually(t, func() bool {
		return len(sender.Commands()) == 1
	}, time.Second, time.Millisecond)

	uid, present := session.Token()
	assert.True(t, present)
	assert.Equal(t, uidA, uid)

	chip.RemoveToken()
	require.Eventually(t, func() bool {
		return len(sender.Commands()) == 2
	}, time.Second, time.Millisecond)

	stop()

	cmds := sender.Commands()
	assert.Equal(t, player.KindPlay, cmds[0].Kind)
	assert.Equal(t, playlistURL, cmds[0].URL.String())
	assert.Equal(t, player.KindStop, cmds[1].Kind)

	close(updateCh)
	for u := range updateCh {
		updates = append(updates, u)
	}
	require.Len(t, updates, 2)
	assert.Equal(t, "arrival", updates[0].Kind)
	assert.Equal(t, "departure", updates[1].Kind)

	metrics := session.Metrics()
	assert.Equal(t, int64(1), metrics.Arrivals)
	assert.Equal(t, int64(1), metrics.Departures)
	assert.Zero(t, metrics.ReadFailures)
}

func TestSession_RunTwice(t *testing.T) {
	t.Parallel()

	session, stop := startSession(t, drempelbox.NewMockChip(), &recordingSender{})
	defer stop()

	err := session.Run(context.Background())
	require.Error(t, err)
}

func TestSession_WriteToNextTag(t *testing.T) {
	t.Parallel()

	chip := drempelbox.NewMockChip()
	sender := &recordingSender{}
	session, stop := startSession(t, chip, sender)

	const uri = "file:///music/new.mp3"
	result := make(chan error, 1)
	go func() { result <- session.WriteToNextTag(context.Background(), time.Second, uri) }()

	require.Eventually(t, func() bool {
		return session.dispatcher.writes.pending.Load() != nil
	}, time.Second, time.Millisecond)

	err := session.WriteToNextTag(context.Background(), time.Second, "file:///other.mp3")
	require.ErrorIs(t, err, ErrWriteAlreadyPending)

	chip.PlaceToken(uidB, [drempelbox.NTAG215TotalBytes]byte{})

	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("write did not complete")
	}

	stop()

	// the arrival that was written is not played
	assert.Empty(t, sender.Commands())

	msg, err := drempelbox.NewTag(chip).Read()
	require.NoError(t, err)
	got, ok := msg.URI()
	require.True(t, ok)
	assert.Equal(t, uri, got)
}

func TestSession_WriteRequiresRunning(t *testing.T) {
	t.Parallel()

	session, err := NewSession(drempelbox.NewTag(drempelbox.NewMockChip()), &recordingSender{}, nil, nil)
	require.NoError(t, err)

	err = session.WriteToNextTag(context.Background(), time.Millisecond, "file:///a.mp3")
	require.ErrorIs(t, err, ErrSessionNotRunning)
}

func TestSession_WriteTimeout(t *testing.T) {
	t.Parallel()

	session, stop := startSession(t, drempelbox.NewMockChip(), &recordingSender{})
	defer stop()

	err := session.WriteToNextTag(context.Background(), 10*time.Millisecond, "file:///a.mp3")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, session.dispatcher.writes.pending.Load())
}

// slowWriter is a token that takes until release is closed to program
type slowWriter struct {
	started chan struct{}
	release chan struct{}
	written atomic.Pointer[string]
	ctxErr  atomic.Pointer[error]
	present atomic.Bool
}

func (w *slowWriter) IsTokenPresentContext(context.Context) (drempelbox.UID, bool) {
	if !w.present.Load() {
		return nil, false
	}
	return uidB, true
}

func (*slowWriter) ReadContext(context.Context) (*ndef.Message, error) {
	return nil, drempelbox.ErrTagNotFound
}

func (w *slowWriter) WriteURIContext(ctx context.Context, uri string) error {
	close(w.started)
	<-w.release
	err := ctx.Err()
	w.ctxErr.Store(&err)
	w.written.Store(&uri)
	return nil
}

func TestSession_WriteOutlivesTimeout(t *testing.T) {
	t.Parallel()

	tag := &slowWriter{started: make(chan struct{}), release: make(chan struct{})}
	session, err := NewSession(tag, &recordingSender{}, zaptest.NewLogger(t), &Config{
		PollInterval: 2 * time.Millisecond,
		BufferSize:   4,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	require.Eventually(t, func() bool {
		return session.Metrics().PollCycles >= 2
	}, time.Second, time.Millisecond)

	const uri = "file:///music/slow.mp3"
	result := make(chan error, 1)
	go func() { result <- session.WriteToNextTag(context.Background(), 30*time.Millisecond, uri) }()

	require.Eventually(t, func() bool {
		return session.dispatcher.writes.pending.Load() != nil
	}, time.Second, time.Millisecond)
	tag.present.Store(true)

	select {
	case <-tag.started:
	case <-time.After(time.Second):
		t.Fatal("write did not start")
	}

	// the timeout expires while the token is being programmed
	time.Sleep(60 * time.Millisecond)
	select {
	case err := <-result:
		t.Fatalf("returned before the write finished: %v", err)
	default:
	}

	close(tag.release)
	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("write result not reported")
	}

	require.NotNil(t, tag.written.Load())
	assert.Equal(t, uri, *tag.written.Load())
	require.NotNil(t, tag.ctxErr.Load())
	assert.NoError(t, *tag.ctxErr.Load())
}
