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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	t.Parallel()

	q := NewQueue(2)
	require.NoError(t, q.Send(context.Background(), Stop()))
	require.NoError(t, q.Send(context.Background(), VolumeUp()))
	assert.Equal(t, 2, q.Len())

	cmd, ok := q.receive(context.Background())
	require.True(t, ok)
	assert.Equal(t, KindStop, cmd.Kind)

	cmd, ok = q.receive(context.Background())
	require.True(t, ok)
	assert.Equal(t, KindVolumeUp, cmd.Kind)
}

func TestQueue_SendBlocksWhenFull(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	require.NoError(t, q.Send(context.Background(), Stop()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.Send(ctx, Stop())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_Closed(t *testing.T) {
	t.Parallel()

	q := NewQueue(2)
	pending := VolumeDown()
	require.NoError(t, q.Send(context.Background(), pending))

	q.Close()
	q.Close()

	_, ok := <-pending.Reply
	assert.False(t, ok, "pending replies are closed")

	require.ErrorIs(t, q.Send(context.Background(), Stop()), ErrQueueClosed)

	_, ok = q.receive(context.Background())
	assert.False(t, ok)
}

func TestQueue_CloseUnblocksSender(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	require.NoError(t, q.Send(context.Background(), Stop()))

	errCh := make(chan error, 1)
	go func() { errCh <- q.Send(context.Background(), Stop()) }()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("Send did not return after Close")
	}
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "play", KindPlay.String())
	assert.Equal(t, "volume-set", KindVolumeSet.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
