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
	"sync"
)

// ErrQueueClosed is returned when sending to a queue whose consumer is gone
var ErrQueueClosed = errors.New("player queue closed")

// DefaultQueueSize matches the small bounded channel between producers and
// the router
const DefaultQueueSize = 16

// Queue is a bounded FIFO of player commands with many producers and one
// consumer. Send blocks while the queue is full.
type Queue struct {
	ch        chan Command
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue creates a queue holding up to size pending commands
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		ch:   make(chan Command, size),
		done: make(chan struct{}),
	}
}

// Send enqueues cmd. It returns ErrQueueClosed once Close was called and
// ctx.Err() if ctx ends while waiting for space.
func (q *Queue) Send(ctx context.Context, cmd Command) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.ch <- cmd:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close marks the queue closed. Pending commands are dropped and their
// reply channels closed.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
		for {
			select {
			case cmd := <-q.ch:
				cmd.abandon()
			default:
				return
			}
		}
	})
}

// Len returns the number of pending commands
func (q *Queue) Len() int {
	return len(q.ch)
}

// receive waits for the next command. ok is false once the queue is closed
// or ctx is done.
func (q *Queue) receive(ctx context.Context) (Command, bool) {
	select {
	case cmd := <-q.ch:
		return cmd, true
	case <-q.done:
		return Command{}, false
	case <-ctx.Done():
		return Command{}, false
	}
}
