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
	"sync/atomic"
	"time"

	"github.com/drempelbox/drempelbox"
)

// Write coordination errors
var (
	ErrWriteAlreadyPending = errors.New("write operation already pending")
	ErrSessionNotRunning   = errors.New("session is not running")
)

// TagWriter is implemented by readers that can program tags.
// *drempelbox.Tag implements it.
type TagWriter interface {
	WriteURIContext(ctx context.Context, uri string) error
}

// writeRequest is a URI waiting for the next token to arrive
type writeRequest struct {
	ctx    context.Context
	result chan error
	uri    string
}

// writeSlot holds at most one pending write request
type writeSlot struct {
	pending atomic.Pointer[writeRequest]
}

// take removes and returns the pending request, or nil
func (w *writeSlot) take() *writeRequest {
	return w.pending.Swap(nil)
}

// Write programs uri into the token while holding the lock
func (r *SharedReader) Write(ctx context.Context, uri string) error {
	writer, ok := r.reader.(TagWriter)
	if !ok {
		return drempelbox.ErrNotSupported
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	//nolint:wrapcheck // the reader already wraps its errors
	return writer.WriteURIContext(ctx, uri)
}

// WriteToNextTag waits for the next token to arrive and programs uri into
// it instead of playing it. It blocks until the write completes, the
// timeout expires or ctx is cancelled. Once a token has been taken for
// writing the write runs to completion and its result is returned even if
// the timeout expires meanwhile.
func (s *Session) WriteToNextTag(ctx context.Context, timeout time.Duration, uri string) error {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()
	if !running {
		return ErrSessionNotRunning
	}

	slot := s.dispatcher.writes
	writeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := &writeRequest{ctx: writeCtx, result: make(chan error, 1), uri: uri}
	if !slot.pending.CompareAndSwap(nil, req) {
		return ErrWriteAlreadyPending
	}
	defer slot.pending.CompareAndSwap(req, nil)

	select {
	case err := <-req.result:
		return err
	case <-writeCtx.Done():
		if slot.pending.CompareAndSwap(req, nil) {
			return writeCtx.Err()
		}
		// the dispatcher took the request and always reports back
		return <-req.result
	}
}

// processPendingWrite runs a pending write against the token that just
// arrived. It reports whether a write was attempted.
func (d *Dispatcher) processPendingWrite(ev Event) (Update, bool) {
	if d.writes == nil {
		return Update{}, false
	}
	req := d.writes.take()
	if req == nil {
		return Update{}, false
	}

	update := Update{Time: time.Now(), Kind: "write", UID: ev.UID.String(), URL: req.uri}
	if err := req.ctx.Err(); err != nil {
		req.result <- err
		return update, false
	}

	// started writes run to completion
	err := d.reader.Write(context.WithoutCancel(req.ctx), req.uri)
	req.result <- err
	update.Err = err
	return update, true
}
