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
	"sync"

	"github.com/drempelbox/drempelbox"
	"github.com/drempelbox/drempelbox/ndef"
)

// TagReader is the tag memory reader shared by the poller and dispatcher.
// *drempelbox.Tag implements it.
type TagReader interface {
	IsTokenPresentContext(ctx context.Context) (drempelbox.UID, bool)
	ReadContext(ctx context.Context) (*ndef.Message, error)
}

// SharedReader serializes access to a TagReader. Presence checks and reads
// never interleave on the bus.
type SharedReader struct {
	reader TagReader
	mu     sync.Mutex
}

// NewSharedReader wraps reader
func NewSharedReader(reader TagReader) *SharedReader {
	return &SharedReader{reader: reader}
}

// Sample checks for a token while holding the lock
func (r *SharedReader) Sample(ctx context.Context) Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	uid, ok := r.reader.IsTokenPresentContext(ctx)
	if !ok {
		return Absent()
	}
	return PresentSample(uid)
}

// Read performs a full tag read while holding the lock
func (r *SharedReader) Read(ctx context.Context) (*ndef.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	//nolint:wrapcheck // the reader already wraps its errors
	return r.reader.ReadContext(ctx)
}
