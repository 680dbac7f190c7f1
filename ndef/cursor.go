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

package ndef

import "encoding/binary"

// Cursor is a forward-only reader over a byte slice. Reads are bounds
// checked against the physical slice and, once SetLen has been called,
// against the declared message length.
type Cursor struct {
	buf []byte
	pos int
	end int // declared end of message, -1 until SetLen
}

// NewCursor returns a cursor positioned at the start of buf with no
// declared length.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf, end: -1}
}

// SetLen declares that the logical message ends n bytes after the current
// position. All later reads are checked against this boundary.
func (c *Cursor) SetLen(n int) {
	c.end = c.pos + n
}

// Pos returns the current offset into the underlying buffer.
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns how many bytes can still be read before hitting either
// the declared length or the end of the buffer.
func (c *Cursor) Remaining() int {
	limit := len(c.buf)
	if c.end >= 0 && c.end < limit {
		limit = c.end
	}
	if c.pos >= limit {
		return 0
	}
	return limit - c.pos
}

func (c *Cursor) check(n int) error {
	if n < 0 || n > c.Remaining() {
		return ErrOverread
	}
	return nil
}

// Byte reads one byte.
func (c *Cursor) Byte() (byte, error) {
	if err := c.check(1); err != nil {
		return 0, err
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// Bytes reads exactly n bytes. The returned slice aliases the underlying
// buffer; callers that keep it must copy.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if err := c.check(n); err != nil {
		return nil, err
	}
	out := c.buf[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return out, nil
}

// Uint32 reads a fixed four byte big-endian value.
func (c *Cursor) Uint32() (uint32, error) {
	b, err := c.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}
