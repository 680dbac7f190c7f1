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

import (
	"errors"
	"fmt"
)

// Decode errors. Parse wraps each of them in a *FormatError.
var (
	ErrInvalidMarker      = errors.New("invalid NDEF message marker")
	ErrOverread           = errors.New("read past end of NDEF message")
	ErrEmptyPayload       = errors.New("empty URI record payload")
	ErrInvalidPrefixIndex = errors.New("invalid URI prefix index")
	ErrInvalidUTF8        = errors.New("URI record is not valid UTF-8")
)

// Encode errors
var (
	ErrMessageTooLarge = errors.New("NDEF message too large for short TLV")
	ErrEmptyURI        = errors.New("empty URI")
)

// FormatError describes malformed tag data. Offset is the position in the
// source buffer at which decoding stopped.
type FormatError struct {
	Err    error
	Offset int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed NDEF message at offset %d: %v", e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsFormatError reports whether err is a decode failure caused by the tag
// contents rather than by the caller.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

func formatError(offset int, err error) error {
	return &FormatError{Offset: offset, Err: err}
}
