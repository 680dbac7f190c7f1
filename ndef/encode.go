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
	"fmt"

	gondef "github.com/hsanjuan/go-ndef"
)

// TerminatorTLV marks the end of the TLV area on a Type 2 tag.
const TerminatorTLV byte = 0xFE

// maxShortTLV is the largest message length that fits the one byte TLV
// length field understood by Parse.
const maxShortTLV = 0xFE

// EncodeURI builds the tag user memory contents for a single URI record
// message: the NDEF TLV header, the record and a terminator TLV.
func EncodeURI(uri string) ([]byte, error) {
	if uri == "" {
		return nil, ErrEmptyURI
	}

	msg := gondef.NewURIMessage(uri)
	record, err := msg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal URI record: %w", err)
	}
	if len(record) > maxShortTLV {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(record))
	}

	out := make([]byte, 0, len(record)+3)
	out = append(out, MessageInitMarker, byte(len(record)))
	out = append(out, record...)
	out = append(out, TerminatorTLV)
	return out, nil
}
