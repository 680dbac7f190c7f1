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

package drempelbox

import (
	"bytes"
	"encoding/hex"
	"strings"
)

// UID is the unique identifier of a selected tag, 4, 7 or 10 bytes long.
type UID []byte

// String returns the UID as upper case hex
func (u UID) String() string {
	return strings.ToUpper(hex.EncodeToString(u))
}

// Equal reports whether both UIDs hold the same bytes
func (u UID) Equal(other UID) bool {
	return bytes.Equal(u, other)
}

// Clone returns a copy that does not share storage with u
func (u UID) Clone() UID {
	if u == nil {
		return nil
	}
	return append(UID(nil), u...)
}

// ATQA is the two byte answer to REQA or WUPA, in the order received.
type ATQA [2]byte

// UIDSize returns the UID length announced by the ATQA, or 0 when the size
// bits are reserved.
func (a ATQA) UIDSize() int {
	switch a[0] >> 6 {
	case 0:
		return 4
	case 1:
		return 7
	case 2:
		return 10
	default:
		return 0
	}
}
