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

import "unicode/utf8"

// URIPrefixes holds the NFC Forum URI record abbreviation codes. The first
// payload byte of a URI record indexes into this table.
var URIPrefixes = [...]string{
	"",
	"http://www.",
	"https://www.",
	"http://",
	"https://",
	"tel:",
	"mailto:",
	"ftp://anonymous:anonymous@",
	"ftp://ftp.",
	"ftps://",
	"sftp://",
	"smb://",
	"nfs://",
	"ftp://",
	"dav://",
	"news:",
	"telnet://",
	"imap:",
	"rtsp://",
	"urn:",
	"pop:",
	"sip:",
	"sips:",
	"tftp:",
	"btspp://",
	"btl2cap://",
	"btgoep://",
	"tcpobex://",
	"irdaobex://",
	"file://",
	"urn:epc:id:",
	"urn:epc:tag:",
	"urn:epc:pat:",
	"urn:epc:raw:",
	"urn:epc:",
	"urn:nfc:",
}

// URIRecord is a decoded well-known "U" record.
type URIRecord struct {
	URI string
}

func (r *URIRecord) String() string {
	return r.URI
}

func (*URIRecord) record() {}

// decodeURI expands a URI record payload: the first byte selects a prefix
// and the remainder is UTF-8 text appended to it.
func decodeURI(payload []byte) (*URIRecord, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}

	index := int(payload[0])
	if index >= len(URIPrefixes) {
		return nil, ErrInvalidPrefixIndex
	}

	suffix := payload[1:]
	if !utf8.Valid(suffix) {
		return nil, ErrInvalidUTF8
	}

	return &URIRecord{URI: URIPrefixes[index] + string(suffix)}, nil
}
