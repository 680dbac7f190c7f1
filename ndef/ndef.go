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

// Package ndef decodes NFC Data Exchange Format messages read from the user
// memory of a Type 2 tag.
//
// Only the first record of a message is decoded and only URI records are
// understood. Records chained with the MESSAGE_END flag are ignored.
package ndef

import (
	"fmt"
	"math"
)

// MessageInitMarker is the NDEF message TLV tag that must start the buffer.
const MessageInitMarker byte = 0x03

// Flags holds the record header flag bits (the upper five bits of the first
// record byte).
type Flags byte

// Record header flags
const (
	FlagMessageBegin    Flags = 0x80
	FlagMessageEnd      Flags = 0x40
	FlagChunk           Flags = 0x20
	FlagShortRecord     Flags = 0x10
	FlagIDLengthPresent Flags = 0x08

	flagsMask = 0xF8
)

// Has reports whether all bits of flag are set.
func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

// TNF is the Type Name Format field of a record header.
type TNF byte

// Type Name Format values
const (
	TNFEmpty TNF = iota
	TNFWellKnown
	TNFMedia
	TNFAbsoluteURI
	TNFExternal
	TNFUnknown
	TNFUnchanged
	TNFReserved

	tnfMask = 0x07
)

func (t TNF) String() string {
	switch t {
	case TNFEmpty:
		return "empty"
	case TNFWellKnown:
		return "well-known"
	case TNFMedia:
		return "media"
	case TNFAbsoluteURI:
		return "absolute-uri"
	case TNFExternal:
		return "external"
	case TNFUnknown:
		return "unknown"
	case TNFUnchanged:
		return "unchanged"
	case TNFReserved:
		return "reserved"
	default:
		return fmt.Sprintf("tnf(%d)", byte(t))
	}
}

// SplitFlagsTNF splits a record header byte into its flags and TNF. Every
// bit pattern is accepted.
func SplitFlagsTNF(b byte) (Flags, TNF) {
	return Flags(b & flagsMask), TNF(b & tnfMask)
}

// MessageHeader is the TLV header preceding the record data.
type MessageHeader struct {
	Init   byte
	Length byte
}

// RecordHeader is a decoded record header. Type and ID are copies of the
// source bytes.
type RecordHeader struct {
	IDLength      *byte
	Type          []byte
	ID            []byte
	TypeLength    int
	PayloadLength int
	Flags         Flags
	TNF           TNF
}

// RecordRaw is a record header together with its undecoded payload.
type RecordRaw struct {
	Payload []byte
	Header  RecordHeader
}

// Record is a decoded record. *URIRecord is the only implementation.
type Record interface {
	fmt.Stringer
	record()
}

// Message is a decoded NDEF message. Records holds exactly one entry.
type Message struct {
	Records []Record
	Header  MessageHeader
}

// URI returns the URI of the first URI record in the message.
func (m *Message) URI() (string, bool) {
	if m == nil {
		return "", false
	}
	for _, r := range m.Records {
		if u, ok := r.(*URIRecord); ok {
			return u.URI, true
		}
	}
	return "", false
}

// Parse decodes the NDEF message at the start of buf. buf is not retained.
func Parse(buf []byte) (*Message, error) {
	cur := NewCursor(buf)

	header, err := parseMessageHeader(cur)
	if err != nil {
		return nil, err
	}

	raw, err := parseRecord(cur)
	if err != nil {
		return nil, err
	}

	payloadOffset := cur.Pos() - len(raw.Payload)
	rec, err := decodeURI(raw.Payload)
	if err != nil {
		return nil, formatError(payloadOffset, err)
	}

	return &Message{
		Header:  header,
		Records: []Record{rec},
	}, nil
}

func parseMessageHeader(cur *Cursor) (MessageHeader, error) {
	var header MessageHeader

	init, err := cur.Byte()
	if err != nil {
		return header, formatError(cur.Pos(), err)
	}
	if init != MessageInitMarker {
		return header, formatError(0, fmt.Errorf("%w: got 0x%02X", ErrInvalidMarker, init))
	}
	header.Init = init

	length, err := cur.Byte()
	if err != nil {
		return header, formatError(cur.Pos(), err)
	}
	header.Length = length
	cur.SetLen(int(length))

	return header, nil
}

// parseRecord reads one record header and payload.
func parseRecord(cur *Cursor) (*RecordRaw, error) {
	fail := func(err error) (*RecordRaw, error) {
		return nil, formatError(cur.Pos(), err)
	}

	var header RecordHeader

	flagsTNF, err := cur.Byte()
	if err != nil {
		return fail(err)
	}
	header.Flags, header.TNF = SplitFlagsTNF(flagsTNF)

	typeLength, err := cur.Byte()
	if err != nil {
		return fail(err)
	}
	header.TypeLength = int(typeLength)

	if header.Flags.Has(FlagShortRecord) {
		length, byteErr := cur.Byte()
		if byteErr != nil {
			return fail(byteErr)
		}
		header.PayloadLength = int(length)
	} else {
		length, lenErr := cur.Uint32()
		if lenErr != nil {
			return fail(lenErr)
		}
		if uint64(length) > uint64(math.MaxInt32) {
			return fail(ErrOverread)
		}
		header.PayloadLength = int(length)
	}

	if header.Flags.Has(FlagIDLengthPresent) {
		idLength, idErr := cur.Byte()
		if idErr != nil {
			return fail(idErr)
		}
		header.IDLength = &idLength
	}

	if header.TypeLength > 0 {
		typ, typeErr := cur.Bytes(header.TypeLength)
		if typeErr != nil {
			return fail(typeErr)
		}
		header.Type = append([]byte(nil), typ...)
	}

	if header.IDLength != nil && *header.IDLength > 0 {
		id, idErr := cur.Bytes(int(*header.IDLength))
		if idErr != nil {
			return fail(idErr)
		}
		header.ID = append([]byte(nil), id...)
	}

	payload, err := cur.Bytes(header.PayloadLength)
	if err != nil {
		return fail(err)
	}

	return &RecordRaw{
		Header:  header,
		Payload: append([]byte(nil), payload...),
	}, nil
}
