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
	"github.com/drempelbox/drempelbox"
)

// Sample is one presence observation: the UID of the token on the reader,
// or Present false when the field is empty
type Sample struct {
	UID     drempelbox.UID
	Present bool
}

// Absent is the sample for an empty field
func Absent() Sample {
	return Sample{}
}

// PresentSample is the sample for a token with uid on the reader
func PresentSample(uid drempelbox.UID) Sample {
	return Sample{UID: uid.Clone(), Present: true}
}

func (s Sample) String() string {
	if !s.Present {
		return "absent"
	}
	return s.UID.String()
}

// Window pairs a sample with its predecessor
type Window struct {
	Previous Sample
	Current  Sample
}

// Windower turns a sample stream into (previous, current) windows. The
// first sample is buffered until its successor arrives.
type Windower struct {
	previous Sample
	primed   bool
}

// Push adds s and returns the window it completes. ok is false for the
// very first sample.
func (w *Windower) Push(s Sample) (win Window, ok bool) {
	if !w.primed {
		w.previous = s
		w.primed = true
		return Window{}, false
	}
	win = Window{Previous: w.previous, Current: s}
	w.previous = s
	return win, true
}

// Reset forgets the buffered sample
func (w *Windower) Reset() {
	*w = Windower{}
}

// EventKind is the type of a presence transition
type EventKind int

const (
	// Arrival is an absent to present transition
	Arrival EventKind = iota + 1
	// Departure is a present to absent transition
	Departure
)

func (k EventKind) String() string {
	switch k {
	case Arrival:
		return "arrival"
	case Departure:
		return "departure"
	default:
		return "unknown"
	}
}

// Event is a presence transition. Departure carries the UID of the token
// that was removed.
type Event struct {
	UID  drempelbox.UID
	Kind EventKind
}

// Classify maps a window to its transition. Stable windows yield no event,
// including a token swapped between two samples without an empty one.
func Classify(w Window) (Event, bool) {
	switch {
	case !w.Previous.Present && w.Current.Present:
		return Event{Kind: Arrival, UID: w.Current.UID}, true
	case w.Previous.Present && !w.Current.Present:
		return Event{Kind: Departure, UID: w.Previous.UID}, true
	default:
		return Event{}, false
	}
}
