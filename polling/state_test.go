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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drempelbox/drempelbox"
)

var (
	uidA = drempelbox.UID{0x04, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
	uidB = drempelbox.UID{0x04, 0x77, 0x88, 0x99, 0xAA, 0xBB, 0xCC}
)

// detect runs samples through a Windower and Classify and returns the events
// in order
func detect(samples []Sample) []Event {
	var (
		w      Windower
		events []Event
	)
	for _, s := range samples {
		win, ok := w.Push(s)
		if !ok {
			continue
		}
		if ev, ok := Classify(win); ok {
			events = append(events, ev)
		}
	}
	return events
}

func TestDetect_TapSequence(t *testing.T) {
	t.Parallel()

	samples := []Sample{Absent(), PresentSample(uidA), PresentSample(uidA), Absent(), PresentSample(uidB)}

	events := detect(samples)
	assert.Equal(t, []Event{
		{Kind: Arrival, UID: uidA},
		{Kind: Departure, UID: uidA},
		{Kind: Arrival, UID: uidB},
	}, events)
}

func TestDetect_FirstSampleAlone(t *testing.T) {
	t.Parallel()

	assert.Empty(t, detect([]Sample{PresentSample(uidA)}))
	assert.Empty(t, detect([]Sample{Absent()}))
	assert.Empty(t, detect(nil))
}

func TestDetect_TokenPresentAtStartup(t *testing.T) {
	t.Parallel()

	// the first sample only primes the window, so a token already on the
	// reader produces its departure but never an arrival
	events := detect([]Sample{PresentSample(uidA), PresentSample(uidA), Absent()})
	assert.Equal(t, []Event{{Kind: Departure, UID: uidA}}, events)
}

func TestDetect_MissedSampleMidTap(t *testing.T) {
	t.Parallel()

	events := detect([]Sample{Absent(), PresentSample(uidA), Absent(), PresentSample(uidA), Absent()})
	assert.Equal(t, []Event{
		{Kind: Arrival, UID: uidA},
		{Kind: Departure, UID: uidA},
		{Kind: Arrival, UID: uidA},
		{Kind: Departure, UID: uidA},
	}, events)
}

func TestDetect_TransitionCounts(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		samples := make([]Sample, rng.Intn(40))
		for i := range samples {
			switch rng.Intn(3) {
			case 0:
				samples[i] = Absent()
			case 1:
				samples[i] = PresentSample(uidA)
			default:
				samples[i] = PresentSample(uidB)
			}
		}

		wantArrivals, wantDepartures := 0, 0
		for i := 1; i < len(samples); i++ {
			switch {
			case !samples[i-1].Present && samples[i].Present:
				wantArrivals++
			case samples[i-1].Present && !samples[i].Present:
				wantDepartures++
			}
		}

		arrivals, departures := 0, 0
		for _, ev := range detect(samples) {
			switch ev.Kind {
			case Arrival:
				arrivals++
			case Departure:
				departures++
			}
		}

		assert.Equal(t, wantArrivals, arrivals, "run %d", run)
		assert.Equal(t, wantDepartures, departures, "run %d", run)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		window Window
		want   Event
		wantOK bool
	}{
		{name: "Arrival", window: Window{Absent(), PresentSample(uidA)}, want: Event{Kind: Arrival, UID: uidA}, wantOK: true},
		{name: "Departure", window: Window{PresentSample(uidA), Absent()}, want: Event{Kind: Departure, UID: uidA}, wantOK: true},
		{name: "Stable_Present", window: Window{PresentSample(uidA), PresentSample(uidA)}},
		{name: "Stable_Absent", window: Window{Absent(), Absent()}},
		{name: "Swapped_Token", window: Window{PresentSample(uidA), PresentSample(uidB)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := Classify(tt.window)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindower(t *testing.T) {
	t.Parallel()

	var w Windower
	_, ok := w.Push(Absent())
	assert.False(t, ok)

	win, ok := w.Push(PresentSample(uidA))
	assert.True(t, ok)
	assert.Equal(t, Window{Previous: Absent(), Current: PresentSample(uidA)}, win)

	win, ok = w.Push(Absent())
	assert.True(t, ok)
	assert.Equal(t, PresentSample(uidA), win.Previous)

	w.Reset()
	_, ok = w.Push(Absent())
	assert.False(t, ok)
}

func TestPresentSample_CopiesUID(t *testing.T) {
	t.Parallel()

	uid := drempelbox.UID{0x01, 0x02, 0x03, 0x04}
	s := PresentSample(uid)
	uid[0] = 0xFF
	assert.Equal(t, "01020304", s.String())
	assert.Equal(t, "absent", Absent().String())
	assert.Equal(t, "arrival", Arrival.String())
	assert.Equal(t, "departure", Departure.String())
}
