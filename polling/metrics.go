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
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters for a session
type Metrics struct {
	PollCycles      int64         `json:"poll_cycles"`       // Total number of presence checks
	Arrivals        int64         `json:"arrivals"`          // Arrival events handled
	Departures      int64         `json:"departures"`        // Departure events handled
	ReadFailures    int64         `json:"read_failures"`     // Failed reads or unusable tag contents
	SendFailures    int64         `json:"send_failures"`     // Commands the player queue refused
	LastPollLatency time.Duration `json:"last_poll_latency"` // Duration of the last presence check
}

type counters struct {
	pollCycles      atomic.Int64
	arrivals        atomic.Int64
	departures      atomic.Int64
	readFailures    atomic.Int64
	sendFailures    atomic.Int64
	lastPollLatency atomic.Int64 // in nanoseconds
}

func (c *counters) snapshot() Metrics {
	return Metrics{
		PollCycles:      c.pollCycles.Load(),
		Arrivals:        c.arrivals.Load(),
		Departures:      c.departures.Load(),
		ReadFailures:    c.readFailures.Load(),
		SendFailures:    c.sendFailures.Load(),
		LastPollLatency: time.Duration(c.lastPollLatency.Load()),
	}
}
