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
	"time"

	"go.uber.org/zap"
)

// Poller samples token presence at a fixed interval and pushes each sample
// into a bounded channel. The send blocks while the channel is full, so a
// slow consumer throttles sampling.
type Poller struct {
	reader   *SharedReader
	out      chan<- Sample
	logger   *zap.Logger
	counters *counters
	onSample func(Sample)
	interval time.Duration
}

// Run polls until ctx is done. It does not close out.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		start := time.Now()
		sample := p.reader.Sample(ctx)
		p.counters.pollCycles.Add(1)
		p.counters.lastPollLatency.Store(time.Since(start).Nanoseconds())

		if ce := p.logger.Check(zap.DebugLevel, "presence sample"); ce != nil {
			ce.Write(zap.Stringer("sample", sample))
		}

		if p.onSample != nil {
			p.onSample(sample)
		}

		select {
		case p.out <- sample:
		case <-ctx.Done():
			return nil
		}
	}
}
