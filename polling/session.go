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

// Package polling turns polled token presence into player commands
package polling

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/drempelbox/drempelbox"
)

// ErrNilReader is returned when a session is created without a reader
var ErrNilReader = errors.New("tag reader cannot be nil")

// Config holds session settings
type Config struct {
	// PollInterval is the time between presence checks
	PollInterval time.Duration
	// BufferSize is the capacity of the sample channel
	BufferSize int
}

// DefaultConfig returns the default session configuration
func DefaultConfig() *Config {
	return &Config{
		PollInterval: 500 * time.Millisecond,
		BufferSize:   16,
	}
}

// Session runs the poller and the dispatcher over one shared reader
type Session struct {
	reader     *SharedReader
	poller     *Poller
	dispatcher *Dispatcher
	samples    chan Sample
	counters   *counters
	logger     *zap.Logger
	observers  []func(Update)
	last       Sample
	mu         sync.RWMutex
	running    bool
}

// NewSession creates a session reading tags from reader and sending player
// commands to sender
func NewSession(reader TagReader, sender Sender, logger *zap.Logger, config *Config) (*Session, error) {
	if reader == nil {
		return nil, ErrNilReader
	}
	if sender == nil {
		return nil, errors.New("sender cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.PollInterval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		reader:   NewSharedReader(reader),
		samples:  make(chan Sample, config.BufferSize),
		counters: &counters{},
		logger:   logger,
	}
	s.poller = &Poller{
		reader:   s.reader,
		out:      s.samples,
		logger:   logger.Named("poller"),
		counters: s.counters,
		onSample: s.recordSample,
		interval: config.PollInterval,
	}
	s.dispatcher = &Dispatcher{
		reader:   s.reader,
		sender:   sender,
		logger:   logger.Named("dispatcher"),
		counters: s.counters,
		writes:   &writeSlot{},
		notify:   s.broadcast,
	}
	return s, nil
}

// OnEvent registers fn to be called after each handled event. fn runs on
// the dispatcher goroutine and must not block.
func (s *Session) OnEvent(fn func(Update)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Run starts the poller and dispatcher and blocks until ctx is done
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("session already running")
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info("starting token polling", zap.Duration("interval", s.poller.interval))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return s.poller.Run(ctx)
	})
	eg.Go(func() error {
		return s.dispatcher.Run(ctx, s.samples)
	})

	//nolint:wrapcheck // both loops return nil on cancellation
	return eg.Wait()
}

// Metrics returns a snapshot of the session counters
func (s *Session) Metrics() Metrics {
	return s.counters.snapshot()
}

// Token returns the UID seen by the last presence check
func (s *Session) Token() (drempelbox.UID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last.UID.Clone(), s.last.Present
}

func (s *Session) recordSample(sample Sample) {
	s.mu.Lock()
	s.last = sample
	s.mu.Unlock()
}

func (s *Session) broadcast(u Update) {
	s.mu.RLock()
	observers := slices.Clone(s.observers)
	s.mu.RUnlock()

	for _, fn := range observers {
		fn(u)
	}
}
