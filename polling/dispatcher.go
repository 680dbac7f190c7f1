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
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/drempelbox/drempelbox/ndef"
	"github.com/drempelbox/drempelbox/player"
)

var (
	// ErrNoURI is reported when a tag holds no URI record
	ErrNoURI = errors.New("tag holds no URI record")
	// ErrInvalidURL is reported when the tag URI cannot be parsed
	ErrInvalidURL = errors.New("tag URI is not a valid URL")
)

// Sender delivers player commands. *player.Queue implements it.
type Sender interface {
	Send(ctx context.Context, cmd player.Command) error
}

// Update describes a handled presence event for observers
type Update struct {
	Time  time.Time `json:"time"`
	Err   error     `json:"-"`
	Kind  string    `json:"kind"`
	UID   string    `json:"uid"`
	URL   string    `json:"url,omitempty"`
	Error string    `json:"error,omitempty"`
}

// Dispatcher turns presence events into player commands. Arrivals read the
// tag and send Play with its URL; departures always send Stop. Failures are
// logged and the event dropped.
type Dispatcher struct {
	reader   *SharedReader
	sender   Sender
	logger   *zap.Logger
	counters *counters
	writes   *writeSlot
	notify   func(Update)
}

// Run consumes samples until in is closed or ctx is done
func (d *Dispatcher) Run(ctx context.Context, in <-chan Sample) error {
	for win := range Pairs(ctx, in) {
		if ev, ok := Classify(win); ok {
			d.Handle(ctx, ev)
		}
	}
	return nil
}

// Handle processes one event
func (d *Dispatcher) Handle(ctx context.Context, ev Event) {
	logger := d.logger.With(zap.Stringer("uid", ev.UID), zap.Stringer("event", ev.Kind))
	update := Update{Time: time.Now(), Kind: ev.Kind.String(), UID: ev.UID.String()}

	switch ev.Kind {
	case Arrival:
		d.counters.arrivals.Add(1)
		if written, ok := d.processPendingWrite(ev); ok {
			if written.Err != nil {
				logger.Error("failed to write token", zap.Error(written.Err))
			} else {
				logger.Info("token written", zap.String("url", written.URL))
			}
			update = written
			break
		}
		u, err := d.resolve(ctx)
		if err != nil {
			d.counters.readFailures.Add(1)
			logger.Log(readFailureLevel(err), "failed to read token", zap.Error(err))
			update.Err = err
			break
		}
		update.URL = u.String()
		logger.Info("token arrived", zap.String("url", update.URL))
		update.Err = d.send(ctx, logger, player.Play(u))
	case Departure:
		d.counters.departures.Add(1)
		logger.Info("token departed")
		update.Err = d.send(ctx, logger, player.Stop())
	default:
		return
	}

	if update.Err != nil {
		update.Error = update.Err.Error()
	}
	if d.notify != nil {
		d.notify(update)
	}
}

// resolve reads the tag and parses its first URI record. The read is not
// aborted by ctx cancellation.
func (d *Dispatcher) resolve(ctx context.Context) (*url.URL, error) {
	msg, err := d.reader.Read(context.WithoutCancel(ctx))
	if err != nil {
		return nil, err
	}

	raw, ok := msg.URI()
	if !ok {
		return nil, ErrNoURI
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	return u, nil
}

// readFailureLevel logs tokens with unusable contents as warnings and bus or
// chip failures as errors
func readFailureLevel(err error) zapcore.Level {
	if ndef.IsFormatError(err) || errors.Is(err, ErrNoURI) || errors.Is(err, ErrInvalidURL) {
		return zapcore.WarnLevel
	}
	return zapcore.ErrorLevel
}

func (d *Dispatcher) send(ctx context.Context, logger *zap.Logger, cmd player.Command) error {
	if err := d.sender.Send(ctx, cmd); err != nil {
		d.counters.sendFailures.Add(1)
		if errors.Is(err, player.ErrQueueClosed) {
			logger.Warn("player queue closed, dropping command", zap.Stringer("command", cmd.Kind))
		} else {
			logger.Error("failed to send player command", zap.Stringer("command", cmd.Kind), zap.Error(err))
		}
		return fmt.Errorf("send %s: %w", cmd.Kind, err)
	}
	return nil
}
