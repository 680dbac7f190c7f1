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

package hardware

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/drempelbox/drempelbox/player"
)

// Volume button defaults
const (
	VolumeButtonInterval = 100 * time.Millisecond
	VolumeButtonHolds    = 3
	volumeReplyTimeout   = 2 * time.Second
)

// Sender delivers player commands. *player.Queue implements it.
type Sender interface {
	Send(ctx context.Context, cmd player.Command) error
}

// VolumeButtons sends volume up and down commands while the buttons are held
type VolumeButtons struct {
	up     *HoldButton
	down   *HoldButton
	sender Sender
	logger *zap.Logger
}

// NewVolumeButtons configures both button pins
func NewVolumeButtons(up, down *HoldButton, sender Sender, logger *zap.Logger) *VolumeButtons {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VolumeButtons{up: up, down: down, sender: sender, logger: logger}
}

// Run polls both buttons until ctx is done
func (v *VolumeButtons) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return v.up.Run(ctx, func(ctx context.Context) {
			v.logger.Info("volume up")
			v.request(ctx, player.VolumeUp())
		})
	})
	eg.Go(func() error {
		return v.down.Run(ctx, func(ctx context.Context) {
			v.logger.Info("volume down")
			v.request(ctx, player.VolumeDown())
		})
	})
	//nolint:wrapcheck // buttons return nil on cancellation
	return eg.Wait()
}

func (v *VolumeButtons) request(ctx context.Context, cmd player.Command) {
	if err := v.sender.Send(ctx, cmd); err != nil {
		v.logger.Error("error submitting volume request", zap.Stringer("kind", cmd.Kind), zap.Error(err))
		return
	}

	select {
	case level, ok := <-cmd.Reply:
		if !ok {
			v.logger.Error("didn't receive player command response", zap.Stringer("kind", cmd.Kind))
			return
		}
		v.logger.Debug("player acknowledged volume command", zap.Float64("volume", level))
	case <-time.After(volumeReplyTimeout):
		v.logger.Error("timed out waiting for player command response", zap.Stringer("kind", cmd.Kind))
	case <-ctx.Done():
	}
}
