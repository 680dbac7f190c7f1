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
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Shutdown button defaults
const (
	ShutdownButtonInterval = time.Second
	ShutdownButtonHolds    = 4
)

// PowerOff syncs filesystems and powers the machine off. It only returns
// on error.
func PowerOff() error {
	unix.Sync()
	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_POWER_OFF); err != nil {
		return fmt.Errorf("power off: %w", err)
	}
	return nil
}

// ShutdownButton powers the machine off once its button has been held
type ShutdownButton struct {
	button   *HoldButton
	logger   *zap.Logger
	powerOff func() error
}

// NewShutdownButton creates a shutdown button calling powerOff, PowerOff
// when nil
func NewShutdownButton(button *HoldButton, powerOff func() error, logger *zap.Logger) *ShutdownButton {
	if powerOff == nil {
		powerOff = PowerOff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShutdownButton{button: button, powerOff: powerOff, logger: logger}
}

// Run polls the button until ctx is done
func (s *ShutdownButton) Run(ctx context.Context) error {
	s.logger.Debug("shutdown task started")
	return s.button.Run(ctx, func(context.Context) {
		s.logger.Warn("attempting shutdown")
		if err := s.powerOff(); err != nil {
			s.logger.Error("failed to shut down", zap.Error(err))
		}
	})
}
