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

package player

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/siderolabs/go-cmd/pkg/cmd"
	"go.uber.org/zap"
)

// TargetPlaceholder is replaced by the file path or streaming URI in
// backend command lines
const TargetPlaceholder = "{}"

const stopGrace = 2 * time.Second

var (
	// ErrBackendUnavailable is returned when no backend is configured for a target
	ErrBackendUnavailable = errors.New("player backend not configured")
	// ErrEmptyCommand is returned for a backend without a play command
	ErrEmptyCommand = errors.New("empty player command")
)

// Backend plays one target at a time
type Backend interface {
	Play(ctx context.Context, target string) error
	Stop(ctx context.Context) error
}

// ProcessBackend plays targets by running an external player process. The
// process started by Play runs until the next Play or Stop. An optional stop
// command is run to completion on Stop, for clients that keep playing on
// their own after the launching process exits.
type ProcessBackend struct {
	logger  *zap.Logger
	proc    *exec.Cmd
	exited  chan struct{}
	name    string
	play    []string
	stop    []string
	mu      sync.Mutex
	playing string
}

// NewProcessBackend creates a backend running play for each target. play
// and stop may contain TargetPlaceholder.
func NewProcessBackend(name string, play, stop []string, logger *zap.Logger) (*ProcessBackend, error) {
	if len(play) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyCommand)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessBackend{
		name:   name,
		play:   play,
		stop:   stop,
		logger: logger.With(zap.String("backend", name)),
	}, nil
}

func expand(args []string, target string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = strings.ReplaceAll(arg, TargetPlaceholder, target)
	}
	return out
}

// Play stops the current process and starts a new one for target
func (b *ProcessBackend) Play(ctx context.Context, target string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.stopLocked(ctx); err != nil {
		return err
	}

	args := expand(b.play, target)
	//nolint:gosec // command line comes from the appliance configuration
	proc := exec.Command(args[0], args[1:]...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("failed to start %s player: %w", b.name, err)
	}

	exited := make(chan struct{})
	go func() {
		err := proc.Wait()
		b.logger.Debug("player process exited", zap.String("target", target), zap.Error(err))
		close(exited)
	}()

	b.proc = proc
	b.exited = exited
	b.playing = target
	b.logger.Info("playing", zap.String("target", target), zap.Int("pid", proc.Process.Pid))

	return nil
}

// Stop terminates the current process and runs the stop command, if any
func (b *ProcessBackend) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.stopLocked(ctx)
}

func (b *ProcessBackend) stopLocked(ctx context.Context) error {
	target := b.playing

	if b.proc != nil {
		select {
		case <-b.exited:
		default:
			_ = b.proc.Process.Signal(syscall.SIGTERM)
			select {
			case <-b.exited:
			case <-time.After(stopGrace):
				_ = b.proc.Process.Kill()
				<-b.exited
			case <-ctx.Done():
				_ = b.proc.Process.Kill()
				<-b.exited
			}
		}
		b.proc = nil
		b.exited = nil
		b.playing = ""
	}

	if len(b.stop) == 0 {
		return nil
	}

	args := expand(b.stop, target)
	if _, err := cmd.RunContext(ctx, args[0], args[1:]...); err != nil {
		return fmt.Errorf("failed to stop %s player: %w", b.name, err)
	}
	return nil
}

// Playing returns the current target, or "" when idle
func (b *ProcessBackend) Playing() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.proc == nil {
		return ""
	}
	select {
	case <-b.exited:
		return ""
	default:
		return b.playing
	}
}
