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
	"net/url"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// DefaultVolumeStep is the change applied by one volume up or down command
const DefaultVolumeStep = 0.05

// Router consumes player commands and routes them by URL scheme: Spotify
// web links go to the streaming backend and file:// URLs go to the file
// backend. Starting one backend stops the other.
type Router struct {
	files    Backend
	streams  Backend
	mixer    Mixer
	logger   *zap.Logger
	fileRoot string
	playing  string
	step     float64
	mu       sync.Mutex
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithFileRoot resolves relative file paths against dir
func WithFileRoot(dir string) RouterOption {
	return func(r *Router) {
		r.fileRoot = dir
	}
}

// WithVolumeStep sets the volume up/down increment
func WithVolumeStep(step float64) RouterOption {
	return func(r *Router) {
		if step > 0 {
			r.step = step
		}
	}
}

// NewRouter creates a router. Any backend or the mixer may be nil; commands
// needing them are logged and dropped.
func NewRouter(files, streams Backend, mixer Mixer, logger *zap.Logger, opts ...RouterOption) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{
		files:   files,
		streams: streams,
		mixer:   mixer,
		logger:  logger,
		step:    DefaultVolumeStep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run handles commands from q in order until q is closed or ctx is done
func (r *Router) Run(ctx context.Context, q *Queue) error {
	for {
		cmd, ok := q.receive(ctx)
		if !ok {
			return nil
		}
		r.Handle(ctx, cmd)
	}
}

// Handle executes a single command
func (r *Router) Handle(ctx context.Context, cmd Command) {
	switch cmd.Kind {
	case KindPlay:
		r.play(ctx, cmd.URL)
	case KindStop:
		r.logger.Info("received stop request")
		r.stopAll(ctx)
	case KindVolumeUp, KindVolumeDown, KindVolumeSet:
		r.volume(ctx, cmd)
	default:
		r.logger.Warn("unknown player command", zap.Stringer("kind", cmd.Kind))
		cmd.abandon()
	}
}

// NowPlaying returns the last target handed to a backend, or "" after a stop
func (r *Router) NowPlaying() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

func (r *Router) setPlaying(target string) {
	r.mu.Lock()
	r.playing = target
	r.mu.Unlock()
}

func (r *Router) play(ctx context.Context, u *url.URL) {
	if u == nil {
		r.logger.Error("play request without URL")
		return
	}

	logger := r.logger.With(zap.String("url", u.String()))
	logger.Info("received URL player request")

	switch u.Scheme {
	case "https":
		if u.Hostname() != SpotifyHost {
			logger.Error("unsupported URL")
			return
		}
		uri, err := SpotifyURI(u)
		if err != nil {
			logger.Error("unsupported URL", zap.Error(err))
			return
		}
		logger.Info("playing spotify from url")
		r.stopBackend(ctx, "file", r.files)
		r.start(ctx, logger, "spotify", r.streams, uri)
	case "file":
		path, err := FilePath(u)
		if err != nil {
			logger.Error("invalid file URL", zap.Error(err))
			return
		}
		if r.fileRoot != "" && !filepath.IsAbs(path) {
			path = filepath.Join(r.fileRoot, path)
		}
		logger.Info("playing file from url")
		r.stopBackend(ctx, "spotify", r.streams)
		r.start(ctx, logger, "file", r.files, path)
	default:
		logger.Info("not sure what to do with this url")
	}
}

func (r *Router) start(ctx context.Context, logger *zap.Logger, name string, backend Backend, target string) {
	if backend == nil {
		logger.Error("error playing", zap.String("backend", name), zap.Error(ErrBackendUnavailable))
		return
	}
	if err := backend.Play(ctx, target); err != nil {
		logger.Error("error playing", zap.String("backend", name), zap.Error(err))
		return
	}
	r.setPlaying(target)
}

func (r *Router) stopAll(ctx context.Context) {
	r.stopBackend(ctx, "file", r.files)
	r.stopBackend(ctx, "spotify", r.streams)
	r.setPlaying("")
}

func (r *Router) stopBackend(ctx context.Context, name string, backend Backend) {
	if backend == nil {
		return
	}
	if err := backend.Stop(ctx); err != nil {
		r.logger.Error("error stopping playback", zap.String("backend", name), zap.Error(err))
	}
}

func (r *Router) volume(ctx context.Context, cmd Command) {
	if r.mixer == nil {
		r.logger.Error("volume request without mixer", zap.Stringer("kind", cmd.Kind))
		cmd.abandon()
		return
	}

	target := cmd.Volume
	if cmd.Kind != KindVolumeSet {
		current, err := r.mixer.Volume(ctx)
		if err != nil {
			r.logger.Error("error reading volume", zap.Error(err))
			cmd.abandon()
			return
		}
		if cmd.Kind == KindVolumeUp {
			target = current + r.step
		} else {
			target = current - r.step
		}
	}

	level, err := r.mixer.SetVolume(ctx, clamp(target))
	if err != nil {
		r.logger.Error("error setting volume", zap.Error(err))
		cmd.abandon()
		return
	}

	r.logger.Info("volume changed", zap.Stringer("kind", cmd.Kind), zap.Float64("volume", level))
	cmd.reply(level)
}
