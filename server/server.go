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

// Package server exposes the HTTP control plane of the appliance
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/drempelbox/drempelbox"
	"github.com/drempelbox/drempelbox/player"
	"github.com/drempelbox/drempelbox/polling"
)

const (
	// DefaultBindAddress is used when no address is configured
	DefaultBindAddress = "0.0.0.0:3000"

	defaultReplyTimeout = 5 * time.Second
	defaultWriteTimeout = 30 * time.Second
	shutdownTimeout     = 5 * time.Second
)

// Sender delivers player commands. *player.Queue implements it.
type Sender interface {
	Send(ctx context.Context, cmd player.Command) error
}

// Amp is the amplifier control. *hardware.Amp implements it.
type Amp interface {
	On() error
	Off() error
	PowerOn() error
	PowerOff() error
}

// Session is the token polling session. *polling.Session implements it.
type Session interface {
	Metrics() polling.Metrics
	Token() (drempelbox.UID, bool)
	WriteToNextTag(ctx context.Context, timeout time.Duration, uri string) error
}

// Config holds server settings
type Config struct {
	// BindAddress is the host:port to listen on
	BindAddress string
	// ServiceName is the mDNS instance name, mDNS is off when empty
	ServiceName string
	// ReplyTimeout bounds the wait for volume replies
	ReplyTimeout time.Duration
	// WriteTimeout bounds the wait for a tag to program
	WriteTimeout time.Duration
}

// Option configures a Server
type Option func(*Server)

// WithAmp enables the /amp routes
func WithAmp(amp Amp) Option {
	return func(s *Server) {
		s.amp = amp
	}
}

// WithSession enables /status token details and /tag/write
func WithSession(session Session) Option {
	return func(s *Server) {
		s.session = session
	}
}

// WithNowPlaying reports the current playback target in /status
func WithNowPlaying(fn func() string) Option {
	return func(s *Server) {
		s.nowPlaying = fn
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server serves the control plane routes and the event websocket
type Server struct {
	sender     Sender
	amp        Amp
	session    Session
	nowPlaying func() string
	hub        *Hub
	logger     *zap.Logger
	handler    http.Handler
	config     Config
}

// New creates a server sending player commands to sender
func New(config Config, sender Sender, opts ...Option) *Server {
	if config.BindAddress == "" {
		config.BindAddress = DefaultBindAddress
	}
	if config.ReplyTimeout <= 0 {
		config.ReplyTimeout = defaultReplyTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaultWriteTimeout
	}

	s := &Server{
		config: config,
		sender: sender,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(s.logger.Named("events"))
	s.handler = s.routes()
	return s
}

// Handler returns the HTTP handler with all routes
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Publish forwards a polling update to every websocket client
func (s *Server) Publish(u polling.Update) {
	s.hub.Broadcast(Event{Type: "tag", Payload: u})
}

// Run listens on the bind address, advertises the service over mDNS when
// configured and serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.BindAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.BindAddress, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is done
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.config.ServiceName != "" {
		port := 0
		if addr, ok := listener.Addr().(*net.TCPAddr); ok {
			port = addr.Port
		}
		mdns, err := Advertise(s.config.ServiceName, port)
		if err != nil {
			s.logger.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			defer mdns.Shutdown()
			s.logger.Info("mDNS service registered", zap.String("name", s.config.ServiceName), zap.Int("port", port))
		}
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", zap.Stringer("address", listener.Addr()))
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		s.hub.Close()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.hub.Close()
	err := httpServer.Shutdown(shutdownCtx)
	if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", serveErr)
	}
	if err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
