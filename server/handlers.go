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

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/drempelbox/drempelbox/player"
	"github.com/drempelbox/drempelbox/polling"
)

// Volume is the reply of the volume routes
type Volume struct {
	Volume float64 `json:"volume"`
}

// Status is the reply of GET /status
type Status struct {
	Metrics    *polling.Metrics `json:"metrics,omitempty"`
	Token      string           `json:"token,omitempty"`
	NowPlaying string           `json:"now_playing,omitempty"`
	Clients    int              `json:"clients"`
	Present    bool             `json:"present"`
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /url", s.handleURL)
	mux.HandleFunc("POST /stop", s.handleStop)
	mux.HandleFunc("POST /volume/up", s.volumeHandler("volume up", player.VolumeUp))
	mux.HandleFunc("POST /volume/down", s.volumeHandler("volume down", player.VolumeDown))
	mux.HandleFunc("POST /volume/set", s.handleVolumeSet)
	mux.HandleFunc("POST /amp/on", s.ampHandler("amp on", Amp.On))
	mux.HandleFunc("POST /amp/off", s.ampHandler("amp off", Amp.Off))
	mux.HandleFunc("POST /amp/power-on", s.ampHandler("amp power on", Amp.PowerOn))
	mux.HandleFunc("POST /amp/power-off", s.ampHandler("amp power off", Amp.PowerOff))
	mux.HandleFunc("POST /tag/write", s.handleTagWrite)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /events", s.hub.ServeHTTP)

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleURL(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	s.logger.Info("got URL request", zap.String("url", raw))

	u, err := url.Parse(raw)
	if raw == "" || err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid url parameter")
		return
	}

	s.submit(r.Context(), w, "URL", player.Play(u))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("got stop request")
	s.submit(r.Context(), w, "stop", player.Stop())
}

func (s *Server) submit(ctx context.Context, w http.ResponseWriter, name string, cmd player.Command) bool {
	if err := s.sender.Send(ctx, cmd); err != nil {
		s.logger.Error("error submitting request", zap.String("request", name), zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, "error submitting "+name+" request")
		return false
	}
	s.logger.Debug("submitted request", zap.String("request", name))
	if cmd.Reply == nil {
		w.WriteHeader(http.StatusOK)
	}
	return true
}

func (s *Server) volumeHandler(name string, newCmd func() player.Command) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Info("got volume request", zap.String("request", name))
		s.awaitVolume(w, r, name, newCmd())
	}
}

func (s *Server) handleVolumeSet(w http.ResponseWriter, r *http.Request) {
	volume, err := strconv.ParseFloat(r.URL.Query().Get("volume"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid volume parameter")
		return
	}
	s.logger.Info("got volume request", zap.String("request", "volume set"), zap.Float64("volume", volume))
	s.awaitVolume(w, r, "volume set", player.VolumeSet(volume))
}

func (s *Server) awaitVolume(w http.ResponseWriter, r *http.Request, name string, cmd player.Command) {
	if !s.submit(r.Context(), w, name, cmd) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.ReplyTimeout)
	defer cancel()

	select {
	case level, ok := <-cmd.Reply:
		if ok {
			writeJSON(w, http.StatusOK, Volume{Volume: level})
			return
		}
	case <-ctx.Done():
	}

	s.logger.Error("didn't receive player command response", zap.String("request", name))
	writeJSON(w, http.StatusInternalServerError, "error receiving player command response")
}

func (s *Server) ampHandler(name string, action func(Amp) error) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.logger.Info("got amp request", zap.String("request", name))
		if s.amp == nil {
			writeJSON(w, http.StatusNotImplemented, "amp not configured")
			return
		}
		if err := action(s.amp); err != nil {
			s.logger.Error("amp request failed", zap.String("request", name), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, "error receiving "+name+" command response")
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) handleTagWrite(w http.ResponseWriter, r *http.Request) {
	if s.session == nil {
		writeJSON(w, http.StatusNotImplemented, "tag reader not configured")
		return
	}

	raw := r.URL.Query().Get("url")
	if _, err := url.Parse(raw); raw == "" || err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid url parameter")
		return
	}

	s.logger.Info("waiting for tag to write", zap.String("url", raw))
	err := s.session.WriteToNextTag(r.Context(), s.config.WriteTimeout, raw)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"url": raw})
	case errors.Is(err, polling.ErrWriteAlreadyPending):
		writeJSON(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, "no tag presented")
	default:
		s.logger.Error("tag write failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := Status{Clients: s.hub.Count()}
	if s.session != nil {
		metrics := s.session.Metrics()
		status.Metrics = &metrics
		if uid, ok := s.session.Token(); ok {
			status.Present = true
			status.Token = uid.String()
		}
	}
	if s.nowPlaying != nil {
		status.NowPlaying = s.nowPlaying()
	}
	writeJSON(w, http.StatusOK, status)
}
