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
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 2 * time.Second
	closeWait  = 250 * time.Millisecond
	sendBuffer = 16
)

// Event is a message pushed to websocket clients
type Event struct {
	Payload any    `json:"payload"`
	Type    string `json:"type"`
}

// client is one event stream connection. send is closed by the hub when the
// client is removed; the writer then closes the connection.
type client struct {
	conn *websocket.Conn
	send chan Event
	done chan struct{}
	id   string
}

// Hub keeps the connected event stream clients. Broadcast never waits on a
// client: each one has a buffered queue drained by its own writer and events
// for a full queue are dropped.
type Hub struct {
	upgrader  websocket.Upgrader
	clients   map[*client]struct{}
	logger    *zap.Logger
	writeWait time.Duration
	mu        sync.Mutex
	closed    bool
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		clients:   make(map[*client]struct{}),
		logger:    logger,
		writeWait: writeWait,
	}
}

// ServeHTTP upgrades the request and keeps the client until it disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade error", zap.Error(err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan Event, sendBuffer),
		done: make(chan struct{}),
		id:   uuid.New().String(),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client connected", zap.String("client", c.id), zap.Int("total", total))

	go h.write(c)

	defer func() {
		h.remove(c)
		<-c.done
		h.logger.Info("client disconnected", zap.String("client", c.id))
	}()

	// clients only listen, reads detect the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
	}
}

// write drains the client queue until the hub closes it
func (h *Hub) write(c *client) {
	defer close(c.done)
	defer c.conn.Close() //nolint:errcheck

	for ev := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := c.conn.WriteJSON(ev); err != nil {
			h.logger.Warn("websocket write error", zap.String("client", c.id), zap.Error(err))
			return
		}
	}

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
		time.Now().Add(closeWait))
}

// remove drops c from the hub. Must not be called with h.mu held.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast queues ev for every client without blocking
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			h.logger.Warn("client queue full, dropping event", zap.String("client", c.id))
		}
	}
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}
