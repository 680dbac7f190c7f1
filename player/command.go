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

// Package player routes playback commands to the file and streaming backends
package player

import (
	"net/url"
)

// Kind identifies a player command
type Kind int

const (
	KindPlay Kind = iota
	KindStop
	KindVolumeUp
	KindVolumeDown
	KindVolumeSet
)

func (k Kind) String() string {
	switch k {
	case KindPlay:
		return "play"
	case KindStop:
		return "stop"
	case KindVolumeUp:
		return "volume-up"
	case KindVolumeDown:
		return "volume-down"
	case KindVolumeSet:
		return "volume-set"
	default:
		return "unknown"
	}
}

// Command is a request sent to the player. Volume commands carry a Reply
// channel that receives the resulting volume in [0, 1]; it is never closed
// without a value unless the command could not be handled.
type Command struct {
	URL    *url.URL
	Reply  chan float64
	Volume float64
	Kind   Kind
}

// Play creates a command to play u
func Play(u *url.URL) Command {
	return Command{Kind: KindPlay, URL: u}
}

// Stop creates a command that stops every backend
func Stop() Command {
	return Command{Kind: KindStop}
}

// VolumeUp creates a volume step up command with a buffered reply channel
func VolumeUp() Command {
	return Command{Kind: KindVolumeUp, Reply: make(chan float64, 1)}
}

// VolumeDown creates a volume step down command with a buffered reply channel
func VolumeDown() Command {
	return Command{Kind: KindVolumeDown, Reply: make(chan float64, 1)}
}

// VolumeSet creates a command setting the volume to v
func VolumeSet(v float64) Command {
	return Command{Kind: KindVolumeSet, Volume: v, Reply: make(chan float64, 1)}
}

func (c Command) reply(v float64) {
	if c.Reply == nil {
		return
	}
	select {
	case c.Reply <- v:
	default:
	}
}

func (c Command) abandon() {
	if c.Reply != nil {
		close(c.Reply)
	}
}
