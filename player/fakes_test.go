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
	"sync"
)

type fakeBackend struct {
	playErr error
	stopErr error
	calls   []string
	mu      sync.Mutex
}

func (b *fakeBackend) Play(_ context.Context, target string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, "play "+target)
	return b.playErr
}

func (b *fakeBackend) Stop(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, "stop")
	return b.stopErr
}

func (b *fakeBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

type fakeMixer struct {
	err   error
	level float64
}

func (m *fakeMixer) Volume(context.Context) (float64, error) {
	return m.level, m.err
}

func (m *fakeMixer) SetVolume(_ context.Context, v float64) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.level = v
	return v, nil
}
