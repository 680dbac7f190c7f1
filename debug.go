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

package drempelbox

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	debugEnabled atomic.Bool
	debugLogger  atomic.Pointer[zap.Logger]
)

// SetDebugEnabled turns driver level debug output on or off
func SetDebugEnabled(enabled bool) {
	debugEnabled.Store(enabled)
}

// SetLogger sets the logger used for driver debug output. Without one the
// global zap logger is used.
func SetLogger(logger *zap.Logger) {
	debugLogger.Store(logger)
}

func sugar() *zap.SugaredLogger {
	if l := debugLogger.Load(); l != nil {
		return l.Sugar()
	}
	return zap.L().Sugar()
}

func debugf(format string, args ...any) {
	if !debugEnabled.Load() {
		return
	}
	sugar().Debugf(format, args...)
}

func debugln(args ...any) {
	if !debugEnabled.Load() {
		return
	}
	sugar().Debugln(args...)
}
