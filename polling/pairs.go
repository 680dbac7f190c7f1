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

package polling

import "context"

// Pairs windows the samples received from in. The returned channel is
// closed when in is closed or ctx is done.
func Pairs(ctx context.Context, in <-chan Sample) <-chan Window {
	out := make(chan Window)
	go func() {
		defer close(out)
		var w Windower
		for {
			var (
				s  Sample
				ok bool
			)
			select {
			case <-ctx.Done():
				return
			case s, ok = <-in:
				if !ok {
					return
				}
			}

			win, ready := w.Push(s)
			if !ready {
				continue
			}

			select {
			case out <- win:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
