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
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// SpotifyHost is the web host whose links are played by the streaming backend
const SpotifyHost = "open.spotify.com"

// ErrUnsupportedURL is returned for links no backend can play
var ErrUnsupportedURL = errors.New("unsupported URL")

var spotifyKinds = map[string]struct{}{
	"track":    {},
	"playlist": {},
	"album":    {},
	"artist":   {},
}

// SpotifyURI converts https://open.spotify.com/{kind}/{id} into the
// spotify:{kind}:{id} form understood by streaming clients. Query strings
// such as ?si= are dropped.
func SpotifyURI(u *url.URL) (string, error) {
	if u.Scheme != "https" || u.Hostname() != SpotifyHost {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedURL, u)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 3 && strings.HasPrefix(parts[0], "intl-") {
		parts = parts[1:]
	}
	if len(parts) != 2 || parts[1] == "" {
		return "", fmt.Errorf("%w: unexpected path %q", ErrUnsupportedURL, u.Path)
	}
	if _, ok := spotifyKinds[parts[0]]; !ok {
		return "", fmt.Errorf("%w: unknown item type %q", ErrUnsupportedURL, parts[0])
	}

	return "spotify:" + parts[0] + ":" + parts[1], nil
}

// FilePath returns the local path of a file:// URL, trimmed of slashes and
// percent-decoded
func FilePath(u *url.URL) (string, error) {
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedURL, u)
	}
	escaped := u.EscapedPath()
	if escaped == "" {
		escaped = u.Opaque
	}
	path, err := url.PathUnescape(strings.Trim(escaped, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid file path %q: %w", escaped, err)
	}
	if path == "" {
		return "", fmt.Errorf("%w: empty file path", ErrUnsupportedURL)
	}
	return path, nil
}
