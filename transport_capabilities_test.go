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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type typedTransport struct {
	*MockTransport
	kind TransportType
}

func (t *typedTransport) Type() TransportType { return t.kind }

type tunedTransport struct {
	*MockTransport
}

func (*tunedTransport) Profile() TransportProfile {
	return TransportProfile{Timeout: time.Second, RetryDelay: time.Millisecond, MaxRetries: 9}
}

func TestProfileFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind    TransportType
		timeout time.Duration
		retries int
	}{
		{kind: TransportSPI, timeout: 50 * time.Millisecond, retries: 3},
		{kind: TransportI2C, timeout: 75 * time.Millisecond, retries: 5},
		{kind: TransportUART, timeout: 200 * time.Millisecond, retries: 3},
		{kind: TransportMock, timeout: DefaultDeviceConfig().Timeout, retries: DefaultRetryConfig().MaxAttempts},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()

			p := ProfileFor(&typedTransport{MockTransport: NewMockTransport(), kind: tt.kind})
			assert.Equal(t, tt.timeout, p.Timeout)
			assert.Equal(t, tt.retries, p.MaxRetries)
		})
	}
}

func TestNew_AppliesProfile(t *testing.T) {
	t.Parallel()

	device, err := New(&tunedTransport{MockTransport: NewMockTransport()})
	require.NoError(t, err)
	assert.Equal(t, time.Second, device.config.Timeout)
	assert.Equal(t, 9, device.config.RetryConfig.MaxAttempts)
	assert.Equal(t, time.Millisecond, device.config.RetryConfig.InitialBackoff)

	// options win over the profile
	device, err = New(&typedTransport{MockTransport: NewMockTransport(), kind: TransportUART},
		WithTimeout(10*time.Millisecond), WithMaxRetries(1))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, device.config.Timeout)
	assert.Equal(t, 1, device.config.RetryConfig.MaxAttempts)
}
