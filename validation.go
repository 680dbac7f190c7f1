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
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// ErrVerificationFailed is returned when a page reads back different from
// what was written
var ErrVerificationFailed = errors.New("write verification failed")

// ValidationConfig holds configuration for write verification
type ValidationConfig struct {
	// RetryDelay specifies delay between retry attempts
	RetryDelay time.Duration

	// WriteRetries specifies max number of write retries on verification failure
	WriteRetries int

	// EnableWriteVerification reads every written page back
	EnableWriteVerification bool
}

// DefaultValidationConfig returns default validation configuration
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		EnableWriteVerification: true,
		WriteRetries:            2,
		RetryDelay:              10 * time.Millisecond,
	}
}

// ValidationMetrics tracks validation statistics
type ValidationMetrics struct {
	PagesVerified int64
	Retries       int64
	Failures      int64
}

type validationCounters struct {
	pagesVerified atomic.Int64
	retries       atomic.Int64
	failures      atomic.Int64
}

// SetValidation replaces the write verification settings. Nil disables
// verification and retries.
func (t *Tag) SetValidation(config *ValidationConfig) {
	if config == nil {
		config = &ValidationConfig{}
	}
	t.validation = config
}

// ValidationMetrics returns the write verification counters
func (t *Tag) ValidationMetrics() ValidationMetrics {
	return ValidationMetrics{
		PagesVerified: t.counters.pagesVerified.Load(),
		Retries:       t.counters.retries.Load(),
		Failures:      t.counters.failures.Load(),
	}
}

// writePage writes one page and, when enabled, reads it back. A failed write
// or mismatch is retried up to WriteRetries times.
func (t *Tag) writePage(ctx context.Context, writer PageWriter, page byte, data [NTAG215PageSize]byte) error {
	config := t.validation
	if config == nil {
		config = DefaultValidationConfig()
	}

	var lastErr error
	for retry := 0; retry <= config.WriteRetries; retry++ {
		if retry > 0 {
			t.counters.retries.Add(1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(config.RetryDelay):
			}
		}

		if err := writer.MFWrite(ctx, page, data); err != nil {
			lastErr = err
			continue
		}

		if !config.EnableWriteVerification {
			return nil
		}

		// MFRead returns four pages starting at page
		block, err := t.chip.MFRead(ctx, page)
		if err != nil {
			lastErr = err
			continue
		}

		if bytes.Equal(block[:NTAG215PageSize], data[:]) {
			t.counters.pagesVerified.Add(1)
			return nil
		}

		lastErr = fmt.Errorf("%w: page %d read back %X", ErrVerificationFailed, page, block[:NTAG215PageSize])
	}

	t.counters.failures.Add(1)
	return fmt.Errorf("write page %d failed after %d retries: %w", page, config.WriteRetries, lastErr)
}
