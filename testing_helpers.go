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
	"context"
	"fmt"
	"sync"
	"time"
)

// MockChip is an in-memory Chip holding at most one NTAG215 token. It is
// used by tests of this package and of the polling package.
type MockChip struct {
	pageErrors map[byte]error
	uid        UID
	calls      []string
	memory     [NTAG215TotalBytes]byte
	readDelay  time.Duration
	corrupt    int
	mu         sync.Mutex
	version    byte
	present    bool
	halted     bool
	reqaFails  bool
}

// NewMockChip creates a mock chip with an empty field
func NewMockChip() *MockChip {
	return &MockChip{
		version:    VersionMFRC522v2,
		pageErrors: make(map[byte]error),
	}
}

// PlaceToken puts a token with the given UID and memory in the field
func (m *MockChip) PlaceToken(uid UID, memory [NTAG215TotalBytes]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uid = uid.Clone()
	m.memory = memory
	m.present = true
	m.halted = false
}

// RemoveToken takes the token out of the field
func (m *MockChip) RemoveToken() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.present = false
	m.halted = false
}

// Halt leaves the token in the halt state so only WUPA wakes it
func (m *MockChip) Halt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halted = true
}

// FailREQA makes every REQA fail even for an idle token
func (m *MockChip) FailREQA(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqaFails = fail
}

// FailPage makes MFRead of page return err. A nil err clears the failure.
func (m *MockChip) FailPage(page byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.pageErrors, page)
		return
	}
	m.pageErrors[page] = err
}

// CorruptWrites makes the next n page writes store inverted data while
// still acknowledging them
func (m *MockChip) CorruptWrites(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.corrupt = n
}

// SetReadDelay delays every MFRead, simulating a slow bus
func (m *MockChip) SetReadDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readDelay = d
}

// SetVersion sets the value returned by Version
func (m *MockChip) SetVersion(version byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.version = version
}

// Calls returns the primitives invoked so far, in order
func (m *MockChip) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// ResetCalls clears the call log
func (m *MockChip) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *MockChip) record(call string) {
	m.calls = append(m.calls, call)
}

// REQA answers only an idle token
func (m *MockChip) REQA(ctx context.Context) (ATQA, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("REQA")
	if err := ctx.Err(); err != nil {
		return ATQA{}, err
	}
	if !m.present || m.halted || m.reqaFails {
		return ATQA{}, ErrNoResponse
	}
	return ATQA{0x44, 0x00}, nil
}

// HLTA halts the token
func (m *MockChip) HLTA(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("HLTA")
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.present {
		m.halted = true
	}
	return nil
}

// WUPA wakes an idle or halted token
func (m *MockChip) WUPA(ctx context.Context) (ATQA, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("WUPA")
	if err := ctx.Err(); err != nil {
		return ATQA{}, err
	}
	if !m.present {
		return ATQA{}, ErrNoResponse
	}
	m.halted = false
	return ATQA{0x44, 0x00}, nil
}

// Select returns the UID of the token in the field
func (m *MockChip) Select(ctx context.Context, _ ATQA) (UID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Select")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !m.present {
		return nil, ErrNoResponse
	}
	return m.uid.Clone(), nil
}

// MFRead returns 16 bytes from page, wrapping past the last page
func (m *MockChip) MFRead(ctx context.Context, page byte) ([16]byte, error) {
	m.mu.Lock()
	delay := m.readDelay
	m.record(fmt.Sprintf("MFRead(%d)", page))
	m.mu.Unlock()

	var block [16]byte
	if delay > 0 {
		select {
		case <-ctx.Done():
			return block, ctx.Err()
		case <-time.After(delay):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.present {
		return block, ErrNoResponse
	}
	if err, ok := m.pageErrors[page]; ok {
		return block, err
	}
	if int(page) >= NTAG215PageCount {
		return block, fmt.Errorf("%w: page %d", ErrNAK, page)
	}
	start := int(page) * NTAG215PageSize
	for i := range block {
		block[i] = m.memory[(start+i)%NTAG215TotalBytes]
	}
	return block, nil
}

// MFWrite stores a user memory page
func (m *MockChip) MFWrite(ctx context.Context, page byte, data [4]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("MFWrite(%d)", page))
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.present {
		return ErrNoResponse
	}
	if err, ok := m.pageErrors[page]; ok {
		return err
	}
	if page < NTAG215UserStart/NTAG215PageSize || int(page) > NTAG215UserEnd/NTAG215PageSize {
		return fmt.Errorf("%w: page %d", ErrNAK, page)
	}
	if m.corrupt > 0 {
		m.corrupt--
		for i := range data {
			data[i] = ^data[i]
		}
	}
	copy(m.memory[int(page)*NTAG215PageSize:], data[:])
	return nil
}

// Version returns the configured version register value
func (m *MockChip) Version(ctx context.Context) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Version")
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return m.version, nil
}

var (
	_ Chip       = (*MockChip)(nil)
	_ PageWriter = (*MockChip)(nil)
)

// MockTransport is a register file with scripted failures, used to test
// transport wrappers.
type MockTransport struct {
	err       error
	registers [64]byte
	calls     int
	failures  int
	mu        sync.Mutex
	closed    bool
}

// NewMockTransport creates a mock transport with all registers zero
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// FailNext makes the next n operations fail with err
func (m *MockTransport) FailNext(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
	m.err = err
}

// CallCount returns the number of operations attempted
func (m *MockTransport) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockTransport) begin() error {
	m.calls++
	if m.closed {
		return ErrTransportClosed
	}
	if m.failures > 0 {
		m.failures--
		return m.err
	}
	return nil
}

// ReadRegister implements Transport
func (m *MockTransport) ReadRegister(reg byte) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(); err != nil {
		return 0, err
	}
	return m.registers[reg&0x3F], nil
}

// WriteRegister implements Transport
func (m *MockTransport) WriteRegister(reg, value byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(); err != nil {
		return err
	}
	m.registers[reg&0x3F] = value
	return nil
}

// ReadRegisters implements Transport
func (m *MockTransport) ReadRegisters(reg byte, n int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = m.registers[reg&0x3F]
	}
	return out, nil
}

// WriteRegisters implements Transport
func (m *MockTransport) WriteRegisters(reg byte, values []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(); err != nil {
		return err
	}
	if len(values) > 0 {
		m.registers[reg&0x3F] = values[len(values)-1]
	}
	return nil
}

// Close implements Transport
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsConnected implements Transport
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type implements Transport
func (*MockTransport) Type() TransportType {
	return TransportMock
}

var _ Transport = (*MockTransport)(nil)
