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

package testing

import (
	"sync"

	"github.com/drempelbox/drempelbox"
)

// MFRC522 registers emulated by VirtualChip
const (
	regCommand    = 0x01
	regComIrq     = 0x04
	regError      = 0x06
	regFIFOData   = 0x09
	regFIFOLevel  = 0x0A
	regControl    = 0x0C
	regBitFraming = 0x0D
	regTxControl  = 0x14
	regVersion    = 0x37

	cmdIdle       = 0x00
	cmdTransceive = 0x0C
	cmdSoftReset  = 0x0F

	irqTimer = 0x01
	irqIdle  = 0x10
	irqRx    = 0x20

	errColl = 0x08
)

// VirtualChip emulates the register interface of an MFRC522 with at most
// one VirtualTag in its field. It implements drempelbox.Transport.
type VirtualChip struct {
	tag         *VirtualTag
	injectErr   error
	fifo        []byte
	transmitted [][]byte
	registers   [64]byte
	mu          sync.Mutex
	collision   bool
	closed      bool
}

// NewVirtualChip creates a powered up chip reporting version 0x92
func NewVirtualChip(tag *VirtualTag) *VirtualChip {
	c := &VirtualChip{tag: tag}
	c.reset()
	return c
}

func (c *VirtualChip) reset() {
	version := c.registers[regVersion]
	c.registers = [64]byte{}
	c.fifo = nil
	if version == 0 {
		version = drempelbox.VersionMFRC522v2
	}
	c.registers[regVersion] = version
}

// SetTag places tag in the field, nil empties the field
func (c *VirtualChip) SetTag(tag *VirtualTag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tag = tag
}

// SetVersion sets the version register value
func (c *VirtualChip) SetVersion(version byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registers[regVersion] = version
}

// InjectError makes the next register access fail with err
func (c *VirtualChip) InjectError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.injectErr = err
}

// SetCollision makes every answered transceive report a bit collision
func (c *VirtualChip) SetCollision(collision bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collision = collision
}

// Transmitted returns every frame sent to the field, in order
func (c *VirtualChip) Transmitted() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.transmitted))
	for i, f := range c.transmitted {
		out[i] = append([]byte(nil), f...)
	}
	return out
}

// Register returns the current value of reg
func (c *VirtualChip) Register(reg byte) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registers[reg&0x3F]
}

func (c *VirtualChip) takeError() error {
	if c.closed {
		return drempelbox.ErrTransportClosed
	}
	err := c.injectErr
	c.injectErr = nil
	return err
}

// ReadRegister implements drempelbox.Transport
func (c *VirtualChip) ReadRegister(reg byte) (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeError(); err != nil {
		return 0, err
	}
	return c.read(reg & 0x3F), nil
}

func (c *VirtualChip) read(reg byte) byte {
	switch reg {
	case regFIFOData:
		if len(c.fifo) == 0 {
			return 0
		}
		b := c.fifo[0]
		c.fifo = c.fifo[1:]
		return b
	case regFIFOLevel:
		return byte(len(c.fifo))
	default:
		return c.registers[reg]
	}
}

// WriteRegister implements drempelbox.Transport
func (c *VirtualChip) WriteRegister(reg, value byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeError(); err != nil {
		return err
	}
	c.write(reg&0x3F, value)
	return nil
}

func (c *VirtualChip) write(reg, value byte) {
	switch reg {
	case regCommand:
		if value&0x0F == cmdSoftReset {
			c.reset()
			return
		}
		c.registers[regCommand] = value
	case regComIrq:
		// Set1 in bit 7 selects whether marked bits are set or cleared
		if value&0x80 != 0 {
			c.registers[regComIrq] |= value & 0x7F
		} else {
			c.registers[regComIrq] &^= value & 0x7F
		}
	case regFIFOLevel:
		if value&0x80 != 0 {
			c.fifo = nil
		}
	case regFIFOData:
		if len(c.fifo) < 64 {
			c.fifo = append(c.fifo, value)
		}
	case regBitFraming:
		c.registers[regBitFraming] = value
		if value&0x80 != 0 && c.registers[regCommand]&0x0F == cmdTransceive {
			c.transceive(value & 0x07)
		}
	default:
		c.registers[reg] = value
	}
}

func (c *VirtualChip) transceive(txLastBits byte) {
	sent := c.fifo
	c.fifo = nil
	c.transmitted = append(c.transmitted, append([]byte(nil), sent...))
	c.registers[regError] = 0
	c.registers[regControl] &^= 0x07

	antennaOn := c.registers[regTxControl]&0x03 == 0x03
	if c.tag == nil || !antennaOn {
		c.registers[regComIrq] |= irqTimer
		return
	}

	reply, rxLastBits, ok := c.tag.respond(sent, txLastBits)
	if !ok {
		c.registers[regComIrq] |= irqTimer
		return
	}

	c.fifo = append(c.fifo, reply...)
	c.registers[regControl] |= rxLastBits & 0x07
	if c.collision {
		c.registers[regError] |= errColl
	}
	c.registers[regComIrq] |= irqRx | irqIdle
	c.registers[regCommand] = cmdIdle
}

// ReadRegisters implements drempelbox.Transport
func (c *VirtualChip) ReadRegisters(reg byte, n int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeError(); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = c.read(reg & 0x3F)
	}
	return out, nil
}

// WriteRegisters implements drempelbox.Transport
func (c *VirtualChip) WriteRegisters(reg byte, values []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeError(); err != nil {
		return err
	}
	for _, v := range values {
		c.write(reg&0x3F, v)
	}
	return nil
}

// Close implements drempelbox.Transport
func (c *VirtualChip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// IsConnected implements drempelbox.Transport
func (c *VirtualChip) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Type implements drempelbox.Transport
func (*VirtualChip) Type() drempelbox.TransportType {
	return drempelbox.TransportMock
}

var _ drempelbox.Transport = (*VirtualChip)(nil)
