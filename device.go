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
	"errors"
	"fmt"
	"time"

	"github.com/drempelbox/drempelbox/internal/frame"
)

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// RetryConfig configures retry behavior for transport operations
	RetryConfig *RetryConfig
	// Timeout bounds how long one transceive waits for the tag to answer
	Timeout time.Duration
	// SkipVersionCheck accepts any version register value during Init
	SkipVersionCheck bool
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		RetryConfig: DefaultRetryConfig(),
		Timeout:     50 * time.Millisecond,
	}
}

// Chip is the set of reader primitives needed to select a tag and read its
// pages. Device implements it.
type Chip interface {
	REQA(ctx context.Context) (ATQA, error)
	HLTA(ctx context.Context) error
	WUPA(ctx context.Context) (ATQA, error)
	Select(ctx context.Context, atqa ATQA) (UID, error)
	MFRead(ctx context.Context, page byte) ([16]byte, error)
	Version(ctx context.Context) (byte, error)
}

// PageWriter is implemented by chips that can program 4 byte tag pages
type PageWriter interface {
	MFWrite(ctx context.Context, page byte, data [4]byte) error
}

var (
	_ Chip       = (*Device)(nil)
	_ PageWriter = (*Device)(nil)
)

// Device represents an MFRC522 reader
//
// Thread Safety: Device is NOT thread-safe. All methods must be called from
// a single goroutine or protected with external synchronization.
type Device struct {
	transport Transport
	config    *DeviceConfig
	version   byte
}

// reply is a frame received from the tag
type reply struct {
	data []byte
	// validBits is the number of valid bits in the last byte, 0 means all
	validBits byte
}

// New creates a new MFRC522 device with the given transport
func New(transport Transport, opts ...Option) (*Device, error) {
	if transport == nil {
		return nil, ErrInvalidParameter
	}

	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
	}
	ProfileFor(transport).apply(device.config)

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	return device, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// SetRetryConfig updates the retry configuration
func (d *Device) SetRetryConfig(config *RetryConfig) {
	d.config.RetryConfig = config
	if tr, ok := d.transport.(*TransportWithRetry); ok {
		tr.SetRetryConfig(config)
	}
}

// FirmwareVersion returns the version register value read by Init
func (d *Device) FirmwareVersion() byte {
	return d.version
}

// Init initializes the MFRC522
func (d *Device) Init() error {
	return d.InitContext(context.Background())
}

// InitContext resets the chip, configures its timer for a 25 ms receive
// timeout, turns the antenna on and checks the version register.
func (d *Device) InitContext(ctx context.Context) error {
	if err := d.transport.WriteRegister(regCommand, cmdSoftReset); err != nil {
		return fmt.Errorf("soft reset: %w", err)
	}
	if err := d.waitPowerUp(ctx); err != nil {
		return err
	}

	setup := []struct {
		reg   byte
		value byte
	}{
		{regTxMode, 0x00},
		{regRxMode, 0x00},
		{regModWidth, 0x26},
		// TAuto, prescaler 0x0A9 gives 40 kHz, reload 1000 gives 25 ms
		{regTMode, 0x80},
		{regTPrescaler, 0xA9},
		{regTReloadH, 0x03},
		{regTReloadL, 0xE8},
		// force 100% ASK
		{regTxASK, 0x40},
		// CRC preset 0x6363
		{regMode, 0x3D},
	}
	for _, s := range setup {
		if err := d.transport.WriteRegister(s.reg, s.value); err != nil {
			return fmt.Errorf("configure register %02X: %w", s.reg, err)
		}
	}

	if err := d.AntennaOn(); err != nil {
		return err
	}

	version, err := d.Version(ctx)
	if err != nil {
		return err
	}
	d.version = version
	debugf("MFRC522 version register: %02X", version)

	if !d.config.SkipVersionCheck && version != VersionMFRC522v1 && version != VersionMFRC522v2 {
		return fmt.Errorf("%w: %02X", ErrUnsupportedVersion, version)
	}
	return nil
}

func (d *Device) waitPowerUp(ctx context.Context) error {
	deadline := time.Now().Add(50 * time.Millisecond)
	for {
		value, err := d.transport.ReadRegister(regCommand)
		if err != nil {
			return fmt.Errorf("wait for reset: %w", err)
		}
		if value&commandPowerDown == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return NewTimeoutError("SoftReset", "")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

// AntennaOn enables both antenna drivers
func (d *Device) AntennaOn() error {
	value, err := d.transport.ReadRegister(regTxControl)
	if err != nil {
		return fmt.Errorf("read TxControl: %w", err)
	}
	if value&antennaOn == antennaOn {
		return nil
	}
	if err := d.transport.WriteRegister(regTxControl, value|antennaOn); err != nil {
		return fmt.Errorf("write TxControl: %w", err)
	}
	return nil
}

// AntennaOff disables both antenna drivers
func (d *Device) AntennaOff() error {
	value, err := d.transport.ReadRegister(regTxControl)
	if err != nil {
		return fmt.Errorf("read TxControl: %w", err)
	}
	if err := d.transport.WriteRegister(regTxControl, value&^antennaOn); err != nil {
		return fmt.Errorf("write TxControl: %w", err)
	}
	return nil
}

// Version reads the version register
func (d *Device) Version(ctx context.Context) (byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	version, err := d.transport.ReadRegister(regVersion)
	if err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	return version, nil
}

// REQA sends a request for idle tags
func (d *Device) REQA(ctx context.Context) (ATQA, error) {
	return d.request(ctx, piccREQA)
}

// WUPA wakes idle and halted tags
func (d *Device) WUPA(ctx context.Context) (ATQA, error) {
	return d.request(ctx, piccWUPA)
}

func (d *Device) request(ctx context.Context, cmd byte) (ATQA, error) {
	if err := d.clearCollisionBits(); err != nil {
		return ATQA{}, err
	}
	resp, err := d.transceive(ctx, []byte{cmd}, shortFrame)
	if err != nil {
		return ATQA{}, err
	}
	if len(resp.data) != 2 || resp.validBits != 0 {
		return ATQA{}, fmt.Errorf("%w: ATQA of %d bytes", ErrUnexpectedResponse, len(resp.data))
	}
	return ATQA{resp.data[0], resp.data[1]}, nil
}

// HLTA puts the selected tag into the halt state. A tag acknowledges HLTA by
// staying silent, so a timeout is success.
func (d *Device) HLTA(ctx context.Context) error {
	_, err := d.transceive(ctx, frame.AppendCRC([]byte{piccHLTA, 0x00}), 0)
	switch {
	case errors.Is(err, ErrNoResponse):
		return nil
	case err != nil:
		return err
	default:
		return fmt.Errorf("%w: tag answered HLTA", ErrUnexpectedResponse)
	}
}

// Select runs anticollision and select through up to three cascade levels
// and returns the complete UID. Collisions are reported, not resolved.
func (d *Device) Select(ctx context.Context, atqa ATQA) (UID, error) {
	levels := [...]byte{piccSelCL1, piccSelCL2, piccSelCL3}
	uid := make(UID, 0, 10)

	if err := d.clearCollisionBits(); err != nil {
		return nil, err
	}

	for _, sel := range levels {
		resp, err := d.transceive(ctx, []byte{sel, piccAnticollision}, 0)
		if err != nil {
			return nil, fmt.Errorf("anticollision %02X: %w", sel, err)
		}
		if len(resp.data) != 5 {
			return nil, fmt.Errorf("%w: anticollision reply of %d bytes", ErrUnexpectedResponse, len(resp.data))
		}
		part := resp.data[:4]
		if frame.BCC(part) != resp.data[4] {
			return nil, ErrBCCMismatch
		}

		cmd := make([]byte, 0, 9)
		cmd = append(cmd, sel, piccSelect)
		cmd = append(cmd, resp.data...)
		sak, err := d.transceive(ctx, frame.AppendCRC(cmd), 0)
		if err != nil {
			return nil, fmt.Errorf("select %02X: %w", sel, err)
		}
		if len(sak.data) != 3 {
			return nil, fmt.Errorf("%w: SAK of %d bytes", ErrUnexpectedResponse, len(sak.data))
		}
		if !frame.CheckCRC(sak.data) {
			return nil, ErrChecksumMismatch
		}

		if sak.data[0]&sakCascadeBit != 0 {
			// first byte is the cascade tag
			uid = append(uid, part[1:]...)
			continue
		}

		uid = append(uid, part...)
		if want := atqa.UIDSize(); want != 0 && want != len(uid) {
			debugf("ATQA announced %d byte UID, selected %d bytes", want, len(uid))
		}
		return uid, nil
	}

	return nil, fmt.Errorf("%w: cascade did not complete", ErrUnexpectedResponse)
}

// MFRead reads 16 bytes starting at page. The tag wraps around past its
// last page.
func (d *Device) MFRead(ctx context.Context, page byte) ([16]byte, error) {
	var block [16]byte

	resp, err := d.transceive(ctx, frame.AppendCRC([]byte{piccRead, page}), 0)
	if err != nil {
		return block, fmt.Errorf("read page %d: %w", page, err)
	}
	if len(resp.data) == 1 && resp.validBits == nakBits {
		return block, fmt.Errorf("%w: %X on page %d", ErrNAK, resp.data[0]&0x0F, page)
	}
	if len(resp.data) != len(block)+2 {
		return block, fmt.Errorf("%w: read reply of %d bytes", ErrUnexpectedResponse, len(resp.data))
	}
	if !frame.CheckCRC(resp.data) {
		return block, ErrChecksumMismatch
	}

	copy(block[:], resp.data)
	return block, nil
}

// MFWrite writes one 4 byte page. The tag acknowledges with a 4 bit ACK.
func (d *Device) MFWrite(ctx context.Context, page byte, data [4]byte) error {
	cmd := append([]byte{piccWrite, page}, data[:]...)

	resp, err := d.transceive(ctx, frame.AppendCRC(cmd), 0)
	if err != nil {
		return fmt.Errorf("write page %d: %w", page, err)
	}
	if len(resp.data) != 1 || resp.validBits != nakBits {
		return fmt.Errorf("%w: write reply of %d bytes", ErrUnexpectedResponse, len(resp.data))
	}
	if resp.data[0]&0x0F != ackValue {
		return fmt.Errorf("%w: %X on page %d", ErrNAK, resp.data[0]&0x0F, page)
	}
	return nil
}

// Close closes the device connection
func (d *Device) Close() error {
	if d.transport != nil {
		if err := d.transport.Close(); err != nil {
			return fmt.Errorf("failed to close transport: %w", err)
		}
	}
	return nil
}

func (d *Device) clearCollisionBits() error {
	value, err := d.transport.ReadRegister(regColl)
	if err != nil {
		return fmt.Errorf("read Coll: %w", err)
	}
	if err := d.transport.WriteRegister(regColl, value&^collValuesAfterColl); err != nil {
		return fmt.Errorf("write Coll: %w", err)
	}
	return nil
}

// transceive sends data to the tag and returns its reply. txLastBits is the
// number of bits of the last byte to send, 0 sends all of them.
func (d *Device) transceive(ctx context.Context, data []byte, txLastBits byte) (reply, error) {
	if err := ctx.Err(); err != nil {
		return reply{}, err
	}

	steps := []struct {
		reg   byte
		value byte
	}{
		{regCommand, cmdIdle},
		{regComIrq, irqClear},
		{regFIFOLevel, fifoFlushBuffer},
	}
	for _, s := range steps {
		if err := d.transport.WriteRegister(s.reg, s.value); err != nil {
			return reply{}, err
		}
	}
	if err := d.transport.WriteRegisters(regFIFOData, data); err != nil {
		return reply{}, err
	}
	if err := d.transport.WriteRegister(regCommand, cmdTransceive); err != nil {
		return reply{}, err
	}
	if err := d.transport.WriteRegister(regBitFraming, bitFramingStartSend|txLastBits); err != nil {
		return reply{}, err
	}

	if err := d.waitReceive(ctx); err != nil {
		return reply{}, err
	}

	if err := d.transport.WriteRegister(regBitFraming, 0); err != nil {
		return reply{}, err
	}

	errValue, err := d.transport.ReadRegister(regError)
	if err != nil {
		return reply{}, err
	}
	switch {
	case errValue&(errBufferOvfl|errParity|errProtocol) != 0:
		return reply{}, fmt.Errorf("%w: error register %02X", ErrProtocol, errValue)
	case errValue&errColl != 0:
		return reply{}, ErrCollision
	}

	level, err := d.transport.ReadRegister(regFIFOLevel)
	if err != nil {
		return reply{}, err
	}
	n := int(level & fifoLevelMask)

	var received []byte
	if n > 0 {
		received, err = d.transport.ReadRegisters(regFIFOData, n)
		if err != nil {
			return reply{}, err
		}
	}

	control, err := d.transport.ReadRegister(regControl)
	if err != nil {
		return reply{}, err
	}

	return reply{data: received, validBits: control & controlRxLastBits}, nil
}

// waitReceive polls the interrupt register until the chip has received a
// frame or its timer expired.
func (d *Device) waitReceive(ctx context.Context) error {
	deadline := time.Now().Add(d.config.Timeout)
	for {
		irq, err := d.transport.ReadRegister(regComIrq)
		if err != nil {
			return err
		}
		if irq&(irqRx|irqIdle) != 0 {
			return nil
		}
		if irq&irqTimer != 0 {
			return ErrNoResponse
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: chip did not signal completion", ErrNoResponse)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}
