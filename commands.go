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

// MFRC522 registers
const (
	regCommand    = 0x01
	regComIEn     = 0x02
	regComIrq     = 0x04
	regDivIrq     = 0x05
	regError      = 0x06
	regStatus2    = 0x08
	regFIFOData   = 0x09
	regFIFOLevel  = 0x0A
	regControl    = 0x0C
	regBitFraming = 0x0D
	regColl       = 0x0E
	regMode       = 0x11
	regTxMode     = 0x12
	regRxMode     = 0x13
	regTxControl  = 0x14
	regTxASK      = 0x15
	regModWidth   = 0x24
	regTMode      = 0x2A
	regTPrescaler = 0x2B
	regTReloadH   = 0x2C
	regTReloadL   = 0x2D
	regVersion    = 0x37
)

// MFRC522 commands written to the command register
const (
	cmdIdle       = 0x00
	cmdCalcCRC    = 0x03
	cmdTransceive = 0x0C
	cmdSoftReset  = 0x0F
)

// Register bits
const (
	commandPowerDown    = 0x10
	fifoFlushBuffer     = 0x80
	bitFramingStartSend = 0x80
	collValuesAfterColl = 0x80
	antennaOn           = 0x03
	controlRxLastBits   = 0x07
	fifoLevelMask       = 0x7F

	irqTimer = 0x01
	irqErr   = 0x02
	irqIdle  = 0x10
	irqRx    = 0x20
	irqClear = 0x7F

	errProtocol   = 0x01
	errParity     = 0x02
	errCRC        = 0x04
	errColl       = 0x08
	errBufferOvfl = 0x10
)

// ISO/IEC 14443-3 type A and NTAG commands
const (
	piccREQA          = 0x26
	piccWUPA          = 0x52
	piccHLTA          = 0x50
	piccSelCL1        = 0x93
	piccSelCL2        = 0x95
	piccSelCL3        = 0x97
	piccAnticollision = 0x20
	piccSelect        = 0x70
	piccCascadeTag    = 0x88
	piccRead          = 0x30
	piccWrite         = 0xA2

	sakCascadeBit = 0x04
	shortFrame    = 7
	nakBits       = 4
	ackValue      = 0x0A
)

// Supported version register values
const (
	VersionMFRC522v1 byte = 0x91
	VersionMFRC522v2 byte = 0x92
)
