// go-busbridge
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-busbridge.
//
// go-busbridge is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-busbridge is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-busbridge; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package busbridge

import "fmt"

// ChipSelect names one SPI peripheral line.
type ChipSelect int

const (
	// ChipSelectEEPROM selects the on-board EEPROM.
	ChipSelectEEPROM ChipSelect = iota
	// ChipSelectDAC selects the DAC.
	ChipSelectDAC
	// ChipSelectUSD selects the micro SD card slot.
	ChipSelectUSD
)

func (cs ChipSelect) String() string {
	switch cs {
	case ChipSelectEEPROM:
		return "EEPROM"
	case ChipSelectDAC:
		return "DAC"
	case ChipSelectUSD:
		return "USD"
	default:
		return fmt.Sprintf("ChipSelect(%d)", int(cs))
	}
}

// SPIBus is the synchronous SPI host contract used by the parser.
type SPIBus interface {
	// Assert drives the chip-select line active (low).
	Assert(cs ChipSelect) error
	// Deassert releases the chip-select line (high).
	Deassert(cs ChipSelect) error
	// Exchange clocks buf out and replaces it with the bytes clocked in.
	Exchange(buf []byte) error
}

// I2CStatus is the result of the last I2C transaction.
type I2CStatus int

const (
	// I2CStatusOK means the transaction completed.
	I2CStatusOK I2CStatus = iota
	// I2CStatusAddressNACK means no target acknowledged the address.
	I2CStatusAddressNACK
	// I2CStatusDataNACK means the target rejected a byte mid-transfer.
	I2CStatusDataNACK
)

func (s I2CStatus) String() string {
	switch s {
	case I2CStatusOK:
		return "ok"
	case I2CStatusAddressNACK:
		return "address nack"
	case I2CStatusDataNACK:
		return "data nack"
	default:
		return fmt.Sprintf("I2CStatus(%d)", int(s))
	}
}

// Err converts the status into the matching sentinel error, or nil.
func (s I2CStatus) Err() error {
	switch s {
	case I2CStatusOK:
		return nil
	case I2CStatusAddressNACK:
		return ErrAddressNACK
	default:
		return ErrDataNACK
	}
}

// I2CBus is the I2C host contract. A transaction is started by Read, Write
// or WriteRead; the caller then spins on Busy, calling Tasks each time, and
// finally reads Status. Synchronous drivers simply complete inside the
// start call and never report busy.
type I2CBus interface {
	Read(addr uint16, r []byte)
	Write(addr uint16, w []byte)
	WriteRead(addr uint16, w, r []byte)
	Busy() bool
	Tasks()
	Status() I2CStatus
}
