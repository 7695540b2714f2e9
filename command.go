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

// Command families and operation keywords, as they appear after uppercasing.
const (
	keywordSPI       = "SPI"
	keywordI2C       = "I2C"
	keywordEEPROM    = "EEPROM"
	keywordDAC       = "DAC"
	keywordUSD       = "USD"
	keywordRead      = "R"
	keywordWrite     = "W"
	keywordWriteRead = "WR"
)

// Response lines
const (
	dataPrefix = "> "
	lineEnd    = "\r\n"

	ResponseWriteOK    = "> OK\r\n"
	ResponseParseError = "Command parsing error\r\n"
	ResponseAddrNACK   = "I2C NACK error\r\n"
	ResponseDataNACK   = "I2C communication error\r\n"
	ResponseBusFault   = "Unknown error\r\n"
)

// CommandKind identifies the bus operation a line decoded to.
type CommandKind int

const (
	KindUnknown CommandKind = iota
	KindSPIEEPROM
	KindSPIDAC
	KindSPIUSD
	KindI2CRead
	KindI2CWrite
	KindI2CWriteRead
)

func (k CommandKind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindSPIEEPROM:
		return "spi-eeprom"
	case KindSPIDAC:
		return "spi-dac"
	case KindSPIUSD:
		return "spi-usd"
	case KindI2CRead:
		return "i2c-read"
	case KindI2CWrite:
		return "i2c-write"
	case KindI2CWriteRead:
		return "i2c-write-read"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

// chipSelect returns the line an SPI kind drives.
func (k CommandKind) chipSelect() ChipSelect {
	switch k {
	case KindSPIDAC:
		return ChipSelectDAC
	case KindSPIUSD:
		return ChipSelectUSD
	default:
		return ChipSelectEEPROM
	}
}

// Outcome is the single result class of one command.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeParseError
	OutcomeAddressNACK
	OutcomeDataNACK
	OutcomeBusFault
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeParseError:
		return "parse error"
	case OutcomeAddressNACK:
		return "address nack"
	case OutcomeDataNACK:
		return "data nack"
	case OutcomeBusFault:
		return "bus fault"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result describes one dispatched command.
type Result struct {
	Err     error
	Data    []byte // bytes returned by the bus; aliases parser scratch space
	Kind    CommandKind
	Outcome Outcome
}

// Response renders the line queued for the host.
func (r Result) Response() string {
	switch r.Outcome {
	case OutcomeOK:
		if r.Kind == KindI2CWrite {
			return ResponseWriteOK
		}
		return FormatData(r.Data)
	case OutcomeParseError:
		return ResponseParseError
	case OutcomeAddressNACK:
		return ResponseAddrNACK
	case OutcomeDataNACK:
		return ResponseDataNACK
	default:
		return ResponseBusFault
	}
}
