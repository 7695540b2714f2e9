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

package testing

import (
	"fmt"

	busbridge "github.com/ZaparooProject/go-busbridge"
)

// SPIEventKind identifies a recorded VirtualSPI call.
type SPIEventKind int

const (
	SPIAssert SPIEventKind = iota
	SPIExchange
	SPIDeassert
)

func (k SPIEventKind) String() string {
	switch k {
	case SPIAssert:
		return "assert"
	case SPIExchange:
		return "exchange"
	case SPIDeassert:
		return "deassert"
	default:
		return fmt.Sprintf("SPIEventKind(%d)", int(k))
	}
}

// SPIEvent is one recorded call. MOSI is a copy of the bytes clocked out.
type SPIEvent struct {
	MOSI []byte
	Kind SPIEventKind
	CS   busbridge.ChipSelect
}

// SPIResponder computes MISO for one exchange on the asserted device.
// It must fill miso, which has the same length as mosi.
type SPIResponder func(cs busbridge.ChipSelect, mosi, miso []byte)

// VirtualSPI is a busbridge.SPIBus with loopback (MISO tied to MOSI) unless a
// responder is installed for the selected device.
type VirtualSPI struct {
	responders  map[busbridge.ChipSelect]SPIResponder
	exchangeErr error
	assertErr   error
	events      []SPIEvent
	selected    busbridge.ChipSelect
	asserted    bool
}

// NewVirtualSPI creates a loopback bus.
func NewVirtualSPI() *VirtualSPI {
	return &VirtualSPI{responders: make(map[busbridge.ChipSelect]SPIResponder)}
}

// SetResponder installs a device model behind cs.
func (v *VirtualSPI) SetResponder(cs busbridge.ChipSelect, fn SPIResponder) {
	v.responders[cs] = fn
}

// FailExchange makes Exchange return err until cleared with nil.
func (v *VirtualSPI) FailExchange(err error) {
	v.exchangeErr = err
}

// FailAssert makes Assert return err until cleared with nil.
func (v *VirtualSPI) FailAssert(err error) {
	v.assertErr = err
}

// Assert implements busbridge.SPIBus.
func (v *VirtualSPI) Assert(cs busbridge.ChipSelect) error {
	if v.assertErr != nil {
		return v.assertErr
	}
	if v.asserted {
		return fmt.Errorf("assert %s while %s is selected", cs, v.selected)
	}
	v.asserted = true
	v.selected = cs
	v.events = append(v.events, SPIEvent{Kind: SPIAssert, CS: cs})
	return nil
}

// Deassert implements busbridge.SPIBus.
func (v *VirtualSPI) Deassert(cs busbridge.ChipSelect) error {
	if !v.asserted || v.selected != cs {
		return fmt.Errorf("deassert %s: not selected", cs)
	}
	v.asserted = false
	v.events = append(v.events, SPIEvent{Kind: SPIDeassert, CS: cs})
	return nil
}

// Exchange implements busbridge.SPIBus.
func (v *VirtualSPI) Exchange(buf []byte) error {
	if !v.asserted {
		return fmt.Errorf("exchange of %d bytes with no device selected", len(buf))
	}
	mosi := append([]byte(nil), buf...)
	v.events = append(v.events, SPIEvent{Kind: SPIExchange, CS: v.selected, MOSI: mosi})
	if v.exchangeErr != nil {
		return v.exchangeErr
	}
	if fn, ok := v.responders[v.selected]; ok {
		fn(v.selected, mosi, buf)
	}
	return nil
}

// Events returns every recorded call in order.
func (v *VirtualSPI) Events() []SPIEvent {
	return v.events
}

// Selected reports the device currently selected, if any.
func (v *VirtualSPI) Selected() (busbridge.ChipSelect, bool) {
	return v.selected, v.asserted
}

// Reset clears the event log and releases any selected device.
func (v *VirtualSPI) Reset() {
	v.events = nil
	v.asserted = false
}

// Invert is an SPIResponder answering every byte with its complement.
func Invert(_ busbridge.ChipSelect, mosi, miso []byte) {
	for i, b := range mosi {
		miso[i] = ^b
	}
}
