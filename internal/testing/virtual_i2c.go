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
	busbridge "github.com/ZaparooProject/go-busbridge"
)

// I2CTarget is a register-file device. The first written byte sets the
// register pointer, later bytes are stored at auto-incrementing addresses and
// reads continue from the pointer.
type I2CTarget struct {
	Regs    [256]byte
	Pointer byte
	// NackData makes every transaction fail after the address phase.
	NackData bool
}

// I2CTransaction records one bus transaction.
type I2CTransaction struct {
	Write  []byte
	Addr   uint16
	Read   int
	Status busbridge.I2CStatus
}

// VirtualI2C is a busbridge.I2CBus hosting register-file targets. Every
// transaction stays busy for a configurable number of Tasks calls.
type VirtualI2C struct {
	targets map[uint16]*I2CTarget
	pending func() busbridge.I2CStatus
	log     []I2CTransaction
	busyFor int
	ticks   int
	tasks   int
	status  busbridge.I2CStatus
}

// NewVirtualI2C creates an empty bus; every address NACKs until a target is added.
func NewVirtualI2C() *VirtualI2C {
	return &VirtualI2C{targets: make(map[uint16]*I2CTarget)}
}

// AddTarget attaches a register-file device at addr and returns it.
func (v *VirtualI2C) AddTarget(addr uint16) *I2CTarget {
	t := &I2CTarget{}
	v.targets[addr] = t
	return t
}

// SetBusyTicks keeps each transaction busy for n Tasks calls.
func (v *VirtualI2C) SetBusyTicks(n int) {
	v.busyFor = n
}

// Read implements busbridge.I2CBus.
func (v *VirtualI2C) Read(addr uint16, r []byte) {
	v.begin(addr, nil, r)
}

// Write implements busbridge.I2CBus.
func (v *VirtualI2C) Write(addr uint16, w []byte) {
	v.begin(addr, w, nil)
}

// WriteRead implements busbridge.I2CBus.
func (v *VirtualI2C) WriteRead(addr uint16, w, r []byte) {
	v.begin(addr, w, r)
}

func (v *VirtualI2C) begin(addr uint16, w, r []byte) {
	v.ticks = v.busyFor
	v.pending = func() busbridge.I2CStatus {
		status := v.transfer(addr, w, r)
		v.log = append(v.log, I2CTransaction{
			Addr:   addr,
			Write:  append([]byte(nil), w...),
			Read:   len(r),
			Status: status,
		})
		return status
	}
	if v.ticks == 0 {
		v.finish()
	}
}

func (v *VirtualI2C) finish() {
	v.status = v.pending()
	v.pending = nil
}

func (v *VirtualI2C) transfer(addr uint16, w, r []byte) busbridge.I2CStatus {
	t, ok := v.targets[addr]
	if !ok {
		return busbridge.I2CStatusAddressNACK
	}
	if t.NackData {
		return busbridge.I2CStatusDataNACK
	}
	if len(w) > 0 {
		t.Pointer = w[0]
		for _, b := range w[1:] {
			t.Regs[t.Pointer] = b
			t.Pointer++
		}
	}
	for i := range r {
		r[i] = t.Regs[t.Pointer]
		t.Pointer++
	}
	return busbridge.I2CStatusOK
}

// Busy implements busbridge.I2CBus.
func (v *VirtualI2C) Busy() bool {
	return v.pending != nil
}

// Tasks implements busbridge.I2CBus.
func (v *VirtualI2C) Tasks() {
	v.tasks++
	if v.pending == nil {
		return
	}
	v.ticks--
	if v.ticks <= 0 {
		v.finish()
	}
}

// Status implements busbridge.I2CBus.
func (v *VirtualI2C) Status() busbridge.I2CStatus {
	return v.status
}

// Transactions returns every completed transaction in order.
func (v *VirtualI2C) Transactions() []I2CTransaction {
	return v.log
}

// TaskCalls returns how many times Tasks was called.
func (v *VirtualI2C) TaskCalls() int {
	return v.tasks
}
