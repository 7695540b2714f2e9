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

// Package i2c drives the bridge's I2C bus through periph.io. Transactions
// complete synchronously, so the bus never reports busy.
package i2c

import (
	"errors"
	"fmt"
	"strings"

	busbridge "github.com/ZaparooProject/go-busbridge"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// DefaultSpeed is fast mode.
const DefaultSpeed = 400 * physic.KiloHertz

var errNoBus = errors.New("i2c bus closed")

type config struct {
	speed physic.Frequency
}

// Option configures a Bus.
type Option func(*config)

// WithSpeed sets the bus clock.
func WithSpeed(f physic.Frequency) Option {
	return func(c *config) {
		if f > 0 {
			c.speed = f
		}
	}
}

// Bus implements busbridge.I2CBus on a periph.io bus.
type Bus struct {
	bus     i2c.BusCloser
	last    error
	busName string
	status  busbridge.I2CStatus
	txCount int
	nacks   int
}

// New opens busName ("1", "/dev/i2c-1" or "I2C1"; empty picks the first
// bus) and sets its clock.
func New(busName string, opts ...Option) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	name := busPath(busName)
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", busName, err)
	}

	b := NewWithBus(bus, opts...)
	b.busName = busName
	return b, nil
}

// NewWithBus wraps an open bus.
func NewWithBus(bus i2c.BusCloser, opts ...Option) *Bus {
	cfg := config{speed: DefaultSpeed}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Not every adapter can change its clock.
	if err := bus.SetSpeed(cfg.speed); err != nil {
		busbridge.Debugf("I2C %s: set speed %s: %v", bus, cfg.speed, err)
	}
	return &Bus{bus: bus, busName: bus.String()}
}

// busPath strips the /dev/i2c- prefix that i2creg does not accept.
func busPath(name string) string {
	return strings.TrimPrefix(name, "/dev/i2c-")
}

// String returns the bus name.
func (b *Bus) String() string {
	return b.busName
}

// Read reads len(r) bytes from addr.
func (b *Bus) Read(addr uint16, r []byte) {
	b.tx(addr, nil, r)
}

// Write writes w to addr.
func (b *Bus) Write(addr uint16, w []byte) {
	b.tx(addr, w, nil)
}

// WriteRead writes w then reads len(r) bytes after a repeated start.
func (b *Bus) WriteRead(addr uint16, w, r []byte) {
	b.tx(addr, w, r)
}

func (b *Bus) tx(addr uint16, w, r []byte) {
	b.txCount++
	if b.bus == nil {
		b.last = errNoBus
		b.status = busbridge.I2CStatusDataNACK
		return
	}
	b.last = b.bus.Tx(addr, w, r)
	b.status = classify(b.last)
	if b.last != nil {
		b.nacks++
		busbridge.Debugf("I2C 0x%02X: %s: %v", addr, b.status, b.last)
	}
}

// Busy always reports false.
func (*Bus) Busy() bool {
	return false
}

// Tasks has nothing to advance.
func (*Bus) Tasks() {}

// Status returns the outcome of the last transaction.
func (b *Bus) Status() busbridge.I2CStatus {
	return b.status
}

// LastError returns the driver error behind the last status, if any.
func (b *Bus) LastError() error {
	return b.last
}

// Stats returns the transaction and failure counts.
func (b *Bus) Stats() (transactions, failures int) {
	return b.txCount, b.nacks
}

// Close releases the bus.
func (b *Bus) Close() error {
	if b.bus == nil {
		return nil
	}
	err := b.bus.Close()
	b.bus = nil
	if err != nil {
		return fmt.Errorf("I2C close failed: %w", err)
	}
	return nil
}

func classify(err error) busbridge.I2CStatus {
	if err == nil {
		return busbridge.I2CStatusOK
	}
	if status, ok := errnoStatus(err); ok {
		return status
	}
	return messageStatus(err)
}

// messageStatus classifies drivers that flatten the errno into text.
func messageStatus(err error) busbridge.I2CStatus {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such device or address"),
		strings.Contains(msg, "address nack"):
		return busbridge.I2CStatusAddressNACK
	default:
		return busbridge.I2CStatusDataNACK
	}
}
