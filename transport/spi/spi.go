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

// Package spi drives the bridge's SPI peripherals through periph.io: one
// shared bus plus a GPIO chip-select line per device.
package spi

import (
	"errors"
	"fmt"

	busbridge "github.com/ZaparooProject/go-busbridge"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// DefaultFrequency is the SPI clock used unless overridden.
	DefaultFrequency = 1 * physic.MegaHertz
	// DefaultMode is CPOL=0, CPHA=0.
	DefaultMode = spi.Mode0

	bitsPerWord = 8
)

// Pin is a chip-select output. gpio.PinIO satisfies it.
type Pin interface {
	Out(l gpio.Level) error
	String() string
}

type config struct {
	freq physic.Frequency
	mode spi.Mode
}

// Option configures a Bus.
type Option func(*config)

// WithFrequency sets the SPI clock.
func WithFrequency(f physic.Frequency) Option {
	return func(c *config) {
		if f > 0 {
			c.freq = f
		}
	}
}

// WithMode sets the SPI clock polarity and phase.
func WithMode(m spi.Mode) Option {
	return func(c *config) {
		c.mode = m
	}
}

// Bus implements busbridge.SPIBus. Chip selects are active low.
type Bus struct {
	port     spi.PortCloser
	conn     spi.Conn
	pins     map[busbridge.ChipSelect]Pin
	rx       []byte
	portName string
}

// New opens portName (for example "/dev/spidev0.0" or "SPI0.0") and claims
// the named GPIO for each chip select. Every chip select is driven high
// before New returns.
func New(portName string, pinNames map[busbridge.ChipSelect]string, opts ...Option) (*Bus, error) {
	cfg := config{freq: DefaultFrequency, mode: DefaultMode}
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	pins := make(map[busbridge.ChipSelect]Pin, len(pinNames))
	for cs, name := range pinNames {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("chip select %s: GPIO %q not found", cs, name)
		}
		pins[cs] = p
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", portName, err)
	}

	conn, err := port.Connect(cfg.freq, cfg.mode, bitsPerWord)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to connect SPI: %w", err)
	}

	b, err := NewWithConn(conn, pins)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	b.port = port
	b.portName = portName
	busbridge.Debugf("SPI %s at %s, %d chip selects", portName, cfg.freq, len(pins))
	return b, nil
}

// NewWithConn builds a Bus on an already connected spi.Conn.
func NewWithConn(conn spi.Conn, pins map[busbridge.ChipSelect]Pin) (*Bus, error) {
	b := &Bus{
		conn:     conn,
		pins:     pins,
		portName: conn.String(),
	}
	for cs, p := range pins {
		if err := p.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("chip select %s idle: %w", cs, err)
		}
	}
	return b, nil
}

// String returns the port name.
func (b *Bus) String() string {
	return b.portName
}

func (b *Bus) pin(cs busbridge.ChipSelect) (Pin, error) {
	p, ok := b.pins[cs]
	if !ok {
		return nil, fmt.Errorf("%w: %s", busbridge.ErrUnknownChipSelect, cs)
	}
	return p, nil
}

// Assert drives the chip select of cs low.
func (b *Bus) Assert(cs busbridge.ChipSelect) error {
	p, err := b.pin(cs)
	if err != nil {
		return err
	}
	if err := p.Out(gpio.Low); err != nil {
		return fmt.Errorf("assert %s on %s: %w", cs, p, err)
	}
	return nil
}

// Deassert drives the chip select of cs high.
func (b *Bus) Deassert(cs busbridge.ChipSelect) error {
	p, err := b.pin(cs)
	if err != nil {
		return err
	}
	if err := p.Out(gpio.High); err != nil {
		return fmt.Errorf("deassert %s on %s: %w", cs, p, err)
	}
	return nil
}

// Exchange clocks buf out and replaces it with the bytes clocked in.
func (b *Bus) Exchange(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	if cap(b.rx) < len(buf) {
		b.rx = make([]byte, len(buf))
	}
	r := b.rx[:len(buf)]
	if err := b.conn.Tx(buf, r); err != nil {
		return fmt.Errorf("SPI transfer of %d bytes failed: %w", len(buf), err)
	}
	copy(buf, r)
	return nil
}

// Close releases every chip select and the port.
func (b *Bus) Close() error {
	var errs []error
	for cs, p := range b.pins {
		if err := p.Out(gpio.High); err != nil {
			errs = append(errs, fmt.Errorf("chip select %s: %w", cs, err))
		}
	}
	if b.port != nil {
		if err := b.port.Close(); err != nil {
			errs = append(errs, fmt.Errorf("SPI close failed: %w", err))
		}
		b.port = nil
	}
	return errors.Join(errs...)
}
