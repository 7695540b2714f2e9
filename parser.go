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

import (
	"fmt"
	"time"
)

// DefaultSettleDelay separates chip-select assertion from the first SPI clock edge.
const DefaultSettleDelay = time.Microsecond

// Parser assembles host bytes into command lines, dispatches each complete
// line to the SPI or I2C bus and queues exactly one response line for it.
//
// Grammar (case-insensitive, space separated, 1-2 digit hex values):
//
//	SPI <EEPROM|DAC|USD> <hex>+
//	I2C <addr> R <len>
//	I2C <addr> W <hex>+
//	I2C <addr> WR <hex> <len>
type Parser struct {
	spi      SPIBus
	i2c      I2CBus
	out      *TextQueue
	sleep    func(time.Duration)
	onResult func(Result)
	line     LineBuffer
	settle   time.Duration
	scratch  [MaxSerialParameters]byte
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithSPIBus sets the SPI bus. Without one, SPI commands report a bus fault.
func WithSPIBus(bus SPIBus) ParserOption {
	return func(p *Parser) {
		p.spi = bus
	}
}

// WithI2CBus sets the I2C bus. Without one, I2C commands report a bus fault.
func WithI2CBus(bus I2CBus) ParserOption {
	return func(p *Parser) {
		p.i2c = bus
	}
}

// WithSettleDelay overrides the chip-select settle delay.
func WithSettleDelay(d time.Duration) ParserOption {
	return func(p *Parser) {
		p.settle = d
	}
}

// WithSleep replaces the function used for the settle delay.
func WithSleep(sleep func(time.Duration)) ParserOption {
	return func(p *Parser) {
		p.sleep = sleep
	}
}

// WithResultHook registers a callback invoked after every dispatched command.
func WithResultHook(hook func(Result)) ParserOption {
	return func(p *Parser) {
		p.onResult = hook
	}
}

// NewParser creates a parser queueing its responses on out. A nil out
// discards responses.
func NewParser(out *TextQueue, opts ...ParserOption) *Parser {
	p := &Parser{
		out:    out,
		settle: DefaultSettleDelay,
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Feed moves bytes from src into the line buffer until src runs dry or a
// line completes, and reports whether a complete line is waiting. Bytes
// after the newline stay in src for the next line.
func (p *Parser) Feed(src ByteSource) bool {
	for !p.line.Ready() {
		c, ok := src.ReceiveByte()
		if !ok {
			break
		}
		p.line.Push(c)
	}
	return p.line.Ready()
}

// Handle runs one poll step: feed, and if a line is complete dispatch it.
// The line buffer is empty afterwards whatever the outcome.
func (p *Parser) Handle(src ByteSource) (Result, bool) {
	if !p.Feed(src) {
		return Result{}, false
	}
	return p.complete(), true
}

// Execute dispatches line as if it had been received with a trailing newline.
// Any line already being assembled is discarded.
func (p *Parser) Execute(line string) Result {
	p.line.Load(line)
	return p.complete()
}

// Reset discards any partially assembled line.
func (p *Parser) Reset() {
	p.line.Reset()
}

// Pending returns the number of bytes of the line being assembled.
func (p *Parser) Pending() int {
	return p.line.Len()
}

func (p *Parser) complete() Result {
	text := p.line.String()
	res := p.dispatch()
	p.line.Reset()

	if res.Err != nil {
		Debugf("command %q: %s: %v", text, res.Outcome, res.Err)
	} else {
		Debugf("command %q: %s %d bytes", text, res.Kind, len(res.Data))
	}

	if p.out != nil {
		p.out.AddText(res.Response())
	}
	if p.onResult != nil {
		p.onResult(res)
	}
	return res
}

func (p *Parser) dispatch() Result {
	p.line.Rewind()
	kind, data, err := p.run()
	res := Result{Kind: kind, Err: err, Outcome: OutcomeOf(err)}
	if err == nil {
		res.Data = data
	}
	return res
}

func (p *Parser) parseError(reason string) error {
	return &ParseError{
		Pos:    p.line.cursor,
		Token:  string(p.line.Token()),
		Reason: reason,
	}
}

func (p *Parser) run() (CommandKind, []byte, error) {
	switch {
	case p.line.Contains(keywordSPI):
		return p.runSPI()
	case p.line.Contains(keywordI2C):
		return p.runI2C()
	default:
		return KindUnknown, nil, p.parseError("unknown command family")
	}
}

func (p *Parser) runSPI() (CommandKind, []byte, error) {
	if !p.line.Advance() {
		return KindUnknown, nil, p.parseError("missing SPI target")
	}

	var kind CommandKind
	switch {
	case p.line.MatchExact(keywordEEPROM):
		kind = KindSPIEEPROM
	case p.line.MatchExact(keywordDAC):
		kind = KindSPIDAC
	case p.line.MatchExact(keywordUSD):
		kind = KindSPIUSD
	default:
		return KindUnknown, nil, p.parseError("unknown SPI target")
	}

	// A missing payload leaves the cursor on the terminator and fails below.
	p.line.Advance()
	n := p.line.HexArray(p.scratch[:])
	if n == 0 {
		return kind, nil, p.parseError("invalid SPI data")
	}
	data := p.scratch[:n]

	if err := p.exchange(kind.chipSelect(), data); err != nil {
		return kind, nil, err
	}
	return kind, data, nil
}

func (p *Parser) exchange(cs ChipSelect, buf []byte) error {
	if p.spi == nil {
		return fmt.Errorf("spi %s: %w: %w", cs, ErrBusFault, ErrBusUnavailable)
	}
	if err := p.spi.Assert(cs); err != nil {
		return fmt.Errorf("spi assert %s: %w: %w", cs, ErrBusFault, err)
	}
	p.sleep(p.settle)
	xerr := p.spi.Exchange(buf)
	if err := p.spi.Deassert(cs); err != nil && xerr == nil {
		return fmt.Errorf("spi deassert %s: %w: %w", cs, ErrBusFault, err)
	}
	if xerr != nil {
		return fmt.Errorf("spi exchange %s: %w: %w", cs, ErrBusFault, xerr)
	}
	return nil
}

func (p *Parser) runI2C() (CommandKind, []byte, error) {
	if !p.line.Advance() {
		return KindUnknown, nil, p.parseError("missing I2C address")
	}
	addr, ok := p.line.HexByte()
	if !ok {
		return KindUnknown, nil, p.parseError("invalid I2C address")
	}
	if !p.line.Advance() {
		return KindUnknown, nil, p.parseError("missing I2C operation")
	}

	switch {
	case p.line.MatchExact(keywordRead):
		return p.runI2CRead(uint16(addr))
	case p.line.MatchExact(keywordWrite):
		return p.runI2CWrite(uint16(addr))
	case p.line.MatchExact(keywordWriteRead):
		return p.runI2CWriteRead(uint16(addr))
	default:
		return KindUnknown, nil, p.parseError("unknown I2C operation")
	}
}

func (p *Parser) runI2CRead(addr uint16) (CommandKind, []byte, error) {
	if !p.line.Advance() {
		return KindI2CRead, nil, p.parseError("missing read length")
	}
	n, ok := p.line.HexByte()
	if !ok {
		return KindI2CRead, nil, p.parseError("invalid read length")
	}
	if p.line.Advance() {
		return KindI2CRead, nil, p.parseError("unexpected token after read length")
	}
	if int(n) > len(p.scratch) {
		return KindI2CRead, nil, p.parseError("read length too large")
	}

	buf := p.scratch[:n]
	err := p.transact(addr, func(bus I2CBus) {
		bus.Read(addr, buf)
	})
	return KindI2CRead, buf, err
}

func (p *Parser) runI2CWrite(addr uint16) (CommandKind, []byte, error) {
	p.line.Advance()
	n := p.line.HexArray(p.scratch[:])
	if n == 0 {
		return KindI2CWrite, nil, p.parseError("invalid write data")
	}

	data := p.scratch[:n]
	err := p.transact(addr, func(bus I2CBus) {
		bus.Write(addr, data)
	})
	return KindI2CWrite, nil, err
}

func (p *Parser) runI2CWriteRead(addr uint16) (CommandKind, []byte, error) {
	p.line.Advance()
	if p.line.HexArray(p.scratch[:]) != 2 {
		return KindI2CWriteRead, nil, p.parseError("expected one write byte and a read length")
	}
	n := p.scratch[1]
	if int(n) > len(p.scratch) {
		return KindI2CWriteRead, nil, p.parseError("read length too large")
	}

	w := [1]byte{p.scratch[0]}
	buf := p.scratch[:n]
	err := p.transact(addr, func(bus I2CBus) {
		bus.WriteRead(addr, w[:], buf)
	})
	return KindI2CWriteRead, buf, err
}

// transact starts an I2C transaction and spins until the driver finishes.
// There is no timeout here; the driver owns that policy.
func (p *Parser) transact(addr uint16, start func(I2CBus)) error {
	if p.i2c == nil {
		return fmt.Errorf("i2c 0x%02X: %w: %w", addr, ErrBusFault, ErrBusUnavailable)
	}
	start(p.i2c)
	for p.i2c.Busy() {
		p.i2c.Tasks()
	}
	if err := p.i2c.Status().Err(); err != nil {
		return fmt.Errorf("i2c 0x%02X: %w", addr, err)
	}
	return nil
}
