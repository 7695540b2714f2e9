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

// Package busbridge turns a byte-stream link into an SPI and I2C command
// bridge. A host writes ASCII command lines such as "SPI DAC 1 FF" or
// "I2C 50 WR 10 2"; every line is executed on the matching bus and answered
// with exactly one response line.
package busbridge

import (
	"context"
	"fmt"
	"time"
)

// LinkState is the connection state of the bridge's link.
type LinkState int

const (
	// LinkDisconnected waits for the link to be present and started.
	LinkDisconnected LinkState = iota
	// LinkReady services commands.
	LinkReady
	// LinkError holds a failed link until it goes away.
	LinkError
)

func (s LinkState) String() string {
	switch s {
	case LinkDisconnected:
		return "disconnected"
	case LinkReady:
		return "ready"
	case LinkError:
		return "error"
	default:
		return fmt.Sprintf("LinkState(%d)", int(s))
	}
}

// Bridge polls a Link, feeds its bytes to a Parser and sends the responses
// back. It is not safe for concurrent use; everything runs from Tick.
type Bridge struct {
	link          Link
	parser        *Parser
	out           *TextQueue
	onStateChange func(from, to LinkState)
	parserOpts    []ParserOption
	interval      time.Duration
	maxRetries    int
	retries       int
	queueSize     int
	state         LinkState
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithParserOptions passes options through to the bridge's parser.
func WithParserOptions(opts ...ParserOption) BridgeOption {
	return func(b *Bridge) {
		b.parserOpts = append(b.parserOpts, opts...)
	}
}

// WithPollInterval sets the Run tick period.
func WithPollInterval(d time.Duration) BridgeOption {
	return func(b *Bridge) {
		if d > 0 {
			b.interval = d
		}
	}
}

// WithStartRetries sets how many failed starts move the link to LinkError.
func WithStartRetries(n int) BridgeOption {
	return func(b *Bridge) {
		if n > 0 {
			b.maxRetries = n
		}
	}
}

// WithQueueSize sets the response queue capacity.
func WithQueueSize(n int) BridgeOption {
	return func(b *Bridge) {
		if n > 1 {
			b.queueSize = n
		}
	}
}

// WithOnStateChange registers a callback for link state transitions.
func WithOnStateChange(fn func(from, to LinkState)) BridgeOption {
	return func(b *Bridge) {
		b.onStateChange = fn
	}
}

// NewBridge creates a bridge serving link. The link is not touched until
// the first Tick.
func NewBridge(link Link, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		link:       link,
		interval:   DefaultPollInterval,
		maxRetries: LinkStartRetries,
		queueSize:  TextQueueSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.out = NewTextQueue(b.queueSize)
	b.parser = NewParser(b.out, b.parserOpts...)
	return b
}

// State returns the current link state.
func (b *Bridge) State() LinkState {
	return b.state
}

// Parser returns the bridge's command parser.
func (b *Bridge) Parser() *Parser {
	return b.parser
}

// Queue returns the bridge's response queue.
func (b *Bridge) Queue() *TextQueue {
	return b.out
}

// Tick runs one step of the link state machine.
func (b *Bridge) Tick(ctx context.Context) LinkState {
	switch b.state {
	case LinkDisconnected:
		b.tickDisconnected(ctx)
	case LinkReady:
		b.tickReady()
	case LinkError:
		if !b.link.Present() {
			b.setState(LinkDisconnected)
		}
	}
	return b.state
}

func (b *Bridge) tickDisconnected(ctx context.Context) {
	if !b.link.Present() {
		b.retries = 0
		return
	}
	if err := b.link.Start(ctx); err != nil {
		b.retries++
		Debugf("link start %d/%d failed: %v", b.retries, b.maxRetries, err)
		if b.retries >= b.maxRetries {
			b.fail()
		}
		return
	}
	b.retries = 0
	b.parser.Reset()
	b.out.Reset()
	b.setState(LinkReady)
}

func (b *Bridge) tickReady() {
	if !b.link.Present() {
		b.stopLink()
		b.setState(LinkDisconnected)
		return
	}

	b.parser.Handle(b.link)
	b.out.Drain(b.link)
	if err := b.link.Service(); err != nil {
		Debugf("link service failed: %v", err)
		b.fail()
	}
}

// fail stops the link and parks it in LinkError.
func (b *Bridge) fail() {
	b.stopLink()
	b.retries = 0
	b.setState(LinkError)
}

func (b *Bridge) stopLink() {
	if err := b.link.Stop(); err != nil {
		Debugf("link stop: %v", err)
	}
}

func (b *Bridge) setState(to LinkState) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	Debugf("link %s -> %s", from, to)
	if b.onStateChange != nil {
		b.onStateChange(from, to)
	}
}

// Run ticks until ctx is cancelled and then stops the link.
func (b *Bridge) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := b.link.Stop(); err != nil {
				return fmt.Errorf("stop link: %w", err)
			}
			return nil
		case <-ticker.C:
			b.Tick(ctx)
		}
	}
}
