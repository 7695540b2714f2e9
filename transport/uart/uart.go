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

// Package uart provides the serial-port busbridge.Link: a USB CDC gadget
// (/dev/ttyGS0), a USB serial adapter or any other tty the host talks to.
package uart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	busbridge "github.com/ZaparooProject/go-busbridge"
	"github.com/ZaparooProject/go-busbridge/internal/syncutil"
	"github.com/ZaparooProject/go-busbridge/pkg/ringbuf"
	"go.bug.st/serial"
)

// Port is the part of serial.Port the link uses.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// OpenFunc opens a port; the default wraps serial.Open.
type OpenFunc func(name string, mode *serial.Mode) (Port, error)

func openSerial(name string, mode *serial.Mode) (Port, error) {
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, err //nolint:wrapcheck // classified by the caller
	}
	return p, nil
}

// portPresent reports whether name is an enumerated serial port or at
// least an existing device node. Gadget ttys are not always enumerated.
func portPresent(name string) bool {
	if ports, err := serial.GetPortsList(); err == nil && slices.Contains(ports, name) {
		return true
	}
	_, err := os.Stat(name)
	return err == nil
}

// Transport implements busbridge.Link on a serial port. Bytes move between
// the port and two rings only in Service; the byte-level methods never
// block on I/O.
type Transport struct {
	port        Port
	open        OpenFunc
	present     func(name string) bool
	retry       *busbridge.RetryConfig
	rx          *ringbuf.Buffer
	tx          *ringbuf.Queue
	portName    string
	scratch     []byte
	mode        serial.Mode
	readTimeout time.Duration
	rxFull      int
	ioErrors    int
	mu          syncutil.Mutex
}

// Option configures a Transport.
type Option func(*Transport)

// WithBaudRate sets the line rate.
func WithBaudRate(baud int) Option {
	return func(t *Transport) {
		if baud > 0 {
			t.mode.BaudRate = baud
		}
	}
}

// WithReadTimeout bounds the single read done per Service call.
func WithReadTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.readTimeout = d
		}
	}
}

// WithRetryConfig sets the policy for opening the port in Start.
func WithRetryConfig(config *busbridge.RetryConfig) Option {
	return func(t *Transport) {
		t.retry = config
	}
}

// WithBufferSizes sets the receive ring and transmit queue capacities.
func WithBufferSizes(rx, tx int) Option {
	return func(t *Transport) {
		if rx > 1 {
			t.rx = ringbuf.NewBuffer(rx)
		}
		if tx > 1 {
			t.tx = ringbuf.NewQueue(tx)
		}
	}
}

// WithOpener replaces serial.Open.
func WithOpener(open OpenFunc) Option {
	return func(t *Transport) {
		t.open = open
	}
}

// WithPresence replaces the port presence check.
func WithPresence(present func(name string) bool) Option {
	return func(t *Transport) {
		t.present = present
	}
}

// New creates a link for portName. The port is not opened until Start.
func New(portName string, opts ...Option) *Transport {
	t := &Transport{
		portName: portName,
		mode: serial.Mode{
			BaudRate: busbridge.DefaultBaudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
		readTimeout: busbridge.DefaultReadTimeout,
		retry:       busbridge.PortOpenRetryConfig(),
		open:        openSerial,
		present:     portPresent,
		rx:          ringbuf.NewBuffer(busbridge.RxBufferSize),
		tx:          ringbuf.NewQueue(busbridge.TxQueueSize),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.scratch = make([]byte, max(t.rx.Cap(), t.tx.Cap()))
	return t
}

// PortName returns the device path.
func (t *Transport) PortName() string {
	return t.portName
}

// Type returns the transport type
func (*Transport) Type() busbridge.TransportType {
	return busbridge.TransportUART
}

// Present implements busbridge.Link.
func (t *Transport) Present() bool {
	return t.present(t.portName)
}

// IsConnected reports whether the port is open.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// Start opens the port, retrying busy or not-yet-ready devices. Starting an
// open link is a no-op.
func (t *Transport) Start(ctx context.Context) error {
	if t.IsConnected() {
		return nil
	}

	var port Port
	err := busbridge.RetryWithConfig(ctx, t.retry, func() error {
		p, err := t.open(t.portName, &t.mode)
		if err != nil {
			return classifyOpenError(t.portName, err)
		}
		port = p
		return nil
	})
	if err != nil {
		return fmt.Errorf("UART start failed: %w", err)
	}

	if err := port.SetReadTimeout(t.readTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("failed to set UART read timeout: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.port = port
	t.rx.Reset()
	t.tx.Reset()
	busbridge.Debugf("UART %s open at %d baud", t.portName, t.mode.BaudRate)
	return nil
}

// Stop closes the port and discards buffered bytes. It may be called from
// any goroutine.
func (t *Transport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	t.rx.Reset()
	t.tx.Reset()
	if err != nil {
		return fmt.Errorf("UART close failed: %w", err)
	}
	return nil
}

// Close is Stop, for io.Closer users.
func (t *Transport) Close() error {
	return t.Stop()
}

// ReceiveByte implements busbridge.ByteSource.
func (t *Transport) ReceiveByte() (byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rx.Get()
}

// TransmitByte implements busbridge.ByteSink.
func (t *Transport) TransmitByte(b byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return false
	}
	return t.tx.Enqueue(b) == nil
}

// TxBusy implements busbridge.ByteSink.
func (t *Transport) TxBusy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port == nil || t.tx.Full()
}

// Service reads at most the receive ring's free space and writes as
// much of the transmit queue as the port takes. Only errors that require
// the link to be restarted are returned; transient ones are logged.
func (t *Transport) Service() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return &busbridge.TransportError{
			Op: "service", Port: t.portName, Err: busbridge.ErrTransportClosed, Type: busbridge.ErrorTypePermanent,
		}
	}

	// Never read more than the ring can hold; the rest waits in the OS tty
	// buffer until the parser catches up.
	if free := t.rx.Cap() - 1 - t.rx.Len(); free > 0 {
		n, err := t.port.Read(t.scratch[:free])
		if n > 0 {
			t.rx.Load(t.scratch[:n])
		}
		if err != nil {
			if ferr := t.ioError("read", busbridge.ErrTransportRead, err); ferr != nil {
				return ferr
			}
		}
	} else {
		t.rxFull++
	}

	if t.tx.Empty() {
		return nil
	}
	pending := t.tx.PeekInto(t.scratch)
	written, err := t.port.Write(t.scratch[:pending])
	if written > 0 {
		t.tx.Discard(written)
	}
	if err != nil {
		return t.ioError("write", busbridge.ErrTransportWrite, err)
	}
	return nil
}

// ioError returns a permanent error when the port is gone and nil, after
// logging, for anything else.
func (t *Transport) ioError(op string, kind, err error) error {
	if isPortGone(err) {
		return busbridge.NewPortGoneError(op, t.portName, err)
	}
	t.ioErrors++
	busbridge.Debugf("UART %s %s: %v", t.portName, op, fmt.Errorf("%w: %w", kind, err))
	return nil
}

// Stats returns how many Service calls skipped the read because the receive
// ring was full, and the transient I/O error count.
func (t *Transport) Stats() (rxFull, ioErrors int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rxFull, t.ioErrors
}

func portErrorCode(err error) (serial.PortErrorCode, bool) {
	var pe *serial.PortError
	if errors.As(err, &pe) && pe != nil {
		return pe.Code(), true
	}
	var pv serial.PortError
	if errors.As(err, &pv) {
		return pv.Code(), true
	}
	return 0, false
}

// classifyOpenError maps a serial.Open failure to a TransportError whose
// Retryable flag drives RetryWithConfig.
func classifyOpenError(portName string, err error) error {
	code, ok := portErrorCode(err)
	if !ok {
		if isPortGone(err) || errors.Is(err, os.ErrNotExist) {
			return busbridge.NewPortGoneError("open", portName, err)
		}
		return &busbridge.TransportError{
			Op: "open", Port: portName, Err: err, Type: busbridge.ErrorTypeTransient, Retryable: true,
		}
	}

	//nolint:exhaustive // remaining codes are configuration errors
	switch code {
	case serial.PortBusy:
		return &busbridge.TransportError{
			Op: "open", Port: portName, Err: fmt.Errorf("%w: %w", busbridge.ErrPortBusy, err),
			Type: busbridge.ErrorTypeTransient, Retryable: true,
		}
	case serial.PortNotFound, serial.InvalidSerialPort:
		return busbridge.NewPortGoneError("open", portName, err)
	default:
		return &busbridge.TransportError{
			Op: "open", Port: portName, Err: err, Type: busbridge.ErrorTypePermanent,
		}
	}
}

// isPortGone reports whether err means the device disappeared.
func isPortGone(err error) bool {
	if code, ok := portErrorCode(err); ok {
		return code == serial.PortNotFound || code == serial.PortClosed || code == serial.InvalidSerialPort
	}
	return busbridge.IsFatal(err)
}
