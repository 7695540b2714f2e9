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

// Package testing provides in-memory links and bus peripherals for driving a
// busbridge.Bridge without hardware.
package testing

import (
	"context"
	"errors"

	"github.com/ZaparooProject/go-busbridge/internal/syncutil"
	"github.com/ZaparooProject/go-busbridge/pkg/ringbuf"
)

// DefaultCaptureSize is the capacity of a SimTransport transcript.
const DefaultCaptureSize = 1024

// SimTransport is an in-memory busbridge.Transport. Host input is scripted
// with Send and everything transmitted is captured in a ring buffer.
type SimTransport struct {
	output  *ringbuf.Buffer
	input   []byte
	sent    int
	busyFor int
	refuse  int
	mu      syncutil.Mutex
}

// NewSimTransport creates a transport whose transcript holds captureSize-1
// bytes before the oldest are overwritten.
func NewSimTransport(captureSize int) *SimTransport {
	if captureSize <= 0 {
		captureSize = DefaultCaptureSize
	}
	return &SimTransport{output: ringbuf.NewBuffer(captureSize)}
}

// Send queues host bytes for ReceiveByte.
func (s *SimTransport) Send(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = append(s.input, text...)
}

// ReceiveByte implements busbridge.ByteSource.
func (s *SimTransport) ReceiveByte() (byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.input) == 0 {
		return 0, false
	}
	c := s.input[0]
	s.input = s.input[1:]
	return c, true
}

// TransmitByte implements busbridge.ByteSink.
func (s *SimTransport) TransmitByte(c byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refuse > 0 {
		s.refuse--
		return false
	}
	s.output.LoadByte(c)
	s.sent++
	return true
}

// TxBusy implements busbridge.ByteSink.
func (s *SimTransport) TxBusy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busyFor > 0 {
		s.busyFor--
		return true
	}
	return false
}

// SetBusy makes the next n TxBusy calls report busy.
func (s *SimTransport) SetBusy(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busyFor = n
}

// RefuseNext makes the next n TransmitByte calls fail.
func (s *SimTransport) RefuseNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refuse = n
}

// Sent returns the number of bytes accepted so far.
func (s *SimTransport) Sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

// PendingInput returns how many scripted bytes have not been received yet.
func (s *SimTransport) PendingInput() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.input)
}

// Output returns the unread transcript without consuming it.
func (s *SimTransport) Output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := s.output.Snapshot()
	out := make([]byte, 0, view.Len())
	for {
		c, ok := view.Get()
		if !ok {
			return string(out)
		}
		out = append(out, c)
	}
}

// NextLine consumes and returns the next complete response line including
// its "\r\n". It reports false while no full line has been transmitted.
func (s *SimTransport) NextLine() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.output.Find("\n") {
		return "", false
	}
	buf := make([]byte, s.output.Cap()+1)
	n := s.output.CopyUntil(buf, '\n')
	s.output.AdvanceTo("\n")
	return string(buf[:n-1]) + "\n", true
}

// ErrSimStart is returned by SimLink.Start while start failures are injected.
var ErrSimStart = errors.New("simulated start failure")

// SimLink is a SimTransport with busbridge.Link lifecycle control.
type SimLink struct {
	*SimTransport
	serviceErr error
	startFails int
	starts     int
	stops      int
	services   int
	present    bool
	running    bool
}

// NewSimLink creates a present, stopped link.
func NewSimLink() *SimLink {
	return &SimLink{
		SimTransport: NewSimTransport(DefaultCaptureSize),
		present:      true,
	}
}

// SetPresent plugs or unplugs the link.
func (l *SimLink) SetPresent(present bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.present = present
}

// FailStarts makes the next n Start calls fail. A negative n fails forever.
func (l *SimLink) FailStarts(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.startFails = n
}

// FailService makes every Service call return err until cleared with nil.
func (l *SimLink) FailService(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.serviceErr = err
}

// Present implements busbridge.Link.
func (l *SimLink) Present() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.present
}

// Start implements busbridge.Link.
func (l *SimLink) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.starts++
	if l.startFails != 0 {
		if l.startFails > 0 {
			l.startFails--
		}
		return ErrSimStart
	}
	l.running = true
	return nil
}

// Service implements busbridge.Link.
func (l *SimLink) Service() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services++
	return l.serviceErr
}

// Stop implements busbridge.Link.
func (l *SimLink) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stops++
	l.running = false
	return nil
}

// Running reports whether the link has been started and not stopped.
func (l *SimLink) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Counts returns how often Start, Stop and Service were called.
func (l *SimLink) Counts() (starts, stops, services int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.starts, l.stops, l.services
}
