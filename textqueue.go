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

import "github.com/ZaparooProject/go-busbridge/pkg/ringbuf"

// TextQueueSize is the default output queue capacity (usable space is one less).
const TextQueueSize = 128

// TextQueue buffers response text until the transport can take it.
type TextQueue struct {
	q       *ringbuf.Queue
	dropped int
}

// NewTextQueue creates a queue with the given capacity.
func NewTextQueue(capacity int) *TextQueue {
	return &TextQueue{q: ringbuf.NewQueue(capacity)}
}

// AddText queues s whole or not at all, so the host never sees half a
// response line. A line that does not fit is counted as dropped and AddText
// returns false. Already queued text is never disturbed.
func (t *TextQueue) AddText(s string) bool {
	if len(s) > t.q.FreeSpace() {
		t.dropped += len(s)
		Debugf("text queue full (%d free), dropped %d bytes", t.q.FreeSpace(), len(s))
		return false
	}
	for i := 0; i < len(s); i++ {
		_ = t.q.Enqueue(s[i])
	}
	return true
}

// Drain hands queued bytes to dst one at a time. A byte is only consumed
// once dst accepts it, so a busy transport leaves the queue exactly where
// the next call resumes. Drain returns the number of bytes handed over.
func (t *TextQueue) Drain(dst ByteSink) int {
	n := 0
	for !dst.TxBusy() {
		c, err := t.q.Peek()
		if err != nil {
			break
		}
		if !dst.TransmitByte(c) {
			break
		}
		t.q.Skip()
		n++
	}
	return n
}

// Pending returns the number of queued bytes.
func (t *TextQueue) Pending() int {
	return t.q.Len()
}

// FreeSpace returns how many more bytes fit.
func (t *TextQueue) FreeSpace() int {
	return t.q.FreeSpace()
}

// Dropped returns the total number of bytes lost to a full queue.
func (t *TextQueue) Dropped() int {
	return t.dropped
}

// Reset discards everything queued.
func (t *TextQueue) Reset() {
	t.q.Reset()
}
