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

// Package ringbuf provides fixed-capacity circular byte buffers.
//
// Queue is the minimal single-producer/single-consumer FIFO used for the
// transmit path. Buffer is the general-purpose variant with bulk loads,
// non-destructive copy-out and streaming search.
//
// Both keep one slot free so that head == tail always means empty: a buffer
// created with capacity N holds at most N-1 bytes. Neither type allocates
// after construction and neither is safe for concurrent use; callers that
// share one between goroutines must serialise access to it.
package ringbuf

import "errors"

var (
	// ErrFull is returned when a byte cannot be queued without overwriting unread data.
	ErrFull = errors.New("ring buffer full")
	// ErrEmpty is returned when there is no unread data.
	ErrEmpty = errors.New("ring buffer empty")
)

// MinCapacity is the smallest capacity that can hold a byte.
const MinCapacity = 2

// Queue is a byte FIFO with head/tail indices over a fixed backing array.
type Queue struct {
	buf  []byte
	head int // next write slot
	tail int // next read slot
}

// NewQueue creates a queue with the given capacity. Usable space is
// capacity-1. Capacities below MinCapacity are raised to MinCapacity.
func NewQueue(capacity int) *Queue {
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	return &Queue{buf: make([]byte, capacity)}
}

func (q *Queue) next(i int) int {
	i++
	if i >= len(q.buf) {
		return 0
	}
	return i
}

// Enqueue writes b at the head. It returns ErrFull, leaving the queue
// untouched, when advancing the head would collide with the tail.
func (q *Queue) Enqueue(b byte) error {
	nextHead := q.next(q.head)
	if nextHead == q.tail {
		return ErrFull
	}
	q.buf[q.head] = b
	q.head = nextHead
	return nil
}

// Dequeue reads the byte at the tail and advances it.
func (q *Queue) Dequeue() (byte, error) {
	if q.head == q.tail {
		return 0, ErrEmpty
	}
	b := q.buf[q.tail]
	q.tail = q.next(q.tail)
	return b, nil
}

// Peek returns the byte at the tail without consuming it.
func (q *Queue) Peek() (byte, error) {
	if q.head == q.tail {
		return 0, ErrEmpty
	}
	return q.buf[q.tail], nil
}

// Skip consumes one byte. It is a no-op on an empty queue.
func (q *Queue) Skip() {
	if q.head != q.tail {
		q.tail = q.next(q.tail)
	}
}

// Empty reports whether there is nothing to read.
func (q *Queue) Empty() bool {
	return q.head == q.tail
}

// Full reports whether the next Enqueue would fail.
func (q *Queue) Full() bool {
	return q.next(q.head) == q.tail
}

// Cap returns the capacity the queue was built with (usable space is Cap()-1).
func (q *Queue) Cap() int {
	return len(q.buf)
}

// Len returns the number of unread bytes.
func (q *Queue) Len() int {
	if q.head >= q.tail {
		return q.head - q.tail
	}
	return len(q.buf) - q.tail + q.head
}

// FreeSpace returns how many bytes can still be queued.
func (q *Queue) FreeSpace() int {
	if q.head >= q.tail {
		return q.tail + len(q.buf) - q.head - 1
	}
	return q.tail - q.head - 1
}

// Reset logically empties the queue. Storage is not cleared.
func (q *Queue) Reset() {
	q.head = 0
	q.tail = 0
}

// EnqueueBytes queues as much of p as fits and returns the count queued.
func (q *Queue) EnqueueBytes(p []byte) int {
	for i, b := range p {
		if q.Enqueue(b) != nil {
			return i
		}
	}
	return len(p)
}

// PeekInto copies up to len(p) unread bytes into p without consuming them.
func (q *Queue) PeekInto(p []byte) int {
	n := 0
	for i := q.tail; i != q.head && n < len(p); i = q.next(i) {
		p[n] = q.buf[i]
		n++
	}
	return n
}

// Discard consumes up to n bytes and returns how many were consumed.
func (q *Queue) Discard(n int) int {
	if avail := q.Len(); n > avail {
		n = avail
	}
	if n <= 0 {
		return 0
	}
	q.tail = (q.tail + n) % len(q.buf)
	return n
}
