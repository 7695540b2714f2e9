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

package ringbuf

// Buffer is a general-purpose byte ring used for accumulating stream data.
//
// Unlike Queue, loads never fail: when the ring is full the oldest unread
// byte is overwritten and the load reports overflow. Copy-out helpers are
// non-destructive; only Get, Skip, Advance, AdvanceTo and Flush move the read
// index.
type Buffer struct {
	mem   []byte
	read  int
	write int
}

// NewBuffer allocates a buffer with the given capacity (usable space is
// capacity-1). Capacities below MinCapacity are raised to MinCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	return &Buffer{mem: make([]byte, capacity)}
}

// NewBufferFrom builds a buffer over caller-owned storage. The slice is used
// as-is and must not be touched by the caller afterwards.
func NewBufferFrom(mem []byte) *Buffer {
	return &Buffer{mem: mem}
}

func (b *Buffer) next(i int) int {
	i++
	if i >= len(b.mem) {
		return 0
	}
	return i
}

// Cap returns the size of the backing storage.
func (b *Buffer) Cap() int {
	return len(b.mem)
}

// Empty reports whether there is no unread data.
func (b *Buffer) Empty() bool {
	return b.read == b.write
}

// Len returns the number of unread bytes.
func (b *Buffer) Len() int {
	if b.write >= b.read {
		return b.write - b.read
	}
	return len(b.mem) - b.read + b.write
}

// LoadByte appends c, overwriting the oldest unread byte if the buffer is
// full. It returns true when that happened.
func (b *Buffer) LoadByte(c byte) (overflow bool) {
	if len(b.mem) == 0 {
		return true
	}
	b.mem[b.write] = c
	b.write = b.next(b.write)
	if b.write == b.read {
		b.read = b.next(b.read)
		return true
	}
	return false
}

// Load appends every byte of p. It returns true if any unread data was
// overwritten along the way.
func (b *Buffer) Load(p []byte) (overflow bool) {
	for _, c := range p {
		if b.LoadByte(c) {
			overflow = true
		}
	}
	return overflow
}

// LoadString appends s up to (not including) its first NUL byte.
func (b *Buffer) LoadString(s string) (overflow bool) {
	for i := 0; i < len(s) && s[i] != 0; i++ {
		if b.LoadByte(s[i]) {
			overflow = true
		}
	}
	return overflow
}

// Peek returns the next unread byte without consuming it.
func (b *Buffer) Peek() (byte, bool) {
	if b.read == b.write {
		return 0, false
	}
	return b.mem[b.read], true
}

// Get returns and consumes the next unread byte.
func (b *Buffer) Get() (byte, bool) {
	if b.read == b.write {
		return 0, false
	}
	c := b.mem[b.read]
	b.read = b.next(b.read)
	return c, true
}

// Skip consumes one byte if any is available.
func (b *Buffer) Skip() {
	if b.read != b.write {
		b.read = b.next(b.read)
	}
}

// Advance consumes up to n bytes, stopping at the write index.
func (b *Buffer) Advance(n int) {
	if n <= 0 || b.Empty() {
		return
	}
	if avail := b.Len(); n > avail {
		n = avail
	}
	b.read = (b.read + n) % len(b.mem)
}

// Flush discards all unread data by moving the read index to the write index.
func (b *Buffer) Flush() {
	b.read = b.write
}

// Reset zeroes the storage and rewinds both indices.
func (b *Buffer) Reset() {
	b.read = 0
	b.write = 0
	clear(b.mem)
}

// Snapshot returns a buffer sharing the same storage with its own copy of
// the indices. Consuming from the snapshot leaves b untouched; loading into
// either one corrupts the other.
func (b *Buffer) Snapshot() *Buffer {
	return &Buffer{mem: b.mem, read: b.read, write: b.write}
}

// Duplicate copies the unread contents of b into dst and rewinds dst so that
// it holds exactly that data. When dst is smaller than the unread content the
// copy is truncated to what dst can hold, one byte short of its capacity.
func (b *Buffer) Duplicate(dst *Buffer) {
	if len(dst.mem) == 0 {
		return
	}
	dst.write = b.CopyRaw(dst.mem[:len(dst.mem)-1])
	dst.read = 0
}
