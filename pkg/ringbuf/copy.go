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

// The copy helpers never move the read index. The terminated variants write
// a NUL after the copied data and count it in their result; when dst fills up
// the last copied byte is replaced by the terminator instead.

func (b *Buffer) limit(dst []byte) int {
	if len(dst) > len(b.mem) {
		return len(b.mem)
	}
	return len(dst)
}

func terminate(dst []byte, written, limit int) int {
	if limit == 0 {
		return 0
	}
	if written < limit {
		dst[written] = 0
		return written + 1
	}
	dst[written-1] = 0
	return written
}

// CopyRaw copies unread bytes into dst until dst is full, the data runs out
// or a NUL byte is reached. No terminator is written.
func (b *Buffer) CopyRaw(dst []byte) int {
	limit := b.limit(dst)
	n := 0
	for i := b.read; n < limit && i != b.write && b.mem[i] != 0; i = b.next(i) {
		dst[n] = b.mem[i]
		n++
	}
	return n
}

// Copy is CopyRaw followed by a NUL terminator.
func (b *Buffer) Copy(dst []byte) int {
	return terminate(dst, b.CopyRaw(dst), b.limit(dst))
}

// CopyUntil copies unread bytes up to (excluding) delim and terminates dst.
func (b *Buffer) CopyUntil(dst []byte, delim byte) int {
	limit := b.limit(dst)
	n := 0
	for i := b.read; n < limit && i != b.write && b.mem[i] != delim; i = b.next(i) {
		dst[n] = b.mem[i]
		n++
	}
	return terminate(dst, n, limit)
}

// CopyBetween skips everything up to and including the first start byte,
// then copies until stop (excluded) and terminates dst. If start never
// occurs dst holds only the terminator.
func (b *Buffer) CopyBetween(dst []byte, start, stop byte) int {
	limit := b.limit(dst)
	n := 0
	started := false
	for i := b.read; n < limit && i != b.write; i = b.next(i) {
		c := b.mem[i]
		switch {
		case started && c == stop:
			return terminate(dst, n, limit)
		case started:
			dst[n] = c
			n++
		case c == start:
			started = true
		}
	}
	return terminate(dst, n, limit)
}
