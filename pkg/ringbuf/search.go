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

// step advances a streaming match of needle by one input byte. A mismatch
// restarts at 1 when c equals the first needle byte and at 0 otherwise. This
// is enough for keywords without a repeated prefix; needles such as "aab"
// can miss a match that a full failure function would find.
func step(needle string, matched int, c byte) int {
	switch {
	case matched < len(needle) && c == needle[matched]:
		return matched + 1
	case len(needle) > 0 && c == needle[0]:
		return 1
	default:
		return 0
	}
}

// Find reports whether needle occurs in the unread data. The read index is
// not moved. An empty buffer never matches.
func (b *Buffer) Find(needle string) bool {
	if b.Empty() {
		return false
	}
	matched := 0
	for i := b.read; i != b.write; i = b.next(i) {
		matched = step(needle, matched, b.mem[i])
		if matched == len(needle) {
			return true
		}
	}
	return false
}

// AdvanceTo consumes data up to and including the first occurrence of
// needle. If needle is not found the buffer is left empty and false is
// returned.
func (b *Buffer) AdvanceTo(needle string) bool {
	matched := 0
	for !b.Empty() && matched < len(needle) {
		matched = step(needle, matched, b.mem[b.read])
		b.Skip()
	}
	return matched == len(needle)
}

// Count returns how many unread bytes equal c.
func (b *Buffer) Count(c byte) int {
	n := 0
	for i := b.read; i != b.write; i = b.next(i) {
		if b.mem[i] == c {
			n++
		}
	}
	return n
}
