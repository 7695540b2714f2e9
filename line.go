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

const (
	// LineBufferSize is the line capacity including the terminator slot.
	LineBufferSize = 128
	// MaxSerialParameters bounds the hex payload of one command.
	MaxSerialParameters = 32
)

// LineBuffer accumulates one command line in place and tokenizes it without
// copying. Tokens are runs of non-space bytes; the cursor always sits at the
// start of the current token or at the terminator.
//
// Invariant: 0 <= cursor <= length <= LineBufferSize-1, and buf[length] is 0
// once a line is ready.
type LineBuffer struct {
	buf    [LineBufferSize]byte
	length int
	cursor int
	ready  bool
}

// Push applies the per-byte assembly rule. '\r' is ignored, '\n' completes
// the line, and anything else is uppercased and appended while no line is
// pending and there is room. Bytes that do not fit, or that arrive while a
// completed line waits for dispatch, are dropped. Push reports whether the
// byte completed a line.
func (l *LineBuffer) Push(c byte) bool {
	switch {
	case c == '\r':
		return false
	case c == '\n':
		if l.ready {
			return false
		}
		l.buf[l.length] = 0
		l.ready = true
		return true
	case l.ready || l.length >= LineBufferSize-1:
		return false
	}
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	l.buf[l.length] = c
	l.length++
	return false
}

// Ready reports whether a complete line is waiting.
func (l *LineBuffer) Ready() bool {
	return l.ready
}

// Len returns the number of stored line bytes.
func (l *LineBuffer) Len() int {
	return l.length
}

// Reset empties the buffer for the next line.
func (l *LineBuffer) Reset() {
	l.length = 0
	l.cursor = 0
	l.ready = false
}

// Rewind puts the cursor back on the first token.
func (l *LineBuffer) Rewind() {
	l.cursor = 0
}

// Load replaces the contents with s as if it had been pushed byte by byte
// followed by a newline.
func (l *LineBuffer) Load(s string) {
	l.Reset()
	for i := 0; i < len(s); i++ {
		l.Push(s[i])
	}
	l.Push('\n')
}

// String returns the stored line.
func (l *LineBuffer) String() string {
	return string(l.buf[:l.length])
}

func (l *LineBuffer) at(i int) byte {
	if i >= l.length {
		return 0
	}
	return l.buf[i]
}

// endOfToken reports whether position i ends a token.
func (l *LineBuffer) endOfToken(i int) bool {
	c := l.at(i)
	return c == 0 || c == ' '
}

// Token returns a read-only view of the current token.
func (l *LineBuffer) Token() []byte {
	end := l.cursor
	for !l.endOfToken(end) {
		end++
	}
	return l.buf[l.cursor:end:end]
}

// Advance moves the cursor to the start of the next token, collapsing any
// run of spaces. It returns false, with the cursor on the terminator, when
// there is no further token.
func (l *LineBuffer) Advance() bool {
	for l.at(l.cursor) != 0 && l.at(l.cursor) != ' ' {
		l.cursor++
	}
	if l.at(l.cursor) == 0 {
		return false
	}
	l.cursor++
	for l.at(l.cursor) == ' ' {
		l.cursor++
	}
	return l.at(l.cursor) != 0
}

// Contains reports whether ref occurs inside the current token. The scan is
// streaming: on a mismatch the match restarts at 1 if the byte equals ref[0]
// and at 0 otherwise. Keywords without a repeated prefix are matched
// exactly; others may be missed.
func (l *LineBuffer) Contains(ref string) bool {
	matched := 0
	for i := l.cursor; !l.endOfToken(i); i++ {
		if matched == len(ref) {
			return true
		}
		c := l.buf[i]
		switch {
		case c == ref[matched]:
			matched++
		case c == ref[0]:
			matched = 1
		default:
			matched = 0
		}
	}
	return matched == len(ref)
}

// MatchExact reports whether the current token equals ref.
func (l *LineBuffer) MatchExact(ref string) bool {
	n := 0
	for i := l.cursor; !l.endOfToken(i); i++ {
		if n == len(ref) || l.buf[i] != ref[n] {
			return false
		}
		n++
	}
	return n == len(ref)
}

// HexByte decodes the current token as one byte. One digit followed by the
// end of the token is the whole value; otherwise the first two digits are
// high and low nibble. Only uppercase digits are accepted, which is all the
// assembler ever stores.
func (l *LineBuffer) HexByte() (byte, bool) {
	hi, ok := hexNibble(l.at(l.cursor))
	if !ok {
		return 0, false
	}
	if l.endOfToken(l.cursor + 1) {
		return hi, true
	}
	lo, ok := hexNibble(l.at(l.cursor + 1))
	if !ok {
		return 0, false
	}
	return hi<<4 | lo, true
}

// HexArray decodes the current token and every following one into dst and
// returns the count. It is all-or-nothing: a malformed token, an empty
// remainder or more tokens than dst can hold all yield 0.
func (l *LineBuffer) HexArray(dst []byte) int {
	n := 0
	for {
		if n == len(dst) {
			return 0
		}
		v, ok := l.HexByte()
		if !ok {
			return 0
		}
		dst[n] = v
		n++
		if !l.Advance() {
			return n
		}
	}
}
