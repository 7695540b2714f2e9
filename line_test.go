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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pushAll(l *LineBuffer, s string) {
	for i := 0; i < len(s); i++ {
		l.Push(s[i])
	}
}

func TestLineBuffer_Push(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		want      string
		wantReady bool
	}{
		{name: "uppercases", input: "spi dac 1 ff\n", want: "SPI DAC 1 FF", wantReady: true},
		{name: "carriage return ignored", input: "i2c\r 50\r\n", want: "I2C 50", wantReady: true},
		{name: "incomplete", input: "i2c 50 r", want: "I2C 50 R", wantReady: false},
		{name: "empty line", input: "\n", want: "", wantReady: true},
		{name: "bytes after newline dropped", input: "spi\nusd", want: "SPI", wantReady: true},
		{name: "second newline ignored", input: "a\n\n", want: "A", wantReady: true},
		{name: "non letters untouched", input: "{|}~09\n", want: "{|}~09", wantReady: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var l LineBuffer
			pushAll(&l, tt.input)
			assert.Equal(t, tt.want, l.String())
			assert.Equal(t, tt.wantReady, l.Ready())
			assert.Equal(t, len(tt.want), l.Len())
		})
	}
}

func TestLineBuffer_OverflowKeepsFirstBytes(t *testing.T) {
	t.Parallel()

	var l LineBuffer
	long := strings.Repeat("a", LineBufferSize+20)
	pushAll(&l, long+"\n")

	require.True(t, l.Ready())
	assert.Equal(t, LineBufferSize-1, l.Len())
	assert.Equal(t, strings.Repeat("A", LineBufferSize-1), l.String())
}

func TestLineBuffer_PushReportsCompletion(t *testing.T) {
	t.Parallel()

	var l LineBuffer
	assert.False(t, l.Push('x'))
	assert.True(t, l.Push('\n'))
	assert.False(t, l.Push('\n'))

	l.Reset()
	assert.False(t, l.Ready())
	assert.Zero(t, l.Len())
	pushAll(&l, "ok\n")
	assert.Equal(t, "OK", l.String())
}

func TestLineBuffer_Advance(t *testing.T) {
	t.Parallel()

	var l LineBuffer
	l.Load("i2c   50  r 4")

	assert.Equal(t, "I2C", string(l.Token()))
	require.True(t, l.Advance())
	assert.Equal(t, "50", string(l.Token()))
	require.True(t, l.Advance())
	assert.Equal(t, "R", string(l.Token()))
	require.True(t, l.Advance())
	assert.Equal(t, "4", string(l.Token()))
	assert.False(t, l.Advance())
	assert.Empty(t, l.Token())
	assert.False(t, l.Advance(), "advance at the terminator stays there")

	l.Rewind()
	assert.Equal(t, "I2C", string(l.Token()))
}

func TestLineBuffer_AdvanceTrailingSpaces(t *testing.T) {
	t.Parallel()

	var l LineBuffer
	l.Load("spi   ")
	assert.False(t, l.Advance())
	assert.Equal(t, l.Len(), l.cursor)
}

func TestLineBuffer_Contains(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		ref  string
		want bool
	}{
		{line: "SPI", ref: "SPI", want: true},
		{line: "XSPI", ref: "SPI", want: true},
		{line: "SPIX", ref: "SPI", want: true},
		{line: "SSPI", ref: "SPI", want: true},
		{line: "SP", ref: "SPI", want: false},
		{line: "S PI", ref: "SPI", want: false},
		{line: "I2", ref: "I2C", want: false},
		{line: "AAB", ref: "AAB", want: true},
		// The resync rule restarts at one matched byte and misses this one.
		{line: "AAAB", ref: "AAB", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.line+"/"+tt.ref, func(t *testing.T) {
			t.Parallel()

			var l LineBuffer
			l.Load(tt.line)
			assert.Equal(t, tt.want, l.Contains(tt.ref))
		})
	}
}

func TestLineBuffer_MatchExact(t *testing.T) {
	t.Parallel()

	var l LineBuffer
	l.Load("wr w r")
	assert.True(t, l.MatchExact("WR"))
	assert.False(t, l.MatchExact("W"))
	require.True(t, l.Advance())
	assert.True(t, l.MatchExact("W"))
	assert.False(t, l.MatchExact("WR"))
	require.True(t, l.Advance())
	assert.True(t, l.MatchExact("R"))
}

func TestLineBuffer_HexByte(t *testing.T) {
	t.Parallel()

	tests := []struct {
		token  string
		want   byte
		wantOK bool
	}{
		{token: "0", want: 0x00, wantOK: true},
		{token: "f", want: 0x0F, wantOK: true},
		{token: "ff", want: 0xFF, wantOK: true},
		{token: "1a", want: 0x1A, wantOK: true},
		{token: "abc", want: 0xAB, wantOK: true},
		{token: "g", wantOK: false},
		{token: "zz", wantOK: false},
		{token: "1g", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			t.Parallel()

			var l LineBuffer
			l.Load(tt.token)
			got, ok := l.HexByte()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLineBuffer_HexArray(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want []byte
	}{
		{name: "single", line: "ff", want: []byte{0xFF}},
		{name: "several", line: "1 ff 0a", want: []byte{0x01, 0xFF, 0x0A}},
		{name: "extra spaces", line: "1   2  ", want: []byte{0x01, 0x02}},
		{name: "bad token", line: "1 zz 3", want: nil},
		{name: "empty", line: "", want: nil},
		{name: "exactly max", line: strings.TrimSpace(strings.Repeat("7 ", MaxSerialParameters)), want: bytesOf(0x07, MaxSerialParameters)},
		{name: "over max", line: strings.TrimSpace(strings.Repeat("7 ", MaxSerialParameters+1)), want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var l LineBuffer
			l.Load(tt.line)
			var dst [MaxSerialParameters]byte
			n := l.HexArray(dst[:])
			assert.Equal(t, len(tt.want), n)
			if len(tt.want) > 0 {
				assert.Equal(t, tt.want, dst[:n])
			}
		})
	}
}

func bytesOf(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}
