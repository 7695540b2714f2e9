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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		needle  string
		want    bool
	}{
		{name: "at start", content: "OK\r\n", needle: "OK", want: true},
		{name: "in middle", content: "> 01 FF\r\n", needle: "01 FF", want: true},
		{name: "at end", content: "abcdef", needle: "def", want: true},
		{name: "absent", content: "abcdef", needle: "xyz", want: false},
		{name: "longer than content", content: "ab", needle: "abc", want: false},
		{name: "resync on first byte", content: "apaapple", needle: "apple", want: true},
		{name: "empty buffer", content: "", needle: "a", want: false},
		{name: "empty needle", content: "a", needle: "", want: true},
		// Repeated-prefix needles are outside the matcher's guarantee.
		{name: "repeated prefix miss", content: "aaab", needle: "aab", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := loaded(32, tt.content)
			assert.Equal(t, tt.want, b.Find(tt.needle))
			assert.Equal(t, len(tt.content), b.Len())
		})
	}
}

func TestAdvanceTo(t *testing.T) {
	t.Parallel()

	b := loaded(32, "junk> OK\r\nrest")
	assert.True(t, b.AdvanceTo("OK"))
	assert.Equal(t, "\r\nrest", drain(b.Snapshot()))

	assert.False(t, b.AdvanceTo("missing"))
	assert.True(t, b.Empty())
}

func TestAdvanceToAcrossWrap(t *testing.T) {
	t.Parallel()

	b := NewBuffer(8)
	b.LoadString("xxxxx")
	b.Advance(5)
	b.LoadString("abTOKcd")
	assert.True(t, b.Find("TOK"))
	assert.True(t, b.AdvanceTo("TOK"))
	assert.Equal(t, "cd", drain(b))
}

func TestCount(t *testing.T) {
	t.Parallel()

	b := loaded(32, "a\nb\nc\n")
	assert.Equal(t, 3, b.Count('\n'))
	assert.Equal(t, 0, b.Count('z'))
	assert.Equal(t, 0, NewBuffer(4).Count('a'))
}
