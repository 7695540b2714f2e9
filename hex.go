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

const upperHexDigits = "0123456789ABCDEF"

// hexNibble decodes one uppercase hex digit.
func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// appendHexBytes appends data as space-separated two-digit uppercase hex.
func appendHexBytes(dst, data []byte) []byte {
	for i, b := range data {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = append(dst, upperHexDigits[b>>4], upperHexDigits[b&0x0F])
	}
	return dst
}

// FormatData renders a data-returning response line: "> 01 FF\r\n".
func FormatData(data []byte) string {
	line := make([]byte, 0, len(dataPrefix)+3*len(data)+len(lineEnd))
	line = append(line, dataPrefix...)
	line = appendHexBytes(line, data)
	line = append(line, lineEnd...)
	return string(line)
}
