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

import "context"

// ByteSource is the receive half of the host-facing serial channel.
type ByteSource interface {
	// ReceiveByte returns the next received byte without blocking.
	// ok is false when nothing is waiting.
	ReceiveByte() (b byte, ok bool)
}

// ByteSink is the transmit half of the host-facing serial channel.
type ByteSink interface {
	// TransmitByte offers one byte for transmission without blocking and
	// reports whether the transport accepted it.
	TransmitByte(b byte) bool

	// TxBusy reports whether the transport currently refuses new bytes.
	TxBusy() bool
}

// Transport is the byte-stream channel to the host (the virtual serial port).
type Transport interface {
	ByteSource
	ByteSink
}

// Link is a Transport with a connection lifecycle, polled by Bridge.
type Link interface {
	Transport

	// Present reports whether the underlying device exists (cable attached,
	// port node present). It must be cheap enough to call every tick.
	Present() bool

	// Start opens the device. It may retry internally.
	Start(ctx context.Context) error

	// Service moves pending bytes between the transport's buffers and the
	// device. It is called once per tick after the parser and the output
	// queue had their turn.
	Service() error

	// Stop closes the device. Stopping a stopped link is a no-op.
	Stop() error
}

// TransportType represents the type of link
type TransportType string

const (
	// TransportUART represents a serial port link.
	TransportUART TransportType = "uart"
)
