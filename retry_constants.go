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

import "time"

// Link supervision constants control the bridge state machine.
const (
	// LinkStartRetries is the number of failed Start attempts after which the
	// bridge parks the link in the error state until it is unplugged.
	LinkStartRetries = 10
	// DefaultPollInterval is the period of one bridge tick.
	DefaultPollInterval = time.Millisecond
)

// Port open retry constants control how Start opens the serial device.
const (
	// PortOpenRetries is the number of attempts to open the port per Start.
	PortOpenRetries = 3
	// PortOpenInitialBackoff is the delay after the first failed open.
	PortOpenInitialBackoff = 50 * time.Millisecond
	// PortOpenMaxBackoff caps the delay between open attempts.
	PortOpenMaxBackoff = 400 * time.Millisecond
	// PortOpenBackoffMultiplier is the exponential backoff multiplier.
	PortOpenBackoffMultiplier = 2.0
	// PortOpenJitter is the random jitter factor (0.0-1.0).
	PortOpenJitter = 0.1
	// PortOpenRetryTimeout bounds all open attempts of one Start.
	PortOpenRetryTimeout = 2 * time.Second
)

// Serial service constants.
const (
	// DefaultBaudRate is the line rate used when none is configured.
	// A CDC ACM gadget ignores it.
	DefaultBaudRate = 115200
	// DefaultReadTimeout bounds the single read performed per Service call.
	DefaultReadTimeout = 5 * time.Millisecond
	// RxBufferSize is the capacity of the serial link's receive ring.
	RxBufferSize = 512
	// TxQueueSize is the capacity of the serial link's transmit queue.
	TxQueueSize = 256
)
