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

package testing

import (
	"io"
	"math/rand/v2"
	"time"

	busbridge "github.com/ZaparooProject/go-busbridge"
)

// JitterConfig configures JitteryTransport and JitteryConnection.
type JitterConfig struct {
	// MaxLatencyMs delays each read by up to this many milliseconds.
	MaxLatencyMs int
	// FragmentMinBytes is the smallest read fragment.
	FragmentMinBytes int
	// RefuseRate is the probability that a transmit is refused.
	RefuseRate float64
	// BusyRate is the probability that TxBusy reports busy.
	BusyRate float64
	Seed     uint64
	// FragmentReads splits reads into random-sized pieces.
	FragmentReads bool
	// USBBoundaryStress splits reads at 64-byte packet boundaries.
	USBBoundaryStress bool
}

// DefaultJitterConfig returns a configuration that refuses and fragments
// often enough to exercise partial transfers.
func DefaultJitterConfig() JitterConfig {
	return JitterConfig{
		FragmentReads:    true,
		FragmentMinBytes: 1,
		RefuseRate:       0.3,
		BusyRate:         0.2,
	}
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0xDEADBEEF)) //nolint:gosec // test code, not crypto
}

// JitteryTransport wraps a busbridge.Transport and randomly reports a busy
// or refusing transmitter, like a USB endpoint whose host is slow to poll.
type JitteryTransport struct {
	busbridge.Transport
	rng     *rand.Rand
	config  JitterConfig
	refused int
	busy    int
}

// NewJitteryTransport wraps backend.
func NewJitteryTransport(backend busbridge.Transport, config JitterConfig) *JitteryTransport {
	return &JitteryTransport{
		Transport: backend,
		config:    config,
		rng:       newRand(config.Seed),
	}
}

// TransmitByte refuses at random and otherwise passes c to the backend.
func (j *JitteryTransport) TransmitByte(c byte) bool {
	if j.rng.Float64() < j.config.RefuseRate {
		j.refused++
		return false
	}
	return j.Transport.TransmitByte(c)
}

// TxBusy reports busy at random and otherwise asks the backend.
func (j *JitteryTransport) TxBusy() bool {
	if j.rng.Float64() < j.config.BusyRate {
		j.busy++
		return true
	}
	return j.Transport.TxBusy()
}

// Stats returns how many transmits were refused and busy reports injected.
func (j *JitteryTransport) Stats() (refused, busy int) {
	return j.refused, j.busy
}

// JitteryConnection wraps an io.ReadWriter and delivers reads with latency
// and fragmentation, the way a USB serial adapter hands over bytes. Data
// read from the backend is buffered so fragmentation never loses bytes.
type JitteryConnection struct {
	backend   io.ReadWriter
	rng       *rand.Rand
	readBuf   []byte
	config    JitterConfig
	delivered int
}

// NewJitteryConnection wraps backend.
func NewJitteryConnection(backend io.ReadWriter, config JitterConfig) *JitteryConnection {
	if config.FragmentMinBytes < 1 {
		config.FragmentMinBytes = 1
	}
	return &JitteryConnection{
		backend: backend,
		config:  config,
		rng:     newRand(config.Seed),
		readBuf: make([]byte, 0, 1024),
	}
}

// Write passes through unchanged.
func (j *JitteryConnection) Write(data []byte) (int, error) {
	return j.backend.Write(data) //nolint:wrapcheck // pass-through wrapper
}

// Read returns a random-sized prefix of the buffered backend data.
func (j *JitteryConnection) Read(buf []byte) (int, error) {
	if j.config.MaxLatencyMs > 0 {
		if d := time.Duration(j.rng.IntN(j.config.MaxLatencyMs+1)) * time.Millisecond; d > 0 {
			time.Sleep(d)
		}
	}

	if len(j.readBuf) == 0 {
		tmp := make([]byte, 1024)
		n, err := j.backend.Read(tmp)
		if n == 0 {
			return 0, err //nolint:wrapcheck // pass-through wrapper
		}
		j.readBuf = append(j.readBuf, tmp[:n]...)
	}

	n := min(len(j.readBuf), len(buf))
	if j.config.USBBoundaryStress && n > 0 {
		untilBoundary := 64 - j.delivered%64
		n = min(n, untilBoundary)
	}
	if j.config.FragmentReads && n > j.config.FragmentMinBytes {
		n = j.config.FragmentMinBytes + j.rng.IntN(n-j.config.FragmentMinBytes+1)
	}

	copy(buf, j.readBuf[:n])
	j.readBuf = j.readBuf[n:]
	j.delivered += n
	return n, nil
}

// Buffered returns how many backend bytes are held but not yet delivered.
func (j *JitteryConnection) Buffered() int {
	return len(j.readBuf)
}
