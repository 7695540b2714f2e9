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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimTransport_ReceiveInOrder(t *testing.T) {
	t.Parallel()

	sim := NewSimTransport(0)
	sim.Send("SPI")

	var got []byte
	for {
		c, ok := sim.ReceiveByte()
		if !ok {
			break
		}
		got = append(got, c)
	}
	assert.Equal(t, "SPI", string(got))
	assert.Zero(t, sim.PendingInput())
}

func TestSimTransport_NextLine(t *testing.T) {
	t.Parallel()

	sim := NewSimTransport(0)
	for _, c := range []byte("> OK\r\nI2C NACK") {
		require.True(t, sim.TransmitByte(c))
	}

	line, ok := sim.NextLine()
	require.True(t, ok)
	assert.Equal(t, "> OK\r\n", line)

	_, ok = sim.NextLine()
	assert.False(t, ok, "partial line must not be returned")
	assert.Equal(t, "I2C NACK", sim.Output())

	for _, c := range []byte(" error\r\n") {
		sim.TransmitByte(c)
	}
	line, ok = sim.NextLine()
	require.True(t, ok)
	assert.Equal(t, "I2C NACK error\r\n", line)
	assert.Equal(t, 22, sim.Sent())
}

func TestSimTransport_BusyAndRefuse(t *testing.T) {
	t.Parallel()

	sim := NewSimTransport(0)
	sim.SetBusy(2)
	assert.True(t, sim.TxBusy())
	assert.True(t, sim.TxBusy())
	assert.False(t, sim.TxBusy())

	sim.RefuseNext(1)
	assert.False(t, sim.TransmitByte('x'))
	assert.True(t, sim.TransmitByte('y'))
	assert.Equal(t, "y", sim.Output())
}

func TestSimLink_Lifecycle(t *testing.T) {
	t.Parallel()

	link := NewSimLink()
	assert.True(t, link.Present())

	link.FailStarts(2)
	require.ErrorIs(t, link.Start(context.Background()), ErrSimStart)
	require.ErrorIs(t, link.Start(context.Background()), ErrSimStart)
	require.NoError(t, link.Start(context.Background()))
	assert.True(t, link.Running())

	boom := errors.New("boom")
	link.FailService(boom)
	require.ErrorIs(t, link.Service(), boom)

	require.NoError(t, link.Stop())
	assert.False(t, link.Running())

	starts, stops, services := link.Counts()
	assert.Equal(t, 3, starts)
	assert.Equal(t, 1, stops)
	assert.Equal(t, 1, services)
}

func TestSimLink_StartHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	link := NewSimLink()
	require.ErrorIs(t, link.Start(ctx), context.Canceled)
	assert.False(t, link.Running())
}
