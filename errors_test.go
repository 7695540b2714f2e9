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
	"errors"
	"fmt"
	"io"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want Outcome
	}{
		{name: "nil", err: nil, want: OutcomeOK},
		{name: "parse error", err: &ParseError{Reason: "bad"}, want: OutcomeParseError},
		{name: "wrapped parse error", err: fmt.Errorf("line: %w", &ParseError{}), want: OutcomeParseError},
		{name: "address nack", err: fmt.Errorf("i2c 0x50: %w", ErrAddressNACK), want: OutcomeAddressNACK},
		{name: "data nack", err: fmt.Errorf("i2c 0x50: %w", ErrDataNACK), want: OutcomeDataNACK},
		{name: "bus fault", err: fmt.Errorf("spi exchange DAC: %w: %w", ErrBusFault, errors.New("ioctl")), want: OutcomeBusFault},
		{name: "missing bus", err: fmt.Errorf("spi dac: %w", ErrBusUnavailable), want: OutcomeBusFault},
		{name: "unknown chip select", err: ErrUnknownChipSelect, want: OutcomeBusFault},
		{name: "arbitrary", err: errors.New("gpio write failed"), want: OutcomeBusFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, OutcomeOf(tt.err))
		})
	}
}

func TestParseError(t *testing.T) {
	t.Parallel()

	err := &ParseError{Pos: 4, Token: "ZZ", Reason: "invalid I2C address"}
	require.ErrorIs(t, err, ErrParse)
	assert.Equal(t, `parse error at 4 ("ZZ"): invalid I2C address`, err.Error())

	bare := &ParseError{Pos: 3, Reason: "missing SPI target"}
	assert.Equal(t, "parse error at 3: missing SPI target", bare.Error())
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "read", err: fmt.Errorf("service: %w", ErrTransportRead), want: true},
		{name: "port busy", err: fmt.Errorf("open: %w", ErrPortBusy), want: true},
		{name: "not ready", err: NewTransportNotReadyError("write", "/dev/ttyGS0"), want: true},
		{name: "write", err: ErrTransportWrite, want: true},
		{name: "port gone", err: NewPortGoneError("open", "/dev/ttyGS0", syscall.ENODEV), want: false},
		{name: "closed", err: ErrTransportClosed, want: false},
		{name: "parse", err: &ParseError{}, want: false},
		{
			name: "transport error flag wins",
			err:  &TransportError{Op: "read", Err: ErrTransportRead, Retryable: false},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "closed", err: ErrTransportClosed, want: true},
		{name: "port not found", err: ErrPortNotFound, want: true},
		{name: "eof", err: fmt.Errorf("read: %w", io.EOF), want: true},
		{name: "closed pipe", err: io.ErrClosedPipe, want: true},
		{name: "EIO", err: syscall.EIO, want: true},
		{name: "wrapped ENXIO", err: fmt.Errorf("op: %w", fmt.Errorf("write: %w", syscall.ENXIO)), want: true},
		{name: "ENODEV", err: syscall.ENODEV, want: true},
		{name: "EAGAIN", err: syscall.EAGAIN, want: false},
		{name: "EINTR", err: syscall.EINTR, want: false},
		{name: "read", err: ErrTransportRead, want: false},
		{name: "permanent transport error", err: NewPortGoneError("read", "COM3", io.EOF), want: true},
		{name: "transient transport error", err: NewTransportNotReadyError("read", "COM3"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsFatal(tt.err))
		})
	}
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	withPort := NewTransportNotReadyError("write", "/dev/ttyACM0")
	assert.Equal(t, "write /dev/ttyACM0: transport not ready", withPort.Error())
	require.ErrorIs(t, withPort, ErrTransportNotReady)

	noPort := &TransportError{Op: "service", Err: ErrTransportClosed}
	assert.Equal(t, "service: transport is closed", noPort.Error())

	gone := NewPortGoneError("open", "/dev/ttyGS0", syscall.ENOENT)
	require.ErrorIs(t, gone, ErrPortNotFound)
	require.ErrorIs(t, gone, syscall.ENOENT)
	assert.Equal(t, ErrorTypePermanent, gone.Type)
}
