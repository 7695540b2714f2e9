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
	"runtime"
	"syscall"
)

// Error categories for command outcomes and link handling
var (
	// Command outcomes - each maps to exactly one response line
	ErrParse       = errors.New("command parsing error")
	ErrAddressNACK = errors.New("I2C address not acknowledged")
	ErrDataNACK    = errors.New("I2C data not acknowledged")
	ErrBusFault    = errors.New("bus driver fault")

	// Configuration errors - not retryable
	ErrBusUnavailable    = errors.New("bus not configured")
	ErrUnknownChipSelect = errors.New("unknown chip select")

	// Link errors - potentially retryable
	ErrTransportWrite    = errors.New("transport write failed")
	ErrTransportRead     = errors.New("transport read failed")
	ErrTransportClosed   = errors.New("transport is closed")
	ErrTransportNotReady = errors.New("transport not ready")
	ErrPortBusy          = errors.New("port busy")
	ErrPortNotFound      = errors.New("port not found")
)

// ErrorType represents the category of error for retry logic
type ErrorType int

const (
	// ErrorTypeTransient indicates a potentially retryable error
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent indicates a non-retryable error
	ErrorTypePermanent
)

// TransportError wraps link-level errors with additional context
type TransportError struct {
	Err       error     // Underlying error
	Op        string    // Operation that failed
	Port      string    // Port or device identifier
	Type      ErrorType // Error category
	Retryable bool      // Whether the error is retryable
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError describes where a command line stopped matching the grammar.
type ParseError struct {
	Reason string
	Token  string
	Pos    int
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("parse error at %d: %s", e.Pos, e.Reason)
	}
	return fmt.Sprintf("parse error at %d (%q): %s", e.Pos, e.Token, e.Reason)
}

func (*ParseError) Unwrap() error {
	return ErrParse
}

// OutcomeOf maps a command error to the single outcome reported to the host.
// Anything that is not a parse error or an I2C NACK is a bus fault; the
// parser wraps driver failures in ErrBusFault.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrParse):
		return OutcomeParseError
	case errors.Is(err, ErrAddressNACK):
		return OutcomeAddressNACK
	case errors.Is(err, ErrDataNACK):
		return OutcomeDataNACK
	default:
		return OutcomeBusFault
	}
}

// IsRetryable returns true if the error is potentially retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	switch {
	case errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrTransportNotReady),
		errors.Is(err, ErrPortBusy):
		return true
	default:
		return false
	}
}

// IsFatal returns true if the error indicates the port is gone and the link
// has to be restarted. This is distinct from IsRetryable which indicates
// whether a single operation can be retried.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type == ErrorTypePermanent
	}

	if isDeviceGoneError(err) {
		return true
	}

	switch {
	case errors.Is(err, ErrTransportClosed),
		errors.Is(err, ErrPortNotFound),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe):
		return true
	default:
		return false
	}
}

// Windows error codes for device disconnection detection.
// These are defined here because they're not available on non-Windows platforms.
const (
	errAccessDenied syscall.Errno = 5   // ERROR_ACCESS_DENIED
	errGenFailure   syscall.Errno = 31  // ERROR_GEN_FAILURE
	errNoSuchDevice syscall.Errno = 433 // ERROR_NO_SUCH_DEVICE
)

// isDeviceGoneError checks for OS-level errors indicating device disconnection.
// These errors occur when the USB cable is pulled during I/O.
func isDeviceGoneError(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}

	//nolint:exhaustive // Only checking specific device-gone errors, not all errno values
	switch errno {
	case syscall.EIO, syscall.ENXIO, syscall.ENODEV:
		return true
	}

	if runtime.GOOS == "windows" {
		//nolint:exhaustive // Only checking specific device-gone errors, not all errno values
		switch errno {
		case errAccessDenied, errGenFailure, errNoSuchDevice:
			return true
		}
	}

	return false
}

// NewTransportNotReadyError creates a retryable not-ready error for a port.
func NewTransportNotReadyError(op, port string) *TransportError {
	return &TransportError{
		Err:       ErrTransportNotReady,
		Op:        op,
		Port:      port,
		Type:      ErrorTypeTransient,
		Retryable: true,
	}
}

// NewPortGoneError creates a permanent error for a port that disappeared.
func NewPortGoneError(op, port string, err error) *TransportError {
	return &TransportError{
		Err:  fmt.Errorf("%w: %w", ErrPortNotFound, err),
		Op:   op,
		Port: port,
		Type: ErrorTypePermanent,
	}
}
