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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const debugTimeFormat = "15:04:05.000"

// debugEnabled controls whether debug output reaches the console.
var debugEnabled = false

// Loggers are built when their writer is set, never per message.
var (
	consoleLogger = newDebugLogger(os.Stderr)
	sessionLogger *zerolog.Logger
)

func init() {
	if os.Getenv("BUSBRIDGE_DEBUG") != "" || os.Getenv("DEBUG") != "" {
		debugEnabled = true
	}
}

// newDebugLogger renders events as "15:04:05.000 DEBUG: message".
func newDebugLogger(w io.Writer) *zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: debugTimeFormat,
		FormatLevel: func(i any) string {
			return strings.ToUpper(fmt.Sprint(i)) + ":"
		},
	}
	logger := zerolog.New(out).With().Timestamp().Logger()
	return &logger
}

func setConsoleOutput(w io.Writer) {
	consoleLogger = newDebugLogger(w)
}

// setSessionOutput points the session logger at w; nil turns it off.
func setSessionOutput(w io.Writer) {
	sessionLogWriter = w
	if w == nil {
		sessionLogger = nil
		return
	}
	sessionLogger = newDebugLogger(w)
}

func debugMessage(message string) {
	if sessionLogger != nil {
		sessionLogger.Debug().Msg(message)
	}
	if debugEnabled {
		consoleLogger.Debug().Msg(message)
	}
}

// Debugf logs a formatted debug message.
// The session log (if initialized) always receives it; the console only
// when debug mode is enabled.
func Debugf(format string, args ...any) {
	if sessionLogger == nil && !debugEnabled {
		return
	}
	debugMessage(fmt.Sprintf(format, args...))
}

// SetDebugEnabled turns console debug output on or off.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// DebugEnabled reports whether console debug output is on.
func DebugEnabled() bool {
	return debugEnabled
}
