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

//go:build linux

package i2c

import (
	"errors"

	busbridge "github.com/ZaparooProject/go-busbridge"
	"golang.org/x/sys/unix"
)

// errnoStatus maps the i2c-dev ioctl errno. ENXIO means nobody answered the
// address; EREMOTEIO and EIO mean a byte was rejected.
func errnoStatus(err error) (busbridge.I2CStatus, bool) {
	switch {
	case errors.Is(err, unix.ENXIO):
		return busbridge.I2CStatusAddressNACK, true
	case errors.Is(err, unix.EREMOTEIO), errors.Is(err, unix.EIO):
		return busbridge.I2CStatusDataNACK, true
	default:
		return busbridge.I2CStatusOK, false
	}
}
