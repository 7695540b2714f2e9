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

package uart

import (
	"cmp"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes one candidate serial port.
type PortInfo struct {
	Path         string
	VIDPID       string
	SerialNumber string
	Product      string
	IsUSB        bool
	IsGadget     bool
}

func (p PortInfo) String() string {
	var b strings.Builder
	b.WriteString(p.Path)
	switch {
	case p.IsGadget:
		b.WriteString(" (usb gadget)")
	case p.IsUSB:
		fmt.Fprintf(&b, " (usb %s", p.VIDPID)
		if p.Product != "" {
			fmt.Fprintf(&b, " %q", p.Product)
		}
		if p.SerialNumber != "" {
			fmt.Fprintf(&b, " serial %s", p.SerialNumber)
		}
		b.WriteString(")")
	}
	return b.String()
}

// ErrNoPort is returned by SelectPort when no serial port is found.
var ErrNoPort = errors.New("no serial port found")

// Hooks for tests.
var (
	detailedPorts = enumerator.GetDetailedPortsList
	globPorts     = filepath.Glob
)

// gadgetPatterns match the device side of a USB CDC ACM gadget. These
// nodes have no USB parent on the device and are not always enumerated.
var gadgetPatterns = []string{"/dev/ttyGS*"}

// Detect lists serial ports the bridge could serve, gadget ports first,
// then USB ports, then the rest, each group sorted by path.
func Detect() ([]PortInfo, error) {
	details, err := detailedPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	seen := make(map[string]bool)
	var ports []PortInfo
	for _, d := range details {
		if d == nil || seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		info := PortInfo{
			Path:         d.Name,
			IsUSB:        d.IsUSB,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
			IsGadget:     isGadgetPath(d.Name),
		}
		if d.IsUSB {
			info.VIDPID = strings.ToUpper(d.VID + ":" + d.PID)
		}
		ports = append(ports, info)
	}

	for _, pattern := range gadgetPatterns {
		matches, err := globPorts(pattern)
		if err != nil {
			continue
		}
		for _, path := range matches {
			if !seen[path] {
				seen[path] = true
				ports = append(ports, PortInfo{Path: path, IsGadget: true})
			}
		}
	}

	slices.SortFunc(ports, func(a, b PortInfo) int {
		if r := cmp.Compare(rank(a), rank(b)); r != 0 {
			return r
		}
		return cmp.Compare(a.Path, b.Path)
	})
	return ports, nil
}

func isGadgetPath(path string) bool {
	for _, pattern := range gadgetPatterns {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

func rank(p PortInfo) int {
	switch {
	case p.IsGadget:
		return 0
	case p.IsUSB:
		return 1
	default:
		return 2
	}
}

// SelectPort returns the best port from Detect, or ErrNoPort.
func SelectPort() (PortInfo, error) {
	ports, err := Detect()
	if err != nil {
		return PortInfo{}, err
	}
	if len(ports) == 0 {
		return PortInfo{}, ErrNoPort
	}
	return ports[0], nil
}
