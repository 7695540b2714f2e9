//go:build !deadlock

// Package syncutil holds the mutex shared by the transports and test
// doubles. Building with -tags=deadlock swaps in go-deadlock's detector.
package syncutil

import (
	"sync"
	"time"
)

// Enabled reports whether lock-order and timeout detection is compiled in.
const Enabled = false

// Mutex is a sync.Mutex.
//
//nolint:gocritic // embedded to expose Lock/Unlock
type Mutex struct {
	sync.Mutex
}

// SetTimeout does nothing without the deadlock tag.
func SetTimeout(time.Duration) {}
