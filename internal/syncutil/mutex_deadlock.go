//go:build deadlock

// Package syncutil holds the mutex shared by the transports and test
// doubles. Building with -tags=deadlock swaps in go-deadlock's detector.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// Enabled reports whether lock-order and timeout detection is compiled in.
const Enabled = true

// Mutex is a deadlock.Mutex.
type Mutex struct {
	deadlock.Mutex
}

// SetTimeout sets how long a lock may be waited on before the detector
// reports it. Zero disables the timeout check.
func SetTimeout(d time.Duration) {
	deadlock.Opts.DeadlockTimeout = d
}
