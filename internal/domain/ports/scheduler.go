package ports

import "time"

// Timer is a handle to a scheduled callback
type Timer interface {
	// Stop cancels the callback; it returns false if the callback already ran or was stopped
	Stop() bool
}

// Scheduler runs deferred callbacks and tells the time.
// Production code uses the wall clock; tests drive simulated time.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}
