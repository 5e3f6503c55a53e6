package clock

import (
	"time"

	"github.com/oculusai/console/internal/domain/ports"
)

// System schedules callbacks on the runtime timer wheel
type System struct{}

// Now returns the current wall-clock time
func (System) Now() time.Time {
	return time.Now()
}

// AfterFunc runs f in its own goroutine once d elapses
func (System) AfterFunc(d time.Duration, f func()) ports.Timer {
	return time.AfterFunc(d, f)
}
