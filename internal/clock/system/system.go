// Package system provides the wall clock used to time runs.
package system

import "time"

// Clock implements harvest.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current local time. The monotonic reading is kept so
// elapsed durations are immune to wall-clock steps.
func (Clock) Now() time.Time {
	return time.Now()
}
