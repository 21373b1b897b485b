// Package clock provides the timestamp source stamped into encoded headers.
//
// Encoders never read the wall clock directly; they take a Clock so tests can
// pin the header timestamp without touching process-wide state.
package clock

import "time"

// Clock returns the header timestamp in Unix seconds.
type Clock interface {
	Now() int64
}

// System reads the wall clock.
type System struct{}

// Now returns the current Unix time in seconds.
func (System) Now() int64 {
	return time.Now().Unix()
}

// Fixed always returns the same timestamp.
type Fixed int64

// Now returns the fixed timestamp.
func (f Fixed) Now() int64 {
	return int64(f)
}

// OrSystem returns c, or System when c is nil.
func OrSystem(c Clock) Clock {
	if c == nil {
		return System{}
	}
	return c
}
