package testutil

import "sync"

// StepClock is a resettable header clock for tests. Each Now() advances the
// timestamp by Step, starting from Start.
//
// Reset rewinds it to Start, so one fixture can encode the same documents
// repeatedly and expect identical headers.
//
// Thread-safety: all methods are safe for concurrent use.
type StepClock struct {
	mu    sync.Mutex
	start int64
	step  int64
	next  int64
}

// NewStepClock creates a clock whose first Now() returns start.
// A step of 0 keeps the timestamp fixed.
func NewStepClock(start, step int64) *StepClock {
	return &StepClock{start: start, step: step, next: start}
}

// Now returns the current timestamp and advances by the step.
func (c *StepClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next += c.step
	return now
}

// Peek returns the timestamp the next Now() will return.
func (c *StepClock) Peek() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Reset rewinds the clock to its start.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = c.start
}
