package engine

import "sync/atomic"

// Clock is the logical clock that numbers recorded steps.
//
// Sequence numbers are strictly increasing within a trace and never derived
// from wall-clock time, so a replayed trace numbers its steps identically.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next() is 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out, or 0.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
