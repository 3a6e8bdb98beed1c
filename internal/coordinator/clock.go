package coordinator

import "sync/atomic"

// Clock hands out the submission sequence numbers that define queue order.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// The coordinator calls Next under its submit lock so that sequence order
// and queue order always agree.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last sequence number handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
