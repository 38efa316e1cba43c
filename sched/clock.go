package sched

import (
	"context"
	"sync"
	"time"
)

// Clock is the monotonic timer the scheduler sleeps on while idle.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Sleep blocks until the clock reaches deadline or ctx is done. It
	// returns ctx.Err() in the latter case.
	Sleep(ctx context.Context, deadline time.Time) error
}

// SystemClock is a Clock backed by the wall clock.
type SystemClock struct{}

var _ Clock = SystemClock{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep implements Clock.
func (SystemClock) Sleep(ctx context.Context, deadline time.Time) error {
	d := time.Until(deadline)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SimClock is a virtual clock. Sleeping jumps the clock straight to the
// deadline, so a pipeline can be run through minutes of animation in
// microseconds.
type SimClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ Clock = (*SimClock)(nil)

// NewSimClock returns a SimClock starting at start.
func NewSimClock(start time.Time) *SimClock {
	return &SimClock{now: start}
}

// Now implements Clock.
func (c *SimClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep implements Clock.
func (c *SimClock) Sleep(ctx context.Context, deadline time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	if deadline.After(c.now) {
		c.now = deadline
	}
	c.mu.Unlock()

	return nil
}

// Advance moves the clock forward by d.
func (c *SimClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
