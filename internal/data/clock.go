package data

import (
	"sync"
	"time"
)

// Clock stamps ledger rows. Timestamps are stored in UTC.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// StepClock is a Clock that only moves when told to. It is safe for use by a
// sweeper and a recorder at once.
type StepClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStepClock starts a StepClock at t.
func NewStepClock(t time.Time) *StepClock {
	return &StepClock{now: t.UTC()}
}

func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new time.
func (c *StepClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
