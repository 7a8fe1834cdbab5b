package util

import "time"

// Clock supplies order submission timestamps. Injectable so tests can make
// the earlier-arrival price rule deterministic.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FakeClock hands out strictly increasing timestamps, advancing by Step on
// every Now call.
type FakeClock struct {
	Current time.Time
	Step    time.Duration
}

func NewFakeClock() *FakeClock {
	return &FakeClock{
		Current: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Step:    time.Millisecond,
	}
}

func (c *FakeClock) Now() time.Time {
	now := c.Current
	c.Current = c.Current.Add(c.Step)
	return now
}
