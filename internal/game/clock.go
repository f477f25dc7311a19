package game

import (
	"time"

	"github.com/loov/hrtime"
)

// MaxCatchUpTicks bounds how many ticks a single Advance may report after a
// long stall, so the game does not fast-forward through a hiccup.
const MaxCatchUpTicks = 5

// Clock converts wall time into fixed simulation ticks. Presentation in
// mailbox mode can run far above the display rate, so the simulation must not
// be stepped once per rendered frame.
type Clock struct {
	now  func() time.Duration
	step time.Duration

	last    time.Duration
	pending time.Duration
	started bool
}

func NewClock(rate int) *Clock {
	return newClock(rate, hrtime.Now)
}

func newClock(rate int, now func() time.Duration) *Clock {
	return &Clock{
		now:  now,
		step: time.Second / time.Duration(rate),
	}
}

// Advance returns the number of whole ticks elapsed since the previous call.
// The first call only starts the clock.
func (c *Clock) Advance() int {
	now := c.now()
	if !c.started {
		c.started = true
		c.last = now
		return 0
	}

	c.pending += now - c.last
	c.last = now

	ticks := int(c.pending / c.step)
	c.pending -= time.Duration(ticks) * c.step

	if ticks > MaxCatchUpTicks {
		ticks = MaxCatchUpTicks
		c.pending = 0
	}

	return ticks
}
