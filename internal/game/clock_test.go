package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeTime struct {
	now time.Duration
}

func (f *fakeTime) Now() time.Duration { return f.now }

func TestClockAdvance(t *testing.T) {
	timer := &fakeTime{now: time.Hour}
	clock := newClock(TickRate, timer.Now)
	step := clock.step

	assert.Equal(t, 0, clock.Advance())

	timer.now += step*2 + step/2
	assert.Equal(t, 2, clock.Advance())

	timer.now += step / 2
	assert.Equal(t, 1, clock.Advance())

	assert.Equal(t, 0, clock.Advance())
}

func TestClockCapsCatchUp(t *testing.T) {
	timer := &fakeTime{}
	clock := newClock(TickRate, timer.Now)
	clock.Advance()

	timer.now += time.Second
	assert.Equal(t, MaxCatchUpTicks, clock.Advance())

	timer.now += clock.step / 2
	assert.Equal(t, 0, clock.Advance())
}
