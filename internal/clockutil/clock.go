// Package clockutil provides the monotonic/wall clock abstraction shared
// by triggers, policies, and the rotating writer. Grounded on the
// rotatelogs-style functional-option Clock seam: production code takes
// the real clock, tests supply a fake one driven by hand.
package clockutil

import "time"

// Clock reports wall time and a monotonically non-decreasing nanosecond
// counter. The monotonic counter is relative to an arbitrary reference
// point (process start for the real clock); only deltas and ordering
// within a single daemon run are meaningful, matching §5's "monotonic
// min-heap of next-fire times" usage.
type Clock interface {
	Now() time.Time
	MonoNS() int64
}

// Real is the production clock, backed by time.Now()'s monotonic reading.
type Real struct {
	epoch time.Time
}

// NewReal returns a Clock whose monotonic counter starts at zero now.
func NewReal() *Real {
	return &Real{epoch: time.Now()}
}

func (c *Real) Now() time.Time {
	return time.Now()
}

func (c *Real) MonoNS() int64 {
	return time.Since(c.epoch).Nanoseconds()
}

// Fake is a manually-advanced clock for deterministic tests.
type Fake struct {
	now    time.Time
	monoNS int64
}

// NewFake returns a Fake clock starting at the given wall time with a
// zero monotonic counter.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (c *Fake) Now() time.Time {
	return c.now
}

func (c *Fake) MonoNS() int64 {
	return c.monoNS
}

// Advance moves both the wall clock and the monotonic counter forward by d.
func (c *Fake) Advance(d time.Duration) {
	c.now = c.now.Add(d)
	c.monoNS += d.Nanoseconds()
}
