package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/colebrumley/a0logd/internal/clockutil"
	"github.com/colebrumley/a0logd/internal/timer"
	"github.com/robfig/cron/v3"
)

// Cron fires on each wall-clock matching tick of a 6-field
// "second minute hour dom month dow" expression (spec.md §4.3), scheduled
// through the daemon's shared timer wheel rather than a per-trigger
// cron.Cron goroutine, matching spec.md §5's "one timer worker for all
// rate and cron triggers."
type Cron struct {
	schedule cron.Schedule
	clock    clockutil.Clock
	wheel    *timer.Wheel
}

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// NewCron parses a 6-field cron pattern (seconds-precision, as the
// teacher's Scheduled trigger already configures via cron.WithSeconds).
func NewCron(pattern string, clock clockutil.Clock, wheel *timer.Wheel) (*Cron, error) {
	schedule, err := cronParser.Parse(pattern)
	if err != nil {
		return nil, fmt.Errorf("cron trigger: invalid pattern %q: %w", pattern, err)
	}
	return &Cron{schedule: schedule, clock: clock, wheel: wheel}, nil
}

func (c *Cron) Start(ctx context.Context, out chan<- Fire) error {
	done := ctx.Done()
	first := c.schedule.Next(time.Now())
	c.wheel.Register(first, func(prev time.Time) time.Time {
		select {
		case <-done:
			return time.Time{}
		default:
			return c.schedule.Next(prev)
		}
	}, func(f timer.Fire) {
		select {
		case out <- Fire{MonoNS: c.clock.MonoNS(), WallTime: c.clock.Now()}:
		case <-done:
		}
	})

	<-ctx.Done()
	return ctx.Err()
}

func (c *Cron) Stop() error {
	return nil
}
