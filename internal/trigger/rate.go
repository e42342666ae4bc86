package trigger

import (
	"context"
	"time"

	"github.com/colebrumley/a0logd/internal/clockutil"
	"github.com/colebrumley/a0logd/internal/timer"
)

// Rate fires on a fixed monotonic period 1/hz (spec.md §4.3: "The first
// fire is one period after start; skew is permitted but expected
// firings in an interval of length T satisfy ⌊T·hz⌋ ≤ N ≤ ⌈T·hz⌉+1").
type Rate struct {
	period time.Duration
	clock  clockutil.Clock
	wheel  *timer.Wheel
}

// NewRate builds a rate trigger firing every 1/hz seconds, scheduled on
// the daemon's shared timer wheel (spec.md §5).
func NewRate(hz float64, clock clockutil.Clock, wheel *timer.Wheel) *Rate {
	return &Rate{
		period: time.Duration(float64(time.Second) / hz),
		clock:  clock,
		wheel:  wheel,
	}
}

func (r *Rate) Start(ctx context.Context, out chan<- Fire) error {
	done := ctx.Done()
	first := time.Now().Add(r.period)
	r.wheel.Register(first, func(prev time.Time) time.Time {
		select {
		case <-done:
			return time.Time{}
		default:
			return prev.Add(r.period)
		}
	}, func(f timer.Fire) {
		select {
		case out <- Fire{MonoNS: r.clock.MonoNS(), WallTime: r.clock.Now()}:
		case <-done:
		}
	})

	<-ctx.Done()
	return ctx.Err()
}

func (r *Rate) Stop() error {
	return nil
}
