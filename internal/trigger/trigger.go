// Package trigger implements the three trigger sources spec.md §4.3
// names (pubsub, rate, cron) plus the two-level control-topic gating
// that can suppress their firings. The Source interface and sum-type
// factory dispatch keep the teacher's internal/trigger shape
// (Trigger interface, New(ruleName, cfg) factory); only the concrete
// kinds and their semantics change.
package trigger

import (
	"context"
	"time"
)

// Fire is one trigger firing, timestamped on the shared monotonic clock
// (spec.md §4.3/§5).
type Fire struct {
	MonoNS   int64
	WallTime time.Time
}

// Source produces a monotonic stream of Fire events to subscribing
// policies (spec.md §4.3).
type Source interface {
	// Start begins producing fires on the given channel until ctx is done.
	Start(ctx context.Context, out chan<- Fire) error
	// Stop releases any resources (open readers, cron jobs).
	Stop() error
}
