package trigger

import (
	"fmt"

	"github.com/colebrumley/a0logd/internal/clockutil"
	"github.com/colebrumley/a0logd/internal/config"
	"github.com/colebrumley/a0logd/internal/timer"
)

// New creates a trigger source from its configuration (spec.md §4.3).
// root is A0_ROOT, used to locate a pubsub trigger's topic arena.
func New(cfg config.Trigger, root string, clock clockutil.Clock, wheel *timer.Wheel) (Source, error) {
	switch cfg.Type {
	case config.TriggerPubsub:
		return NewPubsub(root, cfg.PubsubArgs.Topic), nil
	case config.TriggerRate:
		return NewRate(cfg.RateArgs.HZ, clock, wheel), nil
	case config.TriggerCron:
		return NewCron(cfg.CronArgs.Pattern, clock, wheel)
	default:
		return nil, fmt.Errorf("unknown trigger type: %s", cfg.Type)
	}
}
