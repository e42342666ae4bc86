package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/colebrumley/a0logd/internal/arena"
	"github.com/colebrumley/a0logd/internal/clockutil"
	"github.com/colebrumley/a0logd/internal/security"
	"github.com/colebrumley/a0logd/internal/trigger"
)

// runControlWorker attaches to a control topic's arena file and applies
// each non-empty payload to gate (spec.md §4.3). One worker per
// distinct control topic referenced by this pipeline. Payloads are
// sanitized before they are interpreted or logged: a control topic is
// meant to carry only "on"/"off", but it is still an arena channel a
// misconfigured publisher can put arbitrary bytes on.
func runControlWorker(ctx context.Context, root, topic string, clock clockutil.Clock, gate *trigger.Gate, logger *slog.Logger) {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0

	reader, err := backoff.RetryWithData(func() (*arena.Reader, error) {
		return arena.OpenReader(arena.TopicPath(root, "pubsub", topic))
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return
	}
	defer reader.Close()

	for {
		pkt, err := reader.Next(ctx)
		if err != nil {
			return
		}
		value := security.SanitizeValue(string(pkt.Payload))
		if on, ok := trigger.ParseControlValue(value); ok {
			gate.Apply(pkt.MonoNS, on)
		} else if value != "" && logger != nil {
			logger.Warn("control topic payload is not on/off, ignoring", "topic", topic, "value", value)
		}
	}
}
