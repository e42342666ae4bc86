package trigger

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/colebrumley/a0logd/internal/arena"
)

// Pubsub fires once for each packet observed on its topic (spec.md
// §4.3: "Each packet arriving on its topic produces one firing with
// that packet's monotonic timestamp"). The topic's arena file may not
// exist yet when the trigger starts (its publisher can start after the
// daemon), so attachment retries with backoff, mirroring discovery's
// retry-on-missing-root posture (spec.md §4.1 failure clause).
type Pubsub struct {
	root   string
	topic  string
	reader *arena.Reader
}

// NewPubsub prepares a trigger that will attach to the given topic's
// arena file under root once it appears.
func NewPubsub(root, topic string) *Pubsub {
	return &Pubsub{root: root, topic: topic}
}

func (p *Pubsub) Start(ctx context.Context, out chan<- Fire) error {
	if p.reader == nil {
		b := backoff.NewExponentialBackOff()
		b.MaxInterval = 2 * time.Second
		b.MaxElapsedTime = 0 // retry until ctx cancellation

		reader, err := backoff.RetryWithData(func() (*arena.Reader, error) {
			return arena.OpenReader(arena.TopicPath(p.root, "pubsub", p.topic))
		}, backoff.WithContext(b, ctx))
		if err != nil {
			return err
		}
		p.reader = reader
	}

	for {
		pkt, err := p.reader.Next(ctx)
		if err != nil {
			return err
		}
		select {
		case out <- Fire{MonoNS: pkt.MonoNS, WallTime: pkt.WallTime}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Pubsub) Stop() error {
	if p.reader == nil {
		return nil
	}
	return p.reader.Close()
}
