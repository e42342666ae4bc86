package writer

import (
	"encoding/json"
	"fmt"

	"github.com/colebrumley/a0logd/internal/arena"
	"github.com/colebrumley/a0logd/internal/clockutil"
)

// PubsubAnnouncer publishes each Announcement as a packet on the
// daemon's announce topic (spec.md §6: "<daemon_topic>/announce"), so
// a0logctl and other subscribers can observe rotation events live in
// addition to the internal/state ledger recording them for history.
type PubsubAnnouncer struct {
	pub *arena.Publisher
}

// NewPubsubAnnouncer opens (creating if absent) the announce topic
// under root.
func NewPubsubAnnouncer(root, daemonTopic string, clock clockutil.Clock) (*PubsubAnnouncer, error) {
	pub, err := arena.NewPublisher(root, "pubsub", daemonTopic+"/announce", clock)
	if err != nil {
		return nil, fmt.Errorf("opening announce topic: %w", err)
	}
	return &PubsubAnnouncer{pub: pub}, nil
}

// Announce publishes a as a JSON-encoded packet.
func (a *PubsubAnnouncer) Announce(ann Announcement) error {
	payload, err := json.Marshal(ann)
	if err != nil {
		return fmt.Errorf("encoding announcement: %w", err)
	}
	return a.pub.Pub(payload)
}

// Close releases the underlying arena publisher.
func (a *PubsubAnnouncer) Close() error {
	return a.pub.Close()
}
