package daemon

import (
	"context"

	"github.com/colebrumley/a0logd/internal/state"
	"github.com/colebrumley/a0logd/internal/writer"
)

// ledgerAnnouncer fans a single rotating-writer announcement out to the
// live pub/sub announce channel and the internal/state history ledger,
// so a0logctl can observe either a streamed event or a queryable past
// record of the same opened/closed transition.
type ledgerAnnouncer struct {
	pub *writer.PubsubAnnouncer
	db  *state.DB
}

func (a *ledgerAnnouncer) Announce(ann writer.Announcement) error {
	if a.db != nil {
		_ = a.db.RecordAnnouncement(context.Background(), ann.Action,
			ann.ReadRelpath, ann.ReadAbspath, ann.WriteRelpath, ann.WriteAbspath)
	}
	return a.pub.Announce(ann)
}
