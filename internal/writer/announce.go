package writer

// Announcement is published on the "<topic>/announce" channel whenever
// an output file opens or closes (spec.md §4.2/§6).
type Announcement struct {
	Action       string `json:"action"`
	ReadRelpath  string `json:"read_relpath"`
	ReadAbspath  string `json:"read_abspath"`
	WriteRelpath string `json:"write_relpath"`
	WriteAbspath string `json:"write_abspath"`
}

const (
	ActionOpened = "opened"
	ActionClosed = "closed"
)

// Announcer publishes announcements. Implemented by the daemon's
// announce-channel publisher (spec.md §6).
type Announcer interface {
	Announce(a Announcement) error
}
