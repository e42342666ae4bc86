package arena

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/colebrumley/a0logd/internal/clockutil"
)

// Publisher appends packets to one topic's arena file under a root
// directory. It is the producer-side counterpart to Reader; test
// harnesses and, in production, other daemons on the same machine use
// it to write to a channel the discovery watcher will later find.
type Publisher struct {
	writer *Writer
	clock  clockutil.Clock
}

// TopicPath builds the on-disk arena path for (root, protocol, topic),
// e.g. (root, "pubsub", "foo") -> "<root>/foo.pubsub.a0".
func TopicPath(root, protocol, topic string) string {
	return filepath.Join(root, topic+"."+protocol+".a0")
}

// RelPath returns path relative to root, the form used in announcements
// and output file names (spec.md §6).
func RelPath(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// TopicFromRelPath extracts a short topic key from a relative arena path:
// the final path element up to its first '.' (e.g.
// "alephzero/foo.pubsub.a0" -> "foo"), matching the harness convention
// recorded in original_source/test/test_logger.py. Output file names do
// not use this key; they carry the full source relpath.
func TopicFromRelPath(relpath string) string {
	base := filepath.Base(relpath)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}

// NewPublisher opens (creating if absent) the arena file for
// (root, protocol, topic) and returns a Publisher appending to it.
func NewPublisher(root, protocol, topic string, clock clockutil.Clock) (*Publisher, error) {
	w, err := OpenWriterAppend(TopicPath(root, protocol, topic))
	if err != nil {
		return nil, fmt.Errorf("opening publisher: %w", err)
	}
	return &Publisher{writer: w, clock: clock}, nil
}

// Pub appends a new packet carrying payload.
func (p *Publisher) Pub(payload []byte) error {
	pkt := New(p.clock.MonoNS(), p.clock.Now(), payload)
	_, err := p.writer.Append(pkt)
	return err
}

// Close closes the underlying arena file.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
