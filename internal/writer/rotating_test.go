package writer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/colebrumley/a0logd/internal/arena"
	"github.com/colebrumley/a0logd/internal/clockutil"
)

type recordingAnnouncer struct {
	events []Announcement
}

func (r *recordingAnnouncer) Announce(a Announcement) error {
	r.events = append(r.events, a)
	return nil
}

func TestRotatingWriter_OpensOnFirstAppend(t *testing.T) {
	dir := t.TempDir()
	clock := clockutil.NewFake(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))
	ann := &recordingAnnouncer{}

	w := New(dir, "foo.pubsub.a0", filepath.Join(dir, "foo.pubsub.a0"), 0, 0, clock, ann)
	if err := w.Append(arena.New(clock.MonoNS(), clock.Now(), []byte("hello"))); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if len(ann.events) != 1 || ann.events[0].Action != ActionOpened {
		t.Fatalf("expected one opened announcement, got %+v", ann.events)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "2024/03/15", "foo.pubsub.a0@*.a0"))
	if len(matches) != 1 {
		t.Fatalf("expected one dated output file, got %v", matches)
	}
}

func TestRotatingWriter_RotatesOnSizeCap(t *testing.T) {
	dir := t.TempDir()
	clock := clockutil.NewFake(time.Now())
	ann := &recordingAnnouncer{}

	small := arena.New(clock.MonoNS(), clock.Now(), make([]byte, 16))
	maxSize := uint64(small.EncodedLen()) // first packet fits exactly; second must rotate

	w := New(dir, "foo.pubsub.a0", "/root/foo.pubsub.a0", maxSize, 0, clock, ann)
	if err := w.Append(small); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	clock.Advance(time.Millisecond)
	if err := w.Append(arena.New(clock.MonoNS(), clock.Now(), make([]byte, 16))); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	opened, closed := 0, 0
	for _, e := range ann.events {
		switch e.Action {
		case ActionOpened:
			opened++
		case ActionClosed:
			closed++
		}
	}
	if opened != 2 || closed != 1 {
		t.Fatalf("expected 2 opened + 1 closed for a single rotation, got opened=%d closed=%d", opened, closed)
	}
}

func TestRotatingWriter_RotatesOnDurationCap(t *testing.T) {
	dir := t.TempDir()
	clock := clockutil.NewFake(time.Now())
	ann := &recordingAnnouncer{}

	w := New(dir, "foo.pubsub.a0", "/root/foo.pubsub.a0", 0, 100*time.Millisecond, clock, ann)
	if err := w.Append(arena.New(clock.MonoNS(), clock.Now(), []byte("a"))); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	clock.Advance(200 * time.Millisecond)
	if err := w.Append(arena.New(clock.MonoNS(), clock.Now(), []byte("b"))); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	closed := 0
	for _, e := range ann.events {
		if e.Action == ActionClosed {
			closed++
		}
	}
	if closed != 1 {
		t.Fatalf("expected exactly one rotation from duration cap, got %d closed events", closed)
	}
}

func TestRotatingWriter_CloseEmitsFinalAnnouncement(t *testing.T) {
	dir := t.TempDir()
	clock := clockutil.NewFake(time.Now())
	ann := &recordingAnnouncer{}

	w := New(dir, "foo.pubsub.a0", "/root/foo.pubsub.a0", 0, 0, clock, ann)
	if err := w.Append(arena.New(clock.MonoNS(), clock.Now(), []byte("x"))); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if ann.events[len(ann.events)-1].Action != ActionClosed {
		t.Fatalf("expected final announcement to be closed, got %+v", ann.events[len(ann.events)-1])
	}

	// Closing again must not emit a second announcement.
	before := len(ann.events)
	if err := w.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if len(ann.events) != before {
		t.Fatalf("expected no additional announcement on double Close, got %d -> %d", before, len(ann.events))
	}

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("savepath missing: %v", err)
	}
}
