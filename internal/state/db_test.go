package state

import (
	"context"
	"path/filepath"
	"testing"
)

func TestDB_RecordAndListSources(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.RecordSource(ctx, "pubsub", "foo.pubsub.a0", "/root/foo.pubsub.a0", "*"); err != nil {
		t.Fatalf("RecordSource() error = %v", err)
	}
	if err := db.RecordSource(ctx, "pubsub", "foo.pubsub.a0", "/root/foo.pubsub.a0", "*"); err != nil {
		t.Fatalf("RecordSource() (duplicate) error = %v", err)
	}

	sources, err := db.ListSources(ctx)
	if err != nil {
		t.Fatalf("ListSources() error = %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("got %d sources, want 1 (duplicate insert should be ignored)", len(sources))
	}
	if sources[0].RelPath != "foo.pubsub.a0" || sources[0].RuleTopic != "*" {
		t.Errorf("unexpected source record: %+v", sources[0])
	}
}

func TestDB_RecordAndListFiles(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.RecordAnnouncement(ctx, "opened", "foo.pubsub.a0", "/root/foo.pubsub.a0",
		"2026/01/01/foo.pubsub.a0@t1.a0", "/save/2026/01/01/foo.pubsub.a0@t1.a0"); err != nil {
		t.Fatalf("RecordAnnouncement() error = %v", err)
	}
	if err := db.RecordAnnouncement(ctx, "closed", "foo.pubsub.a0", "/root/foo.pubsub.a0",
		"2026/01/01/foo.pubsub.a0@t1.a0", "/save/2026/01/01/foo.pubsub.a0@t1.a0"); err != nil {
		t.Fatalf("RecordAnnouncement() error = %v", err)
	}
	if err := db.RecordAnnouncement(ctx, "opened", "bar.pubsub.a0", "/root/bar.pubsub.a0",
		"2026/01/01/bar.pubsub.a0@t2.a0", "/save/2026/01/01/bar.pubsub.a0@t2.a0"); err != nil {
		t.Fatalf("RecordAnnouncement() error = %v", err)
	}

	files, err := db.ListFiles(ctx, "foo.pubsub.a0")
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files for foo, want 2", len(files))
	}
	if files[0].Action != "opened" || files[1].Action != "closed" {
		t.Errorf("unexpected file actions: %+v", files)
	}
}
