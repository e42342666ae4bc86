package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/colebrumley/a0logd/internal/arena"
	"github.com/colebrumley/a0logd/internal/clockutil"
	"github.com/colebrumley/a0logd/internal/config"
	"github.com/colebrumley/a0logd/internal/discovery"
	"github.com/colebrumley/a0logd/internal/timer"
)

func TestPipeline_SaveAllScenario(t *testing.T) {
	root := t.TempDir()
	savepath := t.TempDir()
	clock := clockutil.NewReal()

	pub, err := arena.NewPublisher(root, "pubsub", "foo", clock)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := pub.Pub([]byte("foo_msg")); err != nil {
			t.Fatal(err)
		}
	}
	pub.Close()

	src := discovery.Source{
		Protocol: "pubsub",
		RelPath:  "foo.pubsub.a0",
		AbsPath:  filepath.Join(root, "foo.pubsub.a0"),
		Topic:    "foo",
	}
	rule := config.Rule{
		Protocol: "pubsub",
		Topic:    "*",
		Policies: []config.Policy{{Type: config.PolicySaveAll}},
	}

	wheel := timer.New()
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	go wheel.Run(ctx)

	pl, err := New(src, &rule, Options{
		Root:     root,
		SavePath: savepath,
		Clock:    clock,
		Wheel:    wheel,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	go pl.Run(ctx)
	<-ctx.Done()

	matches, _ := filepath.Glob(filepath.Join(savepath, "*/*/*", "foo.pubsub.a0@*.a0"))
	if len(matches) == 0 {
		t.Fatal("expected an output file for foo")
	}

	r, err := arena.OpenReader(matches[0])
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer r.Close()

	count := 0
	for {
		_, ok, err := r.TryNext()
		if err != nil {
			t.Fatalf("TryNext() error = %v", err)
		}
		if !ok {
			break
		}
		count++
	}
	if count != 5 {
		t.Errorf("got %d saved packets, want 5", count)
	}
}
