package trigger

import (
	"context"
	"testing"
	"time"

	"github.com/colebrumley/a0logd/internal/clockutil"
	"github.com/colebrumley/a0logd/internal/timer"
)

func TestRate_Fires(t *testing.T) {
	wheel := timer.New()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go wheel.Run(ctx)

	r := NewRate(20, clockutil.NewReal(), wheel) // 20hz -> 50ms period
	out := make(chan Fire, 10)
	go r.Start(ctx, out)

	select {
	case <-out:
	case <-time.After(1 * time.Second):
		t.Fatal("rate trigger did not fire within 1s")
	}
}

func TestCron_ParsesSixFields(t *testing.T) {
	wheel := timer.New()
	c, err := NewCron("*/2 * * * * *", clockutil.NewReal(), wheel)
	if err != nil {
		t.Fatalf("NewCron() error = %v", err)
	}
	if c == nil {
		t.Fatal("expected non-nil cron trigger")
	}
}

func TestCron_RejectsInvalidPattern(t *testing.T) {
	wheel := timer.New()
	if _, err := NewCron("not a pattern", clockutil.NewReal(), wheel); err == nil {
		t.Fatal("expected error for invalid cron pattern")
	}
}
