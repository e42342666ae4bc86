package policy

import (
	"testing"
	"time"
)

const second = int64(time.Second)

func TestTime_EmitsImmediatelyWithinSaveUntil(t *testing.T) {
	tp := NewTime(2*time.Second, 500*time.Millisecond)
	tp.OnFire(5 * second) // save_until = 5.5s

	e := tp.OnPacket(pkt(0, 5*second+200_000_000)) // 5.2s, within save_until
	if len(e) != 1 {
		t.Fatalf("expected immediate emission inside save_until window, got %v", describe(e))
	}
}

func TestTime_FlushesBufferOnFire(t *testing.T) {
	tp := NewTime(2*time.Second, 500*time.Millisecond)

	// Buffer packets at 3.0s, 4.0s, 4.9s (all before any firing).
	tp.OnPacket(pkt(0, 3*second))
	tp.OnPacket(pkt(1, 4*second))
	tp.OnPacket(pkt(2, 4*second+900_000_000))

	// Fire at 5.0s: cutoff = 5.0 - 2.0 = 3.0s, so all three qualify.
	emitted := tp.OnFire(5 * second)
	if len(emitted) != 3 {
		t.Fatalf("expected all 3 buffered packets emitted, got %d", len(emitted))
	}
}

func TestTime_CutoffExcludesOlderPackets(t *testing.T) {
	tp := NewTime(2*time.Second, 500*time.Millisecond)

	tp.OnPacket(pkt(0, 1*second)) // too old relative to a 5s firing with 2s window
	tp.OnPacket(pkt(1, 4*second))

	emitted := tp.OnFire(5 * second)
	if len(emitted) != 1 || emitted[0].Payload[0] != 1 {
		t.Fatalf("expected only the packet within the 2s window, got %v", describe(emitted))
	}
}
