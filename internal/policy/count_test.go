package policy

import (
	"testing"
	"time"

	"github.com/colebrumley/a0logd/internal/arena"
)

func pkt(i int, monoNS int64) arena.Packet {
	return arena.New(monoNS, time.Unix(0, monoNS), []byte{byte(i)})
}

func TestCount_BufferAndFlush(t *testing.T) {
	c := NewCount(2, 1)

	// foo_0..foo_9: only the last 2 should remain buffered.
	for i := 0; i < 10; i++ {
		if emitted := c.OnPacket(pkt(i, int64(i))); emitted != nil {
			t.Fatalf("unexpected emission before any trigger: %v", emitted)
		}
	}

	emitted := c.OnFire(9)
	if len(emitted) != 2 || emitted[0].Payload[0] != 8 || emitted[1].Payload[0] != 9 {
		t.Fatalf("expected [foo_8 foo_9], got %v", describe(emitted))
	}

	// remaining_next=1: the very next packet is emitted, then emission stops.
	if e := c.OnPacket(pkt(10, 10)); len(e) != 1 || e[0].Payload[0] != 10 {
		t.Fatalf("expected foo_10 via remaining_next, got %v", describe(e))
	}
	if e := c.OnPacket(pkt(11, 11)); e != nil {
		t.Fatalf("expected no emission once remaining_next exhausted, got %v", describe(e))
	}
}

func TestCount_TriggerNotAdditive(t *testing.T) {
	c := NewCount(0, 1)
	c.OnFire(0)
	c.OnFire(0) // second firing before any packet must not stack remaining_next
	if e := c.OnPacket(pkt(0, 0)); len(e) != 1 {
		t.Fatalf("expected exactly one emission, got %v", describe(e))
	}
	if e := c.OnPacket(pkt(1, 1)); e != nil {
		t.Fatalf("expected remaining_next exhausted after one packet, got %v", describe(e))
	}
}

func describe(pkts []arena.Packet) []byte {
	out := make([]byte, len(pkts))
	for i, p := range pkts {
		out[i] = p.Payload[0]
	}
	return out
}
