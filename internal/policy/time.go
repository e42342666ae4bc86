package policy

import (
	"math"
	"sync"
	"time"

	"github.com/colebrumley/a0logd/internal/arena"
)

// Time implements the time(save_prev, save_next) policy (spec.md §4.4):
// a deque of buffered packets and a save_until monotonic deadline,
// extended (not summed) on each trigger firing.
type Time struct {
	mu        sync.Mutex
	savePrev  time.Duration
	saveNext  time.Duration
	buf       []arena.Packet // ordered by arrival (monotonic ts)
	saveUntil int64          // monotonic ns; -infinity until first firing
}

// NewTime builds a time policy instance.
func NewTime(savePrev, saveNext time.Duration) *Time {
	return &Time{
		savePrev:  savePrev,
		saveNext:  saveNext,
		saveUntil: math.MinInt64,
	}
}

func (tp *Time) OnPacket(p arena.Packet) []arena.Packet {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if p.MonoNS <= tp.saveUntil {
		return []arena.Packet{p}
	}
	tp.buf = append(tp.buf, p)
	tp.evictLocked(p.MonoNS)
	return nil
}

func (tp *Time) OnFire(atMonoNS int64) []arena.Packet {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	until := atMonoNS + tp.saveNext.Nanoseconds()
	if until > tp.saveUntil {
		tp.saveUntil = until
	}

	cutoff := atMonoNS - tp.savePrev.Nanoseconds()
	var emit []arena.Packet
	var remain []arena.Packet
	for _, p := range tp.buf {
		if p.MonoNS >= cutoff {
			emit = append(emit, p)
		} else {
			remain = append(remain, p)
		}
	}
	tp.buf = remain
	return emit
}

// evictLocked drops packets whose wall-age exceeds save_prev; called
// with mu held. Bounds memory for long-idle windows (spec.md §3's
// "buffers are bounded: time by the wall-age save_prev...").
func (tp *Time) evictLocked(nowMonoNS int64) {
	cutoff := nowMonoNS - tp.savePrev.Nanoseconds()
	i := 0
	for i < len(tp.buf) && tp.buf[i].MonoNS < cutoff {
		i++
	}
	if i > 0 {
		tp.buf = tp.buf[i:]
	}
}
