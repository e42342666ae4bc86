package policy

import (
	"sync"

	"github.com/colebrumley/a0logd/internal/arena"
)

// Count implements the count(save_prev, save_next) policy (spec.md
// §4.4). It keeps a ring buffer of the latest unsaved packets up to
// save_prev, and a remaining_next countdown extended (not summed) on
// each trigger firing.
type Count struct {
	mu            sync.Mutex
	savePrev      int
	saveNext      int
	buf           []arena.Packet
	remainingNext int
}

// NewCount builds a count policy instance.
func NewCount(savePrev, saveNext int) *Count {
	return &Count{savePrev: savePrev, saveNext: saveNext}
}

func (c *Count) OnPacket(p arena.Packet) []arena.Packet {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.remainingNext > 0 {
		c.remainingNext--
		return []arena.Packet{p}
	}

	if c.savePrev == 0 {
		return nil
	}
	c.buf = append(c.buf, p)
	if len(c.buf) > c.savePrev {
		c.buf = c.buf[len(c.buf)-c.savePrev:]
	}
	return nil
}

func (c *Count) OnFire(atMonoNS int64) []arena.Packet {
	c.mu.Lock()
	defer c.mu.Unlock()

	emit := make([]arena.Packet, len(c.buf))
	copy(emit, c.buf)
	c.buf = c.buf[:0]

	if c.saveNext > c.remainingNext {
		c.remainingNext = c.saveNext
	}
	return emit
}
