// Package writer implements the per-source rotating output writer
// (spec.md §4.2), adapted from the teacher's internal/logging/rotating.go
// size-based rotation (rotate-before-overflow, mutex-guarded) and
// extended with duration-based rotation grounded on the pack's
// rotatelogs-style time-bucketed file naming.
package writer

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/colebrumley/a0logd/internal/arena"
	"github.com/colebrumley/a0logd/internal/clockutil"
)

// RotatingWriter owns one output destination keyed by a single source's
// relative path (spec.md §3's "Output file identity").
type RotatingWriter struct {
	mu sync.Mutex

	savepath      string
	sourceRelpath string
	readAbspath   string
	maxSize       uint64        // 0 = no cap
	maxDuration   time.Duration // 0 = no cap
	clock         clockutil.Clock
	announcer     Announcer

	cur            *arena.Writer
	curWriteRel    string
	curWriteAbs    string
	openedAtMonoNS int64
}

// New builds a RotatingWriter for one source. maxSize/maxDuration of
// zero mean "no cap" (spec.md §4.2: "rule override -> config default ->
// none").
func New(savepath, sourceRelpath, readAbspath string, maxSize uint64, maxDuration time.Duration, clock clockutil.Clock, announcer Announcer) *RotatingWriter {
	return &RotatingWriter{
		savepath:      savepath,
		sourceRelpath: sourceRelpath,
		readAbspath:   readAbspath,
		maxSize:       maxSize,
		maxDuration:   maxDuration,
		clock:         clock,
		announcer:     announcer,
	}
}

// Append writes one packet, rotating first if needed (spec.md §4.2).
func (w *RotatingWriter) Append(p arena.Packet) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cur != nil && w.shouldRotateLocked(p) {
		if err := w.closeLocked(); err != nil {
			return err
		}
	}
	if w.cur == nil {
		if err := w.openLocked(); err != nil {
			return err
		}
	}

	if _, err := w.cur.Append(p); err != nil {
		return fmt.Errorf("writer: append: %w", err)
	}
	return nil
}

func (w *RotatingWriter) shouldRotateLocked(next arena.Packet) bool {
	if w.maxSize > 0 && uint64(w.cur.Size())+uint64(next.EncodedLen()) > w.maxSize {
		return true
	}
	if w.maxDuration > 0 {
		age := time.Duration(w.clock.MonoNS()-w.openedAtMonoNS) * time.Nanosecond
		if age > w.maxDuration {
			return true
		}
	}
	return false
}

// isoTimestamp renders wall time as ISO8601 with nanosecond precision
// and a numeric (or "Z") UTC offset, per spec.md §6's output layout.
func isoTimestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000000000Z07:00")
}

func (w *RotatingWriter) openLocked() error {
	now := w.clock.Now()
	dateDir := now.Format("2006/01/02")
	writeRel := filepath.Join(dateDir, w.sourceRelpath+"@"+isoTimestamp(now)+".a0")
	writeAbs := filepath.Join(w.savepath, writeRel)

	cw, err := arena.CreateWriter(writeAbs)
	if err != nil {
		return fmt.Errorf("writer: open: %w", err)
	}

	w.cur = cw
	w.curWriteRel = writeRel
	w.curWriteAbs = writeAbs
	w.openedAtMonoNS = w.clock.MonoNS()

	if w.announcer != nil {
		_ = w.announcer.Announce(Announcement{
			Action:       ActionOpened,
			ReadRelpath:  w.sourceRelpath,
			ReadAbspath:  w.readAbspath,
			WriteRelpath: writeRel,
			WriteAbspath: writeAbs,
		})
	}
	return nil
}

func (w *RotatingWriter) closeLocked() error {
	if w.cur == nil {
		return nil
	}
	if err := w.cur.Close(); err != nil {
		return fmt.Errorf("writer: close: %w", err)
	}

	if w.announcer != nil {
		_ = w.announcer.Announce(Announcement{
			Action:       ActionClosed,
			ReadRelpath:  w.sourceRelpath,
			ReadAbspath:  w.readAbspath,
			WriteRelpath: w.curWriteRel,
			WriteAbspath: w.curWriteAbs,
		})
	}

	w.cur = nil
	w.curWriteRel = ""
	w.curWriteAbs = ""
	return nil
}

// Close flushes and closes the current output file, if any (spec.md
// §4.2's shutdown clause: "one final closed announcement").
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}
