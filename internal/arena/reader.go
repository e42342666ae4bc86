package arena

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// pollInterval bounds how long Next() can block between checks when no
// filesystem notification arrives (fsnotify is best-effort wake-up only,
// per spec.md §4.1's "periodic scan" framing extended to readers).
const pollInterval = 50 * time.Millisecond

// Reader reads packets from an arena file starting at the oldest
// available packet, and can block waiting for new packets to be
// appended by another process. One Reader is owned by exactly one
// source worker (spec.md §5).
type Reader struct {
	path    string
	file    *os.File
	offset  int64
	watcher *fsnotify.Watcher // best-effort; nil if unavailable
}

// OpenReader attaches to the arena file at path, positioned at the
// oldest packet (offset 0).
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening arena file for read: %w", err)
	}

	r := &Reader{path: path, file: f}
	if w, err := fsnotify.NewWatcher(); err == nil {
		if err := w.Add(path); err == nil {
			r.watcher = w
		} else {
			w.Close()
		}
	}
	return r, nil
}

// TryNext returns the next packet without blocking. It returns
// (Packet{}, false, nil) if no full packet is currently available.
func (r *Reader) TryNext() (Packet, bool, error) {
	if _, err := r.file.Seek(r.offset, io.SeekStart); err != nil {
		return Packet{}, false, fmt.Errorf("seeking arena file: %w", err)
	}
	pkt, err := decodePacket(r.file)
	if errors.Is(err, io.EOF) {
		return Packet{}, false, nil
	}
	if err != nil {
		return Packet{}, false, err
	}
	r.offset += pkt.EncodedLen()
	return pkt, true, nil
}

// Next blocks until a new packet is available or ctx is done.
func (r *Reader) Next(ctx context.Context) (Packet, error) {
	for {
		pkt, ok, err := r.TryNext()
		if err != nil {
			return Packet{}, err
		}
		if ok {
			return pkt, nil
		}

		var wake <-chan fsnotify.Event
		if r.watcher != nil {
			wake = r.watcher.Events
		}

		select {
		case <-ctx.Done():
			return Packet{}, ctx.Err()
		case <-wake:
			continue
		case <-time.After(pollInterval):
			continue
		}
	}
}

// Close releases the reader's file handle and watcher.
func (r *Reader) Close() error {
	if r.watcher != nil {
		r.watcher.Close()
	}
	return r.file.Close()
}
