package arena

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Writer appends framed packets to a single arena file, creating parent
// directories as needed. Safe for concurrent use.
type Writer struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	bytesLen int64
}

// CreateWriter creates (or truncates) the arena file at path.
func CreateWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating arena directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("creating arena file: %w", err)
	}
	return &Writer{path: path, file: f}, nil
}

// OpenWriterAppend opens an existing arena file for append, creating it
// (and its parent directories) if absent. Used by publishers, whose
// topic file persists across the process that writes to it.
func OpenWriterAppend(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating arena directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("opening arena file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat arena file: %w", err)
	}
	return &Writer{path: path, file: f, bytesLen: info.Size()}, nil
}

// Path returns the absolute path this writer appends to.
func (w *Writer) Path() string {
	return w.path
}

// Append writes one packet, returning its encoded length.
func (w *Writer) Append(p Packet) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	buf := p.encode()
	if _, err := w.file.Write(buf); err != nil {
		return 0, fmt.Errorf("appending packet: %w", err)
	}
	w.bytesLen += int64(len(buf))
	return int64(len(buf)), nil
}

// Size returns the number of bytes written through this Writer instance.
func (w *Writer) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bytesLen
}

// Sync flushes to stable storage.
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
