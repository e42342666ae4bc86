// Package discovery implements the root-directory scanner that finds
// new source arenas and binds each to its first matching rule (spec.md
// §4.1, Open Question resolved per spec.md §9 / DESIGN.md: first-match
// wins per (protocol, source)). Grounded on the teacher's
// startHotReload periodic-rescan-and-diff loop in internal/daemon,
// generalized from "detect changed rule files" to "detect new arena
// files."
package discovery

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/colebrumley/a0logd/internal/config"
	"github.com/fsnotify/fsnotify"
)

// Source is a newly discovered input arena bound to its first matching
// rule (spec.md §3).
type Source struct {
	Protocol string
	RelPath  string // relative to root, e.g. "foo.pubsub.a0"
	AbsPath  string
	Topic    string // relpath with the protocol suffix stripped
	Rule     *config.Rule
}

// Watcher periodically scans root for files matching any rule's
// (protocol, topic-glob) selector (spec.md §4.1).
type Watcher struct {
	root     string
	rules    []config.Rule
	interval time.Duration
	seen     map[string]bool // "protocol:relpath" -> bound
}

// New builds a Watcher over the given rules (in config order, since
// first-match-wins depends on order).
func New(root string, rules []config.Rule, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Watcher{
		root:     root,
		rules:    rules,
		interval: interval,
		seen:     make(map[string]bool),
	}
}

// Run scans root until ctx is done, sending each newly discovered
// source to out exactly once (spec.md §4.1: "Each source is emitted at
// most once"). If root does not yet exist, Run retries with backoff
// rather than failing (spec.md §4.1 failure clause; spec.md §7:
// "missing root... retried silently").
func (w *Watcher) Run(ctx context.Context, out chan<- Source) error {
	if err := w.waitForRoot(ctx); err != nil {
		return err
	}

	rescan := make(chan struct{}, 1)
	if fw, err := fsnotify.NewWatcher(); err == nil {
		defer fw.Close()
		if err := fw.Add(w.root); err == nil {
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case _, ok := <-fw.Events:
						if !ok {
							return
						}
						select {
						case rescan <- struct{}{}:
						default:
						}
					case <-fw.Errors:
					}
				}
			}()
		}
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.scan(out)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.scan(out)
		case <-rescan:
			w.scan(out)
		}
	}
}

func (w *Watcher) waitForRoot(ctx context.Context) error {
	if _, err := os.Stat(w.root); err == nil {
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxInterval = w.interval
	b.MaxElapsedTime = 0

	return backoff.Retry(func() error {
		if _, err := os.Stat(w.root); err != nil {
			return err
		}
		return nil
	}, backoff.WithContext(b, ctx))
}

func (w *Watcher) scan(out chan<- Source) {
	_ = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entry; discovery errors are non-fatal (spec.md §7)
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".a0") {
			return nil
		}

		relpath, err := filepath.Rel(w.root, path)
		if err != nil {
			return nil
		}
		relpath = filepath.ToSlash(relpath)

		protocol, topic, ok := splitProtocol(relpath)
		if !ok {
			return nil
		}

		key := protocol + ":" + relpath
		if w.seen[key] {
			return nil
		}

		for i := range w.rules {
			rule := &w.rules[i]
			if rule.Protocol != protocol {
				continue
			}
			if !matchTopic(rule.Topic, topic) {
				continue
			}
			w.seen[key] = true
			out <- Source{
				Protocol: protocol,
				RelPath:  relpath,
				AbsPath:  path,
				Topic:    topic,
				Rule:     rule,
			}
			break // first-match wins (spec.md §9)
		}
		return nil
	})
}

// splitProtocol extracts (protocol, topic) from a relative path of the
// form "<topic>.<protocol>.a0", e.g. "alephzero/foo.pubsub.a0" ->
// ("pubsub", "alephzero/foo").
func splitProtocol(relpath string) (protocol, topic string, ok bool) {
	base := strings.TrimSuffix(relpath, ".a0")
	if base == relpath {
		return "", "", false
	}
	i := strings.LastIndexByte(base, '.')
	if i < 0 {
		return "", "", false
	}
	protocol = base[i+1:]
	switch protocol {
	case config.ProtocolPubsub, config.ProtocolLog, config.ProtocolCfg:
	default:
		return "", "", false
	}
	topic = base[:i]
	return protocol, topic, true
}
