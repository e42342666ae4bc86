// cmd/a0logctl/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/colebrumley/a0logd/internal/arena"
	"github.com/colebrumley/a0logd/internal/config"
	"github.com/gofrs/flock"
)

const (
	defaultRoot         = "/var/lib/a0logd/root"
	defaultTopic        = "a0logd"
	defaultStatusAddr   = "127.0.0.1"
	defaultStatusPort   = 9880
	deadmanWaitInterval = 100 * time.Millisecond
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "status":
		err = cmdStatus()
	case "validate":
		err = cmdValidate(os.Args[2:])
	case "announce-tail":
		err = cmdAnnounceTail(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`a0logctl - operator CLI for a0logd

Usage: a0logctl <command> [options]

Commands:
  status              Query liveness (deadman) and the HTTP status surface
  validate <file>      Validate a configuration document
  announce-tail        Tail the daemon's announce channel`)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func statusBaseURL() string {
	addr := envOr("A0_STATUS_ADDR", defaultStatusAddr)
	port := envOr("A0_STATUS_PORT", fmt.Sprintf("%d", defaultStatusPort))
	return fmt.Sprintf("http://%s:%s", addr, port)
}

// cmdStatus waits briefly on the daemon's deadman beacon, then reports
// whatever the HTTP status surface adds on top (spec.md §6's "a watcher
// can wait on it with a timeout").
func cmdStatus() error {
	root := envOr("A0_ROOT", defaultRoot)
	topic := envOr("A0_TOPIC", defaultTopic)
	path := filepath.Join(root, ".a0logd", topic+".deadman")

	lock := flock.New(path)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	alive, err := waitDeadmanHeld(ctx, lock)
	if err != nil {
		return fmt.Errorf("checking deadman: %w", err)
	}
	if !alive {
		fmt.Println("a0logd: no daemon detected (deadman not held)")
		return nil
	}
	fmt.Println("a0logd: daemon alive (deadman held)")

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(statusBaseURL() + "/healthz")
	if err != nil {
		fmt.Println("status endpoint unreachable:", err)
		return nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Println(string(body))
	return nil
}

// waitDeadmanHeld polls whether lock is currently held by another
// process: TryLock succeeding (and immediately releasing) means no one
// holds it.
func waitDeadmanHeld(ctx context.Context, lock *flock.Flock) (bool, error) {
	for {
		locked, err := lock.TryLock()
		if err != nil {
			return false, err
		}
		if locked {
			lock.Unlock()
			return false, nil
		}

		select {
		case <-ctx.Done():
			return true, nil
		case <-time.After(deadmanWaitInterval):
		}
	}
}

// cmdValidate parses a configuration document the same way the daemon
// does on startup (spec.md §7: "malformed JSON, missing savepath, or
// unknown policy/trigger type -> startup fails with a diagnostic").
func cmdValidate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: a0logctl validate <file>")
	}
	doc, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	cfg, err := config.Parse(doc)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Printf("ok: %d rule(s), savepath=%s\n", len(cfg.Rules), cfg.SavePath)
	return nil
}

// cmdAnnounceTail attaches to "<topic>/announce" and prints each
// opened/closed event as it arrives (spec.md §6).
func cmdAnnounceTail(args []string) error {
	root := envOr("A0_ROOT", defaultRoot)
	topic := envOr("A0_TOPIC", defaultTopic)
	if len(args) > 0 {
		topic = args[0]
	}

	path := arena.TopicPath(root, "pubsub", topic+"/announce")
	reader, err := arena.OpenReader(path)
	if err != nil {
		return fmt.Errorf("attaching to announce channel: %w", err)
	}
	defer reader.Close()

	ctx := context.Background()
	for {
		pkt, err := reader.Next(ctx)
		if err != nil {
			return err
		}

		var ann map[string]any
		if err := json.Unmarshal(pkt.Payload, &ann); err != nil {
			fmt.Println(string(pkt.Payload))
			continue
		}
		out, _ := json.Marshal(ann)
		fmt.Println(string(out))
	}
}
