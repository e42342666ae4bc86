// cmd/a0logd/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/colebrumley/a0logd/internal/clockutil"
	"github.com/colebrumley/a0logd/internal/daemon"
)

const (
	defaultRoot        = "/var/lib/a0logd/root"
	defaultTopic       = "a0logd"
	defaultConfigTopic = "test"
)

func main() {
	root := os.Getenv("A0_ROOT")
	if root == "" {
		root = defaultRoot
	}

	topic := os.Getenv("A0_TOPIC")
	if topic == "" {
		topic = defaultTopic
	}

	configTopic := os.Getenv("A0_CONFIG_TOPIC")
	if configTopic == "" {
		configTopic = defaultConfigTopic
	}

	d := daemon.New(root, topic, configTopic, clockutil.NewReal())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "received shutdown signal")
		cancel()
	}()

	if err := d.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "daemon error: %v\n", err)
		os.Exit(1)
	}
}
