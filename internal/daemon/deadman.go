package daemon

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// acquireDeadman takes an exclusive lock on this daemon's beacon file
// (spec.md §4.5/§6: "signal liveness through a deadman... identified
// by the daemon topic"). A supervisor or a0logctl can TryLock the same
// path with a timeout to detect whether the daemon is alive.
func (d *Daemon) acquireDeadman(beaconDir string) error {
	path := filepath.Join(beaconDir, d.topic+".deadman")
	lock := flock.New(path)

	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("locking deadman beacon %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("deadman beacon %s already held by another process", path)
	}

	d.deadman = lock
	return nil
}

func (d *Daemon) releaseDeadman() {
	if d.deadman == nil {
		return
	}
	d.deadman.Unlock()
}
