// cache.go: single-slot cache of the last received snapshot.
package router

import (
	"sync/atomic"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/protocol"
)

// SnapshotCache holds the last received snapshot. One writer (the listener
// loop), any number of readers. The atomic pointer swap gives occasionally
// stale but never torn reads, freshness is established by the timestamp
// check in the handshake, not by locking.
type SnapshotCache struct {
	cur atomic.Pointer[protocol.Snapshot]
}

// Store overwrites the cached snapshot.
func (c *SnapshotCache) Store(s *protocol.Snapshot) {
	c.cur.Store(s)
}

// Load returns the last snapshot, nil when none has arrived yet.
func (c *SnapshotCache) Load() *protocol.Snapshot {
	return c.cur.Load()
}
