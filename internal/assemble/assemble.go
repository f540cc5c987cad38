// Package assemble turns per-device detection results into ordered
// snapshots and keeps session accounting.
package assemble

import (
	"image"
	"sort"
	"time"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/protocol"
)

// Entry is one per-device result of a tick.
type Entry struct {
	Serial    string
	Count     int
	Annotated *image.RGBA // optional, only used when persistence is enabled
}

// Assembler builds snapshots with deterministic sensor ordering and tracks
// the running session total.
type Assembler struct {
	session *Session // nil when persistence is disabled

	total int64 // sum of all counts across all ticks, guarded by the hub loop
}

// New creates an assembler. session may be nil to disable persistence.
func New(session *Session) *Assembler {
	return &Assembler{session: session}
}

// Assemble sorts the entries by serial ascending, assigns sensor IDs by
// rank and builds the snapshot. Persistence side effects are best effort
// and never required for protocol correctness.
func (a *Assembler) Assemble(entries []Entry, now time.Time) *protocol.Snapshot {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Serial < sorted[j].Serial })

	sensors := make([]protocol.SensorCount, 0, len(sorted))
	for rank, e := range sorted {
		sensors = append(sensors, protocol.SensorCount{
			ID:    SensorID(rank + 1),
			Count: e.Count,
		})
		a.total += int64(e.Count)
	}

	snapshot := &protocol.Snapshot{
		Schema:    protocol.Schema,
		Type:      protocol.TypeSnapshotCounts,
		Timestamp: protocol.Timestamp(now),
		Sensors:   sensors,
	}

	// empty ticks are published but never recorded as session events
	if a.session != nil && len(sorted) > 0 {
		for _, e := range sorted {
			if e.Annotated != nil {
				a.session.SaveAnnotated(now, e.Serial, e.Count, e.Annotated)
			}
		}
		a.session.AppendEvent(snapshot, a.total)
	}

	return snapshot
}

// SessionTotal returns the monotonically increasing sum of all counts since
// process start.
func (a *Assembler) SessionTotal() int64 {
	return a.total
}
