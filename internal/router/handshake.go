// handshake.go: the capture-then-wait sequence run on every scene-ended event.
package router

import (
	"fmt"
	"time"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/errors"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/observability/metrics"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/protocol"
)

const (
	defaultHandshakeTimeout = 3 * time.Second
	defaultPollInterval     = 20 * time.Millisecond
)

// SelectionResult is the outcome of a successful handshake.
type SelectionResult struct {
	Suffix string
	Target string
}

// Handshake coordinates the capture request with the snapshot cache.
// A snapshot only satisfies a handshake when its timestamp is not older
// than the handshake's own start time; stale cache contents are ignored.
type Handshake struct {
	publisher *protocol.Publisher
	cache     *SnapshotCache
	control   ShowControl
	dispatch  bool
	metrics   *metrics.RouterMetrics

	timeout time.Duration
	poll    time.Duration
}

// NewHandshake wires a handshake against the hub command endpoint, the
// shared snapshot cache and an optional show-control client. When dispatch
// is false the decision is logged but never sent.
func NewHandshake(publisher *protocol.Publisher, cache *SnapshotCache, control ShowControl, dispatch bool, m *metrics.RouterMetrics) *Handshake {
	return &Handshake{
		publisher: publisher,
		cache:     cache,
		control:   control,
		dispatch:  dispatch,
		metrics:   m,
		timeout:   defaultHandshakeTimeout,
		poll:      defaultPollInterval,
	}
}

// HandleSceneEnded runs the full sequence for base scene id base:
// request a capture, wait for a fresh snapshot, select the winning
// suffix and dispatch the composed target.
func (h *Handshake) HandleSceneEnded(base string) (*SelectionResult, error) {
	start := time.Now()
	GetLogger().Info("scene ended, requesting capture", "scene", base)

	// Fire and forget; delivery is confirmed only by the fresh snapshot.
	h.publisher.SendJSON(protocol.Command{Cmd: protocol.CmdCapture})

	snap, err := h.waitFresh(start)
	if err != nil {
		h.observe("timeout", start)
		return nil, err
	}

	if len(snap.Sensors) == 0 {
		h.observe("empty", start)
		return nil, errors.New(fmt.Errorf("snapshot carried no sensors")).
			Component("router").
			Category(errors.CategoryState).
			Context("scene", base).
			Build()
	}

	suffix := SelectSuffix(snap.Sensors)
	result := &SelectionResult{Suffix: suffix, Target: base + suffix}
	GetLogger().Info("selection complete",
		"scene", base,
		"suffix", suffix,
		"target", result.Target,
		"sensors", len(snap.Sensors))

	if h.dispatch && h.control != nil {
		if err := h.control.LaunchScene(result.Target); err != nil {
			h.observe("dispatch_failed", start)
			return result, err
		}
	} else {
		GetLogger().Info("dispatch disabled, decision logged only", "target", result.Target)
	}

	h.observe("success", start)
	return result, nil
}

// waitFresh polls the cache until a snapshot stamped at or after the
// handshake start arrives, or the timeout elapses.
func (h *Handshake) waitFresh(start time.Time) (*protocol.Snapshot, error) {
	deadline := start.Add(h.timeout)
	startTS := protocol.Timestamp(start)
	for {
		if snap := h.cache.Load(); snap != nil && snap.Timestamp >= startTS {
			return snap, nil
		}
		if time.Now().After(deadline) {
			return nil, errors.New(fmt.Errorf("no fresh snapshot within %s", h.timeout)).
				Component("router").
				Category(errors.CategoryTimeout).
				Context("timeout", h.timeout.String()).
				Build()
		}
		time.Sleep(h.poll)
	}
}

func (h *Handshake) observe(result string, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.Handshakes.WithLabelValues(result).Inc()
	h.metrics.HandshakeLatency.Observe(time.Since(start).Seconds())
}
