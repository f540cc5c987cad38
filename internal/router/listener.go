// listener.go: background UDP listener feeding the snapshot cache.
package router

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/errors"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/observability/metrics"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/protocol"
)

const listenerReadTimeout = 250 * time.Millisecond

// snapshotListener receives hub data payloads and stores snapshot_counts
// into the cache. Malformed datagrams are dropped silently.
type snapshotListener struct {
	conn    *net.UDPConn
	cache   *SnapshotCache
	metrics *metrics.RouterMetrics

	quit chan struct{}
	done chan struct{}
}

func newSnapshotListener(port int, cache *SnapshotCache, m *metrics.RouterMetrics) (*snapshotListener, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to bind snapshot socket on port %d: %w", port, err)).
			Component("router").
			Category(errors.CategoryNetwork).
			Context("port", port).
			Build()
	}
	return &snapshotListener{
		conn:    conn,
		cache:   cache,
		metrics: m,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

func (l *snapshotListener) start() {
	go l.loop()
}

func (l *snapshotListener) loop() {
	defer close(l.done)
	buf := make([]byte, 65535)
	for {
		select {
		case <-l.quit:
			return
		default:
		}

		if err := l.conn.SetReadDeadline(time.Now().Add(listenerReadTimeout)); err != nil {
			return
		}
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-l.quit:
				return
			default:
				GetLogger().Error("snapshot socket read failed", "error", err)
				continue
			}
		}

		var snap protocol.Snapshot
		if err := json.Unmarshal(buf[:n], &snap); err != nil {
			continue
		}
		if snap.Type != protocol.TypeSnapshotCounts {
			continue
		}
		l.cache.Store(&snap)
		if l.metrics != nil {
			l.metrics.SnapshotsReceived.Inc()
		}
	}
}

func (l *snapshotListener) stop() {
	select {
	case <-l.quit:
		return
	default:
	}
	close(l.quit)
	_ = l.conn.Close()
	<-l.done
}
