// persist.go: best-effort persistence of per-session artifacts, annotated
// frames and an append-only event log.
package assemble

import (
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/errors"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/protocol"
)

// Session owns one per-session artifact directory. All writes are best
// effort: failures are logged and never propagated to the tick path.
type Session struct {
	ID  string // session UUID recorded in events and summary
	Dir string

	mu     sync.Mutex
	events *os.File
	closed bool
}

// event is one line of the append-only session log.
type event struct {
	T            float64                `json:"t"`
	Session      string                 `json:"session"`
	Sensors      []protocol.SensorCount `json:"sensors"`
	SessionTotal int64                  `json:"session_total"`
}

// summary is the final record written at shutdown.
type summary struct {
	EndedAt      float64 `json:"ended_at"`
	Session      string  `json:"session"`
	SessionTotal int64   `json:"session_total"`
}

// NewSession creates the session directory and the event log under root.
func NewSession(root string) (*Session, error) {
	dir := filepath.Join(root, "session_"+time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.New(fmt.Errorf("failed to create session directory: %w", err)).
			Component("assemble").
			Category(errors.CategoryPersistence).
			Context("dir", dir).
			Build()
	}

	events, err := os.OpenFile(filepath.Join(dir, "events.ndjson"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open session event log: %w", err)).
			Component("assemble").
			Category(errors.CategoryPersistence).
			Context("dir", dir).
			Build()
	}

	s := &Session{
		ID:     uuid.NewString(),
		Dir:    dir,
		events: events,
	}
	GetLogger().Info("session started", "session", s.ID, "dir", dir)
	return s, nil
}

// SaveAnnotated writes one annotated frame named by timestamp, serial and
// count.
func (s *Session) SaveAnnotated(now time.Time, serial string, count int, img *image.RGBA) {
	name := fmt.Sprintf("%.3f_%s_c%d.jpg", protocol.Timestamp(now), serial, count)
	path := filepath.Join(s.Dir, name)

	f, err := os.Create(path)
	if err != nil {
		GetLogger().Warn("failed to create annotated frame file", "path", path, "error", err)
		return
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		GetLogger().Warn("failed to encode annotated frame", "path", path, "error", err)
	}
}

// AppendEvent appends one newline-delimited record for the tick.
func (s *Session) AppendEvent(snapshot *protocol.Snapshot, total int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	rec := event{
		T:            snapshot.Timestamp,
		Session:      s.ID,
		Sensors:      snapshot.Sensors,
		SessionTotal: total,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		GetLogger().Warn("failed to marshal session event", "error", err)
		return
	}
	if _, err := s.events.Write(append(line, '\n')); err != nil {
		GetLogger().Warn("failed to append session event", "error", err)
	}
}

// Close flushes the final summary record and closes the event log.
// Idempotent.
func (s *Session) Close(total int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	sum := summary{
		EndedAt:      protocol.Timestamp(time.Now()),
		Session:      s.ID,
		SessionTotal: total,
	}
	data, err := json.MarshalIndent(sum, "", "  ")
	if err == nil {
		if werr := os.WriteFile(filepath.Join(s.Dir, "summary.json"), data, 0o644); werr != nil {
			GetLogger().Warn("failed to write session summary", "error", werr)
		}
	}

	if err := s.events.Close(); err != nil {
		GetLogger().Warn("failed to close session event log", "error", err)
	}
	GetLogger().Info("session closed", "session", s.ID, "session_total", total)
}
