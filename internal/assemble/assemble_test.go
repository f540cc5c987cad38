package assemble

import (
	"bufio"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/protocol"
)

func TestAssembleOrdersBySerial(t *testing.T) {
	t.Parallel()

	a := New(nil)
	entries := []Entry{
		{Serial: "s3", Count: 5},
		{Serial: "s1", Count: 2},
		{Serial: "s2", Count: 0},
	}

	snap := a.Assemble(entries, time.Now())

	require.Len(t, snap.Sensors, 3)
	assert.Equal(t, protocol.SensorCount{ID: "SENSORE001", Count: 2}, snap.Sensors[0])
	assert.Equal(t, protocol.SensorCount{ID: "SENSORE002", Count: 0}, snap.Sensors[1])
	assert.Equal(t, protocol.SensorCount{ID: "SENSORE003", Count: 5}, snap.Sensors[2])
	assert.Equal(t, protocol.Schema, snap.Schema)
	assert.Equal(t, protocol.TypeSnapshotCounts, snap.Type)
}

func TestAssembleEmpty(t *testing.T) {
	t.Parallel()

	a := New(nil)
	now := time.Now()
	snap := a.Assemble(nil, now)

	assert.Empty(t, snap.Sensors)
	assert.Equal(t, protocol.Schema, snap.Schema)
	assert.InDelta(t, protocol.Timestamp(now), snap.Timestamp, 1e-9)
}

func TestAssembleRanksShiftWhenDeviceDrops(t *testing.T) {
	t.Parallel()

	a := New(nil)
	snap := a.Assemble([]Entry{{Serial: "s1", Count: 1}, {Serial: "s2", Count: 2}}, time.Now())
	require.Equal(t, "SENSORE002", snap.Sensors[1].ID)

	// s1 drops: s2 takes over rank 1 on the next tick
	snap = a.Assemble([]Entry{{Serial: "s2", Count: 2}}, time.Now())
	require.Len(t, snap.Sensors, 1)
	assert.Equal(t, "SENSORE001", snap.Sensors[0].ID)
}

func TestSessionTotalAccumulates(t *testing.T) {
	t.Parallel()

	a := New(nil)
	a.Assemble([]Entry{{Serial: "s1", Count: 2}, {Serial: "s2", Count: 3}}, time.Now())
	a.Assemble([]Entry{{Serial: "s1", Count: 1}}, time.Now())

	assert.Equal(t, int64(6), a.SessionTotal())
}

func TestSensorID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "SENSORE001", SensorID(1))
	assert.Equal(t, "SENSORE012", SensorID(12))
	assert.Equal(t, "SENSORE123", SensorID(123))
}

func TestSessionArtifacts(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	session, err := NewSession(root)
	require.NoError(t, err)
	require.DirExists(t, session.Dir)

	a := New(session)
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	now := time.Now()
	a.Assemble([]Entry{{Serial: "CAM1", Count: 2, Annotated: img}}, now)
	a.Assemble(nil, now.Add(500*time.Millisecond)) // empty tick, not an event
	a.Assemble([]Entry{{Serial: "CAM1", Count: 1, Annotated: img}}, now.Add(time.Second))
	session.Close(a.SessionTotal())

	// annotated frames
	jpgs, err := filepath.Glob(filepath.Join(session.Dir, "*_CAM1_c*.jpg"))
	require.NoError(t, err)
	assert.Len(t, jpgs, 2)

	// event log, one line per tick
	f, err := os.Open(filepath.Join(session.Dir, "events.ndjson"))
	require.NoError(t, err)
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		assert.Equal(t, session.ID, rec["session"])
		lines++
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, 2, lines)

	// final summary
	data, err := os.ReadFile(filepath.Join(session.Dir, "summary.json"))
	require.NoError(t, err)
	var sum map[string]any
	require.NoError(t, json.Unmarshal(data, &sum))
	assert.Equal(t, session.ID, sum["session"])
	assert.EqualValues(t, 3, sum["session_total"])
}

func TestSessionCloseIdempotent(t *testing.T) {
	t.Parallel()

	session, err := NewSession(t.TempDir())
	require.NoError(t, err)
	session.Close(1)
	session.Close(2)

	data, err := os.ReadFile(filepath.Join(session.Dir, "summary.json"))
	require.NoError(t, err)
	var sum map[string]any
	require.NoError(t, json.Unmarshal(data, &sum))
	assert.EqualValues(t, 1, sum["session_total"], "second close must not overwrite the summary")
}
