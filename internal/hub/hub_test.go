package hub

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/conf"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/detect"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/observability"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/protocol"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/realsense"
)

type hubFixture struct {
	hub      *Hub
	provider *realsense.SimProvider
	detector *detect.StaticDetector
	metrics  *observability.Metrics
	data     *net.UDPConn
	done     chan error
}

// newHubFixture builds a hub with simulated cameras, a static detector and
// a captive data listener, and runs it in the background.
func newHubFixture(t *testing.T, serials ...string) *hubFixture {
	t.Helper()

	data, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { data.Close() })

	settings := &conf.Settings{}
	settings.Hub.Host = "127.0.0.1"
	settings.Hub.DataPort = data.LocalAddr().(*net.UDPAddr).Port
	settings.Hub.CmdPort = 0
	settings.Hub.Interval = 0
	settings.Hub.Capture = conf.CaptureSettings{Width: 32, Height: 24, FPS: 30, Simulate: true}
	settings.Hub.Detector = conf.DetectorSettings{Confidence: 0.55, InputWidth: 32, InputHeight: 24}
	settings.Hub.Depth = conf.DepthSettings{MinMM: 300, MaxMM: 4500, PLow: 5, PHigh: 95}

	provider := realsense.NewSimProvider(serials...)
	detector := detect.NewStaticDetector(1)
	m, err := observability.NewMetrics()
	require.NoError(t, err)

	h, err := New(Options{
		Settings: settings,
		Provider: provider,
		Detector: detector,
		Metrics:  m,
	})
	require.NoError(t, err)

	f := &hubFixture{
		hub:      h,
		provider: provider,
		detector: detector,
		metrics:  m,
		data:     data,
		done:     make(chan error, 1),
	}
	go func() { f.done <- h.Run() }()
	t.Cleanup(func() {
		h.Shutdown()
		select {
		case <-f.done:
		case <-time.After(5 * time.Second):
			t.Error("hub did not stop within timeout")
		}
	})

	f.waitForDevices(t, len(serials))
	return f
}

func (f *hubFixture) waitForDevices(t *testing.T, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if len(f.hub.registry.List()) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("hub never saw %d devices", want)
}

func (f *hubFixture) sendCommand(t *testing.T, payload string) {
	t.Helper()
	conn, err := net.Dial("udp", f.hub.CmdAddr().String())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte(payload))
	require.NoError(t, err)
}

// readSnapshot blocks until a snapshot_counts payload arrives on the data
// listener.
func (f *hubFixture) readSnapshot(t *testing.T, timeout time.Duration) *protocol.Snapshot {
	t.Helper()
	buf := make([]byte, 65535)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		require.NoError(t, f.data.SetReadDeadline(deadline))
		n, _, err := f.data.ReadFromUDP(buf)
		if err != nil {
			break
		}
		var snap protocol.Snapshot
		if json.Unmarshal(buf[:n], &snap) == nil && snap.Type == protocol.TypeSnapshotCounts {
			return &snap
		}
	}
	t.Fatal("no snapshot received before timeout")
	return nil
}

func TestCaptureCommandPublishesSnapshot(t *testing.T) {
	f := newHubFixture(t, "CAM1", "CAM2", "CAM3")

	f.sendCommand(t, `{"cmd":"capture"}`)
	snap := f.readSnapshot(t, 3*time.Second)

	assert.Equal(t, protocol.Schema, snap.Schema)
	require.Len(t, snap.Sensors, 3)
	assert.Equal(t, "SENSORE001", snap.Sensors[0].ID)
	assert.Equal(t, "SENSORE002", snap.Sensors[1].ID)
	assert.Equal(t, "SENSORE003", snap.Sensors[2].ID)
	for _, s := range snap.Sensors {
		assert.Equal(t, 1, s.Count)
	}
}

func TestPartialDeviceFailure(t *testing.T) {
	f := newHubFixture(t, "CAM1", "CAM2", "CAM3")

	f.provider.SetFailing("CAM2", true)
	f.sendCommand(t, `{"cmd":"capture"}`)
	snap := f.readSnapshot(t, 3*time.Second)

	// the failed device is dropped for this tick, the rest still publish
	require.Len(t, snap.Sensors, 2)
	assert.Equal(t, "SENSORE001", snap.Sensors[0].ID)
	assert.Equal(t, "SENSORE002", snap.Sensors[1].ID)
}

func TestCaptureFailureMetricTracksAttemptedDevices(t *testing.T) {
	f := newHubFixture(t, "CAM1", "CAM2", "CAM3")

	f.provider.SetFailing("CAM2", true)
	f.sendCommand(t, `{"cmd":"capture"}`)
	f.readSnapshot(t, 3*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Hub.CaptureFailures))
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.Hub.DevicesLive))

	// a device vanishing must never decrease the failure counter: the
	// count is taken against the device set the capture actually saw
	f.provider.Detach("CAM2")
	f.waitForDevices(t, 2)
	f.sendCommand(t, `{"cmd":"capture"}`)
	f.readSnapshot(t, 3*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Hub.CaptureFailures))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Hub.DevicesLive))
}

func TestNoDevicesPublishesEmptySnapshot(t *testing.T) {
	f := newHubFixture(t)

	f.sendCommand(t, `{"cmd":"capture"}`)
	snap := f.readSnapshot(t, 3*time.Second)

	assert.Equal(t, protocol.TypeSnapshotCounts, snap.Type)
	assert.Empty(t, snap.Sensors)
}

func TestSetIntervalStartsTicking(t *testing.T) {
	f := newHubFixture(t, "CAM1")

	// idle hub, then enable a fast schedule at runtime
	f.sendCommand(t, `{"cmd":"set_interval","seconds":0.05}`)

	first := f.readSnapshot(t, 3*time.Second)
	second := f.readSnapshot(t, 3*time.Second)
	assert.Greater(t, second.Timestamp, first.Timestamp)

	// back to idle
	f.sendCommand(t, `{"cmd":"set_interval","seconds":0}`)
}

func TestListSensorsCommand(t *testing.T) {
	f := newHubFixture(t, "CAM1", "CAM2")

	f.sendCommand(t, `{"cmd":"list_sensors"}`)

	buf := make([]byte, 65535)
	require.NoError(t, f.data.SetReadDeadline(time.Now().Add(3*time.Second)))
	var list protocol.SensorList
	for {
		n, _, err := f.data.ReadFromUDP(buf)
		require.NoError(t, err)
		if json.Unmarshal(buf[:n], &list) == nil && list.Type == protocol.TypeSensorList {
			break
		}
	}
	assert.Equal(t, []string{"CAM1", "CAM2"}, list.Serials)
}

func TestShutdownCommandStopsHub(t *testing.T) {
	f := newHubFixture(t, "CAM1")

	f.sendCommand(t, `{"cmd":"shutdown"}`)
	select {
	case err := <-f.done:
		require.NoError(t, err)
		f.done <- err // keep the cleanup path happy
	case <-time.After(5 * time.Second):
		t.Fatal("hub did not stop on shutdown command")
	}

	// repeat shutdowns are no-ops
	f.hub.Shutdown()
	f.hub.Shutdown()
}

func TestRuntimeCommandsMutateState(t *testing.T) {
	f := newHubFixture(t, "CAM1")

	f.sendCommand(t, `{"cmd":"set_conf","conf":0.8}`)
	waitFor(t, func() bool { return f.detector.Confidence() == 0.8 })

	f.sendCommand(t, `{"cmd":"toggle_depth_input","enabled":true}`)
	waitFor(t, func() bool {
		f.hub.mu.Lock()
		defer f.hub.mu.Unlock()
		return f.hub.useDepthInput
	})

	f.sendCommand(t, `{"cmd":"set_depth_range","min_mm":400,"max_mm":2000}`)
	waitFor(t, func() bool {
		rng := f.hub.calibrator.Range()
		return rng.MinMM == 400 && rng.MaxMM == 2000
	})

	// partial update keeps the other bound
	f.sendCommand(t, `{"cmd":"set_depth_range","max_mm":3000}`)
	waitFor(t, func() bool {
		rng := f.hub.calibrator.Range()
		return rng.MinMM == 400 && rng.MaxMM == 3000
	})

	// inverted range is rejected, prior value kept
	f.sendCommand(t, `{"cmd":"set_depth_range","min_mm":3500}`)
	time.Sleep(200 * time.Millisecond)
	rng := f.hub.calibrator.Range()
	assert.Equal(t, 400, rng.MinMM)
	assert.Equal(t, 3000, rng.MaxMM)

	// auto depth defaults to enabled when the parameter is absent
	f.sendCommand(t, `{"cmd":"set_auto_depth"}`)
	waitFor(t, func() bool {
		f.hub.mu.Lock()
		defer f.hub.mu.Unlock()
		return f.hub.autoDepth
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition never met")
}
