package router

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/conf"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/observability"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/protocol"
)

func TestRouterLifecycle(t *testing.T) {
	hub := newFakeHub(t)

	settings := &conf.Settings{}
	settings.Router.HubHost = "127.0.0.1"
	settings.Router.CmdPort = hub.port()
	settings.Router.DataPort = 0
	settings.Router.OSC.InPort = 0

	metrics, err := observability.NewMetrics()
	require.NoError(t, err)

	r, err := New(settings, metrics)
	require.NoError(t, err)
	// fast handshake so a lost capture does not stall the test
	r.handshake.timeout = 300 * time.Millisecond
	r.handshake.poll = 5 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- r.Run() }()

	// feed a snapshot through the real listener socket
	dataAddr := r.listener.conn.LocalAddr().String()
	dataConn, err := net.Dial("udp", dataAddr)
	require.NoError(t, err)
	defer dataConn.Close()

	go func() {
		// keep fresh snapshots flowing while the handshake polls
		for i := 0; i < 50; i++ {
			payload, _ := json.Marshal(freshSnapshot(0, 4, 1))
			_, _ = dataConn.Write(payload)
			time.Sleep(20 * time.Millisecond)
		}
	}()

	// trigger a scene-ended event through the real OSC socket
	oscPort := r.trigger.conn.LocalAddr().(*net.UDPAddr).Port
	client := osc.NewClient("127.0.0.1", oscPort)
	msg := osc.NewMessage(SceneEndedAddress)
	msg.Append("1")
	require.NoError(t, client.Send(msg))

	// the capture request reaches the hub
	select {
	case cmd := <-hub.got:
		assert.Equal(t, protocol.CmdCapture, cmd.Cmd)
	case <-time.After(3 * time.Second):
		t.Fatal("hub never received the capture command")
	}

	r.Shutdown()
	r.Shutdown() // idempotent
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("router did not stop")
	}
}

func TestRouterShutdownStopsBackgroundWork(t *testing.T) {
	ignoreExisting := goleak.IgnoreCurrent()

	settings := &conf.Settings{}
	settings.Router.HubHost = "127.0.0.1"
	settings.Router.CmdPort = 9
	settings.Router.DataPort = 0
	settings.Router.OSC.InPort = 0

	metrics, err := observability.NewMetrics()
	require.NoError(t, err)

	r, err := New(settings, metrics)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- r.Run() }()
	time.Sleep(50 * time.Millisecond)

	r.Shutdown()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("router did not stop")
	}

	// every background goroutine, the signal monitor included, is joined
	// before Run returns
	goleak.VerifyNone(t,
		ignoreExisting,
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
		goleak.IgnoreTopFunction("time.Sleep"),
	)
}
