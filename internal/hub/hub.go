// Package hub composes device capture, calibration, detection and
// publishing into the scheduled tick loop of the capture/aggregation
// process.
package hub

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/assemble"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/calibrate"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/conf"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/detect"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/mqtt"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/observability"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/protocol"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/realsense"
)

// yieldInterval is the scheduling loop pause when there is nothing to do.
const yieldInterval = 5 * time.Millisecond

// Options carries the collaborators of a hub. Provider and Detector are
// injectable for tests and simulation.
type Options struct {
	Settings *conf.Settings
	Provider realsense.Provider
	Detector detect.Detector
	Metrics  *observability.Metrics
	MQTT     mqtt.Client // optional snapshot mirror, may be nil
}

// Hub is the orchestrator of the capture/aggregation process. All shared
// runtime state (interval, mode flags) is guarded by one mutex and mutated
// only through commands applied by the scheduling loop.
type Hub struct {
	settings   *conf.Settings
	registry   *realsense.Registry
	calibrator *calibrate.Calibrator
	detector   detect.Detector
	cmdServer  *protocol.CommandServer
	publisher  *protocol.Publisher
	assembler  *assemble.Assembler
	session    *assemble.Session
	metrics    *observability.Metrics
	mqttClient mqtt.Client

	mu            sync.Mutex
	interval      float64 // seconds, <= 0 means idle
	useDepthInput bool
	autoDepth     bool

	deadline time.Time // next scheduled tick, owned by the scheduling loop

	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

// New wires a hub from options: binds the command and data sockets and
// creates the session directory when persistence is enabled. Socket bind
// failures are unrecoverable.
func New(opts Options) (*Hub, error) {
	settings := opts.Settings

	cmdServer, err := protocol.NewCommandServer(settings.Hub.CmdPort)
	if err != nil {
		return nil, err
	}

	publisher, err := protocol.NewPublisher(settings.Hub.Host, settings.Hub.DataPort)
	if err != nil {
		cmdServer.Shutdown()
		return nil, err
	}

	var session *assemble.Session
	if settings.Hub.Export.Enabled {
		session, err = assemble.NewSession(settings.Hub.Export.Path)
		if err != nil {
			// persistence is best effort, run without it
			GetLogger().Warn("failed to create session directory, persistence disabled", "error", err)
			session = nil
		}
	}

	seed := calibrate.Range{MinMM: settings.Hub.Depth.MinMM, MaxMM: settings.Hub.Depth.MaxMM}
	calibrator := calibrate.New(seed,
		settings.Hub.Depth.PLow,
		settings.Hub.Depth.PHigh,
		time.Duration(settings.Hub.Depth.RefreshSec*float64(time.Second)))

	registry := realsense.NewRegistry(opts.Provider, realsense.StreamConfig{
		Width:  settings.Hub.Capture.Width,
		Height: settings.Hub.Capture.Height,
		FPS:    settings.Hub.Capture.FPS,
	})

	return &Hub{
		settings:      settings,
		registry:      registry,
		calibrator:    calibrator,
		detector:      opts.Detector,
		cmdServer:     cmdServer,
		publisher:     publisher,
		assembler:     assemble.New(session),
		session:       session,
		metrics:       opts.Metrics,
		mqttClient:    opts.MQTT,
		interval:      settings.Hub.Interval,
		useDepthInput: settings.Hub.UseDepthInput,
		autoDepth:     settings.Hub.Depth.Auto,
		quit:          make(chan struct{}),
	}, nil
}

// CmdAddr returns the bound command socket address.
func (h *Hub) CmdAddr() net.Addr {
	return h.cmdServer.LocalAddr()
}

// Run starts the background loops and blocks in the scheduling loop until
// shutdown. Teardown runs on this goroutine, never in signal context.
func (h *Hub) Run() error {
	logHostDetails()

	GetLogger().Info("starting hub",
		"interval", h.interval,
		"use_depth_input", h.useDepthInput,
		"auto_depth", h.autoDepth,
		"confidence", h.detector.Confidence(),
		"cmd_port", h.settings.Hub.CmdPort,
		"data_target", fmt.Sprintf("%s:%d", h.settings.Hub.Host, h.settings.Hub.DataPort))

	h.registry.Start()
	h.cmdServer.Start()

	if h.settings.Hub.Telemetry.Enabled && h.metrics != nil {
		endpoint := observability.NewEndpoint(h.settings.Hub.Telemetry.Listen, h.metrics)
		endpoint.Start(&h.wg, h.quit)
	}

	if h.mqttClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := h.mqttClient.Connect(ctx); err != nil {
			GetLogger().Warn("MQTT mirror unavailable", "error", err)
		}
		cancel()
	}

	h.monitorSignals()
	h.schedule()
	h.teardown()
	return nil
}

// schedule is the main loop: at most one command per iteration, a tick when
// the deadline has elapsed, a brief yield otherwise.
func (h *Hub) schedule() {
	h.mu.Lock()
	h.deadline = nextDeadline(time.Now(), h.interval)
	h.mu.Unlock()

	for {
		select {
		case <-h.quit:
			return
		default:
		}

		if cmd, ok := h.cmdServer.Next(); ok {
			h.applyCommand(cmd)
		}

		h.mu.Lock()
		interval := h.interval
		deadline := h.deadline
		h.mu.Unlock()

		now := time.Now()
		if interval > 0 && !now.Before(deadline) {
			h.tick(now)
			h.mu.Lock()
			h.deadline = now.Add(secondsToDuration(interval))
			h.mu.Unlock()
			continue
		}

		time.Sleep(yieldInterval)
	}
}

// Shutdown requests cooperative shutdown. Safe to call concurrently and
// repeatedly, the scheduling loop performs the actual teardown.
func (h *Hub) Shutdown() {
	h.quitOnce.Do(func() {
		close(h.quit)
	})
}

// monitorSignals flips the quit state on SIGINT/SIGTERM. Nothing else
// happens in signal context.
func (h *Hub) monitorSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			GetLogger().Info("received signal, shutting down", "signal", sig.String())
			h.Shutdown()
		case <-h.quit:
		}
		signal.Stop(sigChan)
	}()
}

// teardown runs on the scheduling goroutine after the quit flag is
// observed.
func (h *Hub) teardown() {
	GetLogger().Info("hub shutting down")

	h.cmdServer.Shutdown()
	h.registry.Shutdown()
	h.publisher.Close()
	if h.mqttClient != nil {
		h.mqttClient.Disconnect()
	}
	if h.session != nil {
		h.session.Close(h.assembler.SessionTotal())
	}
	h.wg.Wait()

	GetLogger().Info("hub stopped", "session_total", h.assembler.SessionTotal())
}

// nextDeadline computes the first tick deadline for the given interval. An
// idle hub gets a deadline far in the future.
func nextDeadline(now time.Time, interval float64) time.Time {
	if interval <= 0 {
		return now.Add(100 * 365 * 24 * time.Hour)
	}
	return now.Add(secondsToDuration(interval))
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// logHostDetails logs platform details once at startup.
func logHostDetails() {
	info, err := host.Info()
	if err != nil {
		GetLogger().Warn("error retrieving host info", "error", err)
		return
	}
	GetLogger().Info("system details",
		"os", info.OS,
		"platform", info.Platform,
		"platform_version", info.PlatformVersion)
}
