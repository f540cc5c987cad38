// Package router implements the selection and dispatch side of the people
// counting system: it caches snapshots from the hub, and on a scene-ended
// event runs a capture handshake, picks the busiest zone and launches the
// matching show-control column.
package router

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/conf"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/observability"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/protocol"
)

// Router owns the snapshot listener, the trigger server and the handshake.
type Router struct {
	settings  *conf.Settings
	cache     *SnapshotCache
	listener  *snapshotListener
	trigger   *triggerServer
	handshake *Handshake
	publisher *protocol.Publisher

	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

// New builds a router from settings, binding its sockets. The returned
// router is not yet receiving, call Run.
func New(settings *conf.Settings, metrics *observability.Metrics) (*Router, error) {
	rs := &settings.Router

	publisher, err := protocol.NewPublisher(rs.HubHost, rs.CmdPort)
	if err != nil {
		return nil, err
	}

	cache := &SnapshotCache{}
	listener, err := newSnapshotListener(rs.DataPort, cache, metrics.Router)
	if err != nil {
		publisher.Close()
		return nil, err
	}

	var control ShowControl
	if rs.OSC.Dispatch {
		control = NewShowControl(rs.OSC.MilluminHost, rs.OSC.MilluminPort)
	}
	handshake := NewHandshake(publisher, cache, control, rs.OSC.Dispatch, metrics.Router)

	r := &Router{
		settings:  settings,
		cache:     cache,
		listener:  listener,
		handshake: handshake,
		publisher: publisher,
		quit:      make(chan struct{}),
	}

	trigger, err := newTriggerServer(rs.OSC.InPort, r.onSceneEnded)
	if err != nil {
		listener.stop()
		publisher.Close()
		return nil, err
	}
	r.trigger = trigger
	return r, nil
}

// Run starts all loops and blocks until a shutdown signal arrives.
func (r *Router) Run() error {
	rs := &r.settings.Router
	GetLogger().Info("router starting",
		"data_port", rs.DataPort,
		"osc_in_port", rs.OSC.InPort,
		"hub", rs.HubHost,
		"hub_cmd_port", rs.CmdPort,
		"millumin", rs.OSC.MilluminHost,
		"millumin_port", rs.OSC.MilluminPort,
		"dispatch", rs.OSC.Dispatch)

	r.listener.start()
	r.trigger.start()
	r.monitorSignals()

	<-r.quit

	r.trigger.stop()
	r.listener.stop()
	r.publisher.Close()
	r.wg.Wait()
	GetLogger().Info("router stopped")
	return nil
}

// Shutdown requests a stop. Safe to call more than once.
func (r *Router) Shutdown() {
	r.quitOnce.Do(func() { close(r.quit) })
}

// onSceneEnded handles one trigger event. Handshake failures leave the
// router fully live for the next event.
func (r *Router) onSceneEnded(base string) {
	if _, err := r.handshake.HandleSceneEnded(base); err != nil {
		GetLogger().Warn("handshake failed", "scene", base, "error", err)
	}
}

func (r *Router) monitorSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		select {
		case sig := <-sigChan:
			GetLogger().Info("received signal, shutting down", "signal", sig.String())
			r.Shutdown()
		case <-r.quit:
		}
		signal.Stop(sigChan)
	}()
}

// Run builds a router from settings and blocks until shutdown.
func Run(settings *conf.Settings) error {
	defer func() {
		if err := protocol.CloseLogger(); err != nil {
			GetLogger().Warn("failed to close log file", "error", err)
		}
		_ = CloseLogger()
	}()

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	r, err := New(settings, metrics)
	if err != nil {
		return err
	}

	if settings.Router.Telemetry.Enabled {
		endpoint := observability.NewEndpoint(settings.Router.Telemetry.Listen, metrics)
		endpoint.Start(&r.wg, r.quit)
	}

	return r.Run()
}
