// osc.go: OSC trigger input and show-control dispatch via go-osc.
package router

import (
	"fmt"
	"net"

	"github.com/hypebeast/go-osc/osc"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/errors"
)

// SceneEndedAddress is the OSC address the show controller sends when a
// scene finishes playing. The first argument is the base scene name.
const SceneEndedAddress = "/router/sceneEnded"

// LaunchColumnAddress is the OSC address used to start the selected scene.
const LaunchColumnAddress = "/millumin/action/launchColumn"

// ShowControl launches a scene on the show controller.
type ShowControl interface {
	LaunchScene(target string) error
}

// oscShowControl sends launchColumn messages to a Millumin-style endpoint.
type oscShowControl struct {
	client *osc.Client
}

// NewShowControl returns a ShowControl backed by an OSC client.
func NewShowControl(host string, port int) ShowControl {
	return &oscShowControl{client: osc.NewClient(host, port)}
}

func (s *oscShowControl) LaunchScene(target string) error {
	msg := osc.NewMessage(LaunchColumnAddress)
	msg.Append(target)
	if err := s.client.Send(msg); err != nil {
		return errors.New(fmt.Errorf("failed to send launch message: %w", err)).
			Component("router").
			Category(errors.CategoryOSC).
			Context("target", target).
			Build()
	}
	GetLogger().Info("scene launched", "target", target)
	return nil
}

// triggerServer listens for scene-ended OSC messages and invokes the
// handler with the base scene name carried as the first string argument.
type triggerServer struct {
	conn   net.PacketConn
	server *osc.Server
	done   chan struct{}
}

func newTriggerServer(port int, onSceneEnded func(base string)) (*triggerServer, error) {
	conn, err := net.ListenPacket("udp", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to bind OSC socket on port %d: %w", port, err)).
			Component("router").
			Category(errors.CategoryNetwork).
			Context("port", port).
			Build()
	}

	dispatcher := osc.NewStandardDispatcher()
	if err := dispatcher.AddMsgHandler(SceneEndedAddress, func(msg *osc.Message) {
		base := ""
		if len(msg.Arguments) > 0 {
			if s, ok := msg.Arguments[0].(string); ok {
				base = s
			}
		}
		if base == "" {
			GetLogger().Warn("scene-ended message without a scene name, ignoring")
			return
		}
		onSceneEnded(base)
	}); err != nil {
		_ = conn.Close()
		return nil, errors.New(fmt.Errorf("failed to register OSC handler: %w", err)).
			Component("router").
			Category(errors.CategoryOSC).
			Build()
	}

	t := &triggerServer{
		conn:   conn,
		server: &osc.Server{Dispatcher: dispatcher},
		done:   make(chan struct{}),
	}
	return t, nil
}

func (t *triggerServer) start() {
	go func() {
		defer close(t.done)
		// Serve returns when the connection is closed during shutdown.
		if err := t.server.Serve(t.conn); err != nil {
			GetLogger().Debug("OSC server stopped", "error", err)
		}
	}()
}

func (t *triggerServer) stop() {
	_ = t.conn.Close()
	<-t.done
}
