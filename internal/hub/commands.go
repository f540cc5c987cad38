// commands.go: application of inbound runtime commands against shared hub
// state.
package hub

import (
	"time"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/protocol"
)

// applyCommand applies one queued command. Missing or invalid parameters
// fall back to the current value, unknown verbs are ignored.
func (h *Hub) applyCommand(cmd protocol.Command) {
	if h.metrics != nil {
		h.metrics.Hub.CommandsProcessed.WithLabelValues(cmd.Cmd).Inc()
	}

	switch cmd.Cmd {
	case protocol.CmdCapture:
		// immediate tick, the timer schedule is not touched
		h.tick(time.Now())

	case protocol.CmdSetInterval:
		h.applySetInterval(cmd)

	case protocol.CmdListSensors:
		h.publisher.SendJSON(protocol.SensorList{
			Schema:    protocol.Schema,
			Type:      protocol.TypeSensorList,
			Timestamp: protocol.Timestamp(time.Now()),
			Serials:   h.registry.List(),
		})

	case protocol.CmdSetConf:
		if cmd.Conf != nil {
			h.detector.SetConfidence(*cmd.Conf)
			GetLogger().Info("confidence threshold set", "conf", *cmd.Conf)
		}

	case protocol.CmdToggleDepthInput:
		h.mu.Lock()
		if cmd.Enabled != nil {
			h.useDepthInput = *cmd.Enabled
		}
		enabled := h.useDepthInput
		h.mu.Unlock()
		GetLogger().Info("depth input toggled", "enabled", enabled)

	case protocol.CmdSetDepthRange:
		h.applySetDepthRange(cmd)

	case protocol.CmdSetAutoDepth:
		enabled := true
		if cmd.Enabled != nil {
			enabled = *cmd.Enabled
		}
		h.mu.Lock()
		h.autoDepth = enabled
		h.mu.Unlock()
		GetLogger().Info("auto depth toggled", "enabled", enabled)

	case protocol.CmdShutdown:
		GetLogger().Info("shutdown command received")
		h.Shutdown()

	default:
		GetLogger().Debug("ignoring unknown command", "cmd", cmd.Cmd)
	}
}

func (h *Hub) applySetInterval(cmd protocol.Command) {
	h.mu.Lock()
	defer h.mu.Unlock()

	seconds := h.interval
	if cmd.Seconds != nil {
		seconds = *cmd.Seconds
	}
	if seconds < 0 {
		seconds = 0
	}
	h.interval = seconds
	h.deadline = nextDeadline(time.Now(), seconds)
	GetLogger().Info("capture interval set", "seconds", seconds)
}

func (h *Hub) applySetDepthRange(cmd protocol.Command) {
	cur := h.calibrator.Range()
	minMM, maxMM := cur.MinMM, cur.MaxMM
	if cmd.MinMM != nil {
		minMM = *cmd.MinMM
	}
	if cmd.MaxMM != nil {
		maxMM = *cmd.MaxMM
	}
	if err := h.calibrator.SetRange(minMM, maxMM); err != nil {
		GetLogger().Warn("depth range command rejected", "min_mm", minMM, "max_mm", maxMM, "error", err)
		return
	}
	GetLogger().Info("depth range set", "min_mm", minMM, "max_mm", maxMM)
}
