// Package protocol defines the UDP JSON wire format shared by the hub and
// the router, the inbound command server and the outbound data publisher.
package protocol

import (
	"time"
)

// Schema is the schema tag carried by every data payload.
const Schema = "people_count_v1"

// Payload types.
const (
	TypeSnapshotCounts = "snapshot_counts"
	TypeSensorList     = "sensor_list"
)

// SensorCount is one per-sensor entry of a snapshot.
type SensorCount struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// Snapshot is the per-tick aggregated sensor-count payload. Immutable once
// built, safe to share across goroutines.
type Snapshot struct {
	Schema    string        `json:"schema"`
	Type      string        `json:"type"`
	Timestamp float64       `json:"timestamp"` // unix seconds
	Sensors   []SensorCount `json:"sensors"`
}

// SensorList is the payload answering a list_sensors command.
type SensorList struct {
	Schema    string   `json:"schema"`
	Type      string   `json:"type"`
	Timestamp float64  `json:"timestamp"` // unix seconds
	Serials   []string `json:"serials"`
}

// Command verbs accepted on the command channel.
const (
	CmdCapture          = "capture"
	CmdSetInterval      = "set_interval"
	CmdListSensors      = "list_sensors"
	CmdSetConf          = "set_conf"
	CmdToggleDepthInput = "toggle_depth_input"
	CmdSetDepthRange    = "set_depth_range"
	CmdSetAutoDepth     = "set_auto_depth"
	CmdShutdown         = "shutdown"
)

// Command is a tagged verb with optional parameters. Pointer fields
// distinguish absent parameters from zero values, absent parameters fall
// back to the current runtime value.
type Command struct {
	Cmd     string   `json:"cmd"`
	Seconds *float64 `json:"seconds,omitempty"`
	Conf    *float64 `json:"conf,omitempty"`
	Enabled *bool    `json:"enabled,omitempty"`
	MinMM   *int     `json:"min_mm,omitempty"`
	MaxMM   *int     `json:"max_mm,omitempty"`
}

// Timestamp returns the wall clock as unix seconds, the timestamp
// representation used on the wire.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
