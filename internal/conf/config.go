// config.go: settings struct and functions to load and access the application configuration.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// LogConfig describes a rotating file log target.
type LogConfig struct {
	Enabled bool   // true to enable this log target
	Path    string // path to log file
	MaxSize int64  // max size of log file in bytes before rotation
}

// MainSettings contains process-wide settings shared by hub and router.
type MainSettings struct {
	Name string    // client id used in logs and MQTT
	Log  LogConfig // main log settings
}

// CaptureSettings contains depth camera stream settings.
type CaptureSettings struct {
	Width    int      // stream width in pixels
	Height   int      // stream height in pixels
	FPS      int      // stream frame rate
	Simulate bool     // use simulated cameras instead of the RealSense SDK
	Serials  []string // serials presented by the simulated provider
}

// DetectorSettings contains person detection model settings.
type DetectorSettings struct {
	ModelPath   string  // path to TFLite person detection model
	Confidence  float64 // detection confidence threshold
	InputWidth  int     // model input width
	InputHeight int     // model input height
	Threads     int     // 0 to use all available CPUs
	UseXNNPACK  bool    // true to enable XNNPACK delegate
}

// DepthSettings contains depth clipping and auto-calibration settings.
type DepthSettings struct {
	MinMM      int     // lower depth clip bound in millimeters
	MaxMM      int     // upper depth clip bound in millimeters
	Auto       bool    // auto-calibrate clip bounds from live frames
	PLow       float64 // low percentile for auto-calibration
	PHigh      float64 // high percentile for auto-calibration
	RefreshSec float64 // if >0, recalibrate every N seconds
}

// ExportSettings controls best-effort persistence of per-tick artifacts.
type ExportSettings struct {
	Enabled bool   // save annotated frames and the session event log
	Path    string // root directory for session directories
}

// TelemetrySettings contains Prometheus endpoint settings.
type TelemetrySettings struct {
	Enabled bool   // true to enable Prometheus metrics endpoint
	Listen  string // listen address and port, e.g. "0.0.0.0:8090"
}

// MQTTSettings contains the optional MQTT snapshot mirror settings.
type MQTTSettings struct {
	Enabled  bool   // true to mirror snapshots to MQTT
	Broker   string // MQTT broker URL
	Topic    string // topic to publish snapshots to
	Username string // MQTT username
	Password string // MQTT password
}

// HubSettings contains all settings for the capture/aggregation hub process.
type HubSettings struct {
	Host          string  // destination host for UDP data payloads
	DataPort      int     // destination port for UDP data payloads
	CmdPort       int     // local port for inbound UDP commands
	Interval      float64 // auto-capture interval in seconds, 0 = on command only
	UseDepthInput bool    // feed processed depth instead of color to the detector

	Capture   CaptureSettings
	Detector  DetectorSettings
	Depth     DepthSettings
	Export    ExportSettings
	Telemetry TelemetrySettings
	MQTT      MQTTSettings
}

// OSCSettings contains the show-control OSC endpoints of the router.
type OSCSettings struct {
	InPort       int    // local port for inbound scene-ended events
	MilluminHost string // show-control host for launch commands
	MilluminPort int    // show-control port for launch commands
	Dispatch     bool   // true to actually send launch commands
}

// RouterSettings contains all settings for the selection/dispatch router process.
type RouterSettings struct {
	HubHost  string // hub host for outbound capture commands
	DataPort int    // local port for inbound snapshot payloads
	CmdPort  int    // hub command port

	OSC       OSCSettings
	Telemetry TelemetrySettings
}

// Settings is the root configuration of the application.
type Settings struct {
	Debug bool // true to enable debug level logging

	Main   MainSettings
	Hub    HubSettings
	Router RouterSettings
}

// Load reads the configuration into a freshly allocated Settings struct.
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return settings, nil
}

// initViper sets defaults, locates the config file and reads it. A missing
// config file is not an error, the embedded defaults are written in its place.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !os.IsNotExist(err) && !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("fatal error reading config file: %w", err)
		}
		return createDefaultConfig(configPaths[0])
	}
	return nil
}

// createDefaultConfig writes the embedded default config file to disk.
func createDefaultConfig(configPath string) error {
	defaultConfig, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded default config: %w", err)
	}

	if err := os.MkdirAll(configPath, 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	target := filepath.Join(configPath, "config.yaml")
	if err := os.WriteFile(target, defaultConfig, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	log.Printf("Created default config file at %s", target)
	return viper.ReadInConfig()
}

// GetDefaultConfigPaths returns the candidate directories for the config file,
// most specific first.
func GetDefaultConfigPaths() ([]string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return []string{"."}, nil //nolint:nilerr // fall back to working directory
	}
	return []string{
		".",
		filepath.Join(configDir, "peoplecount"),
	}, nil
}
