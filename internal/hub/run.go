// run.go: process entry point wiring the hub from settings.
package hub

import (
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/assemble"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/calibrate"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/conf"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/detect"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/mqtt"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/observability"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/protocol"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/realsense"
)

// Run builds the hub from settings and blocks until shutdown. The detection
// backend being unavailable is a fatal startup failure, the process cannot
// run without it.
func Run(settings *conf.Settings) error {
	defer closeProcessLoggers()

	provider, err := realsense.NewProvider(&settings.Hub.Capture)
	if err != nil {
		return err
	}

	var detector detect.Detector
	if settings.Hub.Capture.Simulate {
		// simulation runs without a model, counts come from the blob frame
		detector = detect.NewStaticDetector(1)
	} else {
		detector, err = detect.NewTFLiteDetector(&settings.Hub.Detector)
		if err != nil {
			return err
		}
	}
	defer detector.Close()

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	var mqttClient mqtt.Client
	if settings.Hub.MQTT.Enabled {
		mqttClient = mqtt.NewClient(settings)
	}

	h, err := New(Options{
		Settings: settings,
		Provider: provider,
		Detector: detector,
		Metrics:  metrics,
		MQTT:     mqttClient,
	})
	if err != nil {
		return err
	}
	return h.Run()
}

// closeProcessLoggers flushes and closes the per-package log files of the
// hub process on the way out.
func closeProcessLoggers() {
	for _, closeFn := range []func() error{
		realsense.CloseLogger,
		calibrate.CloseLogger,
		detect.CloseLogger,
		assemble.CloseLogger,
		protocol.CloseLogger,
	} {
		if err := closeFn(); err != nil {
			GetLogger().Warn("failed to close log file", "error", err)
		}
	}
	_ = CloseLogger()
}
