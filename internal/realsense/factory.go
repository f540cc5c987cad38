// factory.go: provider selection based on capture settings.
package realsense

import (
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/conf"
)

// NewProvider returns the capture provider for the given settings. The
// librealsense-backed provider is a platform binding supplied at build
// time; without it only the simulated provider is available.
func NewProvider(settings *conf.CaptureSettings) (Provider, error) {
	if settings.Simulate {
		serials := settings.Serials
		if len(serials) == 0 {
			serials = []string{"SIM001", "SIM002", "SIM003"}
		}
		return NewSimProvider(serials...), nil
	}
	return newSDKProvider()
}
