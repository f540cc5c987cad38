// validate.go: sanity checks applied to settings after unmarshaling.
package conf

import (
	"fmt"
)

// ValidateSettings checks the loaded settings for values the processes
// cannot start with. Runtime-tunable values are not validated here, invalid
// runtime updates are rejected at the point of use instead.
func ValidateSettings(settings *Settings) error {
	if err := validateHubSettings(&settings.Hub); err != nil {
		return err
	}
	return validateRouterSettings(&settings.Router)
}

func validateHubSettings(hub *HubSettings) error {
	if hub.DataPort <= 0 || hub.DataPort > 65535 {
		return fmt.Errorf("hub.dataport out of range: %d", hub.DataPort)
	}
	if hub.CmdPort <= 0 || hub.CmdPort > 65535 {
		return fmt.Errorf("hub.cmdport out of range: %d", hub.CmdPort)
	}
	if hub.Capture.Width <= 0 || hub.Capture.Height <= 0 {
		return fmt.Errorf("invalid capture resolution: %dx%d", hub.Capture.Width, hub.Capture.Height)
	}
	if hub.Capture.FPS <= 0 {
		return fmt.Errorf("invalid capture frame rate: %d", hub.Capture.FPS)
	}
	if hub.Detector.Confidence < 0 || hub.Detector.Confidence > 1 {
		return fmt.Errorf("hub.detector.confidence must be within [0, 1]: %f", hub.Detector.Confidence)
	}
	if hub.Depth.MaxMM <= hub.Depth.MinMM {
		return fmt.Errorf("hub.depth.maxmm (%d) must be greater than hub.depth.minmm (%d)",
			hub.Depth.MaxMM, hub.Depth.MinMM)
	}
	if hub.Depth.PLow < 0 || hub.Depth.PHigh > 100 || hub.Depth.PLow >= hub.Depth.PHigh {
		return fmt.Errorf("invalid auto-depth percentiles: low=%f high=%f", hub.Depth.PLow, hub.Depth.PHigh)
	}
	return nil
}

func validateRouterSettings(router *RouterSettings) error {
	if router.DataPort <= 0 || router.DataPort > 65535 {
		return fmt.Errorf("router.dataport out of range: %d", router.DataPort)
	}
	if router.CmdPort <= 0 || router.CmdPort > 65535 {
		return fmt.Errorf("router.cmdport out of range: %d", router.CmdPort)
	}
	if router.OSC.InPort <= 0 || router.OSC.InPort > 65535 {
		return fmt.Errorf("router.osc.inport out of range: %d", router.OSC.InPort)
	}
	return nil
}
