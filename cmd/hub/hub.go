package hub

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/conf"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/hub"
)

// Command creates a new command for the capture and aggregation hub.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hub",
		Short: "Run the capture and aggregation hub",
		Long:  "Manage the depth cameras, run person detection on captured frames and publish per-sensor counts over UDP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return hub.Run(settings)
		},
	}

	// Set up flags specific to the 'hub' command
	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the hub command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Hub.Host, "host", viper.GetString("hub.host"), "Destination host for snapshot payloads")
	cmd.Flags().IntVar(&settings.Hub.DataPort, "dataport", viper.GetInt("hub.dataport"), "Destination port for snapshot payloads")
	cmd.Flags().IntVar(&settings.Hub.CmdPort, "cmdport", viper.GetInt("hub.cmdport"), "Local port for inbound commands")
	cmd.Flags().Float64Var(&settings.Hub.Interval, "interval", viper.GetFloat64("hub.interval"), "Auto-capture interval in seconds, 0 captures on command only")
	cmd.Flags().BoolVar(&settings.Hub.UseDepthInput, "depthinput", viper.GetBool("hub.usedepthinput"), "Feed processed depth instead of color to the detector")
	cmd.Flags().BoolVar(&settings.Hub.Capture.Simulate, "simulate", viper.GetBool("hub.capture.simulate"), "Use simulated cameras instead of the RealSense SDK")
	cmd.Flags().StringVar(&settings.Hub.Detector.ModelPath, "model", viper.GetString("hub.detector.modelpath"), "Path to the person detection model")
	cmd.Flags().Float64Var(&settings.Hub.Detector.Confidence, "confidence", viper.GetFloat64("hub.detector.confidence"), "Detection confidence threshold between 0.0 and 1.0")
	cmd.Flags().IntVar(&settings.Hub.Depth.MinMM, "minmm", viper.GetInt("hub.depth.minmm"), "Lower depth clip bound in millimeters")
	cmd.Flags().IntVar(&settings.Hub.Depth.MaxMM, "maxmm", viper.GetInt("hub.depth.maxmm"), "Upper depth clip bound in millimeters")
	cmd.Flags().BoolVar(&settings.Hub.Depth.Auto, "autodepth", viper.GetBool("hub.depth.auto"), "Auto-calibrate depth clip bounds from live frames")
	cmd.Flags().BoolVar(&settings.Hub.Export.Enabled, "export", viper.GetBool("hub.export.enabled"), "Save annotated frames and the session event log")
	cmd.Flags().StringVar(&settings.Hub.Export.Path, "exportpath", viper.GetString("hub.export.path"), "Root directory for session directories")
	cmd.Flags().BoolVar(&settings.Hub.Telemetry.Enabled, "telemetry", viper.GetBool("hub.telemetry.enabled"), "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Hub.Telemetry.Listen, "listen", viper.GetString("hub.telemetry.listen"), "Listen address and port of telemetry endpoint")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
