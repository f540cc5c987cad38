package router

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/conf"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/router"
)

// Command creates a new command for the selection and dispatch router.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "router",
		Short: "Run the selection and dispatch router",
		Long:  "Listen for scene-ended events, request a fresh capture from the hub and launch the show-control column of the busiest zone.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return router.Run(settings)
		},
	}

	// Set up flags specific to the 'router' command
	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the router command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Router.HubHost, "hubhost", viper.GetString("router.hubhost"), "Hub host for outbound capture commands")
	cmd.Flags().IntVar(&settings.Router.DataPort, "dataport", viper.GetInt("router.dataport"), "Local port for inbound snapshot payloads")
	cmd.Flags().IntVar(&settings.Router.CmdPort, "cmdport", viper.GetInt("router.cmdport"), "Hub command port")
	cmd.Flags().IntVar(&settings.Router.OSC.InPort, "oscinport", viper.GetInt("router.osc.inport"), "Local port for inbound scene-ended events")
	cmd.Flags().StringVar(&settings.Router.OSC.MilluminHost, "milluminhost", viper.GetString("router.osc.milluminhost"), "Show-control host for launch commands")
	cmd.Flags().IntVar(&settings.Router.OSC.MilluminPort, "milluminport", viper.GetInt("router.osc.milluminport"), "Show-control port for launch commands")
	cmd.Flags().BoolVar(&settings.Router.OSC.Dispatch, "dispatch", viper.GetBool("router.osc.dispatch"), "Actually send launch commands to the show controller")
	cmd.Flags().BoolVar(&settings.Router.Telemetry.Enabled, "telemetry", viper.GetBool("router.telemetry.enabled"), "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Router.Telemetry.Listen, "listen", viper.GetString("router.telemetry.listen"), "Listen address and port of telemetry endpoint")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
