package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/cmd/hub"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/cmd/router"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "peoplecount",
		Short: "PeopleCount CLI",
		Long:  "Depth camera people counting hub and show-control router.",
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	// Add sub-commands to the root command.
	subcommands := []*cobra.Command{
		hub.Command(settings),
		router.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
