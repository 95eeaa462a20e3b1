// Package cmd defines the birdwatch command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/birdwatch-go/cmd/analyze"
	"github.com/tphakala/birdwatch-go/cmd/realtime"
	"github.com/tphakala/birdwatch-go/cmd/stats"
	"github.com/tphakala/birdwatch-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "birdwatch",
		Short: "BirdWatch-Go CLI",
		Long:  "Camera and microphone based bird watcher: motion detection, acoustic species identification and sighting tracking.",
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		realtime.Command(settings),
		analyze.Command(settings),
		stats.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags configures the global flags for the root command.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().Float64Var(&settings.Main.Latitude, "latitude", viper.GetFloat64("main.latitude"), "Latitude of the watcher station")
	rootCmd.PersistentFlags().Float64Var(&settings.Main.Longitude, "longitude", viper.GetFloat64("main.longitude"), "Longitude of the watcher station")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
	}
}
