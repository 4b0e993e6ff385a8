// Package cmd holds the analyzer command tree.
package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "analyzer",
	Short: "NSE stock analyzer: sliding-window price tracking and signal alerts",
	Long: `analyzer polls NSE equity quotes into per-instrument sliding windows,
derives trend and crash-drawdown signals, and serves live chart state to
UI clients over WebSocket. Weekly and daily reports run on cron schedules
or on demand.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to YAML config file")

	rootCmd.AddCommand(
		newRunCmd(),
		newReportCmd(),
		newVersionCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
