package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "worship-server",
	Short: "Worship presentation server: profiles, sheet catalog, real-time session relay",
	Long:  `HTTP + WebSocket API. Commands: api, seed.`,
	RunE:  runAPI, // default: run API (same as "worship-server api")
}

func init() {
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(seedCmd)
}

// Execute runs the root command and returns the error (for main to log.Fatal.)
func Execute() error {
	return rootCmd.Execute()
}
