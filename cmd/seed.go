package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/UniM0cha/gilton-system/internal/config"
	"github.com/UniM0cha/gilton-system/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the data directory and default JSON documents",
	RunE:  runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := store.EnsureDataFiles(cfg.DataDir); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Printf("seed: data directory ready at %s\n", cfg.DataDir)
	return nil
}
