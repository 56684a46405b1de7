// Package main implements the datagroom command line interface.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/datagroom/datagroom/internal/config"
)

// Build information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
)

// Global flags
var (
	configFile string
	dataDir    string
)

var rootCmd = &cobra.Command{
	Use:   "datagroom",
	Short: "Datagroom - prompt-driven tabular data cleaning",
	Long: `Datagroom cleans tabular data from natural language instructions.

A prompt like "remove duplicates and fill missing age with the mean" is
translated into typed cleaning rules and applied to a CSV file. Every run
records what was done; cleaned datasets are stored locally and can be
archived to object storage.

Examples:
  # Clean a file and keep the result
  datagroom clean --file sales.csv --prompt "remove duplicates"

  # Run the HTTP API with the retention daemon
  datagroom serve --addr :8080

  # Inspect stored datasets
  datagroom history
  datagroom show sales

Environment Variables:
  DATAGROOM_DATA_DIR       Base directory for data files
  DATAGROOM_HTTP_ADDR      HTTP listen address
  DATAGROOM_STORAGE_TYPE   Archive storage type (local, s3)
  GEMINI_API_KEY           Enables the semantic prompt parser`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("datagroom version %s (commit: %s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Base directory for all data files")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig builds the effective configuration: defaults or file, then
// environment, then flags (highest priority). A .env file is loaded first so
// GEMINI_API_KEY can live next to the data.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
