package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/datagroom/datagroom/internal/app"
	"github.com/datagroom/datagroom/internal/config"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the retention daemon",
	Long: `Run the datagroom service: the JSON HTTP API for cleaning, dataset
history, export, and archiving, plus the background retention daemon that
prunes stored datasets past their configured age.

The server stops gracefully on SIGINT or SIGTERM: new requests are rejected
while in-flight cleaning runs get time to finish.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.HTTP.Addr = serveAddr
	}

	printBanner(cfg)

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	if err := application.Start(cmd.Context()); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	// Blocks until SIGINT/SIGTERM, then rejects new requests and drains the
	// in-flight ones before the full teardown below.
	if err := application.WaitForShutdown(cmd.Context()); err != nil {
		application.Logger().Warn("shutdown drain error", zap.Error(err))
	}

	return application.Stop(context.Background())
}

// printBanner prints the startup banner with a configuration summary.
func printBanner(cfg *config.Config) {
	fmt.Println("╔════════════════════════════════════════════════╗")
	fmt.Println("║                   DATAGROOM                    ║")
	fmt.Println("║      Prompt-driven tabular data cleaning       ║")
	fmt.Println("╚════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("  Addr:      %s\n", cfg.HTTP.Addr)
	fmt.Printf("  Data Dir:  %s\n", cfg.DataDir)
	fmt.Printf("  Storage:   %s\n", cfg.Storage.Type)
	fmt.Printf("  Semantic:  %t\n", cfg.Parser.SemanticEnabled())
	if cfg.Retention.Enabled {
		fmt.Printf("  Retention: %d days, swept every %s\n", cfg.Retention.TTLDays, cfg.Retention.CheckInterval)
	} else {
		fmt.Printf("  Retention: disabled\n")
	}
	fmt.Println()
}
