package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/datagroom/datagroom/internal/csvio"
	"github.com/datagroom/datagroom/internal/executor"
	"github.com/datagroom/datagroom/internal/observability"
	"github.com/datagroom/datagroom/internal/parser"
	"github.com/datagroom/datagroom/internal/pipeline"
	"github.com/datagroom/datagroom/internal/store"
)

var (
	cleanFile   string
	cleanPrompt string
	cleanName   string
	cleanOut    string
	cleanNoSave bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean a CSV file from a natural language prompt",
	Long: `Clean a CSV file from a natural language prompt.

The prompt is translated into typed cleaning rules. With GEMINI_API_KEY set
the semantic parser translates it; otherwise the pattern parser handles the
common phrasings. The run is recorded in the dataset store unless --no-save
is given.

Examples:
  datagroom clean --file sales.csv --prompt "remove duplicates"
  datagroom clean --file leads.csv --prompt "fill missing age with mean" --out cleaned.csv
  datagroom clean --file tmp.csv --prompt "drop the email column" --no-save`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().StringVar(&cleanFile, "file", "", "Path to the CSV file to clean")
	cleanCmd.Flags().StringVar(&cleanPrompt, "prompt", "", "Cleaning instructions in natural language")
	cleanCmd.Flags().StringVar(&cleanName, "name", "", "Dataset name (derived from the file name when empty)")
	cleanCmd.Flags().StringVar(&cleanOut, "out", "", "Write the cleaned table to this CSV file")
	cleanCmd.Flags().BoolVar(&cleanNoSave, "no-save", false, "Do not record the run in the dataset store")
	cleanCmd.MarkFlagRequired("file")
	cleanCmd.MarkFlagRequired("prompt")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	csvio.MaxFileSize = cfg.Limits.MaxFileSizeBytes()

	table, info, err := csvio.Load(cleanFile)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %s: %d rows, %d columns (%s)\n", cleanFile, info.Rows, info.Columns, info.Encoding)
	for _, issue := range csvio.Validate(table) {
		fmt.Printf("  note: %s\n", issue)
	}

	var strategies []parser.Strategy
	if cfg.Parser.SemanticEnabled() {
		strategies = append(strategies, parser.NewSemanticStrategy(parser.SemanticOptions{
			Model:       cfg.Parser.Model,
			APIKey:      cfg.Parser.APIKey,
			Endpoint:    cfg.Parser.Endpoint,
			Temperature: cfg.Parser.Temperature,
			Timeout:     cfg.Parser.Timeout,
		}))
	}
	strategies = append(strategies, parser.NewPatternStrategy())
	engine, err := parser.New(strategies...)
	if err != nil {
		return err
	}

	pipe := pipeline.New(engine, executor.New(nil), observability.NewRunStats(), nil)
	summary, err := pipe.Run(cmd.Context(), pipeline.Request{Prompt: cleanPrompt, Table: table})
	if err != nil {
		return err
	}

	fmt.Printf("Parser: %s\n", summary.ParserUsed)
	for _, warning := range summary.Warnings {
		fmt.Printf("  warning: %s\n", warning)
	}
	if len(summary.Actions) == 0 {
		fmt.Println("  no cleaning actions matched the prompt")
	}
	for _, action := range summary.Actions {
		fmt.Printf("  - %s\n", action)
	}
	fmt.Printf("Rows: %d -> %d, Columns: %d -> %d (%s)\n",
		summary.RowsBefore, summary.RowsAfter,
		summary.ColumnsBefore, summary.ColumnsAfter,
		summary.Duration.Round(time.Millisecond))

	if !cleanNoSave {
		st, err := openStoreWith(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		ds, err := st.Save(cmd.Context(), store.SaveRequest{
			Name:         cleanName,
			OriginalFile: filepath.Base(cleanFile),
			Prompt:       cleanPrompt,
			RunID:        summary.RunID,
			ParserUsed:   summary.ParserUsed,
			Rules:        summary.Rules,
			Warnings:     summary.Warnings,
			Actions:      summary.Actions,
			RowsBefore:   summary.RowsBefore,
			Duration:     summary.Duration,
			Table:        summary.Table,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Saved dataset %q (run %s)\n", ds.Name, summary.RunID)
	}

	if cleanOut != "" {
		if err := csvio.Export(summary.Table, cleanOut, true); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", cleanOut)
	}

	return nil
}
