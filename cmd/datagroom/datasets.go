package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/datagroom/datagroom/internal/archive"
	"github.com/datagroom/datagroom/internal/config"
	"github.com/datagroom/datagroom/internal/csvio"
	"github.com/datagroom/datagroom/internal/storage"
	"github.com/datagroom/datagroom/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored datasets, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var showCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show a stored dataset with its cleaning run and a preview",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export NAME",
	Short: "Export a stored dataset to a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var deleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a stored dataset and its archived exports",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of datasets to list (0 for all)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (defaults to NAME.csv)")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(deleteCmd)
}

// openStoreWith opens the dataset registry under the configured data
// directory, creating it on first use.
func openStoreWith(cfg *config.Config) (*store.Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return store.New(cfg.DatabasePath(), nil)
}

// newArchiver builds the archiver over the configured object storage.
func newArchiver(ctx context.Context, cfg *config.Config) (*archive.Archiver, error) {
	var (
		st  storage.ObjectStorage
		err error
	)
	switch cfg.Storage.Type {
	case "local":
		st, err = storage.NewLocalStorage(cfg.Storage.Path)
	case "s3":
		s3Cfg := storage.DefaultS3Config()
		if cfg.Storage.S3.Region != "" {
			s3Cfg.Region = cfg.Storage.S3.Region
		}
		if cfg.Storage.S3.Endpoint != "" {
			s3Cfg.Endpoint = cfg.Storage.S3.Endpoint
		}
		st, err = storage.NewS3Storage(ctx, cfg.Storage.S3.Bucket, s3Cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
	if err != nil {
		return nil, err
	}
	return archive.New(st, nil), nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStoreWith(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	datasets, err := st.List(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(datasets) == 0 {
		fmt.Println("No stored datasets.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tROWS\tCOLS\tPARSER\tCREATED\tPROMPT")
	for _, ds := range datasets {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n",
			ds.Name, ds.RowCount, ds.ColumnCount, ds.ParserUsed,
			ds.CreatedAt.Format("2006-01-02 15:04"), truncate(ds.Prompt, 48))
	}
	return tw.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStoreWith(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	name := args[0]
	ds, table, err := st.Get(cmd.Context(), name)
	if err != nil {
		return err
	}

	fmt.Printf("Dataset:  %s\n", ds.Name)
	fmt.Printf("Source:   %s\n", ds.OriginalFile)
	fmt.Printf("Prompt:   %s\n", ds.Prompt)
	fmt.Printf("Size:     %d rows, %d columns (from %d rows)\n", ds.RowCount, ds.ColumnCount, ds.RowsBefore)
	fmt.Printf("Created:  %s\n", ds.CreatedAt.Format("2006-01-02 15:04:05"))

	run, err := st.GetRun(cmd.Context(), name)
	if err == nil && run != nil {
		fmt.Printf("Parser:   %s\n", run.ParserUsed)
		if len(run.Warnings) > 0 {
			fmt.Println("Warnings:")
			for _, w := range run.Warnings {
				fmt.Printf("  - %s\n", w)
			}
		}
		fmt.Println("Actions:")
		if len(run.Actions) == 0 {
			fmt.Println("  (none)")
		}
		for _, a := range run.Actions {
			fmt.Printf("  - %s\n", a)
		}
	}

	rows := cfg.Limits.PreviewRows
	if rows > table.NumRows() {
		rows = table.NumRows()
	}
	fmt.Printf("\nPreview (%d of %d rows):\n", rows, table.NumRows())

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	header := ""
	for i, col := range table.Cols {
		if i > 0 {
			header += "\t"
		}
		header += col.Name
	}
	fmt.Fprintln(tw, header)
	for r := 0; r < rows; r++ {
		line := ""
		for i, col := range table.Cols {
			if i > 0 {
				line += "\t"
			}
			line += col.Cells[r].String()
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStoreWith(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	name := args[0]
	_, table, err := st.Get(cmd.Context(), name)
	if err != nil {
		return err
	}

	out := exportOut
	if out == "" {
		out = name + ".csv"
	}
	if err := csvio.Export(table, out, true); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d rows)\n", out, table.NumRows())
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStoreWith(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	name := args[0]
	if err := st.Delete(cmd.Context(), name); err != nil {
		return err
	}

	// Archived exports go too; a storage failure here leaves orphans for the
	// operator rather than resurrecting the registry row.
	archiver, err := newArchiver(cmd.Context(), cfg)
	if err == nil {
		if n, err := archiver.DeleteAll(cmd.Context(), name); err == nil && n > 0 {
			fmt.Printf("Deleted %d archived exports\n", n)
		}
	}

	fmt.Printf("Deleted dataset %q\n", name)
	return nil
}

// truncate shortens s to max runes for table display.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
