package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jchantrell/quakefs/internal/catalog"
	"github.com/jchantrell/quakefs/internal/utils"
	"github.com/spf13/cobra"
)

var (
	catalogBatchSize  int
	catalogMaxRetries int
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Record every name on the search path in a SQLite catalog",
	Long: `Catalog walks every directory and pack on the search path and writes one row
per file to the entries table of the catalog database, with its source,
priority and whether a higher priority source shadows it. Existing catalog
tables are replaced.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		start := time.Now()

		fsys, err := openFileSys()
		if err != nil {
			return err
		}
		defer fsys.Close()

		db, err := catalog.Open(catalog.DefaultOptions(cfg.Database))
		if err != nil {
			return fmt.Errorf("opening catalog: %w", err)
		}
		defer db.Close()

		slog.Info("Building catalog", "database", cfg.Database, "sources", len(fsys.SearchPaths()))

		progress := utils.NewProgress(0, progressEnabled())
		stats, err := catalog.Build(ctx, db, fsys, catalogInsertOptions(), progress.Callback())
		progress.Finish()
		if err != nil {
			return fmt.Errorf("building catalog: %w", err)
		}

		elapsed := time.Since(start)
		var rate float64
		if elapsed.Seconds() > 0 {
			rate = float64(stats.Entries) / elapsed.Seconds()
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Sources: %d\n", stats.Sources)
		fmt.Fprintf(out, "Entries: %s (%s visible, %s shadowed)\n",
			utils.Number(stats.Entries), utils.Number(stats.Visible), utils.Number(stats.Shadowed))
		fmt.Fprintf(out, "Duration: %s\n", utils.Duration(elapsed))
		fmt.Fprintf(out, "Insertion rate: %s rows/sec\n", utils.Rate(rate))
		fmt.Fprintln(out, "Try running: quakefs query --tables")

		return nil
	},
}

// catalogInsertOptions starts from the package defaults and applies the
// command's flags
func catalogInsertOptions() *catalog.BulkInsertOptions {
	options := catalog.DefaultBulkInsertOptions()
	options.BatchSize = catalogBatchSize
	options.MaxRetries = catalogMaxRetries
	return options
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().IntVar(&catalogBatchSize, "batch-size", catalog.DefaultBulkInsertOptions().BatchSize, "rows per insert transaction")
	catalogCmd.Flags().IntVar(&catalogMaxRetries, "max-retries", catalog.DefaultBulkInsertOptions().MaxRetries, "times to retry a batch while the database is busy or locked")
}
