package main

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"runtime"
	"time"

	"github.com/jchantrell/quakefs/internal/catalog"
	"github.com/jchantrell/quakefs/internal/export"
	"github.com/jchantrell/quakefs/internal/utils"
	"github.com/spf13/cobra"
)

var (
	outputDir      string
	extractAll     bool
	extractWorkers int
)

var extractCmd = &cobra.Command{
	Use:   "extract [names...]",
	Short: "Copy files resolved through the search path to a directory",
	Long: `Extract resolves each name through the search path and writes the winning
copy to the output directory, keeping its relative path.

Names may be shell-style patterns (maps/*.bsp), matched against every name
visible on the search path. Use --all to extract everything visible.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !extractAll {
			return fmt.Errorf("no files given, pass names or --all")
		}

		start := time.Now()

		fsys, err := openFileSys()
		if err != nil {
			return err
		}
		defer fsys.Close()

		_, entries, err := catalog.Collect(fsys)
		if err != nil {
			return fmt.Errorf("listing search path: %w", err)
		}

		names, err := selectNames(entries, args, extractAll)
		if err != nil {
			return err
		}

		if len(names) == 0 {
			slog.Info("No files matched")
			return nil
		}

		slog.Info("Extracting files", "count", len(names), "output", outputDir)

		progress := utils.NewProgress(len(names), progressEnabled())
		exporter := export.NewExporter(fsys, outputDir, extractWorkers)
		err = exporter.ExportFiles(context.Background(), names, progress.Callback())
		progress.Finish()
		if err != nil {
			return fmt.Errorf("extracting files: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Extracted %s files to %s in %s\n",
			utils.Number(len(names)), outputDir, utils.Duration(time.Since(start)))

		return nil
	},
}

// selectNames expands patterns against the visible entries. A plain name
// is kept even when nothing lists it, so a missing file is reported by the
// exporter.
func selectNames(entries []catalog.EntryRow, patterns []string, all bool) ([]string, error) {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	if all {
		for _, e := range entries {
			if !e.Shadowed {
				add(e.Name)
			}
		}
		return names, nil
	}

	for _, pattern := range patterns {
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}

		matched := false
		for _, e := range entries {
			if e.Shadowed {
				continue
			}
			if ok, _ := path.Match(pattern, e.Name); ok {
				add(e.Name)
				matched = true
			}
		}

		if !matched {
			add(pattern)
		}
	}

	return names, nil
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&outputDir, "output", "o", "extracted", "output directory")
	extractCmd.Flags().BoolVar(&extractAll, "all", false, "extract every visible file")
	extractCmd.Flags().IntVarP(&extractWorkers, "workers", "w", runtime.NumCPU(), "number of parallel writers")
}
