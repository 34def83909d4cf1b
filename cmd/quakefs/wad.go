package main

import (
	"fmt"
	"strings"

	"github.com/jchantrell/quakefs/internal/export"
	"github.com/jchantrell/quakefs/internal/utils"
	"github.com/jchantrell/quakefs/internal/wad"
	"github.com/spf13/cobra"
)

var (
	wadExtractDir string
	wadFromDisk   bool
)

var wadCmd = &cobra.Command{
	Use:   "wad <file>",
	Short: "List the lumps of a WAD2 file",
	Long: `Wad loads a WAD2 lump file resolved through the search path (gfx.wad by
default) and lists its lumps. With --extract the raw lump bytes are written
to a directory as <name>.<type>; compressed lumps are written as stored.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "gfx.wad"
		if len(args) == 1 {
			name = args[0]
		}

		var w *wad.Wad
		if wadFromDisk {
			var err error
			w, err = wad.Load(name)
			if err != nil {
				return err
			}
		} else {
			fsys, err := openFileSys()
			if err != nil {
				return err
			}
			defer fsys.Close()

			w, err = wad.LoadFrom(fsys, name)
			if err != nil {
				return err
			}
		}

		if wadExtractDir != "" {
			progress := utils.NewProgress(len(w.Lumps()), progressEnabled())
			err := export.NewExporter(nil, wadExtractDir, 1).ExportLumps(w, progress.Callback())
			progress.Finish()
			if err != nil {
				return fmt.Errorf("extracting lumps: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %s lumps to %s\n", utils.Number(len(w.Lumps())), wadExtractDir)
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-16s %-8s %-6s %10s %10s %10s\n", "Name", "Type", "Comp", "Offset", "Disk", "Size")
		fmt.Fprintln(out, strings.Repeat("-", 65))
		for _, l := range w.Lumps() {
			fmt.Fprintf(out, "%-16s %-8s %-6s %10d %10d %10d\n", l.Name, l.Type, l.Compression, l.FilePos, l.DiskSize, l.Size)
		}
		fmt.Fprintf(out, "%s lumps\n", utils.Number(len(w.Lumps())))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(wadCmd)
	wadCmd.Flags().StringVarP(&wadExtractDir, "extract", "x", "", "write raw lump bytes to this directory")
	wadCmd.Flags().BoolVar(&wadFromDisk, "file", false, "treat the argument as a path on disk instead of a search path name")
}
