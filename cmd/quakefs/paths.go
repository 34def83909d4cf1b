package main

import (
	"fmt"

	"github.com/jchantrell/quakefs/internal/filesys"
	"github.com/jchantrell/quakefs/internal/utils"
	"github.com/spf13/cobra"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show the search path, highest priority first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys, err := openFileSys()
		if err != nil {
			return err
		}
		defer fsys.Close()

		out := cmd.OutOrStdout()
		for i, sp := range fsys.SearchPaths() {
			note := ""
			if i == 0 && fsys.SkipHighest() {
				note = "  (skipped)"
			}

			switch sp.Kind {
			case filesys.KindPack:
				fmt.Fprintf(out, "%3d  pack       %s (%s files)%s\n", i, sp.Location(), utils.Number(sp.Pack.Len()), note)
			default:
				fmt.Fprintf(out, "%3d  directory  %s%s\n", i, sp.Location(), note)
			}
		}

		fmt.Fprintf(out, "\nGame directory: %s\n", fsys.GameDir())
		if fsys.Modified() {
			fmt.Fprintln(out, "Modified: yes")
		} else {
			fmt.Fprintln(out, "Modified: no")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}
