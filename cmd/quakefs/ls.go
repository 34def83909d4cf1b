package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/jchantrell/quakefs/internal/filesys"
	"github.com/jchantrell/quakefs/internal/pack"
	"github.com/jchantrell/quakefs/internal/utils"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls [pakfile]",
	Short: "List the entries of a pack, or of every pack on the search path",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			p, found, err := pack.Load(args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("packfile %s not found", args[0])
			}
			defer p.Close()

			printPack(out, p)
			return nil
		}

		fsys, err := openFileSys()
		if err != nil {
			return err
		}
		defer fsys.Close()

		for _, sp := range fsys.SearchPaths() {
			if sp.Kind != filesys.KindPack {
				continue
			}
			fmt.Fprintf(out, "%s:\n", sp.Location())
			printPack(out, sp.Pack)
			fmt.Fprintln(out)
		}

		return nil
	},
}

func printPack(out io.Writer, p *pack.Pack) {
	var total int64
	for _, e := range p.Entries() {
		fmt.Fprintf(out, "%10d  %10s  %s\n", e.Offset, utils.Bytes(int64(e.Size)), e.Name)
		total += int64(e.Size)
	}

	fmt.Fprintf(out, "%s files, %s in %s (directory crc %d)\n",
		utils.Number(p.Len()), utils.Bytes(total), filepath.Base(p.Path()), p.CRC())
}

func init() {
	rootCmd.AddCommand(lsCmd)
}
