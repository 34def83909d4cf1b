package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat <name>",
	Short: "Write a file resolved through the search path to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys, err := openFileSys()
		if err != nil {
			return err
		}
		defer fsys.Close()

		r, found, err := fsys.Resolve(args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%s not found on search path", args[0])
		}
		defer r.Close()

		if _, err := io.Copy(cmd.OutOrStdout(), r); err != nil {
			return fmt.Errorf("copying %s: %w", args[0], err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
}
