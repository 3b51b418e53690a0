package main

import (
	"github.com/spf13/cobra"

	"secidx/btreeindex"
)

func newInspectCommand() *cobra.Command {
	var capacity int

	cmd := &cobra.Command{
		Use:   "inspect <index-file>",
		Short: "Dump an index file's tree structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return btreeindex.InspectFileTo(cmd.OutOrStdout(), args[0], capacity)
		},
	}

	cmd.Flags().IntVar(&capacity, "capacity", 64, "buffer manager capacity in pages")
	return cmd
}
