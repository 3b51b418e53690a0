package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"secidx/btreeindex"
	"secidx/bufmgr"
	"secidx/relfile"
)

func newBuildCommand() *cobra.Command {
	var (
		relationPath string
		relationName string
		attrOffset   int32
		keyType      string
		capacity     int
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Bulk-load a secondary index from a relation file",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := keyKindFromFlag(keyType)
			if err != nil {
				return err
			}

			rel, err := relfile.Open(relationPath, capacity)
			if err != nil {
				return err
			}
			defer rel.Close()

			indexPath := btreeindex.IndexFileName(relationName, attrOffset)
			mgr, err := bufmgr.Open(indexPath, capacity)
			if err != nil {
				return err
			}
			defer mgr.Close()

			idx, stats, err := btreeindex.Open(mgr, relationName, attrOffset, kind, rel.Scan())
			if err != nil {
				return err
			}
			if err := idx.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "built %s: %s records, %s splits, height %d\n",
				indexPath, humanize.Comma(stats.Records), humanize.Comma(stats.Splits), stats.Height)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&relationPath, "relation-file", "", "path to the relation's backing file")
	flags.StringVar(&relationName, "relation", "", "relation name (used to derive the index file name)")
	flags.Int32Var(&attrOffset, "attr-offset", 0, "byte offset of the indexed attribute within each record")
	flags.StringVar(&keyType, "type", "int32", "key type: int32, float64, or string10")
	flags.IntVar(&capacity, "capacity", 64, "buffer manager capacity in pages")
	cmd.MarkFlagRequired("relation-file")
	cmd.MarkFlagRequired("relation")

	return cmd
}
