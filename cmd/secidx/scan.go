package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"secidx/btreeindex"
	"secidx/bufmgr"
)

func newScanCommand() *cobra.Command {
	var (
		relationName  string
		attrOffset    int32
		keyType       string
		capacity      int
		low, high     string
		lowOp, highOp string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Range-scan an existing secondary index and print matching rids",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := keyKindFromFlag(keyType)
			if err != nil {
				return err
			}

			indexPath := btreeindex.IndexFileName(relationName, attrOffset)
			mgr, err := bufmgr.Open(indexPath, capacity)
			if err != nil {
				return err
			}
			defer mgr.Close()

			idx, _, err := btreeindex.Open(mgr, relationName, attrOffset, kind, nil)
			if err != nil {
				return err
			}
			defer idx.Close()

			var lowKey, highKey []byte
			loOp, hiOp := btreeindex.OpGE, btreeindex.OpLE
			if low != "" {
				if lowKey, err = parseKeyLiteral(low, kind); err != nil {
					return err
				}
				if loOp, err = parseOperator(lowOp, true); err != nil {
					return err
				}
			}
			if high != "" {
				if highKey, err = parseKeyLiteral(high, kind); err != nil {
					return err
				}
				if hiOp, err = parseOperator(highOp, false); err != nil {
					return err
				}
			}

			if err := idx.StartScan(loOp, lowKey, hiOp, highKey); err != nil {
				return err
			}
			defer idx.EndScan()

			out := cmd.OutOrStdout()
			for {
				rid, err := idx.NextRecord()
				if errors.Is(err, btreeindex.ErrIndexScanCompleted) {
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "page=%d slot=%d\n", rid.PageID, rid.SlotID)
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&relationName, "relation", "", "relation name (used to derive the index file name)")
	flags.Int32Var(&attrOffset, "attr-offset", 0, "byte offset of the indexed attribute within each record")
	flags.StringVar(&keyType, "type", "int32", "key type: int32, float64, or string10")
	flags.IntVar(&capacity, "capacity", 64, "buffer manager capacity in pages")
	flags.StringVar(&low, "low", "", "low bound key literal (unbounded if empty)")
	flags.StringVar(&lowOp, "low-op", "ge", "low bound operator: gt or ge")
	flags.StringVar(&high, "high", "", "high bound key literal (unbounded if empty)")
	flags.StringVar(&highOp, "high-op", "le", "high bound operator: lt or le")
	cmd.MarkFlagRequired("relation")

	return cmd
}

func parseOperator(s string, low bool) (btreeindex.Operator, error) {
	switch s {
	case "gt":
		if !low {
			return 0, errors.Newf("gt is a low-bound operator, not a high-bound one")
		}
		return btreeindex.OpGT, nil
	case "ge":
		if !low {
			return 0, errors.Newf("ge is a low-bound operator, not a high-bound one")
		}
		return btreeindex.OpGE, nil
	case "lt":
		if low {
			return 0, errors.Newf("lt is a high-bound operator, not a low-bound one")
		}
		return btreeindex.OpLT, nil
	case "le":
		if low {
			return 0, errors.Newf("le is a high-bound operator, not a low-bound one")
		}
		return btreeindex.OpLE, nil
	default:
		return 0, errors.Newf("unknown operator %q", s)
	}
}
