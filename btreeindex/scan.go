package btreeindex

import "secidx/bufmgr"

// Operator selects which side of a half-open or closed range bound a scan
// uses. Low bounds take GT or GE; high bounds take LT or LE; any other
// combination is ErrBadOperator.
type Operator int

const (
	OpGT Operator = iota
	OpGE
	OpLT
	OpLE
)

// scanCursor is the state machine behind StartScan/NextRecord/EndScan: the
// currently pinned leaf, the next unread position in it, and the range
// bounds everything returned must satisfy.
type scanCursor struct {
	lowOp  Operator
	lowKey []byte
	highOp Operator
	highKey []byte

	leaf *leafHandle
	pos  int
	done bool
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// StartScan begins a range scan over [lowKey,highKey] per lowOp/highOp
// (either bound may be nil for unbounded). Only one scan may be active at
// a time; starting a new one implicitly ends whatever scan is in progress.
func (idx *Index) StartScan(lowOp Operator, lowKey []byte, highOp Operator, highKey []byte) error {
	if lowKey != nil && lowOp != OpGT && lowOp != OpGE {
		return ErrBadOperator
	}
	if highKey != nil && highOp != OpLT && highOp != OpLE {
		return ErrBadOperator
	}
	if lowKey != nil && highKey != nil && idx.kind.Compare(lowKey, highKey) > 0 {
		return ErrBadScanRange
	}

	if idx.cursor != nil {
		if err := idx.EndScan(); err != nil {
			return err
		}
	}

	var h *leafHandle
	var err error
	if lowKey == nil {
		h, err = idx.descendToLeftmostLeaf()
	} else {
		h, err = idx.descendToLeaf(lowKey)
	}
	if err != nil {
		return err
	}

	pos := 0
	if lowKey != nil {
		pos = h.node.lowerBound(lowKey, idx.kind)
		if lowOp == OpGT {
			for pos < int(h.node.size) && idx.kind.Compare(h.node.keyAt(pos), lowKey) == 0 {
				pos++
			}
		}
	}

	idx.cursor = &scanCursor{
		lowOp:   lowOp,
		lowKey:  copyBytes(lowKey),
		highOp:  highOp,
		highKey: copyBytes(highKey),
		leaf:    h,
		pos:     pos,
	}
	return nil
}

// NextRecord returns the next rid in the scan, advancing across leaf
// boundaries via the sibling chain. It returns ErrIndexScanCompleted once
// the scan is exhausted or the high bound is reached — the normal way a
// scan ends, not a failure — and keeps returning it on further calls
// without re-walking the tree.
func (idx *Index) NextRecord() (bufmgr.RID, error) {
	c := idx.cursor
	if c == nil {
		return bufmgr.RID{}, ErrScanNotInitialized
	}
	if c.done {
		return bufmgr.RID{}, ErrIndexScanCompleted
	}

	for {
		if c.pos >= int(c.leaf.node.size) {
			rightID := c.leaf.node.right
			if err := c.leaf.unpin(idx, false); err != nil {
				return bufmgr.RID{}, err
			}
			if rightID == metaPageID {
				c.done = true
				c.leaf = nil
				return bufmgr.RID{}, ErrIndexScanCompleted
			}
			nh, err := idx.readLeaf(rightID)
			if err != nil {
				return bufmgr.RID{}, err
			}
			c.leaf = nh
			c.pos = 0
			continue
		}

		key := c.leaf.node.keyAt(c.pos)
		// A run of keys equal to a strict low bound can continue into a
		// sibling leaf past the one StartScan skipped it in.
		if c.lowKey != nil && c.lowOp == OpGT && idx.kind.Compare(key, c.lowKey) == 0 {
			c.pos++
			continue
		}
		if c.highKey != nil {
			cmp := idx.kind.Compare(key, c.highKey)
			if (c.highOp == OpLT && cmp >= 0) || (c.highOp == OpLE && cmp > 0) {
				if err := c.leaf.unpin(idx, false); err != nil {
					return bufmgr.RID{}, err
				}
				c.done = true
				c.leaf = nil
				return bufmgr.RID{}, ErrIndexScanCompleted
			}
		}

		rid := c.leaf.node.rids[c.pos]
		c.pos++
		return rid, nil
	}
}

// EndScan releases the scan's pinned leaf, if any, and clears the cursor.
// Calling it with no active scan is ErrScanNotInitialized.
func (idx *Index) EndScan() error {
	c := idx.cursor
	if c == nil {
		return ErrScanNotInitialized
	}
	idx.cursor = nil
	if c.leaf == nil {
		return nil
	}
	return c.leaf.unpin(idx, false)
}
