package btreeindex

import (
	"github.com/cockroachdb/errors"

	"secidx/bufmgr"
)

// findParent locates the internal node whose children array holds targetID
// and returns it pinned, along with targetID's index within that array.
// probe must be a key that actually lives in targetID's subtree (its own
// first key, or the key that originally routed a search into it) — descent
// by that key necessarily retraces the same path descendToLeaf would have
// taken, so it lands on targetID's parent. Callers must not invoke this
// with targetID equal to the root; the root has no parent.
//
// This is an O(height) re-descent, chosen over keeping a parent stack
// during the original descent so inserts and deletes pin no more than one
// ancestor at a time.
func (idx *Index) findParent(targetID bufmgr.PageID, probe []byte) (*internalHandle, int, error) {
	id := idx.root
	for {
		page, err := idx.mgr.ReadPage(id)
		if err != nil {
			return nil, 0, err
		}
		if readPageKind(page) != pageKindInternal {
			idx.mgr.UnpinPage(id, false)
			return nil, 0, errors.Newf("btreeindex: page %d has no children to search for parent of %d", id, targetID)
		}
		node := decodeInternal(page, idx.kind)
		i := node.lowerBound(probe, idx.kind)
		child := node.children[i]
		if child == targetID {
			return &internalHandle{id: id, page: page, node: node}, i, nil
		}
		if err := idx.mgr.UnpinPage(id, false); err != nil {
			return nil, 0, err
		}
		id = child
	}
}
