package btreeindex

import "github.com/cockroachdb/errors"

// descendToLeaf walks from root to the leaf that would hold key, following
// the lowerBound child at each internal node. It pins every page it visits
// and unpins every internal page before moving on, leaving only the
// returned leaf handle pinned — the caller is responsible for unpinning it
// exactly once.
func (idx *Index) descendToLeaf(key []byte) (*leafHandle, error) {
	id := idx.root
	for {
		page, err := idx.mgr.ReadPage(id)
		if err != nil {
			return nil, err
		}
		switch readPageKind(page) {
		case pageKindLeaf:
			return &leafHandle{id: id, page: page, node: decodeLeaf(page, idx.kind)}, nil
		case pageKindInternal:
			node := decodeInternal(page, idx.kind)
			i := node.lowerBound(key, idx.kind)
			// lowerBound returns the smallest i with keys[i] >= probe.
			// children[i] is the subtree that holds everything up to and
			// including keys[i] — equal keys route left, same as at the
			// leaf level, and a separator is always the largest key still
			// present in children[i].
			child := node.children[i]
			if err := idx.mgr.UnpinPage(id, false); err != nil {
				return nil, err
			}
			id = child
		default:
			return nil, errors.Newf("btreeindex: page %d has unknown kind byte %d", id, page[0])
		}
	}
}

// descendToLeftmostLeaf walks from root to the leftmost leaf in the tree,
// used by scan start when the range has no lower bound.
func (idx *Index) descendToLeftmostLeaf() (*leafHandle, error) {
	id := idx.root
	for {
		page, err := idx.mgr.ReadPage(id)
		if err != nil {
			return nil, err
		}
		switch readPageKind(page) {
		case pageKindLeaf:
			return &leafHandle{id: id, page: page, node: decodeLeaf(page, idx.kind)}, nil
		case pageKindInternal:
			node := decodeInternal(page, idx.kind)
			child := node.children[0]
			if err := idx.mgr.UnpinPage(id, false); err != nil {
				return nil, err
			}
			id = child
		default:
			return nil, errors.Newf("btreeindex: page %d has unknown kind byte %d", id, page[0])
		}
	}
}
