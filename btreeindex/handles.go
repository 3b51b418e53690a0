package btreeindex

import "secidx/bufmgr"

// leafHandle and internalHandle pair a decoded node with the pinned raw
// page it was decoded from, so a caller that mutates the decoded struct can
// write it back into the same frame before unpinning. This is the core's
// only interaction with bufmgr: every handle obtained here is matched by
// exactly one unpin call on every exit path.
type leafHandle struct {
	id   bufmgr.PageID
	page []byte
	node *leafNode
}

type internalHandle struct {
	id   bufmgr.PageID
	page []byte
	node *internalNode
}

func (idx *Index) readLeaf(id bufmgr.PageID) (*leafHandle, error) {
	page, err := idx.mgr.ReadPage(id)
	if err != nil {
		return nil, err
	}
	return &leafHandle{id: id, page: page, node: decodeLeaf(page, idx.kind)}, nil
}

func (idx *Index) readInternal(id bufmgr.PageID) (*internalHandle, error) {
	page, err := idx.mgr.ReadPage(id)
	if err != nil {
		return nil, err
	}
	return &internalHandle{id: id, page: page, node: decodeInternal(page, idx.kind)}, nil
}

func (idx *Index) allocLeaf() (*leafHandle, error) {
	id, page, err := idx.mgr.AllocPage()
	if err != nil {
		return nil, err
	}
	return &leafHandle{id: id, page: page, node: newLeaf(idx.kind)}, nil
}

func (idx *Index) allocInternal(level int32) (*internalHandle, error) {
	id, page, err := idx.mgr.AllocPage()
	if err != nil {
		return nil, err
	}
	return &internalHandle{id: id, page: page, node: newInternal(idx.kind, level)}, nil
}

// unpin writes the decoded node back into its page and releases the pin
// when dirty is true; when dirty is false it releases the pin without
// touching the page (the node was only read, never mutated).
func (h *leafHandle) unpin(idx *Index, dirty bool) error {
	if dirty {
		encodeLeaf(h.node, h.page)
	}
	return idx.mgr.UnpinPage(h.id, dirty)
}

func (h *internalHandle) unpin(idx *Index, dirty bool) error {
	if dirty {
		encodeInternal(h.node, h.page)
	}
	return idx.mgr.UnpinPage(h.id, dirty)
}
