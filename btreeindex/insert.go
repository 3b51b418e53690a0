package btreeindex

import "secidx/bufmgr"

// Insert adds (key, rid) to the index. Duplicate keys are allowed and kept
// distinct by rid; insertion order among equal keys is not preserved
// across a split.
func (idx *Index) Insert(key []byte, rid bufmgr.RID) error {
	h, err := idx.descendToLeaf(key)
	if err != nil {
		return err
	}
	i := h.node.lowerBound(key, idx.kind)

	if int(h.node.size) < h.node.cap {
		h.node.insertAt(i, key, rid)
		return h.unpin(idx, true)
	}
	return idx.splitLeafAndInsert(h, i, key, rid)
}

// splitLeafAndInsert is reached when h is full. It splits h at
// mid = ceil(size/2) — the right half, including keys[mid], is copied into
// a new leaf ("copy-up": the separator stays present in the left leaf,
// unlike an internal split's push-up) — places (key, rid) in whichever
// half it belongs, then propagates the split upward. The separator handed
// to the parent is the largest key remaining in the left leaf
// (keys[mid-1]), not the right leaf's own first key: the right leaf's
// first key can equal that separator (a duplicate run straddling the
// split), and equal keys always route left on descent, so a separator
// equal to the right leaf's own first key would be a probe that can never
// resolve back to the right leaf when findParent re-descends for it later.
func (idx *Index) splitLeafAndInsert(h *leafHandle, i int, key []byte, rid bufmgr.RID) error {
	idx.splitCount++
	size := int(h.node.size)
	mid := (size + 1) / 2
	w := h.node.keyWidth

	sepKey := make([]byte, w)
	copy(sepKey, h.node.keyAt(mid-1))

	right, err := idx.allocLeaf()
	if err != nil {
		return err
	}
	right.node.size = int32(size - mid)
	copy(right.node.keys[:int(right.node.size)*w], h.node.keys[mid*w:size*w])
	copy(right.node.rids[:right.node.size], h.node.rids[mid:size])
	right.node.right = h.node.right

	h.node.right = right.id
	h.node.size = int32(mid)

	if i < mid {
		h.node.insertAt(i, key, rid)
	} else {
		right.node.insertAt(i-mid, key, rid)
	}

	leftProbe := make([]byte, w)
	copy(leftProbe, h.node.keyAt(0))
	leftID := h.id
	rightID := right.id

	if err := h.unpin(idx, true); err != nil {
		return err
	}
	if err := right.unpin(idx, true); err != nil {
		return err
	}
	return idx.insertIntoParent(leftID, leftProbe, sepKey, rightID, 0)
}

// insertIntoParent routes (sepKey, newChildID) into childID's parent, right
// after childID, recursively splitting and propagating upward as needed.
// childLevel is the level value of childID itself (0 for a leaf), used only
// if a new root has to be created above it.
func (idx *Index) insertIntoParent(childID bufmgr.PageID, probe, sepKey []byte, newChildID bufmgr.PageID, childLevel int32) error {
	if childID == idx.root {
		return idx.createNewRoot(childID, sepKey, newChildID, childLevel)
	}

	parent, i, err := idx.findParent(childID, probe)
	if err != nil {
		return err
	}

	if int(parent.node.size) < parent.node.cap {
		parent.node.insertAt(i, sepKey, newChildID)
		return parent.unpin(idx, true)
	}
	return idx.splitInternalAndInsert(parent, i, sepKey, newChildID)
}

// splitInternalAndInsert is reached when parent is full. It splits parent
// at mid = (NodeCap-1)/2, removing and returning the middle key instead of
// copying it ("push-up"), places the new (key, child) pair in whichever
// half it belongs, then propagates upward.
func (idx *Index) splitInternalAndInsert(parent *internalHandle, i int, sepKey []byte, newChildID bufmgr.PageID) error {
	idx.splitCount++
	size := int(parent.node.size)
	mid := (parent.node.cap - 1) / 2
	w := parent.node.keyWidth

	pushUpKey := make([]byte, w)
	copy(pushUpKey, parent.node.keyAt(mid))

	right, err := idx.allocInternal(parent.node.level)
	if err != nil {
		return err
	}
	right.node.size = int32(size - mid - 1)
	copy(right.node.keys[:int(right.node.size)*w], parent.node.keys[(mid+1)*w:size*w])
	copy(right.node.children[:int(right.node.size)+1], parent.node.children[mid+1:size+1])

	parent.node.size = int32(mid)

	if i <= mid {
		parent.node.insertAt(i, sepKey, newChildID)
	} else {
		right.node.insertAt(i-mid-1, sepKey, newChildID)
	}

	parentProbe := make([]byte, w)
	copy(parentProbe, parent.node.keyAt(0))
	parentID := parent.id
	parentLevel := parent.node.level
	rightID := right.id

	if err := parent.unpin(idx, true); err != nil {
		return err
	}
	if err := right.unpin(idx, true); err != nil {
		return err
	}
	return idx.insertIntoParent(parentID, parentProbe, pushUpKey, rightID, parentLevel)
}

// createNewRoot is reached when the node that just split had no parent: it
// was the root. The tree grows one level taller.
func (idx *Index) createNewRoot(leftID bufmgr.PageID, sepKey []byte, rightID bufmgr.PageID, childLevel int32) error {
	newRoot, err := idx.allocInternal(childLevel + 1)
	if err != nil {
		return err
	}
	newRoot.node.size = 1
	newRoot.node.children[0] = leftID
	newRoot.node.children[1] = rightID
	idx.kind.CopyKey(newRoot.node.keyAt(0), sepKey)

	idx.root = newRoot.id
	if err := newRoot.unpin(idx, true); err != nil {
		return err
	}
	return idx.persistRoot()
}
