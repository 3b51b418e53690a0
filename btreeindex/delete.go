package btreeindex

import "secidx/bufmgr"

// Delete removes the entry matching both key and rid. Because duplicate
// keys are allowed, rid disambiguates which entry to drop; a tuple's
// original insert call is expected to have recorded the rid it used.
// If no entry matches both, Delete is a no-op and returns nil.
func (idx *Index) Delete(key []byte, rid bufmgr.RID) error {
	h, err := idx.descendToLeaf(key)
	if err != nil {
		return err
	}

	pos := -1
	for i := 0; i < int(h.node.size); i++ {
		if idx.kind.Compare(h.node.keyAt(i), key) == 0 && h.node.rids[i] == rid {
			pos = i
			break
		}
	}
	if pos < 0 {
		return h.unpin(idx, false)
	}
	h.node.removeAt(pos)

	if h.id == idx.root || int(h.node.size) >= idx.minLeafOccupancy() {
		return h.unpin(idx, true)
	}

	probe := make([]byte, idx.kind.Width())
	copy(probe, key)
	return idx.fixLeafUnderflow(h, probe)
}

// fixLeafUnderflow is reached when a non-root leaf dropped below
// floor(LeafCap/2) occupancy. It tries to borrow one entry from the right
// sibling, then the left sibling, and merges with a sibling only if
// neither has anything to spare.
func (idx *Index) fixLeafUnderflow(h *leafHandle, probe []byte) error {
	parent, i, err := idx.findParent(h.id, probe)
	if err != nil {
		return err
	}

	if i+1 <= int(parent.node.size) {
		rightID := parent.node.children[i+1]
		right, err := idx.readLeaf(rightID)
		if err != nil {
			return err
		}

		if int(right.node.size) > idx.minLeafOccupancy() {
			w := h.node.keyWidth
			movedKey := make([]byte, w)
			copy(movedKey, right.node.keyAt(0))
			movedRID := right.node.rids[0]

			h.node.insertAt(int(h.node.size), movedKey, movedRID)
			right.node.removeAt(0)
			idx.kind.CopyKey(parent.node.keyAt(i), movedKey)

			if err := h.unpin(idx, true); err != nil {
				return err
			}
			if err := right.unpin(idx, true); err != nil {
				return err
			}
			return parent.unpin(idx, true)
		}

		for j := 0; j < int(right.node.size); j++ {
			h.node.insertAt(int(h.node.size), right.node.keyAt(j), right.node.rids[j])
		}
		h.node.right = right.node.right
		if err := h.unpin(idx, true); err != nil {
			return err
		}
		if err := idx.mgr.UnpinPage(right.id, false); err != nil {
			return err
		}
		if err := idx.mgr.DeallocPage(right.id); err != nil {
			return err
		}
		parent.node.removeAt(i)
		return idx.fixInternalAfterRemoval(parent, probe)
	}

	leftID := parent.node.children[i-1]
	left, err := idx.readLeaf(leftID)
	if err != nil {
		return err
	}

	if int(left.node.size) > idx.minLeafOccupancy() {
		lastIdx := int(left.node.size) - 1
		w := h.node.keyWidth
		movedKey := make([]byte, w)
		copy(movedKey, left.node.keyAt(lastIdx))
		movedRID := left.node.rids[lastIdx]

		left.node.removeAt(lastIdx)
		h.node.insertAt(0, movedKey, movedRID)
		idx.kind.CopyKey(parent.node.keyAt(i-1), left.node.keyAt(int(left.node.size)-1))

		if err := left.unpin(idx, true); err != nil {
			return err
		}
		if err := h.unpin(idx, true); err != nil {
			return err
		}
		return parent.unpin(idx, true)
	}

	for j := 0; j < int(h.node.size); j++ {
		left.node.insertAt(int(left.node.size), h.node.keyAt(j), h.node.rids[j])
	}
	left.node.right = h.node.right
	if err := left.unpin(idx, true); err != nil {
		return err
	}
	if err := idx.mgr.UnpinPage(h.id, false); err != nil {
		return err
	}
	if err := idx.mgr.DeallocPage(h.id); err != nil {
		return err
	}
	parent.node.removeAt(i - 1)
	return idx.fixInternalAfterRemoval(parent, probe)
}

// fixInternalAfterRemoval is reached after a merge dropped one child out of
// h. It shrinks the tree at the root, rebalances a non-root underflow with
// a sibling, and recurses upward through further merges exactly like
// fixLeafUnderflow does for leaves.
func (idx *Index) fixInternalAfterRemoval(h *internalHandle, probe []byte) error {
	if h.id == idx.root {
		if h.node.size == 0 {
			onlyChild := h.node.children[0]
			if err := idx.mgr.UnpinPage(h.id, false); err != nil {
				return err
			}
			if err := idx.mgr.DeallocPage(h.id); err != nil {
				return err
			}
			idx.root = onlyChild
			return idx.persistRoot()
		}
		return h.unpin(idx, true)
	}

	if int(h.node.size) >= idx.minNodeOccupancy() {
		return h.unpin(idx, true)
	}

	parent, i, err := idx.findParent(h.id, probe)
	if err != nil {
		return err
	}

	if i+1 <= int(parent.node.size) {
		rightID := parent.node.children[i+1]
		right, err := idx.readInternal(rightID)
		if err != nil {
			return err
		}

		if int(right.node.size) > idx.minNodeOccupancy() {
			w := h.node.keyWidth
			sep := make([]byte, w)
			copy(sep, parent.node.keyAt(i))
			movedChild := right.node.children[0]
			promoted := make([]byte, w)
			copy(promoted, right.node.keyAt(0))

			h.node.insertAt(int(h.node.size), sep, movedChild)
			right.node.removeFront()
			idx.kind.CopyKey(parent.node.keyAt(i), promoted)

			if err := h.unpin(idx, true); err != nil {
				return err
			}
			if err := right.unpin(idx, true); err != nil {
				return err
			}
			return parent.unpin(idx, true)
		}

		w := h.node.keyWidth
		sep := make([]byte, w)
		copy(sep, parent.node.keyAt(i))
		h.node.insertAt(int(h.node.size), sep, right.node.children[0])
		for j := 0; j < int(right.node.size); j++ {
			h.node.insertAt(int(h.node.size), right.node.keyAt(j), right.node.children[j+1])
		}
		if err := h.unpin(idx, true); err != nil {
			return err
		}
		if err := idx.mgr.UnpinPage(right.id, false); err != nil {
			return err
		}
		if err := idx.mgr.DeallocPage(right.id); err != nil {
			return err
		}
		parent.node.removeAt(i)
		return idx.fixInternalAfterRemoval(parent, probe)
	}

	leftID := parent.node.children[i-1]
	left, err := idx.readInternal(leftID)
	if err != nil {
		return err
	}

	if int(left.node.size) > idx.minNodeOccupancy() {
		w := h.node.keyWidth
		sep := make([]byte, w)
		copy(sep, parent.node.keyAt(i-1))
		lastChild := left.node.children[left.node.size]
		promoted := make([]byte, w)
		copy(promoted, left.node.keyAt(int(left.node.size)-1))

		left.node.removeLast()
		h.node.prependChild(sep, lastChild)
		idx.kind.CopyKey(parent.node.keyAt(i-1), promoted)

		if err := left.unpin(idx, true); err != nil {
			return err
		}
		if err := h.unpin(idx, true); err != nil {
			return err
		}
		return parent.unpin(idx, true)
	}

	w := h.node.keyWidth
	sep := make([]byte, w)
	copy(sep, parent.node.keyAt(i-1))
	left.node.insertAt(int(left.node.size), sep, h.node.children[0])
	for j := 0; j < int(h.node.size); j++ {
		left.node.insertAt(int(left.node.size), h.node.keyAt(j), h.node.children[j+1])
	}
	if err := left.unpin(idx, true); err != nil {
		return err
	}
	if err := idx.mgr.UnpinPage(h.id, false); err != nil {
		return err
	}
	if err := idx.mgr.DeallocPage(h.id); err != nil {
		return err
	}
	parent.node.removeAt(i - 1)
	return idx.fixInternalAfterRemoval(parent, probe)
}
