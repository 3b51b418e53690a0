package btreeindex

import (
	"encoding/binary"

	"secidx/bufmgr"
)

const (
	leafSizeOff    = 4
	leafRightOff   = 8
	leafEntriesOff = leafHeaderSize
)

// leafNode is the decoded in-memory view of a leaf page: a sorted run of
// keys with a parallel run of rids. keys is a flat buffer, keyWidth bytes
// per entry, sized to cap entries; only the first size entries are
// meaningful.
type leafNode struct {
	cap      int
	keyWidth int
	size     int32
	right    bufmgr.PageID
	keys     []byte      // cap*keyWidth bytes
	rids     []bufmgr.RID // cap entries
}

func newLeaf(kind KeyKind) *leafNode {
	w := kind.Width()
	cap := LeafCap(w)
	return &leafNode{
		cap:      cap,
		keyWidth: w,
		keys:     make([]byte, cap*w),
		rids:     make([]bufmgr.RID, cap),
	}
}

func decodeLeaf(page []byte, kind KeyKind) *leafNode {
	n := newLeaf(kind)
	n.size = int32(binary.LittleEndian.Uint32(page[leafSizeOff:]))
	n.right = bufmgr.PageID(binary.LittleEndian.Uint32(page[leafRightOff:]))

	w := n.keyWidth
	off := leafEntriesOff
	copy(n.keys, page[off:off+n.cap*w])
	off += n.cap * w
	for i := 0; i < n.cap; i++ {
		n.rids[i] = bufmgr.RID{
			PageID: bufmgr.PageID(binary.LittleEndian.Uint32(page[off:])),
			SlotID: binary.LittleEndian.Uint32(page[off+4:]),
		}
		off += ridSize
	}
	return n
}

func encodeLeaf(n *leafNode, page []byte) {
	page[0] = byte(pageKindLeaf)
	binary.LittleEndian.PutUint32(page[leafSizeOff:], uint32(n.size))
	binary.LittleEndian.PutUint32(page[leafRightOff:], uint32(n.right))

	w := n.keyWidth
	off := leafEntriesOff
	copy(page[off:off+n.cap*w], n.keys)
	off += n.cap * w
	for i := 0; i < n.cap; i++ {
		binary.LittleEndian.PutUint32(page[off:], uint32(n.rids[i].PageID))
		binary.LittleEndian.PutUint32(page[off+4:], n.rids[i].SlotID)
		off += ridSize
	}
}

func (n *leafNode) keyAt(i int) []byte {
	return n.keys[i*n.keyWidth : (i+1)*n.keyWidth]
}

// insertAt shifts entries [i:size) right by one and places (key, rid) at i.
// Caller guarantees size < cap.
func (n *leafNode) insertAt(i int, key []byte, rid bufmgr.RID) {
	w := n.keyWidth
	copy(n.keys[(i+1)*w:(int(n.size)+1)*w], n.keys[i*w:int(n.size)*w])
	copy(n.keys[i*w:(i+1)*w], key)

	copy(n.rids[i+1:int(n.size)+1], n.rids[i:n.size])
	n.rids[i] = rid

	n.size++
}

// removeAt shifts entries (i:size) left by one, dropping the entry at i.
func (n *leafNode) removeAt(i int) {
	w := n.keyWidth
	copy(n.keys[i*w:(int(n.size)-1)*w], n.keys[(i+1)*w:int(n.size)*w])
	copy(n.rids[i:n.size-1], n.rids[i+1:n.size])
	n.size--
}
