package btreeindex

import (
	"encoding/binary"

	"secidx/bufmgr"
)

const (
	internalLevelOff    = 4
	internalSizeOff     = 8
	internalEntriesOff  = internalHeaderSize
)

// internalNode is the decoded in-memory view of an internal (non-leaf)
// page: size keys and size+1 children. level is 1 when the children are
// leaves and one more than the children's level when they are internal
// nodes (2, 3, ...).
type internalNode struct {
	cap      int // max keys; holds cap+1 children
	keyWidth int
	level    int32
	size     int32
	keys     []byte          // (cap)*keyWidth bytes
	children []bufmgr.PageID // cap+1 entries
}

func newInternal(kind KeyKind, level int32) *internalNode {
	w := kind.Width()
	cap := NodeCap(w)
	return &internalNode{
		cap:      cap,
		keyWidth: w,
		level:    level,
		keys:     make([]byte, cap*w),
		children: make([]bufmgr.PageID, cap+1),
	}
}

func decodeInternal(page []byte, kind KeyKind) *internalNode {
	w := kind.Width()
	cap := NodeCap(w)
	n := &internalNode{
		cap:      cap,
		keyWidth: w,
		level:    int32(binary.LittleEndian.Uint32(page[internalLevelOff:])),
		size:     int32(binary.LittleEndian.Uint32(page[internalSizeOff:])),
		keys:     make([]byte, cap*w),
		children: make([]bufmgr.PageID, cap+1),
	}
	off := internalEntriesOff
	copy(n.keys, page[off:off+cap*w])
	off += cap * w
	for i := 0; i < cap+1; i++ {
		n.children[i] = bufmgr.PageID(binary.LittleEndian.Uint32(page[off:]))
		off += childSize
	}
	return n
}

func encodeInternal(n *internalNode, page []byte) {
	page[0] = byte(pageKindInternal)
	binary.LittleEndian.PutUint32(page[internalLevelOff:], uint32(n.level))
	binary.LittleEndian.PutUint32(page[internalSizeOff:], uint32(n.size))

	off := internalEntriesOff
	copy(page[off:off+n.cap*n.keyWidth], n.keys)
	off += n.cap * n.keyWidth
	for i := 0; i < n.cap+1; i++ {
		binary.LittleEndian.PutUint32(page[off:], uint32(n.children[i]))
		off += childSize
	}
}

func (n *internalNode) keyAt(i int) []byte {
	return n.keys[i*n.keyWidth : (i+1)*n.keyWidth]
}

// insertAt shifts keys [i:size) and children [i+1:size+1) right by one,
// placing key at i and child at i+1. Caller guarantees size < cap.
func (n *internalNode) insertAt(i int, key []byte, child bufmgr.PageID) {
	w := n.keyWidth
	copy(n.keys[(i+1)*w:(int(n.size)+1)*w], n.keys[i*w:int(n.size)*w])
	copy(n.keys[i*w:(i+1)*w], key)

	copy(n.children[i+2:int(n.size)+2], n.children[i+1:int(n.size)+1])
	n.children[i+1] = child

	n.size++
}

// removeAt drops the key at i and the child at i+1, shifting the tail left.
// This removes the separator that routes to children[i+1], consistent with
// how delete's redistribute/merge logic identifies which separator owns a
// given child.
func (n *internalNode) removeAt(i int) {
	w := n.keyWidth
	copy(n.keys[i*w:(int(n.size)-1)*w], n.keys[(i+1)*w:int(n.size)*w])
	copy(n.children[i+1:n.size], n.children[i+2:n.size+1])
	n.size--
}

// prependChild inserts child as the new children[0], pushing every existing
// key and child one slot to the right, with key becoming the new keys[0].
// insertAt can't express this: it always leaves children[i] untouched and
// places the new child at i+1, which is right for split-propagation and
// append but wrong for a left-sibling rotate during delete, where the
// borrowed child must become the new first child.
func (n *internalNode) prependChild(key []byte, child bufmgr.PageID) {
	w := n.keyWidth
	copy(n.keys[w:(int(n.size)+1)*w], n.keys[0:int(n.size)*w])
	copy(n.keys[0:w], key)
	copy(n.children[1:n.size+2], n.children[0:n.size+1])
	n.children[0] = child
	n.size++
}

// removeFront drops keys[0] and children[0], shifting the rest left. Used
// after a right-sibling rotate moves the first child elsewhere.
func (n *internalNode) removeFront() {
	w := n.keyWidth
	copy(n.keys[0:(int(n.size)-1)*w], n.keys[w:int(n.size)*w])
	copy(n.children[0:n.size], n.children[1:n.size+1])
	n.size--
}

// removeLast drops the trailing key and child. No shifting is needed since
// nothing follows the truncated slots.
func (n *internalNode) removeLast() {
	n.size--
}
