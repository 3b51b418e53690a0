package btreeindex

import "secidx/bufmgr"

// pageSize is a var, not a const, solely so tests can shrink it to force
// multi-level splits and internal-level merges without needing hundreds of
// thousands of inserts to fill a real 4096-byte page's capacity. Production
// code never assigns to it; it always equals bufmgr.PageSize.
var pageSize = bufmgr.PageSize

const (
	// Both headers are: kind byte (1) + 3 bytes padding + two int32/uint32
	// fields (8) = 12 bytes. The kind byte is the root-is-leaf
	// discriminator, read before anything else on the page.
	leafHeaderSize     = 12 // kind+pad(4) + size int32 + rightSibling uint32
	internalHeaderSize = 12 // kind+pad(4) + level int32 + size int32
	ridSize            = 8  // pageID uint32 + slotID uint32
	childSize          = 4  // uint32 page id
)

// LeafCap is the maximum number of (key, rid) entries a leaf of the given
// key width can hold in one page: capacities are chosen so each node fits
// a single page with some slack, and the floor division here is exactly
// that — any remainder smaller than one entry is the slack.
func LeafCap(keyWidth int) int {
	return (pageSize - leafHeaderSize) / (keyWidth + ridSize)
}

// NodeCap is the maximum number of keys an internal node of the given key
// width can hold (it then has NodeCap+1 children).
func NodeCap(keyWidth int) int {
	return (pageSize - internalHeaderSize - childSize) / (keyWidth + childSize)
}

// Page kind discriminator, stored as the first byte of every node page.
// Root-is-leaf detection reads this one byte instead of comparing against
// a magic page number that would assume a particular allocation order.
type pageKind byte

const (
	pageKindLeaf     pageKind = 1
	pageKindInternal pageKind = 2
)

func readPageKind(page []byte) pageKind {
	return pageKind(page[0])
}
