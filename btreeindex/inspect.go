package btreeindex

import (
	"fmt"
	"io"
	"os"

	"secidx/bufmgr"
)

// InspectTo writes a human-readable BFS dump of the tree structure to w:
// the meta page's (relation, offset, type, root) followed by every node
// level by level. It does not mutate idx's cursor state and is safe to
// call on an index with no active scan.
func (idx *Index) InspectTo(w io.Writer) error {
	p := func(format string, args ...interface{}) { fmt.Fprintf(w, format, args...) }

	p("Index: relation=%s offset=%d type=%s\n", idx.relationName, idx.attrOffset, idx.kind)
	p("Root page: %d\n", idx.root)

	queue := []bufmgr.PageID{idx.root}
	level := 0
	for len(queue) > 0 {
		next := make([]bufmgr.PageID, 0)
		p("Level %d:\n", level)
		for _, id := range queue {
			page, err := idx.mgr.ReadPage(id)
			if err != nil {
				p("  [page %d] read error: %v\n", id, err)
				continue
			}
			switch readPageKind(page) {
			case pageKindLeaf:
				leaf := decodeLeaf(page, idx.kind)
				p("  [page %d] LEAF size=%d right=%d\n", id, leaf.size, leaf.right)
				for i := 0; i < int(leaf.size); i++ {
					p("      key=%s rid=(page=%d slot=%d)\n", formatKey(leaf.keyAt(i), idx.kind), leaf.rids[i].PageID, leaf.rids[i].SlotID)
				}
			case pageKindInternal:
				node := decodeInternal(page, idx.kind)
				p("  [page %d] INTERNAL level=%d size=%d children=%v\n", id, node.level, node.size, node.children[:node.size+1])
				for i := 0; i <= int(node.size); i++ {
					next = append(next, node.children[i])
				}
			default:
				p("  [page %d] unknown kind byte %d\n", id, page[0])
			}
			if err := idx.mgr.UnpinPage(id, false); err != nil {
				return err
			}
		}
		queue = next
		level++
	}
	return nil
}

// Inspect prints a dump of the index file at path to stdout without
// bulk-loading or mutating it.
func Inspect(path string, capacity int) error {
	return InspectFileTo(os.Stdout, path, capacity)
}

// InspectFileTo opens an existing index file read-only (from the caller's
// perspective — it never bulk-loads) and dumps its structure to w.
func InspectFileTo(w io.Writer, path string, capacity int) error {
	mgr, err := bufmgr.Open(path, capacity)
	if err != nil {
		return err
	}
	defer mgr.Close()

	page, err := mgr.ReadPage(metaPageID)
	if err != nil {
		return err
	}
	m, ok := decodeMeta(page)
	if err := mgr.UnpinPage(metaPageID, false); err != nil {
		return err
	}
	if !ok {
		return ErrBadIndexInfo
	}

	idx := &Index{mgr: mgr, relationName: m.relationName, attrOffset: m.attrOffset, kind: m.keyKind, root: m.rootPage}
	return idx.InspectTo(w)
}

func formatKey(b []byte, kind KeyKind) string {
	switch kind {
	case KeyInt32:
		return fmt.Sprintf("%d", DecodeInt32Key(b))
	case KeyFloat64:
		return fmt.Sprintf("%g", DecodeFloat64Key(b))
	case KeyString10:
		return fmt.Sprintf("%q", string(b))
	default:
		return fmt.Sprintf("%x", b)
	}
}
