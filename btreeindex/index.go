// Package btreeindex is the disk-backed B+ tree secondary index: it maps
// values of one fixed-width tuple attribute to the record identifiers of
// the tuples carrying that value, supporting point lookup, point delete,
// and ordered range scans. It consumes a bufmgr.Manager for page pinning
// and a relation-side Scanner for bulk load; both are external
// collaborators, not part of this package.
package btreeindex

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"secidx/bufmgr"
)

// Scanner is the relation-file collaborator a fresh index bulk-loads from:
// ScanNext advances to the next record and returns its rid, GetRecord
// returns that record's bytes. relfile.Scanner satisfies this.
type Scanner interface {
	ScanNext() (bufmgr.RID, error)
	GetRecord() ([]byte, error)
}

// IndexFileName computes the deterministic backing file name for an index
// over one attribute of a relation.
func IndexFileName(relationName string, attrOffset int32) string {
	return fmt.Sprintf("%s.%d", relationName, attrOffset)
}

// Index is the open handle to a secondary index: the tree driver plus the
// one active scan cursor, if any. The index is single-threaded and not
// re-entrant, and permits at most one scan at a time.
type Index struct {
	mgr          *bufmgr.Manager
	relationName string
	attrOffset   int32
	kind         KeyKind
	root         bufmgr.PageID

	leafCap int
	nodeCap int

	cursor     *scanCursor
	splitCount int64
}

// BuildStats reports what a bulk load did, for CLI and test visibility.
type BuildStats struct {
	Records int64 // records scanned from the source relation
	Splits  int64 // leaf and internal node splits triggered while inserting
	Height  int32 // final tree height (1 for a root that is still a leaf)
}

// Open opens an existing index file or, if mgr's backing file is empty,
// creates a fresh one and bulk-loads it by scanning source (source may be
// nil, producing an empty index). An existing file's meta page must match
// the requested relationName/attrOffset/kind exactly, or ErrBadIndexInfo is
// returned.
func Open(mgr *bufmgr.Manager, relationName string, attrOffset int32, kind KeyKind, source Scanner) (*Index, *BuildStats, error) {
	idx := &Index{
		mgr:          mgr,
		relationName: relationName,
		attrOffset:   attrOffset,
		kind:         kind,
		leafCap:      LeafCap(kind.Width()),
		nodeCap:      NodeCap(kind.Width()),
	}

	if mgr.IsEmpty() {
		stats, err := idx.create(source)
		if err != nil {
			return nil, nil, err
		}
		return idx, stats, nil
	}

	if err := idx.openExisting(); err != nil {
		return nil, nil, err
	}
	return idx, &BuildStats{}, nil
}

func (idx *Index) openExisting() error {
	page, err := idx.mgr.ReadPage(metaPageID)
	if err != nil {
		return err
	}
	defer idx.mgr.UnpinPage(metaPageID, false)

	m, ok := decodeMeta(page)
	if !ok {
		return errors.Wrap(ErrBadIndexInfo, "meta page is not a valid index meta page")
	}
	if m.relationName != idx.relationName || m.attrOffset != idx.attrOffset || m.keyKind != idx.kind {
		return errors.Wrapf(ErrBadIndexInfo, "meta page describes %s.%d (%s), requested %s.%d (%s)",
			m.relationName, m.attrOffset, m.keyKind, idx.relationName, idx.attrOffset, idx.kind)
	}
	idx.root = m.rootPage
	return nil
}

func (idx *Index) create(source Scanner) (*BuildStats, error) {
	metaID, metaPageBytes, err := idx.mgr.AllocPage()
	if err != nil {
		return nil, err
	}
	if metaID != metaPageID {
		return nil, errors.Newf("btreeindex: expected meta at page 0, got %d", metaID)
	}

	rootHandle, err := idx.allocLeaf()
	if err != nil {
		idx.mgr.UnpinPage(metaID, true)
		return nil, err
	}
	idx.root = rootHandle.id
	if err := rootHandle.unpin(idx, true); err != nil {
		return nil, err
	}

	encodeMeta(metaPageBytes, metaPage{
		relationName: idx.relationName,
		attrOffset:   idx.attrOffset,
		keyKind:      idx.kind,
		rootPage:     idx.root,
	})
	if err := idx.mgr.UnpinPage(metaID, true); err != nil {
		return nil, err
	}

	stats := &BuildStats{Height: 1}
	if source == nil {
		return stats, nil
	}
	for {
		rid, err := source.ScanNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}
		stats.Records++
		record, err := source.GetRecord()
		if err != nil {
			return stats, err
		}
		key, err := ExtractAttribute(record, int(idx.attrOffset), idx.kind)
		if err != nil {
			return stats, err
		}
		if err := idx.Insert(key, rid); err != nil {
			return stats, err
		}
	}
	stats.Splits = idx.splitCount
	height, err := idx.height()
	if err != nil {
		return stats, err
	}
	stats.Height = height
	return stats, nil
}

// height reports the number of levels from root to leaf, inclusive: 1 when
// the root is itself a leaf.
func (idx *Index) height() (int32, error) {
	page, err := idx.mgr.ReadPage(idx.root)
	if err != nil {
		return 0, err
	}
	defer idx.mgr.UnpinPage(idx.root, false)

	if readPageKind(page) == pageKindLeaf {
		return 1, nil
	}
	return decodeInternal(page, idx.kind).level + 1, nil
}

func (idx *Index) persistRoot() error {
	page, err := idx.mgr.ReadPage(metaPageID)
	if err != nil {
		return err
	}
	setMetaRoot(page, idx.root)
	return idx.mgr.UnpinPage(metaPageID, true)
}

func (idx *Index) minLeafOccupancy() int { return idx.leafCap / 2 }
func (idx *Index) minNodeOccupancy() int { return idx.nodeCap / 2 }

// Get performs a point lookup, returning every rid stored under key. Equal
// keys can be split across sibling leaves once a run of duplicates outgrows
// one leaf's capacity, so this is implemented in terms of
// StartScan/NextRecord/EndScan rather than a single-leaf scan, matching the
// bound-by-key range [key,key] a range scan already knows how to walk across
// leaf boundaries. It returns ErrNoSuchKeyFound if key has no entries, the
// only call site that raises that error. Starting a Get implicitly ends any
// scan the caller had in progress, the same as calling StartScan directly.
func (idx *Index) Get(key []byte) ([]bufmgr.RID, error) {
	if err := idx.StartScan(OpGE, key, OpLE, key); err != nil {
		return nil, err
	}

	var out []bufmgr.RID
	for {
		rid, err := idx.NextRecord()
		if errors.Is(err, ErrIndexScanCompleted) {
			break
		}
		if err != nil {
			idx.EndScan()
			return nil, err
		}
		out = append(out, rid)
	}
	if err := idx.EndScan(); err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return nil, errors.Wrapf(ErrNoSuchKeyFound, "key not present")
	}
	return out, nil
}

// Close flushes all pending changes to the backing file. The bufmgr.Manager
// itself was constructed by the caller and remains theirs to close.
func (idx *Index) Close() error {
	if idx.cursor != nil {
		if err := idx.EndScan(); err != nil {
			return err
		}
	}
	return idx.mgr.FlushFile()
}
