package btreeindex

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"

	"secidx/bufmgr"
)

// shrinkPageSizeForTest overrides the package's notion of page size for the
// duration of the calling test, restoring the real bufmgr.PageSize on
// cleanup. A handful of tests need this to reach a multi-level tree (forcing
// internal splits and internal-level merges) without needing the hundreds
// of thousands of inserts a real 4096-byte page's capacity would require.
func shrinkPageSizeForTest(t *testing.T, size int) {
	t.Helper()
	orig := pageSize
	pageSize = size
	t.Cleanup(func() { pageSize = orig })
}

func openTestIndex(t *testing.T, kind KeyKind) (*Index, *bufmgr.Manager, func()) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.idx")
	mgr, err := bufmgr.Open(path, 64)
	if err != nil {
		t.Fatalf("open manager: %v", err)
	}
	idx, _, err := Open(mgr, "rel", 0, kind, nil)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	return idx, mgr, func() { idx.Close(); mgr.Close() }
}

func TestInsertAndGetRoundTrip(t *testing.T) {
	idx, _, cleanup := openTestIndex(t, KeyInt32)
	defer cleanup()

	for i := int32(0); i < 50; i++ {
		rid := bufmgr.RID{PageID: bufmgr.PageID(i + 1), SlotID: 0}
		if err := idx.Insert(EncodeInt32Key(i), rid); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	rids, err := idx.Get(EncodeInt32Key(10))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(rids) != 1 || rids[0].PageID != 11 {
		t.Fatalf("unexpected rids: %v", rids)
	}

	if _, err := idx.Get(EncodeInt32Key(999)); err == nil {
		t.Fatalf("expected ErrNoSuchKeyFound for missing key")
	}
}

func TestInsertForcesLeafAndInternalSplits(t *testing.T) {
	// A real 4096-byte page holds 340 int32 leaf entries and 510 internal
	// keys, so forcing a root split (let alone a second one, which is what
	// it takes to exercise a non-root internal node at all) needs an
	// unreasonable insert count. Shrink the page so both happen well within
	// a few thousand inserts.
	shrinkPageSizeForTest(t, 128)
	idx, _, cleanup := openTestIndex(t, KeyInt32)
	defer cleanup()

	const n = 2000
	for i := int32(0); i < n; i++ {
		rid := bufmgr.RID{PageID: bufmgr.PageID(i + 1), SlotID: uint32(i % 7)}
		if err := idx.Insert(EncodeInt32Key(i), rid); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	root, err := idx.readInternal(idx.root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	rootLevel := root.node.level
	if err := root.unpin(idx, false); err != nil {
		t.Fatalf("unpin root: %v", err)
	}
	// level 1 means the root's children are leaves (one root split: only
	// the root itself exists above the leaves). level >= 2 means the
	// root's children are themselves internal nodes, i.e. a second root
	// split pushed a non-root internal node into existence.
	if rootLevel < 2 {
		t.Fatalf("expected a second root split (root level >= 2), root level is %d", rootLevel)
	}

	if err := idx.StartScan(OpGE, EncodeInt32Key(0), OpLE, EncodeInt32Key(n-1)); err != nil {
		t.Fatalf("start scan: %v", err)
	}
	var count int32
	for {
		rid, err := idx.NextRecord()
		if err == ErrIndexScanCompleted {
			break
		}
		if err != nil {
			t.Fatalf("next record: %v", err)
		}
		if rid.PageID != bufmgr.PageID(count+1) {
			t.Fatalf("scan out of order at %d: got rid %v", count, rid)
		}
		count++
	}
	if err := idx.EndScan(); err != nil {
		t.Fatalf("end scan: %v", err)
	}
	if count != n {
		t.Fatalf("scanned %d entries, want %d", count, n)
	}
}

func TestDeleteTriggersRedistributeAndMerge(t *testing.T) {
	idx, _, cleanup := openTestIndex(t, KeyInt32)
	defer cleanup()

	const n = 3000
	for i := int32(0); i < n; i++ {
		rid := bufmgr.RID{PageID: bufmgr.PageID(i + 1), SlotID: 0}
		if err := idx.Insert(EncodeInt32Key(i), rid); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	for i := int32(0); i < n; i += 2 {
		rid := bufmgr.RID{PageID: bufmgr.PageID(i + 1), SlotID: 0}
		if err := idx.Delete(EncodeInt32Key(i), rid); err != nil {
			t.Fatalf("delete %d: %v", i, err)
		}
	}

	for i := int32(0); i < n; i += 2 {
		if _, err := idx.Get(EncodeInt32Key(i)); err == nil {
			t.Fatalf("key %d should have been deleted", i)
		}
	}
	for i := int32(1); i < n; i += 2 {
		rids, err := idx.Get(EncodeInt32Key(i))
		if err != nil || len(rids) != 1 {
			t.Fatalf("key %d should still be present: rids=%v err=%v", i, rids, err)
		}
	}
}

// TestDeleteTriggersInternalLevelRedistributeAndMerge shrinks the page size
// to force a tree at least 3 levels tall (root -> internal -> leaf), so
// that deleting enough keys to underflow a non-root internal node actually
// exercises fixInternalAfterRemoval's redistribute-then-merge path on that
// node, not just the root or the leaf level.
func TestDeleteTriggersInternalLevelRedistributeAndMerge(t *testing.T) {
	shrinkPageSizeForTest(t, 128)
	idx, _, cleanup := openTestIndex(t, KeyInt32)
	defer cleanup()

	const n = 2000
	for i := int32(0); i < n; i++ {
		rid := bufmgr.RID{PageID: bufmgr.PageID(i + 1), SlotID: 0}
		if err := idx.Insert(EncodeInt32Key(i), rid); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	root, err := idx.readInternal(idx.root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	rootLevel := root.node.level
	if err := root.unpin(idx, false); err != nil {
		t.Fatalf("unpin root: %v", err)
	}
	if rootLevel < 2 {
		t.Fatalf("setup did not reach a 3-level tree, root level is %d", rootLevel)
	}

	// Delete the lower three quarters of the keyspace: entire subtrees
	// below non-root internal nodes empty out, forcing redistribute and
	// merge at every level the tree has, not just at the leaves.
	boundary := int32(3 * n / 4)
	for i := int32(0); i < boundary; i++ {
		rid := bufmgr.RID{PageID: bufmgr.PageID(i + 1), SlotID: 0}
		if err := idx.Delete(EncodeInt32Key(i), rid); err != nil {
			t.Fatalf("delete %d: %v", i, err)
		}
	}

	for i := int32(0); i < boundary; i++ {
		if _, err := idx.Get(EncodeInt32Key(i)); err == nil {
			t.Fatalf("key %d should have been deleted", i)
		}
	}
	for i := boundary; i < n; i++ {
		rids, err := idx.Get(EncodeInt32Key(i))
		if err != nil || len(rids) != 1 {
			t.Fatalf("key %d should still be present: rids=%v err=%v", i, rids, err)
		}
	}

	if err := idx.StartScan(OpGE, EncodeInt32Key(boundary), OpLE, EncodeInt32Key(n-1)); err != nil {
		t.Fatalf("start scan: %v", err)
	}
	var count int32
	for {
		rid, err := idx.NextRecord()
		if err == ErrIndexScanCompleted {
			break
		}
		if err != nil {
			t.Fatalf("next record: %v", err)
		}
		if rid.PageID != bufmgr.PageID(boundary+count+1) {
			t.Fatalf("scan out of order at %d: got rid %v", count, rid)
		}
		count++
	}
	if err := idx.EndScan(); err != nil {
		t.Fatalf("end scan: %v", err)
	}
	if count != n-boundary {
		t.Fatalf("scanned %d entries after delete, want %d", count, n-boundary)
	}
}

func TestDuplicateKeysKeptDistinctByRID(t *testing.T) {
	idx, _, cleanup := openTestIndex(t, KeyInt32)
	defer cleanup()

	key := EncodeInt32Key(7)
	ridA := bufmgr.RID{PageID: 1, SlotID: 0}
	ridB := bufmgr.RID{PageID: 2, SlotID: 0}
	if err := idx.Insert(key, ridA); err != nil {
		t.Fatal(err)
	}
	if err := idx.Insert(key, ridB); err != nil {
		t.Fatal(err)
	}

	rids, err := idx.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	if len(rids) != 2 {
		t.Fatalf("expected 2 rids for duplicate key, got %d", len(rids))
	}

	if err := idx.Delete(key, ridA); err != nil {
		t.Fatal(err)
	}
	rids, err = idx.Get(key)
	if err != nil || len(rids) != 1 || rids[0] != ridB {
		t.Fatalf("expected only ridB to remain, got %v err=%v", rids, err)
	}
}

// TestDuplicateRunSpillsAcrossLeaves inserts enough copies of one key to
// force a leaf split in the middle of a run of duplicates, so the later
// copies land in a sibling leaf reachable only via the leaf chain. Get must
// still find every one of them.
func TestDuplicateRunSpillsAcrossLeaves(t *testing.T) {
	shrinkPageSizeForTest(t, 128) // leafCap(int32) = 9 at this page size
	idx, _, cleanup := openTestIndex(t, KeyInt32)
	defer cleanup()

	key := EncodeInt32Key(42)
	const n = 25 // several times leafCap(9), spilling the run across 3+ leaves
	for i := int32(0); i < n; i++ {
		rid := bufmgr.RID{PageID: bufmgr.PageID(i + 1), SlotID: uint32(i)}
		if err := idx.Insert(key, rid); err != nil {
			t.Fatalf("insert duplicate %d: %v", i, err)
		}
	}

	rids, err := idx.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(rids) != n {
		t.Fatalf("expected %d rids for one heavily-duplicated key, got %d: %v", n, len(rids), rids)
	}

	seen := make(map[bufmgr.RID]bool)
	for _, rid := range rids {
		seen[rid] = true
	}
	for i := int32(0); i < n; i++ {
		want := bufmgr.RID{PageID: bufmgr.PageID(i + 1), SlotID: uint32(i)}
		if !seen[want] {
			t.Fatalf("missing rid %v among Get results: %v", want, rids)
		}
	}
}

func TestStartScanRejectsBadOperatorAndRange(t *testing.T) {
	idx, _, cleanup := openTestIndex(t, KeyInt32)
	defer cleanup()

	if err := idx.StartScan(OpLT, EncodeInt32Key(0), OpLE, EncodeInt32Key(10)); err != ErrBadOperator {
		t.Fatalf("expected ErrBadOperator, got %v", err)
	}
	if err := idx.StartScan(OpGE, EncodeInt32Key(10), OpLE, EncodeInt32Key(0)); err != ErrBadScanRange {
		t.Fatalf("expected ErrBadScanRange, got %v", err)
	}
}

func TestNextRecordWithoutStartScan(t *testing.T) {
	idx, _, cleanup := openTestIndex(t, KeyInt32)
	defer cleanup()

	if _, err := idx.NextRecord(); err != ErrScanNotInitialized {
		t.Fatalf("expected ErrScanNotInitialized, got %v", err)
	}
	if err := idx.EndScan(); err != ErrScanNotInitialized {
		t.Fatalf("expected ErrScanNotInitialized, got %v", err)
	}
}

func TestOpenExistingValidatesIndexInfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.idx")
	mgr, err := bufmgr.Open(path, 64)
	if err != nil {
		t.Fatal(err)
	}
	idx, _, err := Open(mgr, "rel", 4, KeyInt32, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Insert(EncodeInt32Key(1), bufmgr.RID{PageID: 1}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatal(err)
	}

	mgr2, err := bufmgr.Open(path, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer mgr2.Close()
	if _, _, err := Open(mgr2, "rel", 8, KeyInt32, nil); !errors.Is(err, ErrBadIndexInfo) {
		t.Fatalf("expected ErrBadIndexInfo for mismatched offset, got %v", err)
	}
}

type sliceScanner struct {
	records [][]byte
	rids    []bufmgr.RID
	i       int
}

func (s *sliceScanner) ScanNext() (bufmgr.RID, error) {
	if s.i >= len(s.records) {
		return bufmgr.RID{}, io.EOF
	}
	rid := s.rids[s.i]
	s.i++
	return rid, nil
}

func (s *sliceScanner) GetRecord() ([]byte, error) {
	return s.records[s.i-1], nil
}

func TestBulkLoadFromScanner(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.idx")
	mgr, err := bufmgr.Open(path, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()

	src := &sliceScanner{}
	for i := int32(0); i < 20; i++ {
		src.records = append(src.records, EncodeInt32Key(i))
		src.rids = append(src.rids, bufmgr.RID{PageID: bufmgr.PageID(i + 1)})
	}

	idx, stats, err := Open(mgr, "rel", 0, KeyInt32, src)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Records != 20 || stats.Splits != 0 || stats.Height != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	rids, err := idx.Get(EncodeInt32Key(5))
	if err != nil || len(rids) != 1 {
		t.Fatalf("bulk-loaded key missing: rids=%v err=%v", rids, err)
	}
}

func TestInspectToDoesNotError(t *testing.T) {
	idx, _, cleanup := openTestIndex(t, KeyInt32)
	defer cleanup()
	for i := int32(0); i < 500; i++ {
		if err := idx.Insert(EncodeInt32Key(i), bufmgr.RID{PageID: bufmgr.PageID(i + 1)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := idx.InspectTo(os.Stdout); err != nil {
		t.Fatalf("inspect: %v", err)
	}
}
