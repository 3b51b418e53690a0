package bufmgr

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func newTestManager(t *testing.T, capacity int) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.idx")
	m, err := Open(path, capacity)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { m.Close(); os.Remove(path) })
	return m, path
}

func TestAllocReadUnpinRoundTrip(t *testing.T) {
	m, _ := newTestManager(t, 8)

	id, data, err := m.AllocPage()
	if err != nil {
		t.Fatalf("AllocPage: %v", err)
	}
	copy(data, []byte("hello page"))
	if err := m.UnpinPage(id, true); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}

	got, err := m.ReadPage(id)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if !bytes.HasPrefix(got, []byte("hello page")) {
		t.Errorf("expected prefix %q, got %q", "hello page", got[:10])
	}
	if err := m.UnpinPage(id, false); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}
}

func TestUnpinWithoutPinFails(t *testing.T) {
	m, _ := newTestManager(t, 8)
	if err := m.UnpinPage(PageID(99), false); err == nil {
		t.Fatal("expected ErrPageNotPinned, got nil")
	}
}

func TestFlushFailsWhilePinned(t *testing.T) {
	m, _ := newTestManager(t, 8)
	id, _, err := m.AllocPage()
	if err != nil {
		t.Fatalf("AllocPage: %v", err)
	}
	if err := m.FlushFile(); err == nil {
		t.Fatal("expected FlushFile to fail while page is pinned")
	}
	if err := m.UnpinPage(id, true); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}
	if err := m.FlushFile(); err != nil {
		t.Fatalf("FlushFile after unpin: %v", err)
	}
}

func TestEvictionNeverTouchesPinnedPage(t *testing.T) {
	m, _ := newTestManager(t, 2)

	pinned, _, err := m.AllocPage()
	if err != nil {
		t.Fatalf("AllocPage: %v", err)
	}

	// Churn through more pages than fit in the frame table; the pinned
	// page must remain resident and readable throughout.
	for i := 0; i < 10; i++ {
		id, data, err := m.AllocPage()
		if err != nil {
			t.Fatalf("AllocPage %d: %v", i, err)
		}
		copy(data, []byte("churn"))
		if err := m.UnpinPage(id, true); err != nil {
			t.Fatalf("UnpinPage %d: %v", i, err)
		}
	}

	if _, err := m.ReadPage(pinned); err != nil {
		t.Fatalf("pinned page %d was evicted: %v", pinned, err)
	}
	if err := m.UnpinPage(pinned, false); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}
	if err := m.UnpinPage(pinned, false); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}
}

func TestDeallocPageIsReused(t *testing.T) {
	m, _ := newTestManager(t, 8)

	id, _, err := m.AllocPage()
	if err != nil {
		t.Fatalf("AllocPage: %v", err)
	}
	if err := m.UnpinPage(id, true); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}
	if err := m.DeallocPage(id); err != nil {
		t.Fatalf("DeallocPage: %v", err)
	}

	reused, _, err := m.AllocPage()
	if err != nil {
		t.Fatalf("AllocPage: %v", err)
	}
	if reused != id {
		t.Errorf("expected freed page %d to be reused, got %d", id, reused)
	}
	m.UnpinPage(reused, true)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.idx")

	m1, err := Open(path, 8)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, data, err := m1.AllocPage()
	if err != nil {
		t.Fatalf("AllocPage: %v", err)
	}
	copy(data, []byte("durable"))
	if err := m1.UnpinPage(id, true); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}
	if err := m1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	m2, err := Open(path, 8)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer m2.Close()
	got, err := m2.ReadPage(id)
	if err != nil {
		t.Fatalf("ReadPage after reopen: %v", err)
	}
	if !bytes.HasPrefix(got, []byte("durable")) {
		t.Errorf("data did not survive reopen: %q", got[:10])
	}
	m2.UnpinPage(id, false)
}
