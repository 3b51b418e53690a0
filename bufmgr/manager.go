// Package bufmgr is the page-granularity buffer manager consumed as an
// external collaborator by the B+ tree core. It hands out pinned page
// buffers, tracks dirty bits, and evicts unpinned frames under a capacity
// cap. Frame selection among unpinned candidates is advised by a ristretto
// admission cache; the pin table remains the sole source of truth for which
// frames may never be evicted.
package bufmgr

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/ristretto/v2"
)

type frame struct {
	data     []byte
	pinCount int
	dirty    bool
}

// Manager is the concrete buffer manager: a fixed-capacity frame table over
// one backing file, with a free list for deallocated pages so merges in the
// tree don't leak space.
type Manager struct {
	mu       sync.Mutex
	store    *pageStore
	capacity int
	frames   map[PageID]*frame
	freeList []PageID
	closed   bool

	admission *ristretto.Cache[PageID, int64]
	hints     chan PageID
	epoch     int64
}

// Open creates or opens the backing file at path and returns a Manager that
// keeps at most capacity pages resident at once.
func Open(path string, capacity int) (*Manager, error) {
	if capacity < 2 {
		capacity = 2 // root + one child must be able to coexist while pinned
	}
	store, err := openPageStore(path)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		store:    store,
		capacity: capacity,
		frames:   make(map[PageID]*frame, capacity),
		hints:    make(chan PageID, capacity),
	}

	cache, err := ristretto.NewCache(&ristretto.Config[PageID, int64]{
		NumCounters: int64(capacity) * 10,
		MaxCost:     int64(capacity),
		BufferItems: 64,
		OnEvict: func(item *ristretto.Item[int64]) {
			select {
			case m.hints <- PageID(item.Key):
			default:
			}
		},
	})
	if err != nil {
		store.close()
		return nil, errors.Wrap(err, "bufmgr: create admission cache")
	}
	m.admission = cache

	return m, nil
}

func (m *Manager) touch(id PageID) {
	m.epoch++
	m.admission.Set(id, m.epoch, 1)
}

// AllocPage allocates a new page (reusing a freed one if available), pins
// it, and returns it zeroed and marked dirty.
func (m *Manager) AllocPage() (PageID, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, nil, ErrManagerClosed
	}

	if err := m.ensureCapacityLocked(); err != nil {
		return 0, nil, err
	}

	var id PageID
	if n := len(m.freeList); n > 0 {
		id = m.freeList[n-1]
		m.freeList = m.freeList[:n-1]
	} else {
		var err error
		id, err = m.store.appendPage()
		if err != nil {
			return 0, nil, err
		}
	}

	data := make([]byte, PageSize)
	m.frames[id] = &frame{data: data, pinCount: 1, dirty: true}
	m.touch(id)
	return id, data, nil
}

// ReadPage pins and returns the bytes of page id, loading it from disk on a
// cache miss. The returned slice is shared with the frame table; callers
// mutate it in place and report the mutation via UnpinPage's dirty flag.
func (m *Manager) ReadPage(id PageID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrManagerClosed
	}

	if f, ok := m.frames[id]; ok {
		f.pinCount++
		m.touch(id)
		return f.data, nil
	}

	if err := m.ensureCapacityLocked(); err != nil {
		return nil, err
	}

	data, err := m.store.readPage(id)
	if err != nil {
		return nil, err
	}
	m.frames[id] = &frame{data: data, pinCount: 1}
	m.touch(id)
	return data, nil
}

// UnpinPage releases one pin on id. Unpinning a page that isn't pinned by
// the caller is a pin-discipline bug and returns ErrPageNotPinned rather
// than being silently ignored.
func (m *Manager) UnpinPage(id PageID, dirty bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.frames[id]
	if !ok || f.pinCount <= 0 {
		return errors.Wrapf(ErrPageNotPinned, "page %d", id)
	}
	f.pinCount--
	if dirty {
		f.dirty = true
	}
	if f.pinCount == 0 {
		m.touch(id)
	}
	return nil
}

// DeallocPage frees a page that is no longer referenced by the tree (a leaf
// or internal node absorbed by a merge). The page id is queued for reuse by
// a future AllocPage rather than left as a permanent leak.
func (m *Manager) DeallocPage(id PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f, ok := m.frames[id]; ok {
		if f.pinCount > 0 {
			return errors.Wrapf(ErrPagePinned, "cannot deallocate pinned page %d", id)
		}
		delete(m.frames, id)
	}
	m.admission.Del(id)
	m.freeList = append(m.freeList, id)
	return nil
}

// FlushFile writes every dirty frame to disk. It fails if any page is still
// pinned — a caller must release every pin before a flush can be trusted
// to be complete.
func (m *Manager) FlushFile() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, f := range m.frames {
		if f.pinCount > 0 {
			return errors.Wrapf(ErrPagePinned, "page %d", id)
		}
	}
	for id, f := range m.frames {
		if !f.dirty {
			continue
		}
		if err := m.store.writePage(id, f.data); err != nil {
			return err
		}
		f.dirty = false
	}
	return m.store.sync()
}

// Close flushes and closes the backing file. Any page still pinned at close
// time is a caller bug; Close reports it rather than leaking silently.
func (m *Manager) Close() error {
	if err := m.FlushFile(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.admission.Close()
	return m.store.close()
}

// ensureCapacityLocked evicts one unpinned frame if the table is full.
// ristretto's eviction hints are consulted first (cheap, usually correct);
// the linear scan is the fallback that guarantees progress even when no
// hint has arrived yet, and is the only path that can run when the
// admission cache's async buffer hasn't drained a Set yet.
func (m *Manager) ensureCapacityLocked() error {
	if len(m.frames) < m.capacity {
		return nil
	}

	for drained := false; !drained; {
		select {
		case id := <-m.hints:
			if f, ok := m.frames[id]; ok && f.pinCount == 0 {
				return m.evictLocked(id, f)
			}
		default:
			drained = true
		}
	}

	for id, f := range m.frames {
		if f.pinCount == 0 {
			return m.evictLocked(id, f)
		}
	}
	return errors.New("bufmgr: all frames pinned, cannot evict")
}

func (m *Manager) evictLocked(id PageID, f *frame) error {
	if f.dirty {
		if err := m.store.writePage(id, f.data); err != nil {
			return err
		}
	}
	delete(m.frames, id)
	return nil
}

// Resident reports how many frames are currently in memory.
func (m *Manager) Resident() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

// IsEmpty reports whether the backing file has never had a page allocated
// in it, which callers use to distinguish a freshly created file (needs
// initializing) from a pre-existing one (needs opening).
func (m *Manager) IsEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.numPages == 0
}
