package bufmgr

import (
	"os"

	"github.com/cockroachdb/errors"
)

// PageSize is the fixed size of every page this package hands out, on disk
// and in memory. Both index nodes and relation pages are PageSize-sized
// units so a single Manager can back either.
const PageSize = 4096

// PageID identifies a page within a single backing file. 0 is a valid page
// id (the meta page of an index file lives at page 0); callers that need a
// "no page" sentinel use a separate zero-value convention of their own (a
// leaf's right-sibling pointer and an unset root pointer both use 0 for
// that, which works because page 0 is never a leaf or an internal node).
type PageID uint32

// pageStore is the raw disk-backed page file: fixed PageSize slots, grown by
// appending. It has no notion of pinning; Manager layers pin discipline and
// eviction on top of it. Mirrors the grounding repo's OnDiskPager.
type pageStore struct {
	file     *os.File
	path     string
	numPages uint32
}

func openPageStore(path string) (*pageStore, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "bufmgr: open %s", path)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "bufmgr: stat %s", path)
	}
	return &pageStore{
		file:     file,
		path:     path,
		numPages: uint32(stat.Size() / PageSize),
	}, nil
}

func (s *pageStore) readPage(id PageID) ([]byte, error) {
	buf := make([]byte, PageSize)
	_, err := s.file.ReadAt(buf, int64(id)*PageSize)
	if err != nil {
		return nil, errors.Wrapf(err, "bufmgr: read page %d", id)
	}
	return buf, nil
}

func (s *pageStore) writePage(id PageID, data []byte) error {
	if len(data) != PageSize {
		return errors.Newf("bufmgr: page %d has %d bytes, want %d", id, len(data), PageSize)
	}
	if _, err := s.file.WriteAt(data, int64(id)*PageSize); err != nil {
		return errors.Wrapf(err, "bufmgr: write page %d", id)
	}
	return nil
}

// appendPage grows the file by one zeroed page and returns its id.
func (s *pageStore) appendPage() (PageID, error) {
	id := PageID(s.numPages)
	if err := s.writePage(id, make([]byte, PageSize)); err != nil {
		return 0, err
	}
	s.numPages++
	return id, nil
}

func (s *pageStore) sync() error {
	if err := s.file.Sync(); err != nil {
		return errors.Wrap(err, "bufmgr: sync")
	}
	return nil
}

func (s *pageStore) close() error {
	if err := s.sync(); err != nil {
		s.file.Close()
		return err
	}
	return errors.Wrap(s.file.Close(), "bufmgr: close")
}
