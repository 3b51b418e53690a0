package relfile

import (
	"github.com/cockroachdb/errors"

	"secidx/bufmgr"
)

// Scanner implements the file scanner contract consumed by the B+ tree's
// bulk loader: ScanNext yields the next record's RID, GetRecord returns the
// bytes of the record ScanNext most recently yielded.
type Scanner struct {
	file    *File
	nextIdx int64
	current []byte
}

// ScanNext advances to the next record and returns its RID. It returns
// ErrEndOfFile (which unwraps to io.EOF) once every record has been
// produced.
func (s *Scanner) ScanNext() (bufmgr.RID, error) {
	if s.nextIdx >= s.file.recordCount {
		return bufmgr.RID{}, ErrEndOfFile
	}

	idx := s.nextIdx
	pageOffset := idx / int64(s.file.recordsPerPage)
	slot := uint32(idx % int64(s.file.recordsPerPage))
	pageID := bufmgr.PageID(1 + pageOffset)

	page, err := s.file.mgr.ReadPage(pageID)
	if err != nil {
		return bufmgr.RID{}, errors.Wrapf(err, "relfile: scan record %d", idx)
	}
	off := int(slot) * s.file.recordSize
	s.current = append(s.current[:0], page[off:off+s.file.recordSize]...)
	if err := s.file.mgr.UnpinPage(pageID, false); err != nil {
		return bufmgr.RID{}, err
	}

	s.nextIdx++
	return bufmgr.RID{PageID: pageID, SlotID: slot}, nil
}

// GetRecord returns the bytes of the record most recently yielded by
// ScanNext.
func (s *Scanner) GetRecord() ([]byte, error) {
	if s.current == nil {
		return nil, errors.New("relfile: GetRecord called before ScanNext")
	}
	out := make([]byte, len(s.current))
	copy(out, s.current)
	return out, nil
}
