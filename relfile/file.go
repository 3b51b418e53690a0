// Package relfile is the relation-file collaborator the B+ tree core
// bulk-loads from: a flat sequence of fixed-size records, paged through a
// bufmgr.Manager, identified by (page id, slot id) the same way the
// grounding repo's heap file manager identifies rows — but with fixed-width
// slots, since a secondary index's relation file holds fixed-size records,
// not the variable-length rows a general heap file supports.
package relfile

import (
	"github.com/cockroachdb/errors"

	"secidx/bufmgr"
)

const headerPageID bufmgr.PageID = 0

// File is an open relation file: one bufmgr.Manager-backed page sequence,
// page 0 reserved for the record-size/record-count header, every
// subsequent page holding as many fixed-size records as fit.
type File struct {
	mgr            *bufmgr.Manager
	recordSize     int
	recordsPerPage int
	recordCount    int64
}

// Create initializes a new relation file with the given fixed record size.
func Create(path string, recordSize int, capacity int) (*File, error) {
	if recordSize <= 0 || recordSize > bufmgr.PageSize {
		return nil, errors.Wrapf(ErrRecordTooLarge, "record size %d", recordSize)
	}
	mgr, err := bufmgr.Open(path, capacity)
	if err != nil {
		return nil, err
	}
	f := &File{mgr: mgr, recordSize: recordSize, recordsPerPage: bufmgr.PageSize / recordSize}

	id, page, err := mgr.AllocPage()
	if err != nil {
		mgr.Close()
		return nil, err
	}
	if id != headerPageID {
		mgr.Close()
		return nil, errors.Newf("relfile: expected header at page 0, got %d", id)
	}
	writeHeader(page, recordSize, 0)
	if err := mgr.UnpinPage(id, true); err != nil {
		mgr.Close()
		return nil, err
	}
	return f, nil
}

// Open opens an existing relation file and reads its header.
func Open(path string, capacity int) (*File, error) {
	mgr, err := bufmgr.Open(path, capacity)
	if err != nil {
		return nil, err
	}
	page, err := mgr.ReadPage(headerPageID)
	if err != nil {
		mgr.Close()
		return nil, err
	}
	recordSize, recordCount := readHeader(page)
	if err := mgr.UnpinPage(headerPageID, false); err != nil {
		mgr.Close()
		return nil, err
	}
	return &File{
		mgr:            mgr,
		recordSize:     recordSize,
		recordsPerPage: bufmgr.PageSize / recordSize,
		recordCount:    recordCount,
	}, nil
}

// RecordSize returns the fixed width of every record in the file.
func (f *File) RecordSize() int { return f.recordSize }

// RecordCount returns the number of records currently stored.
func (f *File) RecordCount() int64 { return f.recordCount }

// AppendRecord writes data (which must be exactly RecordSize() bytes) as a
// new record and returns its RID.
func (f *File) AppendRecord(data []byte) (bufmgr.RID, error) {
	if len(data) != f.recordSize {
		return bufmgr.RID{}, errors.Newf("relfile: record is %d bytes, want %d", len(data), f.recordSize)
	}

	idx := f.recordCount
	pageOffset := idx / int64(f.recordsPerPage)
	slot := uint32(idx % int64(f.recordsPerPage))
	pageID := bufmgr.PageID(1 + pageOffset)

	page, err := f.loadOrCreateDataPage(pageID)
	if err != nil {
		return bufmgr.RID{}, err
	}
	off := int(slot) * f.recordSize
	copy(page[off:off+f.recordSize], data)
	if err := f.mgr.UnpinPage(pageID, true); err != nil {
		return bufmgr.RID{}, err
	}

	f.recordCount++
	if err := f.writeHeaderPage(); err != nil {
		return bufmgr.RID{}, err
	}
	return bufmgr.RID{PageID: pageID, SlotID: slot}, nil
}

// ReadRecord returns a copy of the record stored at rid.
func (f *File) ReadRecord(rid bufmgr.RID) ([]byte, error) {
	page, err := f.mgr.ReadPage(rid.PageID)
	if err != nil {
		return nil, err
	}
	off := int(rid.SlotID) * f.recordSize
	out := make([]byte, f.recordSize)
	copy(out, page[off:off+f.recordSize])
	return out, f.mgr.UnpinPage(rid.PageID, false)
}

// Scan returns a fresh Scanner positioned before the first record.
func (f *File) Scan() *Scanner {
	return &Scanner{file: f}
}

func (f *File) Close() error {
	return f.mgr.Close()
}

func (f *File) loadOrCreateDataPage(id bufmgr.PageID) ([]byte, error) {
	page, err := f.mgr.ReadPage(id)
	if err == nil {
		return page, nil
	}
	// Page doesn't exist yet: allocate it. bufmgr numbers pages
	// sequentially, so as long as records are only ever appended the
	// allocated id matches the id AppendRecord computed.
	allocID, allocPage, allocErr := f.mgr.AllocPage()
	if allocErr != nil {
		return nil, allocErr
	}
	if allocID != id {
		return nil, errors.Newf("relfile: expected to allocate page %d, got %d", id, allocID)
	}
	return allocPage, nil
}

func (f *File) writeHeaderPage() error {
	page, err := f.mgr.ReadPage(headerPageID)
	if err != nil {
		return err
	}
	writeHeader(page, f.recordSize, f.recordCount)
	return f.mgr.UnpinPage(headerPageID, true)
}
