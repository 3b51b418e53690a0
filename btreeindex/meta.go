package btreeindex

import (
	"encoding/binary"

	"secidx/bufmgr"
)

// metaMagic stamps page 0 so Open can tell a real index file from an empty
// or foreign one before trusting any other field.
const metaMagic = 0x53_49_44_58 // "SIDX"

const (
	metaRelationNameSize = 64
	metaOffsetOff         = metaRelationNameSize
	metaTypeTagOff         = metaOffsetOff + 4
	metaRootPageOff        = metaTypeTagOff + 4
	metaMagicOff           = metaRootPageOff + 4
)

const metaPageID bufmgr.PageID = 0

type metaPage struct {
	relationName string
	attrOffset   int32
	keyKind      KeyKind
	rootPage     bufmgr.PageID
}

func encodeMeta(page []byte, m metaPage) {
	for i := range page[:metaRelationNameSize] {
		page[i] = 0
	}
	copy(page[:metaRelationNameSize], m.relationName)
	binary.LittleEndian.PutUint32(page[metaOffsetOff:], uint32(m.attrOffset))
	binary.LittleEndian.PutUint32(page[metaTypeTagOff:], uint32(m.keyKind))
	binary.LittleEndian.PutUint32(page[metaRootPageOff:], uint32(m.rootPage))
	binary.LittleEndian.PutUint32(page[metaMagicOff:], metaMagic)
}

func decodeMeta(page []byte) (metaPage, bool) {
	magic := binary.LittleEndian.Uint32(page[metaMagicOff:])
	if magic != metaMagic {
		return metaPage{}, false
	}
	nameEnd := metaRelationNameSize
	for nameEnd > 0 && page[nameEnd-1] == 0 {
		nameEnd--
	}
	return metaPage{
		relationName: string(page[:nameEnd]),
		attrOffset:   int32(binary.LittleEndian.Uint32(page[metaOffsetOff:])),
		keyKind:      KeyKind(binary.LittleEndian.Uint32(page[metaTypeTagOff:])),
		rootPage:     bufmgr.PageID(binary.LittleEndian.Uint32(page[metaRootPageOff:])),
	}, true
}

func setMetaRoot(page []byte, root bufmgr.PageID) {
	binary.LittleEndian.PutUint32(page[metaRootPageOff:], uint32(root))
}
