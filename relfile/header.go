package relfile

import "encoding/binary"

// writeHeader packs the header page: recordSize (int32) at 0, recordCount
// (int64) at 8.
func writeHeader(page []byte, recordSize int, recordCount int64) {
	binary.LittleEndian.PutUint32(page[0:4], uint32(recordSize))
	binary.LittleEndian.PutUint64(page[8:16], uint64(recordCount))
}

func readHeader(page []byte) (recordSize int, recordCount int64) {
	recordSize = int(binary.LittleEndian.Uint32(page[0:4]))
	recordCount = int64(binary.LittleEndian.Uint64(page[8:16]))
	return
}
