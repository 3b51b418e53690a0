package btreeindex

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

// KeyKind is the statically selected key type every tree operation is
// parametric over. It never changes after an index is created — Open
// validates a requested KeyKind against the one recorded in the meta page.
type KeyKind int32

const (
	KeyInt32 KeyKind = iota
	KeyFloat64
	KeyString10
)

// StringKeyWidth is the fixed width of a String10 key: 10 bytes.
const StringKeyWidth = 10

// Width returns the fixed byte width of a key of this kind.
func (k KeyKind) Width() int {
	switch k {
	case KeyInt32:
		return 4
	case KeyFloat64:
		return 8
	case KeyString10:
		return StringKeyWidth
	default:
		return 0
	}
}

func (k KeyKind) String() string {
	switch k {
	case KeyInt32:
		return "int32"
	case KeyFloat64:
		return "float64"
	case KeyString10:
		return "string10"
	default:
		return "unknown"
	}
}

// Compare returns a signed three-way result comparing two keys of this
// kind. String10 keys compare their first StringKeyWidth bytes with no
// assumption of a NUL terminator.
func (k KeyKind) Compare(a, b []byte) int {
	switch k {
	case KeyInt32:
		av := int32(binary.LittleEndian.Uint32(a))
		bv := int32(binary.LittleEndian.Uint32(b))
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case KeyFloat64:
		av := math.Float64frombits(binary.LittleEndian.Uint64(a))
		bv := math.Float64frombits(binary.LittleEndian.Uint64(b))
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case KeyString10:
		return bytes.Compare(a[:StringKeyWidth], b[:StringKeyWidth])
	default:
		panic("btreeindex: unknown key kind")
	}
}

// CopyKey copies src into dst. It is byte-wise and safe when src and dst
// alias because it goes through copy(), which handles overlapping slices
// correctly.
func (k KeyKind) CopyKey(dst, src []byte) {
	copy(dst[:k.Width()], src[:k.Width()])
}

// EncodeInt32Key returns the byte encoding of an int32 key.
func EncodeInt32Key(v int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return buf
}

// EncodeFloat64Key returns the byte encoding of a float64 key.
func EncodeFloat64Key(v float64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
	return buf
}

// EncodeStringKey returns the fixed-width byte encoding of a string key,
// truncated or zero-padded to StringKeyWidth.
func EncodeStringKey(s string) []byte {
	buf := make([]byte, StringKeyWidth)
	copy(buf, s)
	return buf
}

// DecodeInt32Key decodes an int32 key.
func DecodeInt32Key(b []byte) int32 {
	return int32(binary.LittleEndian.Uint32(b))
}

// DecodeFloat64Key decodes a float64 key.
func DecodeFloat64Key(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// ExtractAttribute reads a fixed-width attribute out of a tuple record at
// the configured byte offset, returning its raw key bytes.
func ExtractAttribute(record []byte, offset int, kind KeyKind) ([]byte, error) {
	w := kind.Width()
	if offset < 0 || offset+w > len(record) {
		return nil, errors.Newf("btreeindex: attribute offset %d width %d out of bounds for record of %d bytes", offset, w, len(record))
	}
	out := make([]byte, w)
	copy(out, record[offset:offset+w])
	return out, nil
}
