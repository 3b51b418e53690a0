package main

import (
	"strconv"

	"github.com/cockroachdb/errors"

	"secidx/btreeindex"
)

func keyKindFromFlag(s string) (btreeindex.KeyKind, error) {
	switch s {
	case "int32":
		return btreeindex.KeyInt32, nil
	case "float64":
		return btreeindex.KeyFloat64, nil
	case "string10":
		return btreeindex.KeyString10, nil
	default:
		return 0, errors.Newf("unknown key type %q, want int32, float64, or string10", s)
	}
}

// parseKeyLiteral turns a command-line string into the fixed-width key
// encoding for kind.
func parseKeyLiteral(s string, kind btreeindex.KeyKind) ([]byte, error) {
	switch kind {
	case btreeindex.KeyInt32:
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "parse int32 key %q", s)
		}
		return btreeindex.EncodeInt32Key(int32(v)), nil
	case btreeindex.KeyFloat64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse float64 key %q", s)
		}
		return btreeindex.EncodeFloat64Key(v), nil
	case btreeindex.KeyString10:
		return btreeindex.EncodeStringKey(s), nil
	default:
		return nil, errors.Newf("unknown key type %v", kind)
	}
}
