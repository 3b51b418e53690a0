package relfile

import (
	"io"

	"github.com/cockroachdb/errors"
)

// ErrEndOfFile is raised by Scanner.ScanNext once every record has been
// produced. It wraps io.EOF so callers can use errors.Is(err, io.EOF).
var ErrEndOfFile = errors.Wrap(io.EOF, "relfile: end of file")

var ErrRecordTooLarge = errors.New("relfile: record larger than a page")

