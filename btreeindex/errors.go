package btreeindex

import "github.com/cockroachdb/errors"

// Error kinds this package can raise. Each is a sentinel so callers can
// use errors.Is; call sites that add context wrap these with errors.Wrapf
// rather than replacing them, so the kind survives wrapping.
var (
	// ErrBadIndexInfo: an existing index file's meta page does not match
	// the requested (relation, offset, type) triple.
	ErrBadIndexInfo = errors.New("btreeindex: index meta does not match requested relation/offset/type")

	// ErrBadOperator: a scan's low/high operator isn't one of the four
	// allowed combinations.
	ErrBadOperator = errors.New("btreeindex: scan operator must be > or >= for low, < or <= for high")

	// ErrBadScanRange: low > high.
	ErrBadScanRange = errors.New("btreeindex: scan low bound is greater than high bound")

	// ErrNoSuchKeyFound: a point lookup (Index.Get) found no matching key.
	// Empty-range detection for a scan is deferred to the first
	// NextRecord call (ErrIndexScanCompleted) rather than raised by
	// StartScan itself; ErrNoSuchKeyFound is reachable only from Get.
	ErrNoSuchKeyFound = errors.New("btreeindex: no such key found")

	// ErrScanNotInitialized: NextRecord or EndScan called with no active
	// scan.
	ErrScanNotInitialized = errors.New("btreeindex: scan not initialized")

	// ErrIndexScanCompleted: NextRecord called past the last matching rid.
	// This is the normal termination signal for a scan, not a failure.
	ErrIndexScanCompleted = errors.New("btreeindex: index scan completed")
)
