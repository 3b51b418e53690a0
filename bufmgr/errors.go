package bufmgr

import "github.com/cockroachdb/errors"

// Sentinel errors surfaced by Manager. Pin-discipline violations are fatal
// to the caller and are never papered over: they propagate as-is.
var (
	ErrPageNotPinned = errors.New("bufmgr: page not pinned by caller")
	ErrPagePinned    = errors.New("bufmgr: page still pinned at flush")
	ErrFileNotFound  = errors.New("bufmgr: backing file not found")
	ErrManagerClosed = errors.New("bufmgr: manager is closed")
)
