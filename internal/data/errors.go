package data

import "errors"

// Shared validation sentinels. The failover wrapper uses these to tell
// caller mistakes apart from an unreachable store.
var (
	errIDRequired     = errors.New("queue job id is required")
	errHolderRequired = errors.New("lock holder id is required")
)
