package reactive

import "sync/atomic"

// Dep and Tracker identities are process-unique and monotonically
// increasing, matching the creation-order invariant the scheduler relies on
// to sort a flush deterministically.
var (
	nextDepID     int64
	nextTrackerID int64
)

func newDepID() int64 {
	return atomic.AddInt64(&nextDepID, 1)
}

func newTrackerID() int64 {
	return atomic.AddInt64(&nextTrackerID, 1)
}
