package reactive

import "log"

// WarnFunc is the injectable diagnostics sink. All invalid-use reports route
// through it rather than panicking; context is an optional free-form string
// (the container, key, or expression involved).
type WarnFunc func(message string, context string)

// ErrorHandler receives an error raised inside a user-supplied getter or
// callback when the offending Tracker is flagged User. host identifies the
// component/owner the tracker belongs to, if any.
type ErrorHandler func(err error, host any, info string)

// Config holds process-wide knobs mirrored on every ReactiveSystem.
type Config struct {
	// Async selects the notification ordering mode. In both modes Dep.Notify
	// hands non-Sync trackers to the scheduler, which drains on its own
	// goroutine, and runs Sync trackers inline. When true (the default) the
	// subscriber snapshot is notified in subscription order. When false,
	// Dep.Notify first sorts the snapshot by id, so notification order is a
	// pure function of creation order; batching is unchanged.
	Async bool

	// MaxUpdateCount bounds how many times a single tracker may re-enter
	// the scheduler queue within one flush before it is considered a
	// runaway cycle and dropped for the remainder of that flush.
	MaxUpdateCount int

	// ServerRendering suppresses observation entirely: output generated in
	// this mode is produced once and discarded, so paying the cost of
	// reactive wrapping on it is wasted work.
	ServerRendering bool
}

// DefaultConfig matches Vue's own defaults: async batching on, a
// 100-iteration circular-update guard.
func DefaultConfig() Config {
	return Config{
		Async:          true,
		MaxUpdateCount: 100,
	}
}

func defaultWarn(message string, context string) {
	if context != "" {
		log.Printf("[reactive] %s (%s)", message, context)
		return
	}
	log.Printf("[reactive] %s", message)
}
