package reactive

import (
	"log"
	"sync"
)

// ReactiveSystem is the process-wide (or, in tests, per-test) home for the
// pieces of state that must be shared across an entire reactive graph: the
// current-target stack, the shouldObserve switch, the diagnostics sinks,
// and the scheduler. alien.ReactiveSystem and rocket.ReactiveSystem are
// constructed the same way — one instance per test or per app, never a bare
// package-level global — which keeps multiple independent reactive graphs
// from colliding inside one process.
type ReactiveSystem struct {
	mu sync.Mutex

	targetStack   []*Tracker
	current       *Tracker
	shouldObserve bool

	config Config
	warn   WarnFunc
	onErr  ErrorHandler

	sched *scheduler
}

// New creates a ReactiveSystem with the given config. A zero MaxUpdateCount
// is replaced by DefaultConfig's value; Async is used as given, so a zero
// Config runs with Async false.
func New(cfg Config) *ReactiveSystem {
	if cfg.MaxUpdateCount == 0 {
		cfg.MaxUpdateCount = DefaultConfig().MaxUpdateCount
	}
	rs := &ReactiveSystem{
		shouldObserve: true,
		config:        cfg,
		warn:          defaultWarn,
		onErr:         defaultErrorHandler,
	}
	rs.sched = newScheduler(rs)
	return rs
}

// SetWarn overrides the diagnostics sink.
func (rs *ReactiveSystem) SetWarn(fn WarnFunc) {
	if fn == nil {
		fn = defaultWarn
	}
	rs.mu.Lock()
	rs.warn = fn
	rs.mu.Unlock()
}

// SetErrorHandler overrides the handler used for errors raised inside
// User-flagged trackers.
func (rs *ReactiveSystem) SetErrorHandler(fn ErrorHandler) {
	if fn == nil {
		fn = defaultErrorHandler
	}
	rs.mu.Lock()
	rs.onErr = fn
	rs.mu.Unlock()
}

// Config returns a copy of the system's current configuration.
func (rs *ReactiveSystem) Config() Config {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.config
}

func (rs *ReactiveSystem) warnf(message, context string) {
	rs.mu.Lock()
	fn := rs.warn
	rs.mu.Unlock()
	fn(message, context)
}

func (rs *ReactiveSystem) handleError(err error, host any, info string) {
	rs.mu.Lock()
	fn := rs.onErr
	rs.mu.Unlock()
	fn(err, host, info)
}

func defaultErrorHandler(err error, host any, info string) {
	log.Printf("[reactive] error in %s: %v", info, err)
}

// ToggleObserving flips the process-wide observation switch and returns the
// previous value, so callers can restore it exactly (the switch must always
// be restored by the code that toggled it).
func (rs *ReactiveSystem) ToggleObserving(should bool) (previous bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	previous = rs.shouldObserve
	rs.shouldObserve = should
	return previous
}

func (rs *ReactiveSystem) observing() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.shouldObserve
}

// PushTarget pushes t (possibly nil, to suppress tracking) as the current
// target and returns the previous one. Reentrancy is explicit: callers push
// and pop in balanced pairs, typically via defer.
func (rs *ReactiveSystem) PushTarget(t *Tracker) (previous *Tracker) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	previous = rs.current
	rs.targetStack = append(rs.targetStack, rs.current)
	rs.current = t
	return previous
}

// PopTarget pops the current target, restoring whatever was current before
// the matching PushTarget call.
func (rs *ReactiveSystem) PopTarget() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	n := len(rs.targetStack)
	if n == 0 {
		rs.current = nil
		return
	}
	rs.current = rs.targetStack[n-1]
	rs.targetStack = rs.targetStack[:n-1]
}

// CurrentTarget returns the tracker currently collecting dependencies, or
// nil outside of any evaluation.
func (rs *ReactiveSystem) CurrentTarget() *Tracker {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.current
}

// NextTick schedules cb to run after the scheduler's next flush completes.
// If nothing is currently queued, it still waits for one flush cycle so
// that ordering with respect to in-flight mutations is preserved.
func (rs *ReactiveSystem) NextTick(cb func()) {
	rs.sched.nextTick(cb)
}

// FlushSync forces an immediate, synchronous drain of the scheduler queue
// and blocks until it completes. Tests use this instead of waiting on a
// real event loop micro-task.
func (rs *ReactiveSystem) FlushSync() {
	rs.sched.flushSync()
}

// QueueActivated registers t to receive an activated-hook callback at the
// end of the current flush — the stand-in for a kept-alive component
// coming back to life mid-patch.
func (rs *ReactiveSystem) QueueActivated(t *Tracker) {
	rs.sched.queueActivated(t)
}

// OnActivated registers fn to run, once per flush, for every tracker
// queued via QueueActivated during that flush.
func (rs *ReactiveSystem) OnActivated(fn func(t *Tracker)) {
	rs.sched.onActivated(fn)
}

// OnUpdated registers fn to run, once per flush, for every tracker that
// actually ran during that flush, in the order they ran.
func (rs *ReactiveSystem) OnUpdated(fn func(t *Tracker)) {
	rs.sched.onUpdated(fn)
}
