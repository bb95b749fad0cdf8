package reactive

import (
	"fmt"
	"sync"
)

// Getter is the closure a Tracker evaluates. It returns the computed value
// and any error raised while computing it.
type Getter func() (any, error)

// ChangeCallback is invoked when a Tracker's Run decides its value changed.
type ChangeCallback func(newValue, oldValue any) error

// Options configures a Tracker's evaluation mode.
type Options struct {
	// Deep causes Get to traverse the evaluated value afterward, touching
	// every reachable property/element once so the tracker also reacts to
	// in-place mutation of things it merely held a reference to.
	Deep bool
	// User marks this tracker as "user-defined" (as opposed to an internal
	// render tracker): errors raised by its getter or callback are routed
	// through the ReactiveSystem's ErrorHandler and swallowed rather than
	// propagated to the caller.
	User bool
	// Lazy defers evaluation until Value is called; used for memoized
	// derived values. A lazy tracker never runs on its own — Update just
	// flips Dirty.
	Lazy bool
	// Sync runs the callback immediately on Update rather than handing off
	// to the scheduler.
	Sync bool
	// Before, if set, runs immediately before Run re-evaluates the
	// getter — unconditionally, whether or not the value ends up
	// changing. This is the hook a render tracker uses for a
	// beforeUpdate-style lifecycle callback.
	Before func()
}

// WatcherHost is implemented by an owner that wants to keep its own
// registry of trackers (e.g. so it can tear all of them down together).
// Both methods are optional in spirit — a host that doesn't implement this
// interface simply isn't tracked anywhere but the Dep graph itself.
type WatcherHost interface {
	AddWatcher(t *Tracker)
	RemoveWatcher(t *Tracker)
}

// Tracker (aka Watcher) evaluates a Getter, records every Dep it touched,
// and reacts to their notifications by re-evaluating and, if its value
// changed, firing a ChangeCallback.
//
// Under the default Async config, Update for a non-Sync, non-Lazy tracker
// hands off to the scheduler's flush goroutine (scheduler.go), which later
// calls back into Run/Get on that goroutine while the tracker's owner may
// still be mutating the same graph from its own goroutine. mu guards every
// field that both sides touch — value, dirty, active, and the dep/newDep
// bookkeeping — so that traffic is safe. mu is never held while calling out
// to a Dep, the getter, or the callback: each of those can loop back into
// this Tracker (directly, or via another Tracker sharing a Dep), and
// holding mu across such a call would risk a self-deadlock.
type Tracker struct {
	id   int64
	rs   *ReactiveSystem
	host any

	getter Getter
	cb     ChangeCallback
	before func()

	deep, user, lazy, sync, isRender bool

	mu     sync.Mutex
	value  any
	dirty  bool
	active bool

	deps      []*Dep
	depIDs    map[int64]bool
	newDeps   []*Dep
	newDepIDs map[int64]bool
}

// NewTracker constructs a Tracker over expr, which must be a Getter or a
// dot-delimited path string compiled via ParsePath and evaluated against
// host. The first evaluation happens immediately unless opts.Lazy is set,
// in which case the tracker starts Dirty with a nil cached value.
func NewTracker(rs *ReactiveSystem, host any, expr any, cb ChangeCallback, opts Options, isRender bool) (*Tracker, error) {
	var getter Getter
	switch v := expr.(type) {
	case Getter:
		getter = v
	case func() (any, error):
		getter = v
	case string:
		path := ParsePath(rs, v)
		getter = func() (any, error) {
			val, _ := path(host)
			return val, nil
		}
	default:
		return nil, fmt.Errorf("reactive: unsupported watch expression of type %T", expr)
	}

	t := &Tracker{
		id:        newTrackerID(),
		rs:        rs,
		host:      host,
		getter:    getter,
		cb:        cb,
		before:    opts.Before,
		deep:      opts.Deep,
		user:      opts.User,
		lazy:      opts.Lazy,
		sync:      opts.Sync,
		isRender:  isRender,
		active:    true,
		depIDs:    map[int64]bool{},
		newDepIDs: map[int64]bool{},
	}

	if host != nil {
		if registrar, ok := host.(WatcherHost); ok {
			registrar.AddWatcher(t)
		}
	}

	if t.lazy {
		t.dirty = true
	} else {
		value, err := t.Get()
		if err != nil {
			return nil, err
		}
		t.mu.Lock()
		t.value = value
		t.mu.Unlock()
	}

	return t, nil
}

// ID returns the tracker's process-unique, creation-ordered identity — the
// sort key the scheduler uses to order a flush. id is assigned once at
// construction and never mutated afterward, so reading it needs no lock.
func (t *Tracker) ID() int64 { return t.id }

// Active reports whether Teardown has been called.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Get pushes t as the current target, evaluates its getter, optionally
// deep-traverses the result, pops the target, and reconciles the
// dependency set collected during this evaluation against the previous
// one — removing self from any Dep no longer touched. Dependency
// bookkeeping is restored unconditionally, even if the getter errors or
// panics.
func (t *Tracker) Get() (value any, err error) {
	t.rs.PushTarget(t)
	defer func() {
		t.rs.PopTarget()
		t.cleanupDeps()
	}()

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("reactive: panic in watcher getter: %v", r)
			}
		}()
		value, err = t.getter()
	}()

	if err != nil {
		if t.user {
			t.rs.handleError(err, t.host, "watcher getter")
			return value, nil
		}
		return value, err
	}

	if t.deep {
		deepTraverse(value, seenSet{})
	}

	return value, nil
}

// addDep records dep as touched during the current evaluation. If dep was
// not already recorded in the previous evaluation's set, this also
// subscribes t to dep — avoiding a double subscription across successive
// re-evaluations. The subscribe call happens after mu is released: Dep has
// its own lock guarding subs, and the two must never be held at once.
func (t *Tracker) addDep(dep *Dep) {
	t.mu.Lock()
	if t.newDepIDs[dep.id] {
		t.mu.Unlock()
		return
	}
	t.newDepIDs[dep.id] = true
	t.newDeps = append(t.newDeps, dep)
	isNew := !t.depIDs[dep.id]
	t.mu.Unlock()

	if isNew {
		dep.AddSub(t)
	}
}

// cleanupDeps swaps in the dep set collected by the evaluation that just
// finished and unsubscribes from anything the new set dropped. The old
// set is snapshotted under mu and the unsubscribe calls happen afterward,
// outside the lock, for the same reason addDep releases mu before calling
// Dep.AddSub.
func (t *Tracker) cleanupDeps() {
	t.mu.Lock()
	oldDeps := t.deps
	newDepIDs := t.newDepIDs
	t.deps, t.newDeps = t.newDeps, nil
	t.depIDs, t.newDepIDs = newDepIDs, map[int64]bool{}
	t.mu.Unlock()

	for _, dep := range oldDeps {
		if !newDepIDs[dep.id] {
			dep.RemoveSub(t)
		}
	}
}

// update reacts to a Dep firing. Lazy trackers just go dirty; sync
// trackers re-run immediately; everything else is handed to the
// scheduler.
func (t *Tracker) update() {
	t.mu.Lock()
	lazy, sync := t.lazy, t.sync
	if lazy {
		t.dirty = true
	}
	t.mu.Unlock()

	switch {
	case lazy:
		return
	case sync:
		t.run()
	default:
		t.rs.sched.enqueue(t)
	}
}

// Run re-evaluates the tracker and, if active, fires its callback when the
// new value differs from the old one, the value is reference-like (a
// mutated-in-place container), or Deep is set. Errors from a User
// tracker's getter were already swallowed inside Get and reported via the
// ReactiveSystem's ErrorHandler; errors from a non-User tracker's getter,
// reached only through the scheduler with no caller left to propagate to,
// are reported the same way as a last resort.
func (t *Tracker) Run() {
	t.mu.Lock()
	active := t.active
	oldValue := t.value
	t.mu.Unlock()
	if !active {
		return
	}

	if t.before != nil {
		t.before()
	}

	value, err := t.Get()
	if err != nil {
		t.rs.handleError(err, t.host, "watcher getter")
		return
	}

	t.mu.Lock()
	t.value = value
	cb := t.cb
	t.mu.Unlock()

	if cb == nil {
		return
	}

	// isReferenceKind is checked before deepEqual, and short-circuits it via
	// ||, so a reference-typed value never reaches reflect.DeepEqual — which
	// would otherwise walk the value's own fields (e.g. a *ReactiveMap's
	// props map) outside of that container's lock.
	changed := t.deep || isReferenceKind(value) || !deepEqual(value, oldValue)
	if !changed {
		return
	}

	t.fireCallback(value, oldValue)
}

func (t *Tracker) run() { t.Run() }

// fireCallback invokes the callback under a recover/error wrapper. Unlike
// the getter, the callback has no caller left to propagate an error to by
// the time Run reaches this point — Run is reached either from the
// scheduler's own goroutine or from deep inside a Dep.Notify call chain
// several mutators up the stack — so every callback error, User-flagged or
// not, is routed through the ReactiveSystem's ErrorHandler rather than
// returned. A host that wants non-User callback errors to be fatal should
// install an ErrorHandler that panics.
func (t *Tracker) fireCallback(newValue, oldValue any) {
	var cbErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				cbErr = fmt.Errorf("reactive: panic in watcher callback: %v", r)
			}
		}()
		cbErr = t.cb(newValue, oldValue)
	}()
	if cbErr != nil {
		t.rs.handleError(cbErr, t.host, "watcher callback")
	}
}

// Evaluate runs Get and clears Dirty; used by Lazy trackers to refresh
// their cached value on demand.
func (t *Tracker) Evaluate() (any, error) {
	value, err := t.Get()
	t.mu.Lock()
	t.dirty = false
	if err == nil {
		t.value = value
	}
	cached := t.value
	t.mu.Unlock()
	if err != nil {
		return cached, err
	}
	return cached, nil
}

// Depend forwards every Dep this (Lazy) tracker holds to the currently
// active target, so a consumer reading a memoized value transitively
// subscribes to that value's own inputs — without this, a change to an
// input would never wake the consumer, since the memoized value itself
// might not have been re-read. The dep set is snapshotted under mu; each
// Dep.Depend call happens afterward, outside the lock.
func (t *Tracker) Depend() {
	t.mu.Lock()
	deps := make([]*Dep, len(t.deps))
	copy(deps, t.deps)
	t.mu.Unlock()

	for _, dep := range deps {
		dep.Depend()
	}
}

// Value is the convenience a Lazy tracker exposes to behave like a
// memoized getter: refresh if Dirty, forward dependencies to whatever is
// currently evaluating, then return the cached value.
func (t *Tracker) Value() (any, error) {
	t.mu.Lock()
	lazy, dirty := t.lazy, t.dirty
	t.mu.Unlock()

	if lazy && dirty {
		if _, err := t.Evaluate(); err != nil && !t.user {
			return t.currentValue(), err
		}
	}
	t.Depend()
	return t.currentValue(), nil
}

func (t *Tracker) currentValue() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// Dirty reports whether a Lazy tracker's cached value is stale.
func (t *Tracker) Dirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirty
}

// Teardown unsubscribes t from every Dep it holds and marks it inactive.
// When beingDestroyed is true, the (O(n)) removal from the host's watcher
// list is skipped, since the host is tearing down its entire registry
// anyway. The dep set is snapshotted under mu and the unsubscribe calls run
// afterward, outside the lock, matching cleanupDeps/addDep.
func (t *Tracker) Teardown(beingDestroyed bool) {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	t.active = false
	deps := t.deps
	t.mu.Unlock()

	if !beingDestroyed && t.host != nil {
		if registrar, ok := t.host.(WatcherHost); ok {
			registrar.RemoveWatcher(t)
		}
	}
	for _, dep := range deps {
		dep.RemoveSub(t)
	}
}

// deepTraverse recursively reads every reachable key/element once,
// touching each property's Dep so the current target subscribes to
// everything reachable from value, not just value itself. seen prevents
// infinite recursion on cyclic container graphs by keying on each
// Observer's identity.
func deepTraverse(value any, seen seenSet) {
	switch v := value.(type) {
	case *ReactiveMap:
		ob := v.Observer()
		if ob == nil || !seen.markSeen(ob.dep.id) {
			return
		}
		for _, key := range v.Keys() {
			child, _ := v.Get(key)
			deepTraverse(child, seen)
		}
	case *ObservableSlice:
		ob := v.Observer()
		if ob == nil || !seen.markSeen(ob.dep.id) {
			return
		}
		for i := 0; i < v.Len(); i++ {
			deepTraverse(v.Index(i), seen)
		}
	}
}

// markSeen reports whether id was not yet present in the set and adds it —
// a one-shot "claim this id" check collapsed into a single map access.
type seenSet map[int64]bool

func (s seenSet) markSeen(id int64) bool {
	if s[id] {
		return false
	}
	s[id] = true
	return true
}
