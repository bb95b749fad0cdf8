package reactive

import (
	"sort"
	"sync"
)

// Dep is the atom of the observer graph: a set of subscribing Trackers plus
// a monotonic identity used only for deterministic ordering. A Dep is
// created eagerly per observed container (the "shape" dep) and lazily per
// intercepted property (a "value" dep); it is never explicitly destroyed —
// it lives as long as anything still references it.
//
// subs is guarded by mu rather than by ReactiveSystem's single coarse
// lock: the default Async scheduler runs a Tracker's re-evaluation on its
// own flush goroutine (see scheduler.go), so a mutation arriving on the
// caller's goroutine (ReactiveMap.Set, ObservableSlice.Push, ...) can race
// against that flush goroutine's Dep.Notify/Tracker.addDep traffic on the
// very same Dep. A lock scoped to the smallest piece of shared state, held
// only across the read/mutate of subs itself and released before calling
// back into a Tracker, avoids both the race and any lock-ordering cycle
// with Tracker's own mutex.
type Dep struct {
	id int64
	rs *ReactiveSystem

	mu   sync.Mutex
	subs []*Tracker
}

// NewDep allocates a Dep bound to rs. rs supplies the current-target stack
// that Depend consults.
func NewDep(rs *ReactiveSystem) *Dep {
	return &Dep{id: newDepID(), rs: rs}
}

// ID returns the dep's process-unique, creation-ordered identity. id is
// assigned once at construction and never mutated afterward, so reading it
// needs no lock.
func (d *Dep) ID() int64 { return d.id }

// AddSub appends t to the subscriber list. Callers (Tracker.addDep) are
// responsible for not calling this twice for the same (dep, tracker) pair
// across one evaluation; Dep itself does not deduplicate.
func (d *Dep) AddSub(t *Tracker) {
	d.mu.Lock()
	d.subs = append(d.subs, t)
	d.mu.Unlock()
}

// RemoveSub removes the first occurrence of t, if present. O(n) is
// acceptable: dependency graphs are small relative to render cost.
func (d *Dep) RemoveSub(t *Tracker) {
	d.mu.Lock()
	for i, sub := range d.subs {
		if sub == t {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			break
		}
	}
	d.mu.Unlock()
}

// Depend records an edge from the current target (if any) to this dep. It
// is the tracker, via AddDep, that decides whether the edge is new. No Dep
// state is touched here — CurrentTarget and addDep each manage their own
// locking — so this never holds d.mu at all.
func (d *Dep) Depend() {
	if t := d.rs.CurrentTarget(); t != nil {
		t.addDep(d)
	}
}

// Notify asks every current subscriber to Update. It snapshots the
// subscriber list under mu first — both so that a callback which adds or
// removes subscribers mid-iteration cannot corrupt the walk (subscribers
// removed during this round are still notified this round, by design, so a
// callback can tear down peers and still leave them in a consistent final
// state), and so that the lock is released before Update runs: Update may
// re-enter Dep/Tracker/container state (directly for a Sync tracker, or via
// the scheduler's flush goroutine for an async one), and holding d.mu
// across that call would risk a self-deadlock the moment that state loops
// back to this same Dep. In synchronous (non-async) mode the snapshot is
// sorted by id ascending so notification order is a pure function of
// creation order.
func (d *Dep) Notify() {
	d.mu.Lock()
	subs := make([]*Tracker, len(d.subs))
	copy(subs, d.subs)
	d.mu.Unlock()

	if !d.rs.Config().Async {
		sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })
	}

	for _, sub := range subs {
		sub.update()
	}
}
