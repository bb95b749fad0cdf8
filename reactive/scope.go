package reactive

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// Scope is a CreateRoot-style disposal boundary: it groups the Trackers
// (and nested Scopes) created underneath it so an external owner can tear
// all of them down together with one call. It generalizes the parent/child
// observer relationship in pkg/flimsy/observer.go — flimsy's observer holds
// a set of child observers and a set of signal dependencies purely for
// disposal bookkeeping; a Scope holds a set of child Scopes and a set of
// Trackers for the same reason, implemented against WatcherHost so a
// Tracker never needs to know it lives inside one.
type Scope struct {
	rs     *ReactiveSystem
	parent *Scope

	mu       sync.Mutex
	children mapset.Set[*Scope]
	watchers mapset.Set[*Tracker]
	cleanups []func()
	context  map[int64]any
	disposed bool
}

// NewScope creates a Scope under parent (nil for a root scope) and, if
// parent is non-nil, registers it as one of parent's children so a later
// parent.Dispose reaches it too.
func NewScope(rs *ReactiveSystem, parent *Scope) *Scope {
	s := &Scope{
		rs:       rs,
		parent:   parent,
		children: mapset.NewSet[*Scope](),
		watchers: mapset.NewSet[*Tracker](),
		context:  map[int64]any{},
	}
	if parent != nil {
		parent.mu.Lock()
		parent.children.Add(s)
		parent.mu.Unlock()
	}
	return s
}

// AddWatcher implements WatcherHost so trackers built with this Scope as
// host are automatically torn down by Dispose.
func (s *Scope) AddWatcher(t *Tracker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers.Add(t)
}

// RemoveWatcher implements WatcherHost.
func (s *Scope) RemoveWatcher(t *Tracker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers.Remove(t)
}

// OnCleanup registers fn to run during Dispose, after every watcher and
// child scope has already been torn down.
func (s *Scope) OnCleanup(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanups = append(s.cleanups, fn)
}

// Context looks up symbol in this scope's own context map, bubbling to the
// parent scope on a miss — mirroring flimsy's observer.get.
func (s *Scope) Context(symbol int64) (any, bool) {
	s.mu.Lock()
	v, ok := s.context[symbol]
	parent := s.parent
	s.mu.Unlock()
	if ok {
		return v, true
	}
	if parent != nil {
		return parent.Context(symbol)
	}
	return nil, false
}

// SetContext installs value under symbol in this scope only.
func (s *Scope) SetContext(symbol int64, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context[symbol] = value
}

// Dispose tears down every child scope (recursively, depth-first) before
// this scope's own watchers and cleanups, then unlinks from the parent —
// the same order flimsy's observer.dispose follows. Safe to call more than
// once; only the first call does anything.
func (s *Scope) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	children := s.children.ToSlice()
	watchers := s.watchers.ToSlice()
	cleanups := s.cleanups
	parent := s.parent
	s.children.Clear()
	s.watchers.Clear()
	s.cleanups = nil
	s.mu.Unlock()

	for _, child := range children {
		child.Dispose()
	}
	for _, t := range watchers {
		t.Teardown(true)
	}
	for _, fn := range cleanups {
		fn()
	}
	if parent != nil {
		parent.mu.Lock()
		parent.children.Remove(s)
		parent.mu.Unlock()
	}
}
