package reactive

import (
	"sort"
	"sync"
)

// ObservableSlice is the ordered-sequence container: the Go stand-in for
// an observed array. Direct index assignment (s.SetRaw) and length
// truncation can never be intercepted in Go any more than raw index or
// length assignment can be intercepted on a JavaScript array, so — exactly
// like Vue's array observer — they are never observed; SetIndex/DeleteIndex
// route through the public mutators instead.
//
// mu guards items, observer, and extensible for the same reason
// container.go's ReactiveMap carries its own mutex: the default Async
// scheduler can be walking s.items from its flush goroutine (via a
// Tracker's getter, or dependOnSliceElements) while a caller's goroutine
// calls Push/Splice/etc. on the same slice. mu is always released before
// calling out to Observe, a Dep, or user-supplied code (Sort's less).
type ObservableSlice struct {
	rs *ReactiveSystem

	mu         sync.Mutex
	items      []any
	observer   *Observer
	extensible bool
}

// NewObservableSlice builds an (as yet unobserved) sequence container.
func NewObservableSlice(rs *ReactiveSystem, initial ...any) *ObservableSlice {
	s := &ObservableSlice{rs: rs, extensible: true}
	s.items = append(s.items, initial...)
	return s
}

// Observer returns the container's observer, or nil if it was never
// observed.
func (s *ObservableSlice) Observer() *Observer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observer
}

// Freeze marks the container non-extensible; Observe refuses to wrap it.
func (s *ObservableSlice) Freeze() {
	s.mu.Lock()
	s.extensible = false
	s.mu.Unlock()
}

// Len returns the current element count.
func (s *ObservableSlice) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Index reads element i without recording any dependency: index
// expressions can never be intercepted, so a bare index read never
// establishes a dependency of its own — only descending through a
// container-valued property (see ReactiveMap.Get) does.
func (s *ObservableSlice) Index(i int) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.items) {
		return nil
	}
	return s.items[i]
}

// SetRaw assigns directly to index i, bypassing the shape Dep entirely —
// the same limitation Vue documents for raw array index assignment.
func (s *ObservableSlice) SetRaw(i int, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= 0 && i < len(s.items) {
		s.items[i] = value
	}
}

// growTo pads the slice with nils until it has at least n elements. Used
// by the package-level Set mutator to extend a slice before writing an
// out-of-range index, without reaching into s.items directly.
func (s *ObservableSlice) growTo(n int) {
	s.mu.Lock()
	if n > len(s.items) {
		s.items = append(s.items, make([]any, n-len(s.items))...)
	}
	s.mu.Unlock()
}

// attachObserver installs ob as s's observer if s has none yet and is
// extensible, atomically under mu, and returns a snapshot of the items
// the caller still needs to observe.
func (s *ObservableSlice) attachObserver(ob *Observer) (effective *Observer, shouldInit bool, items []any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.observer != nil {
		return s.observer, false, nil
	}
	if !s.extensible {
		return nil, false, nil
	}
	s.observer = ob
	items = make([]any, len(s.items))
	copy(items, s.items)
	return ob, true, items
}

// Push appends values to the end, observes each newly inserted element,
// and notifies the shape Dep. Returns the new length, exactly as the
// unwrapped append would.
func (s *ObservableSlice) Push(values ...any) int {
	s.mu.Lock()
	s.items = append(s.items, values...)
	n := len(s.items)
	s.mu.Unlock()

	s.observeInserted(values)
	s.notify()
	return n
}

// Pop removes and returns the last element. ok is false on an empty slice.
func (s *ObservableSlice) Pop() (value any, ok bool) {
	s.mu.Lock()
	n := len(s.items)
	if n == 0 {
		s.mu.Unlock()
		return nil, false
	}
	value = s.items[n-1]
	s.items = s.items[:n-1]
	s.mu.Unlock()

	s.notify()
	return value, true
}

// Shift removes and returns the first element. ok is false on an empty
// slice.
func (s *ObservableSlice) Shift() (value any, ok bool) {
	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return nil, false
	}
	value = s.items[0]
	s.items = s.items[1:]
	s.mu.Unlock()

	s.notify()
	return value, true
}

// Unshift prepends values, observes each newly inserted element, and
// notifies the shape Dep. Returns the new length.
func (s *ObservableSlice) Unshift(values ...any) int {
	s.mu.Lock()
	merged := make([]any, 0, len(values)+len(s.items))
	merged = append(merged, values...)
	merged = append(merged, s.items...)
	s.items = merged
	n := len(s.items)
	s.mu.Unlock()

	s.observeInserted(values)
	s.notify()
	return n
}

// Splice removes deleteCount elements starting at start and inserts items
// in their place, clamping start/deleteCount the way the unwrapped
// operation would for out-of-range arguments. It returns the removed
// elements and notifies the shape Dep exactly once.
func (s *ObservableSlice) Splice(start, deleteCount int, items ...any) []any {
	s.mu.Lock()
	n := len(s.items)
	if start < 0 {
		start = n + start
		if start < 0 {
			start = 0
		}
	}
	if start > n {
		start = n
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if start+deleteCount > n {
		deleteCount = n - start
	}

	removed := append([]any{}, s.items[start:start+deleteCount]...)
	tail := append([]any{}, s.items[start+deleteCount:]...)

	merged := make([]any, 0, start+len(items)+len(tail))
	merged = append(merged, s.items[:start]...)
	merged = append(merged, items...)
	merged = append(merged, tail...)
	s.items = merged
	s.mu.Unlock()

	s.observeInserted(items)
	s.notify()
	return removed
}

// Sort stably sorts in place using less, and notifies the shape Dep. The
// snapshot is sorted outside mu since less is caller-supplied and may read
// other reactive state.
func (s *ObservableSlice) Sort(less func(a, b any) bool) {
	s.mu.Lock()
	items := make([]any, len(s.items))
	copy(items, s.items)
	s.mu.Unlock()

	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()

	s.notify()
}

// Reverse reverses the elements in place, and notifies the shape Dep.
func (s *ObservableSlice) Reverse() {
	s.mu.Lock()
	for i, j := 0, len(s.items)-1; i < j; i, j = i+1, j-1 {
		s.items[i], s.items[j] = s.items[j], s.items[i]
	}
	s.mu.Unlock()

	s.notify()
}

// SetIndex routes an indexed write through the public Set mutator, which
// is the only way to make an indexed write observable.
func (s *ObservableSlice) SetIndex(index int, value any) (any, error) {
	return Set(s.rs, s, index, value)
}

// DeleteIndex routes an indexed removal through the public Del mutator.
func (s *ObservableSlice) DeleteIndex(index int) error {
	return Del(s.rs, s, index)
}

func (s *ObservableSlice) observeInserted(values []any) {
	for _, v := range values {
		Observe(s.rs, v, false)
	}
}

func (s *ObservableSlice) notify() {
	s.mu.Lock()
	ob := s.observer
	s.mu.Unlock()
	if ob != nil {
		ob.dep.Notify()
	}
}

// dependOnSliceElements descends into every element of s, recording a
// dependency on the shape Dep of any element that is itself an observed
// container, recursing into nested slices. This mirrors the well-known
// "dependArray" step: it is the only mechanism by which reading a slice
// captures dependencies on container elements it holds, since indexing a
// slice element can never itself be intercepted. The element list is
// snapshotted under mu; every Depend call happens afterward, outside the
// lock.
func dependOnSliceElements(s *ObservableSlice) {
	s.mu.Lock()
	items := make([]any, len(s.items))
	copy(items, s.items)
	s.mu.Unlock()

	for _, item := range items {
		switch v := item.(type) {
		case *ReactiveMap:
			if ob := v.Observer(); ob != nil {
				ob.dep.Depend()
			}
		case *ObservableSlice:
			if ob := v.Observer(); ob != nil {
				ob.dep.Depend()
				dependOnSliceElements(v)
			}
		}
	}
}
