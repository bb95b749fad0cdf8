package reactive

import "sync"

// Observer is attached to each observed container. It owns the container's
// "shape" Dep — fired when a property is added or removed, or when an
// ObservableSlice is mutated through an intercepted method — and tracks
// how many roots the container backs via VMCount, which the public
// mutators (Set/Del) consult to refuse structural changes to a component's
// root data.
//
// rs, value, and dep are set once at construction and never mutated
// afterward, so they need no lock; mu guards only vmCount, which
// MarkAsRoot/UnmarkAsRoot can touch from whatever goroutine owns the
// corresponding component lifecycle.
type Observer struct {
	rs    *ReactiveSystem
	value any
	dep   *Dep

	mu      sync.Mutex
	vmCount int
}

func newObserver(rs *ReactiveSystem, value any) *Observer {
	return &Observer{rs: rs, value: value, dep: NewDep(rs)}
}

// MarkAsRoot increments VMCount, forbidding Set/Del from adding or
// removing keys on this container until UnmarkAsRoot brings the count back
// to zero.
func (o *Observer) MarkAsRoot() {
	o.mu.Lock()
	o.vmCount++
	o.mu.Unlock()
}

// UnmarkAsRoot decrements VMCount, if positive.
func (o *Observer) UnmarkAsRoot() {
	o.mu.Lock()
	if o.vmCount > 0 {
		o.vmCount--
	}
	o.mu.Unlock()
}

// IsRoot reports whether VMCount > 0.
func (o *Observer) IsRoot() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vmCount > 0
}

// Dep returns the shape Dep.
func (o *Observer) Dep() *Dep { return o.dep }

// Observe idempotently wraps value in an Observer. It returns (nil, nil)
// for anything that is not observable: a primitive, a nil value, a
// non-extensible (frozen) container, a container flagged as a virtual
// node, or a container flagged as a framework instance. Observation is
// also suppressed process-wide while rs's shouldObserve switch is off, or
// while Config.ServerRendering is set — server-rendered output is
// generated once and thrown away, so paying for reactivity on it is pure
// waste. Re-observing an already-observed container is a no-op that
// returns the existing Observer.
func Observe(rs *ReactiveSystem, value any, asRootData bool) (*Observer, error) {
	if value == nil {
		return nil, nil
	}
	if !rs.observing() || rs.Config().ServerRendering {
		return nil, nil
	}

	var ob *Observer

	switch v := value.(type) {
	case *ReactiveMap:
		candidate := newObserver(rs, v)
		effective, shouldInit, keys, raws := v.attachObserver(candidate)
		if effective == nil {
			return nil, nil
		}
		ob = effective
		if shouldInit {
			for i, key := range keys {
				DefineReactive(rs, v, key, raws[i], nil, false)
			}
		}

	case *ObservableSlice:
		candidate := newObserver(rs, v)
		effective, shouldInit, items := v.attachObserver(candidate)
		if effective == nil {
			return nil, nil
		}
		ob = effective
		if shouldInit {
			for _, item := range items {
				if _, err := Observe(rs, item, false); err != nil {
					return nil, err
				}
			}
		}

	default:
		return nil, nil
	}

	if asRootData && ob != nil {
		ob.MarkAsRoot()
	}
	return ob, nil
}
