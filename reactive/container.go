package reactive

import "sync"

// KV is an ordered key/value pair used to seed a ReactiveMap. Go maps have
// no defined iteration order, so unlike a plain JavaScript object literal,
// own-key enumeration order for a ReactiveMap has to be supplied explicitly
// at construction time rather than inferred from a map literal; see
// DESIGN.md for this deviation.
type KV struct {
	Key   string
	Value any
}

type propEntry struct {
	dep          *Dep
	value        any
	childOb      *Observer
	shallow      bool
	customSetter func(newValue any) error
}

// ReactiveMap is a keyed container: the Go stand-in for a plain observed
// object. Before Observe (or DefineReactive) touches a key it is an inert
// map; afterwards every touched key carries its own Dep plus, if its value
// is itself observable, a childOb link.
//
// mu guards every field below it — props, order, observer, extensible,
// isVNode, isInstance — the same way dep.go's Dep.mu guards subs: the
// default Async scheduler evaluates a Tracker's getter (which calls Get)
// on its own flush goroutine while a caller's goroutine may be calling Set
// on the very same map. mu is always released before calling out to a Dep,
// an Observer, or user-supplied code (a custom setter), so no lock is ever
// held across a call that could loop back into this map.
type ReactiveMap struct {
	rs *ReactiveSystem

	mu         sync.Mutex
	order      []string
	props      map[string]*propEntry
	observer   *Observer
	extensible bool
	isVNode    bool
	isInstance bool
}

// NewReactiveMap builds an (as yet unobserved) map container seeded with
// initial, in the given order.
func NewReactiveMap(rs *ReactiveSystem, initial ...KV) *ReactiveMap {
	m := &ReactiveMap{rs: rs, props: map[string]*propEntry{}, extensible: true}
	for _, kv := range initial {
		m.props[kv.Key] = &propEntry{value: kv.Value}
		m.order = append(m.order, kv.Key)
	}
	return m
}

// Keys returns the container's own keys in insertion order.
func (m *ReactiveMap) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keysLocked()
}

func (m *ReactiveMap) keysLocked() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// HasOwn reports whether key is an own property of m.
func (m *ReactiveMap) HasOwn(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.props[key]
	return ok
}

// Observer returns the container's observer, or nil if it was never
// observed.
func (m *ReactiveMap) Observer() *Observer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.observer
}

// IsInstance reports whether MarkAsInstance has been called.
func (m *ReactiveMap) IsInstance() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isInstance
}

// MarkAsInstance flags the container as a framework instance: Observe will
// never wrap it, the same way Vue refuses to make a component instance
// itself reactive.
func (m *ReactiveMap) MarkAsInstance() {
	m.mu.Lock()
	m.isInstance = true
	m.mu.Unlock()
}

// MarkAsVNode flags the container as a virtual-node representation, which
// Observe always skips.
func (m *ReactiveMap) MarkAsVNode() {
	m.mu.Lock()
	m.isVNode = true
	m.mu.Unlock()
}

// Freeze marks the container non-extensible; Observe refuses to wrap a
// non-extensible container.
func (m *ReactiveMap) Freeze() {
	m.mu.Lock()
	m.extensible = false
	m.mu.Unlock()
}

// attachObserver installs ob as m's observer if m has none yet and is
// eligible for observation, atomically under mu so two concurrent Observe
// calls on the same map can never both decide to attach. It returns the
// observer now in effect (existing or newly attached) and whether the
// caller still needs to define accessors for m's existing keys.
func (m *ReactiveMap) attachObserver(ob *Observer) (effective *Observer, shouldInit bool, keys []string, raws []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.observer != nil {
		return m.observer, false, nil, nil
	}
	if !m.extensible || m.isVNode || m.isInstance {
		return nil, false, nil, nil
	}
	m.observer = ob
	keys = m.keysLocked()
	raws = make([]any, len(keys))
	for i, k := range keys {
		raws[i], _ = m.rawValueLocked(k)
	}
	return ob, true, keys, raws
}

func (m *ReactiveMap) rawValueLocked(key string) (any, bool) {
	p, ok := m.props[key]
	if !ok {
		return nil, false
	}
	return p.value, true
}

// rawSet stores value for key without installing a Dep or observing the
// value: the "plain assign, not reactive" fallback used when a container
// was never observed.
func (m *ReactiveMap) rawSet(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.props[key]; ok {
		p.value = value
		return
	}
	m.props[key] = &propEntry{value: value}
	m.order = append(m.order, key)
}

func (m *ReactiveMap) rawDelete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.props[key]; !ok {
		return
	}
	delete(m.props, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Get reads key, recording a dependency on the current target (if any):
// the key's own Dep, the child observer's shape Dep when the value is
// itself an observed container, and — when the value is an
// ObservableSlice — every reachable element's shape Dep, since slice
// indexing can never be intercepted and this descent is the only way a
// read captures those dependencies. The entry is snapshotted under mu;
// every Depend call happens afterward, outside the lock, since Dep.Depend
// may loop back into this tracker's other containers.
func (m *ReactiveMap) Get(key string) (any, bool) {
	m.mu.Lock()
	p, ok := m.props[key]
	if !ok {
		m.mu.Unlock()
		return nil, false
	}
	dep := p.dep
	childOb := p.childOb
	value := p.value
	m.mu.Unlock()

	if dep != nil {
		dep.Depend()
	}
	if childOb != nil {
		childOb.dep.Depend()
		if slice, ok := value.(*ObservableSlice); ok {
			dependOnSliceElements(slice)
		}
	}

	return value, true
}

// Set writes to an existing key the way evaluating "container.key = value"
// would: a NaN-safe equality guard, composition with any custom setter,
// re-observation of the new value (unless the property is shallow), and a
// Dep.Notify. If key has no accessor installed (it was written through
// rawSet, or the container was never observed) the write degrades to a
// plain, non-reactive assignment. mu is released before the custom setter
// or Observe runs, since both can call back into arbitrary reactive state.
func (m *ReactiveMap) Set(key string, value any) error {
	m.mu.Lock()
	p, ok := m.props[key]
	if !ok {
		m.mu.Unlock()
		m.rawSet(key, value)
		return nil
	}
	if p.dep == nil {
		p.value = value
		m.mu.Unlock()
		return nil
	}
	oldValue := p.value
	customSetter := p.customSetter
	shallow := p.shallow
	dep := p.dep
	m.mu.Unlock()

	if valuesEqualForWrite(value, oldValue) {
		return nil
	}
	if customSetter != nil {
		if err := customSetter(value); err != nil {
			return err
		}
	}

	var childOb *Observer
	if !shallow {
		childOb, _ = Observe(m.rs, value, false)
	}

	m.mu.Lock()
	p.value = value
	p.childOb = childOb
	m.mu.Unlock()

	dep.Notify()
	return nil
}

// DefineReactive installs a reactive accessor for key on target, replacing
// any accessor (and customSetter) previously installed for key. Go has no
// implicit property descriptor to preserve, so a caller that wants the
// prior setter kept passes a customSetter that calls it. shallow
// disables recursive observation of value; the key's own Dep still fires
// on write. Observe runs before target's lock is taken, since it may
// recurse into other containers.
func DefineReactive(rs *ReactiveSystem, target *ReactiveMap, key string, value any, customSetter func(newValue any) error, shallow bool) {
	dep := NewDep(rs)

	var childOb *Observer
	if !shallow {
		childOb, _ = Observe(rs, value, false)
	}

	target.mu.Lock()
	if _, existed := target.props[key]; !existed {
		target.order = append(target.order, key)
	}
	target.props[key] = &propEntry{
		dep:          dep,
		value:        value,
		childOb:      childOb,
		shallow:      shallow,
		customSetter: customSetter,
	}
	target.mu.Unlock()
}

// valuesEqualForWrite is the write-skip guard: "if newValue === oldValue,
// or both are self-unequal (NaN guard), return." That is reference/identity
// equality for reference-kind values (so replacing a property with a
// distinct-but-structurally-equal container, slice, or map is always
// treated as a change and still fires Notify) and ordinary value equality
// otherwise, with a NaN exception since NaN is never equal to itself under
// ordinary comparison.
func valuesEqualForWrite(a, b any) bool {
	if isNaN(a) && isNaN(b) {
		return true
	}
	if isReferenceKind(a) || isReferenceKind(b) {
		return identicalReference(a, b)
	}
	return a == b
}

func isNaN(v any) bool {
	switch f := v.(type) {
	case float64:
		return f != f
	case float32:
		return f != f
	default:
		return false
	}
}
