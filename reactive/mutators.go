package reactive

import "fmt"

// Set installs (or overwrites) key on target such that reactivity is
// preserved, doing whatever an accessor-based write cannot: adding a
// brand-new reactive key, or routing an indexed sequence write through the
// interceptor so it notifies. target must be *ReactiveMap or
// *ObservableSlice; key is a string for the former, an int index for the
// latter.
//
//   - target is an ObservableSlice and key is a valid/extendable index:
//     the slice is extended with nils if necessary, then the value is
//     written via Splice, which notifies automatically. Returns value.
//   - target is a ReactiveMap and key already exists: a plain reactive
//     write through the existing accessor. Returns value.
//   - target has no Observer: a plain, non-reactive assignment. Returns
//     value.
//   - target is a root container (Observer.IsRoot()) or a framework
//     instance: refused with a diagnostic; value is returned unchanged and
//     nothing is mutated.
//   - otherwise: a new reactive accessor is installed for key and the
//     owning Observer's shape Dep fires.
func Set(rs *ReactiveSystem, target any, key any, value any) (any, error) {
	switch t := target.(type) {
	case *ObservableSlice:
		idx, ok := key.(int)
		if !ok {
			rs.warnf("Set on an ObservableSlice requires an int key", fmt.Sprintf("%v", key))
			return value, nil
		}
		if idx < 0 {
			rs.warnf("Set on an ObservableSlice requires a non-negative index", fmt.Sprintf("%d", idx))
			return value, nil
		}
		if idx >= t.Len() {
			t.growTo(idx + 1)
		}
		t.Splice(idx, 1, value)
		return value, nil

	case *ReactiveMap:
		k, ok := key.(string)
		if !ok {
			rs.warnf("Set on a ReactiveMap requires a string key", fmt.Sprintf("%v", key))
			return value, nil
		}
		if t.HasOwn(k) {
			if err := t.Set(k, value); err != nil {
				return value, err
			}
			return value, nil
		}
		ob := t.Observer()
		if ob == nil {
			t.rawSet(k, value)
			return value, nil
		}
		if t.IsInstance() || ob.IsRoot() {
			rs.warnf("cannot add a reactive property to a framework instance or its root data", k)
			return value, nil
		}
		DefineReactive(rs, t, k, value, nil, false)
		ob.Dep().Notify()
		return value, nil

	default:
		rs.warnf("cannot Set on a non-reactive target", fmt.Sprintf("%T", target))
		return value, nil
	}
}

// Del removes key from target such that the owning container's shape Dep
// fires, which a plain delete/removal could never do on its own.
func Del(rs *ReactiveSystem, target any, key any) error {
	switch t := target.(type) {
	case *ObservableSlice:
		idx, ok := key.(int)
		if !ok {
			rs.warnf("Del on an ObservableSlice requires an int key", fmt.Sprintf("%v", key))
			return nil
		}
		if idx < 0 || idx >= t.Len() {
			return nil
		}
		t.Splice(idx, 1)
		return nil

	case *ReactiveMap:
		k, ok := key.(string)
		if !ok {
			rs.warnf("Del on a ReactiveMap requires a string key", fmt.Sprintf("%v", key))
			return nil
		}
		ob := t.Observer()
		if ob != nil && (t.IsInstance() || ob.IsRoot()) {
			rs.warnf("cannot delete a reactive property from a framework instance or its root data", k)
			return nil
		}
		if !t.HasOwn(k) {
			return nil
		}
		t.rawDelete(k)
		if ob != nil {
			ob.Dep().Notify()
		}
		return nil

	default:
		rs.warnf("cannot Del on a non-reactive target", fmt.Sprintf("%T", target))
		return nil
	}
}
