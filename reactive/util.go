package reactive

import "reflect"

func deepEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// isReferenceKind reports whether v is a container/reference-like type
// whose identity can remain the same across an in-place mutation — a
// Tracker must still fire its callback for these even when DeepEqual says
// "unchanged", since the mutation may have happened through the slice
// interceptor or a nested Set rather than a top-level replacement.
func isReferenceKind(v any) bool {
	switch v.(type) {
	case *ReactiveMap, *ObservableSlice:
		return true
	}
	if v == nil {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Ptr, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}

// identicalReference reports whether a and b are the same reference —
// the same underlying pointer, map header, or slice header — rather than
// merely structurally equal. A reactive write guard must treat two
// distinct reference values as a change even when their contents happen
// to match, so this never falls back to a field-by-field comparison the
// way reflect.DeepEqual would.
func identicalReference(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if am, ok := a.(*ReactiveMap); ok {
		bm, ok := b.(*ReactiveMap)
		return ok && am == bm
	}
	if as, ok := a.(*ObservableSlice); ok {
		bs, ok := b.(*ObservableSlice)
		return ok && as == bs
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() != rb.Kind() {
		return false
	}
	switch ra.Kind() {
	case reflect.Ptr, reflect.Chan, reflect.Func:
		return ra.Pointer() == rb.Pointer()
	case reflect.Map, reflect.Slice:
		if ra.IsNil() || rb.IsNil() {
			return ra.IsNil() && rb.IsNil()
		}
		return ra.Pointer() == rb.Pointer()
	default:
		return ra.Interface() == rb.Interface()
	}
}
