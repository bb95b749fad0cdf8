package reactive

import "strings"

// PathGetter walks a dot-delimited path against a root value, returning
// (value, true) if every link resolved or (nil, false) the moment any link
// is nil/missing. It only ever reads through ReactiveMap containers —
// ordinary Go values along the path are not supported, matching Vue's
// parsePath: a safe getter that bails out rather than panicking.
type PathGetter func(root any) (any, bool)

// ParsePath compiles a dot-delimited path expression (e.g. "a.b.c") into a
// PathGetter. Paths containing "*" are rejected as unsupported wildcard
// expressions: Warn is invoked and the returned getter always yields
// (nil, false).
func ParsePath(rs *ReactiveSystem, path string) PathGetter {
	if path == "" {
		return func(root any) (any, bool) { return nil, false }
	}
	if strings.Contains(path, "*") {
		rs.warnf("unsupported watch path expression", path)
		return func(root any) (any, bool) { return nil, false }
	}

	segments := strings.Split(path, ".")
	return func(root any) (any, bool) {
		cur := root
		for _, seg := range segments {
			if cur == nil {
				return nil, false
			}
			m, ok := cur.(*ReactiveMap)
			if !ok {
				return nil, false
			}
			v, ok := m.Get(seg)
			if !ok {
				return nil, false
			}
			cur = v
		}
		return cur, true
	}
}
