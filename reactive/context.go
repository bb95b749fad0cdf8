package reactive

import "github.com/cespare/xxhash/v2"

// ContextSymbol hashes name into the int64 key space Scope's context map
// uses, the same derivation pkg/flimsy/types.go uses for its well-known
// SYMBOL_ERRORS constant. Masking off the sign bit keeps the result a
// non-negative int64 regardless of platform, matching that lineage's
// convention for symbol-like constants.
func ContextSymbol(name string) int64 {
	return int64(xxhash.Sum64String(name) & 0x7fffffffffffffff)
}

// ErrorsSymbol is the well-known context key a Scope's owner installs an
// error handler under, reachable by every descendant Scope via Context.
var ErrorsSymbol = ContextSymbol("reactive:errors")
