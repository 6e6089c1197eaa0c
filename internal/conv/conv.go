// Package conv provides checked integer conversions.
//
// State IDs are uint32 and step counters are uint64. A value that does not
// fit means an automaton or counter grew past its limits, which is a
// programming error: the helpers panic instead of wrapping silently.
package conv

import "math"

// IntToUint32 converts an arena index to uint32.
// Panics if n < 0 or n > math.MaxUint32.
//
//go:inline
func IntToUint32(n int) uint32 {
	// uint comparison: on 32-bit platforms int cannot hold math.MaxUint32
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("integer overflow: int value out of uint32 range")
	}
	return uint32(n)
}

// IntToUint64 converts a non-negative count to uint64.
// Panics if n < 0.
//
//go:inline
func IntToUint64(n int) uint64 {
	if n < 0 {
		panic("integer overflow: negative count")
	}
	return uint64(n)
}
