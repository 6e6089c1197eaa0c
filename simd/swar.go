package simd

import (
	"encoding/binary"
	"math/bits"
)

const (
	lo8 = uint64(0x0101010101010101)
	hi8 = uint64(0x8080808080808080)
)

// broadcast replicates b into every byte of a uint64.
func broadcast(b byte) uint64 {
	return uint64(b) * lo8
}

// zeroBytes returns a word with the high bit set for every byte of chunk that
// equals the byte broadcast in mask (Hacker's Delight zero-byte detection).
// Only the lowest set bit is exact; higher ones may be false positives after
// a borrow, so callers take the trailing zero count.
func zeroBytes(chunk, mask uint64) uint64 {
	x := chunk ^ mask
	return (x - lo8) & ^x & hi8
}

// memchrGeneric finds needle 8 bytes at a time.
func memchrGeneric(haystack []byte, needle byte) int {
	n := len(haystack)
	if n < 8 {
		for i := 0; i < n; i++ {
			if haystack[i] == needle {
				return i
			}
		}
		return -1
	}

	mask := broadcast(needle)
	i := 0
	for ; i+8 <= n; i += 8 {
		if z := zeroBytes(binary.LittleEndian.Uint64(haystack[i:]), mask); z != 0 {
			return i + bits.TrailingZeros64(z)/8
		}
	}
	for ; i < n; i++ {
		if haystack[i] == needle {
			return i
		}
	}
	return -1
}

// memchr2Generic checks both needles against each 8-byte chunk.
func memchr2Generic(haystack []byte, needle1, needle2 byte) int {
	n := len(haystack)
	m1, m2 := broadcast(needle1), broadcast(needle2)
	i := 0
	for ; i+8 <= n; i += 8 {
		chunk := binary.LittleEndian.Uint64(haystack[i:])
		if z := zeroBytes(chunk, m1) | zeroBytes(chunk, m2); z != 0 {
			return i + bits.TrailingZeros64(z)/8
		}
	}
	for ; i < n; i++ {
		if b := haystack[i]; b == needle1 || b == needle2 {
			return i
		}
	}
	return -1
}

// memchr3Generic checks three needles against each 8-byte chunk.
func memchr3Generic(haystack []byte, needle1, needle2, needle3 byte) int {
	n := len(haystack)
	m1, m2, m3 := broadcast(needle1), broadcast(needle2), broadcast(needle3)
	i := 0
	for ; i+8 <= n; i += 8 {
		chunk := binary.LittleEndian.Uint64(haystack[i:])
		if z := zeroBytes(chunk, m1) | zeroBytes(chunk, m2) | zeroBytes(chunk, m3); z != 0 {
			return i + bits.TrailingZeros64(z)/8
		}
	}
	for ; i < n; i++ {
		if b := haystack[i]; b == needle1 || b == needle2 || b == needle3 {
			return i
		}
	}
	return -1
}

// isASCIIGeneric tests the high bit of 8 bytes at a time.
func isASCIIGeneric(data []byte) bool {
	i := 0
	for ; i+8 <= len(data); i += 8 {
		if binary.LittleEndian.Uint64(data[i:])&hi8 != 0 {
			return false
		}
	}
	for ; i < len(data); i++ {
		if data[i] >= 0x80 {
			return false
		}
	}
	return true
}
