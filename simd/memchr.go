// Package simd provides byte search primitives used by the prefilters of
// unanchored searches over byte input.
//
// The package selects an implementation once, from the CPU features reported
// by golang.org/x/sys/cpu: on CPUs with vector extensions single-byte search
// goes through bytes.IndexByte, whose runtime implementation is vectorized;
// everywhere else, and for the multi-needle searches, a SWAR (SIMD Within A
// Register) loop processes 8 bytes at a time.
package simd

import (
	"bytes"

	"golang.org/x/sys/cpu"
)

// hasVector reports a CPU whose runtime IndexByte uses vector instructions.
var hasVector = cpu.X86.HasAVX2 || cpu.X86.HasSSE42 || cpu.ARM64.HasASIMD

// minVectorLen is the haystack length below which the SWAR loop wins.
const minVectorLen = 32

// Memchr returns the index of the first instance of needle in haystack,
// or -1 if needle is not present in haystack.
//
// Example:
//
//	pos := simd.Memchr([]byte("hello world"), 'o')
//	// pos == 4
func Memchr(haystack []byte, needle byte) int {
	if len(haystack) == 0 {
		return -1
	}
	if hasVector && len(haystack) >= minVectorLen {
		return bytes.IndexByte(haystack, needle)
	}
	return memchrGeneric(haystack, needle)
}

// Memchr2 returns the index of the first instance of either needle1 or needle2
// in haystack, or -1 if neither is present.
func Memchr2(haystack []byte, needle1, needle2 byte) int {
	if needle1 == needle2 {
		return Memchr(haystack, needle1)
	}
	return memchr2Generic(haystack, needle1, needle2)
}

// Memchr3 returns the index of the first instance of needle1, needle2 or
// needle3 in haystack, or -1 if none are present.
func Memchr3(haystack []byte, needle1, needle2, needle3 byte) int {
	return memchr3Generic(haystack, needle1, needle2, needle3)
}

// IsASCII reports whether every byte of data is below 0x80.
//
// Example:
//
//	simd.IsASCII([]byte("hello")) // true
//	simd.IsASCII([]byte("héllo")) // false
func IsASCII(data []byte) bool {
	return isASCIIGeneric(data)
}
