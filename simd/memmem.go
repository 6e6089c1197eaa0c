package simd

import "bytes"

// Memmem returns the index of the first instance of needle in haystack,
// or -1 if needle is not present in haystack. An empty needle matches at 0,
// as with bytes.Index.
//
// The search scans for the rarest byte of needle (by ByteRank)
// with Memchr, checks the second rarest byte at its fixed distance and
// only then compares the whole needle.
//
// Example:
//
//	pos := simd.Memmem([]byte("aaaaaabaaaa"), []byte("aab"))
//	// pos == 4
func Memmem(haystack, needle []byte) int {
	needleLen := len(needle)
	haystackLen := len(haystack)
	switch {
	case needleLen == 0:
		return 0
	case needleLen > haystackLen:
		return -1
	case needleLen == 1:
		return Memchr(haystack, needle[0])
	}

	rare := SelectRareBytes(needle)
	searchStart := rare.Index1
	last := haystackLen - needleLen + rare.Index1
	for searchStart <= last {
		pos := Memchr(haystack[searchStart:last+1], rare.Byte1)
		if pos < 0 {
			return -1
		}
		candidate := searchStart + pos
		start := candidate - rare.Index1
		if haystack[start+rare.Index2] == rare.Byte2 && bytes.Equal(haystack[start:start+needleLen], needle) {
			return start
		}
		searchStart = candidate + 1
	}
	return -1
}
