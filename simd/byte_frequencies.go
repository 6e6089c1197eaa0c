package simd

// commonBytes lists the bytes of prose and source text from most to least
// frequent. Bytes not listed rank below all of them.
const commonBytes = " etaoinsrhldcumfpgwybvk\n.,_()=\"'/-:;xjqz0123456789" +
	"ETAOINSRHLDCUMFPGWYBVKXJQZ\t*{}[]<>#+!?&|$%@\\^`~"

// byteRanks maps a byte to its frequency rank. UTF-8 lead and continuation
// bytes get a low fixed rank: they are frequent in non-English text but
// rarely the best anchor.
var byteRanks = func() [256]byte {
	var ranks [256]byte
	for b := 0x80; b < 0x100; b++ {
		ranks[b] = 16
	}
	for i := 0; i < len(commonBytes); i++ {
		ranks[commonBytes[i]] = byte(255 - 2*i)
	}
	return ranks
}()

// ByteRank returns the frequency rank of a byte. Lower values indicate
// rarer bytes, the better anchors for Memmem.
func ByteRank(b byte) byte {
	return byteRanks[b]
}

// RareByteInfo holds the two rarest bytes of a needle and their offsets.
type RareByteInfo struct {
	Byte1  byte
	Index1 int
	Byte2  byte
	Index2 int
}

// SelectRareBytes finds the two rarest bytes in needle. Byte2 differs from
// Byte1 when needle has two distinct bytes; otherwise Byte2/Index2 repeat
// Byte1/Index1.
func SelectRareBytes(needle []byte) RareByteInfo {
	if len(needle) == 0 {
		return RareByteInfo{}
	}
	info := RareByteInfo{Byte1: needle[0], Byte2: needle[0]}
	second := false
	for i := 1; i < len(needle); i++ {
		b := needle[i]
		switch {
		case byteRanks[b] < byteRanks[info.Byte1]:
			info.Byte2, info.Index2 = info.Byte1, info.Index1
			info.Byte1, info.Index1 = b, i
			second = true
		case b != info.Byte1 && (!second || byteRanks[b] < byteRanks[info.Byte2]):
			info.Byte2, info.Index2 = b, i
			second = true
		}
	}
	return info
}
