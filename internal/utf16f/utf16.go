// Package utf16f converts UTF-16LE code units to UTF-8 with a hard output
// bound, one unit at a time. BinXml strings arrive as raw little-endian
// units with no pairing guarantees, so each unit is encoded independently;
// an unpaired surrogate becomes its raw three-byte sequence (WTF-8).
package utf16f

const rune1Max = 1<<7 - 1
const rune2Max = 1<<11 - 1

// EncodedLen returns the number of UTF-8 bytes a single UTF-16 code unit
// encodes to: 1, 2 or 3.
//
//go:inline
func EncodedLen(u uint16) int {
	switch {
	case u <= rune1Max:
		return 1
	case u <= rune2Max:
		return 2
	default:
		return 3
	}
}

// AppendUnit appends the UTF-8 encoding of u to dst and returns the extended
// slice. The append is refused (dst returned unchanged) when
// len(dst)+EncodedLen(u) >= limit: one byte below limit is always kept free
// for a terminator, so output never reaches limit bytes.
func AppendUnit(dst []byte, u uint16, limit int) []byte {
	n := EncodedLen(u)
	if len(dst)+n >= limit {
		return dst
	}
	switch n {
	case 1:
		return append(dst, byte(u))
	case 2:
		return append(dst, byte(u>>6)|0xC0, byte(u&0x3F)|0x80)
	default:
		return append(dst, byte(u>>12)|0xE0, byte((u>>6)&0x3F)|0x80, byte(u&0x3F)|0x80)
	}
}

// AppendUnits appends the UTF-8 encoding of each unit in src to dst under the
// same bound as AppendUnit. Units that no longer fit are dropped, not
// partially written.
func AppendUnits(dst []byte, src []uint16, limit int) []byte {
	for _, u := range src {
		dst = AppendUnit(dst, u, limit)
	}
	return dst
}
