package hexf

// Append-style hex formatting for the value renderer. Everything here writes
// into a caller-owned buffer; nothing allocates on its own.

import "encoding/binary"

var hextableUpper = [16]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'A', 'B', 'C', 'D', 'E', 'F'}
var hextableLower = [16]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'a', 'b', 'c', 'd', 'e', 'f'}

// AppendEncodeU appends the uppercase hex encoding of src to dst,
// two characters per byte, no separators.
func AppendEncodeU(dst, src []byte) []byte {
	for _, v := range src {
		dst = append(dst, hextableUpper[v>>4], hextableUpper[v&0x0F])
	}
	return dst
}

// AppendEncode is the lowercase variant of AppendEncodeU.
func AppendEncode(dst, src []byte) []byte {
	for _, v := range src {
		dst = append(dst, hextableLower[v>>4], hextableLower[v&0x0F])
	}
	return dst
}

// encodeUintPadded writes the zero-padded, uppercase hex representation of n
// into dst. len(dst) must be size * 2.
//
//go:inline
func encodeUintPadded(dst []byte, n uint64, size int) {
	for i := size*2 - 1; i >= 0; i -= 2 {
		v := byte(n)
		dst[i-1] = hextableUpper[v>>4]
		dst[i] = hextableUpper[v&0x0F]
		n >>= 8
	}
}

// AppendUint64PaddedU appends the uppercase hex of n zero-padded to 16 characters.
func AppendUint64PaddedU(dst []byte, n uint64) []byte {
	var b [16]byte
	encodeUintPadded(b[:], n, 8)
	return append(dst, b[:]...)
}

// AppendUint32PaddedU appends the uppercase hex of n zero-padded to 8 characters.
func AppendUint32PaddedU(dst []byte, n uint32) []byte {
	var b [8]byte
	encodeUintPadded(b[:], uint64(n), 4)
	return append(dst, b[:]...)
}

// AppendUint16PaddedU appends the uppercase hex of n zero-padded to 4 characters.
func AppendUint16PaddedU(dst []byte, n uint16) []byte {
	var b [4]byte
	encodeUintPadded(b[:], uint64(n), 2)
	return append(dst, b[:]...)
}

// AppendUint8PaddedU appends the uppercase hex of n zero-padded to 2 characters.
func AppendUint8PaddedU(dst []byte, n uint8) []byte {
	var b [2]byte
	encodeUintPadded(b[:], uint64(n), 1)
	return append(dst, b[:]...)
}

// AppendUintMin2U appends the uppercase hex of n with leading zeroes trimmed
// but at least two characters, matching printf "%02X".
func AppendUintMin2U(dst []byte, n uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)

	i := 0
	for ; i < len(b)-1 && b[i] == 0; i++ {
	}
	var tmp [16]byte
	j := 0
	if v := b[i]; v < 0x10 && i < len(b)-1 {
		// Single leading nibble; keep it only when more bytes follow,
		// otherwise the final byte always gets two characters.
		tmp[j] = hextableUpper[v]
		j++
		i++
	}
	for ; i < len(b); i++ {
		v := b[i]
		tmp[j] = hextableUpper[v>>4]
		tmp[j+1] = hextableUpper[v&0x0F]
		j += 2
	}
	return append(dst, tmp[:j]...)
}
