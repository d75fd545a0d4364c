// varint.go - Variable-length integer coding used by table rows,
// offset index trailers and geometry streams.
package format

import "errors"

var (
	ErrShortRead     = errors.New("unexpected end of buffer")
	ErrVarintTooLong = errors.New("varint exceeds 64 bits")
)

// Varuint decodes an unsigned varint: 7 value bits per byte, least
// significant group first, bit 7 set on every byte but the last.
// Returns the value and the number of bytes consumed.
func Varuint(b []byte) (uint64, int, error) {
	var v uint64
	shift := uint(0)
	for i := 0; i < len(b); i++ {
		c := b[i]
		if shift >= 64 || (shift == 63 && c&0x7E != 0) {
			return 0, 0, ErrVarintTooLong
		}
		v |= uint64(c&0x7F) << shift
		if c&0x80 == 0 {
			return v, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, ErrShortRead
}

// VarintDelta decodes a signed delta varint: the first byte carries six
// value bits (0x3F), a sign bit (0x40) and a continuation bit (0x80);
// following bytes carry seven value bits each. The decoded delta is
// added to acc.
func VarintDelta(b []byte, acc int64) (int64, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrShortRead
	}
	c := b[0]
	v := uint64(c & 0x3F)
	neg := c&0x40 != 0
	if c&0x80 == 0 {
		return apply(acc, v, neg), 1, nil
	}
	shift := uint(6)
	for i := 1; i < len(b); i++ {
		c = b[i]
		if shift >= 64 {
			return 0, 0, ErrVarintTooLong
		}
		v |= uint64(c&0x7F) << shift
		if c&0x80 == 0 {
			return apply(acc, v, neg), i + 1, nil
		}
		shift += 7
	}
	return 0, 0, ErrShortRead
}

func apply(acc int64, mag uint64, neg bool) int64 {
	if neg {
		return acc - int64(mag)
	}
	return acc + int64(mag)
}

// SkipVaruint advances past one unsigned varint without decoding it.
func SkipVaruint(b []byte) (int, error) {
	for i := 0; i < len(b); i++ {
		if b[i]&0x80 == 0 {
			if i >= 10 {
				return 0, ErrVarintTooLong
			}
			return i + 1, nil
		}
	}
	return 0, ErrShortRead
}

// AppendVaruint appends v in unsigned varint form.
func AppendVaruint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// AppendVarintDelta appends the signed delta varint encoding of v.
func AppendVarintDelta(dst []byte, v int64) []byte {
	var sign byte
	mag := uint64(v)
	if v < 0 {
		sign = 0x40
		mag = uint64(-v)
	}
	first := byte(mag&0x3F) | sign
	mag >>= 6
	if mag == 0 {
		return append(dst, first)
	}
	dst = append(dst, first|0x80)
	for mag >= 0x80 {
		dst = append(dst, byte(mag)|0x80)
		mag >>= 7
	}
	return append(dst, byte(mag))
}
