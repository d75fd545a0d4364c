// bits.go - Bit array helpers for null bitmaps and block maps
package format

import "math/bits"

// TestBit reports whether bit i of the array is set.
func TestBit(b []byte, i int) bool {
	return b[i>>3]&(1<<(uint(i)&7)) != 0
}

// SetBit sets bit i of the array.
func SetBit(b []byte, i int) {
	b[i>>3] |= 1 << (uint(i) & 7)
}

// BitmapBytes returns the byte length of a bit array holding n bits.
func BitmapBytes(n int) int {
	return (n + 7) / 8
}

// CountSetBits counts the set bits in b[0:n] (whole bytes).
func CountSetBits(b []byte, n int) int {
	total := 0
	for i := 0; i < n; i++ {
		total += bits.OnesCount8(b[i])
	}
	return total
}
