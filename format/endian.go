// endian.go - Little-endian byte reading and writing utilities
package format

import (
	"encoding/binary"
	"errors"
	"math"
)

func Le16(b []byte, off int) (uint16, error) {
	if off < 0 || off+2 > len(b) {
		return 0, errors.New("Le16 out of bounds")
	}
	return binary.LittleEndian.Uint16(b[off : off+2]), nil
}
func Le32(b []byte, off int) (uint32, error) {
	if off < 0 || off+4 > len(b) {
		return 0, errors.New("Le32 out of bounds")
	}
	return binary.LittleEndian.Uint32(b[off : off+4]), nil
}
func Le64(b []byte, off int) (uint64, error) {
	if off < 0 || off+8 > len(b) {
		return 0, errors.New("Le64 out of bounds")
	}
	return binary.LittleEndian.Uint64(b[off : off+8]), nil
}
func LeInt32(b []byte, off int) (int32, error) {
	v, err := Le32(b, off)
	return int32(v), err
}
func LeInt64(b []byte, off int) (int64, error) {
	v, err := Le64(b, off)
	return int64(v), err
}
func LeFloat32(b []byte, off int) (float32, error) {
	v, err := Le32(b, off)
	return math.Float32frombits(v), err
}
func LeFloat64(b []byte, off int) (float64, error) {
	v, err := Le64(b, off)
	return math.Float64frombits(v), err
}

// LeUintN reads an unsigned little-endian integer of width 1..8 bytes.
func LeUintN(b []byte, off, width int) (uint64, error) {
	if width < 1 || width > 8 {
		return 0, errors.New("LeUintN bad width")
	}
	if off < 0 || off+width > len(b) {
		return 0, errors.New("LeUintN out of bounds")
	}
	var v uint64
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[off+i])
	}
	return v, nil
}

func PutLe16(b []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(b[off:off+2], v)
}
func PutLe32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}
func PutLe64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}
func PutLeFloat64(b []byte, off int, v float64) {
	PutLe64(b, off, math.Float64bits(v))
}

// AppendLeUintN appends an unsigned integer as width little-endian bytes.
func AppendLeUintN(dst []byte, v uint64, width int) []byte {
	for i := 0; i < width; i++ {
		dst = append(dst, byte(v>>(8*i)))
	}
	return dst
}
