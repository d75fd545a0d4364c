package gofilegdb

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"

	"github.com/desertstsung/go-filegdb/format"
)

// The fixtures below write table, offset index and index catalog
// files byte by byte, so the tests double as format documentation.

func utf16Bytes(s string) []byte {
	var out []byte
	for _, u := range utf16.Encode([]rune(s)) {
		out = format.AppendLeUintN(out, uint64(u), 2)
	}
	return out
}

func appendName(dst []byte, s string) []byte {
	dst = append(dst, byte(len([]rune(s))))
	return append(dst, utf16Bytes(s)...)
}

func appendFloat64(dst []byte, v float64) []byte {
	return format.AppendLeUintN(dst, math.Float64bits(v), 8)
}

// field descriptor fragments

func objectIDField(name string) []byte {
	var b []byte
	b = appendName(b, name)
	b = appendName(b, "")
	b = append(b, 6)    // type ObjectID
	b = append(b, 0, 2) // skip, flags: required
	return b
}

func int32Field(name string, nullable bool) []byte {
	var b []byte
	b = appendName(b, name)
	b = appendName(b, "")
	b = append(b, 1) // type Int32
	var flags byte
	if nullable {
		flags = 1
	}
	b = append(b, 0, flags, 0)
	return b
}

func float64Field(name string, nullable bool) []byte {
	var b []byte
	b = appendName(b, name)
	b = appendName(b, "")
	b = append(b, 3)
	var flags byte
	if nullable {
		flags = 1
	}
	b = append(b, 0, flags, 0)
	return b
}

func dateTimeField(name string, nullable bool) []byte {
	var b []byte
	b = appendName(b, name)
	b = appendName(b, "")
	b = append(b, 5)
	var flags byte
	if nullable {
		flags = 1
	}
	b = append(b, 0, flags, 0)
	return b
}

func guidField(name string, nullable bool) []byte {
	var b []byte
	b = appendName(b, name)
	b = appendName(b, "")
	b = append(b, 10)
	var flags byte
	if nullable {
		flags = 1
	}
	b = append(b, 0, flags)
	return b
}

func stringField(name string, maxWidth int, nullable bool) []byte {
	var b []byte
	b = appendName(b, name)
	b = appendName(b, "")
	b = append(b, 4)
	b = format.AppendLeUintN(b, uint64(uint32(maxWidth)), 4)
	var flags byte
	if nullable {
		flags = 1
	}
	b = append(b, flags)
	b = format.AppendVaruint(b, 0)
	return b
}

func geometryField(name, wkt string) []byte {
	var b []byte
	b = appendName(b, name)
	b = appendName(b, "")
	b = append(b, 7)
	b = append(b, 0, 1) // skip, flags: nullable
	w := utf16Bytes(wkt)
	b = format.AppendLeUintN(b, uint64(len(w)), 2)
	b = append(b, w...)
	b = append(b, 0) // no Z, no M
	b = appendFloat64(b, -1000)
	b = appendFloat64(b, -1000)
	b = appendFloat64(b, 1000)   // xy scale
	b = appendFloat64(b, 0.0001) // xy tolerance
	b = appendFloat64(b, -10)    // xmin
	b = appendFloat64(b, -10)
	b = appendFloat64(b, 100)
	b = appendFloat64(b, 100)
	b = append(b, 0)
	b = format.AppendLeUintN(b, 1, 4)
	b = appendFloat64(b, 1000)
	return b
}

// tableFile assembles a .gdbtable image: the 40 byte header, the field
// descriptor section and the row records.
type tableFile struct {
	version    int
	geomType   byte
	utf8       bool
	validCount int64
	maxRowSize uint32
	fields     [][]byte
	rows       [][]byte // encoded records including their length word
}

func (tf *tableFile) bytes() []byte {
	var section []byte
	section = format.AppendLeUintN(section, 4, 4) // secondary version
	section = append(section, tf.geomType)
	var fl byte
	if tf.utf8 {
		fl = 1
	}
	section = append(section, fl, 0, 0)
	section = format.AppendLeUintN(section, uint64(len(tf.fields)), 2)
	for _, f := range tf.fields {
		section = append(section, f...)
	}

	maxRow := tf.maxRowSize
	if maxRow == 0 {
		maxRow = 4096
	}
	hdr := make([]byte, 40)
	format.PutLe32(hdr, 0, uint32(int32(tf.version)))
	if tf.version == 3 {
		format.PutLe32(hdr, 4, uint32(int32(tf.validCount)))
	} else {
		format.PutLe64(hdr, 16, uint64(tf.validCount))
	}
	format.PutLe32(hdr, 8, maxRow)
	format.PutLe64(hdr, 32, 40)

	out := hdr
	out = format.AppendLeUintN(out, uint64(len(section)), 4)
	out = append(out, section...)
	for _, r := range tf.rows {
		out = append(out, r...)
	}
	return out
}

// record encodes one row: length word plus nullable bitmap and values.
// A negative length marks the record deleted in place.
func record(deleted bool, nullBitmap []byte, values ...[]byte) []byte {
	var blob []byte
	blob = append(blob, nullBitmap...)
	for _, v := range values {
		blob = append(blob, v...)
	}
	n := int32(len(blob))
	if deleted {
		n = -n
	}
	out := format.AppendLeUintN(nil, uint64(uint32(n)), 4)
	return append(out, blob...)
}

func varBlob(b []byte) []byte {
	out := format.AppendVaruint(nil, uint64(len(b)))
	return append(out, b...)
}

func le32Bytes(v int32) []byte   { return format.AppendLeUintN(nil, uint64(uint32(v)), 4) }
func le64Float(v float64) []byte { return appendFloat64(nil, v) }

// rowOffsets returns the file offset of each encoded record in a
// tableFile, in order.
func (tf *tableFile) rowOffsets() []uint64 {
	base := tf.bytes()
	var total int
	for _, r := range tf.rows {
		total += len(r)
	}
	offsets := make([]uint64, len(tf.rows))
	pos := uint64(len(base) - total)
	for i, r := range tf.rows {
		offsets[i] = pos
		pos += uint64(len(r))
	}
	return offsets
}

// tablxV3 builds a V3 offset index. offsets holds one entry per row
// slot of each PRESENT block, zero for holes. blockMap is nil for a
// dense index, else one bit per block of the full range.
func tablxV3(offsetSize int, total int32, offsets []uint64, blockMap []byte, mapBits uint32) []byte {
	blocks := uint32(len(offsets) / 1024)
	out := make([]byte, 16)
	format.PutLe32(out, 0, 3)
	format.PutLe32(out, 4, blocks)
	format.PutLe32(out, 8, uint32(total))
	format.PutLe32(out, 12, uint32(offsetSize))
	for _, v := range offsets {
		out = format.AppendLeUintN(out, v, offsetSize)
	}
	trailer := make([]byte, 16)
	if blockMap == nil {
		format.PutLe32(trailer, 4, blocks)
	} else {
		format.PutLe32(trailer, 0, uint32((len(blockMap)+3)/4))
		format.PutLe32(trailer, 4, mapBits)
	}
	format.PutLe32(trailer, 8, blocks)
	out = append(out, trailer...)
	if blockMap != nil {
		out = append(out, blockMap...)
	}
	return out
}

// tablxV4 builds a V4 offset index. bitmapSection is appended verbatim
// after the trailer and its length declared there.
func tablxV4(offsetSize int, total uint64, offsets []uint64, bitmapSection []byte) []byte {
	blocks := uint64(len(offsets) / 1024)
	out := make([]byte, 16)
	format.PutLe32(out, 0, 4)
	format.PutLe64(out, 4, blocks)
	format.PutLe32(out, 12, uint32(offsetSize))
	for _, v := range offsets {
		out = format.AppendLeUintN(out, v, offsetSize)
	}
	trailer := make([]byte, 12)
	format.PutLe64(trailer, 0, total)
	format.PutLe32(trailer, 8, uint32(len(bitmapSection)))
	out = append(out, trailer...)
	return append(out, bitmapSection...)
}

// padSlots widens a per-row offset list to whole 1024-entry blocks.
func padSlots(offsets []uint64) []uint64 {
	n := (len(offsets) + 1023) / 1024 * 1024
	if n == 0 {
		n = 1024
	}
	out := make([]uint64, n)
	copy(out, offsets)
	return out
}

// writeFixture writes a table and its optional sidecars into a temp
// directory and returns the .gdbtable path.
func writeFixture(t *testing.T, tf *tableFile, tablx, indexes []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "a00000001.gdbtable")
	require.NoError(t, os.WriteFile(path, tf.bytes(), 0o644))
	if tablx != nil {
		require.NoError(t, os.WriteFile(sidecarPath(path, "gdbtablx"), tablx, 0o644))
	}
	if indexes != nil {
		require.NoError(t, os.WriteFile(sidecarPath(path, "gdbindexes"), indexes, 0o644))
	}
	return path
}
