// tablx.go - Record offset index (.gdbtablx) reading
package gofilegdb

import (
	"bytes"
	"fmt"

	"github.com/desertstsung/go-filegdb/format"
)

const (
	tablxHeaderSize = 16
	rowsPerBlock    = 1024

	// V4 bitmap section layout: 22 byte preamble, 32768 byte block
	// map, 52 byte tail.
	v4BitmapSectionSize = 22 + 32768 + 52
)

var (
	v4BitmapMagic1 = []byte{0x01, 0x00, 0x01, 0x00, 0x00, 0x00}
	v4BitmapMagic2 = []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
)

// blockCountCache remembers how many present blocks precede a block
// index, so that walking rows in ascending order does not rescan the
// block map from the start each time.
type blockCountCache struct {
	blockIdx int64
	count    uint32
}

func (t *Table) readOffsetIndexHeader() error {
	hdr := make([]byte, tablxHeaderSize)
	if _, err := t.fx.ReadAt(hdr, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrBadOffsetIndex, err)
	}
	v, _ := format.Le32(hdr, 0)
	if int(v) != t.version {
		return fmt.Errorf("%w: version %d, table is %d", ErrBadOffsetIndex, v, t.version)
	}
	if t.version == 3 {
		return t.readOffsetIndexV3(hdr)
	}
	return t.readOffsetIndexV4(hdr)
}

func (t *Table) readOffsetIndexV3(hdr []byte) error {
	blocks, _ := format.Le32(hdr, 4)
	t.blocksPresent = uint64(blocks)

	total, _ := format.LeInt32(hdr, 8)
	if blocks == 0 {
		if total != 0 {
			return fmt.Errorf("%w: record count %d with no blocks", ErrBadOffsetIndex, total)
		}
	} else if total < 0 {
		return fmt.Errorf("%w: negative record count", ErrBadOffsetIndex)
	}
	t.totalRecordCount = int64(total)

	osz, _ := format.Le32(hdr, 12)
	if osz < 4 || osz > 6 {
		return fmt.Errorf("%w: offset size %d", ErrBadOffsetIndex, osz)
	}
	t.tablxOffsetSize = int(osz)

	if blocks == 0 {
		return nil
	}
	trailerOff := int64(tablxHeaderSize) + int64(osz)*rowsPerBlock*int64(blocks)
	trailer := make([]byte, 16)
	if _, err := t.fx.ReadAt(trailer, trailerOff); err != nil {
		return fmt.Errorf("%w: trailer: %v", ErrBadOffsetIndex, err)
	}
	bitmapWords, _ := format.Le32(trailer, 0)
	mapBits, _ := format.Le32(trailer, 4)
	blocksBis, _ := format.Le32(trailer, 8)
	if blocksBis != blocks {
		return fmt.Errorf("%w: trailer block count %d != %d", ErrBadOffsetIndex, blocksBis, blocks)
	}

	if bitmapWords == 0 {
		// Dense index: every block is present.
		if mapBits != blocks {
			return fmt.Errorf("%w: trailer bit count %d != %d", ErrBadOffsetIndex, mapBits, blocks)
		}
		return nil
	}

	if uint64(t.totalRecordCount) > uint64(mapBits)*rowsPerBlock {
		return fmt.Errorf("%w: %d records exceed block map", ErrBadOffsetIndex, t.totalRecordCount)
	}
	bm := make([]byte, format.BitmapBytes(int(mapBits)))
	if _, err := t.fx.ReadAt(bm, trailerOff+16); err != nil {
		return fmt.Errorf("%w: block map: %v", ErrBadOffsetIndex, err)
	}
	present := 0
	for i := 0; i < int(mapBits); i++ {
		if format.TestBit(bm, i) {
			present++
		}
	}
	if present != int(blocks) {
		return fmt.Errorf("%w: block map has %d blocks, header says %d", ErrBadOffsetIndex, present, blocks)
	}
	t.blockMap = bm
	return nil
}

func (t *Table) readOffsetIndexV4(hdr []byte) error {
	blocks, _ := format.Le64(hdr, 4)
	t.blocksPresent = blocks

	osz, _ := format.Le32(hdr, 12)
	if osz < 4 || osz > 6 {
		return fmt.Errorf("%w: offset size %d", ErrBadOffsetIndex, osz)
	}
	t.tablxOffsetSize = int(osz)

	if blocks == 0 {
		return nil
	}
	trailerOff := int64(tablxHeaderSize) + int64(osz)*rowsPerBlock*int64(blocks)
	trailer := make([]byte, 12)
	if _, err := t.fx.ReadAt(trailer, trailerOff); err != nil {
		return fmt.Errorf("%w: trailer: %v", ErrBadOffsetIndex, err)
	}
	total, _ := format.Le64(trailer, 0)
	t.totalRecordCount = int64(total)

	bitmapSize, _ := format.Le32(trailer, 8)
	switch {
	case bitmapSize == 0:
		// No bitmap section, the index is dense.
	case bitmapSize == v4BitmapSectionSize && total <= 32768*rowsPerBlock*8:
		section := make([]byte, v4BitmapSectionSize)
		if _, err := t.fx.ReadAt(section, trailerOff+12); err != nil {
			return fmt.Errorf("%w: bitmap section: %v", ErrBadOffsetIndex, err)
		}
		if bytes.Equal(section[:6], v4BitmapMagic1) &&
			bytes.Equal(section[22+32768:22+32768+12], v4BitmapMagic2) {
			t.blockMap = append([]byte(nil), section[22:22+32768]...)
		} else {
			t.markUnreliableObjectIDs()
		}
	default:
		t.markUnreliableObjectIDs()
	}
	return nil
}

// markUnreliableObjectIDs is the fallback for V4 bitmap layouts that
// are not understood: row ids stop matching ObjectIDs and the row
// range is widened to every possibly present slot.
func (t *Table) markUnreliableObjectIDs() {
	t.reliableObjectID = false
	t.totalRecordCount = rowsPerBlock * int64(t.blocksPresent)
	t.log.Warn("unrecognized offset index bitmap, ObjectIDs will not be accurate",
		"file", t.filename)
}

// offsetInIndexForRow maps a row index to the file position of its
// entry inside the offset index, or 0 when the row's block is absent.
func (t *Table) offsetInIndexForRow(row int64) int64 {
	if t.blockMap == nil {
		return tablxHeaderSize + int64(t.tablxOffsetSize)*row
	}
	block := row / rowsPerBlock
	if !format.TestBit(t.blockMap, int(block)) {
		return 0
	}
	var before uint32
	if block >= t.blockCache.blockIdx {
		before = t.blockCache.count
		for i := t.blockCache.blockIdx; i < block; i++ {
			if format.TestBit(t.blockMap, int(i)) {
				before++
			}
		}
	} else {
		for i := int64(0); i < block; i++ {
			if format.TestBit(t.blockMap, int(i)) {
				before++
			}
		}
	}
	t.blockCache.blockIdx = block
	t.blockCache.count = before

	corrected := int64(before)*rowsPerBlock + row%rowsPerBlock
	return tablxHeaderSize + int64(t.tablxOffsetSize)*corrected
}

// RowOffset resolves a row index to the byte offset of its record in
// the table file. offset 0 with a nil error means the slot is empty.
// deleted only turns true when record locations were guessed and the
// record carries the deletion mark.
func (t *Table) RowOffset(row int64) (offset uint64, deleted bool, err error) {
	if row < 0 || row >= t.TotalRecordCount() {
		return 0, false, ErrRowIndex
	}
	if t.fx == nil {
		if t.featureOffsets == nil {
			return 0, false, ErrBadOffsetIndex
		}
		v := t.featureOffsets[row]
		return v &^ deletedOffsetMark, v&deletedOffsetMark != 0, nil
	}

	pos := t.offsetInIndexForRow(row)
	if pos == 0 {
		return 0, false, nil
	}
	buf := make([]byte, 8)
	if _, err := t.fx.ReadAt(buf[:t.tablxOffsetSize], pos); err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrBadOffsetIndex, err)
	}
	v, _ := format.LeUintN(buf, 0, t.tablxOffsetSize)
	return v, false, nil
}
