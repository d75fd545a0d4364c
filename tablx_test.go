package gofilegdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertstsung/go-filegdb/format"
)

func TestRowOffsetDenseV3(t *testing.T) {
	tf := simpleTable(3, 1, 2, 3)
	offsets := tf.rowOffsets()
	tablx := tablxV3(5, 3, padSlots(offsets), nil, 0)
	path := writeFixture(t, tf, tablx, nil)

	tab, err := Open(path, nil)
	require.NoError(t, err)
	defer tab.Close()

	for i, want := range offsets {
		got, deleted, err := tab.RowOffset(int64(i))
		require.NoError(t, err)
		assert.False(t, deleted)
		assert.Equal(t, want, got, "row %d", i)
	}
	_, _, err = tab.RowOffset(3)
	assert.ErrorIs(t, err, ErrRowIndex)
	_, _, err = tab.RowOffset(-1)
	assert.ErrorIs(t, err, ErrRowIndex)
}

func TestSelectRowHole(t *testing.T) {
	tf := simpleTable(3, 1, 3)
	offsets := tf.rowOffsets()
	// Slot 1 was deleted: its index entry is zero.
	slots := padSlots([]uint64{offsets[0], 0, offsets[1]})
	tablx := tablxV3(5, 3, slots, nil, 0)
	tf.validCount = 2
	path := writeFixture(t, tf, tablx, nil)

	tab, err := Open(path, nil)
	require.NoError(t, err)
	defer tab.Close()

	ok, err := tab.SelectRow(1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(-1), tab.CurrentRow())

	row, err := tab.GetAndSelectNextNonEmptyRow(1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), row)
	v, err := tab.GetFieldValue(1)
	require.NoError(t, err)
	assert.Equal(t, int32(3), v)
}

func TestRowOffsetSparseBlockMap(t *testing.T) {
	// Three blocks of address space, the middle one absent. The file
	// stores entries for blocks 0 and 2 only.
	tf := simpleTable(3, 100, 200)
	offsets := tf.rowOffsets()

	stored := make([]uint64, 2048)
	stored[0] = offsets[0]    // row 0, block 0
	stored[1024] = offsets[1] // row 2048, block 2
	blockMap := []byte{0b101}
	total := int32(2*1024 + 1)
	tablx := tablxV3(5, total, stored, blockMap, 3)
	tf.validCount = 2
	path := writeFixture(t, tf, tablx, nil)

	tab, err := Open(path, nil)
	require.NoError(t, err)
	defer tab.Close()

	require.Equal(t, int64(total), tab.TotalRecordCount())

	got, _, err := tab.RowOffset(0)
	require.NoError(t, err)
	assert.Equal(t, offsets[0], got)

	// Any row of the absent block resolves to an empty slot.
	got, _, err = tab.RowOffset(1500)
	require.NoError(t, err)
	assert.Zero(t, got)

	got, _, err = tab.RowOffset(2048)
	require.NoError(t, err)
	assert.Equal(t, offsets[1], got)

	// Backward lookup after the cache advanced.
	got, _, err = tab.RowOffset(0)
	require.NoError(t, err)
	assert.Equal(t, offsets[0], got)
}

func TestNextNonEmptyRowSkipsAbsentBlocks(t *testing.T) {
	tf := simpleTable(3, 100, 200)
	offsets := tf.rowOffsets()
	stored := make([]uint64, 2048)
	stored[0] = offsets[0]
	stored[1024] = offsets[1]
	tablx := tablxV3(5, 2*1024+1, stored, []byte{0b101}, 3)
	tf.validCount = 2
	path := writeFixture(t, tf, tablx, nil)

	tab, err := Open(path, nil)
	require.NoError(t, err)
	defer tab.Close()

	var rows []int64
	for row, err := tab.GetAndSelectNextNonEmptyRow(0); row >= 0; row, err = tab.GetAndSelectNextNonEmptyRow(row + 1) {
		require.NoError(t, err)
		rows = append(rows, row)
	}
	assert.Equal(t, []int64{0, 2048}, rows)
}

func TestRowOffsetV4BitmapSection(t *testing.T) {
	tf := &tableFile{version: 4, utf8: true, validCount: 2}
	tf.fields = [][]byte{objectIDField("OBJECTID"), int32Field("count", true)}
	tf.rows = [][]byte{
		record(false, []byte{0}, le32Bytes(5)),
		record(false, []byte{0}, le32Bytes(6)),
	}
	offsets := tf.rowOffsets()

	stored := make([]uint64, 2048)
	stored[0] = offsets[0]
	stored[1024] = offsets[1]

	section := make([]byte, 22+32768+52)
	copy(section, []byte{0x01, 0x00, 0x01, 0x00, 0x00, 0x00})
	section[22] = 0b101 // blocks 0 and 2 present
	copy(section[22+32768:], []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})

	tablx := tablxV4(5, 2*1024+1, stored, section)
	path := writeFixture(t, tf, tablx, nil)

	tab, err := Open(path, nil)
	require.NoError(t, err)
	defer tab.Close()

	assert.True(t, tab.ReliableObjectIDs())
	got, _, err := tab.RowOffset(2048)
	require.NoError(t, err)
	assert.Equal(t, offsets[1], got)
	got, _, err = tab.RowOffset(1024)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestRowOffsetV4UnrecognizedBitmap(t *testing.T) {
	tf := simpleTable(4, 5)
	offsets := tf.rowOffsets()
	tablx := tablxV4(5, 1, padSlots(offsets), make([]byte, 99))
	path := writeFixture(t, tf, tablx, nil)

	tab, err := Open(path, nil)
	require.NoError(t, err)
	defer tab.Close()

	assert.False(t, tab.ReliableObjectIDs())
	// The row range widens to every slot of every block.
	assert.Equal(t, int64(1024), tab.TotalRecordCount())
	got, _, err := tab.RowOffset(0)
	require.NoError(t, err)
	assert.Equal(t, offsets[0], got)
}

func TestOffsetIndexRejectsBadTrailer(t *testing.T) {
	tf := simpleTable(3, 1)
	tablx := tablxV3(5, 1, padSlots(tf.rowOffsets()), nil, 0)
	// Corrupt the duplicated block count in the trailer.
	format.PutLe32(tablx, len(tablx)-8, 9)
	path := writeFixture(t, tf, tablx, nil)

	_, err := Open(path, nil)
	assert.ErrorIs(t, err, ErrBadOffsetIndex)
}

func TestOffsetIndexRejectsBadOffsetSize(t *testing.T) {
	tf := simpleTable(3, 1)
	tablx := tablxV3(5, 1, padSlots(tf.rowOffsets()), nil, 0)
	format.PutLe32(tablx, 12, 7)
	path := writeFixture(t, tf, tablx, nil)

	_, err := Open(path, nil)
	assert.ErrorIs(t, err, ErrBadOffsetIndex)
}

func TestOffsetIndexVersionMustMatchTable(t *testing.T) {
	tf := simpleTable(3, 1)
	tablx := tablxV4(5, 1, padSlots(tf.rowOffsets()), nil)
	path := writeFixture(t, tf, tablx, nil)

	_, err := Open(path, nil)
	assert.ErrorIs(t, err, ErrBadOffsetIndex)
}
