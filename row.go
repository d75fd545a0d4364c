// row.go - Row selection and field value decoding
package gofilegdb

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/desertstsung/go-filegdb/format"
	"github.com/desertstsung/go-filegdb/schema"
)

const maxPlausibleRowLength = 100 * 1024 * 1024

// SelectRow positions the table on a row. It returns false with a nil
// error when the slot is empty (a deleted or never written row).
// Field values of the selected row are read with GetFieldValue.
func (t *Table) SelectRow(row int64) (bool, error) {
	if row < 0 || row >= t.TotalRecordCount() {
		t.curRow = -1
		return false, ErrRowIndex
	}
	if t.curRow == row {
		return true, nil
	}

	offset, deleted, err := t.RowOffset(row)
	if err != nil {
		t.curRow = -1
		return false, err
	}
	if offset == 0 {
		t.curRow = -1
		return false, nil
	}

	head := make([]byte, 4)
	if _, err := t.f.ReadAt(head, int64(offset)); err != nil {
		t.curRow = -1
		return false, fmt.Errorf("%w: row %d: %v", ErrBadRow, row, err)
	}
	blobLen, _ := format.Le32(head, 0)
	if deleted {
		blobLen = uint32(-int32(blobLen))
	}

	if uint64(blobLen) < uint64(t.nullableBytes) || blobLen > math.MaxInt32-4 {
		t.curRow = -1
		return false, fmt.Errorf("%w: row %d: length %d", ErrBadRow, row, blobLen)
	}
	if blobLen > 0 {
		if blobLen > t.headerBufferMaxSize {
			// Writers that did not maintain the declared maximum row
			// size exist in the wild; the value is repairable.
			if !t.warnedBadHeader {
				t.warnedBadHeader = true
				t.log.Warn("row longer than the declared maximum, header needs repair",
					"file", t.filename, "row", row,
					"length", blobLen, "declaredMax", t.headerBufferMaxSize)
			}
			t.headerBufferMaxSize = blobLen
		}
		if int(blobLen) > t.rowBufMaxSize {
			if blobLen > maxPlausibleRowLength &&
				int64(offset)+4+int64(blobLen) > t.fileSize {
				t.curRow = -1
				return false, fmt.Errorf("%w: row %d: length %d exceeds file size", ErrBadRow, row, blobLen)
			}
			t.rowBufMaxSize = int(blobLen)
		}
		if len(t.rowBuf) < int(blobLen) {
			t.rowBuf = make([]byte, blobLen)
		}
		if _, err := t.f.ReadAt(t.rowBuf[:blobLen], int64(offset)+4); err != nil {
			t.curRow = -1
			return false, fmt.Errorf("%w: row %d: %v", ErrBadRow, row, err)
		}
	}

	t.rowLen = int(blobLen)
	t.curRow = row
	t.rowDeleted = deleted
	t.rowErrored = false
	t.lastCol = -1
	t.iterPos = t.nullableBytes
	t.accNullable = 0
	return true, nil
}

// CurrentRow returns the selected row index, or -1.
func (t *Table) CurrentRow() int64 { return t.curRow }

// CurrentRowIsDeleted reports whether the selected row carries the
// deletion mark. Only guessed record locations can select one.
func (t *Table) CurrentRowIsDeleted() bool { return t.curRow >= 0 && t.rowDeleted }

// GetAndSelectNextNonEmptyRow selects the first non-empty row at or
// after the given index and returns it, or -1 when no rows remain.
// Blocks absent from the offset index are stepped over wholesale.
func (t *Table) GetAndSelectNextNonEmptyRow(row int64) (int64, error) {
	total := t.TotalRecordCount()
	if row < 0 {
		t.curRow = -1
		return -1, ErrRowIndex
	}
	for row < total {
		if t.blockMap != nil && row%rowsPerBlock == 0 {
			block := row / rowsPerBlock
			if !format.TestBit(t.blockMap, int(block)) {
				blocks := (total + rowsPerBlock - 1) / rowsPerBlock
				for block++; block < blocks && !format.TestBit(t.blockMap, int(block)); block++ {
				}
				row = block * rowsPerBlock
				if row >= total {
					return -1, nil
				}
			}
		}
		ok, err := t.SelectRow(row)
		if err != nil {
			return -1, err
		}
		if ok {
			return row, nil
		}
		row++
	}
	return -1, nil
}

// GetFieldValue decodes one field of the selected row. A nil value
// with a nil error is a null field. The concrete type depends on the
// field: int16, int32, float32, float64, int64, string, time.Time,
// time.Duration or []byte. ObjectID fields return the 1-based row id
// as an int64.
//
// Byte slices alias the row buffer and stay valid only until the next
// SelectRow call. Fields of one row are cheapest to read in ascending
// order; stepping back rescans the row from its start.
//
// A decode failure marks the whole row errored: every further call
// fails until another row is selected.
func (t *Table) GetFieldValue(col int) (any, error) {
	if t.curRow < 0 {
		return nil, ErrNoCurrentRow
	}
	if t.rowErrored {
		return nil, fmt.Errorf("%w: row %d", ErrBadRow, t.curRow)
	}
	if col < 0 || col >= len(t.section.Fields) {
		return nil, ErrFieldIndex
	}

	if col <= t.lastCol {
		t.lastCol = -1
		t.iterPos = t.nullableBytes
		t.accNullable = 0
	}
	for j := t.lastCol + 1; j < col; j++ {
		if err := t.skipField(t.section.Fields[j]); err != nil {
			t.rowErrored = true
			return nil, err
		}
	}
	t.lastCol = col

	f := t.section.Fields[col]
	if f.Nullable {
		isNull := format.TestBit(t.rowBuf, t.accNullable)
		t.accNullable++
		if isNull {
			return nil, nil
		}
	}
	v, err := t.decodeField(f)
	if err != nil {
		t.rowErrored = true
		return nil, err
	}
	return v, nil
}

// GetAllFieldValues decodes every field of the selected row in order.
// Null fields are nil entries. Unlike GetFieldValue, byte slices are
// copies the caller owns.
func (t *Table) GetAllFieldValues() ([]any, error) {
	vals := make([]any, len(t.section.Fields))
	for i := range t.section.Fields {
		v, err := t.GetFieldValue(i)
		if err != nil {
			return nil, err
		}
		if b, ok := v.([]byte); ok {
			v = append([]byte(nil), b...)
		}
		vals[i] = v
	}
	return vals, nil
}

func (t *Table) skipField(f *schema.Field) error {
	if f.Nullable {
		isNull := format.TestBit(t.rowBuf, t.accNullable)
		t.accNullable++
		if isNull {
			return nil
		}
	}
	switch f.Type {
	case schema.TypeObjectID:
		return nil
	case schema.TypeString, schema.TypeXML, schema.TypeGeometry, schema.TypeBinary:
		return t.skipVarField()
	case schema.TypeRaster:
		if f.Raster != nil && f.Raster.Type == schema.RasterManaged {
			return t.advance(4)
		}
		return t.skipVarField()
	default:
		n, ok := f.Type.FixedSize()
		if !ok {
			return fmt.Errorf("%w: cannot skip %s field", ErrBadRow, f.Type)
		}
		return t.advance(n)
	}
}

func (t *Table) skipVarField() error {
	n, width, ok := rowVarLength(t.rowBuf[:t.rowLen], t.iterPos)
	if !ok {
		return fmt.Errorf("%w: bad field length", ErrBadRow)
	}
	t.iterPos += width + n
	return nil
}

func (t *Table) advance(n int) error {
	if t.iterPos+n > t.rowLen {
		return fmt.Errorf("%w: truncated row", ErrBadRow)
	}
	t.iterPos += n
	return nil
}

func (t *Table) fixed(n int) ([]byte, error) {
	if t.iterPos+n > t.rowLen {
		return nil, fmt.Errorf("%w: truncated row", ErrBadRow)
	}
	b := t.rowBuf[t.iterPos : t.iterPos+n]
	t.iterPos += n
	return b, nil
}

func (t *Table) varBytes() ([]byte, error) {
	n, width, ok := rowVarLength(t.rowBuf[:t.rowLen], t.iterPos)
	if !ok {
		return nil, fmt.Errorf("%w: bad field length", ErrBadRow)
	}
	t.iterPos += width
	b := t.rowBuf[t.iterPos : t.iterPos+n : t.iterPos+n]
	t.iterPos += n
	return b, nil
}

func (t *Table) decodeField(f *schema.Field) (any, error) {
	switch f.Type {
	case schema.TypeObjectID:
		return t.curRow + 1, nil

	case schema.TypeString, schema.TypeXML:
		raw, err := t.varBytes()
		if err != nil {
			return nil, err
		}
		if t.section.StringsUTF8 || f.Type != schema.TypeString {
			return string(raw), nil
		}
		return schema.DecodeUTF16(raw)

	case schema.TypeInt16:
		b, err := t.fixed(2)
		if err != nil {
			return nil, err
		}
		v, _ := format.Le16(b, 0)
		return int16(v), nil

	case schema.TypeInt32:
		b, err := t.fixed(4)
		if err != nil {
			return nil, err
		}
		v, _ := format.LeInt32(b, 0)
		return v, nil

	case schema.TypeInt64:
		b, err := t.fixed(8)
		if err != nil {
			return nil, err
		}
		v, _ := format.LeInt64(b, 0)
		return v, nil

	case schema.TypeFloat32:
		b, err := t.fixed(4)
		if err != nil {
			return nil, err
		}
		v, _ := format.LeFloat32(b, 0)
		return v, nil

	case schema.TypeFloat64:
		b, err := t.fixed(8)
		if err != nil {
			return nil, err
		}
		v, _ := format.LeFloat64(b, 0)
		return v, nil

	case schema.TypeDateTime, schema.TypeDate:
		b, err := t.fixed(8)
		if err != nil {
			return nil, err
		}
		v, _ := format.LeFloat64(b, 0)
		if t.opts.DatesAsDouble {
			return v, nil
		}
		return schema.DoubleToTime(v, true), nil

	case schema.TypeTime:
		b, err := t.fixed(8)
		if err != nil {
			return nil, err
		}
		v, _ := format.LeFloat64(b, 0)
		if t.opts.DatesAsDouble {
			return v, nil
		}
		h, m, sec := schema.DoubleToClock(v)
		return clockDuration(h, m, sec), nil

	case schema.TypeDateTimeOffset:
		b, err := t.fixed(10)
		if err != nil {
			return nil, err
		}
		v, _ := format.LeFloat64(b, 0)
		off, _ := format.Le16(b, 8)
		if t.opts.DatesAsDouble {
			return v - float64(int16(off))*60/86400, nil
		}
		tm, _ := schema.OffsetDateTime(v, int16(off))
		return tm, nil

	case schema.TypeGeometry, schema.TypeBinary:
		return t.varBytes()

	case schema.TypeRaster:
		if f.Raster != nil && f.Raster.Type == schema.RasterManaged {
			b, err := t.fixed(4)
			if err != nil {
				return nil, err
			}
			v, _ := format.LeInt32(b, 0)
			return v, nil
		}
		raw, err := t.varBytes()
		if err != nil {
			return nil, err
		}
		if f.Raster != nil && f.Raster.Type == schema.RasterExternal {
			return schema.DecodeUTF16(raw)
		}
		return raw, nil

	case schema.TypeGUID, schema.TypeGlobalID:
		b, err := t.fixed(16)
		if err != nil {
			return nil, err
		}
		return formatGUID(b), nil
	}
	return nil, fmt.Errorf("%w: %s", schema.ErrUnsupportedType, f.Type)
}

func clockDuration(h, m int, sec float64) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec*float64(time.Second))
}

// formatGUID renders 16 stored bytes as an uppercase braced GUID. The
// first three groups are stored little-endian.
func formatGUID(b []byte) string {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	copy(u[8:], b[8:16])
	return "{" + strings.ToUpper(u.String()) + "}"
}
