// guess.go - Record location guessing for tables without an offset index
package gofilegdb

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/desertstsung/go-filegdb/format"
	"github.com/desertstsung/go-filegdb/schema"
)

// Offsets of deleted records are tagged on their high bit.
const deletedOffsetMark = uint64(1) << 63

// guessFeatureLocations scans the table file for record boundaries.
// Every offset that decodes as a plausible row for this schema is
// taken as a record start; anything else advances the scan one byte.
func (t *Table) guessFeatureLocations() error {
	start := uint64(40) + uint64(t.fieldDescLength)
	if t.offsetFieldDesc != 40 {
		start = t.probeDeletedDescriptor()
	}

	var invalid int64
	offset := start
	for offset < uint64(t.fileSize) {
		size, deleted, ok := t.isLikelyRowAtOffset(offset)
		if !ok {
			offset++
			continue
		}
		if deleted {
			if t.opts.ReportDeletedRows {
				t.deletedListed = true
				t.featureOffsets = append(t.featureOffsets, offset|deletedOffsetMark)
			} else {
				invalid++
				t.featureOffsets = append(t.featureOffsets, 0)
			}
		} else {
			t.featureOffsets = append(t.featureOffsets, offset)
		}
		offset += uint64(size)
	}

	total := int64(len(t.featureOffsets))
	if total-invalid > t.validRecordCount {
		if !t.deletedListed {
			t.log.Warn("more rows found than declared valid records, deleted rows may be reported",
				"file", t.filename,
				"found", total-invalid, "declared", t.validRecordCount)
		}
		t.validRecordCount = total - invalid
	}
	if total == 0 {
		return fmt.Errorf("%w: no records found by scan", ErrBadHeader)
	}
	return nil
}

// probeDeletedDescriptor checks for the remains of an older field
// descriptor section at offset 40, which records may still follow.
func (t *Table) probeDeletedDescriptor() uint64 {
	buf := make([]byte, 14)
	if _, err := t.f.ReadAt(buf, 40); err != nil {
		return 40
	}
	size, _ := format.LeInt32(buf, 0)
	version, _ := format.LeInt32(buf, 4)
	if size < 0 && size > -1024*1024 &&
		(version == 3 || version == 4) &&
		schema.TableGeomType(buf[8]).Valid() &&
		buf[9] == 3 && buf[10] == 0 && buf[11] == 0 {
		return 40 + uint64(-size)
	}
	return 40
}

// isLikelyRowAtOffset decodes the bytes at offset as a row of this
// table's schema. size is the full record length including the length
// word, valid only when ok.
func (t *Table) isLikelyRowAtOffset(offset uint64) (size uint32, deleted bool, ok bool) {
	head := make([]byte, 4)
	if _, err := t.f.ReadAt(head, int64(offset)); err != nil {
		return 0, false, false
	}
	blobLen, _ := format.Le32(head, 0)

	maxLen := uint64(10) * uint64(t.fileSize) / uint64(t.validRecordCount)
	implausible := func(n uint32) bool {
		return uint64(n) < uint64(t.nullableBytes) ||
			uint64(n) > uint64(t.fileSize)-offset ||
			n > math.MaxInt32-4 ||
			uint64(n) > maxLen
	}
	if implausible(blobLen) {
		if blobLen>>31 == 0 || blobLen == 0x80000000 {
			return 0, false, false
		}
		blobLen = uint32(-int32(blobLen))
		if implausible(blobLen) {
			return 0, false, false
		}
		deleted = true
	}

	buf := make([]byte, blobLen)
	if _, err := t.f.ReadAt(buf, int64(offset)+4); err != nil {
		return 0, false, false
	}
	required, ok := t.walkRowFields(buf)
	if !ok || required != int(blobLen) {
		return 0, false, false
	}
	return 4 + blobLen, deleted, true
}

// walkRowFields steps over every field of a row blob, validating
// lengths and string content. It returns the number of bytes a row of
// this schema occupies in buf.
func (t *Table) walkRowFields(buf []byte) (int, bool) {
	if len(buf) < t.nullableBytes {
		return 0, false
	}
	pos := t.nullableBytes
	acc := 0
	for _, f := range t.section.Fields {
		if f.Nullable {
			isNull := format.TestBit(buf, acc)
			acc++
			if isNull {
				continue
			}
		}
		switch f.Type {
		case schema.TypeObjectID:
			// Not stored in the row.

		case schema.TypeString, schema.TypeXML:
			n, width, ok := rowVarLength(buf, pos)
			if !ok {
				return 0, false
			}
			pos += width
			str := buf[pos : pos+n]
			for _, b := range str {
				if b == 0 {
					return 0, false
				}
			}
			if !utf8.Valid(str) {
				return 0, false
			}
			pos += n

		case schema.TypeGeometry, schema.TypeBinary:
			n, width, ok := rowVarLength(buf, pos)
			if !ok {
				return 0, false
			}
			pos += width + n

		case schema.TypeRaster:
			if f.Raster != nil && f.Raster.Type == schema.RasterManaged {
				pos += 4
			} else {
				n, width, ok := rowVarLength(buf, pos)
				if !ok {
					return 0, false
				}
				pos += width + n
			}

		default:
			n, _ := f.Type.FixedSize()
			pos += n
		}
		if pos > len(buf) {
			return 0, false
		}
	}
	return pos, true
}

// rowVarLength reads the varint length prefix of a variable-length
// field and checks it fits in the remaining blob.
func rowVarLength(buf []byte, pos int) (length, width int, ok bool) {
	if pos >= len(buf) {
		return 0, 0, false
	}
	v, n, err := format.Varuint(buf[pos:])
	if err != nil || n > 5 || v > uint64(len(buf)-pos-n) {
		return 0, 0, false
	}
	return int(v), n, true
}
