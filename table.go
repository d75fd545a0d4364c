// table.go - Table file opening and header parsing
package gofilegdb

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertstsung/go-filegdb/format"
	"github.com/desertstsung/go-filegdb/geometry"
	"github.com/desertstsung/go-filegdb/schema"
)

const (
	tableHeaderSize    = 40
	maxFieldDescLength = 10 * 1024 * 1024
)

// Table reads one table of a file geodatabase: the .gdbtable row file
// plus its companion .gdbtablx offset index and .gdbindexes catalog
// when present.
//
// A Table holds one current row at a time and is not safe for
// concurrent use. Open one Table per goroutine instead.
type Table struct {
	opts Options
	log  *slog.Logger

	filename string
	f        *os.File
	fx       *os.File
	fileSize int64

	version             int
	validRecordCount    int64
	totalRecordCount    int64
	headerBufferMaxSize uint32
	offsetFieldDesc     uint64
	fieldDescLength     uint32

	section       *schema.Section
	nullableBytes int

	// offset index state
	tablxOffsetSize  int
	blocksPresent    uint64
	blockMap         []byte
	reliableObjectID bool
	blockCache       blockCountCache

	// guessed record locations, used when no offset index exists
	featureOffsets  []uint64
	deletedListed   bool
	warnedBadHeader bool

	// current row state
	rowBuf        []byte
	rowLen        int
	rowBufMaxSize int
	curRow        int64
	rowDeleted    bool
	rowErrored    bool
	lastCol       int
	accNullable   int
	iterPos       int

	// spatial filter, quantized into the geometry field's integer
	// coordinate space
	filter      *geometry.FilterEnvelope
	geomDecoder *geometry.Decoder

	// index catalog
	indexesRead     bool
	indexes         []*Index
	fieldToIndex    map[int]*Index
	hasSpatialIndex int8
}

// Open reads the header and field descriptors of a .gdbtable file.
// opts may be nil.
func Open(filename string, opts *Options) (*Table, error) {
	t := &Table{
		filename:         filename,
		curRow:           -1,
		reliableObjectID: true,
		hasSpatialIndex:  -1,
		fieldToIndex:     map[int]*Index{},
	}
	if opts != nil {
		t.opts = *opts
	}
	t.log = t.opts.logger()

	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	t.f = f
	if err := t.readHeader(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return t, nil
}

func (t *Table) readHeader() error {
	st, err := t.f.Stat()
	if err != nil {
		return err
	}
	t.fileSize = st.Size()

	hdr := make([]byte, tableHeaderSize)
	if _, err := t.f.ReadAt(hdr, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrBadHeader, err)
	}

	version, _ := format.LeInt32(hdr, 0)
	switch version {
	case 3, 4:
		t.version = int(version)
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	if t.version == 3 {
		v, _ := format.LeInt32(hdr, 4)
		if v < 0 {
			return fmt.Errorf("%w: negative record count", ErrBadHeader)
		}
		t.validRecordCount = int64(v)
	} else {
		v, _ := format.LeInt64(hdr, 16)
		if v < 0 {
			return fmt.Errorf("%w: negative record count", ErrBadHeader)
		}
		t.validRecordCount = v
	}
	hbms, _ := format.Le32(hdr, 8)
	t.headerBufferMaxSize = hbms
	ofd, _ := format.Le64(hdr, 32)
	t.offsetFieldDesc = ofd

	if !t.opts.IgnoreOffsetIndex && t.validRecordCount > 0 {
		if err := t.openOffsetIndex(); err != nil {
			return err
		}
	}

	if t.fx != nil && t.validRecordCount > t.totalRecordCount {
		switch t.opts.CountMismatch {
		case TrustTableCount:
			t.log.Debug("total record count forced up to valid count",
				"file", t.filename,
				"valid", t.validRecordCount, "total", t.totalRecordCount)
			t.totalRecordCount = t.validRecordCount
		default:
			t.log.Warn("table declares more valid records than the offset index holds, clamping",
				"file", t.filename,
				"valid", t.validRecordCount, "total", t.totalRecordCount)
			t.validRecordCount = t.totalRecordCount
		}
	}

	if err := t.readFieldDescriptors(); err != nil {
		return err
	}
	t.nullableBytes = format.BitmapBytes(t.section.NullableCount)

	if t.fx == nil {
		if len(t.section.Fields) == 0 {
			return fmt.Errorf("%w: no offset index and no fields", ErrBadHeader)
		}
		if t.validRecordCount > 0 {
			if err := t.guessFeatureLocations(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Table) openOffsetIndex() error {
	name := sidecarPath(t.filename, "gdbtablx")
	fx, err := os.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			if t.opts.RequireOffsetIndex {
				return fmt.Errorf("%w: %s", ErrBadOffsetIndex, name)
			}
			t.log.Warn("offset index not found, guessing feature locations",
				"file", name)
			return nil
		}
		return err
	}
	t.fx = fx
	if err := t.readOffsetIndexHeader(); err != nil {
		fx.Close()
		t.fx = nil
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (t *Table) readFieldDescriptors() error {
	lenBuf := make([]byte, 4)
	if _, err := t.f.ReadAt(lenBuf, int64(t.offsetFieldDesc)); err != nil {
		return fmt.Errorf("%w: field descriptors: %v", ErrBadHeader, err)
	}
	n, _ := format.Le32(lenBuf, 0)
	if n < 10 || n > maxFieldDescLength {
		return fmt.Errorf("%w: field descriptor length %d", ErrBadHeader, n)
	}
	t.fieldDescLength = n

	buf := make([]byte, n)
	if _, err := t.f.ReadAt(buf, int64(t.offsetFieldDesc)+4); err != nil {
		return fmt.Errorf("%w: field descriptors: %v", ErrBadHeader, err)
	}
	s, err := schema.ParseSection(buf)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	t.section = s
	t.rowBufMaxSize = int(n)
	return nil
}

// Close releases the underlying files.
func (t *Table) Close() error {
	var firstErr error
	if t.fx != nil {
		if err := t.fx.Close(); err != nil {
			firstErr = err
		}
		t.fx = nil
	}
	if t.f != nil {
		if err := t.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		t.f = nil
	}
	return firstErr
}

// Filename returns the path the table was opened from.
func (t *Table) Filename() string { return t.filename }

// Version returns the table format version, 3 or 4.
func (t *Table) Version() int { return t.version }

// IsV9 reports a pre-10 geodatabase.
func (t *Table) IsV9() bool { return t.section.IsV9() }

// ValidRecordCount returns the number of live rows.
func (t *Table) ValidRecordCount() int64 { return t.validRecordCount }

// TotalRecordCount returns the number of row slots, including holes
// left by deletions. Row indices range over [0, TotalRecordCount).
func (t *Table) TotalRecordCount() int64 {
	if t.fx == nil && t.featureOffsets != nil {
		return int64(len(t.featureOffsets))
	}
	if t.fx == nil {
		return t.validRecordCount
	}
	return t.totalRecordCount
}

// FieldCount returns the number of fields.
func (t *Table) FieldCount() int { return len(t.section.Fields) }

// Field returns the i-th field definition.
func (t *Table) Field(i int) *schema.Field { return t.section.Fields[i] }

// Fields returns all field definitions in file order.
func (t *Table) Fields() []*schema.Field { return t.section.Fields }

// FieldIndex returns the position of the named field, or -1.
func (t *Table) FieldIndex(name string) int {
	_, i := t.section.FieldByName(name)
	return i
}

// ObjectIDFieldIndex returns the ObjectID field position, or -1.
func (t *Table) ObjectIDFieldIndex() int { return t.section.ObjectIDIndex }

// GeomFieldIndex returns the geometry field position, or -1.
func (t *Table) GeomFieldIndex() int { return t.section.GeomIndex }

// GeomField returns the geometry field metadata, or nil.
func (t *Table) GeomField() *schema.GeomField {
	if t.section.GeomIndex < 0 {
		return nil
	}
	return t.section.Fields[t.section.GeomIndex].Geom
}

// GeomType returns the layer geometry class.
func (t *Table) GeomType() schema.TableGeomType { return t.section.GeomType }

// HasZ reports whether geometries carry Z values.
func (t *Table) HasZ() bool { return t.section.HasZ }

// HasM reports whether geometries carry M values.
func (t *Table) HasM() bool { return t.section.HasM }

// StringsAreUTF8 reports the string field encoding.
func (t *Table) StringsAreUTF8() bool { return t.section.StringsUTF8 }

// ReliableObjectIDs reports whether row indices map to real ObjectIDs.
// Only V4 offset indexes with an unrecognized bitmap section lose this.
func (t *Table) ReliableObjectIDs() bool { return t.reliableObjectID }

// sidecarPath swaps the extension of a table file path.
func sidecarPath(filename, ext string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return base + "." + ext
}
