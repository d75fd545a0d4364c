// indexes.go - Index catalog (.gdbindexes) reading
package gofilegdb

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/desertstsung/go-filegdb/format"
	"github.com/desertstsung/go-filegdb/schema"
)

// Pre-10 geodatabases start their .gdbindexes with this marker.
const v9IndexesMagic = 0x03859813

const maxIndexesFileSize = 1024 * 1024

// Index is one entry of the index catalog. Expression is the indexed
// column reference as stored, e.g. a bare field name or LOWER(name).
type Index struct {
	Name       string
	Expression string
}

// FieldName extracts the indexed field from the expression.
func (ix *Index) FieldName() string {
	e := ix.Expression
	if n := len(e); n > 7 && strings.EqualFold(e[:6], "LOWER(") && e[n-1] == ')' {
		return e[6 : n-1]
	}
	return e
}

// Indexes reads the table's .gdbindexes catalog once and returns the
// declared indexes. A missing catalog file is an empty result.
func (t *Table) Indexes() ([]*Index, error) {
	if t.indexesRead {
		return t.indexes, nil
	}
	t.indexesRead = true

	name := sidecarPath(t.filename, "gdbindexes")
	raw, err := os.ReadFile(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(raw) > maxIndexesFileSize {
		return nil, fmt.Errorf("%s: %w: %d bytes", name, ErrBadIndexFile, len(raw))
	}
	if err := t.parseIndexes(raw); err != nil {
		t.indexes = nil
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t.indexes, nil
}

// FieldIndexInfo returns the index declared on a field, or nil.
func (t *Table) FieldIndexInfo(fieldIdx int) *Index {
	if !t.indexesRead {
		t.Indexes()
	}
	return t.fieldToIndex[fieldIdx]
}

// HasSpatialIndex reports whether a .spx sidecar exists for the table.
func (t *Table) HasSpatialIndex() bool {
	if t.hasSpatialIndex < 0 {
		t.hasSpatialIndex = 0
		if _, err := os.Stat(sidecarPath(t.filename, "spx")); err == nil {
			t.hasSpatialIndex = 1
		}
	}
	return t.hasSpatialIndex != 0
}

func (t *Table) parseIndexes(raw []byte) error {
	c := format.NewCursor(raw)
	count, err := c.Uint32()
	if err != nil {
		return ErrBadIndexFile
	}

	if count == v9IndexesMagic {
		return t.parseV9Indexes()
	}
	if uint64(count) >= uint64(len(t.section.Fields)+1)*10 {
		return fmt.Errorf("%w: %d indexes", ErrBadIndexFile, count)
	}

	for i := uint32(0); i < count; i++ {
		name, err := readIndexString(c)
		if err != nil {
			return err
		}

		// Four magic fields follow the name. Two carry values that
		// identify a live descriptor.
		if err := c.Skip(2); err != nil {
			return ErrBadIndexFile
		}
		magic2, err := c.Uint32()
		if err != nil {
			return ErrBadIndexFile
		}
		magic3, err := c.Uint16()
		if err != nil {
			return ErrBadIndexFile
		}
		live := (magic2 == 2 && magic3 == 0) ||
			(magic2 == 4 && magic3 == 0) ||
			(magic2 == 16 && magic3 == 65535)
		if !live {
			// Stale (deleted?) descriptor: what would be the second
			// magic holds the column name length instead, and the
			// name starts where the third magic was read from.
			t.log.Debug("stale index descriptor", "file", t.filename, "index", name)
			if magic2 > 1024 {
				return ErrBadIndexFile
			}
			if err := c.Skip(2*int(magic2) - 2 + 2); err != nil {
				return ErrBadIndexFile
			}
			continue
		}
		if err := c.Skip(4); err != nil {
			return ErrBadIndexFile
		}

		expr, err := readIndexString(c)
		if err != nil {
			return err
		}
		if err := c.Skip(2); err != nil {
			return ErrBadIndexFile
		}

		ix := &Index{Name: name, Expression: expr}
		t.indexes = append(t.indexes, ix)
		t.associateIndex(ix)
	}
	return nil
}

// parseV9Indexes handles the one pre-10 catalog shape that matters in
// practice: the block key index of raster layers.
func (t *Table) parseV9Indexes() error {
	idx := t.FieldIndex("block_key")
	if idx < 0 {
		t.log.Debug("pre-10 index catalog not handled", "file", t.filename)
		return nil
	}
	atx := sidecarPath(t.filename, "blk_key_index.atx")
	if _, err := os.Stat(atx); err != nil {
		return nil
	}
	ix := &Index{Name: "blk_key_index", Expression: "block_key"}
	t.indexes = append(t.indexes, ix)
	t.fieldToIndex[idx] = ix
	return nil
}

// associateIndex binds an index to its field. The ObjectID index is
// kept in the list but not bound, its lookups go through row ids.
func (t *Table) associateIndex(ix *Index) {
	oid := t.section.ObjectIDIndex
	if oid >= 0 && ix.Expression == t.section.Fields[oid].Name {
		return
	}
	fieldIdx := t.FieldIndex(ix.FieldName())
	if fieldIdx < 0 {
		t.log.Debug("index on unknown field",
			"file", t.filename, "index", ix.Name, "field", ix.FieldName())
		return
	}
	if _, dup := t.fieldToIndex[fieldIdx]; dup {
		t.log.Debug("field already has an index",
			"file", t.filename, "field", ix.FieldName())
		return
	}
	t.fieldToIndex[fieldIdx] = ix
}

func readIndexString(c *format.Cursor) (string, error) {
	chars, err := c.Uint32()
	if err != nil || chars > 1024 {
		return "", ErrBadIndexFile
	}
	raw, err := c.Bytes(2 * int(chars))
	if err != nil {
		return "", ErrBadIndexFile
	}
	s, err := schema.DecodeUTF16(raw)
	if err != nil {
		return "", errors.Join(ErrBadIndexFile, err)
	}
	return s, nil
}
