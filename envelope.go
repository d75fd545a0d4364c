// envelope.go - Spatial filtering and geometry access on a table
package gofilegdb

import (
	"fmt"

	"github.com/twpayne/go-geom"

	"github.com/desertstsung/go-filegdb/geometry"
)

// GeomDecoder returns the decoder bound to the table's geometry field,
// or nil for attribute-only tables. Callers may install a curve
// converter or multipatch builder on it before decoding.
func (t *Table) GeomDecoder() *geometry.Decoder {
	gf := t.GeomField()
	if gf == nil {
		return nil
	}
	if t.geomDecoder == nil {
		t.geomDecoder = geometry.NewDecoder(gf)
	}
	return t.geomDecoder
}

// InstallFilterEnvelope sets the spatial filter used by
// CurrentRowIntersectsFilter. A nil envelope clears the filter.
// Installing a filter on a table without a geometry field is an error.
func (t *Table) InstallFilterEnvelope(env *geometry.Envelope) error {
	if env == nil {
		t.filter = nil
		return nil
	}
	gf := t.GeomField()
	if gf == nil {
		return fmt.Errorf("%s: no geometry field to filter on", t.filename)
	}
	t.filter = geometry.NewFilterEnvelope(gf, *env)
	return nil
}

// currentGeometryBlob returns the raw geometry bytes of the current
// row, or nil when the geometry is null.
func (t *Table) currentGeometryBlob() ([]byte, error) {
	if t.section.GeomIndex < 0 {
		return nil, fmt.Errorf("%s: table has no geometry field", t.filename)
	}
	v, err := t.GetFieldValue(t.section.GeomIndex)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.([]byte), nil
}

// CurrentRowGeometry decodes the geometry of the current row. A null
// geometry decodes to nil with no error.
func (t *Table) CurrentRowGeometry() (geom.T, error) {
	blob, err := t.currentGeometryBlob()
	if err != nil || blob == nil {
		return nil, err
	}
	return t.GeomDecoder().Decode(blob)
}

// CurrentRowExtent reads the bounding box of the current row's
// geometry from the head of its blob, without a full decode. ok is
// false for null and empty geometries.
func (t *Table) CurrentRowExtent() (env geometry.Envelope, ok bool, err error) {
	blob, err := t.currentGeometryBlob()
	if err != nil || blob == nil {
		return env, false, err
	}
	return t.GeomDecoder().Extent(blob)
}

// CurrentRowIntersectsFilter tests the current row's stored bounding
// box against the installed filter. It errs toward true so that
// callers fall through to an exact geometry test; with no filter
// installed every row passes.
func (t *Table) CurrentRowIntersectsFilter() bool {
	if t.filter == nil {
		return true
	}
	blob, err := t.currentGeometryBlob()
	if err != nil {
		return true
	}
	if blob == nil {
		return false
	}
	return t.GeomDecoder().IntersectsFilter(t.filter, blob)
}
