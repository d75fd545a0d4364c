// shapebin.go - Extended shape buffer bridge for curve geometries
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"

	"github.com/desertstsung/go-filegdb/format"
)

// ShapeBinaryConverter turns an extended shapefile buffer, as produced
// for curve-bearing shapes, into a geometry. Implementations that
// stroke or preserve arcs plug in here; a nil converter makes curve
// shapes decode from their stroked vertices instead.
type ShapeBinaryConverter func(buf []byte) (geom.T, error)

var errNoConverter = errors.New("geometry: no shape binary converter installed")

// curveSegment is one curve descriptor lifted verbatim from the shape
// stream. Params stays in its on-disk encoding.
type curveSegment struct {
	startIndex uint32
	curveType  uint32
	params     []byte
}

// convertCurves re-serializes an already decoded polyline or polygon,
// plus its raw curve descriptors, into an extended shape buffer and
// hands it to the installed converter.
func (d *Decoder) convertCurves(c *format.Cursor, shapeType uint32, pd partDefs, xs, ys, zs, ms []float64, mPresent bool) (geom.T, error) {
	if d.ConvertShapeBinary == nil {
		return nil, errNoConverter
	}
	curves := make([]curveSegment, 0, pd.nCurves)
	for i := 0; i < pd.nCurves; i++ {
		idx, err := c.VarUint()
		if err != nil {
			return nil, fmt.Errorf("%w: curve index: %v", ErrBadShape, err)
		}
		if idx >= uint64(pd.nPoints) {
			return nil, fmt.Errorf("%w: curve index %d out of range", ErrBadShape, idx)
		}
		ct, err := c.VarUint()
		if err != nil {
			return nil, fmt.Errorf("%w: curve type: %v", ErrBadShape, err)
		}
		size := segmentParamSize(uint32(ct))
		if size == 0 {
			return nil, fmt.Errorf("%w: curve type %d", ErrUnsupportedShape, ct)
		}
		params, err := c.Bytes(size)
		if err != nil {
			return nil, fmt.Errorf("%w: curve params: %v", ErrBadShape, err)
		}
		curves = append(curves, curveSegment{
			startIndex: uint32(idx),
			curveType:  uint32(ct),
			params:     params,
		})
	}

	base := uint32(ShapeGeneralPolyline)
	if shapeType&0xFF == ShapePolygon || shapeType&0xFF == ShapePolygonZ ||
		shapeType&0xFF == ShapePolygonM || shapeType&0xFF == ShapePolygonZM ||
		shapeType&0xFF == ShapeGeneralPolygon {
		base = ShapeGeneralPolygon
	}
	buf := buildExtendedShapeBuffer(base, pd, xs, ys, zs, ms, mPresent, curves)
	return d.ConvertShapeBinary(buf)
}

// buildExtendedShapeBuffer lays out the classic shapefile record body
// with the curve extension: type word, bounding box placeholder, part
// index table, XY doubles, then the optional Z and M blocks and the
// curve descriptors. Range words in the Z and M blocks are left zero;
// consumers derive ranges from the coordinates.
func buildExtendedShapeBuffer(base uint32, pd partDefs, xs, ys, zs, ms []float64, mPresent bool, curves []curveSegment) []byte {
	hasZ := zs != nil
	hasM := ms != nil && mPresent

	shapeType := base | FlagHasCurve
	if hasZ {
		shapeType |= FlagHasZ
	}
	if hasM {
		shapeType |= FlagHasM
	}

	n := len(xs)
	size := 4 + 32 + 4 + 4 + 4*len(pd.parts) + 16*n
	if hasZ {
		size += 16 + 8*n
	}
	if hasM {
		size += 16 + 8*n
	}
	size += 4
	for _, cs := range curves {
		size += 8 + len(cs.params)
	}

	buf := make([]byte, 0, size)
	buf = format.AppendLeUintN(buf, uint64(shapeType), 4)
	buf = append(buf, make([]byte, 32)...)
	buf = format.AppendLeUintN(buf, uint64(len(pd.parts)), 4)
	buf = format.AppendLeUintN(buf, uint64(n), 4)
	start := 0
	for _, np := range pd.parts {
		buf = format.AppendLeUintN(buf, uint64(start), 4)
		start += np
	}
	for i := 0; i < n; i++ {
		buf = format.AppendLeUintN(buf, math.Float64bits(xs[i]), 8)
		buf = format.AppendLeUintN(buf, math.Float64bits(ys[i]), 8)
	}
	if hasZ {
		buf = append(buf, make([]byte, 16)...)
		for i := 0; i < n; i++ {
			buf = format.AppendLeUintN(buf, math.Float64bits(zs[i]), 8)
		}
	}
	if hasM {
		buf = append(buf, make([]byte, 16)...)
		for i := 0; i < n; i++ {
			buf = format.AppendLeUintN(buf, math.Float64bits(ms[i]), 8)
		}
	}
	buf = format.AppendLeUintN(buf, uint64(len(curves)), 4)
	for _, cs := range curves {
		buf = format.AppendLeUintN(buf, uint64(cs.startIndex), 4)
		buf = format.AppendLeUintN(buf, uint64(cs.curveType), 4)
		buf = append(buf, cs.params...)
	}
	return buf
}
