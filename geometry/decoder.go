// decoder.go - Shape stream decoding into go-geom values
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"

	"github.com/desertstsung/go-filegdb/format"
	"github.com/desertstsung/go-filegdb/schema"
)

var (
	// ErrBadShape reports a malformed or truncated shape stream.
	ErrBadShape = errors.New("geometry: malformed shape stream")
	// ErrUnsupportedShape reports a shape type code with no decoding.
	ErrUnsupportedShape = errors.New("geometry: unsupported shape type")
)

// Decoder turns geometry blobs of one field into go-geom values. The
// coordinate quantization parameters come from the field descriptor.
//
// A Decoder keeps no per-call state and is safe for concurrent use as
// long as its configuration is not mutated.
type Decoder struct {
	Field *schema.GeomField

	// ConvertShapeBinary, when set, builds curve geometries from an
	// extended shape buffer. When nil or failing, curve descriptors
	// are dropped and the shape decodes from its stroked vertices.
	ConvertShapeBinary ShapeBinaryConverter

	// BuildMultiPatch, when set, replaces the default multipatch
	// surface assembly.
	BuildMultiPatch MultiPatchBuilder
}

// NewDecoder returns a Decoder for one geometry field.
func NewDecoder(field *schema.GeomField) *Decoder {
	return &Decoder{Field: field}
}

func layoutFor(hasZ, hasM bool) geom.Layout {
	switch {
	case hasZ && hasM:
		return geom.XYZM
	case hasZ:
		return geom.XYZ
	case hasM:
		return geom.XYM
	}
	return geom.XY
}

// Decode parses one geometry blob. A nil blob or null shape decodes to
// a nil geometry with no error.
//
// A measured shape whose measure array was omitted by the writer keeps
// its M layout with every measure set to NaN, rather than dropping to
// an XY or XYZ layout.
func (d *Decoder) Decode(blob []byte) (geom.T, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	c := format.NewCursor(blob)
	v, err := c.VarUint()
	if err != nil {
		return nil, fmt.Errorf("%w: shape type: %v", ErrBadShape, err)
	}
	shapeType := uint32(v)
	hasZ := shapeHasZ(shapeType)
	hasM := shapeHasM(shapeType)
	hasCurves := shapeType&FlagHasCurve != 0

	switch shapeType & 0xFF {
	case ShapeNull:
		return nil, nil
	case ShapePoint, ShapePointZ, ShapePointM, ShapePointZM, ShapeGeneralPoint:
		return d.decodePoint(c, hasZ, hasM)
	case ShapeMultiPoint, ShapeMultiPointZ, ShapeMultiPointM, ShapeMultiPointZM,
		ShapeGeneralMultiPoint:
		return d.decodeMultiPoint(c, hasZ, hasM)
	case ShapeArc, ShapeArcZ, ShapeArcM, ShapeArcZM, ShapeGeneralPolyline:
		return d.decodePolyline(c, shapeType, hasZ, hasM, hasCurves)
	case ShapePolygon, ShapePolygonZ, ShapePolygonM, ShapePolygonZM,
		ShapeGeneralPolygon:
		return d.decodePolygon(c, shapeType, hasZ, hasM, hasCurves)
	case ShapeMultiPatch, ShapeMultiPatchM, ShapeGeneralMultiPatch:
		return d.decodeMultiPatch(c)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnsupportedShape, shapeType)
}

// esriNaN is the quiet NaN bit pattern the SDK writes for missing
// coordinates. Using the same pattern keeps decoded empty components
// bit-identical to SDK output.
var esriNaN = math.Float64frombits(0x7FF8000000000001)

// quantized point coordinates are stored biased by one so that zero
// can mean "no value".
func unscale(v uint64, scale, origin float64) float64 {
	if v == 0 {
		return esriNaN
	}
	return float64(v-1)/scale + origin
}

func (d *Decoder) decodePoint(c *format.Cursor, hasZ, hasM bool) (geom.T, error) {
	f := d.Field
	layout := layoutFor(hasZ, hasM)

	vx, err := c.VarUint()
	if err != nil {
		return nil, fmt.Errorf("%w: point x: %v", ErrBadShape, err)
	}
	vy, err := c.VarUint()
	if err != nil {
		return nil, fmt.Errorf("%w: point y: %v", ErrBadShape, err)
	}
	x := unscale(vx, f.XYScale, f.XOrigin)
	y := unscale(vy, f.XYScale, f.YOrigin)
	if math.IsNaN(x) || math.IsNaN(y) {
		return geom.NewPointEmpty(layout), nil
	}

	flat := make([]float64, 0, layout.Stride())
	flat = append(flat, x, y)
	if hasZ {
		vz, err := c.VarUint()
		if err != nil {
			return nil, fmt.Errorf("%w: point z: %v", ErrBadShape, err)
		}
		flat = append(flat, unscale(vz, schema.SanitizeScale(f.ZScale), f.ZOrigin))
	}
	if hasM {
		// The M word may be omitted entirely.
		if c.Remaining() == 0 {
			flat = append(flat, esriNaN)
		} else {
			vm, err := c.VarUint()
			if err != nil {
				return nil, fmt.Errorf("%w: point m: %v", ErrBadShape, err)
			}
			flat = append(flat, unscale(vm, schema.SanitizeScale(f.MScale), f.MOrigin))
		}
	}
	return geom.NewPointFlat(layout, flat), nil
}

func (d *Decoder) decodeMultiPoint(c *format.Cursor, hasZ, hasM bool) (geom.T, error) {
	layout := layoutFor(hasZ, hasM)
	n, err := d.readPointCount(c)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return geom.NewMultiPoint(layout), nil
	}
	// Stored bounding box.
	for i := 0; i < 4; i++ {
		if err := c.SkipVarUint(); err != nil {
			return nil, fmt.Errorf("%w: bbox: %v", ErrBadShape, err)
		}
	}
	var dx, dy int64
	xs, ys, err := d.readXYArrays(c, n, &dx, &dy)
	if err != nil {
		return nil, err
	}
	var zs, ms []float64
	if hasZ {
		if zs, err = d.readZArray(c, n); err != nil {
			return nil, err
		}
	}
	if hasM {
		if ms, _, err = d.readMArray(c, n, false); err != nil {
			return nil, err
		}
	}
	return geom.NewMultiPointFlat(layout, interleave(layout, xs, ys, zs, ms)), nil
}

func (d *Decoder) decodePolyline(c *format.Cursor, shapeType uint32, hasZ, hasM, hasCurves bool) (geom.T, error) {
	layout := layoutFor(hasZ, hasM)
	pd, err := d.readPartDefs(c, false, hasCurves)
	if err != nil {
		return nil, err
	}
	if pd.nPoints == 0 || len(pd.parts) == 0 {
		return geom.NewLineString(layout), nil
	}
	xs, ys, zs, ms, mPresent, err := d.readCoordArrays(c, pd.nPoints, hasZ, hasM, hasCurves && pd.nCurves > 0)
	if err != nil {
		return nil, err
	}
	if hasCurves && pd.nCurves > 0 {
		g, err := d.convertCurves(c, shapeType, pd, xs, ys, zs, ms, mPresent)
		if err == nil {
			return g, nil
		}
	}
	flat := interleave(layout, xs, ys, zs, ms)
	stride := layout.Stride()
	if len(pd.parts) == 1 {
		return geom.NewLineStringFlat(layout, flat), nil
	}
	return geom.NewMultiLineStringFlat(layout, flat, partEnds(pd.parts, stride)), nil
}

func (d *Decoder) decodePolygon(c *format.Cursor, shapeType uint32, hasZ, hasM, hasCurves bool) (geom.T, error) {
	layout := layoutFor(hasZ, hasM)
	pd, err := d.readPartDefs(c, false, hasCurves)
	if err != nil {
		return nil, err
	}
	if pd.nPoints == 0 || len(pd.parts) == 0 {
		return geom.NewPolygon(layout), nil
	}
	xs, ys, zs, ms, mPresent, err := d.readCoordArrays(c, pd.nPoints, hasZ, hasM, hasCurves && pd.nCurves > 0)
	if err != nil {
		return nil, err
	}
	if hasCurves && pd.nCurves > 0 {
		g, err := d.convertCurves(c, shapeType, pd, xs, ys, zs, ms, mPresent)
		if err == nil {
			return g, nil
		}
	}
	flat := interleave(layout, xs, ys, zs, ms)
	stride := layout.Stride()
	if len(pd.parts) == 1 {
		return geom.NewPolygonFlat(layout, flat, []int{len(flat)}), nil
	}
	return organizeRings(layout, flat, partEnds(pd.parts, stride)), nil
}

// partDefs describes the part structure read from the head of a
// multi-part shape.
type partDefs struct {
	nPoints int
	parts   []int
	nCurves int
}

func (d *Decoder) readPointCount(c *format.Cursor) (int, error) {
	v, err := c.VarUint()
	if err != nil {
		return 0, fmt.Errorf("%w: point count: %v", ErrBadShape, err)
	}
	// Every stored point takes at least one byte.
	if v > uint64(c.Remaining()) {
		return 0, fmt.Errorf("%w: point count %d exceeds stream", ErrBadShape, v)
	}
	return int(v), nil
}

// readPartDefs reads the point count, part count, optional curve count
// and per-part point counts, and skips the stored bounding box.
func (d *Decoder) readPartDefs(c *format.Cursor, isMultiPatch, hasCurveDesc bool) (partDefs, error) {
	var pd partDefs
	var err error
	if pd.nPoints, err = d.readPointCount(c); err != nil {
		return pd, err
	}
	if pd.nPoints == 0 {
		return pd, nil
	}
	if isMultiPatch {
		if err := c.SkipVarUint(); err != nil {
			return pd, fmt.Errorf("%w: multipatch header: %v", ErrBadShape, err)
		}
	}
	nParts, err := c.VarUint()
	if err != nil {
		return pd, fmt.Errorf("%w: part count: %v", ErrBadShape, err)
	}
	if nParts > uint64(c.Remaining()) {
		return pd, fmt.Errorf("%w: part count %d exceeds stream", ErrBadShape, nParts)
	}
	if hasCurveDesc {
		nCurves, err := c.VarUint()
		if err != nil {
			return pd, fmt.Errorf("%w: curve count: %v", ErrBadShape, err)
		}
		if nCurves > uint64(c.Remaining()) {
			return pd, fmt.Errorf("%w: curve count %d exceeds stream", ErrBadShape, nCurves)
		}
		pd.nCurves = int(nCurves)
	}
	if nParts == 0 {
		return pd, nil
	}
	// Stored bounding box.
	for i := 0; i < 4; i++ {
		if err := c.SkipVarUint(); err != nil {
			return pd, fmt.Errorf("%w: bbox: %v", ErrBadShape, err)
		}
	}
	pd.parts = make([]int, nParts)
	sum := 0
	for i := 0; i+1 < int(nParts); i++ {
		v, err := c.VarUint()
		if err != nil {
			return pd, fmt.Errorf("%w: part size: %v", ErrBadShape, err)
		}
		if v > uint64(pd.nPoints-sum) {
			return pd, fmt.Errorf("%w: part sizes exceed point count", ErrBadShape)
		}
		pd.parts[i] = int(v)
		sum += int(v)
	}
	pd.parts[nParts-1] = pd.nPoints - sum
	return pd, nil
}

// readXYArrays decodes n delta-encoded coordinate pairs. The
// accumulators persist across parts of one shape.
func (d *Decoder) readXYArrays(c *format.Cursor, n int, dx, dy *int64) (xs, ys []float64, err error) {
	f := d.Field
	xs = make([]float64, n)
	ys = make([]float64, n)
	for i := 0; i < n; i++ {
		if *dx, err = c.VarIntDelta(*dx); err != nil {
			return nil, nil, fmt.Errorf("%w: x[%d]: %v", ErrBadShape, i, err)
		}
		if *dy, err = c.VarIntDelta(*dy); err != nil {
			return nil, nil, fmt.Errorf("%w: y[%d]: %v", ErrBadShape, i, err)
		}
		xs[i] = float64(*dx)/f.XYScale + f.XOrigin
		ys[i] = float64(*dy)/f.XYScale + f.YOrigin
	}
	return xs, ys, nil
}

func (d *Decoder) readZArray(c *format.Cursor, n int) ([]float64, error) {
	f := d.Field
	scale := schema.SanitizeScale(f.ZScale)
	zs := make([]float64, n)
	var acc int64
	var err error
	for i := 0; i < n; i++ {
		if acc, err = c.VarIntDelta(acc); err != nil {
			return nil, fmt.Errorf("%w: z[%d]: %v", ErrBadShape, i, err)
		}
		zs[i] = float64(acc)/scale + f.ZOrigin
	}
	return zs, nil
}

// readMArray decodes the measure array. Writers omit it in two ways: a
// single 0x42 marker byte, or by ending the stream early. Both decode
// as NaN measures with present=false. On curve shapes the curve table
// follows the measures, so the marker byte is decisive there; on
// straight shapes it only counts when too few bytes remain, since 0x42
// is also a valid measure delta.
func (d *Decoder) readMArray(c *format.Cursor, n int, curves bool) (ms []float64, present bool, err error) {
	ms = make([]float64, n)
	if c.Remaining() > 0 && c.PeekByte() == 0x42 && (curves || c.Remaining() < n) {
		_ = c.Skip(1)
		fillNaN(ms)
		return ms, false, nil
	}
	if c.Remaining() < n {
		fillNaN(ms)
		return ms, false, nil
	}
	f := d.Field
	scale := schema.SanitizeScale(f.MScale)
	var acc int64
	for i := 0; i < n; i++ {
		if acc, err = c.VarIntDelta(acc); err != nil {
			return nil, false, fmt.Errorf("%w: m[%d]: %v", ErrBadShape, i, err)
		}
		ms[i] = float64(acc)/scale + f.MOrigin
	}
	return ms, true, nil
}

func (d *Decoder) readCoordArrays(c *format.Cursor, n int, hasZ, hasM, curves bool) (xs, ys, zs, ms []float64, mPresent bool, err error) {
	var dx, dy int64
	if xs, ys, err = d.readXYArrays(c, n, &dx, &dy); err != nil {
		return
	}
	if hasZ {
		if zs, err = d.readZArray(c, n); err != nil {
			return
		}
	}
	if hasM {
		if ms, mPresent, err = d.readMArray(c, n, curves); err != nil {
			return
		}
	}
	return
}

func fillNaN(v []float64) {
	for i := range v {
		v[i] = esriNaN
	}
}

// interleave packs the per-dimension arrays into a flat coordinate
// slice of the given layout.
func interleave(layout geom.Layout, xs, ys, zs, ms []float64) []float64 {
	stride := layout.Stride()
	flat := make([]float64, 0, len(xs)*stride)
	for i := range xs {
		flat = append(flat, xs[i], ys[i])
		if zs != nil {
			flat = append(flat, zs[i])
		}
		if ms != nil {
			flat = append(flat, ms[i])
		}
	}
	return flat
}

// partEnds converts per-part point counts into cumulative flat-coord
// end offsets.
func partEnds(parts []int, stride int) []int {
	ends := make([]int, len(parts))
	sum := 0
	for i, n := range parts {
		sum += n * stride
		ends[i] = sum
	}
	return ends
}
