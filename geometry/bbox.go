// bbox.go - Feature extent and spatial filter fast paths
package geometry

import (
	"math"

	"github.com/desertstsung/go-filegdb/format"
	"github.com/desertstsung/go-filegdb/schema"
)

// Envelope is an axis-aligned bounding box in real coordinates.
type Envelope struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Intersects reports whether the two envelopes overlap.
func (e Envelope) Intersects(o Envelope) bool {
	return e.MinX <= o.MaxX && e.MaxX >= o.MinX &&
		e.MinY <= o.MaxY && e.MaxY >= o.MinY
}

// FilterEnvelope is a spatial filter pre-quantized into the integer
// coordinate space of one geometry field, so that candidate features
// can be tested against their stored bounding box without decoding.
type FilterEnvelope struct {
	XMin, YMin uint64
	XMax, YMax uint64
}

// NewFilterEnvelope quantizes env with the coordinate parameters of
// field, clamping at the ends of the unsigned range.
func NewFilterEnvelope(field *schema.GeomField, env Envelope) *FilterEnvelope {
	q := func(coord, origin float64) uint64 {
		v := (coord-origin)*field.XYScale + 0.5
		if v < 0 {
			return 0
		}
		if v >= float64(math.MaxUint64) {
			return math.MaxUint64
		}
		return uint64(v)
	}
	return &FilterEnvelope{
		XMin: q(env.MinX, field.XOrigin),
		YMin: q(env.MinY, field.YOrigin),
		XMax: q(env.MaxX, field.XOrigin),
		YMax: q(env.MaxY, field.YOrigin),
	}
}

// bboxSkip returns how many varints sit between the point count and
// the stored bounding box for the given shape type, and whether the
// shape type carries a stored bounding box at all.
func bboxSkip(shapeType uint32) (int, bool) {
	switch shapeType & 0xFF {
	case ShapeMultiPoint, ShapeMultiPointZ, ShapeMultiPointM, ShapeMultiPointZM:
		return 0, true
	case ShapeArc, ShapeArcZ, ShapeArcM, ShapeArcZM,
		ShapePolygon, ShapePolygonZ, ShapePolygonM, ShapePolygonZM:
		return 1, true
	case ShapeGeneralPolyline, ShapeGeneralPolygon:
		n := 1
		if shapeType&FlagHasCurve != 0 {
			n++
		}
		return n, true
	case ShapeMultiPatch, ShapeMultiPatchM, ShapeGeneralMultiPatch:
		return 2, true
	}
	return 0, false
}

// Extent reads the feature envelope from the head of a geometry blob
// without decoding coordinates. ok is false for null, empty and point
// less shapes that carry no extent.
func (d *Decoder) Extent(blob []byte) (env Envelope, ok bool, err error) {
	f := d.Field
	c := format.NewCursor(blob)
	v, err := c.VarUint()
	if err != nil {
		return env, false, ErrBadShape
	}
	shapeType := uint32(v)

	switch shapeType & 0xFF {
	case ShapeNull:
		return env, false, nil
	case ShapePoint, ShapePointZ, ShapePointM, ShapePointZM, ShapeGeneralPoint:
		vx, err := c.VarUint()
		if err != nil {
			return env, false, ErrBadShape
		}
		vy, err := c.VarUint()
		if err != nil {
			return env, false, ErrBadShape
		}
		env.MinX = float64(vx-1)/f.XYScale + f.XOrigin
		env.MinY = float64(vy-1)/f.XYScale + f.YOrigin
		env.MaxX = env.MinX
		env.MaxY = env.MinY
		return env, true, nil
	}

	toSkip, hasBox := bboxSkip(shapeType)
	if !hasBox {
		return env, false, nil
	}
	nPoints, err := c.VarUint()
	if err != nil {
		return env, false, ErrBadShape
	}
	if nPoints == 0 {
		return env, false, nil
	}
	for i := 0; i < toSkip; i++ {
		if err := c.SkipVarUint(); err != nil {
			return env, false, ErrBadShape
		}
	}
	vxmin, err := c.VarUint()
	if err != nil {
		return env, false, ErrBadShape
	}
	vymin, err := c.VarUint()
	if err != nil {
		return env, false, ErrBadShape
	}
	vdx, err := c.VarUint()
	if err != nil {
		return env, false, ErrBadShape
	}
	vdy, err := c.VarUint()
	if err != nil {
		return env, false, ErrBadShape
	}
	env.MinX = float64(vxmin)/f.XYScale + f.XOrigin
	env.MinY = float64(vymin)/f.XYScale + f.YOrigin
	env.MaxX = float64(vxmin+vdx)/f.XYScale + f.XOrigin
	env.MaxY = float64(vymin+vdy)/f.XYScale + f.YOrigin
	return env, true, nil
}

// IntersectsFilter tests a geometry blob against a quantized filter
// using only its stored bounding box. It errs toward true: malformed
// or box-less shapes pass through to a full decode.
func (d *Decoder) IntersectsFilter(filter *FilterEnvelope, blob []byte) bool {
	if filter == nil {
		return true
	}
	c := format.NewCursor(blob)
	v, err := c.VarUint()
	if err != nil {
		return true
	}
	shapeType := uint32(v)

	switch shapeType & 0xFF {
	case ShapeNull:
		return true
	case ShapePoint, ShapePointZ, ShapePointM, ShapePointZM, ShapeGeneralPoint:
		vx, err := c.VarUint()
		if err != nil {
			return true
		}
		if vx == 0 {
			// Empty point.
			return false
		}
		vx--
		if vx < filter.XMin || vx > filter.XMax {
			return false
		}
		vy, err := c.VarUint()
		if err != nil {
			return true
		}
		vy--
		return vy >= filter.YMin && vy <= filter.YMax
	}

	toSkip, hasBox := bboxSkip(shapeType)
	if !hasBox {
		return true
	}
	nPoints, err := c.VarUint()
	if err != nil {
		return true
	}
	if nPoints == 0 {
		return true
	}
	for i := 0; i < toSkip; i++ {
		if err := c.SkipVarUint(); err != nil {
			return true
		}
	}
	vxmin, err := c.VarUint()
	if err != nil {
		return true
	}
	if vxmin > filter.XMax {
		return false
	}
	vymin, err := c.VarUint()
	if err != nil {
		return true
	}
	if vymin > filter.YMax {
		return false
	}
	vdx, err := c.VarUint()
	if err != nil {
		return true
	}
	if vxmin+vdx < filter.XMin {
		return false
	}
	vdy, err := c.VarUint()
	if err != nil {
		return true
	}
	return vymin+vdy >= filter.YMin
}
