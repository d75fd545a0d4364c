// multipatch.go - Multipatch surface decoding
package geometry

import (
	"fmt"

	"github.com/twpayne/go-geom"

	"github.com/desertstsung/go-filegdb/format"
)

// Multipatch part types.
const (
	PartTriangleStrip = 0
	PartTriangleFan   = 1
	PartOuterRing     = 2
	PartInnerRing     = 3
	PartFirstRing     = 4
	PartRing          = 5
	PartTriangles     = 6
)

// MultiPatchPart is one part of a multipatch surface, with XYZ flat
// coordinates.
type MultiPatchPart struct {
	Type int
	Flat []float64
}

// MultiPatchBuilder assembles a geometry from multipatch parts. The
// default builder renders every part as triangles or rings of a Z
// multipolygon.
type MultiPatchBuilder func(parts []MultiPatchPart) (geom.T, error)

func (d *Decoder) decodeMultiPatch(c *format.Cursor) (geom.T, error) {
	pd, err := d.readPartDefs(c, true, false)
	if err != nil {
		return nil, err
	}
	if pd.nPoints == 0 || len(pd.parts) == 0 {
		return geom.NewMultiPolygon(geom.XYZ), nil
	}

	partTypes := make([]int, len(pd.parts))
	for i := range partTypes {
		v, err := c.VarUint()
		if err != nil {
			return nil, fmt.Errorf("%w: part type: %v", ErrBadShape, err)
		}
		partTypes[i] = int(v)
	}

	var dx, dy int64
	xs, ys, err := d.readXYArrays(c, pd.nPoints, &dx, &dy)
	if err != nil {
		return nil, err
	}
	// Some writers omit the Z block of flat surfaces.
	var zs []float64
	if c.Remaining() >= pd.nPoints {
		if zs, err = d.readZArray(c, pd.nPoints); err != nil {
			return nil, err
		}
	} else {
		zs = make([]float64, pd.nPoints)
	}

	parts := make([]MultiPatchPart, len(pd.parts))
	pos := 0
	for i, np := range pd.parts {
		flat := make([]float64, 0, 3*np)
		for j := pos; j < pos+np; j++ {
			flat = append(flat, xs[j], ys[j], zs[j])
		}
		parts[i] = MultiPatchPart{Type: partTypes[i], Flat: flat}
		pos += np
	}

	build := d.BuildMultiPatch
	if build == nil {
		build = buildMultiPatchSurface
	}
	return build(parts)
}

// buildMultiPatchSurface renders a multipatch as an XYZ multipolygon.
// Triangle parts expand to one polygon per triangle; ring parts group
// into polygons, with inner rings attached to the preceding outer or
// first ring.
func buildMultiPatchSurface(parts []MultiPatchPart) (geom.T, error) {
	var flat []float64
	var endss [][]int

	appendRing := func(coords []float64, newPolygon bool) {
		flat = append(flat, coords...)
		if newPolygon || len(endss) == 0 {
			endss = append(endss, []int{len(flat)})
		} else {
			last := len(endss) - 1
			endss[last] = append(endss[last], len(flat))
		}
	}
	appendTriangle := func(p MultiPatchPart, a, b, c int) {
		tri := make([]float64, 0, 12)
		tri = append(tri, p.Flat[3*a:3*a+3]...)
		tri = append(tri, p.Flat[3*b:3*b+3]...)
		tri = append(tri, p.Flat[3*c:3*c+3]...)
		tri = append(tri, p.Flat[3*a:3*a+3]...)
		appendRing(tri, true)
	}

	for _, p := range parts {
		n := len(p.Flat) / 3
		switch p.Type {
		case PartTriangleStrip:
			for i := 0; i+2 < n; i++ {
				appendTriangle(p, i, i+1, i+2)
			}
		case PartTriangleFan:
			for i := 1; i+1 < n; i++ {
				appendTriangle(p, 0, i, i+1)
			}
		case PartTriangles:
			if n%3 != 0 {
				return nil, fmt.Errorf("%w: triangles part of %d points", ErrBadShape, n)
			}
			for i := 0; i < n; i += 3 {
				appendTriangle(p, i, i+1, i+2)
			}
		case PartOuterRing, PartFirstRing:
			appendRing(p.Flat, true)
		case PartInnerRing, PartRing:
			appendRing(p.Flat, false)
		default:
			return nil, fmt.Errorf("%w: multipatch part type %d", ErrUnsupportedShape, p.Type)
		}
	}
	return geom.NewMultiPolygonFlat(geom.XYZ, flat, endss), nil
}
