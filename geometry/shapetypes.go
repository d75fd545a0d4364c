// shapetypes.go - Extended shapefile shape type codes and flags
package geometry

// Shape type codes as stored at the start of a geometry blob.
const (
	ShapeNull         = 0
	ShapePoint        = 1
	ShapeArc          = 3
	ShapePolygon      = 5
	ShapeMultiPoint   = 8
	ShapePointZ       = 9
	ShapeArcZ         = 10
	ShapePointZM      = 11
	ShapeArcZM        = 13
	ShapePolygonZM    = 15
	ShapeMultiPointZM = 18
	ShapePolygonZ     = 19
	ShapeMultiPointZ  = 20
	ShapePointM       = 21
	ShapeArcM         = 23
	ShapePolygonM     = 25
	ShapeMultiPointM  = 28
	ShapeMultiPatchM  = 31
	ShapeMultiPatch   = 32

	ShapeGeneralPolyline   = 50
	ShapeGeneralPolygon    = 51
	ShapeGeneralPoint      = 52
	ShapeGeneralMultiPoint = 53
	ShapeGeneralMultiPatch = 54
)

// Modifier flags carried in the high bits of general shape types.
const (
	FlagHasZ     = 0x80000000
	FlagHasM     = 0x40000000
	FlagHasCurve = 0x20000000
	FlagHasID    = 0x10000000
)

// Curve segment types.
const (
	SegmentArc     = 1
	SegmentBezier  = 4
	SegmentEllipse = 5
)

// Byte sizes of the curve segment parameter blocks.
const (
	segmentArcSize     = 2*8 + 4
	segmentBezierSize  = 4 * 8
	segmentEllipseSize = 5*8 + 4
)

func segmentParamSize(curveType uint32) int {
	switch curveType {
	case SegmentArc:
		return segmentArcSize
	case SegmentBezier:
		return segmentBezierSize
	case SegmentEllipse:
		return segmentEllipseSize
	}
	return 0
}

// shapeHasZ reports the Z dimension from the base code or flags.
func shapeHasZ(shapeType uint32) bool {
	if shapeType&FlagHasZ != 0 {
		return true
	}
	switch shapeType & 0xFF {
	case ShapePointZ, ShapePointZM, ShapeArcZ, ShapeArcZM,
		ShapePolygonZ, ShapePolygonZM, ShapeMultiPointZ, ShapeMultiPointZM,
		ShapeMultiPatch, ShapeMultiPatchM:
		return true
	}
	return false
}

// shapeHasM reports the M dimension from the base code or flags.
func shapeHasM(shapeType uint32) bool {
	if shapeType&FlagHasM != 0 {
		return true
	}
	switch shapeType & 0xFF {
	case ShapePointM, ShapePointZM, ShapeArcM, ShapeArcZM,
		ShapePolygonM, ShapePolygonZM, ShapeMultiPointM, ShapeMultiPointZM,
		ShapeMultiPatchM:
		return true
	}
	return false
}
