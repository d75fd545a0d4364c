// geomfield.go - Geometry and raster field metadata
package schema

import "math"

// GeomField carries the coordinate reference and quantization
// parameters of a geometry (or raster) field. Stored coordinates are
// integers; a real coordinate c encodes as round((c-origin)*scale)+1,
// with 0 reserved for empty.
type GeomField struct {
	WKT string

	XOrigin, YOrigin float64
	XYScale          float64

	HasM             bool
	MOrigin, MScale  float64
	HasZ             bool
	ZOrigin, ZScale  float64

	XYTolerance float64
	MTolerance  float64
	ZTolerance  float64

	// Layer extent from the field descriptor. Z and M ranges are only
	// meaningful when the table geometry flags declare them.
	XMin, YMin, XMax, YMax float64
	ZMin, ZMax             float64
	MMin, MMax             float64

	// Spatial index grid resolutions (1 to 3 levels).
	GridResolution []float64
}

// RasterType tells where raster data lives relative to the table.
type RasterType uint8

const (
	RasterExternal RasterType = 0
	RasterManaged  RasterType = 1
	RasterInline   RasterType = 2
)

// RasterField extends a geometry-style descriptor with the raster
// column binding.
type RasterField struct {
	ColumnName string
	Type       RasterType
}

// SanitizeScale guards divisions by a quantization scale. Some files
// in the wild declare a zero M scale.
func SanitizeScale(scale float64) float64 {
	if scale == 0 {
		return math.SmallestNonzeroFloat64
	}
	return scale
}
