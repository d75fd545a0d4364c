// exports.go - Re-exports for main package API
package gofilegdb

import (
	"github.com/desertstsung/go-filegdb/geometry"
	"github.com/desertstsung/go-filegdb/schema"
)

// Re-export types from schema package
type (
	Field         = schema.Field
	FieldType     = schema.FieldType
	GeomField     = schema.GeomField
	RasterField   = schema.RasterField
	Section       = schema.Section
	TableGeomType = schema.TableGeomType
)

// Re-export constants from schema package
const (
	TypeInt16          = schema.TypeInt16
	TypeInt32          = schema.TypeInt32
	TypeFloat32        = schema.TypeFloat32
	TypeFloat64        = schema.TypeFloat64
	TypeString         = schema.TypeString
	TypeDateTime       = schema.TypeDateTime
	TypeObjectID       = schema.TypeObjectID
	TypeGeometry       = schema.TypeGeometry
	TypeBinary         = schema.TypeBinary
	TypeRaster         = schema.TypeRaster
	TypeGUID           = schema.TypeGUID
	TypeGlobalID       = schema.TypeGlobalID
	TypeXML            = schema.TypeXML
	TypeInt64          = schema.TypeInt64
	TypeDate           = schema.TypeDate
	TypeTime           = schema.TypeTime
	TypeDateTimeOffset = schema.TypeDateTimeOffset

	GeomNone       = schema.GeomNone
	GeomPoint      = schema.GeomPoint
	GeomMultiPoint = schema.GeomMultiPoint
	GeomPolyline   = schema.GeomPolyline
	GeomPolygon    = schema.GeomPolygon
	GeomMultiPatch = schema.GeomMultiPatch
)

// Re-export types from geometry package
type (
	Envelope             = geometry.Envelope
	FilterEnvelope       = geometry.FilterEnvelope
	GeomDecoder          = geometry.Decoder
	MultiPatchPart       = geometry.MultiPatchPart
	MultiPatchBuilder    = geometry.MultiPatchBuilder
	ShapeBinaryConverter = geometry.ShapeBinaryConverter
)

// Re-export functions from geometry package
var (
	NewGeomDecoder    = geometry.NewDecoder
	NewFilterEnvelope = geometry.NewFilterEnvelope
)

// Re-export errors from geometry package
var (
	ErrBadShape         = geometry.ErrBadShape
	ErrUnsupportedShape = geometry.ErrUnsupportedShape
)
