// field.go - Field definitions for a table schema
package schema

import "errors"

// Common errors
var (
	ErrUnsupportedType = errors.New("unsupported field type")
	ErrBadDescriptor   = errors.New("malformed field descriptor")
)

// FieldType is the on-disk field type code.
type FieldType uint8

const (
	TypeInt16    FieldType = 0
	TypeInt32    FieldType = 1
	TypeFloat32  FieldType = 2
	TypeFloat64  FieldType = 3
	TypeString   FieldType = 4
	TypeDateTime FieldType = 5
	TypeObjectID FieldType = 6
	TypeGeometry FieldType = 7
	TypeBinary   FieldType = 8
	TypeRaster   FieldType = 9
	TypeGUID     FieldType = 10
	TypeGlobalID FieldType = 11
	TypeXML      FieldType = 12
	TypeInt64    FieldType = 13
	TypeDate     FieldType = 14
	TypeTime     FieldType = 15

	// TypeDateTimeOffset is a datetime double followed by a signed
	// UTC offset in minutes.
	TypeDateTimeOffset FieldType = 16

	maxFieldType = TypeDateTimeOffset
)

var typeNames = [...]string{
	"Int16", "Int32", "Float32", "Float64", "String", "DateTime",
	"ObjectID", "Geometry", "Binary", "Raster", "GUID", "GlobalID",
	"XML", "Int64", "Date", "Time", "DateTimeOffset",
}

func (t FieldType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Valid reports whether t is a known type code.
func (t FieldType) Valid() bool { return t <= maxFieldType }

// FixedSize returns the in-row byte width of a fixed-size type, or
// (0, false) for variable-length and absent-from-row types.
func (t FieldType) FixedSize() (int, bool) {
	switch t {
	case TypeInt16:
		return 2, true
	case TypeInt32, TypeFloat32:
		return 4, true
	case TypeFloat64, TypeDateTime, TypeInt64, TypeDate, TypeTime:
		return 8, true
	case TypeDateTimeOffset:
		return 10, true
	case TypeGUID, TypeGlobalID:
		return 16, true
	default:
		return 0, false
	}
}

// VariableLength reports whether values of t are stored as a varint
// length followed by that many bytes.
func (t FieldType) VariableLength() bool {
	switch t {
	case TypeString, TypeGeometry, TypeBinary, TypeXML, TypeRaster:
		return true
	}
	return false
}

// Field flag bits.
const (
	FlagNullable = 1
	FlagRequired = 2
	FlagEditable = 4
)

// Field is one column of a table. Geom is non-nil for geometry and
// raster fields; Raster is additionally non-nil for raster fields.
type Field struct {
	Name     string
	Alias    string
	Type     FieldType
	Nullable bool
	Required bool
	Editable bool

	// MaxWidth is the declared maximum length of a string field, in
	// characters. Zero when not declared.
	MaxWidth int

	// Default holds the decoded default value for editable fields, or
	// nil. Numeric defaults keep their field's Go type; datetime
	// defaults are time.Time.
	Default any

	Geom   *GeomField
	Raster *RasterField
}
