// section.go - Field descriptor section parsing
package schema

import (
	"fmt"
	"time"

	"github.com/desertstsung/go-filegdb/format"
)

// TableGeomType is the layer-level geometry class from the descriptor
// section header.
type TableGeomType uint8

const (
	GeomNone       TableGeomType = 0
	GeomPoint      TableGeomType = 1
	GeomMultiPoint TableGeomType = 2
	GeomPolyline   TableGeomType = 3
	GeomPolygon    TableGeomType = 4
	GeomMultiPatch TableGeomType = 9
)

func (t TableGeomType) Valid() bool {
	switch t {
	case GeomNone, GeomPoint, GeomMultiPoint, GeomPolyline, GeomPolygon, GeomMultiPatch:
		return true
	}
	return false
}

func (t TableGeomType) String() string {
	switch t {
	case GeomNone:
		return "None"
	case GeomPoint:
		return "Point"
	case GeomMultiPoint:
		return "MultiPoint"
	case GeomPolyline:
		return "Polyline"
	case GeomPolygon:
		return "Polygon"
	case GeomMultiPatch:
		return "MultiPatch"
	}
	return "Unknown"
}

// Section is the decoded field descriptor section of a table file.
type Section struct {
	Version     uint32 // 3 for pre-10 geodatabases, 4 or 6 for 10+
	GeomType    TableGeomType
	StringsUTF8 bool
	HasZ        bool
	HasM        bool

	Fields        []*Field
	ObjectIDIndex int // -1 when absent
	GeomIndex     int // -1 when absent
	NullableCount int
}

// IsV9 reports a pre-10 geodatabase descriptor.
func (s *Section) IsV9() bool { return s.Version == 3 }

// FieldByName returns the first field with the given name.
func (s *Section) FieldByName(name string) (*Field, int) {
	for i, f := range s.Fields {
		if f.Name == name {
			return f, i
		}
	}
	return nil, -1
}

// ParseSection decodes a field descriptor section. b starts right
// after the section length word and spans the declared length: a ten
// byte header followed by one descriptor per field.
func ParseSection(b []byte) (*Section, error) {
	if len(b) < 10 {
		return nil, ErrBadDescriptor
	}
	s := &Section{ObjectIDIndex: -1, GeomIndex: -1}
	c := format.NewCursor(b)

	v, _ := c.Uint32()
	s.Version = v
	gt, _ := c.Uint8()
	if TableGeomType(gt).Valid() {
		s.GeomType = TableGeomType(gt)
	}
	fl, _ := c.Uint8()
	s.StringsUTF8 = fl&1 != 0
	c.Skip(1)
	gfl, _ := c.Uint8()
	s.HasM = gfl&(1<<6) != 0
	s.HasZ = gfl&(1<<7) != 0
	nFields, _ := c.Uint16()

	for i := 0; i < int(nFields); i++ {
		f, err := parseField(c, s)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		if f.Nullable {
			s.NullableCount++
		}
		s.Fields = append(s.Fields, f)
	}
	return s, nil
}

func parseField(c *format.Cursor, s *Section) (*Field, error) {
	name, err := readName(c)
	if err != nil {
		return nil, err
	}
	alias, err := readName(c)
	if err != nil {
		return nil, err
	}
	tb, err := c.Uint8()
	if err != nil {
		return nil, err
	}
	t := FieldType(tb)
	if !t.Valid() {
		return nil, fmt.Errorf("%w: type code %d", ErrUnsupportedType, tb)
	}

	f := &Field{Name: name, Alias: alias, Type: t}
	if t == TypeGeometry || t == TypeRaster {
		return f, parseGeomField(c, s, f)
	}

	var flags uint8
	var defaultLen uint64
	switch t {
	case TypeString:
		w, err := c.Int32()
		if err != nil {
			return nil, err
		}
		if w < 0 {
			return nil, ErrBadDescriptor
		}
		f.MaxWidth = int(w)
		if flags, err = c.Uint8(); err != nil {
			return nil, err
		}
		if defaultLen, err = c.VarUint(); err != nil {
			return nil, err
		}
	case TypeObjectID, TypeBinary, TypeGUID, TypeGlobalID, TypeXML:
		if err := c.Skip(1); err != nil {
			return nil, err
		}
		if flags, err = c.Uint8(); err != nil {
			return nil, err
		}
	default:
		if err := c.Skip(1); err != nil {
			return nil, err
		}
		if flags, err = c.Uint8(); err != nil {
			return nil, err
		}
		dl, err := c.Uint8()
		if err != nil {
			return nil, err
		}
		defaultLen = uint64(dl)
	}

	f.Nullable = flags&FlagNullable != 0
	f.Required = flags&FlagRequired != 0
	f.Editable = flags&FlagEditable != 0

	if f.Editable {
		raw, err := c.Bytes(int(defaultLen))
		if err != nil {
			return nil, err
		}
		f.Default = decodeDefault(t, raw, s.StringsUTF8)
	}

	if t == TypeObjectID {
		if flags != FlagRequired {
			return nil, ErrBadDescriptor
		}
		if s.ObjectIDIndex >= 0 {
			return nil, fmt.Errorf("%w: duplicate ObjectID field", ErrBadDescriptor)
		}
		s.ObjectIDIndex = len(s.Fields)
	}
	return f, nil
}

func decodeDefault(t FieldType, raw []byte, utf8Strings bool) any {
	switch {
	case t == TypeString && len(raw) > 0:
		if utf8Strings {
			return string(raw)
		}
		str, err := DecodeUTF16(raw)
		if err != nil {
			return nil
		}
		return str
	case t == TypeInt16 && len(raw) == 2:
		v, _ := format.Le16(raw, 0)
		return int16(v)
	case t == TypeInt32 && len(raw) == 4:
		v, _ := format.LeInt32(raw, 0)
		return v
	case t == TypeFloat32 && len(raw) == 4:
		v, _ := format.LeFloat32(raw, 0)
		return v
	case t == TypeFloat64 && len(raw) == 8:
		v, _ := format.LeFloat64(raw, 0)
		return v
	case (t == TypeDateTime || t == TypeDate) && len(raw) == 8:
		v, _ := format.LeFloat64(raw, 0)
		return DoubleToTime(v, true)
	case t == TypeTime && len(raw) == 8:
		v, _ := format.LeFloat64(raw, 0)
		h, m, sec := DoubleToClock(v)
		return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
			time.Duration(sec*float64(time.Second))
	case t == TypeInt64 && len(raw) == 8:
		v, _ := format.LeInt64(raw, 0)
		return v
	case t == TypeDateTimeOffset && len(raw) == 10:
		v, _ := format.LeFloat64(raw, 0)
		off, _ := format.Le16(raw, 8)
		tm, _ := OffsetDateTime(v, int16(off))
		return tm
	}
	return nil
}

func parseGeomField(c *format.Cursor, s *Section, f *Field) error {
	if err := c.Skip(1); err != nil {
		return err
	}
	flags, err := c.Uint8()
	if err != nil {
		return err
	}
	f.Nullable = flags&FlagNullable != 0
	g := &GeomField{}
	f.Geom = g

	if f.Type == TypeRaster {
		f.Raster = &RasterField{}
		name, err := readName(c)
		if err != nil {
			return err
		}
		f.Raster.ColumnName = name
	} else {
		if s.GeomIndex >= 0 {
			return fmt.Errorf("%w: duplicate geometry field", ErrBadDescriptor)
		}
		s.GeomIndex = len(s.Fields)
	}

	wktLen, err := c.Uint16()
	if err != nil {
		return err
	}
	wktRaw, err := c.Bytes(int(wktLen))
	if err != nil {
		return err
	}
	if g.WKT, err = DecodeUTF16(wktRaw); err != nil {
		return err
	}

	gflags, err := c.Uint8()
	if err != nil {
		return err
	}
	g.HasM = gflags&2 != 0
	g.HasZ = gflags&4 != 0

	if f.Type == TypeGeometry || gflags > 0 {
		if err := readDoubles(c, &g.XOrigin, &g.YOrigin, &g.XYScale); err != nil {
			return err
		}
		if g.XYScale == 0 {
			return fmt.Errorf("%w: zero XY scale", ErrBadDescriptor)
		}
		if g.HasM {
			if err := readDoubles(c, &g.MOrigin, &g.MScale); err != nil {
				return err
			}
		}
		if g.HasZ {
			if err := readDoubles(c, &g.ZOrigin, &g.ZScale); err != nil {
				return err
			}
		}
		if err := readDoubles(c, &g.XYTolerance); err != nil {
			return err
		}
		if g.HasM {
			if err := readDoubles(c, &g.MTolerance); err != nil {
				return err
			}
		}
		if g.HasZ {
			if err := readDoubles(c, &g.ZTolerance); err != nil {
				return err
			}
		}
	}

	if f.Type == TypeRaster {
		rt, err := c.Uint8()
		if err != nil {
			return err
		}
		if rt <= 2 {
			f.Raster.Type = RasterType(rt)
		}
		return nil
	}

	if err := readDoubles(c, &g.XMin, &g.YMin, &g.XMax, &g.YMax); err != nil {
		return err
	}
	if s.HasZ {
		if err := readDoubles(c, &g.ZMin, &g.ZMax); err != nil {
			return err
		}
	}
	if s.HasM {
		if err := readDoubles(c, &g.MMin, &g.MMax); err != nil {
			return err
		}
	}
	if err := c.Skip(1); err != nil {
		return err
	}
	nGrid, err := c.Uint32()
	if err != nil {
		return err
	}
	if nGrid == 0 || nGrid > 3 {
		return fmt.Errorf("%w: %d spatial grid levels", ErrBadDescriptor, nGrid)
	}
	for i := uint32(0); i < nGrid; i++ {
		var res float64
		if err := readDoubles(c, &res); err != nil {
			return err
		}
		g.GridResolution = append(g.GridResolution, res)
	}
	return nil
}

func readName(c *format.Cursor) (string, error) {
	n, err := c.Uint8()
	if err != nil {
		return "", err
	}
	raw, err := c.Bytes(2 * int(n))
	if err != nil {
		return "", err
	}
	return DecodeUTF16(raw)
}

func readDoubles(c *format.Cursor, dst ...*float64) error {
	for _, d := range dst {
		v, err := c.Float64()
		if err != nil {
			return err
		}
		*d = v
	}
	return nil
}
