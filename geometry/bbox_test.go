package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtentPoint(t *testing.T) {
	f := testField()
	d := NewDecoder(f)
	w := newShapeWriter(f).varUint(ShapePoint)
	w.absCoord(12.5, f.XOrigin, f.XYScale)
	w.absCoord(-3.25, f.YOrigin, f.XYScale)

	env, ok, err := d.Extent(w.buf)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 12.5, env.MinX, 1e-3)
	assert.InDelta(t, -3.25, env.MinY, 1e-3)
	assert.Equal(t, env.MinX, env.MaxX)
	assert.Equal(t, env.MinY, env.MaxY)
}

func TestExtentMatchesDecodedBounds(t *testing.T) {
	f := testField()
	d := NewDecoder(f)
	w := newShapeWriter(f)
	encodePolyParts(w, ShapeArc, [][][2]float64{
		{{-7, 2}, {5, 5}},
		{{10, 0}, {3, 14}},
	})

	env, ok, err := d.Extent(w.buf)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, -7, env.MinX, 1e-3)
	assert.InDelta(t, 0, env.MinY, 1e-3)
	assert.InDelta(t, 10, env.MaxX, 1e-3)
	assert.InDelta(t, 14, env.MaxY, 1e-3)

	g, err := d.Decode(w.buf)
	require.NoError(t, err)
	b := g.Bounds()
	assert.InDelta(t, b.Min(0), env.MinX, 1e-3)
	assert.InDelta(t, b.Min(1), env.MinY, 1e-3)
	assert.InDelta(t, b.Max(0), env.MaxX, 1e-3)
	assert.InDelta(t, b.Max(1), env.MaxY, 1e-3)
}

func TestExtentCurvePolyline(t *testing.T) {
	f := testField()
	d := NewDecoder(f)

	env, ok, err := d.Extent(encodeCurvePolyline(f))
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0, env.MinX, 1e-3)
	assert.InDelta(t, 10, env.MaxX, 1e-3)
}

func TestExtentNullAndEmpty(t *testing.T) {
	f := testField()
	d := NewDecoder(f)

	_, ok, err := d.Extent([]byte{ShapeNull})
	require.NoError(t, err)
	assert.False(t, ok)

	w := newShapeWriter(f).varUint(ShapeMultiPoint).varUint(0)
	_, ok, err = d.Extent(w.buf)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnvelopeIntersects(t *testing.T) {
	a := Envelope{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	assert.True(t, a.Intersects(Envelope{MinX: 5, MinY: 5, MaxX: 15, MaxY: 15}))
	assert.False(t, a.Intersects(Envelope{MinX: 11, MinY: 0, MaxX: 12, MaxY: 10}))
}

func TestIntersectsFilterPolyline(t *testing.T) {
	f := testField()
	d := NewDecoder(f)
	w := newShapeWriter(f)
	encodePolyParts(w, ShapeArc, [][][2]float64{{{0, 0}, {10, 10}}})

	hit := NewFilterEnvelope(f, Envelope{MinX: 5, MinY: 5, MaxX: 20, MaxY: 20})
	miss := NewFilterEnvelope(f, Envelope{MinX: 50, MinY: 50, MaxX: 60, MaxY: 60})
	assert.True(t, d.IntersectsFilter(hit, w.buf))
	assert.False(t, d.IntersectsFilter(miss, w.buf))
	assert.True(t, d.IntersectsFilter(nil, w.buf))
}

func TestIntersectsFilterPoint(t *testing.T) {
	f := testField()
	d := NewDecoder(f)
	w := newShapeWriter(f).varUint(ShapePoint)
	w.absCoord(3, f.XOrigin, f.XYScale)
	w.absCoord(4, f.YOrigin, f.XYScale)

	hit := NewFilterEnvelope(f, Envelope{MinX: 0, MinY: 0, MaxX: 5, MaxY: 5})
	missX := NewFilterEnvelope(f, Envelope{MinX: 10, MinY: 0, MaxX: 20, MaxY: 5})
	missY := NewFilterEnvelope(f, Envelope{MinX: 0, MinY: 10, MaxX: 5, MaxY: 20})
	assert.True(t, d.IntersectsFilter(hit, w.buf))
	assert.False(t, d.IntersectsFilter(missX, w.buf))
	assert.False(t, d.IntersectsFilter(missY, w.buf))
}

func TestIntersectsFilterEmptyPoint(t *testing.T) {
	f := testField()
	d := NewDecoder(f)
	w := newShapeWriter(f).varUint(ShapePoint).varUint(0).varUint(0)

	any := NewFilterEnvelope(f, Envelope{MinX: -1e6, MinY: -1e6, MaxX: 1e6, MaxY: 1e6})
	assert.False(t, d.IntersectsFilter(any, w.buf))
}

func TestIntersectsFilterConservativeOnErrors(t *testing.T) {
	f := testField()
	d := NewDecoder(f)
	any := NewFilterEnvelope(f, Envelope{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1})

	assert.True(t, d.IntersectsFilter(any, []byte{0x80}))
	assert.True(t, d.IntersectsFilter(any, []byte{ShapeNull}))
}
