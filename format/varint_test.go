package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaruintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 0x7F, 0x80, 0x3FFF, 0x4000, 1<<21 - 1, 1 << 21, 123456789, math.MaxUint32, math.MaxUint64}
	for _, want := range cases {
		enc := AppendVaruint(nil, want)
		got, n, err := Varuint(enc)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, len(enc), n)
	}
}

func TestVaruintMinimalEncoding(t *testing.T) {
	assert.Len(t, AppendVaruint(nil, 0), 1)
	assert.Len(t, AppendVaruint(nil, 0x7F), 1)
	assert.Len(t, AppendVaruint(nil, 0x80), 2)
	assert.Len(t, AppendVaruint(nil, 0x3FFF), 2)
	assert.Len(t, AppendVaruint(nil, 0x4000), 3)
	assert.Len(t, AppendVaruint(nil, math.MaxUint64), 10)
}

func TestVaruintTruncated(t *testing.T) {
	enc := AppendVaruint(nil, 1234567)
	for i := 0; i < len(enc); i++ {
		_, _, err := Varuint(enc[:i])
		assert.ErrorIs(t, err, ErrShortRead, "prefix of %d bytes", i)
	}
}

func TestVaruintOverflow(t *testing.T) {
	// Eleven continuation bytes cannot fit in 64 bits.
	b := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}
	_, _, err := Varuint(b)
	assert.ErrorIs(t, err, ErrVarintTooLong)
}

func TestVarintDeltaRoundTrip(t *testing.T) {
	deltas := []int64{0, 1, -1, 0x3F, -0x3F, 0x40, -0x40, 8191, -8192, 1 << 20, -(1 << 20), math.MaxInt32, math.MinInt32}
	acc := int64(0)
	var stream []byte
	for _, d := range deltas {
		stream = AppendVarintDelta(stream, d)
	}
	pos := 0
	want := int64(0)
	for _, d := range deltas {
		want += d
		v, n, err := VarintDelta(stream[pos:], acc)
		require.NoError(t, err)
		assert.Equal(t, want, v)
		pos += n
		acc = v
	}
	assert.Equal(t, len(stream), pos)
}

func TestVarintDeltaSignBit(t *testing.T) {
	// -5 fits in the first byte: sign bit plus magnitude.
	enc := AppendVarintDelta(nil, -5)
	require.Equal(t, []byte{0x45}, enc)
	v, n, err := VarintDelta(enc, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(95), v)
	assert.Equal(t, 1, n)
}

func TestVarintDeltaTruncated(t *testing.T) {
	enc := AppendVarintDelta(nil, 1<<30)
	_, _, err := VarintDelta(enc[:1], 0)
	assert.ErrorIs(t, err, ErrShortRead)
	_, _, err = VarintDelta(nil, 0)
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestSkipVaruint(t *testing.T) {
	enc := AppendVaruint(nil, 1<<40)
	enc = append(enc, 0xAB)
	n, err := SkipVaruint(enc)
	require.NoError(t, err)
	assert.Equal(t, len(enc)-1, n)

	_, err = SkipVaruint([]byte{0x80, 0x80})
	assert.ErrorIs(t, err, ErrShortRead)
}
