package column

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloat32RoundTripNoNulls(t *testing.T) {
	w := NewFloat32Writer(false, 3)
	w.Append(1.0, true)
	w.Append(2.0, true)
	w.Append(3.0, true)
	buf := w.Build()

	col, err := ParseFloat32Column(buf, false)
	require.NoError(t, err)
	require.Equal(t, 3, col.NumValues())
	require.False(t, col.HasNulls())
	require.Equal(t, float32(1.0), col.ValueAt(0))
	require.Equal(t, float32(2.0), col.ValueAt(1))
	require.Equal(t, float32(3.0), col.ValueAt(2))
	for i := 0; i < 3; i++ {
		require.True(t, col.IsValid(i))
	}
}

func TestFloat32NonNullableEmitsNoBitmap(t *testing.T) {
	w := NewFloat32Writer(false, 2)
	w.Append(1.0, true)
	w.Append(2.0, true)
	buf := w.Build()

	col, err := ParseFloat32Column(buf, false)
	require.NoError(t, err)
	require.False(t, col.hasBitmap)
}

func TestFloat32DenseNullableEmitsNoBitmap(t *testing.T) {
	w := NewFloat32Writer(true, 2)
	w.Append(1.0, true)
	w.Append(2.0, true)
	buf := w.Build()

	col, err := ParseFloat32Column(buf, true)
	require.NoError(t, err)
	require.False(t, col.hasBitmap)
	require.False(t, col.HasNulls())
}

func TestFloat32WithNulls(t *testing.T) {
	w := NewFloat32Writer(true, 3)
	w.Append(1.0, true)
	w.Append(0, false)
	w.Append(3.0, true)
	buf := w.Build()

	col, err := ParseFloat32Column(buf, true)
	require.NoError(t, err)
	require.True(t, col.hasBitmap)
	require.True(t, col.HasNulls())
	require.True(t, col.IsValid(0))
	require.False(t, col.IsValid(1))
	require.True(t, col.IsValid(2))
	require.Equal(t, float32(1.0), col.ValueAt(0))
	require.Equal(t, float32(3.0), col.ValueAt(2))
}

func TestFloat32NullAfterManyValidRetroactivelyMarksValid(t *testing.T) {
	w := NewFloat32Writer(true, 70)
	for i := 0; i < 65; i++ {
		w.Append(float32(i), true)
	}
	w.Append(0, false) // first null, forces retroactive bitmap allocation
	buf := w.Build()

	col, err := ParseFloat32Column(buf, true)
	require.NoError(t, err)
	for i := 0; i < 65; i++ {
		require.True(t, col.IsValid(i), "row %d should have been retroactively marked valid", i)
	}
	require.False(t, col.IsValid(65))
}
