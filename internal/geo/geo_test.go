package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestHaversine_KnownDistance(t *testing.T) {
	// Helsinki -> Tampere, roughly 160 km
	d := Haversine(60.1699, 24.9384, 61.4991, 23.7871)
	assert.InDelta(t, 160, d, 5)
}

func TestHaversine_SamePoint(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(34.02, -118.28, 34.02, -118.28))
}

func TestDistance_MissingCoordinate(t *testing.T) {
	assert.Nil(t, Distance(nil, ptr(0), ptr(0), ptr(0)))
	assert.Nil(t, Distance(ptr(0), ptr(0), ptr(0), nil))

	d := Distance(ptr(0), ptr(0), ptr(0), ptr(1))
	require.NotNil(t, d)
	assert.InDelta(t, 111.19, *d, 0.1)
}

func TestBoxAround(t *testing.T) {
	b := BoxAround(10, 20, 0.001)

	assert.True(t, b.Contains(10, 20))
	assert.True(t, b.Contains(10.0009, 19.9991))
	assert.False(t, b.Contains(10.0011, 20))
	assert.False(t, b.Contains(10, 20.002))
}

func TestValidCoordinate(t *testing.T) {
	assert.True(t, ValidCoordinate(0, 0))
	assert.True(t, ValidCoordinate(-90, 180))
	assert.False(t, ValidCoordinate(90.1, 0))
	assert.False(t, ValidCoordinate(0, -180.5))
	assert.False(t, ValidCoordinate(math.NaN(), 0))
	assert.False(t, ValidCoordinate(0, math.Inf(1)))
}
