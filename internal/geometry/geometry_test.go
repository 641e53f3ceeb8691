package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceAndLength(t *testing.T) {
	assert.InDelta(t, 5.0, Distance(Point{0, 0}, Point{3, 4}), 1e-9)

	path := []Point{{0, 0}, {100, 0}, {100, 50}}
	assert.InDelta(t, 150.0, PathLength(path), 1e-9)
	assert.Equal(t, 0.0, PathLength(path[:1]))
	assert.Equal(t, 0.0, PathLength(nil))
}

func TestPointAtProgress(t *testing.T) {
	path := []Point{{0, 0}, {100, 0}, {100, 100}}

	tests := []struct {
		progress float64
		want     Point
	}{
		{0.0, Point{0, 0}},
		{0.25, Point{50, 0}},
		{0.5, Point{100, 0}},
		{0.75, Point{100, 50}},
		{1.0, Point{100, 100}},
		{1.5, Point{100, 100}}, // clamped
		{-0.2, Point{0, 0}},    // clamped
	}

	for _, tt := range tests {
		got, ok := PointAtProgress(path, tt.progress)
		require.True(t, ok)
		assert.InDelta(t, tt.want.X, got.X, 1e-9, "x at %.2f", tt.progress)
		assert.InDelta(t, tt.want.Y, got.Y, 1e-9, "y at %.2f", tt.progress)
	}
}

func TestPointAtDistanceDegenerate(t *testing.T) {
	_, ok := PointAtDistance([]Point{{1, 1}}, 10)
	assert.False(t, ok)

	// zero-length polyline must not produce NaN
	p, ok := PointAtProgress([]Point{{7, 7}, {7, 7}}, 0.5)
	require.True(t, ok)
	assert.False(t, math.IsNaN(p.X))
	assert.Equal(t, Point{7, 7}, p)

	// repeated vertex in the middle is skipped
	p, ok = PointAtProgress([]Point{{0, 0}, {10, 0}, {10, 0}, {20, 0}}, 0.75)
	require.True(t, ok)
	assert.InDelta(t, 15.0, p.X, 1e-9)
}

func TestNearest(t *testing.T) {
	candidates := []Point{{0, 0}, {30, 0}, {12, 0}}

	idx, ok := Nearest(Point{10, 0}, candidates, 20)
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = Nearest(Point{500, 500}, candidates, 20)
	assert.False(t, ok)
}

func TestBoundsAndSnap(t *testing.T) {
	b := Bounds([]Point{{10, 20}, {-5, 40}, {30, 0}})
	assert.Equal(t, Point{-5, 0}, b.Min)
	assert.Equal(t, Point{30, 40}, b.Max)
	assert.Equal(t, 35.0, b.Width)
	assert.Equal(t, 40.0, b.Height)

	assert.Equal(t, Box{}, Bounds(nil))
	assert.Equal(t, Point{20, 40}, SnapToGrid(Point{21, 38}, 10))
	assert.Equal(t, Point{21, 38}, SnapToGrid(Point{21, 38}, 0))
}

func TestRoundAndNormalize(t *testing.T) {
	assert.Equal(t, Point{X: 12.3, Y: -4.6}, Round(Point{X: 12.3449, Y: -4.5501}))

	size := Size{Width: 200, Height: 100}
	n := Normalize(Point{50, 50}, size)
	assert.Equal(t, Point{0.25, 0.5}, n)
	assert.Equal(t, Point{50, 50}, Denormalize(n, size))
	assert.Equal(t, Point{}, Normalize(Point{1, 1}, Size{}))
}
