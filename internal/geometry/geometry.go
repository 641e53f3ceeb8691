package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Point is a 2D coordinate in image pixel space
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Box is an axis-aligned bounding box
type Box struct {
	Min    Point
	Max    Point
	Width  float64
	Height float64
}

// Size is the extent of the container a point is normalized against
type Size struct {
	Width  float64
	Height float64
}

func (p Point) orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

func lineString(points []Point) orb.LineString {
	ls := make(orb.LineString, len(points))
	for i, p := range points {
		ls[i] = p.orb()
	}
	return ls
}

// Distance returns the euclidean distance between two points
func Distance(a, b Point) float64 {
	return planar.Distance(a.orb(), b.orb())
}

// PathLength returns the summed length of a polyline
func PathLength(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}
	return planar.Length(lineString(points))
}

// Lerp performs linear interpolation between a and b
func Lerp(a, b Point, t float64) Point {
	return Point{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}

// PointAtDistance walks the polyline and returns the point located at the
// given distance from its first vertex. Distances past the end clamp to the
// last vertex.
func PointAtDistance(points []Point, distance float64) (Point, bool) {
	if len(points) < 2 {
		return Point{}, false
	}
	if distance <= 0 {
		return points[0], true
	}

	travelled := 0.0
	for i := 1; i < len(points); i++ {
		segment := Distance(points[i-1], points[i])
		if segment > 0 && travelled+segment >= distance {
			t := (distance - travelled) / segment
			return Lerp(points[i-1], points[i], t), true
		}
		travelled += segment
	}

	return points[len(points)-1], true
}

// PointAtProgress returns the point at fraction t in [0,1] of the polyline length
func PointAtProgress(points []Point, t float64) (Point, bool) {
	if len(points) < 2 {
		return Point{}, false
	}
	t = Clamp(t, 0, 1)
	if t == 1 {
		return points[len(points)-1], true
	}
	return PointAtDistance(points, PathLength(points)*t)
}

// IsNear reports whether two points are within threshold of each other
func IsNear(a, b Point, threshold float64) bool {
	return Distance(a, b) <= threshold
}

// Nearest returns the index of the candidate closest to p and strictly
// closer than maxDistance.
func Nearest(p Point, candidates []Point, maxDistance float64) (int, bool) {
	best := -1
	bestDistance := maxDistance
	for i, c := range candidates {
		d := Distance(p, c)
		if d < bestDistance {
			bestDistance = d
			best = i
		}
	}
	return best, best >= 0
}

// SnapToGrid rounds a point to the nearest multiple of gridSize
func SnapToGrid(p Point, gridSize float64) Point {
	if gridSize <= 0 {
		return p
	}
	return Point{
		X: math.Round(p.X/gridSize) * gridSize,
		Y: math.Round(p.Y/gridSize) * gridSize,
	}
}

// Bounds returns the bounding box of the points; empty input yields a zero box
func Bounds(points []Point) Box {
	if len(points) == 0 {
		return Box{}
	}
	b := lineString(points).Bound()
	return Box{
		Min:    Point{X: b.Min.X(), Y: b.Min.Y()},
		Max:    Point{X: b.Max.X(), Y: b.Max.Y()},
		Width:  b.Max.X() - b.Min.X(),
		Height: b.Max.Y() - b.Min.Y(),
	}
}

// Normalize maps a pixel point into [0,1] container space
func Normalize(p Point, size Size) Point {
	if size.Width == 0 || size.Height == 0 {
		return Point{}
	}
	return Point{X: p.X / size.Width, Y: p.Y / size.Height}
}

// Denormalize maps a [0,1] container point back to pixels
func Denormalize(p Point, size Size) Point {
	return Point{X: p.X * size.Width, Y: p.Y * size.Height}
}

// Round rounds both coordinates to one decimal place.
// Suppresses jitter from float accumulation between animation frames.
func Round(p Point) Point {
	return Point{
		X: math.Round(p.X*10) / 10,
		Y: math.Round(p.Y*10) / 10,
	}
}

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
