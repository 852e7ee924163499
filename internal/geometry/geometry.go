package geometry

import (
	"errors"
	"math"
)

// ErrDegenerate is returned when input points coincide and the
// requested quantity is undefined.
var ErrDegenerate = errors.New("degenerate geometry")

// Point is a 2-D position in the core's coordinate convention:
// x grows rightward, y grows upward.
type Point struct {
	X float64
	Y float64
}

// Angle returns the angle at vertex b formed by the rays b->a and
// b->c, in degrees within [0, 180]. Coincident points make the angle
// undefined and return ErrDegenerate.
func Angle(a, b, c Point) (float64, error) {
	ux, uy := a.X-b.X, a.Y-b.Y
	vx, vy := c.X-b.X, c.Y-b.Y
	nu := math.Hypot(ux, uy)
	nv := math.Hypot(vx, vy)
	if nu == 0 || nv == 0 {
		return 0, ErrDegenerate
	}

	cos := (ux*vx + uy*vy) / (nu * nv)
	// Clamp float drift before acos so near-straight rays don't go NaN
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi, nil
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// VerticalOffset returns a.Y - b.Y: positive when a sits above b.
func VerticalOffset(a, b Point) float64 {
	return a.Y - b.Y
}

// HorizontalOffset returns a.X - b.X: positive when a sits to the
// right of b.
func HorizontalOffset(a, b Point) float64 {
	return a.X - b.X
}

// TiltDegrees returns how far the segment p-q deviates from
// horizontal, in degrees within [0, 90]. Coincident points return
// ErrDegenerate.
func TiltDegrees(p, q Point) (float64, error) {
	dx := math.Abs(p.X - q.X)
	dy := math.Abs(p.Y - q.Y)
	if dx == 0 && dy == 0 {
		return 0, ErrDegenerate
	}
	return math.Atan2(dy, dx) * 180 / math.Pi, nil
}

// IsLevel reports whether the segment p-q deviates from horizontal by
// no more than tolDeg degrees.
func IsLevel(p, q Point, tolDeg float64) (bool, error) {
	tilt, err := TiltDegrees(p, q)
	if err != nil {
		return false, err
	}
	return tilt <= tolDeg, nil
}

// PerpendicularDistance returns the distance from p to the infinite
// line through a and b. A zero-length line has no defined distance
// and returns ErrDegenerate.
func PerpendicularDistance(p, a, b Point) (float64, error) {
	dx, dy := b.X-a.X, b.Y-a.Y
	norm := math.Hypot(dx, dy)
	if norm == 0 {
		return 0, ErrDegenerate
	}
	// |cross(b-a, p-a)| / |b-a|
	return math.Abs(dx*(a.Y-p.Y)-dy*(a.X-p.X)) / norm, nil
}
