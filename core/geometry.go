package core

import "math"

// Vec3 is a point in instrument coordinates, metres: x east, y true north,
// z up from the base plane.
type Vec3 struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Line is a straight marking segment on an instrument surface.
type Line struct {
	Start Vec3
	End   Vec3
}

func radians(deg float64) float64 { return deg * math.Pi / 180.0 }

func degrees(rad float64) float64 { return rad * 180.0 / math.Pi }

// normalizeDegrees wraps an angle into [0, 360).
func normalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// azimuthSeparation returns the smallest angular distance between two
// bearings on the azimuth circle, in [0, 180].
func azimuthSeparation(a, b float64) float64 {
	return math.Abs(math.Mod(a-b+540, 360) - 180)
}

// roundTo rounds v to the given number of decimal places. Dimension maps
// use it so reported values are stable across platforms.
func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
