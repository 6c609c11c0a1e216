package dynamo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Distance returns the Euclidean distance between a and b. Coincident
// points yield ErrCollision rather than a zero the caller would divide by.
func Distance(a, b r2.Vec) (float64, error) {
	d := r2.Norm(r2.Sub(b, a))
	if d == 0 {
		return 0, ErrCollision
	}
	return d, nil
}

// DirectionAngle is the quadrant-preserving angle of (dx, dy).
func DirectionAngle(dx, dy float64) float64 {
	return math.Atan2(dy, dx)
}

// Decompose splits a scalar magnitude f along the direction theta.
func Decompose(f, theta float64) r2.Vec {
	sin, cos := math.Sincos(theta)
	return r2.Vec{X: cos * f, Y: sin * f}
}

// IsFinite reports whether both components are neither NaN nor Inf.
func IsFinite(v r2.Vec) bool {
	for _, c := range [2]float64{v.X, v.Y} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
