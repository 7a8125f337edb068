// Package geom holds the plane geometry the bots reason with.
//
// Angles are in degrees, measured the way the engine measures them: 0 points
// along +X and positive angles turn toward +Y.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Distance returns the Euclidean distance between a and b.
func Distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(b, a))
}

// AngleTo returns the heading in degrees from a to b.
func AngleTo(a, b r2.Vec) float64 {
	d := r2.Sub(b, a)
	return Degrees(math.Atan2(d.Y, d.X))
}

// Heading returns the angle of v in degrees.
func Heading(v r2.Vec) float64 {
	return Degrees(math.Atan2(v.Y, v.X))
}

// FromAngle returns the unit vector pointing at deg.
func FromAngle(deg float64) r2.Vec {
	rad := Radians(deg)
	return r2.Vec{X: math.Cos(rad), Y: math.Sin(rad)}
}

// Normalize scales v by 1/max(|v|, minMag). With minMag >= 1 the result never
// blows up for short or zero vectors.
func Normalize(v r2.Vec, minMag float64) r2.Vec {
	mag := math.Max(r2.Norm(v), minMag)
	if mag == 0 {
		return r2.Vec{}
	}
	return r2.Scale(1/mag, v)
}

// Perpendicular rotates v by +90 degrees.
func Perpendicular(v r2.Vec) r2.Vec {
	return r2.Vec{X: -v.Y, Y: v.X}
}

// Nearest returns the index of the target closest to origin and its distance.
// An empty slice yields -1 and +Inf. Ties keep the earliest target.
func Nearest[T any](origin r2.Vec, targets []T, pos func(T) r2.Vec) (int, float64) {
	best := -1
	bestDist := math.Inf(1)
	for i, t := range targets {
		d := Distance(origin, pos(t))
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best, bestDist
}

func Radians(deg float64) float64 { return deg * math.Pi / 180 }

func Degrees(rad float64) float64 { return rad * 180 / math.Pi }
