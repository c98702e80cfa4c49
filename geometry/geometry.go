// Package geometry holds the pixel-space math used to lay out hex boards.
package geometry

import (
	"math"
)

// DefaultEpsilon is the tolerance used when matching independently computed points.
const DefaultEpsilon = 0.01

// Coordinates is a point in pixel space.
type Coordinates struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Round rounds value to dp decimal places, halves rounding towards +Inf.
func Round(value float64, dp int) float64 {
	scale := math.Pow(10, float64(dp))
	return math.Floor(value*scale+0.5) / scale
}

// AreFloatsEqual reports whether a and b differ by less than epsilon.
func AreFloatsEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// AreCoordinatesEqual compares two points with DefaultEpsilon on each axis.
func AreCoordinatesEqual(p1, p2 Coordinates) bool {
	return AreFloatsEqual(p1.X, p2.X, DefaultEpsilon) && AreFloatsEqual(p1.Y, p2.Y, DefaultEpsilon)
}

// Angle returns the angle in degrees of the vector p1->p2.
func Angle(p1, p2 Coordinates) float64 {
	return math.Atan2(p2.Y-p1.Y, p2.X-p1.X) * 180 / math.Pi
}

// Distance returns the euclidean distance between p1 and p2.
func Distance(p1, p2 Coordinates) float64 {
	return math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
}

// Endpoint returns the point at angle (degrees) and distance from origin,
// rounded to 3 decimal places.
func Endpoint(origin Coordinates, angle, distance float64) Coordinates {
	radians := angle * math.Pi / 180
	return Coordinates{
		X: Round(origin.X+distance*math.Cos(radians), 3),
		Y: Round(origin.Y+distance*math.Sin(radians), 3),
	}
}
