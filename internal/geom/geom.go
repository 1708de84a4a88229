// Package geom provides the 3D point primitives used by the deconfliction
// engine. Waypoints are plain value types; all vector arithmetic goes
// through gonum's r3 package.
package geom

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Waypoint is an immutable point in 3D mission space. Z is altitude and
// defaults to zero for planar missions. Waypoints have no identity beyond
// their coordinates.
type Waypoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// W constructs a Waypoint from coordinates.
func W(x, y, z float64) Waypoint {
	return Waypoint{X: x, Y: y, Z: z}
}

// Vec converts the waypoint to an r3 vector.
func (w Waypoint) Vec() r3.Vec {
	return r3.Vec{X: w.X, Y: w.Y, Z: w.Z}
}

// FromVec converts an r3 vector back to a Waypoint.
func FromVec(v r3.Vec) Waypoint {
	return Waypoint{X: v.X, Y: v.Y, Z: v.Z}
}

// DistanceTo returns the 3D Euclidean distance to another waypoint.
func (w Waypoint) DistanceTo(o Waypoint) float64 {
	return r3.Norm(r3.Sub(o.Vec(), w.Vec()))
}

// Lerp interpolates between w and o at fraction f, where f=0 yields w and
// f=1 yields o. f is not clamped; callers guarantee f in [0,1].
func (w Waypoint) Lerp(o Waypoint, f float64) Waypoint {
	return FromVec(r3.Add(w.Vec(), r3.Scale(f, r3.Sub(o.Vec(), w.Vec()))))
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Waypoint) Waypoint {
	return FromVec(r3.Scale(0.5, r3.Add(a.Vec(), b.Vec())))
}

func (w Waypoint) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", w.X, w.Y, w.Z)
}
