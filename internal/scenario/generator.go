// Package scenario builds mission test data: parameterised trajectory
// generators plus a set of named demonstration scenarios used by the CLI
// and the package tests.
package scenario

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/Megha-ldce/uav-deconfliction/internal/deconflict"
	"github.com/Megha-ldce/uav-deconfliction/internal/geom"
)

// DefaultSpeed is the nominal ground speed assigned to generated missions.
const DefaultSpeed = 10.0

// newDroneID returns id, or a generated unique drone ID when id is empty.
func newDroneID(id string) string {
	if id != "" {
		return id
	}
	return "drone-" + uuid.NewString()[:8]
}

// StraightLine builds a mission flying a straight path from start to end,
// discretised into n evenly spaced waypoints (n >= 2).
func StraightLine(droneID string, start, end geom.Waypoint, startTime, endTime float64, n int) (*deconflict.Mission, error) {
	if n < 2 {
		n = 2
	}
	waypoints := make([]geom.Waypoint, n)
	for i := 0; i < n; i++ {
		waypoints[i] = start.Lerp(end, float64(i)/float64(n-1))
	}
	return deconflict.NewMission(newDroneID(droneID), waypoints, startTime, endTime, DefaultSpeed)
}

// Circle builds a closed circular patrol of the given radius around center,
// discretised into n waypoints plus the closing repeat of the first.
func Circle(droneID string, center geom.Waypoint, radius, startTime, endTime float64, n int) (*deconflict.Mission, error) {
	if n < 3 {
		n = 3
	}
	waypoints := make([]geom.Waypoint, 0, n+1)
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		waypoints = append(waypoints, geom.W(
			center.X+radius*math.Cos(angle),
			center.Y+radius*math.Sin(angle),
			center.Z,
		))
	}
	waypoints = append(waypoints, waypoints[0])
	return deconflict.NewMission(newDroneID(droneID), waypoints, startTime, endTime, DefaultSpeed)
}

// Grid builds a lawnmower survey pattern over a width x height area
// starting at origin, alternating sweep direction per row.
func Grid(droneID string, origin geom.Waypoint, width, height float64, rows int, startTime, endTime float64) (*deconflict.Mission, error) {
	if rows < 1 {
		rows = 1
	}
	waypoints := make([]geom.Waypoint, 0, 2*rows)
	for row := 0; row < rows; row++ {
		y := origin.Y
		if rows > 1 {
			y += float64(row) * height / float64(rows-1)
		}
		if row%2 == 0 {
			waypoints = append(waypoints,
				geom.W(origin.X, y, origin.Z),
				geom.W(origin.X+width, y, origin.Z))
		} else {
			waypoints = append(waypoints,
				geom.W(origin.X+width, y, origin.Z),
				geom.W(origin.X, y, origin.Z))
		}
	}
	return deconflict.NewMission(newDroneID(droneID), waypoints, startTime, endTime, DefaultSpeed)
}

// Hover builds a stationary mission holding at a single point.
func Hover(droneID string, at geom.Waypoint, startTime, endTime float64) (*deconflict.Mission, error) {
	return deconflict.NewMission(newDroneID(droneID), []geom.Waypoint{at, at}, startTime, endTime, DefaultSpeed)
}

// Bounds describes the axis-aligned box random waypoints are drawn from.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
	ZMin, ZMax float64
}

// Random builds a mission of n uniformly random waypoints inside bounds,
// reproducible for a given seed.
func Random(droneID string, bounds Bounds, n int, startTime, endTime float64, seed int64) (*deconflict.Mission, error) {
	if n < 2 {
		n = 2
	}
	rng := rand.New(rand.NewSource(seed))
	waypoints := make([]geom.Waypoint, n)
	for i := range waypoints {
		z := 0.0
		if bounds.ZMax > bounds.ZMin {
			z = bounds.ZMin + rng.Float64()*(bounds.ZMax-bounds.ZMin)
		}
		waypoints[i] = geom.W(
			bounds.XMin+rng.Float64()*(bounds.XMax-bounds.XMin),
			bounds.YMin+rng.Float64()*(bounds.YMax-bounds.YMin),
			z,
		)
	}
	return deconflict.NewMission(newDroneID(droneID), waypoints, startTime, endTime, DefaultSpeed)
}

// Scenario is a named demonstration setup: one candidate mission checked
// against a set of registered missions.
type Scenario struct {
	Name    string
	Primary *deconflict.Mission
	Others  []*deconflict.Mission
}

// Missions returns the primary followed by the other missions.
func (s *Scenario) Missions() []*deconflict.Mission {
	return append([]*deconflict.Mission{s.Primary}, s.Others...)
}

type builder func() (*Scenario, error)

// NoConflict is a clear airspace: parallel traffic well outside the buffer
// and a distant patrol circle.
func NoConflict() (*Scenario, error) {
	primary, err := StraightLine("primary", geom.W(0, 0, 50), geom.W(100, 0, 50), 0, 20, 5)
	if err != nil {
		return nil, err
	}
	other1, err := StraightLine("drone_1", geom.W(0, 100, 50), geom.W(100, 100, 50), 0, 20, 5)
	if err != nil {
		return nil, err
	}
	other2, err := Circle("drone_2", geom.W(200, 200, 75), 50, 5, 25, 12)
	if err != nil {
		return nil, err
	}
	return &Scenario{Name: "no_conflict", Primary: primary, Others: []*deconflict.Mission{other1, other2}}, nil
}

// SpatialConflict crosses the primary's path at the shared midpoint.
func SpatialConflict() (*Scenario, error) {
	primary, err := StraightLine("primary", geom.W(0, 0, 50), geom.W(100, 100, 50), 0, 20, 5)
	if err != nil {
		return nil, err
	}
	other1, err := StraightLine("drone_1", geom.W(0, 100, 50), geom.W(100, 0, 50), 0, 20, 5)
	if err != nil {
		return nil, err
	}
	other2, err := Circle("drone_2", geom.W(200, 200, 75), 30, 5, 25, 12)
	if err != nil {
		return nil, err
	}
	return &Scenario{Name: "spatial_conflict", Primary: primary, Others: []*deconflict.Mission{other1, other2}}, nil
}

// TemporalConflict reuses the primary's path at a later, disjoint window
// (safe) and adds an overlapping skew path (conflicting).
func TemporalConflict() (*Scenario, error) {
	primary, err := StraightLine("primary", geom.W(0, 0, 50), geom.W(100, 0, 50), 0, 15, 5)
	if err != nil {
		return nil, err
	}
	other1, err := StraightLine("drone_1", geom.W(0, 0, 50), geom.W(100, 0, 50), 20, 35, 5)
	if err != nil {
		return nil, err
	}
	other2, err := StraightLine("drone_2", geom.W(10, -10, 50), geom.W(90, 10, 50), 5, 25, 5)
	if err != nil {
		return nil, err
	}
	return &Scenario{Name: "temporal_conflict", Primary: primary, Others: []*deconflict.Mission{other1, other2}}, nil
}

// AltitudeConflict stacks traffic vertically: one lane comfortably above
// the buffer, one too close.
func AltitudeConflict() (*Scenario, error) {
	primary, err := StraightLine("primary", geom.W(0, 0, 50), geom.W(100, 0, 50), 0, 20, 5)
	if err != nil {
		return nil, err
	}
	other1, err := StraightLine("drone_1", geom.W(0, 0, 150), geom.W(100, 0, 150), 0, 20, 5)
	if err != nil {
		return nil, err
	}
	other2, err := StraightLine("drone_2", geom.W(0, 0, 60), geom.W(100, 0, 60), 0, 20, 5)
	if err != nil {
		return nil, err
	}
	return &Scenario{Name: "altitude_conflict", Primary: primary, Others: []*deconflict.Mission{other1, other2}}, nil
}

// ComplexMultiDrone mixes a grid survey with circular, straight and seeded
// random traffic in the same block of airspace.
func ComplexMultiDrone() (*Scenario, error) {
	primary, err := Grid("primary", geom.W(0, 0, 50), 100, 100, 5, 0, 60)
	if err != nil {
		return nil, err
	}
	other1, err := Circle("drone_1", geom.W(50, 50, 50), 40, 10, 40, 12)
	if err != nil {
		return nil, err
	}
	other2, err := StraightLine("drone_2", geom.W(0, 50, 50), geom.W(100, 50, 50), 20, 40, 5)
	if err != nil {
		return nil, err
	}
	other3, err := Random("drone_3", Bounds{XMin: 0, XMax: 100, YMin: 0, YMax: 100, ZMin: 40, ZMax: 60}, 8, 5, 55, 42)
	if err != nil {
		return nil, err
	}
	return &Scenario{
		Name:    "complex_multi_drone",
		Primary: primary,
		Others:  []*deconflict.Mission{other1, other2, other3},
	}, nil
}

var registry = []struct {
	name  string
	build builder
}{
	{"no_conflict", NoConflict},
	{"spatial_conflict", SpatialConflict},
	{"temporal_conflict", TemporalConflict},
	{"altitude_conflict", AltitudeConflict},
	{"complex_multi_drone", ComplexMultiDrone},
}

// Names lists the available scenario names in demo order.
func Names() []string {
	names := make([]string, len(registry))
	for i, entry := range registry {
		names[i] = entry.name
	}
	return names
}

// ByName builds the named scenario.
func ByName(name string) (*Scenario, error) {
	for _, entry := range registry {
		if entry.name == name {
			return entry.build()
		}
	}
	return nil, fmt.Errorf("unknown scenario %q (available: %v)", name, Names())
}

// All builds every demonstration scenario in demo order.
func All() ([]*Scenario, error) {
	scenarios := make([]*Scenario, 0, len(registry))
	for _, entry := range registry {
		s, err := entry.build()
		if err != nil {
			return nil, fmt.Errorf("building scenario %s: %w", entry.name, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
