// Package deconflict implements the strategic deconfliction engine: it
// decides whether time-bounded 3D flight trajectories ever come closer than
// a safety buffer while active simultaneously, and condenses the sampled
// violations into a small set of representative conflicts.
//
// The engine is a pure, synchronous computation. Missions are immutable
// after validation, so pairwise checks share no mutable state and may run
// on parallel workers; aggregation is a single collect-and-sort step so the
// output is independent of scheduling.
package deconflict

import (
	"fmt"
	"sort"

	"github.com/Megha-ldce/uav-deconfliction/internal/geom"
)

// Mission is a validated, immutable flight plan: an ordered waypoint
// sequence flown at constant ground speed across a fixed time window.
// Arrival times are allocated by cumulative path distance, not waypoint
// index, so the interpolated motion is piecewise-linear at constant speed.
//
// Construct missions only through NewMission; the zero value is not usable.
type Mission struct {
	droneID   string
	waypoints []geom.Waypoint
	startTime float64
	endTime   float64
	speed     float64

	// Derived state, cached at construction.
	cumLength []float64 // cumulative path length at each waypoint
	totalDist float64
	arrival   []float64 // arrival time at each waypoint
}

// NewMission validates and builds a Mission. It fails with an error wrapping
// ErrInvalidMission on fewer than two waypoints, a non-positive duration or
// speed, or an empty drone ID. Consecutive waypoints may coincide; a mission
// whose waypoints all coincide is a valid hover and reports a constant
// position for its whole window.
func NewMission(droneID string, waypoints []geom.Waypoint, startTime, endTime, speed float64) (*Mission, error) {
	if droneID == "" {
		return nil, fmt.Errorf("%w: drone id must not be empty", ErrInvalidMission)
	}
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 waypoints, got %d", ErrInvalidMission, len(waypoints))
	}
	if endTime <= startTime {
		return nil, fmt.Errorf("%w: end time %v must be after start time %v", ErrInvalidMission, endTime, startTime)
	}
	if speed <= 0 {
		return nil, fmt.Errorf("%w: speed must be positive, got %v", ErrInvalidMission, speed)
	}

	m := &Mission{
		droneID:   droneID,
		waypoints: append([]geom.Waypoint(nil), waypoints...),
		startTime: startTime,
		endTime:   endTime,
		speed:     speed,
	}

	m.cumLength = make([]float64, len(m.waypoints))
	for i := 1; i < len(m.waypoints); i++ {
		m.cumLength[i] = m.cumLength[i-1] + m.waypoints[i-1].DistanceTo(m.waypoints[i])
	}
	m.totalDist = m.cumLength[len(m.cumLength)-1]

	// Arrival time at waypoint i is proportional to the path distance
	// covered so far. A zero-length path (hover) pins every arrival to the
	// start of the window.
	duration := endTime - startTime
	m.arrival = make([]float64, len(m.waypoints))
	for i := range m.arrival {
		if m.totalDist == 0 {
			m.arrival[i] = startTime
		} else {
			m.arrival[i] = startTime + duration*(m.cumLength[i]/m.totalDist)
		}
	}
	// Pin the final arrival exactly to the window end so boundary queries
	// are not at the mercy of floating-point rounding.
	if m.totalDist > 0 {
		m.arrival[len(m.arrival)-1] = endTime
	}

	return m, nil
}

// DroneID returns the mission's drone identifier.
func (m *Mission) DroneID() string { return m.droneID }

// StartTime returns the beginning of the active window.
func (m *Mission) StartTime() float64 { return m.startTime }

// EndTime returns the end of the active window.
func (m *Mission) EndTime() float64 { return m.endTime }

// Speed returns the nominal ground speed.
func (m *Mission) Speed() float64 { return m.speed }

// Duration returns the length of the active window.
func (m *Mission) Duration() float64 { return m.endTime - m.startTime }

// TotalDistance returns the total path length over all segments.
func (m *Mission) TotalDistance() float64 { return m.totalDist }

// Waypoints returns a copy of the waypoint sequence.
func (m *Mission) Waypoints() []geom.Waypoint {
	return append([]geom.Waypoint(nil), m.waypoints...)
}

// NumWaypoints returns the number of waypoints.
func (m *Mission) NumWaypoints() int { return len(m.waypoints) }

// PositionAt returns the interpolated position at time t. Queries outside
// [StartTime, EndTime] fail with ErrOutOfWindow; there is no silent
// clamping, callers must restrict t to the window computed upstream.
// The result is continuous in t and reproduces each waypoint exactly at its
// arrival time.
func (m *Mission) PositionAt(t float64) (geom.Waypoint, error) {
	if t < m.startTime || t > m.endTime {
		return geom.Waypoint{}, fmt.Errorf("%w: t=%v not in [%v, %v] for %s",
			ErrOutOfWindow, t, m.startTime, m.endTime, m.droneID)
	}
	if m.totalDist == 0 {
		// Hover: every waypoint coincides.
		return m.waypoints[0], nil
	}

	// First waypoint whose arrival time is >= t.
	i := sort.SearchFloat64s(m.arrival, t)
	if i < len(m.arrival) && m.arrival[i] == t {
		return m.waypoints[i], nil
	}
	// t lies strictly inside segment (i-1, i).
	prev, next := i-1, i
	span := m.arrival[next] - m.arrival[prev]
	f := 0.0
	if span > 0 {
		f = (t - m.arrival[prev]) / span
	}
	return m.waypoints[prev].Lerp(m.waypoints[next], f), nil
}

// TimedPosition is a trajectory sample: a position at an instant.
type TimedPosition struct {
	Time     float64       `json:"time"`
	Position geom.Waypoint `json:"position"`
}

// Samples returns n+1 evenly spaced trajectory samples spanning the active
// window, endpoints included. Used by reporting and visualisation layers;
// the detector does its own sampling over the pairwise overlap window.
func (m *Mission) Samples(n int) []TimedPosition {
	if n < 1 {
		n = 1
	}
	step := m.Duration() / float64(n)
	out := make([]TimedPosition, 0, n+1)
	for i := 0; i <= n; i++ {
		t := m.startTime + float64(i)*step
		if i == n {
			t = m.endTime
		}
		pos, err := m.PositionAt(t)
		if err != nil {
			// Unreachable: t is inside the window by construction.
			continue
		}
		out = append(out, TimedPosition{Time: t, Position: pos})
	}
	return out
}

func (m *Mission) String() string {
	return fmt.Sprintf("Mission(%s: %d waypoints, t=[%.1f, %.1f], %.1fm)",
		m.droneID, len(m.waypoints), m.startTime, m.endTime, m.totalDist)
}
