package deconflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Megha-ldce/uav-deconfliction/internal/geom"
)

func mustMission(t *testing.T, id string, wps []geom.Waypoint, start, end float64) *Mission {
	t.Helper()
	m, err := NewMission(id, wps, start, end, 10)
	require.NoError(t, err)
	return m
}

func TestNewMissionValidation(t *testing.T) {
	line := []geom.Waypoint{geom.W(0, 0, 0), geom.W(100, 0, 0)}

	tests := []struct {
		name      string
		droneID   string
		waypoints []geom.Waypoint
		start     float64
		end       float64
		speed     float64
	}{
		{"empty drone id", "", line, 0, 10, 10},
		{"single waypoint", "d1", line[:1], 0, 10, 10},
		{"no waypoints", "d1", nil, 0, 10, 10},
		{"zero duration", "d1", line, 10, 10, 10},
		{"negative duration", "d1", line, 20, 10, 10},
		{"zero speed", "d1", line, 0, 10, 0},
		{"negative speed", "d1", line, 0, 10, -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMission(tt.droneID, tt.waypoints, tt.start, tt.end, tt.speed)
			require.ErrorIs(t, err, ErrInvalidMission)
		})
	}

	m, err := NewMission("d1", line, 0, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, "d1", m.DroneID())
	assert.Equal(t, 100.0, m.TotalDistance())
}

func TestPositionAtOutsideWindow(t *testing.T) {
	m := mustMission(t, "d1", []geom.Waypoint{geom.W(0, 0, 0), geom.W(100, 0, 0)}, 10, 30)

	_, err := m.PositionAt(9.999)
	assert.ErrorIs(t, err, ErrOutOfWindow)
	_, err = m.PositionAt(30.001)
	assert.ErrorIs(t, err, ErrOutOfWindow)

	// Boundary instants are inside the window.
	for _, tq := range []float64{10, 30} {
		_, err := m.PositionAt(tq)
		assert.NoError(t, err, "t=%v", tq)
	}
}

func TestPositionAtDistanceProportional(t *testing.T) {
	// Two segments of unequal length: 30 units then 40 units over a 70s
	// window. Arrival times follow distance, not waypoint index.
	m := mustMission(t, "d1", []geom.Waypoint{
		geom.W(0, 0, 0),
		geom.W(30, 0, 0),
		geom.W(30, 40, 0),
	}, 0, 70)

	// Each waypoint is reproduced exactly at its arrival time.
	p, err := m.PositionAt(0)
	require.NoError(t, err)
	assert.Equal(t, geom.W(0, 0, 0), p)

	p, err = m.PositionAt(30)
	require.NoError(t, err)
	assert.InDelta(t, 30, p.X, 1e-9)
	assert.InDelta(t, 0, p.Y, 1e-9)

	p, err = m.PositionAt(70)
	require.NoError(t, err)
	assert.Equal(t, geom.W(30, 40, 0), p)

	// Mid-segment interpolation at constant ground speed (1 unit/s here).
	p, err = m.PositionAt(15)
	require.NoError(t, err)
	assert.InDelta(t, 15, p.X, 1e-9)

	p, err = m.PositionAt(50)
	require.NoError(t, err)
	assert.InDelta(t, 30, p.X, 1e-9)
	assert.InDelta(t, 20, p.Y, 1e-9)
}

func TestPositionAtHover(t *testing.T) {
	// A duplicated waypoint is a valid hover: zero path length, constant
	// position across the whole window.
	hover := mustMission(t, "hover", []geom.Waypoint{geom.W(50, 60, 70), geom.W(50, 60, 70)}, 0, 100)
	assert.Equal(t, 0.0, hover.TotalDistance())

	for _, tq := range []float64{0, 0.5, 42, 100} {
		p, err := hover.PositionAt(tq)
		require.NoError(t, err)
		assert.Equal(t, geom.W(50, 60, 70), p, "t=%v", tq)
	}
}

func TestPositionAtZeroLengthSegment(t *testing.T) {
	// A coincident consecutive pair must not break interpolation on either
	// side of it.
	m := mustMission(t, "d1", []geom.Waypoint{
		geom.W(0, 0, 0),
		geom.W(50, 0, 0),
		geom.W(50, 0, 0),
		geom.W(100, 0, 0),
	}, 0, 10)

	p, err := m.PositionAt(5)
	require.NoError(t, err)
	assert.InDelta(t, 50, p.X, 1e-9)

	p, err = m.PositionAt(7.5)
	require.NoError(t, err)
	assert.InDelta(t, 75, p.X, 1e-9)
}

func TestPositionAtContinuity(t *testing.T) {
	m := mustMission(t, "d1", []geom.Waypoint{
		geom.W(0, 0, 10),
		geom.W(20, 50, 30),
		geom.W(-40, 10, 60),
	}, 5, 25)

	// Successive positions at a fine step should never jump further than
	// the distance the drone can cover in that step.
	maxStep := m.TotalDistance() / m.Duration() * 0.01001
	prev, err := m.PositionAt(5)
	require.NoError(t, err)
	for tq := 5.01; tq <= 25; tq += 0.01 {
		p, err := m.PositionAt(tq)
		require.NoError(t, err)
		assert.LessOrEqual(t, prev.DistanceTo(p), maxStep, "discontinuity at t=%v", tq)
		prev = p
	}
}

func TestMissionImmutability(t *testing.T) {
	wps := []geom.Waypoint{geom.W(0, 0, 0), geom.W(100, 0, 0)}
	m := mustMission(t, "d1", wps, 0, 10)

	// Mutating the caller's slice or the returned copy must not affect the
	// mission's trajectory.
	wps[1] = geom.W(-1, -1, -1)
	got := m.Waypoints()
	got[0] = geom.W(9, 9, 9)

	p, err := m.PositionAt(10)
	require.NoError(t, err)
	assert.Equal(t, geom.W(100, 0, 0), p)
}

func TestSamples(t *testing.T) {
	m := mustMission(t, "d1", []geom.Waypoint{geom.W(0, 0, 0), geom.W(100, 0, 0)}, 0, 20)

	samples := m.Samples(10)
	require.Len(t, samples, 11)
	assert.Equal(t, 0.0, samples[0].Time)
	assert.Equal(t, 20.0, samples[10].Time)
	assert.Equal(t, geom.W(0, 0, 0), samples[0].Position)
	assert.Equal(t, geom.W(100, 0, 0), samples[10].Position)
}
