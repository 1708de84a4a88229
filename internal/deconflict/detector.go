package deconflict

import (
	"fmt"
	"math"

	"github.com/Megha-ldce/uav-deconfliction/internal/geom"
)

// RawEvent is a single sampled instant at which two trajectories were
// closer than the safety buffer. Location is the midpoint of the two drone
// positions and exists for reporting only.
type RawEvent struct {
	Time     float64
	Location geom.Waypoint
	Distance float64
}

// Detector samples a pair of missions across their temporal overlap window
// and emits raw proximity events. It performs no merging.
type Detector struct {
	safetyBuffer   float64
	timeResolution float64
}

// NewDetector validates the sampling configuration. A non-positive safety
// buffer or time resolution fails with ErrInvalidConfiguration before any
// sampling can occur.
func NewDetector(safetyBuffer, timeResolution float64) (*Detector, error) {
	if safetyBuffer <= 0 {
		return nil, fmt.Errorf("%w: safety buffer must be positive, got %v", ErrInvalidConfiguration, safetyBuffer)
	}
	if timeResolution <= 0 {
		return nil, fmt.Errorf("%w: time resolution must be positive, got %v", ErrInvalidConfiguration, timeResolution)
	}
	return &Detector{safetyBuffer: safetyBuffer, timeResolution: timeResolution}, nil
}

// SafetyBuffer returns the configured minimum separation distance.
func (d *Detector) SafetyBuffer() float64 { return d.safetyBuffer }

// overlapWindow computes the interval during which both missions are
// active. ok is false when the windows are disjoint (or merely touch),
// in which case no sampling is needed at all.
func overlapWindow(a, b *Mission) (lo, hi float64, ok bool) {
	lo = math.Max(a.StartTime(), b.StartTime())
	hi = math.Min(a.EndTime(), b.EndTime())
	return lo, hi, lo < hi
}

// sampleCount returns the number of samples Detect will take over the
// window [lo, hi]: the regular steps strictly below hi plus the exact final
// endpoint sample.
func sampleCount(lo, hi, dt float64) int64 {
	if lo >= hi {
		return 0
	}
	n := int64(math.Ceil((hi - lo) / dt))
	return n + 1
}

// Detect samples both trajectories across the overlap window at the
// configured resolution and returns every instant the 3D separation fell
// strictly below the safety buffer, in time order. Disjoint windows return
// nil in O(1) with zero position queries.
//
// Sample times are lo, lo+dt, lo+2dt, ... strictly below hi, then hi itself
// as the final sample, so both endpoints are hit exactly even when the last
// regular step would overshoot.
func (d *Detector) Detect(a, b *Mission) ([]RawEvent, error) {
	lo, hi, ok := overlapWindow(a, b)
	if !ok {
		return nil, nil
	}

	var events []RawEvent
	sample := func(t float64) error {
		posA, err := a.PositionAt(t)
		if err != nil {
			return err
		}
		posB, err := b.PositionAt(t)
		if err != nil {
			return err
		}
		if dist := posA.DistanceTo(posB); dist < d.safetyBuffer {
			events = append(events, RawEvent{
				Time:     t,
				Location: geom.Midpoint(posA, posB),
				Distance: dist,
			})
		}
		return nil
	}

	for k := int64(0); ; k++ {
		t := lo + float64(k)*d.timeResolution
		if t >= hi {
			break
		}
		if err := sample(t); err != nil {
			return nil, err
		}
	}
	if err := sample(hi); err != nil {
		return nil, err
	}
	return events, nil
}
