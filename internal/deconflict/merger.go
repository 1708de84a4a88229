package deconflict

import (
	"fmt"
	"sort"
)

// Merger collapses clusters of raw events that are close in time into one
// representative Conflict per cluster. Without it, every sample inside a
// near-miss would surface as its own event; with it, each distinct
// close-approach episode reports exactly its worst point.
type Merger struct {
	mergeThreshold float64
	safetyBuffer   float64
}

// NewMerger validates the merge configuration. The threshold is the maximum
// time gap between consecutive events absorbed into one cluster; the buffer
// is needed to derive severity for the representatives.
func NewMerger(mergeThreshold, safetyBuffer float64) (*Merger, error) {
	if mergeThreshold <= 0 {
		return nil, fmt.Errorf("%w: merge threshold must be positive, got %v", ErrInvalidConfiguration, mergeThreshold)
	}
	if safetyBuffer <= 0 {
		return nil, fmt.Errorf("%w: safety buffer must be positive, got %v", ErrInvalidConfiguration, safetyBuffer)
	}
	return &Merger{mergeThreshold: mergeThreshold, safetyBuffer: safetyBuffer}, nil
}

// clusterReducer is the explicit {empty, open-cluster} state machine behind
// the merge sweep. Feeding it time-sorted events either absorbs each event
// into the open cluster or closes the cluster and opens a new one; the
// representative kept per cluster is the event with the smallest distance,
// ties broken by earliest time.
type clusterReducer struct {
	threshold float64

	open     bool
	lastTime float64  // time of the most recent event absorbed
	best     RawEvent // current representative of the open cluster

	reps []RawEvent
}

func (r *clusterReducer) feed(ev RawEvent) {
	if !r.open {
		r.open = true
		r.lastTime = ev.Time
		r.best = ev
		return
	}
	if ev.Time-r.lastTime <= r.threshold {
		// Absorb. Events exactly threshold apart still merge.
		r.lastTime = ev.Time
		if ev.Distance < r.best.Distance ||
			(ev.Distance == r.best.Distance && ev.Time < r.best.Time) {
			r.best = ev
		}
		return
	}
	// Gap too large: close the current cluster and reopen with this event.
	r.reps = append(r.reps, r.best)
	r.lastTime = ev.Time
	r.best = ev
}

// flush closes the final cluster and returns all representatives.
func (r *clusterReducer) flush() []RawEvent {
	if r.open {
		r.reps = append(r.reps, r.best)
		r.open = false
	}
	return r.reps
}

// Merge reduces the raw events for one mission pair to representative
// Conflicts, one per cluster. Events are expected in time order from the
// detector but are sorted defensively (stable) before the sweep. The drone
// pair is normalised to lexical order on the emitted conflicts.
func (m *Merger) Merge(droneA, droneB string, events []RawEvent) []Conflict {
	if len(events) == 0 {
		return nil
	}

	sorted := append([]RawEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	reducer := clusterReducer{threshold: m.mergeThreshold}
	for _, ev := range sorted {
		reducer.feed(ev)
	}

	a, b := orderPair(droneA, droneB)
	reps := reducer.flush()
	conflicts := make([]Conflict, 0, len(reps))
	for _, rep := range reps {
		conflicts = append(conflicts, Conflict{
			Time:     rep.Time,
			Location: rep.Location,
			DroneA:   a,
			DroneB:   b,
			Distance: rep.Distance,
			Severity: severityFor(rep.Distance, m.safetyBuffer),
		})
	}
	return conflicts
}
