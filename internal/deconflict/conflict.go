package deconflict

import (
	"fmt"
	"sort"

	"github.com/Megha-ldce/uav-deconfliction/internal/geom"
)

// Conflict is a merged proximity violation between two drones: the
// representative worst point of one close-approach episode. Conflicts are
// produced by the merge step and never mutated afterwards. DroneA sorts
// lexically before DroneB.
type Conflict struct {
	Time     float64       `json:"time"`
	Location geom.Waypoint `json:"location"`
	DroneA   string        `json:"drone_a"`
	DroneB   string        `json:"drone_b"`
	Distance float64       `json:"distance"`
	// Severity is the normalised closeness in [0,1]: 1 at zero distance,
	// 0 at the buffer boundary.
	Severity float64 `json:"severity"`
}

func (c Conflict) String() string {
	return fmt.Sprintf("Conflict at t=%.2f: %s vs %s at %s (distance=%.2f, severity=%.2f)",
		c.Time, c.DroneA, c.DroneB, c.Location, c.Distance, c.Severity)
}

// severityFor maps a violation distance to [0,1] against the buffer.
func severityFor(distance, safetyBuffer float64) float64 {
	s := 1 - distance/safetyBuffer
	if s < 0 {
		return 0
	}
	return s
}

// orderPair returns the two drone IDs in canonical lexical order.
func orderPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// sortConflicts orders conflicts by the canonical key
// (time, -severity, droneA, droneB) so repeated checks with identical
// inputs produce byte-identical output.
func sortConflicts(conflicts []Conflict) {
	sort.SliceStable(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.DroneA != b.DroneA {
			return a.DroneA < b.DroneA
		}
		return a.DroneB < b.DroneB
	})
}

// CheckResult is the outcome of a deconfliction check: a safety verdict and
// the globally ordered conflict list backing it.
type CheckResult struct {
	IsSafe    bool       `json:"is_safe"`
	Conflicts []Conflict `json:"conflicts"`
}
