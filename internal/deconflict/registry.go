package deconflict

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
)

// Defaults for the check configuration. Distances and times are in the
// caller's mission units (conventionally metres and seconds).
const (
	DefaultSafetyBuffer   = 50.0
	DefaultTimeResolution = 0.1
	DefaultMergeThreshold = 1.0
)

// CheckConfig carries the tunable parameters of a deconfliction check.
type CheckConfig struct {
	SafetyBuffer   float64 // minimum allowed 3D separation (> 0)
	TimeResolution float64 // sampling step across overlap windows (> 0)
	MergeThreshold float64 // max time gap merged into one cluster (> 0)

	// Workers bounds the number of mission pairs evaluated concurrently.
	// Zero or negative means GOMAXPROCS. Results are aggregated into
	// pair-indexed slots, so the worker count never affects output.
	Workers int

	// MaxTotalSamples caps the projected sample count of a whole check
	// (sum over pairs of overlap/resolution). Zero disables the cap.
	// Exceeding the cap fails with ErrBudgetExceeded before any sampling.
	MaxTotalSamples int64
}

// DefaultCheckConfig returns the documented default configuration.
func DefaultCheckConfig() CheckConfig {
	return CheckConfig{
		SafetyBuffer:   DefaultSafetyBuffer,
		TimeResolution: DefaultTimeResolution,
		MergeThreshold: DefaultMergeThreshold,
	}
}

// Validate checks the configuration, wrapping ErrInvalidConfiguration on
// any non-positive parameter.
func (c CheckConfig) Validate() error {
	if c.SafetyBuffer <= 0 {
		return fmt.Errorf("%w: safety buffer must be positive, got %v", ErrInvalidConfiguration, c.SafetyBuffer)
	}
	if c.TimeResolution <= 0 {
		return fmt.Errorf("%w: time resolution must be positive, got %v", ErrInvalidConfiguration, c.TimeResolution)
	}
	if c.MergeThreshold <= 0 {
		return fmt.Errorf("%w: merge threshold must be positive, got %v", ErrInvalidConfiguration, c.MergeThreshold)
	}
	return nil
}

func (c CheckConfig) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Registry holds validated missions and orchestrates pairwise conflict
// checks over them. Each registry owns its own mission collection; multiple
// registries coexist independently.
//
// Register must not race with checks on the same registry: the mission map
// follows a single-writer, multiple-reader discipline enforced with an
// RWMutex. Concurrent checks against a stable registry are safe.
type Registry struct {
	cfg      CheckConfig
	detector *Detector
	merger   *Merger

	mu       sync.RWMutex
	missions map[string]*Mission
}

// NewRegistry builds a registry with the given check configuration,
// validating it up front.
func NewRegistry(cfg CheckConfig) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	detector, err := NewDetector(cfg.SafetyBuffer, cfg.TimeResolution)
	if err != nil {
		return nil, err
	}
	merger, err := NewMerger(cfg.MergeThreshold, cfg.SafetyBuffer)
	if err != nil {
		return nil, err
	}
	return &Registry{
		cfg:      cfg,
		detector: detector,
		merger:   merger,
		missions: make(map[string]*Mission),
	}, nil
}

// Config returns the registry's check configuration.
func (r *Registry) Config() CheckConfig { return r.cfg }

// Register inserts a mission. Missions are validated at construction, not
// here; registration only fails with ErrDuplicateDroneID on an ID collision.
func (r *Registry) Register(m *Mission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.missions[m.DroneID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateDroneID, m.DroneID())
	}
	r.missions[m.DroneID()] = m
	return nil
}

// Len returns the number of registered missions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.missions)
}

// Missions returns the registered missions ordered by drone ID.
func (r *Registry) Missions() []*Mission {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Mission, 0, len(r.missions))
	for _, id := range sortedIDsLocked(r.missions) {
		out = append(out, r.missions[id])
	}
	return out
}

// Mission returns the registered mission for a drone ID, or nil.
func (r *Registry) Mission(droneID string) *Mission {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.missions[droneID]
}

func sortedIDsLocked(missions map[string]*Mission) []string {
	ids := make([]string, 0, len(missions))
	for id := range missions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// missionPair is one unit of detection work.
type missionPair struct {
	a, b *Mission
}

// CheckMission checks a candidate mission against every registered mission
// with a different drone ID. The candidate is not registered. The result
// aggregates the merged conflicts from all pairs, globally sorted by
// (time, -severity, droneA, droneB); IsSafe is true iff no conflicts.
func (r *Registry) CheckMission(candidate *Mission) (CheckResult, error) {
	r.mu.RLock()
	pairs := make([]missionPair, 0, len(r.missions))
	for _, id := range sortedIDsLocked(r.missions) {
		if id == candidate.DroneID() {
			continue
		}
		pairs = append(pairs, missionPair{a: candidate, b: r.missions[id]})
	}
	r.mu.RUnlock()

	return r.checkPairs(pairs)
}

// CheckAll runs the pairwise pipeline over every unordered pair of
// registered missions: whole-registry validation rather than one-candidate
// validation. No self-pairs, no duplicate unordered pairs.
func (r *Registry) CheckAll() (CheckResult, error) {
	r.mu.RLock()
	ids := sortedIDsLocked(r.missions)
	var pairs []missionPair
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			pairs = append(pairs, missionPair{a: r.missions[ids[i]], b: r.missions[ids[j]]})
		}
	}
	r.mu.RUnlock()

	return r.checkPairs(pairs)
}

// checkPairs fans the pairs out to workers and aggregates their merged
// conflicts. Every worker writes only its own pair-indexed slot and the
// final collect-and-sort runs after the barrier, so the ordering is
// independent of worker completion order. A pair contributes all of its
// merged conflicts or the check fails as a whole; partial results are
// never returned.
func (r *Registry) checkPairs(pairs []missionPair) (CheckResult, error) {
	if err := r.checkBudget(pairs); err != nil {
		return CheckResult{}, err
	}

	perPair := make([][]Conflict, len(pairs))
	errs := make([]error, len(pairs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.cfg.workers())
	for i, p := range pairs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, p missionPair) {
			defer wg.Done()
			defer func() { <-sem }()
			events, err := r.detector.Detect(p.a, p.b)
			if err != nil {
				errs[i] = err
				return
			}
			perPair[i] = r.merger.Merge(p.a.DroneID(), p.b.DroneID(), events)
		}(i, p)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return CheckResult{}, err
		}
	}

	var conflicts []Conflict
	for _, cs := range perPair {
		conflicts = append(conflicts, cs...)
	}
	sortConflicts(conflicts)

	return CheckResult{IsSafe: len(conflicts) == 0, Conflicts: conflicts}, nil
}

// checkBudget projects the total sample count across all pairs and fails
// with ErrBudgetExceeded when it would overrun the configured cap.
func (r *Registry) checkBudget(pairs []missionPair) error {
	if r.cfg.MaxTotalSamples <= 0 {
		return nil
	}
	var total int64
	for _, p := range pairs {
		lo, hi, ok := overlapWindow(p.a, p.b)
		if !ok {
			continue
		}
		total += sampleCount(lo, hi, r.cfg.TimeResolution)
		if total > r.cfg.MaxTotalSamples {
			return fmt.Errorf("%w: projected %d samples exceed cap %d",
				ErrBudgetExceeded, total, r.cfg.MaxTotalSamples)
		}
	}
	return nil
}
