package deconflict

import "errors"

// Sentinel errors for the engine. All validation failures are raised at the
// boundary (construction, registration, configuration); the detection
// pipeline itself is pure computation with no transient failure modes.
var (
	// ErrInvalidMission indicates a mission that failed construction-time
	// validation: fewer than two waypoints, non-positive duration or speed,
	// or an empty drone ID.
	ErrInvalidMission = errors.New("invalid mission")

	// ErrDuplicateDroneID indicates a registration attempt with a drone ID
	// that is already present in the registry.
	ErrDuplicateDroneID = errors.New("duplicate drone id")

	// ErrInvalidConfiguration indicates a non-positive safety buffer, time
	// resolution, or merge threshold. Raised before any sampling occurs.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrOutOfWindow indicates a position query outside a mission's active
	// interval. The detector samples only within the intersected window, so
	// seeing this from a check is a programming-contract violation.
	ErrOutOfWindow = errors.New("time outside mission window")

	// ErrBudgetExceeded indicates that the projected total sample count for
	// a check exceeded the configured cap. No partial results are returned.
	ErrBudgetExceeded = errors.New("sample budget exceeded")
)
