package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Megha-ldce/uav-deconfliction/internal/deconflict"
	"github.com/Megha-ldce/uav-deconfliction/internal/geom"
)

// CheckRun is one persisted deconfliction check: the verdict plus the
// configuration it was produced under.
type CheckRun struct {
	RunID          string  `json:"run_id"`
	CandidateDrone string  `json:"candidate_drone"`
	IsSafe         bool    `json:"is_safe"`
	ConflictCount  int     `json:"conflict_count"`
	SafetyBuffer   float64 `json:"safety_buffer"`
	TimeResolution float64 `json:"time_resolution"`
	MergeThreshold float64 `json:"merge_threshold"`
	CreatedAt      int64   `json:"created_at"`
}

// CheckStore provides persistence for check runs and their conflicts.
type CheckStore struct {
	db *sql.DB
}

// NewCheckStore creates a CheckStore backed by the given database.
func NewCheckStore(db *DB) *CheckStore {
	return &CheckStore{db: db.DB}
}

// InsertRun persists a check result for a candidate drone. If RunID is
// empty a UUID is generated. The run row and its conflict rows commit in
// one transaction; conflict order is preserved via the seq column so a
// read round-trips the engine's sorted output exactly.
func (s *CheckStore) InsertRun(run *CheckRun, conflicts []deconflict.Conflict) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = clock.Now().UnixNano()
	}
	run.ConflictCount = len(conflicts)

	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
			INSERT INTO check_runs (
				run_id, candidate_drone, is_safe, conflict_count,
				safety_buffer, time_resolution, merge_threshold, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.CandidateDrone, run.IsSafe, run.ConflictCount,
			run.SafetyBuffer, run.TimeResolution, run.MergeThreshold, run.CreatedAt,
		)
		if err != nil {
			return err
		}

		for seq, c := range conflicts {
			_, err = tx.Exec(`
				INSERT INTO check_conflicts (
					run_id, seq, conflict_time, x, y, z,
					drone_a, drone_b, distance, severity
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				run.RunID, seq, c.Time, c.Location.X, c.Location.Y, c.Location.Z,
				c.DroneA, c.DroneB, c.Distance, c.Severity,
			)
			if err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// GetRun returns a single run by ID.
func (s *CheckStore) GetRun(runID string) (*CheckRun, error) {
	row := s.db.QueryRow(`
		SELECT run_id, candidate_drone, is_safe, conflict_count,
		       safety_buffer, time_resolution, merge_threshold, created_at
		FROM check_runs WHERE run_id = ?`, runID)

	run := &CheckRun{}
	err := row.Scan(&run.RunID, &run.CandidateDrone, &run.IsSafe, &run.ConflictCount,
		&run.SafetyBuffer, &run.TimeResolution, &run.MergeThreshold, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("check run %s not found", runID)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *CheckStore) ListRuns(limit int) ([]*CheckRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT run_id, candidate_drone, is_safe, conflict_count,
		       safety_buffer, time_resolution, merge_threshold, created_at
		FROM check_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*CheckRun
	for rows.Next() {
		run := &CheckRun{}
		if err := rows.Scan(&run.RunID, &run.CandidateDrone, &run.IsSafe, &run.ConflictCount,
			&run.SafetyBuffer, &run.TimeResolution, &run.MergeThreshold, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ConflictsForRun returns the persisted conflicts of a run in their
// original engine order.
func (s *CheckStore) ConflictsForRun(runID string) ([]deconflict.Conflict, error) {
	rows, err := s.db.Query(`
		SELECT conflict_time, x, y, z, drone_a, drone_b, distance, severity
		FROM check_conflicts WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conflicts []deconflict.Conflict
	for rows.Next() {
		var c deconflict.Conflict
		var loc geom.Waypoint
		if err := rows.Scan(&c.Time, &loc.X, &loc.Y, &loc.Z,
			&c.DroneA, &c.DroneB, &c.Distance, &c.Severity); err != nil {
			return nil, err
		}
		c.Location = loc
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}
