// Package report renders plain-text deconfliction reports for operators.
// It consumes the engine's output; serialisation and layout live here, not
// in the core.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Megha-ldce/uav-deconfliction/internal/deconflict"
)

const rule = 70

// Write renders a detailed check report for a candidate mission to w.
// registered is the number of missions the candidate was checked against.
func Write(w io.Writer, candidate *deconflict.Mission, result deconflict.CheckResult, cfg deconflict.CheckConfig, registered int) error {
	var b strings.Builder

	line := strings.Repeat("=", rule)
	fmt.Fprintf(&b, "\n%s\n", line)
	fmt.Fprintf(&b, "DECONFLICTION REPORT for %s\n", candidate.DroneID())
	fmt.Fprintf(&b, "%s\n\n", line)

	fmt.Fprintf(&b, "Mission Details:\n")
	fmt.Fprintf(&b, "  - Waypoints: %d\n", candidate.NumWaypoints())
	fmt.Fprintf(&b, "  - Time Window: %.1f - %.1f\n", candidate.StartTime(), candidate.EndTime())
	fmt.Fprintf(&b, "  - Duration: %.1f\n", candidate.Duration())
	fmt.Fprintf(&b, "  - Total Distance: %.1f\n\n", candidate.TotalDistance())

	fmt.Fprintf(&b, "Safety Buffer: %.1f\n", cfg.SafetyBuffer)
	fmt.Fprintf(&b, "Registered Missions: %d\n\n", registered)

	if result.IsSafe {
		fmt.Fprintf(&b, "STATUS: CLEAR - No conflicts detected\n")
		fmt.Fprintf(&b, "Mission is safe to execute.\n")
	} else {
		fmt.Fprintf(&b, "STATUS: CONFLICT DETECTED - %d conflict(s) found\n\n", len(result.Conflicts))
		fmt.Fprintf(&b, "Conflict Details:\n")
		fmt.Fprintf(&b, "%s\n", strings.Repeat("-", rule))

		for i, c := range result.Conflicts {
			fmt.Fprintf(&b, "\nConflict #%d:\n", i+1)
			fmt.Fprintf(&b, "  Time: %.2f\n", c.Time)
			fmt.Fprintf(&b, "  Location: %s\n", c.Location)
			fmt.Fprintf(&b, "  Drones: %s vs %s\n", c.DroneA, c.DroneB)
			fmt.Fprintf(&b, "  Distance: %.2f\n", c.Distance)
			fmt.Fprintf(&b, "  Severity: %.2f\n", c.Severity)
			fmt.Fprintf(&b, "  Safety Margin: %.2f (VIOLATED)\n", c.Distance-cfg.SafetyBuffer)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", line)

	_, err := io.WriteString(w, b.String())
	return err
}

// Summary renders the one-line-per-scenario closing table the CLI prints
// after running every demonstration scenario.
func Summary(w io.Writer, rows []SummaryRow) error {
	var b strings.Builder

	line := strings.Repeat("=", rule)
	fmt.Fprintf(&b, "\n%s\n", line)
	fmt.Fprintf(&b, " SUMMARY OF ALL SCENARIOS\n")
	fmt.Fprintf(&b, "%s\n\n", line)
	fmt.Fprintf(&b, "%-30s %-15s %s\n", "Scenario", "Status", "Conflicts")
	fmt.Fprintf(&b, "%s\n", strings.Repeat("-", rule))

	for _, row := range rows {
		status := "CLEAR"
		if !row.IsSafe {
			status = "CONFLICT"
		}
		fmt.Fprintf(&b, "%-30s %-15s %d\n", row.Name, status, row.Conflicts)
	}
	fmt.Fprintf(&b, "%s\n", line)

	_, err := io.WriteString(w, b.String())
	return err
}

// SummaryRow is one scenario outcome in the closing summary table.
type SummaryRow struct {
	Name      string
	IsSafe    bool
	Conflicts int
}
