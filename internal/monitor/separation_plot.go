package monitor

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Megha-ldce/uav-deconfliction/internal/deconflict"
)

// SeparationSeries is the sampled distance between one pair of drones over
// their shared flight window.
type SeparationSeries struct {
	DroneA string
	DroneB string
	Points plotter.XYs
}

// SeparationData samples the distance between the candidate and each other
// mission at the given resolution. Pairs with no temporal overlap produce
// no series.
func SeparationData(candidate *deconflict.Mission, others []*deconflict.Mission, dt float64) ([]SeparationSeries, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("time resolution must be positive, got %v", dt)
	}

	var out []SeparationSeries
	for _, other := range others {
		lo := math.Max(candidate.StartTime(), other.StartTime())
		hi := math.Min(candidate.EndTime(), other.EndTime())
		if lo >= hi {
			continue
		}

		var pts plotter.XYs
		sample := func(t float64) error {
			pa, err := candidate.PositionAt(t)
			if err != nil {
				return err
			}
			pb, err := other.PositionAt(t)
			if err != nil {
				return err
			}
			pts = append(pts, plotter.XY{X: t, Y: pa.DistanceTo(pb)})
			return nil
		}
		for k := 0; ; k++ {
			t := lo + float64(k)*dt
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

		out = append(out, SeparationSeries{
			DroneA: candidate.DroneID(),
			DroneB: other.DroneID(),
			Points: pts,
		})
	}
	return out, nil
}

// SaveSeparationPlot writes a PNG of separation distance over time for
// each series, with a horizontal line marking the safety buffer.
func SaveSeparationPlot(path string, series []SeparationSeries, safetyBuffer float64) error {
	p := plot.New()
	p.Title.Text = "Separation Distance"
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "distance (m)"
	p.Add(plotter.NewGrid())

	var tMin, tMax float64
	first := true
	for _, s := range series {
		line, err := plotter.NewLine(s.Points)
		if err != nil {
			return fmt.Errorf("building line for %s/%s: %w", s.DroneA, s.DroneB, err)
		}
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s vs %s", s.DroneA, s.DroneB), line)

		for _, pt := range s.Points {
			if first || pt.X < tMin {
				tMin = pt.X
			}
			if first || pt.X > tMax {
				tMax = pt.X
			}
			first = false
		}
	}

	if !first && safetyBuffer > 0 {
		bufLine, err := plotter.NewLine(plotter.XYs{
			{X: tMin, Y: safetyBuffer},
			{X: tMax, Y: safetyBuffer},
		})
		if err != nil {
			return fmt.Errorf("building buffer line: %w", err)
		}
		bufLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(bufLine)
		p.Legend.Add("safety buffer", bufLine)
	}

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("saving separation plot: %w", err)
	}
	return nil
}
