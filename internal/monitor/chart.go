// Package monitor renders visual output for deconfliction results:
// interactive HTML trajectory charts via go-echarts and static PNG
// separation plots via gonum/plot. It consumes engine output only and
// has no influence on the check verdicts.
package monitor

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Megha-ldce/uav-deconfliction/internal/deconflict"
)

// ChartOptions controls trajectory chart rendering.
type ChartOptions struct {
	Title   string
	// Samples is the number of segments each trajectory is broken into.
	Samples int
	Width   string
	Height  string
}

// DefaultChartOptions returns render settings suitable for the bundled
// scenarios.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{
		Title:   "UAV Trajectories",
		Samples: 200,
		Width:   "1200px",
		Height:  "800px",
	}
}

// RenderTrajectoryChart writes an HTML scatter chart of the given missions
// projected onto the XY plane, with conflict locations overlaid as an
// extra series. Each mission becomes its own named series so the legend
// can toggle individual drones.
func RenderTrajectoryChart(w io.Writer, missions []*deconflict.Mission, conflicts []deconflict.Conflict, o ChartOptions) error {
	if o.Samples <= 0 {
		o.Samples = 200
	}
	if o.Width == "" {
		o.Width = "1200px"
	}
	if o.Height == "" {
		o.Height = "800px"
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  o.Width,
			Height: o.Height,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: o.Title,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "x (m)",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "y (m)",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
	)

	for _, m := range missions {
		samples := m.Samples(o.Samples)
		data := make([]opts.ScatterData, 0, len(samples))
		for _, s := range samples {
			data = append(data, opts.ScatterData{
				Value: []interface{}{s.Position.X, s.Position.Y},
			})
		}
		scatter.AddSeries(m.DroneID(), data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	}

	if len(conflicts) > 0 {
		data := make([]opts.ScatterData, 0, len(conflicts))
		for _, c := range conflicts {
			data = append(data, opts.ScatterData{
				Value: []interface{}{c.Location.X, c.Location.Y},
			})
		}
		scatter.AddSeries("conflicts", data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))
	}

	return scatter.Render(w)
}
