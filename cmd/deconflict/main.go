// Command deconflict runs the bundled deconfliction scenarios or serves
// the engine over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Megha-ldce/uav-deconfliction/internal/api"
	"github.com/Megha-ldce/uav-deconfliction/internal/config"
	"github.com/Megha-ldce/uav-deconfliction/internal/deconflict"
	"github.com/Megha-ldce/uav-deconfliction/internal/monitor"
	"github.com/Megha-ldce/uav-deconfliction/internal/monitoring"
	"github.com/Megha-ldce/uav-deconfliction/internal/report"
	"github.com/Megha-ldce/uav-deconfliction/internal/scenario"
	"github.com/Megha-ldce/uav-deconfliction/internal/storage/sqlite"
	"github.com/Megha-ldce/uav-deconfliction/internal/version"
)

var (
	configPath   = flag.String("config", "", "Path to a tuning config JSON file (defaults apply when empty)")
	scenarioName = flag.String("scenario", "all", "Scenario to run, or 'all'")
	listOnly     = flag.Bool("list", false, "List available scenarios and exit")
	outputDir    = flag.String("output", "", "Directory for charts and plots (overrides config)")
	dbPath       = flag.String("db", "", "SQLite database path for persisting runs (overrides config)")
	serveMode    = flag.Bool("serve", false, "Serve the engine over HTTP instead of running scenarios")
	listen       = flag.String("listen", "", "HTTP listen address (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg := loadConfig()
	if *outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if *dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if *listen != "" {
		cfg.ListenAddress = listen
	}

	if *listOnly {
		for _, name := range scenario.Names() {
			fmt.Println(name)
		}
		return
	}

	var store *sqlite.CheckStore
	if path := cfg.GetDatabasePath(); path != "" {
		db, err := sqlite.Open(path)
		if err != nil {
			monitoring.Logf("failed to open database: %v", err)
			os.Exit(1)
		}
		defer db.Close()
		store = sqlite.NewCheckStore(db)
	}

	if *serveMode {
		serve(cfg, store)
		return
	}

	if err := runScenarios(cfg, store); err != nil {
		monitoring.Logf("%v", err)
		os.Exit(1)
	}
}

func loadConfig() *config.TuningConfig {
	if *configPath == "" {
		return config.EmptyTuningConfig()
	}
	cfg, err := config.LoadTuningConfig(*configPath)
	if err != nil {
		monitoring.Logf("failed to load config: %v", err)
		os.Exit(1)
	}
	return cfg
}

func runScenarios(cfg *config.TuningConfig, store *sqlite.CheckStore) error {
	scenarios, err := selectScenarios()
	if err != nil {
		return err
	}

	outDir := cfg.GetOutputDir()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var rows []report.SummaryRow
	for _, sc := range scenarios {
		result, err := runScenario(sc, cfg, store, outDir)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		rows = append(rows, report.SummaryRow{
			Name:      sc.Name,
			IsSafe:    result.IsSafe,
			Conflicts: len(result.Conflicts),
		})
	}
	return report.Summary(os.Stdout, rows)
}

func selectScenarios() ([]*scenario.Scenario, error) {
	if *scenarioName == "all" {
		return scenario.All()
	}
	sc, err := scenario.ByName(*scenarioName)
	if err != nil {
		return nil, err
	}
	return []*scenario.Scenario{sc}, nil
}

// runScenario checks the scenario's primary mission against its traffic,
// prints the detailed report, and writes the chart and plot artefacts.
func runScenario(sc *scenario.Scenario, cfg *config.TuningConfig, store *sqlite.CheckStore, outDir string) (deconflict.CheckResult, error) {
	checkCfg := deconflict.CheckConfigFromTuning(cfg)
	registry, err := deconflict.NewRegistry(checkCfg)
	if err != nil {
		return deconflict.CheckResult{}, err
	}
	for _, m := range sc.Others {
		if err := registry.Register(m); err != nil {
			return deconflict.CheckResult{}, err
		}
	}

	result, err := registry.CheckMission(sc.Primary)
	if err != nil {
		return deconflict.CheckResult{}, err
	}

	if err := report.Write(os.Stdout, sc.Primary, result, checkCfg, registry.Len()); err != nil {
		return deconflict.CheckResult{}, err
	}

	if err := writeArtefacts(sc, result, cfg, outDir); err != nil {
		return deconflict.CheckResult{}, err
	}

	if store != nil {
		run := &sqlite.CheckRun{
			CandidateDrone: sc.Primary.DroneID(),
			IsSafe:         result.IsSafe,
			SafetyBuffer:   checkCfg.SafetyBuffer,
			TimeResolution: checkCfg.TimeResolution,
			MergeThreshold: checkCfg.MergeThreshold,
		}
		if err := store.InsertRun(run, result.Conflicts); err != nil {
			return deconflict.CheckResult{}, fmt.Errorf("failed to persist run: %w", err)
		}
		monitoring.Logf("persisted run %s for scenario %s", run.RunID, sc.Name)
	}
	return result, nil
}

func writeArtefacts(sc *scenario.Scenario, result deconflict.CheckResult, cfg *config.TuningConfig, outDir string) error {
	chartPath := filepath.Join(outDir, sc.Name+"_trajectories.html")
	f, err := os.Create(chartPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	chartOpts := monitor.DefaultChartOptions()
	chartOpts.Title = fmt.Sprintf("UAV Trajectories: %s", sc.Name)
	chartOpts.Samples = cfg.GetChartSamples()
	if err := monitor.RenderTrajectoryChart(f, sc.Missions(), result.Conflicts, chartOpts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	monitoring.Logf("wrote %s", chartPath)

	series, err := monitor.SeparationData(sc.Primary, sc.Others, cfg.GetTimeResolution())
	if err != nil {
		return err
	}
	if len(series) > 0 {
		plotPath := filepath.Join(outDir, sc.Name+"_separation.png")
		if err := monitor.SaveSeparationPlot(plotPath, series, cfg.GetSafetyBuffer()); err != nil {
			return err
		}
		monitoring.Logf("wrote %s", plotPath)
	}
	return nil
}

// serve mounts the API over an empty registry and blocks until SIGINT or
// SIGTERM, then shuts the server down gracefully.
func serve(cfg *config.TuningConfig, store *sqlite.CheckStore) {
	registry, err := deconflict.NewRegistry(deconflict.CheckConfigFromTuning(cfg))
	if err != nil {
		monitoring.Logf("failed to build registry: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:    cfg.GetListenAddress(),
		Handler: api.LoggingMiddleware(api.NewServer(registry, store).ServeMux()),
	}

	go func() {
		monitoring.Logf("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			monitoring.Logf("failed to start server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
	}
}
