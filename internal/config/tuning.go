package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical deconfliction defaults
// file. This is the single source of truth for all default tuning values
// shipped with the binaries.
const DefaultConfigPath = "config/deconfliction.defaults.json"

// TuningConfig represents the root configuration for deconfliction tuning
// parameters. Fields are pointers so a partial JSON file can override only
// some values; the Get* accessors supply defaults for anything unset.
type TuningConfig struct {
	// Engine params
	SafetyBuffer    *float64 `json:"safety_buffer,omitempty"`     // distance units
	TimeResolution  *float64 `json:"time_resolution,omitempty"`   // time units
	MergeThreshold  *float64 `json:"merge_threshold,omitempty"`   // time units
	Workers         *int     `json:"workers,omitempty"`           // 0 = GOMAXPROCS
	MaxTotalSamples *int64   `json:"max_total_samples,omitempty"` // 0 = unbounded

	// Reporting / visualisation params
	ChartSamples  *int    `json:"chart_samples,omitempty"` // trajectory samples per mission
	OutputDir     *string `json:"output_dir,omitempty"`
	DatabasePath  *string `json:"database_path,omitempty"` // "" disables persistence
	ListenAddress *string `json:"listen_address,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and stay under the max file size. Fields omitted
// from the JSON retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and common parent directories. Panics if
// the file cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that any set values are usable. Positivity of the engine
// params is enforced again by the engine itself; validating here surfaces
// configuration mistakes at load time instead of first check time.
func (c *TuningConfig) Validate() error {
	if c.SafetyBuffer != nil && *c.SafetyBuffer <= 0 {
		return fmt.Errorf("safety_buffer must be positive, got %f", *c.SafetyBuffer)
	}
	if c.TimeResolution != nil && *c.TimeResolution <= 0 {
		return fmt.Errorf("time_resolution must be positive, got %f", *c.TimeResolution)
	}
	if c.MergeThreshold != nil && *c.MergeThreshold <= 0 {
		return fmt.Errorf("merge_threshold must be positive, got %f", *c.MergeThreshold)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.MaxTotalSamples != nil && *c.MaxTotalSamples < 0 {
		return fmt.Errorf("max_total_samples must be non-negative, got %d", *c.MaxTotalSamples)
	}
	if c.ChartSamples != nil && *c.ChartSamples < 2 {
		return fmt.Errorf("chart_samples must be at least 2, got %d", *c.ChartSamples)
	}
	return nil
}

// GetSafetyBuffer returns the safety_buffer value or the default.
func (c *TuningConfig) GetSafetyBuffer() float64 {
	if c.SafetyBuffer == nil {
		return 50.0
	}
	return *c.SafetyBuffer
}

// GetTimeResolution returns the time_resolution value or the default.
func (c *TuningConfig) GetTimeResolution() float64 {
	if c.TimeResolution == nil {
		return 0.1
	}
	return *c.TimeResolution
}

// GetMergeThreshold returns the merge_threshold value or the default.
func (c *TuningConfig) GetMergeThreshold() float64 {
	if c.MergeThreshold == nil {
		return 1.0
	}
	return *c.MergeThreshold
}

// GetWorkers returns the workers value or the default (0 = GOMAXPROCS).
func (c *TuningConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetMaxTotalSamples returns the max_total_samples value or the default
// (0 = unbounded).
func (c *TuningConfig) GetMaxTotalSamples() int64 {
	if c.MaxTotalSamples == nil {
		return 0
	}
	return *c.MaxTotalSamples
}

// GetChartSamples returns the chart_samples value or the default.
func (c *TuningConfig) GetChartSamples() int {
	if c.ChartSamples == nil {
		return 200
	}
	return *c.ChartSamples
}

// GetOutputDir returns the output_dir value or the default.
func (c *TuningConfig) GetOutputDir() string {
	if c.OutputDir == nil {
		return "outputs"
	}
	return *c.OutputDir
}

// GetDatabasePath returns the database_path value or the default
// (empty = persistence disabled).
func (c *TuningConfig) GetDatabasePath() string {
	if c.DatabasePath == nil {
		return ""
	}
	return *c.DatabasePath
}

// GetListenAddress returns the listen_address value or the default.
func (c *TuningConfig) GetListenAddress() string {
	if c.ListenAddress == nil {
		return ":8080"
	}
	return *c.ListenAddress
}
