package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()

	if got := cfg.GetSafetyBuffer(); got != 50.0 {
		t.Errorf("Expected default safety buffer 50.0, got %v", got)
	}
	if got := cfg.GetTimeResolution(); got != 0.1 {
		t.Errorf("Expected default time resolution 0.1, got %v", got)
	}
	if got := cfg.GetMergeThreshold(); got != 1.0 {
		t.Errorf("Expected default merge threshold 1.0, got %v", got)
	}
	if got := cfg.GetWorkers(); got != 0 {
		t.Errorf("Expected default workers 0, got %v", got)
	}
	if got := cfg.GetMaxTotalSamples(); got != 0 {
		t.Errorf("Expected default max total samples 0, got %v", got)
	}
	if got := cfg.GetChartSamples(); got != 200 {
		t.Errorf("Expected default chart samples 200, got %v", got)
	}
	if got := cfg.GetOutputDir(); got != "outputs" {
		t.Errorf("Expected default output dir 'outputs', got %q", got)
	}
	if got := cfg.GetListenAddress(); got != ":8080" {
		t.Errorf("Expected default listen address ':8080', got %q", got)
	}
}

func TestLoadTuningConfigPartial(t *testing.T) {
	path := writeConfigFile(t, "partial.json", `{"safety_buffer": 25.5, "workers": 4}`)

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig failed: %v", err)
	}

	// Overridden fields take the file values.
	if got := cfg.GetSafetyBuffer(); got != 25.5 {
		t.Errorf("Expected safety buffer 25.5, got %v", got)
	}
	if got := cfg.GetWorkers(); got != 4 {
		t.Errorf("Expected workers 4, got %v", got)
	}

	// Omitted fields keep their defaults.
	if got := cfg.GetTimeResolution(); got != 0.1 {
		t.Errorf("Expected default time resolution, got %v", got)
	}
	if got := cfg.GetMergeThreshold(); got != 1.0 {
		t.Errorf("Expected default merge threshold, got %v", got)
	}
}

func TestLoadTuningConfigRejectsNonJSON(t *testing.T) {
	path := writeConfigFile(t, "tuning.yaml", `safety_buffer: 25`)
	if _, err := LoadTuningConfig(path); err == nil {
		t.Fatal("Expected error for non-.json extension")
	}
}

func TestLoadTuningConfigMissingFile(t *testing.T) {
	if _, err := LoadTuningConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestLoadTuningConfigMalformedJSON(t *testing.T) {
	path := writeConfigFile(t, "bad.json", `{"safety_buffer": `)
	if _, err := LoadTuningConfig(path); err == nil {
		t.Fatal("Expected error for malformed JSON")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"zero safety buffer", `{"safety_buffer": 0}`},
		{"negative safety buffer", `{"safety_buffer": -1}`},
		{"zero time resolution", `{"time_resolution": 0}`},
		{"zero merge threshold", `{"merge_threshold": 0}`},
		{"negative workers", `{"workers": -2}`},
		{"negative sample cap", `{"max_total_samples": -1}`},
		{"one chart sample", `{"chart_samples": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, "invalid.json", tt.contents)
			if _, err := LoadTuningConfig(path); err == nil {
				t.Errorf("Expected validation error for %s", tt.contents)
			}
		})
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	// The shipped defaults file must load and validate from the repo root.
	cfg := MustLoadDefaultConfig()
	if got := cfg.GetSafetyBuffer(); got != 50.0 {
		t.Errorf("Expected shipped safety buffer 50.0, got %v", got)
	}
	if got := cfg.GetTimeResolution(); got != 0.1 {
		t.Errorf("Expected shipped time resolution 0.1, got %v", got)
	}
}
