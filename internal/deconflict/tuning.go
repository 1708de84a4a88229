package deconflict

import "github.com/Megha-ldce/uav-deconfliction/internal/config"

// CheckConfigFromTuning builds a CheckConfig from a loaded TuningConfig.
// Use this in binaries where the TuningConfig is already loaded; the
// engine's own Validate still runs at registry construction.
func CheckConfigFromTuning(cfg *config.TuningConfig) CheckConfig {
	return CheckConfig{
		SafetyBuffer:    cfg.GetSafetyBuffer(),
		TimeResolution:  cfg.GetTimeResolution(),
		MergeThreshold:  cfg.GetMergeThreshold(),
		Workers:         cfg.GetWorkers(),
		MaxTotalSamples: cfg.GetMaxTotalSamples(),
	}
}
