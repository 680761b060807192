package config

// MergedConfig is the fully-resolved, per-job configuration: Settings
// overridden field-by-field with whatever the Job explicitly set.
type MergedConfig struct {
	ColorMode       ColorMode
	DPI             uint32
	FgDPI           uint32
	BgQuality       uint8
	FgQuality       uint8
	ParallelWorkers int
	CacheDir        string
	PreserveImages  bool
	Linearize       bool
	TextToOutlines  bool
}

// NewMergedConfig resolves a Job's overrides against the shared
// Settings. Every Job field is optional; a nil field inherits the
// Settings value unchanged.
func NewMergedConfig(s Settings, j Job) MergedConfig {
	m := MergedConfig{
		ColorMode:       s.DefaultColorMode,
		DPI:             s.DPI,
		FgDPI:           s.FgDPI,
		BgQuality:       s.BgQuality,
		FgQuality:       s.FgQuality,
		ParallelWorkers: s.ParallelWorkers,
		CacheDir:        s.CacheDir,
		PreserveImages:  s.PreserveImages,
		Linearize:       s.Linearize,
		TextToOutlines:  s.TextToOutlines,
	}

	if j.ColorMode != nil {
		m.ColorMode = *j.ColorMode
	}
	if j.DPI != nil {
		m.DPI = *j.DPI
	}
	if j.FgDPI != nil {
		m.FgDPI = *j.FgDPI
	}
	if j.BgQuality != nil {
		m.BgQuality = *j.BgQuality
	}
	if j.FgQuality != nil {
		m.FgQuality = *j.FgQuality
	}
	if j.ParallelWorkers != nil {
		m.ParallelWorkers = *j.ParallelWorkers
	}
	if j.PreserveImages != nil {
		m.PreserveImages = *j.PreserveImages
	}
	if j.Linearize != nil {
		m.Linearize = *j.Linearize
	}
	if j.TextToOutlines != nil {
		m.TextToOutlines = *j.TextToOutlines
	}

	return m
}
