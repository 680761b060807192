package config

import (
	"os"

	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
	"gopkg.in/yaml.v2"
)

// Settings are the process-wide defaults, loaded from settings.yaml,
// co-located with the job file.
type Settings struct {
	DefaultColorMode ColorMode `yaml:"default_color_mode"`
	DPI              uint32    `yaml:"dpi"`
	FgDPI            uint32    `yaml:"fg_dpi"`
	BgQuality        uint8     `yaml:"bg_quality"`
	FgQuality        uint8     `yaml:"fg_quality"`
	ParallelWorkers  int       `yaml:"parallel_workers"`
	CacheDir         string    `yaml:"cache_dir"`
	PreserveImages   bool      `yaml:"preserve_images"`
	Linearize        bool      `yaml:"linearize"`
	TextToOutlines   bool      `yaml:"text_to_outlines"`
}

// DefaultSettings returns Settings populated with sensible process-wide
// defaults: DPI 300, fg DPI 100, bg quality 50, fg quality 30, 0 (auto)
// workers, cache dir ".cache", preserve-images true, linearise true.
func DefaultSettings() Settings {
	return Settings{
		DefaultColorMode: RGB,
		DPI:              300,
		FgDPI:            100,
		BgQuality:        50,
		FgQuality:        30,
		ParallelWorkers:  0,
		CacheDir:         ".cache",
		PreserveImages:   true,
		Linearize:        true,
		TextToOutlines:   false,
	}
}

// SettingsFromYAML parses YAML bytes into Settings, starting from
// DefaultSettings so any field absent from the document keeps its
// default value.
func SettingsFromYAML(b []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, errtyp.Wrap(errtyp.Config, err, "parsing settings.yaml")
	}
	return s, nil
}

// LoadSettings reads and parses the settings file at path.
func LoadSettings(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, errtyp.Wrap(errtyp.Config, err, "reading settings file "+path)
	}
	return SettingsFromYAML(b)
}
