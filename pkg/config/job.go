package config

import (
	"os"

	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
	"gopkg.in/yaml.v2"
)

// JobFile is the top-level job-file document: a list of per-document
// conversion jobs, each able to override the shared Settings.
type JobFile struct {
	Jobs []Job `yaml:"jobs"`
}

// Job describes one input/output PDF pair and its per-page overrides.
// Pointer fields are nil when absent from the document, signalling
// "inherit from Settings" to NewMergedConfig.
type Job struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`

	ColorMode *ColorMode `yaml:"color_mode,omitempty"`

	BwPages        PageList `yaml:"bw_pages,omitempty"`
	GrayscalePages PageList `yaml:"grayscale_pages,omitempty"`
	RgbPages       PageList `yaml:"rgb_pages,omitempty"`
	SkipPages      PageList `yaml:"skip_pages,omitempty"`

	DPI             *uint32 `yaml:"dpi,omitempty"`
	FgDPI           *uint32 `yaml:"fg_dpi,omitempty"`
	BgQuality       *uint8  `yaml:"bg_quality,omitempty"`
	FgQuality       *uint8  `yaml:"fg_quality,omitempty"`
	ParallelWorkers *int    `yaml:"parallel_workers,omitempty"`
	PreserveImages  *bool   `yaml:"preserve_images,omitempty"`
	Linearize       *bool   `yaml:"linearize,omitempty"`
	TextToOutlines  *bool   `yaml:"text_to_outlines,omitempty"`
}

// LoadJobFile reads and parses a job file at path.
func LoadJobFile(path string) (JobFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return JobFile{}, errtyp.Wrap(errtyp.Config, err, "reading job file "+path)
	}
	var jf JobFile
	if err := yaml.Unmarshal(b, &jf); err != nil {
		return JobFile{}, errtyp.Wrap(errtyp.Config, err, "parsing job file "+path)
	}
	if len(jf.Jobs) == 0 {
		return JobFile{}, errtyp.New(errtyp.Config, "job file contains no jobs")
	}
	return jf, nil
}

// ResolvePageModes merges the job's four per-mode page override lists
// into a single page-index -> ColorMode map. A page index named in more
// than one list is a fatal configuration error: the overrides are
// required to partition the page set, not layer over it.
func (j Job) ResolvePageModes() (map[uint32]ColorMode, error) {
	modes := make(map[uint32]ColorMode)

	lists := []struct {
		pages []uint32
		mode  ColorMode
	}{
		{j.BwPages, BW},
		{j.GrayscalePages, Grayscale},
		{j.RgbPages, RGB},
		{j.SkipPages, Skip},
	}

	for _, l := range lists {
		for _, p := range l.pages {
			if existing, ok := modes[p]; ok {
				return nil, errtyp.Newf(errtyp.Config,
					"page %d appears in more than one override list (%s and %s)", p, existing, l.mode)
			}
			modes[p] = l.mode
		}
	}

	return modes, nil
}
