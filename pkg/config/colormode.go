// Package config loads process-wide settings and per-job configuration
// for the MRC compression pipeline, following pdfcpu's yaml.v2-based
// configuration loader in spirit.
package config

import "fmt"

// ColorMode selects how a page is processed.
type ColorMode int

const (
	RGB ColorMode = iota
	Grayscale
	BW
	Skip
)

func (m ColorMode) String() string {
	switch m {
	case RGB:
		return "rgb"
	case Grayscale:
		return "grayscale"
	case BW:
		return "bw"
	case Skip:
		return "skip"
	default:
		return "unknown"
	}
}

// ParseColorMode maps a lower-case string (as read from YAML or the
// cache's canonical JSON) back to a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "rgb":
		return RGB, nil
	case "grayscale":
		return Grayscale, nil
	case "bw":
		return BW, nil
	case "skip":
		return Skip, nil
	}
	return 0, fmt.Errorf("unknown color mode %q", s)
}

// UnmarshalYAML decodes a lower-case color-mode string into a ColorMode.
func (m *ColorMode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	cm, err := ParseColorMode(s)
	if err != nil {
		return err
	}
	*m = cm
	return nil
}

// MarshalYAML encodes m as its lower-case string form.
func (m ColorMode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}
