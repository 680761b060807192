package config

import (
	"reflect"
	"testing"

	"gopkg.in/yaml.v2"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		in      string
		want    []uint32
		wantErr bool
	}{
		{"1, 3, 5-10, 15", []uint32{1, 3, 5, 6, 7, 8, 9, 10, 15}, false},
		{"2,2,1", []uint32{1, 2}, false},
		{"", nil, true},
		{"5-3", nil, true},
		{"abc", nil, true},
	}
	for _, tt := range tests {
		got, err := ParsePageRange(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePageRange(%q) expected error, got none", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePageRange(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParsePageRange(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPageListUnmarshalString(t *testing.T) {
	var p PageList
	if err := yaml.Unmarshal([]byte(`"1, 3, 5-7"`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := PageList{1, 3, 5, 6, 7}
	if !reflect.DeepEqual(p, want) {
		t.Errorf("got %v, want %v", p, want)
	}
}

func TestPageListUnmarshalMixedArray(t *testing.T) {
	var p PageList
	if err := yaml.Unmarshal([]byte(`[1, "3-5", 9]`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := PageList{1, 3, 4, 5, 9}
	if !reflect.DeepEqual(p, want) {
		t.Errorf("got %v, want %v", p, want)
	}
}

func TestJobResolvePageModesOverlapIsError(t *testing.T) {
	j := Job{
		BwPages:  PageList{1, 2},
		RgbPages: PageList{2, 3},
	}
	if _, err := j.ResolvePageModes(); err == nil {
		t.Fatal("expected overlap error, got none")
	}
}

func TestJobResolvePageModes(t *testing.T) {
	j := Job{
		BwPages:        PageList{1},
		GrayscalePages: PageList{2},
		RgbPages:       PageList{3},
		SkipPages:      PageList{4},
	}
	modes, err := j.ResolvePageModes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[uint32]ColorMode{1: BW, 2: Grayscale, 3: RGB, 4: Skip}
	if !reflect.DeepEqual(modes, want) {
		t.Errorf("got %v, want %v", modes, want)
	}
}

func TestNewMergedConfigInheritsDefaults(t *testing.T) {
	s := DefaultSettings()
	m := NewMergedConfig(s, Job{})
	if m.DPI != s.DPI || m.ColorMode != s.DefaultColorMode || m.CacheDir != s.CacheDir {
		t.Errorf("expected merged config to inherit settings unchanged, got %+v", m)
	}
}

func TestNewMergedConfigAppliesOverrides(t *testing.T) {
	s := DefaultSettings()
	dpi := uint32(600)
	bw := BW
	m := NewMergedConfig(s, Job{DPI: &dpi, ColorMode: &bw})
	if m.DPI != 600 {
		t.Errorf("expected DPI override 600, got %d", m.DPI)
	}
	if m.ColorMode != BW {
		t.Errorf("expected ColorMode override BW, got %v", m.ColorMode)
	}
	if m.FgDPI != s.FgDPI {
		t.Errorf("expected FgDPI to remain at default %d, got %d", s.FgDPI, m.FgDPI)
	}
}

func TestSettingsFromYAMLKeepsDefaultsForAbsentFields(t *testing.T) {
	s, err := SettingsFromYAML([]byte("dpi: 600\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.DPI != 600 {
		t.Errorf("expected DPI 600, got %d", s.DPI)
	}
	if s.BgQuality != 50 {
		t.Errorf("expected bg_quality to keep default 50, got %d", s.BgQuality)
	}
	if s.CacheDir != ".cache" {
		t.Errorf("expected cache_dir to keep default .cache, got %q", s.CacheDir)
	}
}
