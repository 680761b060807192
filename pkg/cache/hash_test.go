package cache

import (
	"testing"

	"github.com/mrcpdf/mrcpdf/pkg/config"
)

func TestCanonicalJSONIsSortedByKey(t *testing.T) {
	s := Settings{DPI: 300, FgDPI: 150, BgQuality: 50, FgQuality: 30, PreserveImages: false, ColorMode: config.RGB}
	got := canonicalJSON(s)
	want := `{"bg_quality":50,"color_mode":"rgb","dpi":300,"fg_dpi":150,"fg_quality":30,"preserve_images":false}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestCanonicalJSONWithDifferentValues(t *testing.T) {
	s := Settings{DPI: 600, FgDPI: 300, BgQuality: 80, FgQuality: 60, PreserveImages: true, ColorMode: config.RGB}
	got := canonicalJSON(s)
	want := `{"bg_quality":80,"color_mode":"rgb","dpi":600,"fg_dpi":300,"fg_quality":60,"preserve_images":true}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestComputeKeyDeterministicAndSensitive(t *testing.T) {
	s := Settings{DPI: 300, FgDPI: 100, BgQuality: 50, FgQuality: 30, PreserveImages: true, ColorMode: config.RGB}
	k1 := ComputeKey("/in.pdf", 0, []byte("stream-bytes"), s)
	k2 := ComputeKey("/in.pdf", 0, []byte("stream-bytes"), s)
	if k1 != k2 {
		t.Fatal("expected deterministic key")
	}
	if len(k1) != 64 {
		t.Fatalf("expected 64-char hex key, got %d chars", len(k1))
	}

	k3 := ComputeKey("/in.pdf", 1, []byte("stream-bytes"), s)
	if k1 == k3 {
		t.Error("expected different page index to change the key")
	}

	s2 := s
	s2.BgQuality = 51
	k4 := ComputeKey("/in.pdf", 0, []byte("stream-bytes"), s2)
	if k1 == k4 {
		t.Error("expected different bg_quality to change the key")
	}
}
