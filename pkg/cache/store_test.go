package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mrcpdf/mrcpdf/pkg/config"
	"github.com/mrcpdf/mrcpdf/pkg/mrc"
)

func TestValidateKey(t *testing.T) {
	good := "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"
	if err := validateKey(good); err != nil {
		t.Errorf("expected valid key to pass, got %v", err)
	}
	if err := validateKey(good[:63]); err == nil {
		t.Error("expected short key to fail")
	}
	upper := good[:63] + "A"
	if err := validateKey(upper); err == nil {
		t.Error("expected uppercase hex to fail")
	}
}

func TestSanitizeXObjectName(t *testing.T) {
	got := sanitizeXObjectName("Im 1/Foo")
	want := "Im%201%2FFoo"
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func testKey() string {
	return "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"
}

func TestStoreRetrieveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	key := testKey()

	out := mrc.PageOutput{Kind: mrc.KindMrc, Mrc: &mrc.MrcLayers{
		MaskJBIG2: []byte("mask"), ForegroundJPEG: []byte("fg"), BackgroundJPEG: []byte("bg"),
		Width: 100, Height: 200, PageWidthPts: 612, PageHeightPts: 792, ColorMode: config.RGB,
	}}

	if err := s.StoreMRCOrBW(key, out); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := s.Retrieve(key, config.RGB, &[2]uint32{100, 200})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if got == nil {
		t.Fatal("expected cache hit")
	}
	if string(got.Mrc.MaskJBIG2) != "mask" {
		t.Errorf("expected byte-identical mask, got %q", got.Mrc.MaskJBIG2)
	}

	miss, err := s.Retrieve(key, config.Grayscale, nil)
	if err != nil {
		t.Fatalf("retrieve with different mode: %v", err)
	}
	if miss != nil {
		t.Error("expected cache miss on mode mismatch")
	}

	miss, err = s.Retrieve(key, config.RGB, &[2]uint32{999, 999})
	if err != nil {
		t.Fatalf("retrieve with wrong dims: %v", err)
	}
	if miss != nil {
		t.Error("expected cache miss on dimension mismatch")
	}

	if !s.Contains(key) {
		t.Error("expected Contains to be true before deletion")
	}
	if err := os.Remove(filepath.Join(dir, key, "foreground.jpg")); err != nil {
		t.Fatalf("removing foreground.jpg: %v", err)
	}
	if s.Contains(key) {
		t.Error("expected Contains to be false after deleting foreground.jpg")
	}
}

func TestRetrieveMissingDirIsNilNotError(t *testing.T) {
	s := NewStore(t.TempDir())
	got, err := s.Retrieve(testKey(), config.RGB, nil)
	if err != nil {
		t.Fatalf("expected no error for missing entry, got %v", err)
	}
	if got != nil {
		t.Error("expected nil for missing entry")
	}
}

func TestRetrieveRejectsInvalidKey(t *testing.T) {
	s := NewStore(t.TempDir())
	if _, err := s.Retrieve("not-a-valid-key", config.RGB, nil); err == nil {
		t.Error("expected error for malformed key")
	}
}
