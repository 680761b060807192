package mrc

import (
	"testing"

	"github.com/mrcpdf/mrcpdf/pkg/config"
	"github.com/mrcpdf/mrcpdf/pkg/contentstream"
	"github.com/mrcpdf/mrcpdf/pkg/jbig2"
)

type fakeJbig2Encoder struct{}

func (fakeJbig2Encoder) EncodeGenericRegion(bits []byte, width, height int, opts jbig2.Options) ([]byte, error) {
	return []byte{0xAA, 0xBB}, nil
}

func solidWhiteRGBA(w, h int) []byte {
	pix := make([]byte, w*h*4)
	for i := range pix {
		pix[i] = 0xFF
	}
	return pix
}

func TestCompositeMRCRGB(t *testing.T) {
	rgba := solidWhiteRGBA(8, 8)
	out, err := CompositeMRC(rgba, 8, 8, 72, 72, config.RGB, Quality{BgQuality: 50, FgQuality: 30}, SegmentOptions{TileSize: 16}, fakeJbig2Encoder{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.MaskJBIG2) == 0 || len(out.BackgroundJPEG) == 0 || len(out.ForegroundJPEG) == 0 {
		t.Fatal("expected all three MRC layers to be populated")
	}
	if out.ColorMode != config.RGB {
		t.Errorf("expected RGB color mode, got %v", out.ColorMode)
	}
}

func TestCompositeMRCGrayscale(t *testing.T) {
	rgba := solidWhiteRGBA(8, 8)
	out, err := CompositeMRC(rgba, 8, 8, 72, 72, config.Grayscale, Quality{BgQuality: 50, FgQuality: 30}, SegmentOptions{TileSize: 16}, fakeJbig2Encoder{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.BackgroundJPEG) == 0 || len(out.ForegroundJPEG) == 0 {
		t.Fatal("expected grayscale JPEG layers")
	}
}

func TestCompositeMRCRejectsBWMode(t *testing.T) {
	rgba := solidWhiteRGBA(4, 4)
	_, err := CompositeMRC(rgba, 4, 4, 36, 36, config.BW, Quality{BgQuality: 50, FgQuality: 30}, SegmentOptions{TileSize: 16}, fakeJbig2Encoder{})
	if err == nil {
		t.Fatal("expected error for BW mode passed to CompositeMRC")
	}
}

func TestCompositeBW(t *testing.T) {
	rgba := solidWhiteRGBA(8, 8)
	out, err := CompositeBW(rgba, 8, 8, 72, 72, SegmentOptions{TileSize: 16}, fakeJbig2Encoder{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.MaskJBIG2) == 0 {
		t.Fatal("expected a populated JBIG2 mask")
	}
}

func TestNoopRedactionNeverRewrites(t *testing.T) {
	var rule RedactionRule = NoopRedaction{}
	_, ok := rule.Redact(contentstream.XObjectPlacement{}, nil)
	if ok {
		t.Fatal("expected the placeholder redaction rule to never rewrite")
	}
}

func TestCompositeTextMaskedStripsTextAndLocatesRegions(t *testing.T) {
	content := []byte("BT /F1 12 Tf (Hello) Tj ET\nq 100 0 0 100 0 0 cm /Im0 Do Q\n")
	rgba := make([]byte, 64*64*4)
	for y := 10; y < 30; y++ {
		for x := 10; x < 30; x++ {
			i := (y*64 + x) * 4
			rgba[i], rgba[i+1], rgba[i+2], rgba[i+3] = 0, 0, 0, 0xFF
		}
	}
	for i := 0; i < len(rgba); i += 4 {
		if rgba[i+3] == 0 {
			rgba[i], rgba[i+1], rgba[i+2], rgba[i+3] = 0xFF, 0xFF, 0xFF, 0xFF
		}
	}

	out, err := CompositeTextMasked(0, content, rgba, 64, 64, 64, 64, config.RGB, SegmentOptions{TileSize: 16}, fakeJbig2Encoder{}, nil, nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if containsOperator(out.StrippedContentStream, "Tj") {
		t.Error("expected Tj to be stripped from the content stream")
	}
	if len(out.TextRegions) == 0 {
		t.Error("expected at least one detected text region")
	}
}

func containsOperator(data []byte, op string) bool {
	return len(data) > 0 && indexOf(string(data), op) >= 0
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
