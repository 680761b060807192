package pipeline

import (
	"testing"

	"github.com/mrcpdf/mrcpdf/pkg/cache"
	"github.com/mrcpdf/mrcpdf/pkg/config"
	"github.com/mrcpdf/mrcpdf/pkg/jbig2"
	"github.com/mrcpdf/mrcpdf/pkg/mrc"
	"github.com/mrcpdf/mrcpdf/pkg/raster"
)

type fakeEncoder struct{}

func (fakeEncoder) EncodeGenericRegion(bits []byte, width, height int, opts jbig2.Options) ([]byte, error) {
	return []byte{0x00, 0x01, 0x02, 0x03}, nil
}

func solidGrayRGBA(w, h int, gray byte) []byte {
	pix := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		pix[i*4+0] = gray
		pix[i*4+1] = gray
		pix[i*4+2] = gray
		pix[i*4+3] = 0xFF
	}
	return pix
}

func TestProcessorCompositesOnMiss(t *testing.T) {
	store := cache.NewStore(t.TempDir())
	cfg := config.MergedConfig{DPI: 300, BgQuality: 50, FgQuality: 30, ColorMode: config.RGB}
	p := NewProcessor(store, "/in.pdf", cfg, fakeEncoder{}, mrc.NoopRedaction{})

	in := PageInput{
		PageIndex:     0,
		Bitmap:        &raster.Bitmap{Pix: solidGrayRGBA(16, 16, 0xFF), Width: 16, Height: 16},
		ContentStream: []byte("q 1 0 0 1 0 0 cm Q"),
		Mode:          config.RGB,
		PageWidthPts:  612,
		PageHeightPts: 792,
	}

	out, err := p.Process(in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Kind != mrc.KindMrc {
		t.Fatalf("expected KindMrc, got %v", out.Kind)
	}
	if out.Mrc == nil || len(out.Mrc.MaskJBIG2) == 0 {
		t.Fatalf("expected a populated MRC mask")
	}

	key := cache.ComputeKey("/in.pdf", 0, in.ContentStream, cache.Settings{
		DPI: cfg.DPI, FgDPI: cfg.FgDPI, BgQuality: cfg.BgQuality, FgQuality: cfg.FgQuality,
		PreserveImages: cfg.PreserveImages, ColorMode: config.RGB,
	})
	if !store.Contains(key) {
		t.Errorf("expected the composited result to be written back to the cache")
	}
}

func TestProcessorServesCacheHit(t *testing.T) {
	store := cache.NewStore(t.TempDir())
	cfg := config.MergedConfig{DPI: 300, BgQuality: 50, FgQuality: 30, ColorMode: config.BW}
	p := NewProcessor(store, "/in.pdf", cfg, fakeEncoder{}, mrc.NoopRedaction{})

	in := PageInput{
		PageIndex:     2,
		Bitmap:        &raster.Bitmap{Pix: solidGrayRGBA(16, 16, 0x00), Width: 16, Height: 16},
		ContentStream: []byte("q Q"),
		Mode:          config.BW,
		PageWidthPts:  612,
		PageHeightPts: 792,
	}

	first, err := p.Process(in)
	if err != nil {
		t.Fatalf("first Process: %v", err)
	}

	second, err := p.Process(in)
	if err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if second.Kind != mrc.KindBw || string(second.Bw.MaskJBIG2) != string(first.Bw.MaskJBIG2) {
		t.Errorf("expected the second call to serve an identical cached result")
	}
	if second.PageIndex != 2 {
		t.Errorf("expected cache hit to carry the requested page index, got %d", second.PageIndex)
	}
}

func TestProcessorSkipsWithoutTouchingCache(t *testing.T) {
	store := cache.NewStore(t.TempDir())
	cfg := config.MergedConfig{ColorMode: config.Skip}
	p := NewProcessor(store, "/in.pdf", cfg, fakeEncoder{}, mrc.NoopRedaction{})

	out, err := p.Process(PageInput{PageIndex: 5, Mode: config.Skip})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Kind != mrc.KindSkip || out.PageIndex != 5 {
		t.Errorf("expected an immediate KindSkip result, got %+v", out)
	}
}
