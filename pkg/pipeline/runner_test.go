package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mrcpdf/mrcpdf/pkg/cache"
	"github.com/mrcpdf/mrcpdf/pkg/config"
	"github.com/mrcpdf/mrcpdf/pkg/mrc"
	"github.com/mrcpdf/mrcpdf/pkg/raster"
)

// buildMinimalPDF constructs a single-page classic-xref PDF with the
// given page content stream, computing every /Length value from the
// actual encoded bytes rather than hard-coding offsets.
func buildMinimalPDF(pageContent string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> /Contents 4 0 R >>\nendobj\n")
	fmt.Fprintf(&buf, "4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(pageContent), pageContent)
	buf.WriteString("trailer\n<< /Root 1 0 R >>\n")
	return buf.Bytes()
}

type fakeRasterizer struct {
	w, h uint32
}

func (f fakeRasterizer) RenderPage(ctx context.Context, pdfPath string, pageIndex uint32, dpi uint32) (*raster.Bitmap, error) {
	return &raster.Bitmap{Pix: solidGrayRGBA(int(f.w), int(f.h), 0xF0), Width: f.w, Height: f.h}, nil
}

func TestRunnerProducesMRCOutputForSinglePage(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(inPath, buildMinimalPDF("q 1 0 0 1 0 0 cm Q"), 0o644); err != nil {
		t.Fatalf("writing fixture PDF: %v", err)
	}

	runner := &Runner{
		Rasterizer: fakeRasterizer{w: 16, h: 16},
		Store:      cache.NewStore(filepath.Join(dir, "cache")),
		Encoder:    fakeEncoder{},
		Redaction:  mrc.NoopRedaction{},
	}

	job := Job{
		Input:  inPath,
		Output: filepath.Join(dir, "out.pdf"),
		Cfg: config.MergedConfig{
			ColorMode: config.RGB, DPI: 72, BgQuality: 50, FgQuality: 30, ParallelWorkers: 1,
		},
	}

	out, pages, err := runner.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pages != 1 {
		t.Fatalf("expected 1 page, got %d", pages)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-1.7")) {
		t.Errorf("expected output to start with a PDF header, got %q", out[:20])
	}
	if !bytes.Contains(out, []byte("/BgImg")) || !bytes.Contains(out, []byte("/FgImg")) {
		t.Errorf("expected assembled output to reference MRC XObjects")
	}
}

func TestRunnerSkipPageCopiesUnchanged(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(inPath, buildMinimalPDF("q 1 0 0 1 0 0 cm Q"), 0o644); err != nil {
		t.Fatalf("writing fixture PDF: %v", err)
	}

	runner := &Runner{
		Rasterizer: fakeRasterizer{w: 16, h: 16},
		Store:      cache.NewStore(filepath.Join(dir, "cache")),
		Encoder:    fakeEncoder{},
		Redaction:  mrc.NoopRedaction{},
	}

	job := Job{
		Input:            inPath,
		Output:           filepath.Join(dir, "out.pdf"),
		Cfg:              config.MergedConfig{ColorMode: config.Skip, DPI: 72, ParallelWorkers: 1},
		PageModeOverride: map[uint32]config.ColorMode{0: config.Skip},
	}

	out, pages, err := runner.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pages != 1 {
		t.Fatalf("expected 1 page, got %d", pages)
	}
	if !bytes.Contains(out, []byte("MediaBox")) {
		t.Errorf("expected the skipped page's MediaBox to survive the deep copy")
	}
}

func TestRunAllContinuesPastJobFailure(t *testing.T) {
	dir := t.TempDir()
	goodPath := filepath.Join(dir, "good.pdf")
	if err := os.WriteFile(goodPath, buildMinimalPDF("q Q"), 0o644); err != nil {
		t.Fatalf("writing fixture PDF: %v", err)
	}

	runner := &Runner{
		Rasterizer: fakeRasterizer{w: 8, h: 8},
		Store:      cache.NewStore(filepath.Join(dir, "cache")),
		Encoder:    fakeEncoder{},
		Redaction:  mrc.NoopRedaction{},
	}

	jobs := []Job{
		{Input: filepath.Join(dir, "missing.pdf"), Output: filepath.Join(dir, "missing-out.pdf"),
			Cfg: config.MergedConfig{ColorMode: config.RGB, DPI: 72, ParallelWorkers: 1}},
		{Input: goodPath, Output: filepath.Join(dir, "good-out.pdf"),
			Cfg: config.MergedConfig{ColorMode: config.RGB, DPI: 72, BgQuality: 50, FgQuality: 30, ParallelWorkers: 1}},
	}

	results := runner.RunAll(context.Background(), jobs)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err == nil {
		t.Errorf("expected the missing-input job to fail")
	}
	if results[1].Err != nil {
		t.Errorf("expected the second job to succeed despite the first failing: %v", results[1].Err)
	}
	if _, err := os.Stat(jobs[1].Output); err != nil {
		t.Errorf("expected the second job's output file to be written: %v", err)
	}
}
