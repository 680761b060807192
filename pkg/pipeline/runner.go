package pipeline

import (
	"context"
	"os"
	"runtime"
	"sync"

	"github.com/mrcpdf/mrcpdf/pkg/cache"
	"github.com/mrcpdf/mrcpdf/pkg/config"
	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
	"github.com/mrcpdf/mrcpdf/pkg/font"
	"github.com/mrcpdf/mrcpdf/pkg/jbig2"
	"github.com/mrcpdf/mrcpdf/pkg/log"
	"github.com/mrcpdf/mrcpdf/pkg/mrc"
	"github.com/mrcpdf/mrcpdf/pkg/pdfdoc"
	"github.com/mrcpdf/mrcpdf/pkg/raster"
)

// Job is one input/output PDF pair plus its resolved per-job settings.
type Job struct {
	Input            string
	Output           string
	Cfg              config.MergedConfig
	PageModeOverride map[uint32]config.ColorMode
	// FontsByPage supplies the parsed fonts available on each page, used
	// only when Cfg.PreserveImages && Cfg.TextToOutlines.
	FontsByPage map[uint32]map[string]*font.ParsedFont
}

// Runner drives one job end to end: open, rasterise, process pages in
// parallel, assemble, optimise, serialise.
type Runner struct {
	Rasterizer raster.Rasterizer
	Store      *cache.Store
	Encoder    jbig2.Encoder
	Redaction  mrc.RedactionRule
}

func modeFor(job Job, pageIndex uint32) config.ColorMode {
	if m, ok := job.PageModeOverride[pageIndex]; ok {
		return m
	}
	return job.Cfg.ColorMode
}

// Run executes job: it opens Input, resolves each selected page's
// colour mode, renders every non-skip page sequentially (the
// rasteriser typically requires single-threaded access), fans the
// per-page MRC work out to a worker pool, assembles the result in
// page order, optimises it, and returns the serialised output bytes.
func (r *Runner) Run(ctx context.Context, job Job) ([]byte, int, error) {
	raw, err := os.ReadFile(job.Input)
	if err != nil {
		return nil, 0, errtyp.Wrap(errtyp.PdfRead, err, "reading input PDF "+job.Input)
	}
	srcDoc, err := pdfdoc.Parse(raw)
	if err != nil {
		return nil, 0, errtyp.Wrap(errtyp.PdfRead, err, "parsing input PDF "+job.Input)
	}
	pages, err := srcDoc.Pages()
	if err != nil {
		return nil, 0, errtyp.Wrap(errtyp.PdfRead, err, "walking page tree of "+job.Input)
	}

	type renderedPage struct {
		page    pdfdoc.Page
		input   PageInput
		mode    config.ColorMode
		content []byte
	}

	toProcess := make([]renderedPage, 0, len(pages))
	for i, pg := range pages {
		idx := uint32(i)
		mode := modeFor(job, idx)
		if mode == config.Skip {
			toProcess = append(toProcess, renderedPage{page: pg, mode: mode})
			continue
		}

		content, err := srcDoc.ContentStreamBytes(pg)
		if err != nil {
			return nil, 0, errtyp.Wrapf(errtyp.PdfRead, err, "reading content stream of page %d", idx)
		}

		bitmap, err := r.Rasterizer.RenderPage(ctx, job.Input, idx, job.Cfg.DPI)
		if err != nil {
			return nil, 0, errtyp.Wrapf(errtyp.Render, err, "rasterising page %d", idx)
		}

		width, height := pg.MediaBox.Width(), pg.MediaBox.Height()
		toProcess = append(toProcess, renderedPage{
			page: pg,
			mode: mode,
			input: PageInput{
				PageIndex:     idx,
				Bitmap:        bitmap,
				ContentStream: content,
				Mode:          mode,
				PageWidthPts:  width,
				PageHeightPts: height,
				Fonts:         job.FontsByPage[idx],
			},
		})
	}

	processor := NewProcessor(r.Store, job.Input, job.Cfg, r.Encoder, r.Redaction)

	workers := job.Cfg.ParallelWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]mrc.PageOutput, len(toProcess))
	errs := make([]error, len(toProcess))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, rp := range toProcess {
		if rp.mode == config.Skip {
			results[i] = mrc.PageOutput{Kind: mrc.KindSkip, PageIndex: uint32(i)}
			continue
		}
		i, rp := i, rp
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			out, err := processor.Process(rp.input)
			results[i] = out
			errs[i] = err
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, 0, err
		}
	}

	// results is already in page-index order: each slot was filled at
	// its own index regardless of which goroutine finished first.
	asm := pdfdoc.NewAssembler(srcDoc)
	for i, out := range results {
		switch out.Kind {
		case mrc.KindMrc:
			if err := asm.AddMRCPage(out.Mrc); err != nil {
				return nil, 0, err
			}
		case mrc.KindBw:
			if err := asm.AddBWPage(out.Bw); err != nil {
				return nil, 0, err
			}
		case mrc.KindTextMasked:
			if err := asm.AddTextMaskedPage(toProcess[i].page, out.TextMasked); err != nil {
				return nil, 0, err
			}
		case mrc.KindSkip:
			if err := asm.AddSkipPage(toProcess[i].page); err != nil {
				return nil, 0, err
			}
		}
	}

	outDoc, err := asm.Finalize()
	if err != nil {
		return nil, 0, errtyp.Wrap(errtyp.PdfWrite, err, "finalising assembled document")
	}
	if err := pdfdoc.Optimize(outDoc); err != nil {
		return nil, 0, errtyp.Wrap(errtyp.PdfWrite, err, "optimising assembled document")
	}

	out, err := pdfdoc.Write(outDoc)
	if err != nil {
		return nil, 0, errtyp.Wrap(errtyp.PdfWrite, err, "serialising output PDF")
	}

	log.Pipeline.Printf("job: %s -> %s (%d pages)\n", job.Input, job.Output, len(pages))
	return out, len(pages), nil
}
