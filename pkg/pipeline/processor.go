// Package pipeline wires the page processor, job runner, and batch
// orchestrator together: per-page cache lookup and MRC compositing,
// fanned out across a worker pool, assembled and optimised into the
// output PDF bytes for each job.
package pipeline

import (
	"github.com/mrcpdf/mrcpdf/pkg/cache"
	"github.com/mrcpdf/mrcpdf/pkg/config"
	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
	"github.com/mrcpdf/mrcpdf/pkg/font"
	"github.com/mrcpdf/mrcpdf/pkg/jbig2"
	"github.com/mrcpdf/mrcpdf/pkg/mrc"
	"github.com/mrcpdf/mrcpdf/pkg/raster"
)

// PageInput bundles everything the processor needs for one page.
type PageInput struct {
	PageIndex     uint32
	Bitmap        *raster.Bitmap
	ContentStream []byte
	Mode          config.ColorMode
	PageWidthPts  float64
	PageHeightPts float64
	Fonts         map[string]*font.ParsedFont
}

// Processor computes a page's cache key, serves a cache hit, and
// invokes the MRC compositor on miss, writing the result back.
type Processor struct {
	Store      *cache.Store
	PDFPath    string
	Cfg        config.MergedConfig
	Encoder    jbig2.Encoder
	Redaction  mrc.RedactionRule
	SegOptions mrc.SegmentOptions
}

// NewProcessor builds a Processor over the given cache store, encoder,
// and redaction rule (pass mrc.NoopRedaction{} when no rule is set).
func NewProcessor(store *cache.Store, pdfPath string, cfg config.MergedConfig, enc jbig2.Encoder, rule mrc.RedactionRule) *Processor {
	return &Processor{
		Store:     store,
		PDFPath:   pdfPath,
		Cfg:       cfg,
		Encoder:   enc,
		Redaction: rule,
		SegOptions: mrc.SegmentOptions{
			TileSize:       48,
			MergeDistance:  8,
			EightConnected: true,
		},
	}
}

// Process returns the page's PageOutput, either from cache or freshly
// composited, writing a fresh result back to the cache on miss. Skip
// pages never touch the cache or compositor.
func (p *Processor) Process(in PageInput) (mrc.PageOutput, error) {
	if in.Mode == config.Skip {
		return mrc.PageOutput{Kind: mrc.KindSkip, PageIndex: in.PageIndex}, nil
	}

	settings := cache.Settings{
		DPI:            p.Cfg.DPI,
		FgDPI:          p.Cfg.FgDPI,
		BgQuality:      p.Cfg.BgQuality,
		FgQuality:      p.Cfg.FgQuality,
		PreserveImages: p.Cfg.PreserveImages,
		ColorMode:      in.Mode,
	}
	key := cache.ComputeKey(p.PDFPath, in.PageIndex, in.ContentStream, settings)

	dims := [2]uint32{in.Bitmap.Width, in.Bitmap.Height}
	if cached, err := p.Store.Retrieve(key, in.Mode, &dims); err != nil {
		return mrc.PageOutput{}, errtyp.Wrapf(errtyp.Cache, err, "retrieving page %d from cache", in.PageIndex)
	} else if cached != nil {
		cached.PageIndex = in.PageIndex
		return *cached, nil
	}

	out, err := p.composite(in)
	if err != nil {
		return mrc.PageOutput{}, err
	}

	if err := p.writeBack(key, out, in); err != nil {
		return mrc.PageOutput{}, errtyp.Wrapf(errtyp.Cache, err, "writing page %d back to cache", in.PageIndex)
	}

	return out, nil
}

func (p *Processor) composite(in PageInput) (mrc.PageOutput, error) {
	q := mrc.Quality{BgQuality: p.Cfg.BgQuality, FgQuality: p.Cfg.FgQuality}

	if p.Cfg.PreserveImages {
		data, err := mrc.CompositeTextMasked(
			in.PageIndex, in.ContentStream, in.Bitmap.Pix, in.Bitmap.Width, in.Bitmap.Height,
			in.PageWidthPts, in.PageHeightPts, in.Mode, p.SegOptions, p.Encoder, p.Redaction,
			in.Fonts, p.Cfg.TextToOutlines,
		)
		if err != nil {
			return mrc.PageOutput{}, errtyp.Wrapf(errtyp.Render, err, "text-masked compositing page %d", in.PageIndex)
		}
		return mrc.PageOutput{Kind: mrc.KindTextMasked, PageIndex: in.PageIndex, TextMasked: data}, nil
	}

	if in.Mode == config.BW {
		layers, err := mrc.CompositeBW(
			in.Bitmap.Pix, in.Bitmap.Width, in.Bitmap.Height, in.PageWidthPts, in.PageHeightPts,
			p.SegOptions, p.Encoder,
		)
		if err != nil {
			return mrc.PageOutput{}, errtyp.Wrapf(errtyp.Render, err, "BW compositing page %d", in.PageIndex)
		}
		return mrc.PageOutput{Kind: mrc.KindBw, PageIndex: in.PageIndex, Bw: layers}, nil
	}

	layers, err := mrc.CompositeMRC(
		in.Bitmap.Pix, in.Bitmap.Width, in.Bitmap.Height, in.PageWidthPts, in.PageHeightPts,
		in.Mode, q, p.SegOptions, p.Encoder,
	)
	if err != nil {
		return mrc.PageOutput{}, errtyp.Wrapf(errtyp.Render, err, "MRC compositing page %d", in.PageIndex)
	}
	return mrc.PageOutput{Kind: mrc.KindMrc, PageIndex: in.PageIndex, Mrc: layers}, nil
}

func (p *Processor) writeBack(key string, out mrc.PageOutput, in PageInput) error {
	switch out.Kind {
	case mrc.KindMrc, mrc.KindBw:
		return p.Store.StoreMRCOrBW(key, out)
	case mrc.KindTextMasked:
		return p.Store.StoreTextMasked(key, out.TextMasked, in.Bitmap.Width, in.Bitmap.Height)
	}
	return nil
}
