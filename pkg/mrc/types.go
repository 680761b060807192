// Package mrc implements the Mixed Raster Content compositor: given a
// rasterised page it produces the three-layer MRC output, a BW-only
// mask, or a text-masked variant that preserves embedded images.
package mrc

import (
	"github.com/mrcpdf/mrcpdf/pkg/config"
	"github.com/mrcpdf/mrcpdf/pkg/contentstream"
)

// PageOutputKind tags the four PageOutput variants.
type PageOutputKind int

const (
	KindMrc PageOutputKind = iota
	KindBw
	KindTextMasked
	KindSkip
)

// MrcLayers is the full three-layer MRC result: JBIG2 mask, JPEG
// foreground and background, in RGB or Grayscale colour mode.
type MrcLayers struct {
	MaskJBIG2      []byte
	ForegroundJPEG []byte
	BackgroundJPEG []byte
	Width, Height  uint32
	PageWidthPts   float64
	PageHeightPts  float64
	ColorMode      config.ColorMode
}

// BwLayers is the BW-only result: a JBIG2 mask with bit polarity
// 1 = ink, 0 = paper, and no JPEG layers.
type BwLayers struct {
	MaskJBIG2     []byte
	Width, Height uint32
	PageWidthPts  float64
	PageHeightPts float64
}

// TextRegionCrop is one detected text region's JBIG2-encoded crop,
// its PDF-point bounding box, and its pixel dimensions.
type TextRegionCrop struct {
	JBIG2Data               []byte
	BBoxPoints              contentstream.BBox
	PixelWidth, PixelHeight uint32
}

// ImageModification is a redaction-rewritten image XObject payload.
type ImageModification struct {
	Data             []byte
	Filter           string
	ColorSpace       string
	BitsPerComponent uint8
}

// TextMaskedData is the preserve-images output variant: the original
// content stream with BT…ET removed, the detected text-region crops,
// and any redaction-modified image payloads keyed by XObject name.
type TextMaskedData struct {
	StrippedContentStream []byte
	TextRegions           []TextRegionCrop
	ModifiedImages        map[string]ImageModification
	PageIndex             uint32
	PageWidthPts          float64
	PageHeightPts         float64
	ColorMode             config.ColorMode
}

// PageOutput is the tagged variant produced by the page processor for
// one page: exactly one of Mrc, Bw, TextMasked is populated per Kind;
// Skip carries only the page index.
type PageOutput struct {
	Kind        PageOutputKind
	PageIndex   uint32
	Mrc         *MrcLayers
	Bw          *BwLayers
	TextMasked  *TextMaskedData
}
