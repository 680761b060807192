package mrc

import (
	"fmt"
	"strings"

	"github.com/mrcpdf/mrcpdf/pkg/config"
	"github.com/mrcpdf/mrcpdf/pkg/contentstream"
	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
	"github.com/mrcpdf/mrcpdf/pkg/font"
	"github.com/mrcpdf/mrcpdf/pkg/jbig2"
	"github.com/mrcpdf/mrcpdf/pkg/jpegenc"
	"github.com/mrcpdf/mrcpdf/pkg/matrix"
	"github.com/mrcpdf/mrcpdf/pkg/segment"
)

// Quality carries the two JPEG quality settings a job configures.
type Quality struct {
	BgQuality uint8
	FgQuality uint8
}

// SegmentOptions configures the binariser/segmenter thin core for
// text-masked composition.
type SegmentOptions struct {
	TileSize       int
	MergeDistance  int
	EightConnected bool
}

// RedactionRule decides whether an image placement overlapping a
// redaction rectangle should be rewritten, and produces the
// replacement payload. The default implementation is a placeholder
// per the module's design notes: it never rewrites anything. Callers
// needing an actual redaction policy must supply their own rule.
type RedactionRule interface {
	Redact(placement contentstream.XObjectPlacement, rects []contentstream.BBox) (*ImageModification, bool)
}

// NoopRedaction is the placeholder RedactionRule: it leaves every
// image payload unchanged regardless of overlap with a redaction
// rectangle.
type NoopRedaction struct{}

// Redact always reports no modification.
func (NoopRedaction) Redact(_ contentstream.XObjectPlacement, _ []contentstream.BBox) (*ImageModification, bool) {
	return nil, false
}

func overlaps(a, b contentstream.BBox) bool {
	return a.Xmin < b.Xmax && b.Xmin < a.Xmax && a.Ymin < b.Ymax && b.Ymin < a.Ymax
}

// CompositeMRC produces the full three-layer MRC result for an RGB or
// Grayscale page: binarise the page to a JBIG2 mask, and JPEG-encode
// the RGBA bitmap as both background (bg_quality) and foreground
// (fg_quality) layers. Grayscale mode converts the RGBA to 8-bpp
// before both JPEG encodes.
func CompositeMRC(rgba []byte, width, height uint32, pageWidthPts, pageHeightPts float64, mode config.ColorMode, q Quality, seg SegmentOptions, enc jbig2.Encoder) (*MrcLayers, error) {
	if mode != config.RGB && mode != config.Grayscale {
		return nil, errtyp.Newf(errtyp.ContentStream, "mrc composite: unsupported color mode %s", mode)
	}

	gray := segment.RGBAToGray8(rgba, int(width), int(height))
	bits := segment.BinarizeAdaptive(gray, int(width), int(height), seg.TileSize)
	mask, err := jbig2.Encode(enc, bits, int(width), int(height))
	if err != nil {
		return nil, err
	}

	var bgJPEG, fgJPEG []byte
	if mode == config.Grayscale {
		bgJPEG, err = jpegenc.Encode(gray, int(width), int(height), 1, int(q.BgQuality))
		if err != nil {
			return nil, err
		}
		fgJPEG, err = jpegenc.Encode(gray, int(width), int(height), 1, int(q.FgQuality))
		if err != nil {
			return nil, err
		}
	} else {
		rgb := dropAlpha(rgba, int(width), int(height))
		bgJPEG, err = jpegenc.Encode(rgb, int(width), int(height), 3, int(q.BgQuality))
		if err != nil {
			return nil, err
		}
		fgJPEG, err = jpegenc.Encode(rgb, int(width), int(height), 3, int(q.FgQuality))
		if err != nil {
			return nil, err
		}
	}

	return &MrcLayers{
		MaskJBIG2:      mask,
		ForegroundJPEG: fgJPEG,
		BackgroundJPEG: bgJPEG,
		Width:          width,
		Height:         height,
		PageWidthPts:   pageWidthPts,
		PageHeightPts:  pageHeightPts,
		ColorMode:      mode,
	}, nil
}

// CompositeBW produces the BW-only mask: binarise the page to a
// packed 1-bpp buffer and JBIG2-encode it. No JPEG layers are
// produced.
func CompositeBW(rgba []byte, width, height uint32, pageWidthPts, pageHeightPts float64, seg SegmentOptions, enc jbig2.Encoder) (*BwLayers, error) {
	gray := segment.RGBAToGray8(rgba, int(width), int(height))
	bits := segment.BinarizeAdaptive(gray, int(width), int(height), seg.TileSize)
	mask, err := jbig2.Encode(enc, bits, int(width), int(height))
	if err != nil {
		return nil, err
	}
	return &BwLayers{
		MaskJBIG2:     mask,
		Width:         width,
		Height:        height,
		PageWidthPts:  pageWidthPts,
		PageHeightPts: pageHeightPts,
	}, nil
}

// CompositeTextMasked implements the preserve-images variant: strip
// BT…ET from the content stream, locate text regions in the
// rasterised page via the segmenter, crop and JBIG2-encode each
// region, and convert pixel bboxes to PDF points (Y axis inverted).
// Image XObjects overlapping a redaction rectangle are rewritten by
// rule. When fonts and textToOutlines are both non-nil/true, glyph
// outlines are appended as vector path operators to the stripped
// stream instead of being dropped.
func CompositeTextMasked(pageIndex uint32, contentBytes []byte, rgba []byte, width, height uint32, pageWidthPts, pageHeightPts float64, mode config.ColorMode, seg SegmentOptions, enc jbig2.Encoder, rule RedactionRule, fonts map[string]*font.ParsedFont, textToOutlines bool) (*TextMaskedData, error) {
	if rule == nil {
		rule = NoopRedaction{}
	}

	stripped, err := contentstream.StripTextObjects(contentBytes)
	if err != nil {
		return nil, err
	}

	redactionRects, err := contentstream.ExtractWhiteFillRects(contentBytes)
	if err != nil {
		return nil, err
	}
	placements, err := contentstream.ExtractXObjectPlacements(contentBytes)
	if err != nil {
		return nil, err
	}

	gray := segment.RGBAToGray8(rgba, int(width), int(height))
	boxes, bits, err := segment.Segment(gray, int(width), int(height), seg.TileSize, seg.MergeDistance, seg.EightConnected)
	if err != nil {
		return nil, err
	}

	ptPerPxX := pageWidthPts / float64(width)
	ptPerPxY := pageHeightPts / float64(height)
	stride := (int(width) + 7) / 8

	regions := make([]TextRegionCrop, 0, len(boxes))
	for _, b := range boxes {
		w := b.Xmax - b.Xmin + 1
		h := b.Ymax - b.Ymin + 1
		crop := cropBits(bits, stride, int(width), int(height), b)
		data, err := jbig2.Encode(enc, crop, w, h)
		if err != nil {
			return nil, err
		}

		xMinPt := float64(b.Xmin) * ptPerPxX
		xMaxPt := float64(b.Xmax+1) * ptPerPxX
		yMinPt := pageHeightPts - float64(b.Ymax+1)*ptPerPxY
		yMaxPt := pageHeightPts - float64(b.Ymin)*ptPerPxY

		regions = append(regions, TextRegionCrop{
			JBIG2Data:   data,
			BBoxPoints:  contentstream.BBox{Xmin: xMinPt, Ymin: yMinPt, Xmax: xMaxPt, Ymax: yMaxPt},
			PixelWidth:  uint32(w),
			PixelHeight: uint32(h),
		})
	}

	modified := make(map[string]ImageModification)
	for _, p := range placements {
		for _, r := range redactionRects {
			if !overlaps(p.BBox, r) {
				continue
			}
			if mod, ok := rule.Redact(p, redactionRects); ok {
				modified[p.Name] = *mod
			}
			break
		}
	}

	if textToOutlines {
		outlined, err := appendGlyphOutlines(stripped, contentBytes, fonts)
		if err != nil {
			return nil, err
		}
		stripped = outlined
	}

	return &TextMaskedData{
		StrippedContentStream: stripped,
		TextRegions:           regions,
		ModifiedImages:        modified,
		PageIndex:             pageIndex,
		PageWidthPts:          pageWidthPts,
		PageHeightPts:         pageHeightPts,
		ColorMode:             mode,
	}, nil
}

func dropAlpha(rgba []byte, w, h int) []byte {
	out := make([]byte, w*h*3)
	for i := 0; i < w*h; i++ {
		out[i*3+0] = rgba[i*4+0]
		out[i*3+1] = rgba[i*4+1]
		out[i*3+2] = rgba[i*4+2]
	}
	return out
}

func cropBits(bits []byte, stride, w, h int, b segment.PixelBBox) []byte {
	cw := b.Xmax - b.Xmin + 1
	ch := b.Ymax - b.Ymin + 1
	cstride := (cw + 7) / 8
	out := make([]byte, cstride*ch)
	for y := 0; y < ch; y++ {
		srcY := b.Ymin + y
		for x := 0; x < cw; x++ {
			srcX := b.Xmin + x
			byteIdx := srcY*stride + srcX/8
			bitIdx := 7 - uint(srcX%8)
			if bits[byteIdx]&(1<<bitIdx) == 0 {
				continue
			}
			dstByte := y*cstride + x/8
			dstBit := 7 - uint(x%8)
			out[dstByte] |= 1 << dstBit
		}
	}
	return out
}

// appendGlyphOutlines runs the content-stream text-state machine over
// the original bytes and appends each resolved glyph's outline as a
// `m`/`l`/`c` path block (filled with the show operator's fill colour)
// to stripped. Glyphs with no resolvable outline, or whose segments
// are entirely dropped by the documented cubic-outline gap, contribute
// no path. fonts may be nil, in which case stripped is returned as-is.
func appendGlyphOutlines(stripped, original []byte, fonts map[string]*font.ParsedFont) ([]byte, error) {
	if len(fonts) == 0 {
		return stripped, nil
	}

	metrics := make(map[string]contentstream.FontMetrics, len(fonts))
	for name, pf := range fonts {
		metrics[name] = pf
	}

	ops, err := contentstream.Run(original, matrix.Identity, metrics)
	if err != nil {
		return nil, err
	}

	var out strings.Builder
	out.Write(stripped)
	out.WriteByte('\n')

	for _, cmd := range ops.Commands {
		pf := fonts[cmd.Font]
		if pf == nil || cmd.FontSize == 0 {
			continue
		}
		unitsPerEm := float64(pf.UnitsPerEm)
		if unitsPerEm == 0 {
			unitsPerEm = 1000
		}

		pen := 0.0
		for _, code := range cmd.Codes {
			glyphScale := cmd.FontSize / unitsPerEm
			glyphMatrix := matrix.New(glyphScale*cmd.HScale/100, 0, 0, glyphScale, pen, cmd.Rise).
				Multiply(cmd.Tm).Multiply(cmd.CTM)

			outline, err := pf.Outline(code)
			if err == nil && len(outline) > 0 {
				writeOutline(&out, outline, glyphMatrix, cmd.FillColour)
			}

			singleByte := !pf.IdentityH()
			w := pf.Width(code)
			pen += advanceFor(w, cmd.FontSize, cmd.CharSpacing, cmd.HScale, code, cmd.WordSpacing, singleByte)
		}
	}

	return []byte(out.String()), nil
}

func advanceFor(w, fontSize, tc, tz float64, code uint16, tw float64, singleByte bool) float64 {
	base := (w/1000*fontSize + tc) * (tz / 100)
	if singleByte && code == 0x20 {
		base += tw * (tz / 100)
	}
	return base
}

func writeOutline(out *strings.Builder, outline []font.PathOp, m matrix.Matrix, fc contentstream.FillColour) {
	switch fc.Kind {
	case contentstream.CSGray:
		fmt.Fprintf(out, "%s g\n", fnum(fc.G))
	case contentstream.CSRGB:
		fmt.Fprintf(out, "%s %s %s rg\n", fnum(fc.R), fnum(fc.Gr), fnum(fc.B))
	case contentstream.CSCMYK:
		fmt.Fprintf(out, "%s %s %s %s k\n", fnum(fc.C), fnum(fc.M), fnum(fc.Y), fnum(fc.K))
	}

	for _, op := range outline {
		switch op.Kind {
		case font.MoveTo:
			x, y := m.TransformPoint(op.X, op.Y)
			fmt.Fprintf(out, "%s %s m\n", fnum(x), fnum(y))
		case font.LineTo:
			x, y := m.TransformPoint(op.X, op.Y)
			fmt.Fprintf(out, "%s %s l\n", fnum(x), fnum(y))
		case font.CubicTo:
			c1x, c1y := m.TransformPoint(op.CtrlX, op.CtrlY)
			c2x, c2y := m.TransformPoint(op.Ctrl2X, op.Ctrl2Y)
			x, y := m.TransformPoint(op.X, op.Y)
			fmt.Fprintf(out, "%s %s %s %s %s %s c\n", fnum(c1x), fnum(c1y), fnum(c2x), fnum(c2y), fnum(x), fnum(y))
		case font.Close:
			out.WriteString("h\n")
		}
	}
	out.WriteString("f\n")
}

func fnum(f float64) string {
	return fmt.Sprintf("%.4f", f)
}
