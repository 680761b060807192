package font

import (
	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
	"github.com/mrcpdf/mrcpdf/pkg/log"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/encoding/charmap"
)

// ParsedFont is a font program plus the metadata needed to decode show
// strings and emit glyph outlines: font program bytes, encoding,
// glyph-width table, and units-per-EM.
type ParsedFont struct {
	Name      string
	Bytes     []byte
	FaceIndex int
	Encoding  Encoding

	// Widths maps character code -> advance in 1/1000 EM. When a code
	// is absent, DefaultWidth applies.
	Widths       map[uint16]float64
	DefaultWidth float64
	UnitsPerEm   uint16

	face *sfnt.Font
}

// Parse builds a ParsedFont from a font program's raw bytes. If
// widths is nil or empty, per-code widths are later derived from the
// resolved face via GlyphAdvance.
func Parse(name string, programBytes []byte, enc Encoding, widths map[uint16]float64, defaultWidth float64) (*ParsedFont, error) {
	if enc.Kind == EncodingIdentityH && !enc.CIDToGIDIdentity {
		return nil, errtyp.New(errtyp.Render, "non-identity CIDToGIDMap stream is not supported")
	}

	pf := &ParsedFont{
		Name:         name,
		Bytes:        programBytes,
		Encoding:     enc,
		Widths:       widths,
		DefaultWidth: defaultWidth,
	}

	if len(programBytes) > 0 {
		face, err := sfnt.Parse(programBytes)
		if err != nil {
			return nil, errtyp.Wrapf(errtyp.Render, err, "parsing embedded font program for %s", name)
		}
		pf.face = face
		pf.UnitsPerEm = uint16(face.UnitsPerEm())
	}

	return pf, nil
}

// IdentityH implements contentstream.FontMetrics.
func (pf *ParsedFont) IdentityH() bool {
	return pf.Encoding.Kind == EncodingIdentityH
}

// Width implements contentstream.FontMetrics: returns the advance
// width for code in 1/1000 EM, falling back to a face query when no
// width table entry exists (the standard-fourteen-fonts case), and
// finally to DefaultWidth.
func (pf *ParsedFont) Width(code uint16) float64 {
	if w, ok := pf.Widths[code]; ok {
		return w
	}
	if pf.face != nil {
		if w, ok := pf.faceAdvance(code); ok {
			return w
		}
	}
	return pf.DefaultWidth
}

func (pf *ParsedFont) faceAdvance(code uint16) (float64, bool) {
	var buf sfnt.Buffer
	gi, err := pf.glyphIndexForCode(&buf, code)
	if err != nil || gi == 0 {
		return 0, false
	}
	adv, err := pf.face.GlyphAdvance(&buf, gi, fixed.Int26_6(pf.face.UnitsPerEm())<<6, 0)
	if err != nil {
		return 0, false
	}
	units := float64(pf.face.UnitsPerEm())
	if units == 0 {
		return 0, false
	}
	return float64(adv) / 64 / units * 1000, true
}

func (pf *ParsedFont) glyphIndexForCode(buf *sfnt.Buffer, code uint16) (sfnt.GlyphIndex, error) {
	if pf.Encoding.Kind == EncodingIdentityH {
		// Identity CIDToGIDMap: the code IS the glyph index.
		return sfnt.GlyphIndex(code), nil
	}
	r, ok := charmap.Windows1252.DecodeByte(byte(code))
	if !ok {
		log.Parse.Printf("glyphIndexForCode: no WinAnsi mapping for code 0x%02x\n", code)
		return 0, nil
	}
	return pf.face.GlyphIndex(buf, r)
}

// Outline returns code's glyph outline as a sequence of path
// operations in font design units, converting quadratic TrueType
// segments to cubics via the standard 2/3 control-point rule. Outline
// segments that arrive already cubic (CFF/OpenType fonts) are not
// emitted — only moves, lines, and converted quadratics are.
func (pf *ParsedFont) Outline(code uint16) ([]PathOp, error) {
	if pf.face == nil {
		return nil, errtyp.New(errtyp.Render, "glyph outline requested with no embedded or resolved font program")
	}
	var buf sfnt.Buffer
	gi, err := pf.glyphIndexForCode(&buf, code)
	if err != nil {
		return nil, errtyp.Wrap(errtyp.Render, err, "resolving glyph index")
	}
	if gi == 0 {
		return nil, nil
	}

	segs, err := pf.face.LoadGlyph(&buf, gi, fixed.Int26_6(pf.face.UnitsPerEm())<<6, nil)
	if err != nil {
		return nil, errtyp.Wrap(errtyp.Render, err, "loading glyph outline")
	}

	var ops []PathOp
	var cur fixed.Point26_6
	toF := func(p fixed.Point26_6) (float64, float64) {
		return float64(p.X) / 64, float64(p.Y) / 64
	}

	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			x, y := toF(seg.Args[0])
			ops = append(ops, PathOp{Kind: MoveTo, X: x, Y: y})
			cur = seg.Args[0]
		case sfnt.SegmentOpLineTo:
			x, y := toF(seg.Args[0])
			ops = append(ops, PathOp{Kind: LineTo, X: x, Y: y})
			cur = seg.Args[0]
		case sfnt.SegmentOpQuadTo:
			c1x, c1y, ex, ey := quadToCubicControl1(cur, seg.Args[0])
			c2x, c2y, _, _ := quadToCubicControl2(cur, seg.Args[0], seg.Args[1])
			fx, fy := toF(seg.Args[1])
			ops = append(ops, PathOp{
				Kind: CubicTo, X: fx, Y: fy,
				CtrlX: c1x, CtrlY: c1y, Ctrl2X: c2x, Ctrl2Y: c2y,
			})
			_ = ex
			_ = ey
			cur = seg.Args[1]
		case sfnt.SegmentOpCubeTo:
			// Documented gap: native cubic segments are not emitted.
			log.Parse.Printf("Outline: dropping native cubic segment for code 0x%04x\n", code)
			cur = seg.Args[2]
		}
	}
	ops = append(ops, PathOp{Kind: Close})

	return ops, nil
}

// quadToCubicControl1/2 apply the standard formula for converting a
// quadratic Bezier (p0, c, p1) into an equivalent cubic:
// c1 = p0 + 2/3*(c-p0), c2 = p1 + 2/3*(c-p1).
func quadToCubicControl1(p0, c fixed.Point26_6) (x, y, ex, ey float64) {
	p0x, p0y := float64(p0.X)/64, float64(p0.Y)/64
	cx, cy := float64(c.X)/64, float64(c.Y)/64
	return p0x + 2.0/3.0*(cx-p0x), p0y + 2.0/3.0*(cy-p0y), 0, 0
}

func quadToCubicControl2(p0, c, p1 fixed.Point26_6) (x, y, ex, ey float64) {
	cx, cy := float64(c.X)/64, float64(c.Y)/64
	p1x, p1y := float64(p1.X)/64, float64(p1.Y)/64
	return p1x + 2.0/3.0*(cx-p1x), p1y + 2.0/3.0*(cy-p1y), 0, 0
}
