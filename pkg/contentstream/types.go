package contentstream

import "github.com/mrcpdf/mrcpdf/pkg/matrix"

// BBox is an axis-aligned bounding box in PDF user-space points, always
// normalised so Xmin<=Xmax and Ymin<=Ymax.
type BBox struct {
	Xmin, Ymin, Xmax, Ymax float64
}

func normalizedBBox(pts [4][2]float64) BBox {
	b := BBox{Xmin: pts[0][0], Ymin: pts[0][1], Xmax: pts[0][0], Ymax: pts[0][1]}
	for _, p := range pts[1:] {
		if p[0] < b.Xmin {
			b.Xmin = p[0]
		}
		if p[0] > b.Xmax {
			b.Xmax = p[0]
		}
		if p[1] < b.Ymin {
			b.Ymin = p[1]
		}
		if p[1] > b.Ymax {
			b.Ymax = p[1]
		}
	}
	return b
}

// bboxFromCTM maps the unit square [0,0]-[1,1] through m and takes the
// component-wise min/max of the four corners.
func bboxFromCTM(m matrix.Matrix) BBox {
	corners := [4][2]float64{}
	pts := [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for i, p := range pts {
		x, y := m.TransformPoint(p[0], p[1])
		corners[i] = [2]float64{x, y}
	}
	return normalizedBBox(corners)
}

// XObjectPlacement records one `Do name` invocation: the XObject name,
// the CTM in effect at the time, and the bbox it implies.
type XObjectPlacement struct {
	Name string
	CTM  matrix.Matrix
	BBox BBox
}

// ColourSpaceKind distinguishes the fill-colour operators that set it.
type ColourSpaceKind int

const (
	CSGray ColourSpaceKind = iota
	CSRGB
	CSCMYK
)

// FillColour is the sum type {Gray; RGB; CMYK}, default Gray 0 (black).
type FillColour struct {
	Kind       ColourSpaceKind
	G          float64
	R, Gr, B   float64
	C, M, Y, K float64
}

var defaultFillColour = FillColour{Kind: CSGray, G: 0}

const whiteTolerance = 1e-6

// IsWhite reports whether fc represents pure white within a 1e-6
// channel tolerance: all channels 1 for Gray/RGB, all 0 for CMYK.
func (fc FillColour) IsWhite() bool {
	near := func(v, want float64) bool {
		d := v - want
		if d < 0 {
			d = -d
		}
		return d <= whiteTolerance
	}
	switch fc.Kind {
	case CSGray:
		return near(fc.G, 1)
	case CSRGB:
		return near(fc.R, 1) && near(fc.Gr, 1) && near(fc.B, 1)
	case CSCMYK:
		return near(fc.C, 0) && near(fc.M, 0) && near(fc.Y, 0) && near(fc.K, 0)
	}
	return false
}

// Rect is an un-filled `re` rectangle awaiting a fill operator, in the
// CTM-mapped user space at the time `re` was executed.
type Rect struct {
	X, Y, W, H float64
	CTM        matrix.Matrix
}

// ToBBox maps the rectangle's four corners through its CTM and returns
// the resulting normalised bounding box.
func (r Rect) ToBBox() BBox {
	pts := [][2]float64{{r.X, r.Y}, {r.X + r.W, r.Y}, {r.X + r.W, r.Y + r.H}, {r.X, r.Y + r.H}}
	var corners [4][2]float64
	for i, p := range pts {
		x, y := r.CTM.TransformPoint(p[0], p[1])
		corners[i] = [2]float64{x, y}
	}
	return normalizedBBox(corners)
}
