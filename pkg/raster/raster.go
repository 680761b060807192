// Package raster defines the rasteriser collaborator interface: given
// a PDF path, a zero-based page index, and a target DPI, it returns an
// RGBA bitmap. The concrete native rasteriser is an external
// collaborator outside this module's scope; this package only defines
// the capability and a dimension-rounding helper shared by callers.
package raster

import (
	"context"

	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
)

// Bitmap is an RGBA raster of a single PDF page at a given DPI.
type Bitmap struct {
	Pix           []byte // 4 bytes per pixel, row-major, no padding
	Width, Height uint32
}

// Rasterizer renders one PDF page to an RGBA bitmap at the requested
// DPI. Implementations must reject DPI == 0.
type Rasterizer interface {
	RenderPage(ctx context.Context, pdfPath string, pageIndex uint32, dpi uint32) (*Bitmap, error)
}

// DimensionsAt returns the pixel dimensions a page of the given point
// size yields at dpi, rounded half-to-even.
func DimensionsAt(pageWidthPts, pageHeightPts float64, dpi uint32) (width, height uint32) {
	scale := float64(dpi) / 72
	return uint32(roundHalfToEven(pageWidthPts * scale)), uint32(roundHalfToEven(pageHeightPts * scale))
}

func roundHalfToEven(f float64) float64 {
	floor := float64(int64(f))
	diff := f - floor
	switch {
	case diff < 0.5:
		return floor
	case diff > 0.5:
		return floor + 1
	default:
		if int64(floor)%2 == 0 {
			return floor
		}
		return floor + 1
	}
}

// Validate rejects a zero DPI, the one precondition this collaborator
// interface imposes before delegating to a concrete implementation.
func Validate(dpi uint32) error {
	if dpi == 0 {
		return errtyp.New(errtyp.Render, "rasterizer DPI must be non-zero")
	}
	return nil
}
