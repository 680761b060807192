// Package jpegenc encodes RGB or grayscale pixel arrays into JPEG byte
// sequences. No third-party pure-Go JPEG encoder in the reference
// corpus improves on the standard library's (image/jpeg is what every
// example repo that needs a JPEG encoder ends up calling); using it
// here is the justified stdlib exception recorded in the module's
// grounding ledger.
package jpegenc

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
)

// Encode encodes pix (w*h*channels bytes, channels=3 for RGB or 1 for
// grayscale) at the given quality (1-100).
func Encode(pix []byte, w, h, channels, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		return nil, errtyp.Newf(errtyp.JpegEncode, "jpeg encode: quality %d out of range [1,100]", quality)
	}
	if channels != 1 && channels != 3 {
		return nil, errtyp.Newf(errtyp.JpegEncode, "jpeg encode: unsupported channel count %d", channels)
	}
	if len(pix) != w*h*channels {
		return nil, errtyp.Newf(errtyp.JpegEncode, "jpeg encode: input length %d does not match %dx%d at %d channels", len(pix), w, h, channels)
	}

	var img image.Image
	if channels == 1 {
		gray := image.NewGray(image.Rect(0, 0, w, h))
		copy(gray.Pix, pix)
		img = gray
	} else {
		rgba := image.NewRGBA(image.Rect(0, 0, w, h))
		for i := 0; i < w*h; i++ {
			rgba.Pix[i*4+0] = pix[i*3+0]
			rgba.Pix[i*4+1] = pix[i*3+1]
			rgba.Pix[i*4+2] = pix[i*3+2]
			rgba.Pix[i*4+3] = 0xFF
		}
		img = rgba
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, errtyp.Wrap(errtyp.JpegEncode, err, "jpeg.Encode failed")
	}
	return buf.Bytes(), nil
}
