// Package jbig2 defines the JBIG2 encoder collaborator interface and a
// thin, validating core wrapper around it. The concrete generic-region
// encoder is an external collaborator outside this module's scope;
// this package only validates inputs and owns the returned byte
// sequence.
package jbig2

import "github.com/mrcpdf/mrcpdf/pkg/errtyp"

// Options configures generic-region encoding.
type Options struct {
	// DuplicateLineRemoval enables TPGD (typical-prediction / duplicate
	// line removal). The core always requests this on.
	DuplicateLineRemoval bool
	// TemplatePosition selects the generic-region context template;
	// "auto" lets the encoder choose.
	TemplatePosition string
	// Refinement must be false: this module never requests refinement
	// coding.
	Refinement bool
}

// DefaultOptions returns the options this module always requests: TPGD
// on, automatic template position, no refinement.
func DefaultOptions() Options {
	return Options{DuplicateLineRemoval: true, TemplatePosition: "auto", Refinement: false}
}

// Encoder is the external collaborator: generic-region JBIG2 encoding
// of a packed 1-bpp buffer.
type Encoder interface {
	EncodeGenericRegion(bits []byte, width, height int, opts Options) ([]byte, error)
}

// Encode validates that bits packs exactly width x height 1-bpp pixels
// and that enc returned a non-empty result, converting ownership of
// the returned buffer into a fresh byte sequence.
func Encode(enc Encoder, bits []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, errtyp.New(errtyp.Jbig2Encode, "jbig2 encode: non-positive dimensions")
	}
	stride := (width + 7) / 8
	if len(bits) != stride*height {
		return nil, errtyp.Newf(errtyp.Jbig2Encode, "jbig2 encode: expected %d bytes for %dx%d 1bpp, got %d", stride*height, width, height, len(bits))
	}

	out, err := enc.EncodeGenericRegion(bits, width, height, DefaultOptions())
	if err != nil {
		return nil, errtyp.Wrap(errtyp.Jbig2Encode, err, "jbig2 generic-region encode failed")
	}
	if len(out) == 0 {
		return nil, errtyp.New(errtyp.Jbig2Encode, "jbig2 encode: encoder returned zero-length result")
	}

	owned := make([]byte, len(out))
	copy(owned, out)
	return owned, nil
}
