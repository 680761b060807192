package main

import (
	"bytes"
	"os/exec"
	"strconv"

	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
	"github.com/mrcpdf/mrcpdf/pkg/jbig2"
)

// subprocessJbig2Encoder shells out to an external generic-region JBIG2
// encoder, the native library this module treats as a collaborator
// outside its scope. The binary is invoked as:
//
//	<bin> <width> <height>
//
// reads the packed 1-bpp buffer from stdin, and writes the encoded
// segment bytes to stdout.
type subprocessJbig2Encoder struct {
	bin string
}

func (e subprocessJbig2Encoder) EncodeGenericRegion(bits []byte, width, height int, opts jbig2.Options) ([]byte, error) {
	cmd := exec.Command(e.bin, strconv.Itoa(width), strconv.Itoa(height))
	cmd.Stdin = bytes.NewReader(bits)

	out, err := cmd.Output()
	if err != nil {
		return nil, errtyp.Wrapf(errtyp.Jbig2Encode, err, "jbig2 subprocess failed for %dx%d region", width, height)
	}
	return out, nil
}
