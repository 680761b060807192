package main

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
	"github.com/mrcpdf/mrcpdf/pkg/raster"
)

// subprocessRasterizer shells out to an external rasterising binary,
// the native rasteriser this module treats as a collaborator outside
// its scope. The binary is invoked as:
//
//	<bin> <pdfPath> <pageIndex> <dpi>
//
// and must write "<width> <height>\n" followed by exactly
// width*height*4 raw RGBA bytes to stdout.
type subprocessRasterizer struct {
	bin string
}

func (r subprocessRasterizer) RenderPage(ctx context.Context, pdfPath string, pageIndex uint32, dpi uint32) (*raster.Bitmap, error) {
	if err := raster.Validate(dpi); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, r.bin, pdfPath, strconv.FormatUint(uint64(pageIndex), 10), strconv.FormatUint(uint64(dpi), 10))
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errtyp.Wrap(errtyp.Render, err, "opening rasteriser stdout pipe")
	}
	if err := cmd.Start(); err != nil {
		return nil, errtyp.Wrapf(errtyp.Render, err, "starting rasteriser subprocess for page %d", pageIndex)
	}

	reader := bufio.NewReader(stdout)
	var width, height uint32
	if _, err := fmt.Fscanf(reader, "%d %d\n", &width, &height); err != nil {
		cmd.Wait()
		return nil, errtyp.Wrapf(errtyp.Render, err, "reading rasteriser dimension header for page %d", pageIndex)
	}

	pix := make([]byte, int(width)*int(height)*4)
	if _, err := readFull(reader, pix); err != nil {
		cmd.Wait()
		return nil, errtyp.Wrapf(errtyp.Render, err, "reading rasteriser bitmap for page %d", pageIndex)
	}

	if err := cmd.Wait(); err != nil {
		return nil, errtyp.Wrapf(errtyp.Render, err, "rasteriser subprocess failed for page %d", pageIndex)
	}

	return &raster.Bitmap{Pix: pix, Width: width, Height: height}, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		k, err := r.Read(buf[n:])
		n += k
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
