/*
Copyright 2018 The pdfcpu Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package filter

import (
	"bytes"
	"io"

	"github.com/mrcpdf/mrcpdf/pkg/ccitt"
	"github.com/mrcpdf/mrcpdf/pkg/log"
	"github.com/pkg/errors"
)

type ccittDecode struct {
	baseFilter
}

// Encode is never called: CCITTFax is a decode-only filter here. Source
// PDFs may arrive CCITT-compressed, but MRC recompression always
// replaces image content with JBIG2/DCT, so this filter never appears
// as an output target.
func (f ccittDecode) Encode(r io.Reader) (*bytes.Buffer, error) {
	return nil, errors.New("EncodeCCITT: not supported, CCITTFax is a decode-only filter")
}

// Decode implements decoding for a CCITTDecode filter.
func (f ccittDecode) Decode(r io.Reader) (*bytes.Buffer, error) {

	log.Parse.Println("DecodeCCITT begin")

	var ok bool

	// <0 : Pure two-dimensional encoding (Group 4)
	// >=0 : one-dimensional/mixed encoding (Group 3), not supported by
	// the ported decoder below.
	k := 0
	k, ok = f.parms["K"]
	if ok && k >= 0 {
		return nil, errors.New("DecodeCCITT: only Group 4 (K < 0) encoding is supported")
	}

	columns := 1728
	col, ok := f.parms["Columns"]
	if ok {
		columns = col
	}

	blackIs1 := false
	v, ok := f.parms["BlackIs1"]
	if ok && v == 1 {
		blackIs1 = true
	}

	encodedByteAlign := false
	v, ok = f.parms["EncodedByteAlign"]
	if ok && v == 1 {
		encodedByteAlign = true
	}

	rc := ccitt.NewReader(r, columns, blackIs1, encodedByteAlign)
	defer rc.Close()

	var b bytes.Buffer
	written, err := io.Copy(&b, rc)
	if err != nil {
		return nil, err
	}
	log.Parse.Printf("DecodeCCITT: decoded %d bytes.\n", written)

	return &b, nil
}
