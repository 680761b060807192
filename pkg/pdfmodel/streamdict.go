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

package pdfmodel

import (
	"bytes"
	"io"

	"github.com/mrcpdf/mrcpdf/pkg/filter"
	"github.com/mrcpdf/mrcpdf/pkg/log"
)

// PDFFilter represents one stage of a PDF stream's filter pipeline.
type PDFFilter struct {
	Name        string
	DecodeParms Dict
}

// StreamDict represents a PDF stream object: a Dict plus its associated
// byte content, encoded (Raw) and decoded (Content).
type StreamDict struct {
	Dict
	StreamOffset      int64
	StreamLength      *int64
	StreamLengthObjNr *int
	FilterPipeline    []PDFFilter
	Raw               []byte // Encoded
	Content           []byte // Decoded
	IsPageContent     bool
	CSComponents      int
}

// NewStreamDict creates a StreamDict for the given Dict, stream offset
// and length.
func NewStreamDict(d Dict, streamOffset int64, streamLength *int64, streamLengthObjNr *int, filterPipeline []PDFFilter) StreamDict {
	return StreamDict{
		Dict:              d,
		StreamOffset:      streamOffset,
		StreamLength:      streamLength,
		StreamLengthObjNr: streamLengthObjNr,
		FilterPipeline:    filterPipeline,
	}
}

// Clone returns a deep clone of sd.
func (sd StreamDict) Clone() Object {
	sd1 := sd
	sd1.Dict = sd.Dict.Clone().(Dict)
	pl := make([]PDFFilter, len(sd.FilterPipeline))
	for k, v := range sd.FilterPipeline {
		f := PDFFilter{Name: v.Name}
		if v.DecodeParms != nil {
			f.DecodeParms = v.DecodeParms.Clone().(Dict)
		}
		pl[k] = f
	}
	sd1.FilterPipeline = pl
	raw := make([]byte, len(sd.Raw))
	copy(raw, sd.Raw)
	sd1.Raw = raw
	return sd1
}

// HasSoleFilterNamed reports whether sd's filter pipeline has exactly
// one stage, named filterName.
func (sd StreamDict) HasSoleFilterNamed(filterName string) bool {
	return len(sd.FilterPipeline) == 1 && sd.FilterPipeline[0].Name == filterName
}

// Image reports whether sd is an image XObject.
func (sd StreamDict) Image() bool {
	t := sd.Type()
	if t == nil || *t != "XObject" {
		return false
	}
	s := sd.Subtype()
	return s != nil && *s == "Image"
}

// String renders sd's dictionary portion; stream bytes are omitted.
func (sd StreamDict) String() string {
	return sd.Dict.String()
}

// PDFString renders sd's dictionary portion followed by the stream
// keyword marker; the serializer appends the actual stream bytes.
func (sd StreamDict) PDFString() string {
	return sd.Dict.PDFString() + "stream"
}

func parmsForFilter(d Dict) map[string]int {
	m := map[string]int{}
	if d == nil {
		return m
	}
	for k, v := range d {
		if i, ok := v.(Integer); ok {
			m[k] = i.Value()
			continue
		}
		if b, ok := v.(Boolean); ok {
			if b.Value() {
				m[k] = 1
			} else {
				m[k] = 0
			}
		}
	}
	return m
}

// Encode applies sd's filter pipeline to sd.Content, producing sd.Raw
// and updating the /Length entry.
func (sd *StreamDict) Encode() error {
	if sd.Content == nil && sd.Raw != nil {
		return nil
	}

	if sd.FilterPipeline == nil {
		sd.Raw = sd.Content
		n := int64(len(sd.Raw))
		sd.StreamLength = &n
		sd.Update("Length", Integer(n))
		return nil
	}

	var b, c io.Reader
	b = bytes.NewReader(sd.Content)

	for i := len(sd.FilterPipeline) - 1; i >= 0; i-- {
		f := sd.FilterPipeline[i]
		if log.Cache != nil {
			log.Parse.Printf("stream encode: filter %s\n", f.Name)
		}
		parms := parmsForFilter(f.DecodeParms)
		fi, err := filter.NewFilter(f.Name, parms)
		if err != nil {
			return err
		}
		c, err = fi.Encode(b)
		if err != nil {
			return err
		}
		b = c
	}

	if bb, ok := c.(*bytes.Buffer); ok {
		sd.Raw = bb.Bytes()
	} else {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, c); err != nil {
			return err
		}
		sd.Raw = buf.Bytes()
	}

	n := int64(len(sd.Raw))
	sd.StreamLength = &n
	sd.Update("Length", Integer(n))
	return nil
}

// Decode applies sd's filter pipeline to sd.Raw, producing sd.Content.
func (sd *StreamDict) Decode() error {
	if sd.Content != nil {
		return nil
	}

	fpl := sd.FilterPipeline
	if fpl == nil || (len(fpl) == 1 && ((fpl[0].Name == filter.DCT && sd.CSComponents != 4) || fpl[0].Name == filter.JPX)) {
		// JPEG/JPX payloads are not decoded here; the image pipeline
		// consumes sd.Raw directly via the JPEG/JBIG2 collaborators.
		sd.Content = sd.Raw
		return nil
	}

	var b, c io.Reader
	b = bytes.NewReader(sd.Raw)

	for _, f := range fpl {
		if f.Name == filter.JPX || (f.Name == filter.DCT && sd.CSComponents != 4) {
			break
		}
		parms := parmsForFilter(f.DecodeParms)
		fi, err := filter.NewFilter(f.Name, parms)
		if err != nil {
			return err
		}
		var err2 error
		c, err2 = fi.Decode(b)
		if err2 != nil {
			return err2
		}
		b = c
	}

	if bb, ok := c.(*bytes.Buffer); ok {
		sd.Content = bb.Bytes()
	} else {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, c); err != nil {
			return err
		}
		sd.Content = buf.Bytes()
	}
	return nil
}
