package pdfdoc

import (
	"strconv"
	"strings"

	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
	"github.com/mrcpdf/mrcpdf/pkg/pdfmodel"
)

// Parse reads a classic-xref PDF file into a Document. Rather than
// trusting the xref table's byte offsets (routinely stale after
// incremental updates, and absent entirely for cross-reference
// streams), it scans the raw bytes for "N G obj" headers directly —
// the same brute-force recovery strategy a damaged-file repair path
// would take, applied unconditionally since this module only ever
// needs read access to page content, not round-trip fidelity of the
// original file structure.
func Parse(data []byte) (*Document, error) {
	doc := NewDocument()

	pos := 0
	for {
		objNum, genNum, bodyStart, ok := nextObjHeader(data, pos)
		if !ok {
			break
		}
		p := newParser(data, bodyStart)
		obj, err := p.parseObject()
		if err != nil {
			return nil, errtyp.Wrapf(errtyp.PdfRead, err, "parsing object %d %d", objNum, genNum)
		}
		doc.Set(objNum, obj)
		pos = p.pos
	}

	root, err := findRoot(data, doc)
	if err != nil {
		return nil, err
	}
	doc.Root = root

	return doc, nil
}

// nextObjHeader scans forward from pos for the next "<int> <int> obj"
// header, returning the object/generation numbers and the offset just
// past the "obj" keyword.
func nextObjHeader(data []byte, pos int) (objNum, genNum, bodyStart int, ok bool) {
	for pos < len(data) {
		idx := strings.Index(string(data[pos:]), " obj")
		if idx < 0 {
			return 0, 0, 0, false
		}
		kwStart := pos + idx

		genStart, genEnd := scanIntBackwards(data, kwStart)
		if genStart < 0 {
			pos = kwStart + 4
			continue
		}
		objStart, objEnd := scanIntBackwards(data, skipSpaceBackwards(data, genStart))
		if objStart < 0 {
			pos = kwStart + 4
			continue
		}

		on, err1 := strconv.Atoi(string(data[objStart:objEnd]))
		gn, err2 := strconv.Atoi(string(data[genStart:genEnd]))
		if err1 != nil || err2 != nil {
			pos = kwStart + 4
			continue
		}

		return on, gn, kwStart + 4, true
	}
	return 0, 0, 0, false
}

func skipSpaceBackwards(data []byte, pos int) int {
	for pos > 0 && isWhitespace(data[pos-1]) {
		pos--
	}
	return pos
}

// scanIntBackwards returns the [start,end) span of the run of ASCII
// digits immediately preceding pos, or (-1,-1) if pos isn't preceded
// by digits. Whitespace before pos is not skipped; callers do that
// with skipSpaceBackwards.
func scanIntBackwards(data []byte, pos int) (start, end int) {
	end = pos
	start = end
	for start > 0 && data[start-1] >= '0' && data[start-1] <= '9' {
		start--
	}
	if start == end {
		return -1, -1
	}
	return start, end
}

// findRoot locates the document catalog: first via a "trailer" dict's
// /Root entry, falling back to scanning all parsed objects for a Dict
// whose /Type is /Catalog.
func findRoot(data []byte, doc *Document) (pdfmodel.IndirectRef, error) {
	if idx := strings.LastIndex(string(data), "trailer"); idx >= 0 {
		p := newParser(data, idx+len("trailer"))
		p.skipWhitespaceAndComments()
		if b, ok := p.peek(); ok && b == '<' {
			if tr, err := p.parseObject(); err == nil {
				if d, ok := tr.(pdfmodel.Dict); ok {
					doc.Trailer = d
					if ref := d.IndirectRefEntry("Root"); ref != nil {
						return *ref, nil
					}
				}
			}
		}
	}

	for num, obj := range doc.Objects {
		d, ok := obj.(pdfmodel.Dict)
		if !ok {
			continue
		}
		if t := d.Type(); t != nil && *t == "Catalog" {
			return pdfmodel.IndirectRef{ObjectNumber: pdfmodel.Integer(num), GenerationNumber: 0}, nil
		}
	}

	return pdfmodel.IndirectRef{}, errtyp.New(errtyp.PdfRead, "findRoot: no trailer /Root and no /Catalog object found")
}
