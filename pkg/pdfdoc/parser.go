// Package pdfdoc reads, deep-copies, assembles, and optimises PDF
// documents around the pdfmodel object types: a minimal classic-xref
// reader, an assembler that emits MRC/BW/text-masked/skip pages per
// the compositor's output, and a three-pass optimiser.
package pdfdoc

import (
	"strconv"
	"strings"

	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
	"github.com/mrcpdf/mrcpdf/pkg/pdfmodel"
)

// parser is a cursor-based recursive-descent reader for PDF object
// syntax: numbers, names, literal/hex strings, arrays, dicts (with
// stream bodies), booleans, null, and indirect references.
type parser struct {
	data []byte
	pos  int
}

func newParser(data []byte, pos int) *parser {
	return &parser{data: data, pos: pos}
}

func isWhitespace(b byte) bool {
	switch b {
	case 0x00, 0x09, 0x0A, 0x0C, 0x0D, 0x20:
		return true
	}
	return false
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (p *parser) skipWhitespaceAndComments() {
	for p.pos < len(p.data) {
		b := p.data[p.pos]
		if isWhitespace(b) {
			p.pos++
			continue
		}
		if b == '%' {
			for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
			continue
		}
		break
	}
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.data) {
		return 0, false
	}
	return p.data[p.pos], true
}

// peekKeyword reports whether data at pos (after trimming leading
// whitespace) starts with kw, without consuming it.
func (p *parser) peekKeyword(kw string) bool {
	q := p.pos
	for q < len(p.data) && isWhitespace(p.data[q]) {
		q++
	}
	return strings.HasPrefix(string(p.data[q:min(q+len(kw), len(p.data))]), kw)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// parseObject parses exactly one PDF object starting at the current
// position, handling the "N G R" indirect-reference lookahead for bare
// integers.
func (p *parser) parseObject() (pdfmodel.Object, error) {
	p.skipWhitespaceAndComments()
	if p.pos >= len(p.data) {
		return nil, errtyp.New(errtyp.PdfRead, "parseObject: unexpected end of input")
	}

	b := p.data[p.pos]
	switch {
	case b == '/':
		return p.parseName()
	case b == '(':
		return p.parseLiteralString()
	case b == '<':
		if p.pos+1 < len(p.data) && p.data[p.pos+1] == '<' {
			return p.parseDictOrStream()
		}
		return p.parseHexString()
	case b == '[':
		return p.parseArray()
	case b == '-' || b == '+' || b == '.' || (b >= '0' && b <= '9'):
		return p.parseNumberOrRef()
	case strings.HasPrefix(string(p.data[p.pos:min(p.pos+4, len(p.data))]), "true"):
		p.pos += 4
		return pdfmodel.Boolean(true), nil
	case strings.HasPrefix(string(p.data[p.pos:min(p.pos+5, len(p.data))]), "false"):
		p.pos += 5
		return pdfmodel.Boolean(false), nil
	case strings.HasPrefix(string(p.data[p.pos:min(p.pos+4, len(p.data))]), "null"):
		p.pos += 4
		return nil, nil
	}

	return nil, errtyp.Newf(errtyp.PdfRead, "parseObject: unrecognised object start %q at offset %d", b, p.pos)
}

func (p *parser) parseName() (pdfmodel.Name, error) {
	p.pos++ // consume '/'
	start := p.pos
	for p.pos < len(p.data) && !isWhitespace(p.data[p.pos]) && !isDelimiter(p.data[p.pos]) {
		p.pos++
	}
	raw := string(p.data[start:p.pos])
	decoded, err := pdfmodel.DecodeName(raw)
	if err != nil {
		return "", errtyp.Wrap(errtyp.PdfRead, err, "decoding name")
	}
	return pdfmodel.Name(decoded), nil
}

func (p *parser) parseLiteralString() (pdfmodel.StringLiteral, error) {
	p.pos++ // consume '('
	depth := 1
	start := p.pos
	for p.pos < len(p.data) && depth > 0 {
		switch p.data[p.pos] {
		case '\\':
			p.pos++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				s := string(p.data[start:p.pos])
				p.pos++
				return pdfmodel.StringLiteral(s), nil
			}
		}
		p.pos++
	}
	return "", errtyp.New(errtyp.PdfRead, "parseLiteralString: unterminated string literal")
}

func (p *parser) parseHexString() (pdfmodel.HexLiteral, error) {
	p.pos++ // consume '<'
	start := p.pos
	for p.pos < len(p.data) && p.data[p.pos] != '>' {
		p.pos++
	}
	if p.pos >= len(p.data) {
		return "", errtyp.New(errtyp.PdfRead, "parseHexString: unterminated hex string")
	}
	s := string(p.data[start:p.pos])
	p.pos++ // consume '>'
	return pdfmodel.HexLiteral(strings.Map(func(r rune) rune {
		if isWhitespace(byte(r)) {
			return -1
		}
		return r
	}, s)), nil
}

func (p *parser) parseArray() (pdfmodel.Array, error) {
	p.pos++ // consume '['
	arr := pdfmodel.Array{}
	for {
		p.skipWhitespaceAndComments()
		b, ok := p.peek()
		if !ok {
			return nil, errtyp.New(errtyp.PdfRead, "parseArray: unterminated array")
		}
		if b == ']' {
			p.pos++
			return arr, nil
		}
		obj, err := p.parseObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (p *parser) parseDictOrStream() (pdfmodel.Object, error) {
	d, err := p.parseDict()
	if err != nil {
		return nil, err
	}

	p.skipWhitespaceAndComments()
	if !p.peekKeyword("stream") {
		return d, nil
	}

	p.pos += len("stream")
	if p.pos < len(p.data) && p.data[p.pos] == '\r' {
		p.pos++
	}
	if p.pos < len(p.data) && p.data[p.pos] == '\n' {
		p.pos++
	}
	start := p.pos

	length := -1
	if lv, ok := d.Find("Length"); ok {
		if i, ok := lv.(pdfmodel.Integer); ok {
			length = i.Value()
		}
	}

	if length >= 0 && start+length <= len(p.data) {
		p.pos = start + length
		p.skipWhitespaceAndComments()
		if p.peekKeyword("endstream") {
			raw := p.data[start : start+length]
			p.pos += len("endstream")
			return newStreamFromDict(d, raw), nil
		}
	}

	// Fall back to scanning for the endstream keyword (covers
	// indirect-length streams and malformed /Length entries).
	idx := indexOf(p.data, start, "endstream")
	if idx < 0 {
		return nil, errtyp.New(errtyp.PdfRead, "parseDictOrStream: missing endstream")
	}
	end := idx
	for end > start && (p.data[end-1] == '\n' || p.data[end-1] == '\r') {
		end--
	}
	raw := p.data[start:end]
	p.pos = idx + len("endstream")
	return newStreamFromDict(d, raw), nil
}

func (p *parser) parseDict() (pdfmodel.Dict, error) {
	p.pos += 2 // consume '<<'
	d := pdfmodel.NewDict()
	for {
		p.skipWhitespaceAndComments()
		if p.peekKeyword(">>") {
			p.pos += 2
			return d, nil
		}
		b, ok := p.peek()
		if !ok || b != '/' {
			return nil, errtyp.New(errtyp.PdfRead, "parseDict: expected name key")
		}
		key, err := p.parseName()
		if err != nil {
			return nil, err
		}
		val, err := p.parseObject()
		if err != nil {
			return nil, err
		}
		d[string(key)] = val
	}
}

// parseNumberOrRef parses a number, or (with lookahead) an "N G R"
// indirect reference.
func (p *parser) parseNumberOrRef() (pdfmodel.Object, error) {
	start := p.pos
	isFloat := false
	if p.data[p.pos] == '+' || p.data[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.data) && ((p.data[p.pos] >= '0' && p.data[p.pos] <= '9') || p.data[p.pos] == '.') {
		if p.data[p.pos] == '.' {
			isFloat = true
		}
		p.pos++
	}
	numStr := string(p.data[start:p.pos])

	if isFloat {
		f, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return nil, errtyp.Wrapf(errtyp.PdfRead, err, "parsing float %q", numStr)
		}
		return pdfmodel.Float(f), nil
	}

	n, err := strconv.Atoi(numStr)
	if err != nil {
		return nil, errtyp.Wrapf(errtyp.PdfRead, err, "parsing integer %q", numStr)
	}

	save := p.pos
	p.skipWhitespaceAndComments()
	genStart := p.pos
	for p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
		p.pos++
	}
	if p.pos > genStart {
		gen, err := strconv.Atoi(string(p.data[genStart:p.pos]))
		if err == nil {
			p.skipWhitespaceAndComments()
			if p.peekKeyword("R") && (p.pos+1 >= len(p.data) || isWhitespace(p.data[p.pos+1]) || isDelimiter(p.data[p.pos+1])) {
				p.pos++ // consume 'R'
				return pdfmodel.IndirectRef{ObjectNumber: pdfmodel.Integer(n), GenerationNumber: pdfmodel.Integer(gen)}, nil
			}
		}
	}

	p.pos = save
	return pdfmodel.Integer(n), nil
}

func indexOf(data []byte, from int, sub string) int {
	s := string(data[from:])
	i := strings.Index(s, sub)
	if i < 0 {
		return -1
	}
	return from + i
}
