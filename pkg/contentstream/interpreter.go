package contentstream

import (
	"strings"

	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
	"github.com/mrcpdf/mrcpdf/pkg/log"
	"github.com/mrcpdf/mrcpdf/pkg/matrix"
)

// operand is one pending operand (number, name, string, hex string, or
// array) accumulated between operators.
type operand struct {
	kind TokenKind
	num  float64
	str  string
	arr  []Token
}

// operandScanner walks a token slice, grouping operands for each
// operator as it's reached.
type operandScanner struct {
	toks    []Token
	pos     int
	pending []operand
}

func newOperandScanner(toks []Token) *operandScanner {
	return &operandScanner{toks: toks}
}

// next advances to the next operator, returning its name and the
// operand list collected before it. Returns ok=false at end of input.
func (s *operandScanner) next() (op string, operands []operand, ok bool) {
	s.pending = s.pending[:0]
	for s.pos < len(s.toks) {
		t := s.toks[s.pos]
		switch t.Kind {
		case TokOperator:
			s.pos++
			return t.Str, s.pending, true
		case TokNumber:
			s.pending = append(s.pending, operand{kind: TokNumber, num: t.Num})
			s.pos++
		case TokName:
			s.pending = append(s.pending, operand{kind: TokName, str: t.Str})
			s.pos++
		case TokString:
			s.pending = append(s.pending, operand{kind: TokString, str: t.Str})
			s.pos++
		case TokHexString:
			s.pending = append(s.pending, operand{kind: TokHexString, str: t.Str})
			s.pos++
		case TokDict:
			s.pos++
		case TokArrayStart:
			start := s.pos + 1
			depth := 1
			j := start
			for j < len(s.toks) && depth > 0 {
				switch s.toks[j].Kind {
				case TokArrayStart:
					depth++
				case TokArrayEnd:
					depth--
				}
				if depth > 0 {
					j++
				}
			}
			s.pending = append(s.pending, operand{kind: TokArrayStart, arr: s.toks[start:j]})
			s.pos = j + 1
		case TokArrayEnd:
			s.pos++
		}
	}
	return "", nil, false
}

func nums(ops []operand, n int) ([]float64, bool) {
	if len(ops) < n {
		return nil, false
	}
	ops = ops[len(ops)-n:]
	out := make([]float64, n)
	for i, o := range ops {
		if o.kind != TokNumber {
			return nil, false
		}
		out[i] = o.num
	}
	return out, true
}

func lastName(ops []operand) (string, bool) {
	if len(ops) == 0 {
		return "", false
	}
	last := ops[len(ops)-1]
	if last.kind != TokName {
		return "", false
	}
	return last.str, true
}

// ExtractXObjectPlacements walks the content stream tracking the CTM
// stack, recording a placement for every `Do name` invocation.
func ExtractXObjectPlacements(data []byte) ([]XObjectPlacement, error) {
	toks, err := Tokenize(data)
	if err != nil {
		return nil, errtyp.Wrap(errtyp.ContentStream, err, "tokenizing content stream")
	}

	ctm := matrix.NewStack()
	sc := newOperandScanner(toks)
	var placements []XObjectPlacement

	for {
		op, ops, ok := sc.next()
		if !ok {
			break
		}
		switch op {
		case "q":
			ctm.Push()
		case "Q":
			ctm.Pop()
		case "cm":
			if vals, valid := nums(ops, 6); valid {
				ctm.ConcatTop(matrix.New(vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]))
			}
		case "Do":
			if name, valid := lastName(ops); valid {
				top := ctm.Top()
				placements = append(placements, XObjectPlacement{
					Name: name,
					CTM:  top,
					BBox: bboxFromCTM(top),
				})
			}
		}
	}

	return placements, nil
}

// StripTextObjects copies the content stream verbatim except for bytes
// between BT and ET inclusive, tracking nesting depth tolerantly.
func StripTextObjects(data []byte) ([]byte, error) {
	toks, err := Tokenize(data)
	if err != nil {
		return nil, errtyp.Wrap(errtyp.ContentStream, err, "tokenizing content stream")
	}

	var out []Token
	depth := 0
	for _, t := range toks {
		if t.Kind == TokOperator {
			switch t.Str {
			case "BT":
				depth++
				continue
			case "ET":
				if depth > 0 {
					depth--
				}
				continue
			}
		}
		if depth > 0 {
			continue
		}
		out = append(out, t)
	}

	return renderTokens(out), nil
}

// ExtractWhiteFillRects tracks the fill-colour stack in parallel with
// the CTM stack, accumulating `re` rectangles until a fill operator
// applies them. Any non-rectangle path operator invalidates the
// pending list.
func ExtractWhiteFillRects(data []byte) ([]BBox, error) {
	toks, err := Tokenize(data)
	if err != nil {
		return nil, errtyp.Wrap(errtyp.ContentStream, err, "tokenizing content stream")
	}

	ctm := matrix.NewStack()
	colourStack := []FillColour{defaultFillColour}
	topColour := func() FillColour { return colourStack[len(colourStack)-1] }

	var pending []Rect
	var whites []BBox

	sc := newOperandScanner(toks)
	for {
		op, ops, ok := sc.next()
		if !ok {
			break
		}
		switch op {
		case "q":
			ctm.Push()
			colourStack = append(colourStack, topColour())
		case "Q":
			ctm.Pop()
			if len(colourStack) > 1 {
				colourStack = colourStack[:len(colourStack)-1]
			}
		case "cm":
			if vals, valid := nums(ops, 6); valid {
				ctm.ConcatTop(matrix.New(vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]))
			}
		case "g":
			if vals, valid := nums(ops, 1); valid {
				colourStack[len(colourStack)-1] = FillColour{Kind: CSGray, G: vals[0]}
			}
		case "rg":
			if vals, valid := nums(ops, 3); valid {
				colourStack[len(colourStack)-1] = FillColour{Kind: CSRGB, R: vals[0], Gr: vals[1], B: vals[2]}
			}
		case "k":
			if vals, valid := nums(ops, 4); valid {
				colourStack[len(colourStack)-1] = FillColour{Kind: CSCMYK, C: vals[0], M: vals[1], Y: vals[2], K: vals[3]}
			}
		case "sc", "scn":
			switch len(ops) {
			case 1:
				if vals, valid := nums(ops, 1); valid {
					colourStack[len(colourStack)-1] = FillColour{Kind: CSGray, G: vals[0]}
				}
			case 3:
				if vals, valid := nums(ops, 3); valid {
					colourStack[len(colourStack)-1] = FillColour{Kind: CSRGB, R: vals[0], Gr: vals[1], B: vals[2]}
				}
			case 4:
				if vals, valid := nums(ops, 4); valid {
					colourStack[len(colourStack)-1] = FillColour{Kind: CSCMYK, C: vals[0], M: vals[1], Y: vals[2], K: vals[3]}
				}
			}
		case "re":
			if vals, valid := nums(ops, 4); valid {
				pending = append(pending, Rect{X: vals[0], Y: vals[1], W: vals[2], H: vals[3], CTM: ctm.Top()})
			}
		case "m", "l", "c", "v", "y", "h":
			pending = nil
		case "f", "F", "f*":
			if topColour().IsWhite() {
				for _, r := range pending {
					whites = append(whites, r.ToBBox())
				}
			}
			pending = nil
		case "n", "S", "s", "B", "B*", "b", "b*", "W", "W*":
			pending = nil
		}
	}

	return whites, nil
}

// renderTokens serialises a token slice back into content-stream bytes.
// Used by StripTextObjects; other entry points only need extracted
// data, not re-serialised streams.
func renderTokens(toks []Token) []byte {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch t.Kind {
		case TokNumber:
			b.WriteString(formatNumber(t.Num))
		case TokName:
			b.WriteByte('/')
			b.WriteString(t.Str)
		case TokString:
			b.WriteByte('(')
			b.WriteString(t.Str)
			b.WriteByte(')')
		case TokHexString:
			b.WriteByte('<')
			b.WriteString(t.Str)
			b.WriteByte('>')
		case TokArrayStart:
			b.WriteByte('[')
		case TokArrayEnd:
			b.WriteByte(']')
		case TokDict:
			log.Parse.Printf("renderTokens: dropping inline dictionary token\n")
		case TokOperator:
			b.WriteString(t.Str)
		}
	}
	return []byte(b.String())
}
