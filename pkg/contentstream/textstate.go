package contentstream

import (
	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
	"github.com/mrcpdf/mrcpdf/pkg/log"
	"github.com/mrcpdf/mrcpdf/pkg/matrix"
)

// FontMetrics is the minimal view of a resolved font the text-state
// machine needs: per-code advance width (in 1/1000 EM) and whether the
// font consumes codes as 2-byte big-endian (Identity-H) or 1-byte
// (WinAnsi).
type FontMetrics interface {
	Width(code uint16) float64
	IdentityH() bool
}

// TjArrayEntryKind distinguishes the two element kinds of a TJ array.
type TjArrayEntryKind int

const (
	TjCodes TjArrayEntryKind = iota
	TjAdjustment
)

// TjArrayEntry is one element of a decoded TJ array: either a run of
// character codes or a numeric advance adjustment.
type TjArrayEntry struct {
	Kind       TjArrayEntryKind
	Codes      []uint16
	Adjustment float64
}

// TextDrawCommand is a resolved text show operation, ready for
// glyph-to-path emission.
type TextDrawCommand struct {
	Codes       []uint16
	TJ          []TjArrayEntry
	Font        string
	FontSize    float64
	Tm          matrix.Matrix
	CTM         matrix.Matrix
	FillColour  FillColour
	CharSpacing float64
	WordSpacing float64
	HScale      float64
	Rise        float64
}

// textState is the mutable BT…ET state the machine tracks.
type textState struct {
	font     string
	fontSize float64
	tc       float64
	tw       float64
	tz       float64
	ts       float64
	tl       float64
	tm       matrix.Matrix
	tlm      matrix.Matrix
	tr       int
}

func newTextState() *textState {
	return &textState{tz: 100, tm: matrix.Identity, tlm: matrix.Identity}
}

// ContentOperations accumulates the text draw commands produced while
// walking one content stream's BT…ET blocks, alongside the CTM and
// fill-colour in effect at each show operator.
type ContentOperations struct {
	Commands []TextDrawCommand
}

// decodeShowString splits raw show-operator bytes into character codes
// according to the named font's encoding: one byte per code for
// WinAnsi, two bytes big-endian for Identity-H. A trailing odd byte of
// an Identity-H string is dropped and logged.
func decodeShowString(raw string, fm FontMetrics) []uint16 {
	b := []byte(raw)
	if fm != nil && fm.IdentityH() {
		if len(b)%2 != 0 {
			log.Parse.Printf("decodeShowString: odd trailing byte in Identity-H string, dropping\n")
			b = b[:len(b)-1]
		}
		codes := make([]uint16, 0, len(b)/2)
		for i := 0; i+1 < len(b); i += 2 {
			codes = append(codes, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return codes
	}
	codes := make([]uint16, len(b))
	for i, c := range b {
		codes[i] = uint16(c)
	}
	return codes
}

// advance computes the horizontal text-space advance for one glyph of
// width w (1/1000 EM) at font size fontSize, per the PDF Tj advancement
// formula, adding the word-spacing bonus when code is the ASCII space
// (0x20) and the font is single-byte.
func advance(w, fontSize, tc, tz float64, code uint16, tw float64, singleByte bool) float64 {
	base := (w/1000*fontSize + tc) * (tz / 100)
	if singleByte && code == 0x20 {
		base += tw * (tz / 100)
	}
	return base
}

// Run walks a content stream's BT…ET blocks under pageCTM (the CTM in
// effect when the block began — typically Identity for a page-level
// content stream), resolving fonts by name via fonts, and returns the
// accumulated text draw commands. fonts may be nil, in which case
// advance widths default to 0 and codes are decoded as single-byte.
func Run(data []byte, pageCTM matrix.Matrix, fonts map[string]FontMetrics) (*ContentOperations, error) {
	toks, err := Tokenize(data)
	if err != nil {
		return nil, errtyp.Wrap(errtyp.ContentStream, err, "tokenizing content stream")
	}

	ctm := matrix.NewStack()
	ctm.SetTop(pageCTM)
	fillStack := []FillColour{defaultFillColour}
	topFill := func() FillColour { return fillStack[len(fillStack)-1] }

	ops := &ContentOperations{}
	var ts *textState
	sc := newOperandScanner(toks)

	for {
		op, operands, ok := sc.next()
		if !ok {
			break
		}

		switch op {
		case "q":
			ctm.Push()
			fillStack = append(fillStack, topFill())
		case "Q":
			ctm.Pop()
			if len(fillStack) > 1 {
				fillStack = fillStack[:len(fillStack)-1]
			}
		case "cm":
			if vals, valid := nums(operands, 6); valid {
				ctm.ConcatTop(matrix.New(vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]))
			}
		case "g":
			if vals, valid := nums(operands, 1); valid {
				fillStack[len(fillStack)-1] = FillColour{Kind: CSGray, G: vals[0]}
			}
		case "rg":
			if vals, valid := nums(operands, 3); valid {
				fillStack[len(fillStack)-1] = FillColour{Kind: CSRGB, R: vals[0], Gr: vals[1], B: vals[2]}
			}
		case "k":
			if vals, valid := nums(operands, 4); valid {
				fillStack[len(fillStack)-1] = FillColour{Kind: CSCMYK, C: vals[0], M: vals[1], Y: vals[2], K: vals[3]}
			}
		case "BT":
			ts = newTextState()
		case "ET":
			ts = nil
		}

		if ts == nil {
			continue
		}

		switch op {
		case "Tf":
			if len(operands) >= 2 && operands[len(operands)-2].kind == TokName {
				ts.font = operands[len(operands)-2].str
				if vals, valid := nums(operands[len(operands)-1:], 1); valid {
					ts.fontSize = vals[0]
				}
			}
		case "Tm":
			if vals, valid := nums(operands, 6); valid {
				m := matrix.New(vals[0], vals[1], vals[2], vals[3], vals[4], vals[5])
				ts.tm = m
				ts.tlm = m
			}
		case "Td":
			if vals, valid := nums(operands, 2); valid {
				ts.tlm = matrix.Translate(vals[0], vals[1]).Multiply(ts.tlm)
				ts.tm = ts.tlm
			}
		case "TD":
			if vals, valid := nums(operands, 2); valid {
				ts.tl = -vals[1]
				ts.tlm = matrix.Translate(vals[0], vals[1]).Multiply(ts.tlm)
				ts.tm = ts.tlm
			}
		case "T*":
			ts.tlm = matrix.Translate(0, -ts.tl).Multiply(ts.tlm)
			ts.tm = ts.tlm
		case "Tc":
			if vals, valid := nums(operands, 1); valid {
				ts.tc = vals[0]
			}
		case "Tw":
			if vals, valid := nums(operands, 1); valid {
				ts.tw = vals[0]
			}
		case "Tz":
			if vals, valid := nums(operands, 1); valid {
				ts.tz = vals[0]
			}
		case "Ts":
			if vals, valid := nums(operands, 1); valid {
				ts.ts = vals[0]
			}
		case "TL":
			if vals, valid := nums(operands, 1); valid {
				ts.tl = vals[0]
			}
		case "Tr":
			if vals, valid := nums(operands, 1); valid {
				ts.tr = int(vals[0])
			}
			_ = ts.tr // parsed but ignored: rendering-mode selection is out of scope
		case "Tj":
			if len(operands) >= 1 && operands[len(operands)-1].kind == TokString {
				emitShow(ops, ts, ctm, topFill(), operands[len(operands)-1].str, fonts)
			}
		case "'":
			ts.tlm = matrix.Translate(0, -ts.tl).Multiply(ts.tlm)
			ts.tm = ts.tlm
			if len(operands) >= 1 && operands[len(operands)-1].kind == TokString {
				emitShow(ops, ts, ctm, topFill(), operands[len(operands)-1].str, fonts)
			}
		case `"`:
			if vals, valid := nums(operands[:max0(len(operands)-1, 0)], 2); valid {
				ts.tw = vals[0]
				ts.tc = vals[1]
			}
			ts.tlm = matrix.Translate(0, -ts.tl).Multiply(ts.tlm)
			ts.tm = ts.tlm
			if len(operands) >= 1 && operands[len(operands)-1].kind == TokString {
				emitShow(ops, ts, ctm, topFill(), operands[len(operands)-1].str, fonts)
			}
		case "TJ":
			if len(operands) >= 1 && operands[len(operands)-1].kind == TokArrayStart {
				emitTJ(ops, ts, ctm, topFill(), operands[len(operands)-1].arr, fonts)
			}
		}
	}

	return ops, nil
}

func max0(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func emitShow(ops *ContentOperations, ts *textState, ctm *matrix.Stack, fc FillColour, raw string, fonts map[string]FontMetrics) {
	fm := fonts[ts.font]
	codes := decodeShowString(raw, fm)
	singleByte := fm == nil || !fm.IdentityH()

	cmd := TextDrawCommand{
		Codes:       codes,
		Font:        ts.font,
		FontSize:    ts.fontSize,
		Tm:          ts.tm,
		CTM:         ctm.Top(),
		FillColour:  fc,
		CharSpacing: ts.tc,
		WordSpacing: ts.tw,
		HScale:      ts.tz,
		Rise:        ts.ts,
	}
	ops.Commands = append(ops.Commands, cmd)

	var totalAdvance float64
	for _, code := range codes {
		w := 0.0
		if fm != nil {
			w = fm.Width(code)
		}
		totalAdvance += advance(w, ts.fontSize, ts.tc, ts.tz, code, ts.tw, singleByte)
	}
	ts.tm = matrix.Translate(totalAdvance, 0).Multiply(ts.tm)
}

func emitTJ(ops *ContentOperations, ts *textState, ctm *matrix.Stack, fc FillColour, arr []Token, fonts map[string]FontMetrics) {
	fm := fonts[ts.font]
	singleByte := fm == nil || !fm.IdentityH()

	var entries []TjArrayEntry
	cmd := TextDrawCommand{
		Font:        ts.font,
		FontSize:    ts.fontSize,
		Tm:          ts.tm,
		CTM:         ctm.Top(),
		FillColour:  fc,
		CharSpacing: ts.tc,
		WordSpacing: ts.tw,
		HScale:      ts.tz,
		Rise:        ts.ts,
	}

	for _, t := range arr {
		switch t.Kind {
		case TokString, TokHexString:
			codes := decodeShowString(t.Str, fm)
			entries = append(entries, TjArrayEntry{Kind: TjCodes, Codes: codes})
			cmd.Codes = append(cmd.Codes, codes...)
			var totalAdvance float64
			for _, code := range codes {
				w := 0.0
				if fm != nil {
					w = fm.Width(code)
				}
				totalAdvance += advance(w, ts.fontSize, ts.tc, ts.tz, code, ts.tw, singleByte)
			}
			ts.tm = matrix.Translate(totalAdvance, 0).Multiply(ts.tm)
		case TokNumber:
			entries = append(entries, TjArrayEntry{Kind: TjAdjustment, Adjustment: t.Num})
			adv := -t.Num / 1000 * ts.fontSize * (ts.tz / 100)
			ts.tm = matrix.Translate(adv, 0).Multiply(ts.tm)
		}
	}

	cmd.TJ = entries
	ops.Commands = append(ops.Commands, cmd)
}
