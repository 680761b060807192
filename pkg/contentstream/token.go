// Package contentstream interprets PDF page content streams: it tracks
// the CTM and fill-colour stacks, strips BT…ET text objects, extracts
// XObject placements and white fill rectangles, and drives the
// text-state machine used for glyph-to-path emission.
package contentstream

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
)

// TokenKind classifies a single lexical token in a content stream.
type TokenKind int

const (
	TokNumber TokenKind = iota
	TokName
	TokString
	TokHexString
	TokArrayStart
	TokArrayEnd
	TokDict
	TokOperator
)

// Token is one lexeme produced by the tokenizer.
type Token struct {
	Kind TokenKind
	Str  string
	Num  float64
}

func whitespaceOrEOL(c rune) bool {
	return unicode.IsSpace(c) || c == 0x0A || c == 0x0D || c == 0x00
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// skipStringLiteral advances past a balanced "(...)" literal, honouring
// backslash-escaped parens, and returns the literal's raw bytes without
// the enclosing parens.
func skipStringLiteral(s string) (string, string, error) {
	depth := 1
	i := 1
	for i < len(s) {
		switch s[i] {
		case '\\':
			i += 2
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[1:i], s[i+1:], nil
			}
		}
		i++
	}
	return "", "", errtyp.New(errtyp.ContentStream, "unterminated string literal")
}

func skipHexStringLiteral(s string) (string, string, error) {
	i := strings.IndexByte(s, '>')
	if i < 0 {
		return "", "", errtyp.New(errtyp.ContentStream, "unterminated hex string literal")
	}
	return s[1:i], s[i+1:], nil
}

// skipDict advances past a balanced "<<...>>" dictionary operand (such
// as a marked-content property list); Tokenize records it as a single
// TokDict token without its contents.
func skipDict(s string) (string, error) {
	if !strings.HasPrefix(s, "<<") {
		return "", errtyp.New(errtyp.ContentStream, "expected dictionary")
	}
	depth := 1
	i := 2
	for i < len(s) && depth > 0 {
		switch {
		case strings.HasPrefix(s[i:], "<<"):
			depth++
			i += 2
		case strings.HasPrefix(s[i:], ">>"):
			depth--
			i += 2
		default:
			i++
		}
	}
	if depth != 0 {
		return "", errtyp.New(errtyp.ContentStream, "unterminated dictionary")
	}
	return s[i:], nil
}

// skipInlineImage advances past "BI ... ID <binary> EI".
func skipInlineImage(s string) (string, error) {
	i := strings.Index(s, "ID")
	if i < 0 {
		return "", errtyp.New(errtyp.ContentStream, "unterminated inline image (no ID)")
	}
	s = s[i+2:]
	j := strings.Index(s, "EI")
	for j >= 0 {
		// EI must be followed by whitespace/EOF to avoid matching binary data.
		if j+2 >= len(s) || whitespaceOrEOL(rune(s[j+2])) {
			return s[j+2:], nil
		}
		next := strings.Index(s[j+2:], "EI")
		if next < 0 {
			break
		}
		j += 2 + next
	}
	return "", errtyp.New(errtyp.ContentStream, "unterminated inline image (no EI)")
}

func nextBreak(s string) int {
	for i := 0; i < len(s); i++ {
		if whitespaceOrEOL(rune(s[i])) || isDelim(s[i]) {
			return i
		}
	}
	return len(s)
}

// Tokenize lexes an entire content stream into a flat token slice. An
// empty input yields an empty, non-error result.
func Tokenize(data []byte) ([]Token, error) {
	s := string(data)
	var toks []Token

	for {
		s = strings.TrimLeftFunc(s, whitespaceOrEOL)
		if len(s) == 0 {
			return toks, nil
		}

		switch s[0] {
		case '(':
			lit, rest, err := skipStringLiteral(s)
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{Kind: TokString, Str: lit})
			s = rest
			continue
		case '<':
			if strings.HasPrefix(s, "<<") {
				rest, err := skipDict(s)
				if err != nil {
					return nil, err
				}
				toks = append(toks, Token{Kind: TokDict})
				s = rest
				continue
			}
			lit, rest, err := skipHexStringLiteral(s)
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{Kind: TokHexString, Str: lit})
			s = rest
			continue
		case '[':
			toks = append(toks, Token{Kind: TokArrayStart})
			s = s[1:]
			continue
		case ']':
			toks = append(toks, Token{Kind: TokArrayEnd})
			s = s[1:]
			continue
		case '/':
			i := nextBreak(s[1:])
			if i <= 0 {
				return nil, errtyp.New(errtyp.ContentStream, "empty name token")
			}
			toks = append(toks, Token{Kind: TokName, Str: s[1 : 1+i]})
			s = s[1+i:]
			continue
		case '%':
			// Comment: skip to end of line.
			if i := strings.IndexAny(s, "\r\n"); i >= 0 {
				s = s[i:]
			} else {
				s = ""
			}
			continue
		}

		i := nextBreak(s)
		if i == 0 {
			// Unrecognised delimiter byte on its own; skip it.
			s = s[1:]
			continue
		}
		word := s[:i]
		s = s[i:]

		if word == "BI" {
			rest, err := skipInlineImage(s)
			if err != nil {
				return nil, err
			}
			s = rest
			continue
		}

		if n, err := strconv.ParseFloat(word, 64); err == nil {
			toks = append(toks, Token{Kind: TokNumber, Num: n})
			continue
		}
		toks = append(toks, Token{Kind: TokOperator, Str: word})
	}
}
