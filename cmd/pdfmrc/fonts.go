package main

import (
	"os"

	"github.com/mrcpdf/mrcpdf/pkg/font"
	"github.com/mrcpdf/mrcpdf/pkg/pdfdoc"
	"github.com/mrcpdf/mrcpdf/pkg/pdfmodel"
)

// loadFontsByPage opens path and resolves every page's fonts, for jobs
// that request text-to-outlines compositing. Any failure to open or
// parse the input is swallowed here: the runner re-opens and parses
// the same file moments later and will surface the error there.
func loadFontsByPage(path string) map[uint32]map[string]*font.ParsedFont {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	doc, err := pdfdoc.Parse(raw)
	if err != nil {
		return nil
	}
	pages, err := doc.Pages()
	if err != nil {
		return nil
	}

	out := make(map[uint32]map[string]*font.ParsedFont, len(pages))
	for i, pg := range pages {
		if fonts := loadPageFonts(doc, pg); fonts != nil {
			out[uint32(i)] = fonts
		}
	}
	return out
}

// loadPageFonts resolves every /Font resource on pg into a
// font.ParsedFont, keyed by its resource name, for use by
// text-to-outlines compositing. A font that cannot be resolved (no
// embedded program, unsupported subtype) is skipped rather than
// failing the page: outline emission degrades to "no outline" for
// that font, which the compositor already tolerates.
func loadPageFonts(doc *pdfdoc.Document, pg pdfdoc.Page) map[string]*font.ParsedFont {
	fontDict := pg.Resources.DictEntry("Font")
	if fontDict == nil {
		if ref := pg.Resources.IndirectRefEntry("Font"); ref != nil {
			fontDict = doc.ResolveDict(*ref)
		}
	}
	if fontDict == nil {
		return nil
	}

	out := make(map[string]*font.ParsedFont)
	for name, v := range fontDict {
		fd := doc.ResolveDict(v)
		if fd == nil {
			continue
		}
		pf := resolveFont(doc, fd)
		if pf != nil {
			out[name] = pf
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func resolveFont(doc *pdfdoc.Document, fd pdfmodel.Dict) *font.ParsedFont {
	baseFont := ""
	if n := fd.NameEntry("BaseFont"); n != nil {
		baseFont = *n
	}

	descriptor := fd.DictEntry("FontDescriptor")
	if descriptor == nil {
		if ref := fd.IndirectRefEntry("FontDescriptor"); ref != nil {
			descriptor = doc.ResolveDict(*ref)
		}
	}
	if descriptor == nil {
		return nil
	}

	program := descriptor.StreamDictEntry("FontFile2")
	if program == nil {
		if ref := descriptor.IndirectRefEntry("FontFile2"); ref != nil {
			program = doc.ResolveStream(*ref)
		}
	}
	if program == nil {
		return nil
	}
	if err := program.Decode(); err != nil {
		return nil
	}

	widths, defaultWidth := resolveWidths(fd)
	enc := resolveEncoding(fd)

	pf, err := font.Parse(baseFont, program.Content, enc, widths, defaultWidth)
	if err != nil {
		return nil
	}
	return pf
}

func resolveWidths(fd pdfmodel.Dict) (map[uint16]float64, float64) {
	first := 0
	if fc := fd.IntEntry("FirstChar"); fc != nil {
		first = *fc
	}
	widths := make(map[uint16]float64)
	if arr := fd.ArrayEntry("Widths"); arr != nil {
		for i, w := range arr {
			if iv, ok := w.(pdfmodel.Integer); ok {
				widths[uint16(first+i)] = float64(iv.Value())
			} else if fv, ok := w.(pdfmodel.Float); ok {
				widths[uint16(first+i)] = fv.Value()
			}
		}
	}
	return widths, 500
}

func resolveEncoding(fd pdfmodel.Dict) font.Encoding {
	if sub := fd.NameEntry("Subtype"); sub != nil && *sub == "Type0" {
		return font.Encoding{Kind: font.EncodingIdentityH, CIDToGIDIdentity: true}
	}
	return font.Encoding{Kind: font.EncodingWinAnsi}
}
