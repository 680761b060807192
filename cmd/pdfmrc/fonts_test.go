package main

import (
	"testing"

	"github.com/mrcpdf/mrcpdf/pkg/font"
	"github.com/mrcpdf/mrcpdf/pkg/pdfdoc"
	"github.com/mrcpdf/mrcpdf/pkg/pdfmodel"
)

func TestResolveWidthsOffsetsByFirstChar(t *testing.T) {
	fd := pdfmodel.NewDict()
	fd.Update("FirstChar", pdfmodel.Integer(32))
	fd.Update("Widths", pdfmodel.Array{pdfmodel.Integer(250), pdfmodel.Integer(300)})

	widths, def := resolveWidths(fd)
	if widths[32] != 250 || widths[33] != 300 {
		t.Errorf("expected widths keyed from FirstChar, got %+v", widths)
	}
	if def != 500 {
		t.Errorf("expected default width 500, got %v", def)
	}
}

func TestResolveEncodingPicksIdentityHForType0(t *testing.T) {
	fd := pdfmodel.NewDict()
	fd.Update("Subtype", pdfmodel.Name("Type0"))

	enc := resolveEncoding(fd)
	if enc.Kind != font.EncodingIdentityH || !enc.CIDToGIDIdentity {
		t.Errorf("expected Identity-H encoding for a Type0 font, got %+v", enc)
	}
}

func TestResolveEncodingDefaultsToWinAnsi(t *testing.T) {
	fd := pdfmodel.NewDict()
	fd.Update("Subtype", pdfmodel.Name("TrueType"))

	enc := resolveEncoding(fd)
	if enc.Kind != font.EncodingWinAnsi {
		t.Errorf("expected WinAnsi encoding for a simple font, got %+v", enc)
	}
}

func TestLoadPageFontsReturnsNilWithoutFontResource(t *testing.T) {
	doc := pdfdoc.NewDocument()
	pg := pdfdoc.Page{Resources: pdfmodel.NewDict()}

	if fonts := loadPageFonts(doc, pg); fonts != nil {
		t.Errorf("expected nil when the page has no /Font resource, got %+v", fonts)
	}
}

func TestResolveFontSkipsDescriptorlessEntry(t *testing.T) {
	doc := pdfdoc.NewDocument()
	fd := pdfmodel.NewDict()
	fd.Update("BaseFont", pdfmodel.Name("Helvetica"))
	fd.Update("Subtype", pdfmodel.Name("Type1"))

	if pf := resolveFont(doc, fd); pf != nil {
		t.Errorf("expected nil for a font with no /FontDescriptor, got %+v", pf)
	}
}
