package pdfdoc

import (
	"strings"
	"testing"

	"github.com/mrcpdf/mrcpdf/pkg/config"
	"github.com/mrcpdf/mrcpdf/pkg/contentstream"
	"github.com/mrcpdf/mrcpdf/pkg/mrc"
	"github.com/mrcpdf/mrcpdf/pkg/pdfmodel"
)

func letterLayers() (width, height float64) {
	return 612, 792
}

func contentOf(t *testing.T, doc *Document, ref pdfmodel.Object) string {
	t.Helper()
	sd := doc.ResolveStream(ref)
	if sd == nil {
		t.Fatalf("expected a content stream, got nil")
	}
	return string(sd.Raw)
}

// TestAssembleMRCPage covers a single RGB page at Letter size,
// producing the exact two-block content stream.
func TestAssembleMRCPage(t *testing.T) {
	w, h := letterLayers()
	layers := &mrc.MrcLayers{
		MaskJBIG2:      []byte("jbig2-mask"),
		ForegroundJPEG: []byte("fg-jpeg"),
		BackgroundJPEG: []byte("bg-jpeg"),
		Width:          612,
		Height:         792,
		PageWidthPts:   w,
		PageHeightPts:  h,
		ColorMode:      config.RGB,
	}

	a := NewAssembler(NewDocument())
	if err := a.AddMRCPage(layers); err != nil {
		t.Fatalf("AddMRCPage: %v", err)
	}
	doc, err := a.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}

	pg := pages[0]
	contentsRef, ok := pg.Dict.Find("Contents")
	if !ok {
		t.Fatalf("page has no /Contents")
	}
	got := contentOf(t, doc, contentsRef)
	want := "q 612 0 0 792 0 0 cm /BgImg Do Q q 612 0 0 792 0 0 cm /FgImg Do Q"
	if got != want {
		t.Errorf("content stream:\n got:  %q\n want: %q", got, want)
	}

	xobj := pg.Resources.DictEntry("XObject")
	if xobj == nil {
		t.Fatalf("page resources missing /XObject")
	}
	bgRef, ok := xobj.Find("BgImg")
	if !ok {
		t.Fatalf("missing /BgImg XObject")
	}
	bgDict := doc.ResolveDict(bgRef)
	if bgDict == nil || bgDict.NameEntry("Filter") == nil || *bgDict.NameEntry("Filter") != "DCTDecode" {
		t.Errorf("BgImg should be DCTDecode, got dict %v", bgDict)
	}

	fgRef, _ := xobj.Find("FgImg")
	fgDict := doc.ResolveDict(fgRef)
	if fgDict == nil {
		t.Fatalf("missing /FgImg dict")
	}
	if fgDict.IndirectRefEntry("SMask") == nil {
		t.Errorf("FgImg should carry /SMask referencing the mask")
	}
}

// TestAssembleBWPage covers a BW page with a single masked XObject
// and inverted /Decode array.
func TestAssembleBWPage(t *testing.T) {
	w, h := letterLayers()
	layers := &mrc.BwLayers{
		MaskJBIG2:     []byte("jbig2-bw"),
		Width:         612,
		Height:        792,
		PageWidthPts:  w,
		PageHeightPts: h,
	}

	a := NewAssembler(NewDocument())
	if err := a.AddBWPage(layers); err != nil {
		t.Fatalf("AddBWPage: %v", err)
	}
	doc, err := a.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}

	contentsRef, _ := pages[0].Dict.Find("Contents")
	got := contentOf(t, doc, contentsRef)
	want := "q 612 0 0 792 0 0 cm /BwImg Do Q"
	if got != want {
		t.Errorf("content stream:\n got:  %q\n want: %q", got, want)
	}

	xobj := pages[0].Resources.DictEntry("XObject")
	bwRef, ok := xobj.Find("BwImg")
	if !ok {
		t.Fatalf("missing /BwImg XObject")
	}
	bwDict := doc.ResolveDict(bwRef)
	decode := bwDict.ArrayEntry("Decode")
	if len(decode) != 2 {
		t.Fatalf("expected 2-element /Decode array, got %v", decode)
	}
	if decode.String() != "[1 0]" {
		t.Errorf("expected /Decode [1 0], got %s", decode.String())
	}
}

// TestAssembleSkipPage deep-copies an unmodified page and verifies
// /Parent is rewired to the new /Pages node.
func TestAssembleSkipPage(t *testing.T) {
	src := NewDocument()
	pageDict := pdfmodel.NewDict()
	pageDict.Update("Type", pdfmodel.Name("Page"))
	pageDict.Update("MediaBox", pdfmodel.RectForDim(612, 792).Array())
	srcPageNum := src.NewObjectNumber()
	src.Set(srcPageNum, pageDict)

	a := NewAssembler(src)
	if err := a.AddSkipPage(Page{ObjNum: srcPageNum, Dict: pageDict}); err != nil {
		t.Fatalf("AddSkipPage: %v", err)
	}
	doc, err := a.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	parentRef := pages[0].Dict.IndirectRefEntry("Parent")
	if parentRef == nil || parentRef.ObjectNumber.Value() != a.pagesNum {
		t.Errorf("expected skip page /Parent to point at the new /Pages node")
	}
}

// TestAssembleTextMaskedPage verifies the stripped content stream is
// preserved, a text-region XObject is added per detected region, and
// its drawing block references the new XObject name.
func TestAssembleTextMaskedPage(t *testing.T) {
	src := NewDocument()
	pageDict := pdfmodel.NewDict()
	pageDict.Update("Type", pdfmodel.Name("Page"))
	pageDict.Update("MediaBox", pdfmodel.RectForDim(612, 792).Array())
	srcPageNum := src.NewObjectNumber()
	src.Set(srcPageNum, pageDict)

	data := &mrc.TextMaskedData{
		StrippedContentStream: []byte("q 1 0 0 1 0 0 cm /Im0 Do Q"),
		TextRegions: []mrc.TextRegionCrop{
			{
				JBIG2Data:   []byte("crop-jbig2"),
				BBoxPoints:  contentstream.BBox{Xmin: 10, Ymin: 20, Xmax: 110, Ymax: 40},
				PixelWidth:  100,
				PixelHeight: 20,
			},
		},
		PageIndex:     0,
		PageWidthPts:  612,
		PageHeightPts: 792,
		ColorMode:     config.RGB,
	}

	a := NewAssembler(src)
	if err := a.AddTextMaskedPage(Page{ObjNum: srcPageNum, Dict: pageDict}, data); err != nil {
		t.Fatalf("AddTextMaskedPage: %v", err)
	}
	doc, err := a.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}

	contentsRef, _ := pages[0].Dict.Find("Contents")
	got := contentOf(t, doc, contentsRef)
	if !strings.Contains(got, "/Im0 Do") {
		t.Errorf("expected original content to survive, got %q", got)
	}
	if !strings.Contains(got, "/TxtRgn0 Do") {
		t.Errorf("expected a TxtRgn0 drawing block, got %q", got)
	}

	xobj := pages[0].Resources.DictEntry("XObject")
	if xobj == nil {
		t.Fatalf("page resources missing /XObject")
	}
	regionRef, ok := xobj.Find("TxtRgn0")
	if !ok {
		t.Fatalf("missing /TxtRgn0 XObject")
	}
	regionDict := doc.ResolveDict(regionRef)
	if regionDict == nil || regionDict.NameEntry("Filter") == nil || *regionDict.NameEntry("Filter") != "JBIG2Decode" {
		t.Errorf("TxtRgn0 should be JBIG2Decode, got dict %v", regionDict)
	}
}
