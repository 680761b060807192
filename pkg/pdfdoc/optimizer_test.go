package pdfdoc

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"

	"github.com/mrcpdf/mrcpdf/pkg/pdfmodel"
)

func TestOptimizeStripsFontOnReplacedPage(t *testing.T) {
	doc := NewDocument()

	fontNum := doc.NewObjectNumber()
	doc.Set(fontNum, pdfmodel.NewDict())

	resources := pdfmodel.NewDict()
	fonts := pdfmodel.NewDict()
	fonts.Update("F1", objRef(fontNum))
	resources.Update("Font", fonts)

	contentNum := doc.NewObjectNumber()
	content := pdfmodel.NewStreamDict(pdfmodel.NewDict(), 0, nil, nil, nil)
	content.Raw = []byte("q 612 0 0 792 0 0 cm /BgImg Do Q")
	doc.Set(contentNum, content)

	pageDict := pdfmodel.NewDict()
	pageDict.Update("Type", pdfmodel.Name("Page"))
	pageDict.Update("Resources", resources)
	pageDict.Update("Contents", objRef(contentNum))
	pageDict.Update("MediaBox", pdfmodel.RectForDim(612, 792).Array())
	pageNum := doc.NewObjectNumber()
	doc.Set(pageNum, pageDict)

	pagesNum := doc.NewObjectNumber()
	pages := pdfmodel.NewDict()
	pages.Update("Type", pdfmodel.Name("Pages"))
	pages.Update("Kids", pdfmodel.Array{objRef(pageNum)})
	pages.Update("Count", pdfmodel.Integer(1))
	doc.Set(pagesNum, pages)

	catalogNum := doc.NewObjectNumber()
	catalog := pdfmodel.NewDict()
	catalog.Update("Type", pdfmodel.Name("Catalog"))
	catalog.Update("Pages", objRef(pagesNum))
	doc.Set(catalogNum, catalog)
	doc.Root = objRef(catalogNum)

	if err := Optimize(doc); err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if _, has := resources.Find("Font"); has {
		t.Errorf("expected /Font to be stripped from a replaced page's resources")
	}
}

func TestOptimizeDeflatesUnfilteredStream(t *testing.T) {
	doc := NewDocument()
	sd := pdfmodel.NewStreamDict(pdfmodel.NewDict(), 0, nil, nil, nil)
	sd.Raw = []byte("hello world hello world hello world")
	num := doc.NewObjectNumber()
	doc.Set(num, sd)

	catalogNum := doc.NewObjectNumber()
	catalog := pdfmodel.NewDict()
	doc.Set(catalogNum, catalog)
	doc.Root = objRef(catalogNum)
	catalog.Update("Dummy", objRef(num))

	if err := Optimize(doc); err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	got, ok := doc.Objects[num].(pdfmodel.StreamDict)
	if !ok {
		t.Fatalf("expected stream to survive pruning")
	}
	if f := got.NameEntry("Filter"); f == nil || *f != "FlateDecode" {
		t.Fatalf("expected /Filter /FlateDecode, got %v", f)
	}

	r, err := zlib.NewReader(bytes.NewReader(got.Raw))
	if err != nil {
		t.Fatalf("zlib.NewReader: %v", err)
	}
	defer r.Close()
	decoded, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading deflated stream: %v", err)
	}
	if string(decoded) != "hello world hello world hello world" {
		t.Errorf("round-trip mismatch: %q", decoded)
	}
}

func TestOptimizePrunesUnreferencedObjects(t *testing.T) {
	doc := NewDocument()

	orphanNum := doc.NewObjectNumber()
	doc.Set(orphanNum, pdfmodel.NewDict())

	keptNum := doc.NewObjectNumber()
	kept := pdfmodel.NewDict()
	doc.Set(keptNum, kept)

	catalogNum := doc.NewObjectNumber()
	catalog := pdfmodel.NewDict()
	catalog.Update("Kept", objRef(keptNum))
	doc.Set(catalogNum, catalog)
	doc.Root = objRef(catalogNum)

	if err := Optimize(doc); err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if _, ok := doc.Objects[orphanNum]; ok {
		t.Errorf("expected unreferenced object %d to be pruned", orphanNum)
	}
	if _, ok := doc.Objects[keptNum]; !ok {
		t.Errorf("expected referenced object %d to survive", keptNum)
	}
	if _, ok := doc.Objects[catalogNum]; !ok {
		t.Errorf("expected root catalog to survive")
	}
}
