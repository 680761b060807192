package pdfdoc

import (
	"fmt"

	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
	"github.com/mrcpdf/mrcpdf/pkg/mrc"
	"github.com/mrcpdf/mrcpdf/pkg/pdfmodel"
)

// Assembler builds a fresh output Document with a single shared
// /Pages node, appending one page per call to AddMRCPage, AddBWPage,
// AddTextMaskedPage, or AddSkipPage.
type Assembler struct {
	doc      *Document
	src      *Document
	pagesNum int
	kids     pdfmodel.Array
	catalog  int
}

// NewAssembler creates the output document's catalog and /Pages node,
// ready to receive pages. src is the input document, consulted when
// copying skip and text-masked pages.
func NewAssembler(src *Document) *Assembler {
	dst := NewDocument()

	pagesNum := dst.NewObjectNumber()
	dst.Set(pagesNum, pdfmodel.NewDict())

	catalogNum := dst.NewObjectNumber()
	catalog := pdfmodel.NewDict()
	catalog.Update("Type", pdfmodel.Name("Catalog"))
	catalog.Update("Pages", pdfmodel.IndirectRef{ObjectNumber: pdfmodel.Integer(pagesNum), GenerationNumber: 0})
	dst.Set(catalogNum, catalog)
	dst.Root = pdfmodel.IndirectRef{ObjectNumber: pdfmodel.Integer(catalogNum), GenerationNumber: 0}

	return &Assembler{doc: dst, src: src, pagesNum: pagesNum, catalog: catalogNum}
}

func (a *Assembler) addKid(pageNum int) {
	a.kids = append(a.kids, pdfmodel.IndirectRef{ObjectNumber: pdfmodel.Integer(pageNum), GenerationNumber: 0})
}

func (a *Assembler) newPageDict(mediaBox *pdfmodel.Rectangle) pdfmodel.Dict {
	d := pdfmodel.NewDict()
	d.Update("Type", pdfmodel.Name("Page"))
	d.Update("Parent", pdfmodel.IndirectRef{ObjectNumber: pdfmodel.Integer(a.pagesNum), GenerationNumber: 0})
	if mediaBox != nil {
		d.Update("MediaBox", mediaBox.Array())
	}
	return d
}

func (a *Assembler) addImageStream(content []byte, width, height uint32, bpc int, colorSpace, filterName string, extra pdfmodel.Dict) int {
	d := pdfmodel.NewDict()
	d.Update("Type", pdfmodel.Name("XObject"))
	d.Update("Subtype", pdfmodel.Name("Image"))
	d.Update("Width", pdfmodel.Integer(int(width)))
	d.Update("Height", pdfmodel.Integer(int(height)))
	d.Update("BitsPerComponent", pdfmodel.Integer(bpc))
	d.Update("ColorSpace", pdfmodel.Name(colorSpace))
	d.Update("Filter", pdfmodel.Name(filterName))
	for k, v := range extra {
		d.Update(k, v)
	}

	length := int64(len(content))
	sd := pdfmodel.NewStreamDict(d, 0, &length, nil, []pdfmodel.PDFFilter{{Name: filterName}})
	sd.Raw = content
	sd.Update("Length", pdfmodel.Integer(len(content)))

	num := a.doc.NewObjectNumber()
	a.doc.Set(num, sd)
	return num
}

func objRef(num int) pdfmodel.IndirectRef {
	return pdfmodel.IndirectRef{ObjectNumber: pdfmodel.Integer(num), GenerationNumber: 0}
}

func (a *Assembler) addContentStream(content []byte) int {
	d := pdfmodel.NewDict()
	length := int64(len(content))
	sd := pdfmodel.NewStreamDict(d, 0, &length, nil, nil)
	sd.Raw = content
	sd.Update("Length", pdfmodel.Integer(len(content)))
	num := a.doc.NewObjectNumber()
	a.doc.Set(num, sd)
	return num
}

// AddMRCPage emits the three-layer MRC page: a background XObject
// (DCTDecode), a mask XObject (JBIG2Decode), and a foreground XObject
// (DCTDecode) whose /SMask references the mask.
func (a *Assembler) AddMRCPage(layers *mrc.MrcLayers) error {
	colorSpace := "DeviceRGB"
	if layers.ColorMode.String() == "grayscale" {
		colorSpace = "DeviceGray"
	}

	maskNum := a.addImageStream(layers.MaskJBIG2, layers.Width, layers.Height, 1, "DeviceGray", "JBIG2Decode", nil)
	bgNum := a.addImageStream(layers.BackgroundJPEG, layers.Width, layers.Height, 8, colorSpace, "DCTDecode", nil)
	fgExtra := pdfmodel.NewDict()
	fgExtra.Update("SMask", objRef(maskNum))
	fgNum := a.addImageStream(layers.ForegroundJPEG, layers.Width, layers.Height, 8, colorSpace, "DCTDecode", fgExtra)

	resources := pdfmodel.NewDict()
	xobj := pdfmodel.NewDict()
	xobj.Update("BgImg", objRef(bgNum))
	xobj.Update("FgImg", objRef(fgNum))
	resources.Update("XObject", xobj)

	w, h := layers.PageWidthPts, layers.PageHeightPts
	content := []byte(fmt.Sprintf(
		"q %s 0 0 %s 0 0 cm /BgImg Do Q q %s 0 0 %s 0 0 cm /FgImg Do Q",
		trimNum(w), trimNum(h), trimNum(w), trimNum(h),
	))
	contentNum := a.addContentStream(content)

	pg := a.newPageDict(pdfmodel.RectForDim(w, h))
	pg.Update("Resources", resources)
	pg.Update("Contents", objRef(contentNum))

	pageNum := a.doc.NewObjectNumber()
	a.doc.Set(pageNum, pg)
	a.addKid(pageNum)
	return nil
}

// AddBWPage emits the single-mask BW page: one JBIG2 XObject with
// /Decode [1 0] inverting bit polarity at render time, drawn full-page
// via a single Do.
func (a *Assembler) AddBWPage(layers *mrc.BwLayers) error {
	extra := pdfmodel.NewDict()
	extra.Update("Decode", pdfmodel.NewIntegerArray(1, 0))
	maskNum := a.addImageStream(layers.MaskJBIG2, layers.Width, layers.Height, 1, "DeviceGray", "JBIG2Decode", extra)

	resources := pdfmodel.NewDict()
	xobj := pdfmodel.NewDict()
	xobj.Update("BwImg", objRef(maskNum))
	resources.Update("XObject", xobj)

	w, h := layers.PageWidthPts, layers.PageHeightPts
	content := []byte(fmt.Sprintf("q %s 0 0 %s 0 0 cm /BwImg Do Q", trimNum(w), trimNum(h)))
	contentNum := a.addContentStream(content)

	pg := a.newPageDict(pdfmodel.RectForDim(w, h))
	pg.Update("Resources", resources)
	pg.Update("Contents", objRef(contentNum))

	pageNum := a.doc.NewObjectNumber()
	a.doc.Set(pageNum, pg)
	a.addKid(pageNum)
	return nil
}

// AddTextMaskedPage emits the preserve-images page: the source page
// subtree deep-copied, its content stream replaced by the stripped
// bytes plus one drawing block per text region, and any
// redaction-modified image streams rewritten in place.
func (a *Assembler) AddTextMaskedPage(srcPage Page, data *mrc.TextMaskedData) error {
	newPageNum, err := CopyPageSubtree(a.src, a.doc, srcPage)
	if err != nil {
		return errtyp.Wrap(errtyp.PdfWrite, err, "deep-copying text-masked page subtree")
	}
	pg, ok := a.doc.Objects[newPageNum].(pdfmodel.Dict)
	if !ok {
		return errtyp.New(errtyp.PdfWrite, "deep copy of page subtree did not produce a Dict")
	}
	pg.Update("Parent", objRef(a.pagesNum))

	resources := pg.DictEntry("Resources")
	if resources == nil {
		if ref := pg.IndirectRefEntry("Resources"); ref != nil {
			resources = a.doc.ResolveDict(*ref)
		}
	}
	if resources == nil {
		resources = pdfmodel.NewDict()
		pg.Update("Resources", resources)
	}
	xobj := resources.DictEntry("XObject")
	if xobj == nil {
		xobj = pdfmodel.NewDict()
		resources.Update("XObject", xobj)
	}

	content := append([]byte{}, data.StrippedContentStream...)
	for i, region := range data.TextRegions {
		name := fmt.Sprintf("TxtRgn%d", i)
		extra := pdfmodel.NewDict()
		extra.Update("ImageMask", pdfmodel.Boolean(true))
		extra.Update("Decode", pdfmodel.NewIntegerArray(1, 0))
		regionDict := pdfmodel.NewDict()
		regionDict.Update("Type", pdfmodel.Name("XObject"))
		regionDict.Update("Subtype", pdfmodel.Name("Image"))
		regionDict.Update("Width", pdfmodel.Integer(int(region.PixelWidth)))
		regionDict.Update("Height", pdfmodel.Integer(int(region.PixelHeight)))
		regionDict.Update("ImageMask", pdfmodel.Boolean(true))
		regionDict.Update("Decode", pdfmodel.NewIntegerArray(1, 0))
		regionDict.Update("Filter", pdfmodel.Name("JBIG2Decode"))

		length := int64(len(region.JBIG2Data))
		sd := pdfmodel.NewStreamDict(regionDict, 0, &length, nil, []pdfmodel.PDFFilter{{Name: "JBIG2Decode"}})
		sd.Raw = region.JBIG2Data
		sd.Update("Length", pdfmodel.Integer(len(region.JBIG2Data)))

		regionNum := a.doc.NewObjectNumber()
		a.doc.Set(regionNum, sd)
		xobj.Update(name, objRef(regionNum))

		x := region.BBoxPoints.Xmin
		y := region.BBoxPoints.Ymin
		w := region.BBoxPoints.Xmax - region.BBoxPoints.Xmin
		h := region.BBoxPoints.Ymax - region.BBoxPoints.Ymin
		content = append(content, []byte(fmt.Sprintf(
			"\nq 0 g %s 0 0 %s %s %s cm /%s Do Q",
			trimNum(w), trimNum(h), trimNum(x), trimNum(y), name,
		))...)
	}

	for name, mod := range data.ModifiedImages {
		ref, ok := xobj.Find(name)
		if !ok {
			continue
		}
		imgDict := a.doc.ResolveDict(ref)
		if imgDict == nil {
			continue
		}
		imgSd := a.doc.ResolveStream(ref)
		if imgSd == nil {
			continue
		}
		imgSd.Raw = mod.Data
		imgSd.Update("Filter", pdfmodel.Name(mod.Filter))
		imgSd.Update("ColorSpace", pdfmodel.Name(mod.ColorSpace))
		imgSd.Update("BitsPerComponent", pdfmodel.Integer(int(mod.BitsPerComponent)))
		imgSd.Delete("Length")
		if irefAsInt, ok := ref.(pdfmodel.IndirectRef); ok {
			a.doc.Set(irefAsInt.ObjectNumber.Value(), *imgSd)
		}
	}

	contentNum := a.addContentStream(content)
	pg.Update("Contents", objRef(contentNum))
	a.doc.Set(newPageNum, pg)
	a.addKid(newPageNum)
	return nil
}

// AddSkipPage deep-copies the source page subtree unchanged, only
// rewiring its /Parent to the new /Pages.
func (a *Assembler) AddSkipPage(srcPage Page) error {
	newPageNum, err := CopyPageSubtree(a.src, a.doc, srcPage)
	if err != nil {
		return errtyp.Wrap(errtyp.PdfWrite, err, "deep-copying skip page subtree")
	}
	if pg, ok := a.doc.Objects[newPageNum].(pdfmodel.Dict); ok {
		pg.Update("Parent", objRef(a.pagesNum))
	}
	a.addKid(newPageNum)
	return nil
}

// Finalize writes the accumulated /Kids and /Count into the shared
// /Pages node and verifies the Root -> Pages chain is intact before
// returning the finished Document.
func (a *Assembler) Finalize() (*Document, error) {
	pages := pdfmodel.NewDict()
	pages.Update("Type", pdfmodel.Name("Pages"))
	pages.Update("Kids", a.kids)
	pages.Update("Count", pdfmodel.Integer(len(a.kids)))
	a.doc.Set(a.pagesNum, pages)

	catalogDict, ok := a.doc.Objects[a.catalog].(pdfmodel.Dict)
	if !ok {
		return nil, errtyp.New(errtyp.PdfWrite, "finalize: catalog object is not a Dict")
	}
	ref := catalogDict.IndirectRefEntry("Pages")
	if ref == nil || ref.ObjectNumber.Value() != a.pagesNum {
		return nil, errtyp.New(errtyp.PdfWrite, "finalize: Root -> Pages chain is broken")
	}

	return a.doc, nil
}

func trimNum(f float64) string {
	s := fmt.Sprintf("%.6f", f)
	i := len(s)
	for i > 0 && s[i-1] == '0' {
		i--
	}
	if i > 0 && s[i-1] == '.' {
		i--
	}
	return s[:i]
}
