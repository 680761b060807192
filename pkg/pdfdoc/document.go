package pdfdoc

import (
	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
	"github.com/mrcpdf/mrcpdf/pkg/pdfmodel"
)

// Document is an in-memory PDF object graph: every indirect object
// keyed by object number, plus the trailer's root reference.
type Document struct {
	Objects map[int]pdfmodel.Object
	Root    pdfmodel.IndirectRef
	Trailer pdfmodel.Dict
	nextNum int
}

// NewDocument returns an empty Document ready for the assembler to
// populate.
func NewDocument() *Document {
	return &Document{Objects: map[int]pdfmodel.Object{}, Trailer: pdfmodel.NewDict(), nextNum: 1}
}

// NewObjectNumber reserves and returns the next unused object number.
func (d *Document) NewObjectNumber() int {
	n := d.nextNum
	d.nextNum++
	return n
}

// Set stores obj under objNum, extending nextNum past it if needed.
func (d *Document) Set(objNum int, obj pdfmodel.Object) {
	d.Objects[objNum] = obj
	if objNum >= d.nextNum {
		d.nextNum = objNum + 1
	}
}

// Get returns the object stored at objNum.
func (d *Document) Get(objNum int) (pdfmodel.Object, bool) {
	o, ok := d.Objects[objNum]
	return o, ok
}

// Resolve follows obj if it is an IndirectRef, returning the
// referenced object; any other object is returned unchanged.
func (d *Document) Resolve(obj pdfmodel.Object) pdfmodel.Object {
	for {
		ref, ok := obj.(pdfmodel.IndirectRef)
		if !ok {
			return obj
		}
		next, found := d.Get(ref.ObjectNumber.Value())
		if !found {
			return nil
		}
		obj = next
	}
}

// ResolveDict resolves obj and type-asserts it to a Dict (also
// accepting a StreamDict's embedded Dict).
func (d *Document) ResolveDict(obj pdfmodel.Object) pdfmodel.Dict {
	switch v := d.Resolve(obj).(type) {
	case pdfmodel.Dict:
		return v
	case pdfmodel.StreamDict:
		return v.Dict
	}
	return nil
}

// ResolveStream resolves obj and type-asserts it to a StreamDict.
func (d *Document) ResolveStream(obj pdfmodel.Object) *pdfmodel.StreamDict {
	if sd, ok := d.Resolve(obj).(pdfmodel.StreamDict); ok {
		return &sd
	}
	return nil
}

// Page is a resolved leaf of the page tree with inherited attributes
// applied (/Resources, /MediaBox).
type Page struct {
	ObjNum    int
	Dict      pdfmodel.Dict
	Resources pdfmodel.Dict
	MediaBox  *pdfmodel.Rectangle
}

// Pages walks the /Root /Pages tree and returns its leaves in
// document order, with /Resources and /MediaBox inherited from
// ancestor /Pages nodes per the PDF imaging model.
func (d *Document) Pages() ([]Page, error) {
	rootDict := d.ResolveDict(d.Root)
	if rootDict == nil {
		return nil, errtyp.New(errtyp.PdfRead, "pages: unresolvable document catalog")
	}
	pagesRef, ok := rootDict.Find("Pages")
	if !ok {
		return nil, errtyp.New(errtyp.PdfRead, "pages: catalog has no /Pages entry")
	}

	var out []Page
	var walk func(obj pdfmodel.Object, inheritedRes pdfmodel.Dict, inheritedBox *pdfmodel.Rectangle) error
	walk = func(obj pdfmodel.Object, inheritedRes pdfmodel.Dict, inheritedBox *pdfmodel.Rectangle) error {
		ref, isRef := obj.(pdfmodel.IndirectRef)
		nodeDict := d.ResolveDict(obj)
		if nodeDict == nil {
			return errtyp.New(errtyp.PdfRead, "pages: unresolvable page-tree node")
		}

		res := inheritedRes
		if r := d.ResolveDict(nodeDict["Resources"]); r != nil {
			res = r
		}
		box := inheritedBox
		if arr, ok := d.Resolve(nodeDict["MediaBox"]).(pdfmodel.Array); ok {
			if r := pdfmodel.RectForArray(arr); r != nil {
				box = r
			}
		}

		typ := nodeDict.Type()
		if typ != nil && *typ == "Pages" {
			kids := nodeDict.ArrayEntry("Kids")
			for _, k := range kids {
				if err := walk(k, res, box); err != nil {
					return err
				}
			}
			return nil
		}

		objNum := -1
		if isRef {
			objNum = ref.ObjectNumber.Value()
		}
		out = append(out, Page{ObjNum: objNum, Dict: nodeDict, Resources: res, MediaBox: box})
		return nil
	}

	if err := walk(pagesRef, nil, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// ContentStreamBytes concatenates and decodes a page's /Contents
// stream(s) (a single stream or an array of streams) into one content
// byte sequence.
func (d *Document) ContentStreamBytes(pg Page) ([]byte, error) {
	v, ok := pg.Dict.Find("Contents")
	if !ok {
		return nil, nil
	}

	var out []byte
	appendOne := func(obj pdfmodel.Object) error {
		sd := d.ResolveStream(obj)
		if sd == nil {
			return errtyp.New(errtyp.PdfRead, "content stream: /Contents entry is not a stream")
		}
		if err := sd.Decode(); err != nil {
			return errtyp.Wrap(errtyp.PdfRead, err, "decoding content stream")
		}
		out = append(out, sd.Content...)
		out = append(out, '\n')
		return nil
	}

	switch vv := d.Resolve(v).(type) {
	case pdfmodel.StreamDict:
		if err := appendOne(vv); err != nil {
			return nil, err
		}
	case pdfmodel.Array:
		for _, ref := range vv {
			if err := appendOne(ref); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func newStreamFromDict(d pdfmodel.Dict, raw []byte) pdfmodel.StreamDict {
	var pipeline []pdfmodel.PDFFilter
	switch f := d["Filter"].(type) {
	case pdfmodel.Name:
		pipeline = []pdfmodel.PDFFilter{{Name: string(f)}}
	case pdfmodel.Array:
		for _, e := range f {
			if n, ok := e.(pdfmodel.Name); ok {
				pipeline = append(pipeline, pdfmodel.PDFFilter{Name: string(n)})
			}
		}
	}

	length := int64(len(raw))
	sd := pdfmodel.NewStreamDict(d, 0, &length, nil, pipeline)
	sd.Raw = raw
	return sd
}
