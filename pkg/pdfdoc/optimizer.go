package pdfdoc

import (
	"bytes"
	"compress/zlib"

	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
	"github.com/mrcpdf/mrcpdf/pkg/pdfmodel"
)

// Optimize runs the three optional post-assembly passes over doc:
// dropping dead /Font resources on MRC-replaced pages, deflating any
// unfiltered stream, and pruning objects unreachable from the
// trailer's /Root.
func Optimize(doc *Document) error {
	if err := stripFontsOnReplacedPages(doc); err != nil {
		return err
	}
	if err := deflateUnfilteredStreams(doc); err != nil {
		return err
	}
	pruneUnreferenced(doc)
	return nil
}

// stripFontsOnReplacedPages removes /Font from /Resources on every
// page whose content stream no longer contains a text-showing
// operator (Tj/TJ/'/") — the source's glyph references are gone along
// with the text, so the font dictionary is dead weight.
func stripFontsOnReplacedPages(doc *Document) error {
	pages, err := doc.Pages()
	if err != nil {
		return errtyp.Wrap(errtyp.PdfWrite, err, "optimizer: walking page tree")
	}

	for _, pg := range pages {
		content, err := doc.ContentStreamBytes(pg)
		if err != nil {
			continue
		}
		if containsTextShow(content) {
			continue
		}

		res := pg.Dict.DictEntry("Resources")
		if res == nil {
			if ref := pg.Dict.IndirectRefEntry("Resources"); ref != nil {
				res = doc.ResolveDict(*ref)
			}
		}
		if res == nil {
			continue
		}
		res.Delete("Font")
	}
	return nil
}

func containsTextShow(content []byte) bool {
	return bytes.Contains(content, []byte("Tj")) ||
		bytes.Contains(content, []byte("TJ")) ||
		bytes.Contains(content, []byte("'")) ||
		bytes.Contains(content, []byte("\""))
}

// deflateUnfilteredStreams compresses every stream lacking a /Filter
// entry with zlib (PDF's /FlateDecode), marking the filter and
// replacing /Length.
func deflateUnfilteredStreams(doc *Document) error {
	for num, obj := range doc.Objects {
		sd, ok := obj.(pdfmodel.StreamDict)
		if !ok {
			continue
		}
		if _, has := sd.Find("Filter"); has {
			continue
		}

		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(sd.Raw); err != nil {
			return errtyp.Wrap(errtyp.PdfWrite, err, "optimizer: deflating stream")
		}
		if err := w.Close(); err != nil {
			return errtyp.Wrap(errtyp.PdfWrite, err, "optimizer: closing deflate writer")
		}

		sd.Raw = buf.Bytes()
		sd.Update("Filter", pdfmodel.Name("FlateDecode"))
		sd.Update("Length", pdfmodel.Integer(buf.Len()))
		doc.Objects[num] = sd
	}
	return nil
}

// pruneUnreferenced removes every object not reachable from the
// trailer's /Root by following Dict, StreamDict, and Array references.
func pruneUnreferenced(doc *Document) {
	reachable := map[int]bool{}
	var visit func(obj pdfmodel.Object)
	visit = func(obj pdfmodel.Object) {
		switch v := obj.(type) {
		case pdfmodel.IndirectRef:
			num := v.ObjectNumber.Value()
			if reachable[num] {
				return
			}
			reachable[num] = true
			if target, ok := doc.Objects[num]; ok {
				visit(target)
			}
		case pdfmodel.Dict:
			for _, val := range v {
				visit(val)
			}
		case pdfmodel.StreamDict:
			for _, val := range v.Dict {
				visit(val)
			}
		case pdfmodel.Array:
			for _, e := range v {
				visit(e)
			}
		}
	}

	visit(doc.Root)

	for num := range doc.Objects {
		if !reachable[num] {
			delete(doc.Objects, num)
		}
	}
}
