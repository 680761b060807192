package pdfdoc

import "github.com/mrcpdf/mrcpdf/pkg/pdfmodel"

// copier performs an id-reservation deep copy of a subtree from a
// source Document into a destination Document: every node gets a new
// object number reserved BEFORE its children are traversed, so
// references back to an ancestor (or to a sibling visited later)
// still resolve to the correct new id. Source object ids already
// copied are reused, so shared substructure is copied exactly once.
type copier struct {
	src, dst *Document
	seen     map[int]int // source obj num -> dest obj num
}

func newCopier(src, dst *Document) *copier {
	return &copier{src: src, dst: dst, seen: map[int]int{}}
}

// CopyPageSubtree deep-copies a page dict (dropping /Parent, which the
// caller rewires) into dst, returning its new object number.
func CopyPageSubtree(src, dst *Document, pg Page) (int, error) {
	c := newCopier(src, dst)
	newNum, err := c.copyDict(pg.Dict, pg.ObjNum)
	if err != nil {
		return 0, err
	}
	if d, ok := dst.Objects[newNum].(pdfmodel.Dict); ok {
		d.Delete("Parent")
	}
	return newNum, nil
}

func (c *copier) copyObject(obj pdfmodel.Object, srcNum int) (pdfmodel.Object, error) {
	switch v := obj.(type) {
	case pdfmodel.IndirectRef:
		newNum, err := c.copyRef(v.ObjectNumber.Value())
		if err != nil {
			return nil, err
		}
		return pdfmodel.IndirectRef{ObjectNumber: pdfmodel.Integer(newNum), GenerationNumber: 0}, nil
	case pdfmodel.Dict:
		newNum, err := c.copyDict(v, srcNum)
		if err != nil {
			return nil, err
		}
		if srcNum >= 0 {
			return pdfmodel.IndirectRef{ObjectNumber: pdfmodel.Integer(newNum), GenerationNumber: 0}, nil
		}
		return c.dst.Objects[newNum], nil
	case pdfmodel.StreamDict:
		newNum, err := c.copyStream(v, srcNum)
		if err != nil {
			return nil, err
		}
		return pdfmodel.IndirectRef{ObjectNumber: pdfmodel.Integer(newNum), GenerationNumber: 0}, nil
	case pdfmodel.Array:
		out := make(pdfmodel.Array, len(v))
		for i, e := range v {
			ce, err := c.copyObject(e, -1)
			if err != nil {
				c.rollback(srcNum)
				return nil, err
			}
			out[i] = ce
		}
		return out, nil
	default:
		if obj == nil {
			return nil, nil
		}
		return obj.Clone(), nil
	}
}

// copyRef resolves a source indirect reference and copies its target,
// returning the new object number. Already-copied targets are
// returned from the seen map without recursing again.
func (c *copier) copyRef(srcNum int) (int, error) {
	if newNum, ok := c.seen[srcNum]; ok {
		return newNum, nil
	}
	target, found := c.src.Get(srcNum)
	if !found {
		newNum := c.dst.NewObjectNumber()
		c.dst.Set(newNum, nil)
		return newNum, nil
	}

	switch v := target.(type) {
	case pdfmodel.StreamDict:
		return c.copyStream(v, srcNum)
	case pdfmodel.Dict:
		return c.copyDict(v, srcNum)
	default:
		newNum := c.dst.NewObjectNumber()
		c.seen[srcNum] = newNum
		cloned := v
		if v != nil {
			cloned = v.Clone()
		}
		c.dst.Set(newNum, cloned)
		return newNum, nil
	}
}

func (c *copier) copyDict(d pdfmodel.Dict, srcNum int) (int, error) {
	if srcNum >= 0 {
		if newNum, ok := c.seen[srcNum]; ok {
			return newNum, nil
		}
	}

	newNum := c.dst.NewObjectNumber()
	if srcNum >= 0 {
		c.seen[srcNum] = newNum
	}
	c.dst.Set(newNum, pdfmodel.NewDict())

	out := pdfmodel.NewDict()
	for k, v := range d {
		if k == "Parent" {
			continue
		}
		cv, err := c.copyObject(v, -1)
		if err != nil {
			c.rollback(srcNum)
			return 0, err
		}
		out[k] = cv
	}
	c.dst.Set(newNum, out)
	return newNum, nil
}

func (c *copier) copyStream(sd pdfmodel.StreamDict, srcNum int) (int, error) {
	if srcNum >= 0 {
		if newNum, ok := c.seen[srcNum]; ok {
			return newNum, nil
		}
	}

	newNum := c.dst.NewObjectNumber()
	if srcNum >= 0 {
		c.seen[srcNum] = newNum
	}
	c.dst.Set(newNum, sd)

	out := pdfmodel.NewDict()
	for k, v := range sd.Dict {
		if k == "Parent" {
			continue
		}
		cv, err := c.copyObject(v, -1)
		if err != nil {
			c.rollback(srcNum)
			return 0, err
		}
		out[k] = cv
	}

	raw := make([]byte, len(sd.Raw))
	copy(raw, sd.Raw)
	sd2 := sd
	sd2.Dict = out
	sd2.Raw = raw
	c.dst.Set(newNum, sd2)
	return newNum, nil
}

// rollback removes a tentative id-reservation mapping on error, per
// the deep-copy error-handling rule.
func (c *copier) rollback(srcNum int) {
	if srcNum >= 0 {
		delete(c.seen, srcNum)
	}
}
