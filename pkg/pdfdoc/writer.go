package pdfdoc

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/mrcpdf/mrcpdf/pkg/pdfmodel"
)

// Write serialises doc as a classic-xref PDF file: header, every
// object in ascending object-number order, an xref table, and a
// trailer pointing at doc.Root.
func Write(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n")

	nums := make([]int, 0, len(doc.Objects))
	for n := range doc.Objects {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	offsets := make(map[int]int64, len(nums))
	maxNum := 0
	for _, n := range nums {
		if n > maxNum {
			maxNum = n
		}
		offsets[n] = int64(buf.Len())
		writeObject(&buf, n, doc.Objects[n])
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", maxNum+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= maxNum; i++ {
		off, ok := offsets[i]
		if !ok {
			buf.WriteString("0000000000 00000 f \n")
			continue
		}
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	trailer := doc.Trailer
	if trailer == nil {
		trailer = pdfmodel.NewDict()
	}
	trailer.Update("Size", pdfmodel.Integer(maxNum+1))
	trailer.Update("Root", doc.Root)

	fmt.Fprintf(&buf, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer.PDFString(), xrefOffset)

	return buf.Bytes(), nil
}

func writeObject(buf *bytes.Buffer, num int, obj pdfmodel.Object) {
	fmt.Fprintf(buf, "%d 0 obj\n", num)

	if sd, ok := obj.(pdfmodel.StreamDict); ok {
		buf.WriteString(sd.Dict.PDFString())
		buf.WriteString("\nstream\n")
		buf.Write(sd.Raw)
		buf.WriteString("\nendstream\n")
	} else if obj == nil {
		buf.WriteString("null\n")
	} else {
		buf.WriteString(obj.PDFString())
		buf.WriteString("\n")
	}

	buf.WriteString("endobj\n")
}
