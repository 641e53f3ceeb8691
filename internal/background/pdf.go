package background

import (
	"github.com/gen2brain/go-fitz"
)

type PDFSource struct {
	doc *fitz.Document
}

func NewPDFSource(path string) (*PDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &PDFSource{doc: doc}, nil
}

func (f *PDFSource) PageCount() int {
	return f.doc.NumPage()
}

// PageSize reports the page bounds in points
func (f *PDFSource) PageSize(index int) (float64, float64, error) {
	rect, err := f.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

func (f *PDFSource) Close() error {
	return f.doc.Close()
}
