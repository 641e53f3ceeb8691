package background

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bijoor/site-tour-tools/internal/tour"
)

var ErrUnsupportedSource = errors.New("unsupported background source")

// Source is a floor plan made of one or more pages
type Source interface {
	PageCount() int
	PageSize(index int) (width, height float64, err error)
	Close() error
}

// Open picks a Source implementation from the path: PDF documents go
// through MuPDF, directories and raster files through image decoders.
func Open(path string) (Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return NewImageSource(path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		return NewPDFSource(path)
	case imageExts[ext]:
		return NewImageSource(path)
	}
	return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedSource)
}

// Probe returns the background descriptor for one page of a floor plan.
// url is stored as given; the file itself is only read for its size.
func Probe(path, url string, page int) (tour.Background, error) {
	src, err := Open(path)
	if err != nil {
		return tour.Background{}, err
	}
	defer src.Close()

	if page < 0 || page >= src.PageCount() {
		return tour.Background{}, fmt.Errorf("%s: page %d out of range (%d pages)", path, page, src.PageCount())
	}
	w, h, err := src.PageSize(page)
	if err != nil {
		return tour.Background{}, fmt.Errorf("%s: failed to read page size: %w", path, err)
	}
	if url == "" {
		url = filepath.Base(path)
	}
	return tour.Background{URL: url, Width: w, Height: h}, nil
}
