package exchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bijoor/site-tour-tools/internal/tour"
)

// Format names an exchange encoding
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatSVG     Format = "svg"
	FormatGeoJSON Format = "geojson"
)

var (
	ErrInvalidTour       = errors.New("invalid tour data")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// ParseFormat maps a user supplied name onto a Format
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "svg":
		return FormatSVG, nil
	case "geojson":
		return FormatGeoJSON, nil
	}
	return "", fmt.Errorf("%q: %w", name, ErrUnsupportedFormat)
}

// Options control what an export carries
type Options struct {
	IncludeBackground bool
	IncludeMetadata   bool
	Compact           bool
}

// DefaultOptions keeps everything and pretty prints
func DefaultOptions() Options {
	return Options{IncludeBackground: true, IncludeMetadata: true}
}

// Export encodes a tour in the requested format
func Export(t *tour.Tour, format Format, opts Options) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("export: nil tour")
	}
	doc := prepare(t, opts)

	switch format {
	case FormatJSON:
		if opts.Compact {
			return json.Marshal(doc)
		}
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		return yaml.Marshal(doc)
	case FormatSVG:
		return []byte(SVG(doc, opts)), nil
	case FormatGeoJSON:
		return GeoJSON(doc, opts)
	}
	return nil, fmt.Errorf("export %q: %w", format, ErrUnsupportedFormat)
}

// prepare copies the tour and applies the export options
func prepare(t *tour.Tour, opts Options) *tour.Tour {
	doc := *t
	doc.Graph = *t.Graph.Clone()
	if doc.POIs == nil {
		doc.POIs = []tour.POI{}
	}
	if doc.Paths == nil {
		doc.Paths = []tour.PathSegment{}
	}
	if !opts.IncludeMetadata {
		for i := range doc.POIs {
			doc.POIs[i].Metadata = nil
		}
	}
	if !opts.IncludeBackground {
		doc.BackgroundImage.URL = ""
	}
	return &doc
}

// Import decodes and validates a tour. Nothing is returned unless the
// document passes validation.
func Import(data []byte, format Format) (*tour.Tour, error) {
	var raw map[string]any
	var decode func(any) error

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, invalid(fmt.Sprintf("malformed json: %v", err))
		}
		decode = func(v any) error { return json.Unmarshal(data, v) }
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, invalid(fmt.Sprintf("malformed yaml: %v", err))
		}
		decode = func(v any) error { return yaml.Unmarshal(data, v) }
	default:
		return nil, fmt.Errorf("import %q: %w", format, ErrUnsupportedFormat)
	}

	if err := checkShape(raw); err != nil {
		return nil, err
	}

	var t tour.Tour
	if err := decode(&t); err != nil {
		return nil, invalid(err.Error())
	}
	if err := checkGraph(&t.Graph); err != nil {
		return nil, err
	}
	return &t, nil
}
