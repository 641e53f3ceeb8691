package exchange

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/bijoor/site-tour-tools/internal/tour"
)

// GeoJSON exports POIs as Point features and paths as LineString features.
// Coordinates stay in image pixel space.
func GeoJSON(t *tour.Tour, opts Options) ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	for _, p := range t.POIs {
		f := geojson.NewFeature(orb.Point{p.Position.X, p.Position.Y})
		f.ID = p.ID
		f.Properties["kind"] = "poi"
		f.Properties["label"] = p.Label
		if p.Description != "" {
			f.Properties["description"] = p.Description
		}
		if opts.IncludeMetadata && len(p.Metadata) > 0 {
			f.Properties["metadata"] = p.Metadata
		}
		fc.Append(f)
	}

	for _, s := range t.Paths {
		ls := make(orb.LineString, len(s.Points))
		for i, p := range s.Points {
			ls[i] = orb.Point{p.X, p.Y}
		}
		f := geojson.NewFeature(ls)
		f.ID = s.ID
		f.Properties["kind"] = "path"
		f.Properties["style"] = string(s.Style)
		if s.Color != "" {
			f.Properties["color"] = s.Color
		}
		if s.StartPOI != "" {
			f.Properties["startPOI"] = s.StartPOI
		}
		if s.EndPOI != "" {
			f.Properties["endPOI"] = s.EndPOI
		}
		fc.Append(f)
	}

	return fc.MarshalJSON()
}
