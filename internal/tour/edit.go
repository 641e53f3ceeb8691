package tour

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bijoor/site-tour-tools/internal/geometry"
)

var (
	ErrPOINotFound  = errors.New("poi not found")
	ErrPathNotFound = errors.New("path not found")
	ErrPathTooShort = errors.New("path needs at least 2 points")
)

// now is swapped in tests
var now = time.Now

// NewID returns a fresh identifier such as "poi_1b4e28ba-..."
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func timestamp() string {
	return now().UTC().Format(time.RFC3339)
}

// NewTour creates an empty tour document on the given background
func NewTour(name string, background Background) *Tour {
	ts := timestamp()
	return &Tour{
		ID:              NewID("tour"),
		Name:            name,
		BackgroundImage: background,
		Graph: Graph{
			POIs:  []POI{},
			Paths: []PathSegment{},
		},
		Settings:  DefaultSettings(),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func (t *Tour) touch() {
	t.UpdatedAt = timestamp()
}

// AddPOI places a new POI and returns it
func (t *Tour) AddPOI(position geometry.Point, label string) POI {
	poi := POI{
		ID:       NewID("poi"),
		Position: position,
		Label:    label,
	}
	t.POIs = append(t.POIs, poi)
	t.touch()
	return poi
}

// POIPatch holds the fields UpdatePOI may change. Nil fields are left alone.
type POIPatch struct {
	Position    *geometry.Point
	Label       *string
	Description *string
	ShowLabel   *bool
	Metadata    map[string]any
}

// UpdatePOI applies patch to the POI with the given id
func (t *Tour) UpdatePOI(id string, patch POIPatch) (POI, error) {
	for i := range t.POIs {
		if t.POIs[i].ID != id {
			continue
		}
		p := &t.POIs[i]
		if patch.Position != nil {
			p.Position = *patch.Position
		}
		if patch.Label != nil {
			p.Label = *patch.Label
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.ShowLabel != nil {
			v := *patch.ShowLabel
			p.ShowLabel = &v
		}
		if patch.Metadata != nil {
			if p.Metadata == nil {
				p.Metadata = make(map[string]any, len(patch.Metadata))
			}
			for k, v := range patch.Metadata {
				p.Metadata[k] = v
			}
		}
		t.touch()
		return *p, nil
	}
	return POI{}, fmt.Errorf("update %q: %w", id, ErrPOINotFound)
}

// DeletePOI removes a POI and every reference to it held by the paths
func (t *Tour) DeletePOI(id string) error {
	idx := -1
	for i, p := range t.POIs {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("delete %q: %w", id, ErrPOINotFound)
	}
	t.POIs = append(t.POIs[:idx], t.POIs[idx+1:]...)

	for i := range t.Paths {
		s := &t.Paths[i]
		if s.StartPOI == id {
			s.StartPOI = ""
		}
		if s.EndPOI == id {
			s.EndPOI = ""
		}
		for j := range s.Points {
			if s.Points[j].ConnectedPOI == id {
				s.Points[j].ConnectedPOI = ""
			}
		}
	}
	t.touch()
	return nil
}

// AddPath stores a finished polyline as a new segment. Points keep their
// ConnectedPOI markers; anchors are only ever set through Anchor.
func (t *Tour) AddPath(points []PathPoint, style Style) (PathSegment, error) {
	if len(points) < 2 {
		return PathSegment{}, fmt.Errorf("add path with %d points: %w", len(points), ErrPathTooShort)
	}
	if style == "" {
		style = StyleSolid
	}

	pts := make([]PathPoint, len(points))
	for i, p := range points {
		if p.ID == "" {
			p.ID = NewID("point")
		}
		pts[i] = p
	}

	color := t.Settings.Theme.Path.Color
	if color == "" {
		color = DefaultTheme().Path.Color
	}
	width := t.Settings.Theme.Path.Width
	if width <= 0 {
		width = DefaultPathWidth
	}

	seg := PathSegment{
		ID:     NewID("path"),
		Points: pts,
		Color:  color,
		Width:  width,
		Style:  style,
	}
	t.Paths = append(t.Paths, seg)
	t.touch()
	return seg, nil
}

// Anchor declares the graph endpoints of a segment. An empty id clears
// that end.
func (t *Tour) Anchor(pathID, startPOI, endPOI string) error {
	i := t.PathIndex(pathID)
	if i < 0 {
		return fmt.Errorf("anchor %q: %w", pathID, ErrPathNotFound)
	}
	for _, id := range []string{startPOI, endPOI} {
		if id != "" && !t.HasPOI(id) {
			return fmt.Errorf("anchor %q to %q: %w", pathID, id, ErrPOINotFound)
		}
	}
	t.Paths[i].StartPOI = startPOI
	t.Paths[i].EndPOI = endPOI
	t.touch()
	return nil
}

// DeletePath removes a segment
func (t *Tour) DeletePath(id string) error {
	i := t.PathIndex(id)
	if i < 0 {
		return fmt.Errorf("delete %q: %w", id, ErrPathNotFound)
	}
	t.Paths = append(t.Paths[:i], t.Paths[i+1:]...)
	t.touch()
	return nil
}

// Sketch collects points for a path being drawn. Points dropped within
// the snap distance of a POI take its position and record it as their
// ConnectedPOI.
type Sketch struct {
	tour   *Tour
	snap   float64
	grid   float64
	points []PathPoint
}

// StartPath begins a new sketch on the tour
func (t *Tour) StartPath(snapDistance, gridSize float64) *Sketch {
	if snapDistance <= 0 {
		snapDistance = DefaultSnapDistance
	}
	return &Sketch{tour: t, snap: snapDistance, grid: gridSize}
}

// Add appends a vertex and returns it after snapping
func (s *Sketch) Add(p geometry.Point) PathPoint {
	pt := PathPoint{
		ID:        NewID("point"),
		Timestamp: now().UnixMilli(),
	}
	if poi, ok := s.tour.NearestPOI(p, s.snap); ok {
		p = poi.Position
		pt.ConnectedPOI = poi.ID
	} else {
		p = geometry.SnapToGrid(p, s.grid)
	}
	pt.X, pt.Y = p.X, p.Y
	s.points = append(s.points, pt)
	return pt
}

// Points returns the vertices collected so far
func (s *Sketch) Points() []PathPoint {
	return append([]PathPoint(nil), s.points...)
}

// Complete stores the sketch as a segment
func (s *Sketch) Complete(style Style) (PathSegment, error) {
	seg, err := s.tour.AddPath(s.points, style)
	if err != nil {
		return PathSegment{}, err
	}
	s.points = nil
	return seg, nil
}

// Cancel discards the collected points
func (s *Sketch) Cancel() {
	s.points = nil
}
