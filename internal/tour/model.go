package tour

import (
	"github.com/bijoor/site-tour-tools/internal/geometry"
)

const (
	DefaultSnapDistance   = 20.0
	DefaultPOISize        = 12
	DefaultPathWidth      = 3.0
	DefaultAnimationSpeed = 1.0
	DefaultPauseAtPOI     = 2000 // ms
)

// Style is the stroke pattern of a drawn path
type Style string

const (
	StyleSolid  Style = "solid"
	StyleDashed Style = "dashed"
	StyleDotted Style = "dotted"
)

// DashArray returns the stroke-dasharray value drawn for the style
func (s Style) DashArray() string {
	switch s {
	case StyleDashed:
		return "8,4"
	case StyleDotted:
		return "2,2"
	}
	return "none"
}

// POI is a labeled location anchor on the tour image
type POI struct {
	ID          string         `json:"id" yaml:"id"`
	Position    geometry.Point `json:"position" yaml:"position"`
	Label       string         `json:"label" yaml:"label"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	ShowLabel   *bool          `json:"showLabel,omitempty" yaml:"showLabel,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// PathPoint is a vertex of a drawn polyline. ConnectedPOI marks a vertex
// snapped onto a POI while drawing; it plays no part in traversal.
type PathPoint struct {
	ID           string  `json:"id" yaml:"id"`
	X            float64 `json:"x" yaml:"x"`
	Y            float64 `json:"y" yaml:"y"`
	ConnectedPOI string  `json:"connectedPOI,omitempty" yaml:"connectedPOI,omitempty"`
	Timestamp    int64   `json:"timestamp,omitempty" yaml:"timestamp,omitempty"` // unix ms
}

// PathSegment is a directed edge of the tour graph. Traversing Points from
// first to last moves the visitor from StartPOI to EndPOI.
type PathSegment struct {
	ID       string      `json:"id" yaml:"id"`
	Points   []PathPoint `json:"points" yaml:"points"`
	Color    string      `json:"color,omitempty" yaml:"color,omitempty"`
	Width    float64     `json:"width,omitempty" yaml:"width,omitempty"`
	Style    Style       `json:"style,omitempty" yaml:"style,omitempty"`
	StartPOI string      `json:"startPOI,omitempty" yaml:"startPOI,omitempty"`
	EndPOI   string      `json:"endPOI,omitempty" yaml:"endPOI,omitempty"`
}

// Graph is the playback input: POIs plus ordered path segments
type Graph struct {
	POIs  []POI         `json:"pois" yaml:"pois"`
	Paths []PathSegment `json:"paths" yaml:"paths"`
}

// Background describes the floor-plan image the tour is drawn on
type Background struct {
	URL    string  `json:"url" yaml:"url"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Tour is the exchange document wrapping a graph
type Tour struct {
	ID              string     `json:"id" yaml:"id"`
	Name            string     `json:"name" yaml:"name"`
	Description     string     `json:"description,omitempty" yaml:"description,omitempty"`
	BackgroundImage Background `json:"backgroundImage" yaml:"backgroundImage"`
	Graph           `yaml:",inline"`
	Settings        Settings `json:"settings" yaml:"settings"`
	CreatedAt       string   `json:"createdAt" yaml:"createdAt"`
	UpdatedAt       string   `json:"updatedAt" yaml:"updatedAt"`
}

// Settings are presentation preferences stored with a tour
type Settings struct {
	AnimationSpeed float64 `json:"animationSpeed" yaml:"animationSpeed"`
	PauseAtPOI     int     `json:"pauseAtPOI" yaml:"pauseAtPOI"`
	ShowPOILabels  bool    `json:"showPOILabels" yaml:"showPOILabels"`
	AutoStart      bool    `json:"autoStart" yaml:"autoStart"`
	Loop           bool    `json:"loop" yaml:"loop"`
	Theme          Theme   `json:"theme" yaml:"theme"`
}

type Theme struct {
	Primary    string    `json:"primary" yaml:"primary"`
	Secondary  string    `json:"secondary" yaml:"secondary"`
	Background string    `json:"background" yaml:"background"`
	Text       string    `json:"text" yaml:"text"`
	Accent     string    `json:"accent" yaml:"accent"`
	POI        POITheme  `json:"poi" yaml:"poi"`
	Path       PathTheme `json:"path" yaml:"path"`
}

type POITheme struct {
	Color      string `json:"color" yaml:"color"`
	Size       int    `json:"size" yaml:"size"`
	HoverColor string `json:"hoverColor" yaml:"hoverColor"`
}

type PathTheme struct {
	Color       string  `json:"color" yaml:"color"`
	Width       float64 `json:"width" yaml:"width"`
	ActiveColor string  `json:"activeColor" yaml:"activeColor"`
}

// DefaultTheme returns the stock colour scheme
func DefaultTheme() Theme {
	return Theme{
		Primary:    "#3b82f6",
		Secondary:  "#6b7280",
		Background: "#ffffff",
		Text:       "#1f2937",
		Accent:     "#f59e0b",
		POI: POITheme{
			Color:      "#ef4444",
			Size:       DefaultPOISize,
			HoverColor: "#dc2626",
		},
		Path: PathTheme{
			Color:       "#3b82f6",
			Width:       DefaultPathWidth,
			ActiveColor: "#1d4ed8",
		},
	}
}

// DefaultSettings returns settings for a freshly created tour
func DefaultSettings() Settings {
	return Settings{
		AnimationSpeed: DefaultAnimationSpeed,
		PauseAtPOI:     DefaultPauseAtPOI,
		ShowPOILabels:  true,
		AutoStart:      false,
		Loop:           false,
		Theme:          DefaultTheme(),
	}
}

// Point returns the vertex as a plain coordinate
func (p PathPoint) Point() geometry.Point {
	return geometry.Point{X: p.X, Y: p.Y}
}

// Polyline returns the segment vertices as plain coordinates
func (s PathSegment) Polyline() []geometry.Point {
	pts := make([]geometry.Point, len(s.Points))
	for i, p := range s.Points {
		pts[i] = p.Point()
	}
	return pts
}

// Traversable reports whether the segment has enough points to be walked
func (s PathSegment) Traversable() bool {
	return len(s.Points) >= 2
}

// WalksBackFrom reports whether leaving poiID along the segment means
// walking it backwards: it ends there and does not also start there.
func (s PathSegment) WalksBackFrom(poiID string) bool {
	return poiID != "" && s.EndPOI == poiID && s.StartPOI != poiID
}

// First returns the first vertex, the forward traversal origin
func (s PathSegment) First() (geometry.Point, bool) {
	if len(s.Points) == 0 {
		return geometry.Point{}, false
	}
	return s.Points[0].Point(), true
}

// Last returns the last vertex, the reverse traversal origin
func (s PathSegment) Last() (geometry.Point, bool) {
	if len(s.Points) == 0 {
		return geometry.Point{}, false
	}
	return s.Points[len(s.Points)-1].Point(), true
}

// Clone returns a deep copy so callers can mutate freely
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	out := &Graph{
		POIs:  make([]POI, len(g.POIs)),
		Paths: make([]PathSegment, len(g.Paths)),
	}
	for i, p := range g.POIs {
		if p.ShowLabel != nil {
			v := *p.ShowLabel
			p.ShowLabel = &v
		}
		if p.Metadata != nil {
			m := make(map[string]any, len(p.Metadata))
			for k, v := range p.Metadata {
				m[k] = v
			}
			p.Metadata = m
		}
		out.POIs[i] = p
	}
	for i, s := range g.Paths {
		s.Points = append([]PathPoint(nil), s.Points...)
		out.Paths[i] = s
	}
	return out
}
