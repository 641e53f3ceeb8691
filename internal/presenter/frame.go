package presenter

import (
	"github.com/bijoor/site-tour-tools/internal/geometry"
	"github.com/bijoor/site-tour-tools/internal/playback"
	"github.com/bijoor/site-tour-tools/internal/tour"
)

// StrokeState is how a path should be drawn in the current frame
type StrokeState string

const (
	StrokeIdle      StrokeState = "idle"
	StrokeTraversed StrokeState = "traversed"
	StrokeActive    StrokeState = "active"
	StrokeCandidate StrokeState = "candidate"
	StrokeSelected  StrokeState = "selected"
)

type Marker struct {
	Position geometry.Point `json:"position"`
	Reverse  bool           `json:"reverse"`
}

type POIMarker struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	Position  geometry.Point `json:"position"`
	Visited   bool           `json:"visited"`
	Active    bool           `json:"active"`
	ShowLabel bool           `json:"showLabel"`
}

type PathStroke struct {
	ID      string           `json:"id"`
	Points  []geometry.Point `json:"points"`
	Color   string           `json:"color,omitempty"`
	Width   float64          `json:"width,omitempty"`
	Dash    string           `json:"dash"`
	State   StrokeState      `json:"state"`
	Reverse bool             `json:"reverse"`
}

// Controls says which UI actions would currently be accepted
type Controls struct {
	CanPlay        bool `json:"canPlay"`
	CanPause       bool `json:"canPause"`
	CanStop        bool `json:"canStop"`
	CanConfirm     bool `json:"canConfirm"`
	CanStepForward bool `json:"canStepForward"`
	CanStepBack    bool `json:"canStepBack"`
}

// Frame is everything the rendering layer needs to draw one moment of
// playback.
type Frame struct {
	Phase                 playback.Phase `json:"phase"`
	Marker                *Marker        `json:"marker"`
	POIs                  []POIMarker    `json:"pois"`
	Paths                 []PathStroke   `json:"paths"`
	ActivePOI             string         `json:"activePOI,omitempty"`
	VisitedPOIs           []string       `json:"visitedPOIs"`
	CurrentSegmentIndex   int            `json:"currentSegmentIndex"`
	SegmentProgress       float64        `json:"segmentProgress"`
	OverallProgress       float64        `json:"overallProgress"`
	IsPlaying             bool           `json:"isPlaying"`
	IsBranchSelectionMode bool           `json:"isBranchSelectionMode"`
	AvailableBranches     []string       `json:"availableBranches"`
	SelectedBranch        string         `json:"selectedBranch,omitempty"`
	Speed                 float64        `json:"speed"`
	Controls              Controls       `json:"controls"`
}

// View holds the presentation-only toggles
type View struct {
	ShowLabels           bool
	ShowBranchHighlights bool
}

// Build derives a frame from a graph and a state snapshot
func Build(g *tour.Graph, s playback.State, v View) Frame {
	f := Frame{
		Phase:                 s.Phase,
		ActivePOI:             s.ActivePOI,
		VisitedPOIs:           s.VisitedPOIs,
		CurrentSegmentIndex:   s.CurrentSegmentIndex,
		SegmentProgress:       s.SegmentProgress,
		OverallProgress:       s.OverallProgress,
		IsPlaying:             s.IsPlaying,
		IsBranchSelectionMode: s.IsBranchSelectionMode,
		AvailableBranches:     s.AvailableBranches,
		SelectedBranch:        s.SelectedBranch,
		Speed:                 s.Speed,
		POIs:                  []POIMarker{},
		Paths:                 []PathStroke{},
	}
	if s.CurrentPoint != nil {
		f.Marker = &Marker{Position: *s.CurrentPoint, Reverse: s.IsReverseTraversal}
	}
	if g == nil {
		f.Controls = controls(s, 0)
		return f
	}

	for _, p := range g.POIs {
		show := v.ShowLabels && (p.ShowLabel == nil || *p.ShowLabel)
		f.POIs = append(f.POIs, POIMarker{
			ID:        p.ID,
			Label:     p.Label,
			Position:  p.Position,
			Visited:   s.Visited(p.ID),
			Active:    p.ID == s.ActivePOI,
			ShowLabel: show,
		})
	}

	traversed := make(map[string]bool, len(s.Traversed))
	for _, id := range s.Traversed {
		traversed[id] = true
	}

	for i, seg := range g.Paths {
		stroke := PathStroke{
			ID:     seg.ID,
			Points: seg.Polyline(),
			Color:  seg.Color,
			Width:  seg.Width,
			Dash:   seg.Style.DashArray(),
			State:  StrokeIdle,
		}
		moving := s.Phase == playback.Playing || s.Phase == playback.Ready
		switch {
		case v.ShowBranchHighlights && s.IsBranchSelectionMode && seg.ID == s.SelectedBranch:
			stroke.State = StrokeSelected
			stroke.Reverse = seg.WalksBackFrom(s.CurrentPOI)
		case v.ShowBranchHighlights && s.IsBranchSelectionMode && s.IsBranch(seg.ID):
			stroke.State = StrokeCandidate
			stroke.Reverse = seg.WalksBackFrom(s.CurrentPOI)
		case moving && i == s.CurrentSegmentIndex:
			stroke.State = StrokeActive
			stroke.Reverse = s.IsReverseTraversal
		case traversed[seg.ID]:
			stroke.State = StrokeTraversed
		}
		f.Paths = append(f.Paths, stroke)
	}

	f.Controls = controls(s, len(g.Paths))
	return f
}

func controls(s playback.State, segments int) Controls {
	pending := s.Phase == playback.BranchSelectionPending && s.SelectedBranch != ""
	onSegment := (s.Phase == playback.Ready || s.Phase == playback.Playing) && segments > 0
	return Controls{
		CanPlay:        (s.Phase == playback.Ready && segments > 0) || pending,
		CanPause:       s.Phase == playback.Playing,
		CanStop:        s.Phase != playback.Idle,
		CanConfirm:     pending,
		CanStepForward: onSegment || pending,
		CanStepBack:    len(s.VisitedPOIs) > 0,
	}
}
