package playback

import (
	"fmt"

	"github.com/bijoor/site-tour-tools/internal/geometry"
)

// Phase is the coarse playback state
type Phase int

const (
	Idle Phase = iota
	Ready
	Playing
	SegmentComplete
	BranchSelectionPending
	TourComplete
)

var phaseNames = map[Phase]string{
	Idle:                   "idle",
	Ready:                  "ready",
	Playing:                "playing",
	SegmentComplete:        "segment-complete",
	BranchSelectionPending: "branch-selection",
	TourComplete:           "tour-complete",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// State is an immutable snapshot of a playback session. Slices are owned
// by the snapshot; callers get their own copies.
type State struct {
	Phase                 Phase           `json:"phase"`
	CurrentSegmentIndex   int             `json:"currentSegmentIndex"`
	SegmentProgress       float64         `json:"segmentProgress"`
	OverallProgress       float64         `json:"overallProgress"`
	CurrentPoint          *geometry.Point `json:"currentPoint"`
	ActivePOI             string          `json:"activePOI,omitempty"`
	CurrentPOI            string          `json:"currentPOI,omitempty"`
	VisitedPOIs           []string        `json:"visitedPOIs"`
	Traversed             []string        `json:"traversed"`
	IsPlaying             bool            `json:"isPlaying"`
	Speed                 float64         `json:"speed"`
	AvailableBranches     []string        `json:"availableBranches"`
	SelectedBranch        string          `json:"selectedBranch,omitempty"`
	IsBranchSelectionMode bool            `json:"isBranchSelectionMode"`
	IsReverseTraversal    bool            `json:"isReverseTraversal"`
	Run                   uint64          `json:"run"`
}

func (s State) clone() State {
	out := s
	if s.CurrentPoint != nil {
		p := *s.CurrentPoint
		out.CurrentPoint = &p
	}
	out.VisitedPOIs = append([]string{}, s.VisitedPOIs...)
	out.Traversed = append([]string{}, s.Traversed...)
	out.AvailableBranches = append([]string{}, s.AvailableBranches...)
	return out
}

// Visited reports whether id is in the visited set
func (s State) Visited(id string) bool {
	for _, v := range s.VisitedPOIs {
		if v == id {
			return true
		}
	}
	return false
}

// IsBranch reports whether id is one of the offered branches
func (s State) IsBranch(id string) bool {
	for _, b := range s.AvailableBranches {
		if b == id {
			return true
		}
	}
	return false
}
