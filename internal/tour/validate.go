package tour

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateID       = errors.New("duplicate id")
	ErrDanglingReference = errors.New("reference to missing poi")
	ErrEmptyID           = errors.New("empty id")
)

// Issues lists graph inconsistencies in storage order. Each entry wraps one
// of the package sentinels so callers can tell structural problems from
// dangling anchors, which playback tolerates.
func (g *Graph) Issues() []error {
	if g == nil {
		return nil
	}
	var issues []error

	pois := make(map[string]bool, len(g.POIs))
	for i, p := range g.POIs {
		if p.ID == "" {
			issues = append(issues, fmt.Errorf("pois[%d]: %w", i, ErrEmptyID))
			continue
		}
		if pois[p.ID] {
			issues = append(issues, fmt.Errorf("poi %q: %w", p.ID, ErrDuplicateID))
		}
		pois[p.ID] = true
	}

	paths := make(map[string]bool, len(g.Paths))
	for i, s := range g.Paths {
		name := s.ID
		if name == "" {
			issues = append(issues, fmt.Errorf("paths[%d]: %w", i, ErrEmptyID))
			name = fmt.Sprintf("paths[%d]", i)
		} else if paths[s.ID] {
			issues = append(issues, fmt.Errorf("path %q: %w", s.ID, ErrDuplicateID))
		}
		paths[s.ID] = true

		if !s.Traversable() {
			issues = append(issues, fmt.Errorf("path %q has %d points: %w", name, len(s.Points), ErrPathTooShort))
		}
		if s.StartPOI != "" && !pois[s.StartPOI] {
			issues = append(issues, fmt.Errorf("path %q startPOI %q: %w", name, s.StartPOI, ErrDanglingReference))
		}
		if s.EndPOI != "" && !pois[s.EndPOI] {
			issues = append(issues, fmt.Errorf("path %q endPOI %q: %w", name, s.EndPOI, ErrDanglingReference))
		}
		for _, p := range s.Points {
			if p.ConnectedPOI != "" && !pois[p.ConnectedPOI] {
				issues = append(issues, fmt.Errorf("path %q point %q connectedPOI %q: %w", name, p.ID, p.ConnectedPOI, ErrDanglingReference))
			}
		}
	}
	return issues
}

// Validate joins every issue into one error, nil when the graph is clean
func (g *Graph) Validate() error {
	return errors.Join(g.Issues()...)
}
