package exchange

import (
	"errors"
	"strings"

	"github.com/bijoor/site-tour-tools/internal/tour"
)

// ValidationError lists why a document was rejected. It matches
// ErrInvalidTour under errors.Is.
type ValidationError struct {
	Problems []string
	causes   []error
}

func (e *ValidationError) Error() string {
	return "invalid tour data: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() []error {
	return append([]error{ErrInvalidTour}, e.causes...)
}

func invalid(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

// checkShape mirrors the minimum document contract: id, name, background
// dimensions, pois and paths arrays.
func checkShape(raw map[string]any) error {
	if raw == nil {
		return invalid("empty document")
	}
	var problems []string

	if s, ok := raw["id"].(string); !ok || s == "" {
		problems = append(problems, "tour data must have a valid id")
	}
	if s, ok := raw["name"].(string); !ok || s == "" {
		problems = append(problems, "tour data must have a valid name")
	}

	bg, _ := raw["backgroundImage"].(map[string]any)
	if bg == nil || !positive(bg["width"]) || !positive(bg["height"]) {
		problems = append(problems, "tour data must have valid background image dimensions")
	}
	if _, ok := raw["pois"].([]any); !ok {
		problems = append(problems, "tour data must have a pois array")
	}
	if _, ok := raw["paths"].([]any); !ok {
		problems = append(problems, "tour data must have a paths array")
	}

	if len(problems) > 0 {
		return invalid(problems...)
	}
	return nil
}

func positive(v any) bool {
	switch n := v.(type) {
	case float64:
		return n > 0
	case int:
		return n > 0
	case int64:
		return n > 0
	case uint64:
		return n > 0
	}
	return false
}

// checkGraph rejects structural problems. References to missing POIs are
// let through: playback degrades them to "no candidate".
func checkGraph(g *tour.Graph) error {
	var ve ValidationError
	for _, issue := range g.Issues() {
		if errors.Is(issue, tour.ErrDanglingReference) {
			continue
		}
		ve.Problems = append(ve.Problems, issue.Error())
		ve.causes = append(ve.causes, issue)
	}
	if len(ve.Problems) > 0 {
		return &ve
	}
	return nil
}

// Warnings returns the tolerated issues Import let through
func Warnings(g *tour.Graph) []error {
	var out []error
	for _, issue := range g.Issues() {
		if errors.Is(issue, tour.ErrDanglingReference) {
			out = append(out, issue)
		}
	}
	return out
}
