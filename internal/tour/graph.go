package tour

import (
	"github.com/bijoor/site-tour-tools/internal/geometry"
)

// Branch is a candidate next segment from the visitor's current POI
type Branch struct {
	Segment PathSegment
	Index   int
	Reverse bool
}

// POI looks up a POI by id
func (g *Graph) POI(id string) (POI, bool) {
	if g == nil || id == "" {
		return POI{}, false
	}
	for _, p := range g.POIs {
		if p.ID == id {
			return p, true
		}
	}
	return POI{}, false
}

// HasPOI reports whether id names a POI of the graph
func (g *Graph) HasPOI(id string) bool {
	_, ok := g.POI(id)
	return ok
}

// PathIndex returns the storage index of a segment, or -1
func (g *Graph) PathIndex(id string) int {
	if g == nil {
		return -1
	}
	for i, s := range g.Paths {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Path looks up a segment by id
func (g *Graph) Path(id string) (PathSegment, bool) {
	i := g.PathIndex(id)
	if i < 0 {
		return PathSegment{}, false
	}
	return g.Paths[i], true
}

// ForwardPaths returns segments leaving poiID, in storage order
func (g *Graph) ForwardPaths(poiID, exclude string) []Branch {
	if g == nil || poiID == "" {
		return nil
	}
	var out []Branch
	for i, s := range g.Paths {
		if s.StartPOI != poiID || s.ID == exclude {
			continue
		}
		if !s.Traversable() {
			continue
		}
		// a declared far end that does not exist leaves nowhere to go
		if s.EndPOI != "" && !g.HasPOI(s.EndPOI) {
			continue
		}
		out = append(out, Branch{Segment: s, Index: i})
	}
	return out
}

// ReversePaths returns segments arriving at poiID whose origin has not
// been visited yet. Walking them backwards leads to new ground.
func (g *Graph) ReversePaths(poiID, exclude string, visited func(string) bool) []Branch {
	if g == nil || poiID == "" {
		return nil
	}
	var out []Branch
	for i, s := range g.Paths {
		if s.EndPOI != poiID || s.ID == exclude {
			continue
		}
		if !s.Traversable() {
			continue
		}
		if s.StartPOI != "" {
			if !g.HasPOI(s.StartPOI) {
				continue
			}
			if visited != nil && visited(s.StartPOI) {
				continue
			}
		}
		out = append(out, Branch{Segment: s, Index: i, Reverse: s.WalksBackFrom(poiID)})
	}
	return out
}

// Branches runs branch discovery from poiID: forward candidates first, then
// reverse ones, each in storage order and without duplicates.
func (g *Graph) Branches(poiID, exclude string, visited func(string) bool) []Branch {
	forward := g.ForwardPaths(poiID, exclude)
	reverse := g.ReversePaths(poiID, exclude, visited)

	seen := make(map[string]bool, len(forward)+len(reverse))
	out := make([]Branch, 0, len(forward)+len(reverse))
	for _, b := range append(forward, reverse...) {
		if seen[b.Segment.ID] {
			continue
		}
		seen[b.Segment.ID] = true
		out = append(out, b)
	}
	return out
}

// BranchIDs is Branches reduced to segment ids
func (g *Graph) BranchIDs(poiID, exclude string, visited func(string) bool) []string {
	branches := g.Branches(poiID, exclude, visited)
	if len(branches) == 0 {
		return nil
	}
	ids := make([]string, len(branches))
	for i, b := range branches {
		ids[i] = b.Segment.ID
	}
	return ids
}

// ConnectedPOIs returns the ids of every POI referenced by some segment,
// either as a snapped path point or as a start/end anchor.
func (g *Graph) ConnectedPOIs() map[string]bool {
	connected := make(map[string]bool)
	if g == nil {
		return connected
	}
	for _, s := range g.Paths {
		if s.StartPOI != "" {
			connected[s.StartPOI] = true
		}
		if s.EndPOI != "" {
			connected[s.EndPOI] = true
		}
		for _, p := range s.Points {
			if p.ConnectedPOI != "" {
				connected[p.ConnectedPOI] = true
			}
		}
	}
	return connected
}

// IsConnected reports whether any segment references poiID
func (g *Graph) IsConnected(poiID string) bool {
	return g.ConnectedPOIs()[poiID]
}

// NearestPOI returns the POI closest to p within maxDistance
func (g *Graph) NearestPOI(p geometry.Point, maxDistance float64) (POI, bool) {
	if g == nil {
		return POI{}, false
	}
	positions := make([]geometry.Point, len(g.POIs))
	for i, poi := range g.POIs {
		positions[i] = poi.Position
	}
	i, ok := geometry.Nearest(p, positions, maxDistance)
	if !ok {
		return POI{}, false
	}
	return g.POIs[i], true
}

// Extent returns the bounding box of every POI and path point
func (g *Graph) Extent() geometry.Box {
	if g == nil {
		return geometry.Box{}
	}
	var pts []geometry.Point
	for _, poi := range g.POIs {
		pts = append(pts, poi.Position)
	}
	for _, s := range g.Paths {
		pts = append(pts, s.Polyline()...)
	}
	return geometry.Bounds(pts)
}
