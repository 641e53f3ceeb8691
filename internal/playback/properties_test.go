package playback

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bijoor/site-tour-tools/internal/tour"
)

// grid graph with forks, merges and edges that can only be walked backwards
func mazeGraph() *tour.Graph {
	g := forkAtSecond()
	g.POIs = append(g.POIs,
		poi("poi-5", 200, 100),
		poi("poi-6", 300, 0),
	)
	g.Paths = append(g.Paths,
		seg("segment-4", "poi-4", "poi-5", 100, 100, 200, 100),
		seg("segment-5", "poi-5", "poi-3", 200, 100, 200, 0),
		seg("segment-6", "poi-6", "poi-3", 300, 0, 200, 0),
		seg("segment-7", "poi-6", "poi-5", 300, 0, 200, 100),
	)
	return g
}

func checkInvariants(t *testing.T, prev, cur Change) {
	t.Helper()
	s := cur.State

	seen := map[string]bool{}
	for _, id := range s.VisitedPOIs {
		require.False(t, seen[id], "duplicate %s in %v", id, s.VisitedPOIs)
		seen[id] = true
	}

	require.GreaterOrEqual(t, s.SegmentProgress, 0.0)
	require.LessOrEqual(t, s.SegmentProgress, 1.0)
	require.GreaterOrEqual(t, s.OverallProgress, 0.0)
	require.LessOrEqual(t, s.OverallProgress, 1.0)

	shrinking := cur.Has(EventSteppedBack) || cur.Has(EventTourStopped) || cur.Has(EventTourLoaded)
	if !shrinking {
		require.GreaterOrEqual(t, len(s.VisitedPOIs), len(prev.State.VisitedPOIs))
	}

	p := prev.State
	sameTraversal := p.Phase == Playing && s.Run == p.Run && s.CurrentSegmentIndex == p.CurrentSegmentIndex
	if sameTraversal && !cur.Has(EventSteppedBack) && !cur.Has(EventTourStopped) {
		require.GreaterOrEqual(t, s.SegmentProgress, p.SegmentProgress)
		require.GreaterOrEqual(t, s.OverallProgress, p.OverallProgress)
	}

	if s.Phase == BranchSelectionPending {
		require.NotEmpty(t, s.AvailableBranches)
		require.True(t, s.IsBranch(s.SelectedBranch))
		require.False(t, s.IsPlaying)
	}
	if s.Phase == TourComplete {
		require.False(t, s.IsPlaying)
	}
}

func TestRandomWalkInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for walk := 0; walk < 50; walk++ {
		m := New(Options{})
		var last Change
		m.Subscribe(func(c Change) {
			checkInvariants(t, last, c)
			last = c
		})
		m.Load(mazeGraph())

		for step := 0; step < 5000 && m.Snapshot().Phase != TourComplete; step++ {
			s := m.Snapshot()
			switch {
			case s.Phase == BranchSelectionPending:
				m.SelectBranch(s.AvailableBranches[rng.Intn(len(s.AvailableBranches))])
				m.Play()
			case s.Phase == Ready:
				m.Play()
			case rng.Intn(40) == 0:
				m.StepBack()
			case rng.Intn(60) == 0:
				m.Pause()
			default:
				m.AdvanceClock(rng.Float64() * 0.2)
			}
		}
		assert.Equal(t, TourComplete, m.Snapshot().Phase, "walk %d did not finish", walk)
	}
}

func TestBranchDiscoveryIsStable(t *testing.T) {
	m, _ := newMachine(t, mazeGraph())
	require.True(t, m.Play())
	s := playSegment(t, m)
	require.Equal(t, BranchSelectionPending, s.Phase)

	g := m.Graph()
	for i := 0; i < 5; i++ {
		again := g.BranchIDs(s.CurrentPOI, "segment-1", s.Visited)
		assert.Equal(t, s.AvailableBranches, again)
	}
	assert.NotContains(t, s.AvailableBranches, "segment-1")
}
