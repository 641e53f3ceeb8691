package playback

import (
	"math"

	"go.uber.org/zap"

	"github.com/bijoor/site-tour-tools/internal/geometry"
	"github.com/bijoor/site-tour-tools/internal/tour"
)

// Load replaces the graph and resets all playback state. Speed carries
// over. A nil graph returns the machine to Idle.
func (m *Machine) Load(g *tour.Graph) {
	graph := g.Clone()
	m.apply("load", func(tx *txn) bool {
		tx.m.graph = graph
		tx.g = graph
		tx.reset()
		tx.emit(EventTourLoaded, "", "")
		return true
	})

	if g != nil {
		m.log.Info("tour loaded", zap.Int("pois", len(g.POIs)), zap.Int("paths", len(g.Paths)))
	}
}

// Play starts or resumes playback. With a branch pending it confirms the
// selected branch instead.
func (m *Machine) Play() bool {
	return m.apply("play", func(tx *txn) bool {
		switch tx.next.Phase {
		case BranchSelectionPending:
			return tx.confirm(true)
		case Ready:
			if tx.segmentCount() == 0 {
				return false
			}
			tx.startPlaying()
			tx.emit(EventTourStarted, "", tx.segmentID())
			return true
		}
		return false
	})
}

// Pause halts the clock, keeping position
func (m *Machine) Pause() bool {
	return m.apply("pause", func(tx *txn) bool {
		if tx.next.Phase != Playing {
			return false
		}
		tx.next.IsPlaying = false
		tx.next.Phase = Ready
		tx.emit(EventTourPaused, "", tx.segmentID())
		return true
	})
}

// Stop rewinds to segment 0 with the visited set as right after Load
func (m *Machine) Stop() bool {
	return m.apply("stop", func(tx *txn) bool {
		if tx.g == nil {
			return false
		}
		tx.reset()
		tx.emit(EventTourStopped, "", "")
		return true
	})
}

// AdvanceClock moves the visitor deltaProgress along the current segment.
// Reaching the end resolves the arrival within the same transition.
func (m *Machine) AdvanceClock(deltaProgress float64) bool {
	return m.apply("advance", func(tx *txn) bool {
		return tx.advance(deltaProgress)
	})
}

// AdvanceRun is AdvanceClock guarded by the run counter, so ticks from a
// playback context that has since been paused or replaced are dropped.
func (m *Machine) AdvanceRun(run uint64, deltaProgress float64) bool {
	return m.apply("advance", func(tx *txn) bool {
		if tx.next.Run != run {
			return false
		}
		return tx.advance(deltaProgress)
	})
}

// CompleteSegment jumps to the end of the current segment and resolves
// the arrival without animating the rest of it.
func (m *Machine) CompleteSegment() bool {
	return m.apply("complete-segment", func(tx *txn) bool {
		if tx.next.Phase != Ready && tx.next.Phase != Playing {
			return false
		}
		return tx.jumpToEnd()
	})
}

// Seek repositions the visitor within the current segment
func (m *Machine) Seek(progress float64) bool {
	return m.apply("seek", func(tx *txn) bool {
		if math.IsNaN(progress) || tx.segmentCount() == 0 {
			return false
		}
		if tx.next.Phase != Ready && tx.next.Phase != Playing {
			return false
		}
		progress = geometry.Clamp(progress, 0, 1)
		tx.moveTo(progress)
		tx.visitNearby()
		if progress >= 1 {
			tx.completeSegment()
		}
		return true
	})
}

// SelectBranch picks one of the offered branches
func (m *Machine) SelectBranch(segmentID string) bool {
	return m.apply("select-branch", func(tx *txn) bool {
		if tx.next.Phase != BranchSelectionPending || !tx.next.IsBranch(segmentID) {
			return false
		}
		tx.next.SelectedBranch = segmentID
		tx.emit(EventBranchSelected, tx.next.CurrentPOI, segmentID)
		return true
	})
}

// ConfirmBranch starts playing the selected branch
func (m *Machine) ConfirmBranch() bool {
	return m.apply("confirm-branch", func(tx *txn) bool {
		if tx.next.Phase != BranchSelectionPending {
			return false
		}
		return tx.confirm(true)
	})
}

// StepForward advances one step without the clock: from a segment it
// jumps to the arrival, from a pending branch it moves onto the selected
// branch and waits there paused.
func (m *Machine) StepForward() bool {
	return m.apply("step-forward", func(tx *txn) bool {
		switch tx.next.Phase {
		case Ready, Playing:
			return tx.jumpToEnd()
		case BranchSelectionPending:
			return tx.confirm(false)
		}
		return false
	})
}

// StepBack pops the last visited POI, puts the visitor back on it and
// reruns branch discovery from there. Callbacks are not replayed.
func (m *Machine) StepBack() bool {
	return m.apply("step-back", func(tx *txn) bool {
		n := len(tx.next.VisitedPOIs)
		if tx.g == nil || n == 0 {
			return false
		}
		last := tx.next.VisitedPOIs[n-1]
		tx.next.VisitedPOIs = tx.next.VisitedPOIs[:n-1]
		tx.next.ActivePOI = last
		tx.next.CurrentPOI = last
		tx.next.IsPlaying = false
		tx.next.SegmentProgress = 0
		tx.next.IsReverseTraversal = false
		if total := tx.segmentCount(); total > 0 {
			tx.next.OverallProgress = geometry.Clamp(float64(tx.next.CurrentSegmentIndex)/float64(total), 0, 1)
		}
		if poi, ok := tx.g.POI(last); ok {
			p := geometry.Round(poi.Position)
			tx.next.CurrentPoint = &p
		}
		tx.emit(EventSteppedBack, last, "")

		if !tx.g.HasPOI(last) {
			tx.finish()
			return true
		}
		tx.discover(last, "")
		return true
	})
}

// SetSpeed sets the playback speed multiplier, clamped to [MinSpeed, MaxSpeed]
func (m *Machine) SetSpeed(v float64) bool {
	return m.apply("set-speed", func(tx *txn) bool {
		if math.IsNaN(v) {
			return false
		}
		tx.next.Speed = clampSpeed(v)
		tx.emit(EventSpeedChanged, "", "")
		return true
	})
}

func (tx *txn) segmentCount() int {
	if tx.g == nil {
		return 0
	}
	return len(tx.g.Paths)
}

func (tx *txn) segment() (tour.PathSegment, bool) {
	i := tx.next.CurrentSegmentIndex
	if i < 0 || i >= tx.segmentCount() {
		return tour.PathSegment{}, false
	}
	return tx.g.Paths[i], true
}

func (tx *txn) segmentID() string {
	s, _ := tx.segment()
	return s.ID
}

// reset rebuilds the post-load state. Speed and the run counter survive.
func (tx *txn) reset() {
	prev := tx.next
	tx.next = State{
		Phase:             Idle,
		Speed:             prev.Speed,
		Run:               prev.Run,
		VisitedPOIs:       []string{},
		Traversed:         []string{},
		AvailableBranches: []string{},
	}
	tx.resetNotes = true
	if tx.g == nil {
		return
	}
	tx.next.Phase = Ready

	first, ok := tx.segment()
	if !ok {
		return
	}
	if pt, ok := first.First(); ok {
		p := geometry.Round(pt)
		tx.next.CurrentPoint = &p
	}
	// tours start at a POI when the first segment is anchored to one
	if first.StartPOI != "" && tx.g.HasPOI(first.StartPOI) {
		tx.visit(first.StartPOI)
		tx.next.CurrentPOI = first.StartPOI
	}
}

func (tx *txn) startPlaying() {
	tx.next.IsPlaying = true
	tx.next.Phase = Playing
	tx.next.Run++
}

// visit adds id to the visited set and makes it the active POI
func (tx *txn) visit(id string) {
	if tx.next.Visited(id) {
		return
	}
	tx.next.VisitedPOIs = append(tx.next.VisitedPOIs, id)
	tx.next.ActivePOI = id
	if poi, ok := tx.g.POI(id); ok {
		tx.visits = append(tx.visits, poi)
	}
	tx.emit(EventPOIVisited, id, tx.segmentID())
}

func (tx *txn) advance(delta float64) bool {
	if tx.next.Phase != Playing || math.IsNaN(delta) || delta < 0 {
		return false
	}
	if _, ok := tx.segment(); !ok {
		return false
	}
	progress := math.Min(tx.next.SegmentProgress+delta, 1)
	tx.moveTo(progress)
	tx.visitNearby()
	if progress >= 1 {
		tx.completeSegment()
	}
	return true
}

// moveTo places the visitor at progress along the current segment,
// walking the polyline backwards on a reverse traversal.
func (tx *txn) moveTo(progress float64) {
	seg, ok := tx.segment()
	if !ok {
		return
	}
	tx.next.SegmentProgress = progress

	t := progress
	if tx.next.IsReverseTraversal {
		t = 1 - progress
	}
	if pt, ok := geometry.PointAtProgress(seg.Polyline(), t); ok {
		p := geometry.Round(pt)
		tx.next.CurrentPoint = &p
	}

	total := float64(tx.segmentCount())
	tx.next.OverallProgress = geometry.Clamp((float64(tx.next.CurrentSegmentIndex)+progress)/total, 0, 1)
}

// visitNearby marks every unvisited POI within the visit radius
func (tx *txn) visitNearby() {
	if tx.next.CurrentPoint == nil {
		return
	}
	at := *tx.next.CurrentPoint
	for _, poi := range tx.g.POIs {
		if tx.next.Visited(poi.ID) {
			continue
		}
		if geometry.Distance(at, poi.Position) < tx.m.opts.VisitRadius {
			tx.visit(poi.ID)
		}
	}
}

func (tx *txn) jumpToEnd() bool {
	if _, ok := tx.segment(); !ok {
		return false
	}
	tx.moveTo(1)
	tx.completeSegment()
	return true
}

// completeSegment resolves where the visitor arrived and what comes next.
// The machine passes through SegmentComplete and settles in
// BranchSelectionPending or TourComplete.
func (tx *txn) completeSegment() {
	seg, _ := tx.segment()
	tx.next.Phase = SegmentComplete
	tx.next.IsPlaying = false
	tx.next.Traversed = append(tx.next.Traversed, seg.ID)
	tx.emit(EventSegmentCompleted, "", seg.ID)

	arrival := seg.EndPOI
	if tx.next.IsReverseTraversal {
		arrival = seg.StartPOI
	}

	if arrival == "" {
		tx.next.CurrentPOI = ""
		// only a segment drawn with no end at all falls back to storage
		// order; walking back to an absent start leads nowhere
		if seg.EndPOI != "" || tx.next.IsReverseTraversal {
			tx.finish()
			return
		}
		next := tx.next.CurrentSegmentIndex + 1
		if next < tx.segmentCount() && tx.g.Paths[next].Traversable() {
			tx.pending([]string{tx.g.Paths[next].ID})
			return
		}
		tx.finish()
		return
	}

	if !tx.g.HasPOI(arrival) {
		tx.m.log.Warn("segment ends at missing poi", zap.String("segment", seg.ID), zap.String("poi", arrival))
		tx.finish()
		return
	}

	tx.visit(arrival)
	tx.next.ActivePOI = arrival
	tx.next.CurrentPOI = arrival
	tx.discover(arrival, seg.ID)
}

// discover offers the branches leaving poiID, or ends the tour
func (tx *txn) discover(poiID, exclude string) {
	ids := tx.g.BranchIDs(poiID, exclude, tx.next.Visited)
	if len(ids) == 0 {
		tx.finish()
		return
	}
	tx.pending(ids)
}

func (tx *txn) pending(ids []string) {
	tx.next.Phase = BranchSelectionPending
	tx.next.IsPlaying = false
	tx.next.IsBranchSelectionMode = true
	tx.next.AvailableBranches = ids
	tx.next.SelectedBranch = ids[0]
	tx.emit(EventBranchPending, tx.next.CurrentPOI, ids[0])
	tx.m.log.Info("branch pending", zap.String("poi", tx.next.CurrentPOI), zap.Strings("branches", ids))
}

func (tx *txn) finish() {
	tx.next.Phase = TourComplete
	tx.next.IsPlaying = false
	tx.next.OverallProgress = 1
	tx.next.IsBranchSelectionMode = false
	tx.next.AvailableBranches = []string{}
	tx.next.SelectedBranch = ""
	tx.complete = true
	tx.emit(EventTourCompleted, tx.next.CurrentPOI, "")
}

// confirm moves onto the selected branch. A branch that ends where the
// visitor stands, and does not also start there, is walked backwards.
func (tx *txn) confirm(play bool) bool {
	sel := tx.next.SelectedBranch
	if sel == "" {
		return false
	}
	i := tx.g.PathIndex(sel)
	if i < 0 {
		return false
	}
	seg := tx.g.Paths[i]
	at := tx.next.CurrentPOI
	reverse := seg.WalksBackFrom(at)

	origin, ok := seg.First()
	if reverse {
		origin, ok = seg.Last()
	}
	if ok {
		p := geometry.Round(origin)
		tx.next.CurrentPoint = &p
	}

	tx.next.CurrentSegmentIndex = i
	tx.next.SegmentProgress = 0
	tx.next.OverallProgress = float64(i) / float64(tx.segmentCount())
	tx.next.IsReverseTraversal = reverse
	tx.next.SelectedBranch = ""
	tx.next.AvailableBranches = []string{}
	tx.next.IsBranchSelectionMode = false

	if play {
		tx.startPlaying()
	} else {
		tx.next.Phase = Ready
		tx.next.IsPlaying = false
	}
	tx.emit(EventSegmentStarted, at, seg.ID)
	return true
}
