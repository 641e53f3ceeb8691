package playback

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bijoor/site-tour-tools/internal/tour"
)

// Machine is the playback state machine for one session. Every exported
// method is a transition: it builds the next State from a copy and
// publishes it in a single assignment, so readers never see a half-applied
// change. Callbacks and listeners run after the lock is released and may
// call back into the machine.
type Machine struct {
	mu    sync.Mutex
	graph *tour.Graph
	state State
	opts  Options
	log   *zap.Logger
	seq   uint64

	// per-run notification bookkeeping, cleared by Load and Stop
	notified  map[string]bool
	completed bool

	listeners map[int]Listener
	nextID    int
}

func New(opts Options) *Machine {
	opts = opts.withDefaults()
	return &Machine{
		opts:      opts,
		log:       opts.Logger.Named("playback"),
		state:     State{Phase: Idle, Speed: opts.Speed},
		notified:  make(map[string]bool),
		listeners: make(map[int]Listener),
	}
}

// Snapshot returns a copy of the current state
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Graph returns the loaded graph. It must be treated as read-only.
func (m *Machine) Graph() *tour.Graph {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graph
}

// SegmentDuration is the nominal traversal time of one segment at speed 1
func (m *Machine) SegmentDuration() time.Duration {
	return m.opts.SegmentDuration
}

// Subscribe registers l for every accepted transition and returns a
// function that removes it.
func (m *Machine) Subscribe(l Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// txn accumulates one transition. It is only touched while m.mu is held.
type txn struct {
	m    *Machine
	g    *tour.Graph
	next State

	events     []Event
	visits     []tour.POI
	complete   bool
	resetNotes bool
}

func (tx *txn) emit(t EventType, poi, segment string) {
	tx.events = append(tx.events, Event{Type: t, POI: poi, Segment: segment})
}

// apply runs fn against a copy of the state and commits it when fn
// accepts the transition.
func (m *Machine) apply(name string, fn func(tx *txn) bool) bool {
	m.mu.Lock()
	tx := &txn{m: m, g: m.graph, next: m.state.clone()}
	if !fn(tx) {
		phase := m.state.Phase
		m.mu.Unlock()
		m.log.Debug("transition rejected", zap.String("transition", name), zap.Stringer("phase", phase))
		return false
	}

	if tx.resetNotes {
		m.notified = make(map[string]bool)
		m.completed = false
	}
	var visits []tour.POI
	for _, poi := range tx.visits {
		if !m.notified[poi.ID] {
			m.notified[poi.ID] = true
			visits = append(visits, poi)
		}
	}
	fireComplete := tx.complete && !m.completed
	if fireComplete {
		m.completed = true
	}

	m.state = tx.next
	m.seq++
	change := Change{Seq: m.seq, State: m.state.clone(), Events: tx.events}
	listeners := m.sortedListeners()
	m.mu.Unlock()

	m.log.Debug("transition",
		zap.String("transition", name),
		zap.Stringer("phase", change.State.Phase),
		zap.Int("segment", change.State.CurrentSegmentIndex),
		zap.Float64("progress", change.State.SegmentProgress),
	)

	if m.opts.OnPOIVisit != nil {
		for _, poi := range visits {
			m.opts.OnPOIVisit(poi)
		}
	}
	if fireComplete {
		m.log.Info("tour complete", zap.Strings("visited", change.State.VisitedPOIs))
		if m.opts.OnTourComplete != nil {
			m.opts.OnTourComplete()
		}
	}
	for _, l := range listeners {
		c := change
		c.State = change.State.clone()
		l(c)
	}
	return true
}

func (m *Machine) sortedListeners() []Listener {
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Listener, len(ids))
	for i, id := range ids {
		out[i] = m.listeners[id]
	}
	return out
}
