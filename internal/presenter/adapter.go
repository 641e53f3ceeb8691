package presenter

import (
	"sync"

	"go.uber.org/zap"

	"github.com/bijoor/site-tour-tools/internal/playback"
	"github.com/bijoor/site-tour-tools/internal/tour"
)

// Adapter is the boundary between a rendering layer and a playback
// machine. UI actions go in, frames come out.
type Adapter struct {
	machine *playback.Machine
	log     *zap.Logger

	mu   sync.RWMutex
	view View
}

func NewAdapter(m *playback.Machine, view View, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{machine: m, view: view, log: log.Named("presenter")}
}

// Frame builds the current frame
func (a *Adapter) Frame() Frame {
	return Build(a.machine.Graph(), a.machine.Snapshot(), a.View())
}

func (a *Adapter) View() View {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.view
}

// SetShowLabels toggles POI labels; playback is unaffected
func (a *Adapter) SetShowLabels(show bool) {
	a.mu.Lock()
	a.view.ShowLabels = show
	a.mu.Unlock()
}

// SetShowBranchHighlights toggles candidate highlighting; playback is unaffected
func (a *Adapter) SetShowBranchHighlights(show bool) {
	a.mu.Lock()
	a.view.ShowBranchHighlights = show
	a.mu.Unlock()
}

// Subscribe calls fn with a fresh frame after every state change
func (a *Adapter) Subscribe(fn func(seq uint64, f Frame)) func() {
	return a.machine.Subscribe(func(c playback.Change) {
		fn(c.Seq, Build(a.machine.Graph(), c.State, a.View()))
	})
}

func (a *Adapter) Play() bool          { return a.machine.Play() }
func (a *Adapter) Pause() bool         { return a.machine.Pause() }
func (a *Adapter) Stop() bool          { return a.machine.Stop() }
func (a *Adapter) ConfirmBranch() bool { return a.machine.ConfirmBranch() }
func (a *Adapter) StepForward() bool   { return a.machine.StepForward() }
func (a *Adapter) StepBack() bool      { return a.machine.StepBack() }

func (a *Adapter) SelectBranch(id string) bool { return a.machine.SelectBranch(id) }
func (a *Adapter) SetSpeed(v float64) bool     { return a.machine.SetSpeed(v) }

// ClickPath handles a click on a drawn path. Only offered branches react.
func (a *Adapter) ClickPath(id string) bool {
	s := a.machine.Snapshot()
	if !s.IsBranchSelectionMode || !s.IsBranch(id) {
		a.log.Debug("path click ignored", zap.String("path", id))
		return false
	}
	return a.machine.SelectBranch(id)
}

// Inspection describes a POI for an info panel
type Inspection struct {
	POI       tour.POI `json:"poi"`
	Visited   bool     `json:"visited"`
	Active    bool     `json:"active"`
	Connected bool     `json:"connected"`
	Outgoing  []string `json:"outgoing"`
	Incoming  []string `json:"incoming"`
}

// ClickPOI inspects a POI without touching playback state
func (a *Adapter) ClickPOI(id string) (Inspection, bool) {
	g := a.machine.Graph()
	poi, ok := g.POI(id)
	if !ok {
		return Inspection{}, false
	}
	s := a.machine.Snapshot()

	in := Inspection{
		POI:       poi,
		Visited:   s.Visited(id),
		Active:    s.ActivePOI == id,
		Connected: g.IsConnected(id),
		Outgoing:  []string{},
		Incoming:  []string{},
	}
	for _, seg := range g.Paths {
		if seg.StartPOI == id {
			in.Outgoing = append(in.Outgoing, seg.ID)
		}
		if seg.EndPOI == id {
			in.Incoming = append(in.Incoming, seg.ID)
		}
	}
	return in, true
}
