package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/bijoor/site-tour-tools/internal/config"
	"github.com/bijoor/site-tour-tools/internal/driver"
	"github.com/bijoor/site-tour-tools/internal/exchange"
	"github.com/bijoor/site-tour-tools/internal/playback"
	"github.com/bijoor/site-tour-tools/internal/presenter"
	"github.com/bijoor/site-tour-tools/internal/tour"
)

var (
	ErrNoTour        = errors.New("no tour loaded")
	ErrNothingToPlay = errors.New("tour has no segments to play")
)

// Session owns one playback machine together with the driver that moves
// it and the adapter that presents it.
type Session struct {
	cfg       config.PlaybackConfig
	machine   *playback.Machine
	driver    *driver.Driver
	presenter *presenter.Adapter
	log       *zap.Logger

	mu   sync.RWMutex
	tour *tour.Tour
}

type Option func(*settings)

type settings struct {
	sched      driver.Scheduler
	onVisit    func(tour.POI)
	onComplete func()
}

// WithScheduler replaces the default ticker, mostly for tests
func WithScheduler(s driver.Scheduler) Option {
	return func(o *settings) { o.sched = s }
}

func WithPOIVisit(fn func(tour.POI)) Option {
	return func(o *settings) { o.onVisit = fn }
}

func WithTourComplete(fn func()) Option {
	return func(o *settings) { o.onComplete = fn }
}

func NewSession(cfg *config.Config, log *zap.Logger, opts ...Option) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	var set settings
	for _, o := range opts {
		o(&set)
	}
	if set.sched == nil {
		set.sched = driver.NewTickerScheduler(cfg.Playback.TickInterval)
	}

	m := playback.New(playback.Options{
		VisitRadius:     cfg.Playback.VisitRadius,
		SegmentDuration: cfg.Playback.SegmentDuration,
		Speed:           cfg.Playback.Speed,
		OnPOIVisit:      set.onVisit,
		OnTourComplete:  set.onComplete,
		Logger:          log,
	})
	d := driver.New(m, set.sched, driver.Options{MinInterval: cfg.Playback.TickInterval, Logger: log})
	d.Attach()

	return &Session{
		cfg:     cfg.Playback,
		machine: m,
		driver:  d,
		presenter: presenter.NewAdapter(m, presenter.View{
			ShowLabels:           cfg.View.ShowLabels,
			ShowBranchHighlights: cfg.View.ShowBranchHighlights,
		}, log),
		log: log.Named("session"),
	}
}

func (s *Session) Machine() *playback.Machine    { return s.machine }
func (s *Session) Presenter() *presenter.Adapter { return s.presenter }

// Tour returns the loaded tour document, nil before the first Load
func (s *Session) Tour() *tour.Tour {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tour
}

// Load puts t on stage and starts playing it when auto start is on
func (s *Session) Load(t *tour.Tour) {
	s.mu.Lock()
	s.tour = t
	s.mu.Unlock()
	if t == nil {
		s.machine.Load(nil)
		return
	}
	s.machine.Load(&t.Graph)
	s.log.Info("session loaded", zap.String("tour", t.ID), zap.String("name", t.Name))
	if s.cfg.AutoStart {
		s.machine.Play()
	}
}

// LoadFile imports a tour file and loads it. Dangling references are
// logged, not fatal.
func (s *Session) LoadFile(path string) (*tour.Tour, error) {
	t, err := exchange.ReadFile(path)
	if err != nil {
		return nil, err
	}
	for _, w := range exchange.Warnings(&t.Graph) {
		s.log.Warn("tour reference problem", zap.String("file", path), zap.Error(w))
	}
	s.Load(t)
	return t, nil
}

// Close stops the driver. The machine stays readable.
func (s *Session) Close() {
	s.driver.Close()
}

// Chooser picks a branch at a fork. Returning "" keeps the default
// selection.
type Chooser func(s playback.State) string

// FirstBranch always takes the default branch
func FirstBranch(playback.State) string { return "" }

// Script answers forks from ids in order and falls back to the default
// selection once the script runs out or names a branch that is not offered.
func Script(ids ...string) Chooser {
	next := 0
	return func(s playback.State) string {
		if next >= len(ids) {
			return ""
		}
		id := ids[next]
		next++
		if !s.IsBranch(id) {
			return ""
		}
		return id
	}
}

// Run plays the loaded tour to completion, answering forks with choose.
// Cancelling ctx pauses playback and returns the context error.
func (s *Session) Run(ctx context.Context, choose Chooser) error {
	if choose == nil {
		choose = FirstBranch
	}
	wake := make(chan struct{}, 1)
	unsubscribe := s.machine.Subscribe(func(playback.Change) {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for {
		st := s.machine.Snapshot()
		switch st.Phase {
		case playback.Idle:
			return ErrNoTour
		case playback.TourComplete:
			return nil
		case playback.Ready:
			if !s.machine.Play() {
				return ErrNothingToPlay
			}
		case playback.BranchSelectionPending:
			if id := choose(st); id != "" {
				s.machine.SelectBranch(id)
			}
			if !s.machine.Play() {
				return fmt.Errorf("branch at %s could not be confirmed", st.CurrentPOI)
			}
		}

		select {
		case <-ctx.Done():
			s.machine.Pause()
			return ctx.Err()
		case <-wake:
		}
	}
}
