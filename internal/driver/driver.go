package driver

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bijoor/site-tour-tools/internal/playback"
)

// DefaultMinInterval caps the advance rate near 60Hz
const DefaultMinInterval = 16 * time.Millisecond

type Options struct {
	// MinInterval is the shortest gap between two advances; closer ticks
	// are folded into the next one.
	MinInterval time.Duration
	Logger      *zap.Logger
}

// Driver advances a Machine on scheduler ticks while it is Playing.
// It follows the machine through change notifications and stops on its
// own when playback pauses, completes or waits for a branch choice.
type Driver struct {
	machine     *playback.Machine
	sched       Scheduler
	minInterval time.Duration
	log         *zap.Logger

	mu          sync.Mutex
	gen         uint64 // bumped on every start and cancel
	run         uint64 // machine run being driven
	active      bool
	last        time.Time
	unsubscribe func()
}

func New(m *playback.Machine, s Scheduler, opts Options) *Driver {
	if opts.MinInterval <= 0 {
		opts.MinInterval = DefaultMinInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Driver{
		machine:     m,
		sched:       s,
		minInterval: opts.MinInterval,
		log:         opts.Logger.Named("driver"),
	}
}

// Attach subscribes to the machine and syncs with its current state
func (d *Driver) Attach() {
	d.mu.Lock()
	if d.unsubscribe == nil {
		d.unsubscribe = d.machine.Subscribe(func(playback.Change) { d.sync() })
	}
	d.mu.Unlock()
	d.sync()
}

// Close detaches from the machine and cancels any pending tick
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
	if d.active {
		d.cancelLocked()
	}
}

// Active reports whether ticks are scheduled
func (d *Driver) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// sync starts or cancels the schedule to match the live machine state.
// Notifications can arrive out of order, so the snapshot is re-read
// instead of trusting the change that triggered the call.
func (d *Driver) sync() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unsubscribe == nil {
		return
	}

	s := d.machine.Snapshot()
	playing := s.IsPlaying && s.Phase == playback.Playing
	switch {
	case playing && (!d.active || d.run != s.Run):
		d.startLocked(s.Run)
	case !playing && d.active:
		d.cancelLocked()
	}
}

func (d *Driver) startLocked(run uint64) {
	d.gen++
	gen := d.gen
	d.run = run
	d.active = true
	d.last = time.Time{}
	d.log.Debug("schedule started", zap.Uint64("run", run), zap.Uint64("gen", gen))
	d.sched.Start(func(now time.Time) { d.tick(gen, run, now) })
}

func (d *Driver) cancelLocked() {
	d.gen++
	d.active = false
	d.log.Debug("schedule cancelled", zap.Uint64("run", d.run), zap.Uint64("gen", d.gen))
	d.sched.Cancel()
}

func (d *Driver) tick(gen, run uint64, now time.Time) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}

	s := d.machine.Snapshot()
	if !s.IsPlaying || s.IsBranchSelectionMode || s.Run != run {
		d.cancelLocked()
		d.mu.Unlock()
		return
	}

	if d.last.IsZero() {
		d.last = now
		d.mu.Unlock()
		return
	}
	dt := now.Sub(d.last)
	if dt < d.minInterval {
		d.mu.Unlock()
		return
	}
	d.last = now
	d.mu.Unlock()

	delta := float64(dt) / float64(d.machine.SegmentDuration()) * s.Speed
	d.machine.AdvanceRun(run, delta)
}
