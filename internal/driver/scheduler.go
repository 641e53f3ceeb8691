package driver

import (
	"sync"
	"time"
)

// Scheduler delivers recurring ticks until cancelled. Start replaces any
// previous schedule. Cancel must not block: it may be called from inside
// a tick.
type Scheduler interface {
	Start(tick func(now time.Time))
	Cancel()
}

const DefaultTickInterval = 16 * time.Millisecond

// TickerScheduler ticks from a goroutine driven by time.Ticker
type TickerScheduler struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &TickerScheduler{interval: interval}
}

func (s *TickerScheduler) Start(tick func(now time.Time)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
	}
	stop := make(chan struct{})
	s.stop = stop

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				// a cancel racing the ticker wins
				select {
				case <-stop:
					return
				default:
				}
				tick(now)
			}
		}
	}()
}

func (s *TickerScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}
