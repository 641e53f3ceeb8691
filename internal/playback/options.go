package playback

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/bijoor/site-tour-tools/internal/tour"
)

const (
	DefaultVisitRadius     = 20.0
	DefaultSegmentDuration = 10 * time.Second
	DefaultSpeed           = 1.0
	MinSpeed               = 0.1
	MaxSpeed               = 3.0
)

// Options configure a Machine. Zero values fall back to the defaults.
type Options struct {
	// VisitRadius is the pixel distance under which a passing visitor
	// counts as having visited a POI.
	VisitRadius float64

	// SegmentDuration is the nominal time to traverse one segment at
	// speed 1, whatever its length.
	SegmentDuration time.Duration

	Speed float64

	// OnPOIVisit fires the first time a POI enters the visited set
	OnPOIVisit func(tour.POI)

	// OnTourComplete fires once per run on reaching TourComplete
	OnTourComplete func()

	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.VisitRadius <= 0 {
		o.VisitRadius = DefaultVisitRadius
	}
	if o.SegmentDuration <= 0 {
		o.SegmentDuration = DefaultSegmentDuration
	}
	if o.Speed == 0 || math.IsNaN(o.Speed) {
		o.Speed = DefaultSpeed
	}
	o.Speed = clampSpeed(o.Speed)
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func clampSpeed(v float64) float64 {
	if v < MinSpeed {
		return MinSpeed
	}
	if v > MaxSpeed {
		return MaxSpeed
	}
	return v
}
