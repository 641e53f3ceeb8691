package playback

// EventType names something that happened during a transition
type EventType string

const (
	EventTourLoaded       EventType = "tour-loaded"
	EventTourStarted      EventType = "tour-started"
	EventTourPaused       EventType = "tour-paused"
	EventTourStopped      EventType = "tour-stopped"
	EventTourCompleted    EventType = "tour-completed"
	EventPOIVisited       EventType = "poi-visited"
	EventSegmentStarted   EventType = "segment-started"
	EventSegmentCompleted EventType = "segment-completed"
	EventBranchPending    EventType = "branch-pending"
	EventBranchSelected   EventType = "branch-selected"
	EventSteppedBack      EventType = "stepped-back"
	EventSpeedChanged     EventType = "speed-changed"
)

type Event struct {
	Type    EventType `json:"type"`
	POI     string    `json:"poi,omitempty"`
	Segment string    `json:"segment,omitempty"`
}

// Change is delivered to listeners after every accepted transition.
// Seq grows by one per change; listeners fed from several goroutines can
// use it to drop out-of-order deliveries.
type Change struct {
	Seq    uint64  `json:"seq"`
	State  State   `json:"state"`
	Events []Event `json:"events"`
}

// Has reports whether the change carries an event of type t
func (c Change) Has(t EventType) bool {
	for _, e := range c.Events {
		if e.Type == t {
			return true
		}
	}
	return false
}

type Listener func(Change)
