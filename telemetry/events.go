// Package telemetry provides frame-time tracking, perf bookmarks, CSV
// output and particle field snapshots.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventRespawn EventType = iota
	EventPress
	EventQualityChange
	EventTierChange
	EventReseed
)

func (t EventType) String() string {
	switch t {
	case EventRespawn:
		return "respawn"
	case EventPress:
		return "press"
	case EventQualityChange:
		return "quality_change"
	case EventTierChange:
		return "tier_change"
	case EventReseed:
		return "reseed"
	}
	return "unknown"
}

// Event represents a single telemetry event.
type Event struct {
	Type  EventType
	Frame int32

	// Optional fields depending on event type
	Count    int    // respawned particles
	From, To string // quality or tier names
	Seed     int64  // reseed
}

// NewRespawnEvent records n particles respawned in one frame.
func NewRespawnEvent(frame int32, n int) Event {
	return Event{Type: EventRespawn, Frame: frame, Count: n}
}

// NewPressEvent records a pointer press.
func NewPressEvent(frame int32) Event {
	return Event{Type: EventPress, Frame: frame}
}

// NewQualityChangeEvent records an adaptive quality step.
func NewQualityChangeEvent(frame int32, from, to string) Event {
	return Event{Type: EventQualityChange, Frame: frame, From: from, To: to}
}

// NewTierChangeEvent records a device tier change that rebuilt the engine.
func NewTierChangeEvent(frame int32, from, to string) Event {
	return Event{Type: EventTierChange, Frame: frame, From: from, To: to}
}

// NewReseedEvent records a field regeneration.
func NewReseedEvent(frame int32, seed int64) Event {
	return Event{Type: EventReseed, Frame: frame, Seed: seed}
}
