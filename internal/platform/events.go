package platform

import (
	"time"

	"github.com/nerrad567/gray-logic-zigbee/internal/accessory"
)

// Event types emitted to sinks.
const (
	EventStateChanged = "accessory.state_changed"
	EventAttached     = "accessory.attached"
	EventRemoved      = "accessory.removed"
)

// Event is a platform notification fanned out to every sink.
type Event struct {
	Type            string          `json:"type"`
	Address         string          `json:"address"`
	Kind            string          `json:"kind,omitempty"`
	State           accessory.State `json:"state,omitempty"`
	Characteristics map[string]any  `json:"characteristics,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Sink receives platform events. HandleEvent must not block.
type Sink interface {
	HandleEvent(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) HandleEvent(e Event) { f(e) }
