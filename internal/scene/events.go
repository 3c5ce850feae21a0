package scene

import "ribbons/internal/render"

type EventType int

const (
	EventRibbonEntered EventType = iota
	EventAdmissionChanged
	EventBackendSelected
)

type Event struct {
	Type      EventType
	ID        string // ribbon id for EventRibbonEntered
	EmotionID string
	Kind      render.Kind // EventBackendSelected
	Value     int         // new cap for EventAdmissionChanged
}

type EventHandler func(Event)

// EventBus dispatches synchronously on the frame thread. Subscribe before
// the loop starts.
type EventBus struct {
	handlers map[EventType][]EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]EventHandler),
	}
}

func (eb *EventBus) Subscribe(t EventType, fn EventHandler) {
	eb.handlers[t] = append(eb.handlers[t], fn)
}

func (eb *EventBus) Emit(e Event) {
	for _, fn := range eb.handlers[e.Type] {
		fn(e)
	}
}
