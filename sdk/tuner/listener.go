package tuner

import "github.com/leandrodaf/vcotuner/sdk/contracts"

// Listener receives tuner notifications. All methods are called from the
// goroutine that calls Tick and must not block.
type Listener interface {
	OnMeasurement(MeasurementResult)
	OnStarted()
	OnStopped()
	OnFinished()
	OnStatusChanged(status string)
}

// EventKind identifies an Event.
type EventKind int

const (
	EventMeasurement EventKind = iota
	EventStarted
	EventStopped
	EventFinished
	EventStatusChanged
)

func (k EventKind) String() string {
	switch k {
	case EventMeasurement:
		return "measurement"
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventFinished:
		return "finished"
	case EventStatusChanged:
		return "status"
	}
	return "unknown"
}

// Event is a Listener notification as a value.
type Event struct {
	Kind   EventKind
	Result MeasurementResult // EventMeasurement only
	Status string            // EventStatusChanged only
}

// EventChannel is a Listener that forwards notifications into a buffered
// channel for consumption on another goroutine. Events that do not fit are
// dropped.
type EventChannel struct {
	events chan Event
	logger contracts.Logger
}

// NewEventChannel creates an EventChannel buffering size events.
func NewEventChannel(size int, logger contracts.Logger) *EventChannel {
	if size < 1 {
		size = 1
	}
	return &EventChannel{events: make(chan Event, size), logger: logger}
}

// Events returns the receive side.
func (c *EventChannel) Events() <-chan Event { return c.events }

func (c *EventChannel) OnMeasurement(r MeasurementResult) {
	c.push(Event{Kind: EventMeasurement, Result: r})
}

func (c *EventChannel) OnStarted()  { c.push(Event{Kind: EventStarted}) }
func (c *EventChannel) OnStopped()  { c.push(Event{Kind: EventStopped}) }
func (c *EventChannel) OnFinished() { c.push(Event{Kind: EventFinished}) }

func (c *EventChannel) OnStatusChanged(status string) {
	c.push(Event{Kind: EventStatusChanged, Status: status})
}

func (c *EventChannel) push(e Event) {
	select {
	case c.events <- e:
	default:
		if c.logger != nil {
			c.logger.Warn("event buffer full, dropping event", c.logger.Field().String("kind", e.Kind.String()))
		}
	}
}
