package sim

// VTimeInSec defines the time in the simulated space in the unit of second
type VTimeInSec float64

// An Event is something going to happen in the future.
type Event interface {
	// Return the time that the event should happen
	Time() VTimeInSec

	// Returns the handler that can should handle the event
	Handler() Handler
}

// EventBase provides the basic fields and getters for other events
type EventBase struct {
	ID      string
	time    VTimeInSec
	handler Handler
}

// NewEventBase creates a new EventBase
func NewEventBase(t VTimeInSec, handler Handler) *EventBase {
	e := new(EventBase)
	e.ID = GetIDGenerator().Generate()
	e.time = t
	e.handler = handler

	return e
}

// Time return the time that the event is going to happen
func (e EventBase) Time() VTimeInSec {
	return e.time
}

// Handler returns the handler to handle the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// A Handler defines a domain for the events.
//
// One event is always constraint to one Handler, which means the event can
// only be scheduled by one handler and can only directly modify that handler.
type Handler interface {
	Handle(e Event) error
}

// TickEvent is a generic event that a periodic handler uses to wake itself up.
// Count is the index of the tick since the handler started ticking. Same-time
// ticks are handled in the order of their priority.
type TickEvent struct {
	EventBase
	Count int64
	Rank  int
}

// MakeTickEvent creates a new TickEvent
func MakeTickEvent(
	handler Handler,
	time VTimeInSec,
	count int64,
	rank int,
) TickEvent {
	evt := TickEvent{}
	evt.ID = GetIDGenerator().Generate()
	evt.handler = handler
	evt.time = time
	evt.Count = count
	evt.Rank = rank

	return evt
}

// Priority returns the rank of the tick.
func (e TickEvent) Priority() int {
	return e.Rank
}
