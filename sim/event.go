package sim

// VTimeInSec is a point in simulated time, in seconds.
type VTimeInSec float64

// An Event happens at a time and is handled by one Handler.
type Event interface {
	Time() VTimeInSec
	Handler() Handler

	// IsSecondary reports events that run after every primary event of the
	// same time.
	IsSecondary() bool
}

// EventBase implements the Event getters. Embed it in concrete events.
type EventBase struct {
	ID        string
	time      VTimeInSec
	handler   Handler
	secondary bool
}

// MakeEventBase creates a primary EventBase with a fresh ID.
func MakeEventBase(t VTimeInSec, handler Handler) EventBase {
	return EventBase{
		ID:      GetIDGenerator().Generate(),
		time:    t,
		handler: handler,
	}
}

// Time returns when the event happens.
func (e EventBase) Time() VTimeInSec {
	return e.time
}

// Handler returns who handles the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// IsSecondary reports whether the event is secondary.
func (e EventBase) IsSecondary() bool {
	return e.secondary
}

// A Handler handles events. An event only changes the state of its handler.
type Handler interface {
	Handle(e Event) error
}
