package sim

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	Schedule(e Event)
}

// An Engine is a unit that keeps the discrete event simulation run.
//
// Unlike a free-running simulator, the engine here is driven by an external
// clock: the owner decides how far the simulation may advance by calling
// RunUntil.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// RunUntil processes all the events that happen before the given time
	// and moves the current time to the given time.
	RunUntil(end VTimeInSec) error

	// Reset drops all pending events and sets the current time.
	Reset(now VTimeInSec)

	// Pending returns the number of events that are not processed yet.
	Pending() int

	// Pause will pause the simulation until continue is called.
	Pause()

	// Continue will continue the paused simulation
	Continue()
}
