package sim

// TimeTeller reports the current simulated time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler accepts events that happen later.
type EventScheduler interface {
	TimeTeller

	Schedule(e Event)
}

// SimulationEndHandler is told when a simulation is over.
type SimulationEndHandler interface {
	Handle(now VTimeInSec)
}

// An Engine runs a discrete event simulation.
type Engine interface {
	Hookable
	EventScheduler

	// Run handles events until none is left.
	Run() error

	// Pause stops the handling of events until Continue is called.
	Pause()
	Continue()

	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished calls the registered SimulationEndHandlers.
	Finished()
}
