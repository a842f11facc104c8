package event

import "time"

// Simulation lifecycle events, emitted by the host systems.

type SimPaused struct {
	Iteration uint64
	SimTime   time.Duration
}

type SimResumed struct {
	Iteration uint64
	SimTime   time.Duration
}

// TimeJumped is emitted when sim time is moved by a seek. To is earlier
// than From for a jump back in time.
type TimeJumped struct {
	From, To time.Duration
}

type EntitiesDestroyed struct {
	Count int
}
