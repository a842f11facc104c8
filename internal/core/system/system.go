package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain external command sources
	PhasePreUpdate               // 1: write commands for the coming physics step
	PhaseUpdate                  // 2: physics step (owned by the host)
	PhasePostUpdate              // 3: read results, stage next commands
	PhasePersist                 // 4: telemetry flush
	PhaseCleanup                 // 5: destroy queued entities
)

// UpdateInfo describes one simulation step. Dt is signed: a negative value
// means the host jumped back in time.
type UpdateInfo struct {
	SimTime    time.Duration
	Dt         time.Duration
	Iterations uint64
	Paused     bool
}

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(info UpdateInfo)
}
