package system

import (
	"sort"
	"time"
)

// Runner executes systems in phase order each tick and owns the sim clock.
// Systems sharing a phase run in registration order.
type Runner struct {
	systems  []System
	sorted   bool
	stepSize time.Duration

	simTime    time.Duration
	iterations uint64
	paused     bool
	pendingDt  *time.Duration
}

func NewRunner(stepSize time.Duration) *Runner {
	return &Runner{
		systems:  make([]System, 0, 16),
		stepSize: stepSize,
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

func (r *Runner) SetPaused(p bool) { r.paused = p }
func (r *Runner) Paused() bool     { return r.paused }

func (r *Runner) SimTime() time.Duration { return r.simTime }
func (r *Runner) Iterations() uint64     { return r.iterations }

// Seek moves sim time to t. The next step reports the jump as its Dt, which
// is negative when t lies in the past.
func (r *Runner) Seek(t time.Duration) {
	dt := t - r.simTime
	r.pendingDt = &dt
	r.simTime = t
}

// Step advances the clock by one step (unless paused) and runs every phase.
func (r *Runner) Step() UpdateInfo {
	info := UpdateInfo{Paused: r.paused}
	switch {
	case r.pendingDt != nil:
		info.Dt = *r.pendingDt
		r.pendingDt = nil
	case !r.paused:
		info.Dt = r.stepSize
		r.simTime += r.stepSize
	}
	if !r.paused {
		r.iterations++
	}
	info.SimTime = r.simTime
	info.Iterations = r.iterations
	r.Tick(info)
	return info
}

// Tick runs every registered system with the given info.
func (r *Runner) Tick(info UpdateInfo) {
	r.ensureSorted()
	for _, s := range r.systems {
		s.Update(info)
	}
}

// TickPhase runs only the systems registered for phase.
func (r *Runner) TickPhase(phase Phase, info UpdateInfo) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(info)
		}
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
