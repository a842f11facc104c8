package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/marisim/simhost/internal/core/event"
	coresys "github.com/marisim/simhost/internal/core/system"
	"go.uber.org/zap"
)

type ControlOp uint8

const (
	ControlPause ControlOp = iota + 1
	ControlResume
	ControlToggle
	ControlSeek
)

// ParseControlOp maps the wire names "pause", "resume", "toggle" and
// "seek" to ops.
func ParseControlOp(s string) (ControlOp, error) {
	switch s {
	case "pause":
		return ControlPause, nil
	case "resume":
		return ControlResume, nil
	case "toggle":
		return ControlToggle, nil
	case "seek":
		return ControlSeek, nil
	}
	return 0, fmt.Errorf("unknown control op %q", s)
}

// ControlRequest asks the host to change the sim clock. SeekTo is only used
// by ControlSeek.
type ControlRequest struct {
	Op     ControlOp
	SeekTo time.Duration
}

var ErrControlBusy = errors.New("control queue full")

// Controller accepts control requests from any goroutine. They are applied
// by ControlSystem on the tick goroutine.
type Controller struct {
	ch chan ControlRequest
}

func NewController(size int) *Controller {
	if size <= 0 {
		size = 16
	}
	return &Controller{ch: make(chan ControlRequest, size)}
}

// Submit queues req without blocking.
func (c *Controller) Submit(req ControlRequest) error {
	select {
	case c.ch <- req:
		return nil
	default:
		return ErrControlBusy
	}
}

// ControlSystem drains queued control requests and applies them to the
// runner. Changes take effect from the next step.
// Phase 0 (Input).
type ControlSystem struct {
	ctl        *Controller
	runner     *coresys.Runner
	bus        *event.Bus
	maxPerTick int
	log        *zap.Logger
}

func NewControlSystem(ctl *Controller, runner *coresys.Runner, bus *event.Bus, maxPerTick int, log *zap.Logger) *ControlSystem {
	return &ControlSystem{ctl: ctl, runner: runner, bus: bus, maxPerTick: maxPerTick, log: log}
}

func (s *ControlSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// Update runs on paused ticks too; otherwise a paused sim could never resume.
func (s *ControlSystem) Update(info coresys.UpdateInfo) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case req := <-s.ctl.ch:
			s.apply(req, info)
		default:
			return
		}
	}
}

func (s *ControlSystem) apply(req ControlRequest, info coresys.UpdateInfo) {
	switch req.Op {
	case ControlPause:
		s.setPaused(true, info)
	case ControlResume:
		s.setPaused(false, info)
	case ControlToggle:
		s.setPaused(!s.runner.Paused(), info)
	case ControlSeek:
		from := s.runner.SimTime()
		s.runner.Seek(req.SeekTo)
		event.Emit(s.bus, event.TimeJumped{From: from, To: req.SeekTo})
		s.log.Debug("sim time moved", zap.Duration("from", from), zap.Duration("to", req.SeekTo))
	default:
		s.log.Warn("ignoring unknown control op", zap.Uint8("op", uint8(req.Op)))
	}
}

func (s *ControlSystem) setPaused(p bool, info coresys.UpdateInfo) {
	if s.runner.Paused() == p {
		return
	}
	s.runner.SetPaused(p)
	if p {
		event.Emit(s.bus, event.SimPaused{Iteration: info.Iterations, SimTime: info.SimTime})
	} else {
		event.Emit(s.bus, event.SimResumed{Iteration: info.Iterations, SimTime: info.SimTime})
	}
	s.log.Debug("pause changed", zap.Bool("paused", p), zap.Uint64("iteration", info.Iterations))
}

// EventDispatchSystem rotates the event bus and delivers last tick's
// events. Register it before any other Input system.
// Phase 0 (Input).
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *EventDispatchSystem) Update(_ coresys.UpdateInfo) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
