package system

import (
	"context"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	coresys "github.com/marisim/simhost/internal/core/system"
	"github.com/marisim/simhost/internal/persist"
	"github.com/marisim/simhost/internal/world"
	"go.uber.org/zap"
)

// SampleWriter persists batches of command samples.
type SampleWriter interface {
	WriteSamples(ctx context.Context, samples []persist.Sample) error
}

// TelemetrySystem records every wrench and velocity command each unpaused
// tick and writes them in batches of flushEvery ticks.
// Phase 4 (Persist).
type TelemetrySystem struct {
	ecm        *world.ECM
	writer     SampleWriter
	flushEvery int
	timeout    time.Duration

	buf   []persist.Sample
	ticks int
	log   *zap.Logger
}

func NewTelemetrySystem(ecm *world.ECM, writer SampleWriter, flushEvery int, log *zap.Logger) *TelemetrySystem {
	if flushEvery <= 0 {
		flushEvery = 1
	}
	return &TelemetrySystem{
		ecm:        ecm,
		writer:     writer,
		flushEvery: flushEvery,
		timeout:    5 * time.Second,
		buf:        make([]persist.Sample, 0, 256),
		log:        log,
	}
}

func (s *TelemetrySystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *TelemetrySystem) Update(info coresys.UpdateInfo) {
	if info.Paused {
		return
	}
	s.sample(info)
	s.ticks++
	if s.ticks%s.flushEvery != 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		s.log.Error("telemetry flush failed, batch dropped", zap.Error(err))
	}
}

// Pending returns the number of buffered, unwritten samples.
func (s *TelemetrySystem) Pending() int { return len(s.buf) }

// Flush writes the buffered samples. The buffer is cleared even on error so
// a dead database cannot grow it without bound.
func (s *TelemetrySystem) Flush(ctx context.Context) error {
	if len(s.buf) == 0 {
		return nil
	}
	err := s.writer.WriteSamples(ctx, s.buf)
	s.buf = s.buf[:0]
	return err
}

func (s *TelemetrySystem) sample(info coresys.UpdateInfo) {
	add := func(name, kind string, v mgl64.Vec3) {
		s.buf = append(s.buf, persist.Sample{
			Iteration: info.Iterations,
			SimTime:   info.SimTime,
			Entity:    name,
			Kind:      kind,
			X:         v[0], Y: v[1], Z: v[2],
		})
	}
	for _, id := range s.ecm.WrenchCmds.IDs() {
		w, _ := s.ecm.WrenchCmds.Get(id)
		name := s.ecm.ScopedName(id)
		add(name, persist.KindForce, w.Force)
		add(name, persist.KindTorque, w.Torque)
	}
	for _, id := range s.ecm.LinearVelCmds.IDs() {
		c, _ := s.ecm.LinearVelCmds.Get(id)
		add(s.ecm.ScopedName(id), persist.KindLinearCmd, c.Vec)
	}
	for _, id := range s.ecm.AngularVelCmds.IDs() {
		c, _ := s.ecm.AngularVelCmds.Get(id)
		add(s.ecm.ScopedName(id), persist.KindAngularCmd, c.Vec)
	}
}
