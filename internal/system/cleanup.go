package system

import (
	"github.com/marisim/simhost/internal/core/event"
	coresys "github.com/marisim/simhost/internal/core/system"
	"github.com/marisim/simhost/internal/world"
	"go.uber.org/zap"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end.
// Phase 5 (Cleanup).
type CleanupSystem struct {
	ecm *world.ECM
	bus *event.Bus
	log *zap.Logger
}

// NewCleanupSystem creates the cleanup system. bus may be nil.
func NewCleanupSystem(ecm *world.ECM, bus *event.Bus, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{ecm: ecm, bus: bus, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ coresys.UpdateInfo) {
	n := s.ecm.Entities().FlushDestroyQueue()
	if n == 0 {
		return
	}
	s.log.Debug("entities destroyed", zap.Int("count", n))
	if s.bus != nil {
		event.Emit(s.bus, event.EntitiesDestroyed{Count: n})
	}
}
