package system

import (
	coresys "github.com/marisim/simhost/internal/core/system"
	"github.com/marisim/simhost/internal/scripting"
	"go.uber.org/zap"
)

// ScriptSystem calls the Lua on_tick hook so scripts can publish commands.
// Phase 0 (Input). Paused ticks are skipped.
type ScriptSystem struct {
	lua *scripting.Engine
	log *zap.Logger
}

func NewScriptSystem(lua *scripting.Engine, log *zap.Logger) *ScriptSystem {
	return &ScriptSystem{lua: lua, log: log}
}

func (s *ScriptSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *ScriptSystem) Update(info coresys.UpdateInfo) {
	if info.Paused {
		return
	}
	if err := s.lua.Tick(info.SimTime.Seconds(), info.Iterations); err != nil {
		s.log.Error("lua on_tick error", zap.Error(err))
	}
}
