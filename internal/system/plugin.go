package system

import (
	"github.com/marisim/simhost/internal/core/ecs"
	coresys "github.com/marisim/simhost/internal/core/system"
	"github.com/marisim/simhost/internal/world"
)

// Configurer is implemented by plugins that attach to an entity once,
// before the first tick.
type Configurer interface {
	Configure(entity ecs.EntityID, ecm *world.ECM)
}

// PreUpdater runs before the physics step and may write commands.
type PreUpdater interface {
	PreUpdate(info coresys.UpdateInfo, ecm *world.ECM)
}

// PostUpdater runs after the physics step.
type PostUpdater interface {
	PostUpdate(info coresys.UpdateInfo, ecm *world.ECM)
}

// Attach configures plugin against entity and registers whichever update
// hooks it implements with the runner.
func Attach(r *coresys.Runner, ecm *world.ECM, entity ecs.EntityID, plugin any) {
	if c, ok := plugin.(Configurer); ok {
		c.Configure(entity, ecm)
	}
	if p, ok := plugin.(PreUpdater); ok {
		r.Register(&hook{phase: coresys.PhasePreUpdate, ecm: ecm, fn: p.PreUpdate})
	}
	if p, ok := plugin.(PostUpdater); ok {
		r.Register(&hook{phase: coresys.PhasePostUpdate, ecm: ecm, fn: p.PostUpdate})
	}
}

type hook struct {
	phase coresys.Phase
	ecm   *world.ECM
	fn    func(coresys.UpdateInfo, *world.ECM)
}

func (h *hook) Phase() coresys.Phase { return h.phase }

func (h *hook) Update(info coresys.UpdateInfo) { h.fn(info, h.ecm) }
