package world

import (
	"github.com/marisim/simhost/internal/component"
	"github.com/marisim/simhost/internal/core/ecs"
	"github.com/marisim/simhost/internal/mathx"
)

// ECM is the entity-component manager the systems read from and write to.
// Accessed only from the tick goroutine.
type ECM struct {
	world *ecs.World

	Names      *ecs.PtrComponentStore[component.Name]
	Worlds     *ecs.PtrComponentStore[component.World]
	Models     *ecs.PtrComponentStore[component.Model]
	Links      *ecs.PtrComponentStore[component.Link]
	Collisions *ecs.PtrComponentStore[component.Collision]
	Poses      *ecs.PtrComponentStore[component.Pose]
	Inertials  *ecs.PtrComponentStore[component.Inertial]
	Gravity    *ecs.PtrComponentStore[component.Gravity]
	Statics    *ecs.PtrComponentStore[component.Static]

	WrenchCmds     *ecs.PtrComponentStore[component.ExternalWorldWrenchCmd]
	LinearVelCmds  *ecs.PtrComponentStore[component.LinearVelocityCmd]
	AngularVelCmds *ecs.PtrComponentStore[component.AngularVelocityCmd]
}

func NewECM() *ECM {
	m := &ECM{
		world:          ecs.NewWorld(),
		Names:          ecs.NewPtrComponentStore[component.Name](),
		Worlds:         ecs.NewPtrComponentStore[component.World](),
		Models:         ecs.NewPtrComponentStore[component.Model](),
		Links:          ecs.NewPtrComponentStore[component.Link](),
		Collisions:     ecs.NewPtrComponentStore[component.Collision](),
		Poses:          ecs.NewPtrComponentStore[component.Pose](),
		Inertials:      ecs.NewPtrComponentStore[component.Inertial](),
		Gravity:        ecs.NewPtrComponentStore[component.Gravity](),
		Statics:        ecs.NewPtrComponentStore[component.Static](),
		WrenchCmds:     ecs.NewPtrComponentStore[component.ExternalWorldWrenchCmd](),
		LinearVelCmds:  ecs.NewPtrComponentStore[component.LinearVelocityCmd](),
		AngularVelCmds: ecs.NewPtrComponentStore[component.AngularVelocityCmd](),
	}
	reg := m.world.Registry()
	reg.Register("name", m.Names)
	reg.Register("world", m.Worlds)
	reg.Register("model", m.Models)
	reg.Register("link", m.Links)
	reg.Register("collision", m.Collisions)
	reg.Register("pose", m.Poses)
	reg.Register("inertial", m.Inertials)
	reg.Register("gravity", m.Gravity)
	reg.Register("static", m.Statics)
	reg.Register("external_world_wrench_cmd", m.WrenchCmds)
	reg.Register("linear_velocity_cmd", m.LinearVelCmds)
	reg.Register("angular_velocity_cmd", m.AngularVelCmds)
	return m
}

// Entities exposes the underlying ECS world (pool, hierarchy, destroy queue).
func (m *ECM) Entities() *ecs.World { return m.world }

// CreateEntity allocates an entity under parent (Null for a root) and names it.
func (m *ECM) CreateEntity(parent ecs.EntityID, name string) ecs.EntityID {
	var id ecs.EntityID
	if parent.IsNull() {
		id = m.world.CreateEntity()
	} else {
		id = m.world.CreateChild(parent)
	}
	if name != "" {
		m.Names.Upsert(id, component.Name{Value: name})
	}
	return id
}

func (m *ECM) Alive(id ecs.EntityID) bool { return m.world.Alive(id) }

func (m *ECM) Parent(id ecs.EntityID) ecs.EntityID { return m.world.Parent(id) }

// Name returns the entity's name or "" if it has none.
func (m *ECM) Name(id ecs.EntityID) string {
	if n, ok := m.Names.Get(id); ok {
		return n.Value
	}
	return ""
}

// ChildrenByComponents returns parent's direct children holding every
// component in stores.
func (m *ECM) ChildrenByComponents(parent ecs.EntityID, stores ...ecs.Removable) []ecs.EntityID {
	return ecs.ChildrenWith(m.world, parent, stores...)
}

// EntitiesByComponents returns all entities holding every given component.
func (m *ECM) EntitiesByComponents(first ecs.Removable, rest ...ecs.Removable) []ecs.EntityID {
	return ecs.EntitiesWith(first, rest...)
}

// WorldEntity returns the entity carrying the World marker, or Null.
func (m *ECM) WorldEntity() ecs.EntityID {
	return ecs.FirstWith(m.Worlds)
}

// WorldPose composes Pose components from id up through its ancestors.
// Entities without a Pose contribute identity.
func (m *ECM) WorldPose(id ecs.EntityID) mathx.Pose {
	pose := mathx.Identity()
	for cur := id; !cur.IsNull(); cur = m.world.Parent(cur) {
		if p, ok := m.Poses.Get(cur); ok {
			pose = p.Pose.Compose(pose)
		}
	}
	return pose
}

// ScopedName joins the names of id and its ancestors below the world entity
// with "::", e.g. "boat::hull".
func (m *ECM) ScopedName(id ecs.EntityID) string {
	var parts []string
	for cur := id; !cur.IsNull() && !m.Worlds.Has(cur); cur = m.world.Parent(cur) {
		parts = append(parts, m.Name(cur))
	}
	name := ""
	for i := len(parts) - 1; i >= 0; i-- {
		if name != "" {
			name += "::"
		}
		name += parts[i]
	}
	return name
}
