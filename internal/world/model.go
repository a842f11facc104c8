package world

import (
	"github.com/marisim/simhost/internal/core/ecs"
)

// Model is a thin handle over a model entity.
type Model struct {
	id ecs.EntityID
}

func NewModel(id ecs.EntityID) Model { return Model{id: id} }

func (m Model) Entity() ecs.EntityID { return m.id }

// Valid reports whether the entity is alive and carries the Model marker.
func (m Model) Valid(ecm *ECM) bool {
	return ecm.Alive(m.id) && ecm.Models.Has(m.id)
}

func (m Model) Name(ecm *ECM) string { return ecm.Name(m.id) }

// Links returns the model's direct link children.
func (m Model) Links(ecm *ECM) []ecs.EntityID {
	return ecm.ChildrenByComponents(m.id, ecm.Links)
}

// LinkByName returns the child link with the given name, or Null.
func (m Model) LinkByName(ecm *ECM, name string) ecs.EntityID {
	for _, link := range m.Links(ecm) {
		if ecm.Name(link) == name {
			return link
		}
	}
	return ecs.Null
}

// ModelByName returns the first model entity with the given name, or Null.
func ModelByName(ecm *ECM, name string) ecs.EntityID {
	for _, id := range ecm.EntitiesByComponents(ecm.Models) {
		if ecm.Name(id) == name {
			return id
		}
	}
	return ecs.Null
}
