package ecs

// World is the top-level ECS container. It owns the entity pool, the component
// registry, the parent/child hierarchy, and a deferred destruction queue
// flushed by the cleanup phase each tick.
type World struct {
	pool         *EntityPool
	registry     *Registry
	parents      map[EntityID]EntityID
	children     map[EntityID][]EntityID
	destroyQueue []EntityID
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		registry:     NewRegistry(),
		parents:      make(map[EntityID]EntityID, 64),
		children:     make(map[EntityID][]EntityID, 64),
		destroyQueue: make([]EntityID, 0, 16),
	}
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

// CreateChild allocates an entity and attaches it under parent.
func (w *World) CreateChild(parent EntityID) EntityID {
	id := w.pool.Create()
	w.SetParent(id, parent)
	return id
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// SetParent re-parents id. A null parent detaches it.
func (w *World) SetParent(id, parent EntityID) {
	if old, ok := w.parents[id]; ok {
		w.children[old] = removeID(w.children[old], id)
		delete(w.parents, id)
	}
	if parent.IsNull() {
		return
	}
	w.parents[id] = parent
	w.children[parent] = append(w.children[parent], id)
}

// Parent returns id's parent or Null for roots.
func (w *World) Parent(id EntityID) EntityID {
	return w.parents[id]
}

// Children returns id's direct children in insertion order. The slice is
// owned by the world; callers must not modify it.
func (w *World) Children(id EntityID) []EntityID {
	return w.children[id]
}

// MarkForDestruction queues an entity for end-of-tick cleanup.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// FlushDestroyQueue destroys all queued entities, their descendants, and
// clears their components.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for _, id := range w.destroyQueue {
		n += w.destroy(id)
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n
}

func (w *World) destroy(id EntityID) int {
	if !w.pool.Alive(id) {
		return 0
	}
	n := 1
	for len(w.children[id]) > 0 {
		child := w.children[id][0]
		if w.pool.Alive(child) {
			n += w.destroy(child)
		} else {
			w.SetParent(child, Null)
		}
	}
	delete(w.children, id)
	w.SetParent(id, Null)
	w.registry.RemoveAll(id)
	w.pool.Destroy(id)
	return n
}

func removeID(ids []EntityID, id EntityID) []EntityID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
