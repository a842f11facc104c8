package ecs

// ChildrenWith returns the direct children of parent that hold a component
// in every given store, in insertion order.
func ChildrenWith(w *World, parent EntityID, stores ...Removable) []EntityID {
	kids := w.Children(parent)
	out := make([]EntityID, 0, len(kids))
	for _, id := range kids {
		if HasAll(id, stores...) {
			out = append(out, id)
		}
	}
	return out
}

// EntitiesWith returns every entity holding a component in all given stores,
// ordered by id. The first store drives the iteration.
func EntitiesWith(first Removable, rest ...Removable) []EntityID {
	type lister interface{ IDs() []EntityID }
	l, ok := first.(lister)
	if !ok {
		return nil
	}
	var out []EntityID
	for _, id := range l.IDs() {
		if HasAll(id, rest...) {
			out = append(out, id)
		}
	}
	return out
}

// FirstWith returns the lowest-id entity holding all components, or Null.
func FirstWith(first Removable, rest ...Removable) EntityID {
	if ids := EntitiesWith(first, rest...); len(ids) > 0 {
		return ids[0]
	}
	return Null
}
