package ecs

// Store is the type-erased view of a component store the registry needs.
type Store interface {
	Removable
	Len() int
}

type namedStore struct {
	name  string
	store Store
}

// StoreStat is the component count of one registered store.
type StoreStat struct {
	Name  string
	Count int
}

// Registry knows every component store by name so destroyed entities can be
// stripped from all of them.
type Registry struct {
	stores []namedStore
}

func NewRegistry() *Registry {
	return &Registry{stores: make([]namedStore, 0, 16)}
}

func (r *Registry) Register(name string, store Store) {
	r.stores = append(r.stores, namedStore{name: name, store: store})
}

// RemoveAll clears id from every registered store.
func (r *Registry) RemoveAll(id EntityID) {
	for _, s := range r.stores {
		s.store.Remove(id)
	}
}

// Components lists the names of the stores holding a component for id.
func (r *Registry) Components(id EntityID) []string {
	var out []string
	for _, s := range r.stores {
		if s.store.Has(id) {
			out = append(out, s.name)
		}
	}
	return out
}

// Stats returns per-store component counts in registration order.
func (r *Registry) Stats() []StoreStat {
	out := make([]StoreStat, len(r.stores))
	for i, s := range r.stores {
		out[i] = StoreStat{Name: s.name, Count: s.store.Len()}
	}
	return out
}

// HasAll reports whether id holds a component in every given store.
func HasAll(id EntityID, stores ...Removable) bool {
	for _, s := range stores {
		if !s.Has(id) {
			return false
		}
	}
	return true
}
