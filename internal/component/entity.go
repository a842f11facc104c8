package component

// Name is the human-readable name of a world, model, link or collision.
type Name struct {
	Value string
}

// World marks the single world entity. Gravity lives on the same entity.
type World struct{}

// Model marks a model entity. Links are its direct children.
type Model struct{}

// Link marks a link entity. Collisions are its direct children.
type Link struct{}

// Static marks a model the host will not move.
type Static struct{}
