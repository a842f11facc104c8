package component

import "github.com/go-gl/mathgl/mgl64"

// ExternalWorldWrenchCmd is a force/torque pair, expressed in the world
// frame, that the physics step applies to a link for one tick.
// Writers replace the value; there is no accumulation across systems.
type ExternalWorldWrenchCmd struct {
	Force  mgl64.Vec3
	Torque mgl64.Vec3
}

// LinearVelocityCmd requests a linear velocity (m/s) for a model or link.
type LinearVelocityCmd struct {
	Vec mgl64.Vec3
}

// AngularVelocityCmd requests an angular velocity (rad/s) for a model or link.
type AngularVelocityCmd struct {
	Vec mgl64.Vec3
}
