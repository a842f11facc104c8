package component

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/marisim/simhost/internal/mathx"
)

// Pose is an entity's pose relative to its parent entity.
// Roots (the world, free models) are expressed in the world frame.
type Pose struct {
	mathx.Pose
}

// Inertial holds a link's mass properties. Pose is the inertial frame
// (center of mass) relative to the link frame.
type Inertial struct {
	Mass float64
	Pose mathx.Pose
}

// Gravity is the world's gravitational acceleration in the world frame (m/s²).
type Gravity struct {
	Vec mgl64.Vec3
}

// DefaultFluidDensity is the density of water in kg/m³.
const DefaultFluidDensity = 1000.0
