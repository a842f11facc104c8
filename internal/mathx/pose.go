// Package mathx holds the rigid-transform helpers shared by the scene
// loader, the world store and the systems.
package mathx

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Pose is a rigid transform: rotate by Rot, then translate by Pos.
type Pose struct {
	Pos mgl64.Vec3
	Rot mgl64.Quat
}

// Identity is the pose with no translation or rotation.
func Identity() Pose {
	return Pose{Rot: mgl64.QuatIdent()}
}

// NewPose builds a pose from a position and roll/pitch/yaw Euler angles
// (radians, extrinsic X then Y then Z).
func NewPose(x, y, z, roll, pitch, yaw float64) Pose {
	return Pose{
		Pos: mgl64.Vec3{x, y, z},
		Rot: mgl64.AnglesToQuat(yaw, pitch, roll, mgl64.ZYX),
	}
}

// Normalized returns p with a unit rotation. A zero quaternion, as left by
// a zero-value Pose, is treated as identity.
func (p Pose) Normalized() Pose {
	if p.Rot.Len() == 0 {
		p.Rot = mgl64.QuatIdent()
		return p
	}
	p.Rot = p.Rot.Normalize()
	return p
}

// Compose returns p * child: child expressed in p's frame, mapped into the
// frame p is expressed in.
func (p Pose) Compose(child Pose) Pose {
	p = p.Normalized()
	child = child.Normalized()
	return Pose{
		Pos: p.Pos.Add(p.Rot.Rotate(child.Pos)),
		Rot: p.Rot.Mul(child.Rot).Normalize(),
	}
}

// Transform maps a point from p's local frame into its parent frame.
func (p Pose) Transform(v mgl64.Vec3) mgl64.Vec3 {
	p = p.Normalized()
	return p.Pos.Add(p.Rot.Rotate(v))
}

// InverseTransform maps a point from the parent frame into p's local frame.
func (p Pose) InverseTransform(v mgl64.Vec3) mgl64.Vec3 {
	p = p.Normalized()
	return p.Rot.Conjugate().Rotate(v.Sub(p.Pos))
}

// RotateVector rotates a free vector by p's orientation only.
func (p Pose) RotateVector(v mgl64.Vec3) mgl64.Vec3 {
	return p.Normalized().Rot.Rotate(v)
}

// Finite reports whether every component of v is a finite number.
func Finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
