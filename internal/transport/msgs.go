package transport

import "github.com/go-gl/mathgl/mgl64"

// Vector3 is the wire form of a 3-vector.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vector3) Vec() mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

func FromVec(v mgl64.Vec3) Vector3 { return Vector3{X: v[0], Y: v[1], Z: v[2]} }

// Twist is a velocity command, matching geometry_msgs/Twist.
type Twist struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
}
