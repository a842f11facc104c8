package component

import "github.com/go-gl/mathgl/mgl64"

// GeometryType tags which shape a Geometry carries.
type GeometryType int

const (
	GeometryEmpty GeometryType = iota
	GeometryBox
	GeometrySphere
	GeometryCylinder
	GeometryPlane
	GeometryMesh
	GeometryCapsule
	GeometryEllipsoid
	GeometryHeightmap
)

var geometryNames = [...]string{
	GeometryEmpty:     "empty",
	GeometryBox:       "box",
	GeometrySphere:    "sphere",
	GeometryCylinder:  "cylinder",
	GeometryPlane:     "plane",
	GeometryMesh:      "mesh",
	GeometryCapsule:   "capsule",
	GeometryEllipsoid: "ellipsoid",
	GeometryHeightmap: "heightmap",
}

func (t GeometryType) String() string {
	if t >= 0 && int(t) < len(geometryNames) {
		return geometryNames[t]
	}
	return "unknown"
}

// BoxShape is an axis-aligned box centered on its frame.
type BoxShape struct {
	Size mgl64.Vec3
}

// SphereShape is centered on its frame.
type SphereShape struct {
	Radius float64
}

// CylinderShape is centered on its frame with its axis along Z.
type CylinderShape struct {
	Radius float64
	Length float64
}

// PlaneShape is an infinite plane; Size is only a visual hint.
type PlaneShape struct {
	Normal mgl64.Vec3
	Size   [2]float64
}

// MeshShape references a mesh file, scaled per axis.
type MeshShape struct {
	FilePath string
	Scale    mgl64.Vec3
}

// Geometry is a tagged shape. Only the field matching Type is meaningful.
type Geometry struct {
	Type     GeometryType
	Box      BoxShape
	Sphere   SphereShape
	Cylinder CylinderShape
	Plane    PlaneShape
	Mesh     MeshShape
}

// Collision marks a collision entity and carries its geometry.
// Its placement relative to the link is the entity's Pose.
type Collision struct {
	Geometry Geometry
}
