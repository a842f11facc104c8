package scene

import (
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/marisim/simhost/internal/component"
	"github.com/marisim/simhost/internal/core/ecs"
	"github.com/marisim/simhost/internal/mathx"
	"github.com/marisim/simhost/internal/world"
)

// Spawned indexes the entities created by Spawn.
type Spawned struct {
	World  ecs.EntityID
	Models map[string]ecs.EntityID
}

// Spawn creates the world entity and every model, link and collision.
func Spawn(ecm *world.ECM, sc *Scene) Spawned {
	out := Spawned{Models: make(map[string]ecs.EntityID, len(sc.Models))}

	out.World = ecm.CreateEntity(ecs.Null, sc.World.Name)
	ecm.Worlds.Upsert(out.World, component.World{})
	if g := sc.World.Gravity; g != nil {
		ecm.Gravity.Upsert(out.World, component.Gravity{Vec: mgl64.Vec3(*g)})
	}

	for _, m := range sc.Models {
		model := ecm.CreateEntity(out.World, m.Name)
		ecm.Models.Upsert(model, component.Model{})
		ecm.Poses.Upsert(model, component.Pose{Pose: pose(m.Pose)})
		if m.Static {
			ecm.Statics.Upsert(model, component.Static{})
		}
		for _, l := range m.Links {
			spawnLink(ecm, model, l, sc.dir)
		}
		out.Models[m.Name] = model
	}
	return out
}

func spawnLink(ecm *world.ECM, model ecs.EntityID, l LinkSpec, dir string) {
	link := ecm.CreateEntity(model, l.Name)
	ecm.Links.Upsert(link, component.Link{})
	ecm.Poses.Upsert(link, component.Pose{Pose: pose(l.Pose)})
	if l.Inertial != nil {
		ecm.Inertials.Upsert(link, component.Inertial{
			Mass: l.Inertial.Mass,
			Pose: pose(l.Inertial.Pose),
		})
	}
	for _, c := range l.Collisions {
		coll := ecm.CreateEntity(link, c.Name)
		ecm.Collisions.Upsert(coll, component.Collision{Geometry: geometry(c.Geometry, dir)})
		ecm.Poses.Upsert(coll, component.Pose{Pose: pose(c.Pose)})
	}
}

func pose(p *PoseSpec) mathx.Pose {
	if p == nil {
		return mathx.Identity()
	}
	return mathx.NewPose(p[0], p[1], p[2], p[3], p[4], p[5])
}

func geometry(g GeometrySpec, dir string) component.Geometry {
	switch {
	case g.Box != nil:
		return component.Geometry{Type: component.GeometryBox,
			Box: component.BoxShape{Size: mgl64.Vec3(g.Box.Size)}}
	case g.Sphere != nil:
		return component.Geometry{Type: component.GeometrySphere,
			Sphere: component.SphereShape{Radius: g.Sphere.Radius}}
	case g.Cylinder != nil:
		return component.Geometry{Type: component.GeometryCylinder,
			Cylinder: component.CylinderShape{Radius: g.Cylinder.Radius, Length: g.Cylinder.Length}}
	case g.Plane != nil:
		return component.Geometry{Type: component.GeometryPlane,
			Plane: component.PlaneShape{Normal: mgl64.Vec3(g.Plane.Normal), Size: g.Plane.Size}}
	case g.Mesh != nil:
		uri := g.Mesh.URI
		if uri != "" && !filepath.IsAbs(uri) && dir != "" {
			uri = filepath.Join(dir, uri)
		}
		scale := mgl64.Vec3{1, 1, 1}
		if g.Mesh.Scale != nil {
			scale = mgl64.Vec3(*g.Mesh.Scale)
		}
		return component.Geometry{Type: component.GeometryMesh,
			Mesh: component.MeshShape{FilePath: uri, Scale: scale}}
	case g.Capsule != nil:
		return component.Geometry{Type: component.GeometryCapsule}
	case g.Ellipsoid != nil:
		return component.Geometry{Type: component.GeometryEllipsoid}
	}
	return component.Geometry{Type: component.GeometryEmpty}
}
