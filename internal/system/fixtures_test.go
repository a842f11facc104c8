package system

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/marisim/simhost/internal/component"
	"github.com/marisim/simhost/internal/core/ecs"
	"github.com/marisim/simhost/internal/mathx"
	"github.com/marisim/simhost/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const eps = 1e-9

func observedLogger(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

// fixture builds small worlds by hand.
type fixture struct {
	ecm   *world.ECM
	world ecs.EntityID
}

func newFixture(gravity *mgl64.Vec3) *fixture {
	ecm := world.NewECM()
	w := ecm.CreateEntity(ecs.Null, "default")
	ecm.Worlds.Upsert(w, component.World{})
	if gravity != nil {
		ecm.Gravity.Upsert(w, component.Gravity{Vec: *gravity})
	}
	return &fixture{ecm: ecm, world: w}
}

func earth() *mgl64.Vec3 {
	g := mgl64.Vec3{0, 0, -9.8}
	return &g
}

func (f *fixture) model(name string, pose mathx.Pose) ecs.EntityID {
	m := f.ecm.CreateEntity(f.world, name)
	f.ecm.Models.Upsert(m, component.Model{})
	f.ecm.Poses.Upsert(m, component.Pose{Pose: pose})
	return m
}

func (f *fixture) link(model ecs.EntityID, name string, pose mathx.Pose, inertial *mathx.Pose) ecs.EntityID {
	l := f.ecm.CreateEntity(model, name)
	f.ecm.Links.Upsert(l, component.Link{})
	f.ecm.Poses.Upsert(l, component.Pose{Pose: pose})
	if inertial != nil {
		f.ecm.Inertials.Upsert(l, component.Inertial{Mass: 1, Pose: *inertial})
	}
	return l
}

func (f *fixture) collision(link ecs.EntityID, name string, pose mathx.Pose, g component.Geometry) ecs.EntityID {
	c := f.ecm.CreateEntity(link, name)
	f.ecm.Collisions.Upsert(c, component.Collision{Geometry: g})
	f.ecm.Poses.Upsert(c, component.Pose{Pose: pose})
	return c
}

func box(x, y, z float64) component.Geometry {
	return component.Geometry{Type: component.GeometryBox, Box: component.BoxShape{Size: mgl64.Vec3{x, y, z}}}
}

func identity() *mathx.Pose {
	p := mathx.Identity()
	return &p
}
