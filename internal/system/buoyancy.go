package system

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/marisim/simhost/internal/component"
	"github.com/marisim/simhost/internal/core/ecs"
	coresys "github.com/marisim/simhost/internal/core/system"
	"github.com/marisim/simhost/internal/mathx"
	"github.com/marisim/simhost/internal/world"
	"go.uber.org/zap"
)

// VolumeOracle resolves the enclosed volume of a mesh file.
type VolumeOracle interface {
	IsValidFilename(path string) bool
	Volume(path string) (float64, error)
}

// VolumeProperties is a link's displaced volume and its center of volume
// in the link frame.
type VolumeProperties struct {
	Volume         float64
	CenterOfVolume mgl64.Vec3
}

// BuoyancySystem applies an Archimedes buoyant force to every link of one
// model. Volumes are computed once in Configure from the links' collision
// geometry; each PreUpdate turns them into world-frame wrench commands.
type BuoyancySystem struct {
	model        world.Model
	fluidDensity float64
	meshes       VolumeOracle

	active  bool
	gravity mgl64.Vec3
	volumes map[ecs.EntityID]VolumeProperties

	warnedInertial map[ecs.EntityID]bool
	log            *zap.Logger
}

func NewBuoyancySystem(fluidDensity float64, meshes VolumeOracle, log *zap.Logger) *BuoyancySystem {
	return &BuoyancySystem{
		fluidDensity:   fluidDensity,
		meshes:         meshes,
		volumes:        make(map[ecs.EntityID]VolumeProperties),
		warnedInertial: make(map[ecs.EntityID]bool),
		log:            log,
	}
}

// Active reports whether Configure succeeded.
func (s *BuoyancySystem) Active() bool { return s.active }

// FluidDensity returns the configured density in kg/m³.
func (s *BuoyancySystem) FluidDensity() float64 { return s.fluidDensity }

// VolumeProperties returns the precomputed properties of link.
func (s *BuoyancySystem) VolumeProperties(link ecs.EntityID) (VolumeProperties, bool) {
	vp, ok := s.volumes[link]
	return vp, ok
}

func (s *BuoyancySystem) Configure(entity ecs.EntityID, ecm *world.ECM) {
	s.model = world.NewModel(entity)
	if !s.model.Valid(ecm) {
		s.log.Error("buoyancy must be attached to a model entity, failed to initialize",
			zap.Stringer("entity", entity))
		return
	}
	if s.fluidDensity <= 0 {
		s.log.Warn("non-positive fluid density, buoyant forces will not oppose gravity",
			zap.Float64("density", s.fluidDensity))
	}

	for _, link := range s.model.Links(ecm) {
		s.volumes[link] = s.linkVolume(link, ecm)
	}

	worldEnt := ecm.WorldEntity()
	if worldEnt.IsNull() {
		s.log.Error("missing world entity, buoyancy disabled")
		return
	}
	g, ok := ecm.Gravity.Get(worldEnt)
	if !ok {
		s.log.Error("world is missing gravity, buoyancy disabled")
		return
	}
	s.gravity = g.Vec
	s.active = true

	s.log.Info("buoyancy configured",
		zap.String("model", s.model.Name(ecm)),
		zap.Float64("density", s.fluidDensity),
		zap.Int("links", len(s.volumes)),
	)
}

// linkVolume sums the collision volumes of link and places the center of
// volume at their volume-weighted centroid. A link without volume keeps a
// zero center of volume.
func (s *BuoyancySystem) linkVolume(link ecs.EntityID, ecm *world.ECM) VolumeProperties {
	var (
		volumeSum      float64
		weightedPosSum mgl64.Vec3
	)
	for _, coll := range ecm.ChildrenByComponents(link, ecm.Collisions) {
		c, _ := ecm.Collisions.Get(coll)
		v := s.shapeVolume(c.Geometry, ecm.Name(coll))
		if v <= 0 {
			continue
		}
		volumeSum += v
		weightedPosSum = weightedPosSum.Add(ecm.WorldPose(coll).Pos.Mul(v))
	}
	if volumeSum <= 0 {
		s.log.Warn("link has no collision volume, no buoyancy applied",
			zap.String("link", ecm.Name(link)))
		return VolumeProperties{}
	}
	centroid := weightedPosSum.Mul(1 / volumeSum)
	return VolumeProperties{
		Volume:         volumeSum,
		CenterOfVolume: ecm.WorldPose(link).InverseTransform(centroid),
	}
}

func (s *BuoyancySystem) shapeVolume(g component.Geometry, collision string) float64 {
	switch g.Type {
	case component.GeometryBox:
		size := g.Box.Size
		if size.X() <= 0 || size.Y() <= 0 || size.Z() <= 0 {
			return s.degenerate(g, collision)
		}
		return size.X() * size.Y() * size.Z()
	case component.GeometrySphere:
		r := g.Sphere.Radius
		if r <= 0 {
			return s.degenerate(g, collision)
		}
		return 4.0 / 3.0 * math.Pi * r * r * r
	case component.GeometryCylinder:
		r := g.Cylinder.Radius
		if r <= 0 || g.Cylinder.Length <= 0 {
			return s.degenerate(g, collision)
		}
		return math.Pi * r * r * g.Cylinder.Length
	case component.GeometryPlane:
		s.log.Warn("plane shapes are not supported by buoyancy", zap.String("collision", collision))
		return 0
	case component.GeometryMesh:
		return s.meshVolume(g.Mesh, collision)
	default:
		s.log.Error("unsupported collision geometry",
			zap.String("collision", collision),
			zap.Stringer("type", g.Type))
		return 0
	}
}

func (s *BuoyancySystem) degenerate(g component.Geometry, collision string) float64 {
	s.log.Warn("collision shape has non-positive dimensions, volume ignored",
		zap.String("collision", collision),
		zap.Stringer("type", g.Type))
	return 0
}

func (s *BuoyancySystem) meshVolume(m component.MeshShape, collision string) float64 {
	if s.meshes == nil || !s.meshes.IsValidFilename(m.FilePath) {
		s.log.Error("invalid mesh filename",
			zap.String("collision", collision),
			zap.String("file", m.FilePath))
		return 0
	}
	v, err := s.meshes.Volume(m.FilePath)
	if err != nil {
		s.log.Error("unable to load mesh",
			zap.String("collision", collision),
			zap.String("file", m.FilePath),
			zap.Error(err))
		return 0
	}
	scale := m.Scale
	if scale == (mgl64.Vec3{}) {
		scale = mgl64.Vec3{1, 1, 1}
	}
	return v * math.Abs(scale.X()*scale.Y()*scale.Z())
}

// Wrench computes the world-frame buoyant force and torque for a link with
// the given properties, world pose and inertial frame.
func Wrench(vp VolumeProperties, density float64, gravity mgl64.Vec3, linkPose, inertial mathx.Pose) component.ExternalWorldWrenchCmd {
	// The object's mass cancels out of Archimedes' principle: only the
	// displaced fluid's mass matters.
	force := gravity.Mul(-density * vp.Volume)
	offset := vp.CenterOfVolume.Sub(inertial.Pos)
	offsetWorld := linkPose.RotateVector(offset)
	return component.ExternalWorldWrenchCmd{
		Force:  force,
		Torque: offsetWorld.Cross(force),
	}
}

func (s *BuoyancySystem) PreUpdate(_ coresys.UpdateInfo, ecm *world.ECM) {
	if !s.active {
		return
	}
	for _, link := range s.model.Links(ecm) {
		vp := s.volumes[link]
		if vp.Volume <= 0 {
			continue
		}
		inertial, ok := ecm.Inertials.Get(link)
		if !ok {
			if !s.warnedInertial[link] {
				s.warnedInertial[link] = true
				s.log.Warn("link has volume but no inertial, skipped",
					zap.String("link", ecm.Name(link)))
			}
			continue
		}
		w := Wrench(vp, s.fluidDensity, s.gravity, ecm.WorldPose(link), inertial.Pose)
		if !mathx.Finite(w.Force) || !mathx.Finite(w.Torque) {
			s.log.Warn("non-finite buoyancy wrench, skipped", zap.String("link", ecm.Name(link)))
			continue
		}
		ecm.WrenchCmds.Upsert(link, w)

		if ce := s.log.Check(zap.DebugLevel, "buoyancy"); ce != nil {
			ce.Write(
				zap.String("link", ecm.Name(link)),
				zap.Float64("volume", vp.Volume),
				zap.Float64s("force", w.Force[:]),
				zap.Float64s("torque", w.Torque[:]),
			)
		}
	}
}
