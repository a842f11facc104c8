// Package scene loads the YAML world description and spawns it into the
// entity-component manager.
package scene

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Vec3 is a YAML sequence of three numbers.
type Vec3 [3]float64

// PoseSpec is [x, y, z, roll, pitch, yaw]; a missing pose is identity.
type PoseSpec [6]float64

type Scene struct {
	World  WorldSpec   `yaml:"world"`
	Models []ModelSpec `yaml:"models"`

	dir string
}

type WorldSpec struct {
	Name    string `yaml:"name"`
	Gravity *Vec3  `yaml:"gravity"` // nil leaves the world without gravity
}

type ModelSpec struct {
	Name   string     `yaml:"name"`
	Pose   *PoseSpec  `yaml:"pose"`
	Static bool       `yaml:"static"`
	Links  []LinkSpec `yaml:"links"`
}

type LinkSpec struct {
	Name       string          `yaml:"name"`
	Pose       *PoseSpec       `yaml:"pose"`
	Inertial   *InertialSpec   `yaml:"inertial"`
	Collisions []CollisionSpec `yaml:"collisions"`
}

type InertialSpec struct {
	Mass float64   `yaml:"mass"`
	Pose *PoseSpec `yaml:"pose"`
}

type CollisionSpec struct {
	Name     string       `yaml:"name"`
	Pose     *PoseSpec    `yaml:"pose"`
	Geometry GeometrySpec `yaml:"geometry"`
}

// GeometrySpec holds exactly one shape.
type GeometrySpec struct {
	Box       *BoxSpec       `yaml:"box"`
	Sphere    *SphereSpec    `yaml:"sphere"`
	Cylinder  *CylinderSpec  `yaml:"cylinder"`
	Plane     *PlaneSpec     `yaml:"plane"`
	Mesh      *MeshSpec      `yaml:"mesh"`
	Capsule   *CylinderSpec  `yaml:"capsule"`
	Ellipsoid *EllipsoidSpec `yaml:"ellipsoid"`
}

type BoxSpec struct {
	Size Vec3 `yaml:"size"`
}

type SphereSpec struct {
	Radius float64 `yaml:"radius"`
}

type CylinderSpec struct {
	Radius float64 `yaml:"radius"`
	Length float64 `yaml:"length"`
}

type PlaneSpec struct {
	Normal Vec3       `yaml:"normal"`
	Size   [2]float64 `yaml:"size"`
}

type MeshSpec struct {
	URI   string `yaml:"uri"`
	Scale *Vec3  `yaml:"scale"`
}

type EllipsoidSpec struct {
	Radii Vec3 `yaml:"radii"`
}

// Load reads a scene file. Relative mesh URIs resolve against its directory.
func Load(path string) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	sc, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	sc.dir = filepath.Dir(path)
	return sc, nil
}

// Parse decodes a scene document and checks names and geometry.
func Parse(raw []byte) (*Scene, error) {
	var sc Scene
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, err
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Scene) validate() error {
	var errs []error
	models := make(map[string]bool, len(s.Models))
	for _, m := range s.Models {
		if m.Name == "" {
			errs = append(errs, errors.New("model without name"))
			continue
		}
		if models[m.Name] {
			errs = append(errs, fmt.Errorf("duplicate model %q", m.Name))
		}
		models[m.Name] = true
		links := make(map[string]bool, len(m.Links))
		for _, l := range m.Links {
			if l.Name == "" {
				errs = append(errs, fmt.Errorf("model %q: link without name", m.Name))
				continue
			}
			if links[l.Name] {
				errs = append(errs, fmt.Errorf("model %q: duplicate link %q", m.Name, l.Name))
			}
			links[l.Name] = true
			for i, c := range l.Collisions {
				if n := c.Geometry.count(); n > 1 {
					errs = append(errs, fmt.Errorf("model %q link %q collision %d: %d shapes given, want one",
						m.Name, l.Name, i, n))
				}
				if err := c.Geometry.checkDimensions(); err != nil {
					errs = append(errs, fmt.Errorf("model %q link %q collision %d: %w", m.Name, l.Name, i, err))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// checkDimensions rejects non-positive or non-finite sizes of the
// closed-form shapes.
func (g GeometrySpec) checkDimensions() error {
	positive := func(vs ...float64) bool {
		for _, v := range vs {
			if !(v > 0) || math.IsInf(v, 0) {
				return false
			}
		}
		return true
	}
	switch {
	case g.Box != nil && !positive(g.Box.Size[:]...):
		return fmt.Errorf("box size %v must be positive", g.Box.Size)
	case g.Sphere != nil && !positive(g.Sphere.Radius):
		return fmt.Errorf("sphere radius %g must be positive", g.Sphere.Radius)
	case g.Cylinder != nil && !positive(g.Cylinder.Radius, g.Cylinder.Length):
		return fmt.Errorf("cylinder radius %g and length %g must be positive", g.Cylinder.Radius, g.Cylinder.Length)
	}
	return nil
}

func (g GeometrySpec) count() int {
	n := 0
	for _, set := range []bool{
		g.Box != nil, g.Sphere != nil, g.Cylinder != nil, g.Plane != nil,
		g.Mesh != nil, g.Capsule != nil, g.Ellipsoid != nil,
	} {
		if set {
			n++
		}
	}
	return n
}
