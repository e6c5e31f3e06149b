package config

import (
	"fmt"

	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// WorldParent names the world as a body's parent.
const WorldParent = "world"

// SystemSpec is the file form of a system. Angles are Euler x-y-z in
// degrees, bodies refer to their parents by name.
type SystemSpec struct {
	Name    string     `yaml:"name"`
	Gravity [3]float64 `yaml:"gravity"`
	Dt      float64    `yaml:"dt"`
	Bodies  []BodySpec `yaml:"bodies"`
}

type BodySpec struct {
	Name            string     `yaml:"name"`
	Parent          string     `yaml:"parent"`
	Joint           string     `yaml:"joint"`
	Pos             [3]float64 `yaml:"pos"`
	Euler           [3]float64 `yaml:"euler"`
	Axis            [3]float64 `yaml:"axis"`
	Damping         []float64  `yaml:"damping,omitempty"`
	Armature        []float64  `yaml:"armature,omitempty"`
	SpringStiffness []float64  `yaml:"spring_stiffness,omitempty"`
	SpringZero      []float64  `yaml:"spring_zero,omitempty"`
	Geoms           []GeomSpec `yaml:"geoms,omitempty"`
}

type GeomSpec struct {
	Type  dynamo.GeomKind `yaml:"type"`
	Mass  float64         `yaml:"mass"`
	Pos   [3]float64      `yaml:"pos"`
	Euler [3]float64      `yaml:"euler"`
	Dim   []float64       `yaml:"dim"`
}

// Build resolves parent names and constructs the system. A zero dt uses
// dynamo.DefaultDt.
func (s SystemSpec) Build() (*dynamo.System, error) {
	index := make(map[string]int, len(s.Bodies))
	bodies := make([]dynamo.Body, len(s.Bodies))
	for i, b := range s.Bodies {
		parent := dynamo.World
		if b.Parent != "" && b.Parent != WorldParent {
			p, ok := index[b.Parent]
			if !ok {
				return nil, fmt.Errorf("%w: body %q: parent %q unknown or not defined before it",
					dynamo.ErrInvalidTree, b.Name, b.Parent)
			}
			parent = p
		}
		geoms := make([]dynamo.Geometry, len(b.Geoms))
		for k, g := range b.Geoms {
			geoms[k] = dynamo.Geometry{Kind: g.Type, Mass: g.Mass, Transform: frame(g.Pos, g.Euler), Dim: g.Dim}
		}
		bodies[i] = dynamo.Body{
			Name:            b.Name,
			Parent:          parent,
			Joint:           b.Joint,
			Transform:       frame(b.Pos, b.Euler),
			Axis:            vec(b.Axis),
			Damping:         b.Damping,
			Armature:        b.Armature,
			SpringStiffness: b.SpringStiffness,
			SpringZero:      b.SpringZero,
			Geoms:           geoms,
		}
		if b.Name != "" {
			index[b.Name] = i
		}
	}

	dt := s.Dt
	if dt == 0 {
		dt = dynamo.DefaultDt
	}
	return dynamo.New(s.Name, bodies, dynamo.Options{Gravity: vec(s.Gravity), Dt: dt})
}

func frame(pos, euler [3]float64) spatial.Transform {
	return spatial.Transform{Pos: vec(pos), Rot: spatial.EulerDeg(euler[0], euler[1], euler[2])}
}

func vec(v [3]float64) r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}
