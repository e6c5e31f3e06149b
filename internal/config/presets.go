package config

import (
	"math"
	"sort"

	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/rcmg"
	"github.com/tiendc/go-deepcopy"
)

var earth = [3]float64{0, 0, dynamo.DefaultGravity}

func rod(length, mass float64) []GeomSpec {
	return []GeomSpec{{Type: dynamo.Box, Mass: mass, Pos: [3]float64{length / 2}, Dim: []float64{length, 0.05, 0.05}}}
}

func segment(length, mass float64) []GeomSpec {
	return []GeomSpec{{
		Type:  dynamo.Capsule,
		Mass:  mass,
		Pos:   [3]float64{length / 2},
		Euler: [3]float64{0, 90, 0},
		Dim:   []float64{0.04, length},
	}}
}

// Systems holds the named system descriptions.
var Systems = map[string]SystemSpec{
	"pendulum": {
		Name: "pendulum", Gravity: earth,
		Bodies: []BodySpec{
			{Name: "bob", Joint: "ry", Geoms: append(rod(1, 0.2), GeomSpec{Type: dynamo.Sphere, Mass: 1, Pos: [3]float64{1}, Dim: []float64{0.05}})},
		},
	},
	"double_pendulum": {
		Name: "double_pendulum", Gravity: earth,
		Bodies: []BodySpec{
			{Name: "upper", Joint: "ry", Damping: []float64{0.05}, Geoms: rod(1, 1)},
			{Name: "lower", Parent: "upper", Joint: "ry", Pos: [3]float64{1}, Damping: []float64{0.05}, Geoms: rod(1, 1)},
		},
	},
	"arm": {
		Name: "arm", Gravity: earth,
		Bodies: []BodySpec{
			{Name: "base", Joint: "frozen", Geoms: []GeomSpec{{Type: dynamo.Cylinder, Mass: 5, Dim: []float64{0.1, 0.2}}}},
			{Name: "shoulder", Parent: "base", Joint: "spherical", Pos: [3]float64{0, 0, 0.1}, Damping: []float64{1, 1, 1}, Geoms: segment(0.3, 2)},
			{Name: "elbow", Parent: "shoulder", Joint: "ry", Pos: [3]float64{0.3}, Damping: []float64{0.5}, SpringStiffness: []float64{2}, Geoms: segment(0.25, 1.2)},
			{Name: "wrist", Parent: "elbow", Joint: "rr", Pos: [3]float64{0.25}, Axis: [3]float64{1, 0, 0}, Damping: []float64{0.2}, Geoms: segment(0.08, 0.4)},
		},
	},
	"free_chain": {
		Name: "free_chain", Gravity: earth,
		Bodies: []BodySpec{
			{Name: "root", Joint: "free", Geoms: []GeomSpec{{Type: dynamo.Box, Mass: 1, Dim: []float64{0.2, 0.2, 0.2}}}},
			{Name: "link1", Parent: "root", Joint: "rx", Pos: [3]float64{0.2}, Damping: []float64{0.1}, Geoms: segment(0.3, 0.5)},
			{Name: "link2", Parent: "link1", Joint: "ry", Pos: [3]float64{0.3}, Damping: []float64{0.1}, Geoms: segment(0.3, 0.5)},
			{Name: "link3", Parent: "link2", Joint: "rz", Pos: [3]float64{0.3}, Damping: []float64{0.1}, Geoms: segment(0.3, 0.5)},
		},
	},
	"limb_chain": {
		Name: "limb_chain", Gravity: earth,
		Bodies: []BodySpec{
			{Name: "seg1", Joint: "free", Geoms: segment(0.25, 1)},
			{Name: "seg2", Parent: "seg1", Joint: "rr", Pos: [3]float64{0.25}, Axis: [3]float64{0, 0, 1}, Geoms: segment(0.25, 1)},
			{Name: "seg3", Parent: "seg2", Joint: "rr", Pos: [3]float64{0.25}, Axis: [3]float64{0, 0, 1}, Geoms: segment(0.25, 1)},
			{Name: "seg4", Parent: "seg3", Joint: "rr", Pos: [3]float64{0.25}, Axis: [3]float64{0, 0, 1}, Geoms: segment(0.25, 1)},
			{Name: "imu3", Parent: "seg3", Joint: "frozen", Pos: [3]float64{0.125, 0, 0.04}},
		},
	},
}

func preset(system string, duration float64, q, qd []float64, modify func(*Config)) *Config {
	cfg := DefaultConfig()
	cfg.System = system
	cfg.Sim.Duration = duration
	cfg.Sim.Q = q
	cfg.Sim.QD = qd
	if modify != nil {
		modify(cfg)
	}
	return cfg
}

// Presets maps a system name and a variant name to a complete configuration.
var Presets = map[string]map[string]*Config{
	"pendulum": {
		"small":    preset("pendulum", 20, []float64{0.2}, nil, nil),
		"large":    preset("pendulum", 20, []float64{2.5}, nil, nil),
		"spinning": preset("pendulum", 30, []float64{0.1}, []float64{8}, nil),
	},
	"double_pendulum": {
		"gentle":    preset("double_pendulum", 30, []float64{0.3, 0.3}, nil, nil),
		"symmetric": preset("double_pendulum", 30, []float64{1.5, 1.5}, nil, func(c *Config) { c.Sim.Dt = 0.005 }),
		"chaos":     preset("double_pendulum", 60, []float64{3.0, 3.0}, nil, func(c *Config) { c.Sim.Dt = 0.005 }),
	},
	"arm": {
		"rest": preset("arm", 10, nil, nil, nil),
		"wave": preset("arm", 10, nil, []float64{0, 0, 2, 1.5, 3}, nil),
	},
	"free_chain": {
		"tumble": preset("free_chain", 5, nil, []float64{0.5, 0.3, 0, 0, 0, 1, 0, 0, 0}, nil),
		"motion": preset("free_chain", 10, nil, nil, func(c *Config) {
			c.RCMG.T = 10
			c.Dataset.BatchSize = 16
		}),
	},
	"limb_chain": {
		"motion": preset("limb_chain", 10, nil, nil, func(c *Config) {
			c.RCMG.T = 60
			c.RCMG.AngMin, c.RCMG.AngMax = -math.Pi/2, math.Pi/2
			c.RCMG.Ang0Min, c.RCMG.Ang0Max = 0, 0
			c.RCMG.RangeOfMotionMethod = rcmg.MethodSigmoid
			c.Dataset.BatchSize = 32
			c.Dataset.RandomizeAxes = true
		}),
	},
}

// GetPreset returns a copy of the variant, or nil.
func GetPreset(system, variant string) *Config {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	cfg, ok := systemPresets[variant]
	if !ok {
		return nil
	}
	var out Config
	if err := deepcopy.Copy(&out, *cfg); err != nil {
		return nil
	}
	return &out
}

func ListPresets(system string) []string {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(systemPresets))
	for name := range systemPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListSystems() []string {
	names := make([]string, 0, len(Systems))
	for name := range Systems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
