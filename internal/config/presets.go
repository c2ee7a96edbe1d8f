package config

import (
	"sort"

	"github.com/san-kum/clothsim/internal/dynamo"
	"github.com/san-kum/clothsim/internal/physics"
)

func preset(name string, mutate func(*Config)) *Config {
	cfg := DefaultConfig()
	cfg.Name = name
	mutate(cfg)
	return cfg
}

func restLength(v float32) *float32 { return &v }

var Presets = map[string]*Config{
	"default": preset("default", func(c *Config) {}),
	"stiff": preset("stiff", func(c *Config) {
		c.Dt = 0.005
		c.Cloth.Stiffness = 400
	}),
	"soft": preset("soft", func(c *Config) {
		c.Cloth.Stiffness = 25
		c.Duration = 20
	}),
	"damped": preset("damped", func(c *Config) {
		c.World.SpringDamping = true
		c.World.AirResistance = 0.2
	}),
	"shear": preset("shear", func(c *Config) {
		c.Cloth.Shear = true
		c.Cloth.Columns, c.Cloth.Rows = 12, 10
		c.Cloth.Spacing = 0.08
		c.Cloth.Origin = dynamo.Vec3{-0.44, 0.9, 0}
	}),
	"bouncy": preset("bouncy", func(c *Config) {
		c.World.Rebound = 0.9
		c.World.Friction = 0.98
		c.World.FrictionMode = dynamo.FrictionTangential.String()
		c.Cloth.Rows = 10
		c.Cloth.Origin = dynamo.Vec3{-0.35, 0.05, 0}
		c.Jitter = 0.02
		c.Seed = 7
	}),
	"explicit_euler": preset("explicit_euler", func(c *Config) {
		c.Integrator = dynamo.ExplicitEuler.String()
		c.Duration = 5
	}),
	"implicit_euler": preset("implicit_euler", func(c *Config) {
		c.Integrator = dynamo.ImplicitEuler.String()
		c.Cloth.Stiffness = 400
	}),
	"pendulum": preset("pendulum", func(c *Config) {
		c.Duration = 20
		c.World.Bounds = physics.NewBox(dynamo.Vec3{-2, -2, -1}, dynamo.Vec3{2, 2, 1})
		c.Particles = []ParticleConfig{
			{Position: dynamo.Vec3{0, 0.5, 0}, Frozen: true},
			{Position: dynamo.Vec3{0.5, 0.5, 0}, Mass: 1},
			{Position: dynamo.Vec3{1.0, 0.5, 0}, Mass: 1},
		}
		c.Springs = []SpringConfig{
			{M1: 1, M2: 0, Stiffness: 200},
			{M1: 2, M2: 1, RestLength: restLength(0.5), Stiffness: 200},
		}
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
