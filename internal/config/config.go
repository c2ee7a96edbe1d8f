package config

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/clothsim/internal/dynamo"
	"github.com/san-kum/clothsim/internal/physics"
	"github.com/san-kum/clothsim/internal/sim"
)

const (
	DefaultDt        = 0.01
	DefaultDuration  = 10.0
	DefaultFrameRate = 60
	DefaultMaxFrame  = 0.25

	// UserDir is the per-user directory under $HOME holding config.yaml and
	// the run database.
	UserDir  = ".clothsim"
	FileName = "config.yaml"
)

type Config struct {
	Name       string  `yaml:"name,omitempty"`
	Integrator string  `yaml:"integrator"`
	Dt         float64 `yaml:"dt"`
	Duration   float64 `yaml:"duration"`
	FrameRate  int     `yaml:"frame_rate"`
	Seed       int64   `yaml:"seed"`
	// Jitter displaces every free particle by up to this much on x and y
	// after the scene is built.
	Jitter    float32          `yaml:"jitter,omitempty"`
	World     WorldConfig      `yaml:"world"`
	Cloth     ClothConfig      `yaml:"cloth"`
	Particles []ParticleConfig `yaml:"particles,omitempty"`
	Springs   []SpringConfig   `yaml:"springs,omitempty"`
}

type WorldConfig struct {
	Gravity       dynamo.Vec3 `yaml:"gravity"`
	AirResistance float32     `yaml:"air_resistance"`
	Rebound       float32     `yaml:"rebound"`
	Friction      float32     `yaml:"friction"`
	FrictionMode  string      `yaml:"friction_mode"`
	SpringDamping bool        `yaml:"spring_damping"`
	Bounds        physics.Box `yaml:"bounds"`
}

type ClothConfig struct {
	Columns   int         `yaml:"columns"`
	Rows      int         `yaml:"rows"`
	Spacing   float32     `yaml:"spacing"`
	Origin    dynamo.Vec3 `yaml:"origin"`
	Mass      float32     `yaml:"mass"`
	Stiffness float32     `yaml:"stiffness"`
	Damping   float32     `yaml:"damping"`
	Shear     bool        `yaml:"shear"`
}

// ParticleConfig lists one particle of an explicit scene. Frozen particles
// may appear anywhere in the list.
type ParticleConfig struct {
	Position dynamo.Vec3 `yaml:"position"`
	Velocity dynamo.Vec3 `yaml:"velocity,omitempty"`
	Mass     float32     `yaml:"mass,omitempty"`
	Frozen   bool        `yaml:"frozen,omitempty"`
}

// SpringConfig refers to particles by their position in Config.Particles.
// A nil RestLength takes the initial distance.
type SpringConfig struct {
	M1         int      `yaml:"m1"`
	M2         int      `yaml:"m2"`
	RestLength *float32 `yaml:"rest_length,omitempty"`
	Stiffness  float32  `yaml:"stiffness"`
	Damping    float32  `yaml:"damping"`
}

func DefaultConfig() *Config {
	params := physics.DefaultParams()
	cloth := physics.DefaultCloth()
	return &Config{
		Integrator: params.Integrator.String(),
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		FrameRate:  DefaultFrameRate,
		World: WorldConfig{
			Gravity:       params.Gravity,
			AirResistance: params.AirResistance,
			Rebound:       params.Rebound,
			Friction:      params.Friction,
			FrictionMode:  params.FrictionMode.String(),
			SpringDamping: params.SpringDamping,
			Bounds:        params.Bounds,
		},
		Cloth: ClothConfig{
			Columns:   cloth.Columns,
			Rows:      cloth.Rows,
			Spacing:   cloth.Spacing,
			Origin:    cloth.Origin,
			Mass:      cloth.Mass,
			Stiffness: cloth.Stiffness,
			Damping:   cloth.Damping,
			Shear:     cloth.Shear,
		},
	}
}

// Load reads a YAML file on top of DefaultConfig, so a file only needs the
// keys it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Discover loads customPath when set, then ~/.clothsim/config.yaml, then
// ./clothsim.yaml, and falls back to DefaultConfig. It also returns the path
// the config came from, empty for the default.
func Discover(customPath string) (*Config, string, error) {
	if customPath != "" {
		cfg, err := Load(customPath)
		return cfg, customPath, err
	}
	for _, path := range []string{UserPath(FileName), "clothsim.yaml"} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cfg, err := Load(path)
		return cfg, path, err
	}
	return DefaultConfig(), "", nil
}

// UserPath joins name onto ~/.clothsim, or returns "" without a home dir.
func UserPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserDir, name)
}

func Save(path string, cfg *Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Particles = append([]ParticleConfig(nil), c.Particles...)
	cp.Springs = make([]SpringConfig, len(c.Springs))
	for i, s := range c.Springs {
		cp.Springs[i] = s
		if s.RestLength != nil {
			rest := *s.RestLength
			cp.Springs[i].RestLength = &rest
		}
	}
	if c.Springs == nil {
		cp.Springs = nil
	}
	return &cp
}

// Validate checks the run settings and the world parameters. Scene problems
// are reported by Build.
func (c *Config) Validate() error {
	switch {
	case !(c.Dt > 0) || math.IsInf(c.Dt, 0):
		return dynamo.Invalid("dt", -1, "must be positive, got %v", c.Dt)
	case !(c.Duration > 0) || math.IsInf(c.Duration, 0):
		return dynamo.Invalid("duration", -1, "must be positive, got %v", c.Duration)
	case c.FrameRate < 0:
		return dynamo.Invalid("frame_rate", -1, "must not be negative, got %d", c.FrameRate)
	case !(c.Jitter >= 0):
		return dynamo.Invalid("jitter", -1, "must not be negative, got %v", c.Jitter)
	}
	_, err := c.Params()
	return err
}

// Params converts the world section. Range checks on the values are left
// to physics.New.
func (c *Config) Params() (physics.Params, error) {
	integ, err := dynamo.ParseIntegrator(c.Integrator)
	if err != nil {
		return physics.Params{}, dynamo.Invalid("integrator", -1, "%v", err)
	}
	var mode dynamo.FrictionMode
	if c.World.FrictionMode != "" {
		if err := mode.UnmarshalText([]byte(c.World.FrictionMode)); err != nil {
			return physics.Params{}, dynamo.Invalid("world.friction_mode", -1, "%v", err)
		}
	}
	return physics.Params{
		Gravity:       c.World.Gravity,
		AirResistance: c.World.AirResistance,
		Rebound:       c.World.Rebound,
		Friction:      c.World.Friction,
		Bounds:        physics.NewBox(c.World.Bounds.Min, c.World.Bounds.Max),
		Integrator:    integ,
		FrictionMode:  mode,
		SpringDamping: c.World.SpringDamping,
	}, nil
}

// SimConfig returns the driver settings for sim.Simulator.
func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Dt:            c.Dt,
		Duration:      c.Duration,
		FrameRate:     c.FrameRate,
		MaxFrame:      DefaultMaxFrame,
		ValidateState: true,
	}
}

// Build validates the config and constructs the world. An explicit particle
// list takes precedence over the cloth section.
func (c *Config) Build() (*physics.Simulation, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	params, err := c.Params()
	if err != nil {
		return nil, err
	}

	var w *physics.Simulation
	if len(c.Particles) > 0 {
		w, err = c.buildExplicit(params)
	} else {
		w, err = physics.NewCloth(c.Cloth.spec(), params)
	}
	if err != nil {
		return nil, err
	}

	if c.Jitter > 0 {
		rng := rand.New(rand.NewPCG(uint64(c.Seed), 0))
		p := w.Particles
		for i := 0; i < p.Free(); i++ {
			p.Position[i][0] += (2*rng.Float32() - 1) * c.Jitter
			p.Position[i][1] += (2*rng.Float32() - 1) * c.Jitter
		}
	}
	return w, nil
}

func (c ClothConfig) spec() physics.ClothSpec {
	return physics.ClothSpec{
		Columns:   c.Columns,
		Rows:      c.Rows,
		Spacing:   c.Spacing,
		Origin:    c.Origin,
		Mass:      c.Mass,
		Stiffness: c.Stiffness,
		Damping:   c.Damping,
		Shear:     c.Shear,
	}
}

// buildExplicit adds the free particles first, then the frozen ones, and
// remaps spring endpoints to the resulting handles.
func (c *Config) buildExplicit(params physics.Params) (*physics.Simulation, error) {
	n := len(c.Particles)
	handle := make([]int, n)
	p := physics.NewParticles(n)
	for i, pc := range c.Particles {
		if pc.Frozen {
			continue
		}
		h, err := p.AddFree(pc.Position, pc.Velocity, pc.Mass)
		if err != nil {
			return nil, fmt.Errorf("particles[%d]: %w", i, err)
		}
		handle[i] = h
	}
	for i, pc := range c.Particles {
		if pc.Frozen {
			handle[i] = p.AddFrozen(pc.Position)
		}
	}

	s := physics.NewSprings(len(c.Springs))
	for i, sc := range c.Springs {
		if sc.M1 < 0 || sc.M1 >= n || sc.M2 < 0 || sc.M2 >= n {
			return nil, dynamo.Invalid("springs", i, "endpoints %d-%d outside %d particles", sc.M1, sc.M2, n)
		}
		a, b := handle[sc.M1], handle[sc.M2]
		rest := p.Position[b].Sub(p.Position[a]).Len()
		if sc.RestLength != nil {
			rest = *sc.RestLength
		}
		if _, err := s.Add(p.Len(), physics.Spring{
			M1: a, M2: b, RestLength: rest, Stiffness: sc.Stiffness, Damping: sc.Damping,
		}); err != nil {
			return nil, err
		}
	}
	return physics.New(p, s, params)
}
