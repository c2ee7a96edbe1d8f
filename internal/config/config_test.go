package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/clothsim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Integrator != "leapfrog" {
		t.Errorf("expected integrator leapfrog, got %s", cfg.Integrator)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}

	w, err := cfg.Build()
	if err != nil {
		t.Fatalf("default config does not build: %v", err)
	}
	if w.Particles.Free() != 56 || w.Particles.Frozen() != 8 {
		t.Errorf("expected 56 free + 8 frozen, got %d + %d", w.Particles.Free(), w.Particles.Frozen())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cfg.yaml")
	cfg := GetPreset("pendulum")
	cfg.World.FrictionMode = "tangential"

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Name != "pendulum" || loaded.World.FrictionMode != "tangential" {
		t.Errorf("loaded %+v", loaded)
	}
	if len(loaded.Particles) != 3 || len(loaded.Springs) != 2 {
		t.Fatalf("scene lost: %d particles, %d springs", len(loaded.Particles), len(loaded.Springs))
	}
	if loaded.Springs[0].RestLength != nil || *loaded.Springs[1].RestLength != 0.5 {
		t.Errorf("rest lengths = %v, %v", loaded.Springs[0].RestLength, loaded.Springs[1].RestLength)
	}
	if loaded.World.Bounds != cfg.World.Bounds {
		t.Errorf("bounds = %+v, want %+v", loaded.World.Bounds, cfg.World.Bounds)
	}
}

func TestMarshalParse(t *testing.T) {
	cfg := GetPreset("shear")
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Name != "shear" || !parsed.Cloth.Shear || parsed.Cloth.Columns != cfg.Cloth.Columns {
		t.Errorf("parsed %+v", parsed.Cloth)
	}

	if _, err := Parse([]byte("dt: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := "integrator: implicit_euler\nworld:\n  rebound: 0.25\ncloth:\n  columns: 3\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Integrator != "implicit_euler" || cfg.World.Rebound != 0.25 || cfg.Cloth.Columns != 3 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Dt != DefaultDt || cfg.Cloth.Rows != DefaultConfig().Cloth.Rows {
		t.Error("defaults not kept")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("dt: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestDiscover(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, src, err := Discover("")
	if err != nil || src != "" || cfg.Name != "" {
		t.Fatalf("fallback: cfg=%v src=%q err=%v", cfg, src, err)
	}

	user := filepath.Join(home, UserDir, FileName)
	if err := Save(user, GetPreset("stiff")); err != nil {
		t.Fatal(err)
	}
	cfg, src, err = Discover("")
	if err != nil || src != user || cfg.Name != "stiff" {
		t.Errorf("user config: name=%q src=%q err=%v", cfg.Name, src, err)
	}

	custom := filepath.Join(t.TempDir(), "custom.yaml")
	if err := Save(custom, GetPreset("soft")); err != nil {
		t.Fatal(err)
	}
	cfg, src, err = Discover(custom)
	if err != nil || src != custom || cfg.Name != "soft" {
		t.Errorf("custom config: name=%q src=%q err=%v", cfg.Name, src, err)
	}

	if _, _, err := Discover(filepath.Join(home, "nope.yaml")); err == nil {
		t.Error("expected an error for a missing custom path")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }, "dt"},
		{"negative duration", func(c *Config) { c.Duration = -1 }, "duration"},
		{"negative frame rate", func(c *Config) { c.FrameRate = -5 }, "frame_rate"},
		{"negative jitter", func(c *Config) { c.Jitter = -0.1 }, "jitter"},
		{"unknown integrator", func(c *Config) { c.Integrator = "rk4" }, "integrator"},
		{"unknown friction mode", func(c *Config) { c.World.FrictionMode = "sticky" }, "world.friction_mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, dynamo.ErrInvalidConfiguration) {
				t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
			}
			var ce *dynamo.ConfigError
			if !errors.As(err, &ce) || ce.Field != tt.field {
				t.Errorf("field = %v, want %s", err, tt.field)
			}
		})
	}
}

func TestBuildRejectsBadWorld(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"rebound above one", func(c *Config) { c.World.Rebound = 1.5 }},
		{"negative friction", func(c *Config) { c.World.Friction = -0.1 }},
		{"zero mass", func(c *Config) { c.Cloth.Mass = 0 }},
		{"no columns", func(c *Config) { c.Cloth.Columns = 0 }},
		{"spring out of range", func(c *Config) {
			c.Particles = []ParticleConfig{{Mass: 1}, {Frozen: true}}
			c.Springs = []SpringConfig{{M1: 0, M2: 2, Stiffness: 1}}
		}},
		{"self spring", func(c *Config) {
			c.Particles = []ParticleConfig{{Mass: 1}, {Frozen: true}}
			c.Springs = []SpringConfig{{M1: 1, M2: 1, Stiffness: 1}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if _, err := cfg.Build(); !errors.Is(err, dynamo.ErrInvalidConfiguration) {
				t.Errorf("err = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestBuildExplicitReordersFrozen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Particles = []ParticleConfig{
		{Position: dynamo.Vec3{0, 0.5, 0}, Frozen: true},
		{Position: dynamo.Vec3{0.3, 0.5, 0}, Mass: 2},
		{Position: dynamo.Vec3{0.6, 0.5, 0}, Mass: 1},
	}
	cfg.Springs = []SpringConfig{
		{M1: 0, M2: 1, Stiffness: 10},
		{M1: 1, M2: 2, Stiffness: 10},
	}

	w, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	p := w.Particles
	if p.FrozenStart != 2 || p.Len() != 3 {
		t.Fatalf("partition = %d of %d", p.FrozenStart, p.Len())
	}
	if p.Position[2] != (dynamo.Vec3{0, 0.5, 0}) || p.Mass[0] != 2 {
		t.Errorf("order = %v, masses %v", p.Position, p.Mass)
	}
	if w.Springs.M1[0] != 2 || w.Springs.M2[0] != 0 {
		t.Errorf("spring 0 = %d-%d, want 2-0", w.Springs.M1[0], w.Springs.M2[0])
	}
	if got := w.Springs.RestLength[1]; got < 0.2999 || got > 0.3001 {
		t.Errorf("rest length = %v, want 0.3", got)
	}
}

func TestJitterIsSeeded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Jitter = 0.05
	cfg.Seed = 42

	a, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := cfg.Build()
	plain, _ := DefaultConfig().Build()

	moved := false
	for i := 0; i < a.Particles.Len(); i++ {
		if a.Particles.Position[i] != b.Particles.Position[i] {
			t.Fatalf("particle %d differs between builds with the same seed", i)
		}
		d := a.Particles.Position[i].Sub(plain.Particles.Position[i])
		if d[0] > 0.051 || d[0] < -0.051 || d[1] > 0.051 || d[1] < -0.051 || d[2] != 0 {
			t.Errorf("particle %d moved %v", i, d)
		}
		if a.Particles.IsFrozen(i) && d != (dynamo.Vec3{}) {
			t.Errorf("anchor %d moved", i)
		}
		moved = moved || d != (dynamo.Vec3{})
	}
	if !moved {
		t.Error("jitter had no effect")
	}
}

func TestSimConfig(t *testing.T) {
	sc := DefaultConfig().SimConfig()
	if sc.Dt != DefaultDt || sc.FrameRate != DefaultFrameRate || !sc.ValidateState {
		t.Errorf("sim config = %+v", sc)
	}
}
