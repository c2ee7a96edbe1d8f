package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/clothsim/internal/dynamo"
)

type field struct {
	get func(*Config) float64
	set func(*Config, float64)
}

func f32(get func(*Config) *float32) field {
	return field{
		get: func(c *Config) float64 { return float64(*get(c)) },
		set: func(c *Config, v float64) { *get(c) = float32(v) },
	}
}

func f64(get func(*Config) *float64) field {
	return field{
		get: func(c *Config) float64 { return *get(c) },
		set: func(c *Config, v float64) { *get(c) = v },
	}
}

var fields = map[string]field{
	"dt":             f64(func(c *Config) *float64 { return &c.Dt }),
	"duration":       f64(func(c *Config) *float64 { return &c.Duration }),
	"jitter":         f32(func(c *Config) *float32 { return &c.Jitter }),
	"gravity":        f32(func(c *Config) *float32 { return &c.World.Gravity[1] }),
	"air_resistance": f32(func(c *Config) *float32 { return &c.World.AirResistance }),
	"rebound":        f32(func(c *Config) *float32 { return &c.World.Rebound }),
	"friction":       f32(func(c *Config) *float32 { return &c.World.Friction }),
	"stiffness":      f32(func(c *Config) *float32 { return &c.Cloth.Stiffness }),
	"damping":        f32(func(c *Config) *float32 { return &c.Cloth.Damping }),
	"mass":           f32(func(c *Config) *float32 { return &c.Cloth.Mass }),
	"spacing":        f32(func(c *Config) *float32 { return &c.Cloth.Spacing }),
}

func lookup(name string) (field, error) {
	f, ok := fields[name]
	if !ok {
		return field{}, fmt.Errorf("%w: unknown parameter %q", dynamo.ErrInvalidConfiguration, name)
	}
	return f, nil
}

// Set assigns a numeric parameter by name. Cloth parameters only affect
// generated sheets, not explicit particle lists.
func (c *Config) Set(name string, value float64) error {
	f, err := lookup(name)
	if err != nil {
		return err
	}
	f.set(c, value)
	return nil
}

// Get reads a numeric parameter by name.
func (c *Config) Get(name string) (float64, error) {
	f, err := lookup(name)
	if err != nil {
		return 0, err
	}
	return f.get(c), nil
}

// Parameters lists the names Set and Get accept, sorted.
func Parameters() []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
