package metrics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/clothsim/internal/dynamo"
	"github.com/san-kum/clothsim/internal/physics"
	"github.com/san-kum/clothsim/internal/sim"
)

type probeFunc struct {
	name string
	fn   func(*physics.Simulation) float64
}

func (p probeFunc) Name() string                         { return p.name }
func (p probeFunc) Sample(w *physics.Simulation) float64 { return p.fn(w) }

var probes = map[string]func(*physics.Simulation) float64{
	"mean_height":    (*physics.Simulation).MeanHeight,
	"mean_x":         func(w *physics.Simulation) float64 { return float64(w.MeanPosition()[0]) },
	"kinetic_energy": (*physics.Simulation).KineticEnergy,
	"spring_energy":  (*physics.Simulation).SpringEnergy,
	"energy":         (*physics.Simulation).Energy,
	"max_speed":      (*physics.Simulation).MaxSpeed,
	"strain":         Strain,
}

// Probe returns a named probe. Besides the fixed names it accepts
// "x:<i>", "y:<i>" and "z:<i>" for one particle coordinate.
func Probe(name string) (sim.Probe[*physics.Simulation], error) {
	if fn, ok := probes[name]; ok {
		return probeFunc{name: name, fn: fn}, nil
	}
	axis, idx, ok := strings.Cut(name, ":")
	if ok && len(axis) == 1 && strings.Contains("xyz", axis) {
		if i, err := strconv.Atoi(idx); err == nil && i >= 0 {
			return Coordinate(i, int(axis[0]-'x')), nil
		}
	}
	return nil, fmt.Errorf("%w: unknown probe %q", dynamo.ErrInvalidConfiguration, name)
}

// Coordinate samples one coordinate of particle i, or NaN when the world
// has fewer particles.
func Coordinate(i, axis int) sim.Probe[*physics.Simulation] {
	return probeFunc{
		name: fmt.Sprintf("%c:%d", 'x'+axis, i),
		fn: func(w *physics.Simulation) float64 {
			if i >= w.Particles.Len() {
				return math.NaN()
			}
			return float64(w.Particles.Position[i][axis])
		},
	}
}

// ProbeNames lists the fixed probe names in sorted order.
func ProbeNames() []string {
	names := make([]string, 0, len(probes))
	for name := range probes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultProbes are recorded by the CLI when none are requested.
func DefaultProbes() []sim.Probe[*physics.Simulation] {
	out := make([]sim.Probe[*physics.Simulation], 0, 4)
	for _, name := range []string{"mean_height", "kinetic_energy", "energy", "max_speed"} {
		out = append(out, probeFunc{name: name, fn: probes[name]})
	}
	return out
}

// DefaultMetrics returns fresh instances of the standard metrics.
func DefaultMetrics() []sim.Metric[*physics.Simulation] {
	return []sim.Metric[*physics.Simulation]{
		NewEnergy(),
		NewEnergyDrift(),
		NewStability(50),
		NewContainment(),
		NewMaxStrain(),
	}
}
