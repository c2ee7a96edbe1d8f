package dynamo

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 is the vector type used for positions, velocities and forces.
type Vec3 = mgl32.Vec3

// Integrator selects the integration scheme used by a world's Step.
type Integrator uint8

const (
	Leapfrog Integrator = iota
	ExplicitEuler
	ImplicitEuler
)

var integratorNames = map[Integrator]string{
	Leapfrog:      "leapfrog",
	ExplicitEuler: "explicit_euler",
	ImplicitEuler: "implicit_euler",
}

func (i Integrator) String() string {
	if name, ok := integratorNames[i]; ok {
		return name
	}
	return fmt.Sprintf("integrator(%d)", uint8(i))
}

// ParseIntegrator maps a name (case-insensitive, "-" or "_" separated) to
// its Integrator. The empty string selects Leapfrog.
func ParseIntegrator(name string) (Integrator, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	switch key {
	case "", "leapfrog", "semi_implicit":
		return Leapfrog, nil
	case "euler", "explicit_euler":
		return ExplicitEuler, nil
	case "implicit_euler", "backward_euler":
		return ImplicitEuler, nil
	}
	return Leapfrog, fmt.Errorf("%w: %q", ErrUnknownIntegrator, name)
}

// Integrators lists the registered integrator names.
func Integrators() []string {
	return []string{Leapfrog.String(), ExplicitEuler.String(), ImplicitEuler.String()}
}

func (i Integrator) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Integrator) UnmarshalText(b []byte) error {
	v, err := ParseIntegrator(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// FrictionMode selects which velocity components a boundary hit damps.
type FrictionMode uint8

const (
	// FrictionLegacy damps velocity.x on every hit, whichever face was hit.
	FrictionLegacy FrictionMode = iota
	// FrictionTangential damps the components tangential to the face hit.
	FrictionTangential
)

func (m FrictionMode) String() string {
	if m == FrictionTangential {
		return "tangential"
	}
	return "legacy"
}

func (m FrictionMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *FrictionMode) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "legacy":
		*m = FrictionLegacy
	case "tangential":
		*m = FrictionTangential
	default:
		return fmt.Errorf("dynamo: unknown friction mode %q", string(b))
	}
	return nil
}

// Lerp interpolates between a and b. The endpoints are returned exactly for
// alpha 0 and 1, and results for alpha in (0,1) never leave [a, b].
func Lerp(a, b, alpha float32) float32 {
	if a == b || alpha == 0 {
		return a
	}
	if alpha == 1 {
		return b
	}
	v := a + (b-a)*alpha
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if alpha > 0 && alpha < 1 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
	}
	return v
}

// LerpVec3 applies Lerp component-wise.
func LerpVec3(a, b Vec3, alpha float32) Vec3 {
	return Vec3{
		Lerp(a[0], b[0], alpha),
		Lerp(a[1], b[1], alpha),
		Lerp(a[2], b[2], alpha),
	}
}

// LerpIndex interpolates integer handles and rounds to the nearest one.
func LerpIndex(a, b int, alpha float32) int {
	if a == b {
		return a
	}
	return int(math.Round(float64(a) + float64(b-a)*float64(alpha)))
}

// IsFinite reports whether every component of v is neither NaN nor Inf.
func IsFinite(v Vec3) bool {
	for _, c := range v {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
