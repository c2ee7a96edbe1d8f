package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfiguration indicates a particle/spring setup that breaks
	// the store invariants (mismatched lengths, bad indices, bad masses).
	ErrInvalidConfiguration = errors.New("dynamo: invalid configuration")

	// ErrInvalidState indicates a state vector with NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the simulation became numerically unstable.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrUnknownIntegrator indicates an integrator name that is not registered.
	ErrUnknownIntegrator = errors.New("dynamo: unknown integrator")
)

// ConfigError pinpoints the field and element that violated an invariant.
// Index is -1 when the violation is not tied to one element.
type ConfigError struct {
	Field  string
	Index  int
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("dynamo: invalid configuration: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("dynamo: invalid configuration: %s[%d]: %s", e.Field, e.Index, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// Invalid builds a ConfigError. Reason is formatted with args.
func Invalid(field string, index int, reason string, args ...any) error {
	return &ConfigError{Field: field, Index: index, Reason: fmt.Sprintf(reason, args...)}
}

// SimError wraps an error with the tick and time it happened at.
type SimError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e SimError) Unwrap() error {
	return e.Wrapped
}
