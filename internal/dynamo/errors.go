package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrConfiguration indicates a missing or non-physical parameter.
	ErrConfiguration = errors.New("dynamo: invalid configuration")

	// ErrNumericDivergence indicates the state became non-finite or left the
	// region where the model is defined.
	ErrNumericDivergence = errors.New("dynamo: numeric divergence")

	// ErrStepBudget indicates the run hit its maximum step count before the end time.
	ErrStepBudget = errors.New("dynamo: step budget exhausted")

	// ErrWallBudget indicates the run exceeded its wall-clock budget.
	ErrWallBudget = errors.New("dynamo: wall-clock budget exhausted")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrDimensionMismatch indicates mismatched state dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// ConfigError names the parameter that failed validation.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

// NewConfigError is a shorthand used by validators.
func NewConfigError(field string, value any, reason string) error {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
