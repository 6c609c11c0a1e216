package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrCollision indicates two points reached exactly zero separation.
	ErrCollision = errors.New("dynamo: collision (zero separation)")

	// ErrConfiguration indicates initial conditions that cannot be simulated.
	ErrConfiguration = errors.New("dynamo: invalid configuration")
)

// CollisionError names the two objects that collided. It is always fatal
// to the current run.
type CollisionError struct {
	A, B string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("collision between objects %q and %q", e.A, e.B)
}

func (e *CollisionError) Unwrap() error {
	return ErrCollision
}

// ConfigurationError is raised before a loop starts.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
