package integrators

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/tidalsim/internal/dynamo"
)

// Integrator advances one body given the net force acting on it.
type Integrator interface {
	Step(b *dynamo.Body, force r2.Vec, dt float64)
}

// SemiImplicitEuler updates velocity first, then position from the new
// velocity. When Scaled is false the timestep is treated as 1 and the force
// is applied directly as a per-step velocity kick.
type SemiImplicitEuler struct {
	Scaled bool
}

func NewEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{Scaled: true}
}

func NewDirect() *SemiImplicitEuler {
	return &SemiImplicitEuler{Scaled: false}
}

func (e *SemiImplicitEuler) Step(b *dynamo.Body, force r2.Vec, dt float64) {
	if b.Fixed {
		b.Vel = r2.Vec{}
		return
	}
	h := 1.0
	if e.Scaled {
		h = dt
	}
	b.Vel = r2.Add(b.Vel, r2.Scale(h/b.Mass, force))
	b.Pos = r2.Add(b.Pos, r2.Scale(h, b.Vel))
}

var registry = map[string]func() Integrator{
	"euler":  func() Integrator { return NewEuler() },
	"direct": func() Integrator { return NewDirect() },
}

// New returns the integrator registered under name.
func New(name string) (Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, Names())
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
