package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/tidalsim/internal/dynamo"
	"github.com/san-kum/tidalsim/internal/physics"
)

// MomentumDrift tracks the largest deviation of total momentum from its
// first observed value, relative to Σ m·|v| at that time.
type MomentumDrift struct {
	name     string
	initial  r2.Vec
	scale    float64
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(w *dynamo.World, t float64) {
	p := w.Momentum()
	if m.samples == 0 {
		m.initial = p
		for i := range w.Bodies {
			m.scale += w.Bodies[i].Mass * r2.Norm(w.Bodies[i].Vel)
		}
	}
	m.samples++

	drift := r2.Norm(r2.Sub(p, m.initial))
	if m.scale > 0 {
		drift /= m.scale
	}
	m.maxDrift = math.Max(m.maxDrift, drift)
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = r2.Vec{}
	m.scale = 0
	m.maxDrift = 0
	m.samples = 0
}

// EnergyDrift tracks the largest relative change of kinetic plus
// gravitational potential energy. Fixed bodies make the system open, so
// the value is only meaningful when every body is free.
type EnergyDrift struct {
	name          string
	gravity       physics.Gravity
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(g physics.Gravity) *EnergyDrift {
	return &EnergyDrift{
		name:    "energy_drift",
		gravity: g,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(w *dynamo.World, t float64) {
	pe, err := e.gravity.PotentialEnergy(w.Bodies)
	if err != nil {
		return
	}
	energy := w.KineticEnergy() + pe

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
