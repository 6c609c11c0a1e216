package physics

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/tidalsim/internal/dynamo"
)

// DefaultWaterMass is the mass assigned to each water tracer (kg).
const DefaultWaterMass = 10000

// TidalModel computes the differential pull a secondary body exerts on the
// water points of a primary. Only the difference from the pull at the
// primary's centre deforms the ocean.
type TidalModel struct {
	G         float64
	WaterMass float64
}

func NewTidalModel(g, waterMass float64) TidalModel {
	if g == 0 {
		g = G
	}
	if waterMass == 0 {
		waterMass = DefaultWaterMass
	}
	return TidalModel{G: g, WaterMass: waterMass}
}

// pull is the attraction toward s felt by a water mass sitting at p.
func (m TidalModel) pull(p r2.Vec, s *dynamo.Body) (r2.Vec, error) {
	d, err := dynamo.Distance(s.Pos, p)
	if err != nil {
		return r2.Vec{}, err
	}
	f := m.G * s.Mass * m.WaterMass / (d * d)
	return dynamo.Decompose(f, dynamo.DirectionAngle(s.Pos.X-p.X, s.Pos.Y-p.Y)), nil
}

// Force returns the tidal force on a water point: its pull toward the
// secondary minus the pull that would act at the primary's centre.
func (m TidalModel) Force(point, center r2.Vec, secondary *dynamo.Body) (r2.Vec, error) {
	tidal, err := m.pull(point, secondary)
	if err != nil {
		return r2.Vec{}, &dynamo.CollisionError{A: "water", B: secondary.Name}
	}
	ref, err := m.pull(center, secondary)
	if err != nil {
		return r2.Vec{}, &dynamo.CollisionError{A: "center", B: secondary.Name}
	}
	return r2.Sub(tidal, ref), nil
}

// FrameForce is the uniform pull of the secondary on the primary's centre.
// It stands in for the acceleration of the primary's non-inertial frame.
func (m TidalModel) FrameForce(primary, secondary *dynamo.Body) (r2.Vec, error) {
	f, err := m.pull(primary.Pos, secondary)
	if err != nil {
		return r2.Vec{}, &dynamo.CollisionError{A: primary.Name, B: secondary.Name}
	}
	return f, nil
}

// Accumulate adds the secondary's tidal contribution to every point of the
// ocean and its frame term to the ocean's correction. It never resets.
func (m TidalModel) Accumulate(o *dynamo.Ocean, primary, secondary *dynamo.Body) error {
	frame, err := m.FrameForce(primary, secondary)
	if err != nil {
		return err
	}
	for i := range o.Points {
		f, err := m.Force(o.Anchor(primary.Pos, i), primary.Pos, secondary)
		if err != nil {
			return &dynamo.CollisionError{
				A: fmt.Sprintf("%s/water[%d]", primary.Name, i),
				B: secondary.Name,
			}
		}
		o.Points[i].Force = r2.Add(o.Points[i].Force, f)
	}
	o.Frame = r2.Add(o.Frame, frame)
	return nil
}

// Reset zeroes the accumulated forces of an ocean.
func Reset(o *dynamo.Ocean) {
	for i := range o.Points {
		o.Points[i].Force = r2.Vec{}
	}
	o.Frame = r2.Vec{}
}

// Deformation turns accumulated tidal force into a displayed offset. The
// constants are tuned for visibility at display scale, not derived.
type Deformation struct {
	// HeightFactor converts force into display units. Negative values
	// raise the water toward the pulling body.
	HeightFactor float64
	// FrameWeight scales the uniform frame correction subtracted from
	// every point.
	FrameWeight float64
	// Bias is a constant force offset added before scaling.
	Bias r2.Vec
}

// Apply sets every point's displayed position to
// center + base - (force - FrameWeight·frame + bias)·HeightFactor.
func (d Deformation) Apply(o *dynamo.Ocean, center r2.Vec) {
	uniform := r2.Sub(d.Bias, r2.Scale(d.FrameWeight, o.Frame))
	for i := range o.Points {
		p := &o.Points[i]
		net := r2.Add(p.Force, uniform)
		p.Pos = r2.Sub(o.Anchor(center, i), r2.Scale(d.HeightFactor, net))
	}
}
