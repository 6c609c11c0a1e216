package physics

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/tidalsim/internal/dynamo"
)

// G is the universal gravitational constant used by the default models.
const G = 6.67428e-11

// Gravity computes pairwise Newtonian attraction between point masses.
type Gravity struct {
	G float64
}

func NewGravity(g float64) Gravity {
	if g == 0 {
		g = G
	}
	return Gravity{G: g}
}

// Attraction returns the force on a exerted by b: magnitude G·mA·mB/d²,
// pointing from a toward b.
func (g Gravity) Attraction(a, b *dynamo.Body) (r2.Vec, error) {
	d, err := dynamo.Distance(a.Pos, b.Pos)
	if err != nil {
		return r2.Vec{}, &dynamo.CollisionError{A: a.Name, B: b.Name}
	}

	f := g.G * a.Mass * b.Mass / (d * d)
	theta := dynamo.DirectionAngle(b.Pos.X-a.Pos.X, b.Pos.Y-a.Pos.Y)
	return dynamo.Decompose(f, theta), nil
}

// NetForces sums the attraction of every other body into forces, which is
// indexed like bodies. The slice is overwritten, not accumulated into.
func (g Gravity) NetForces(bodies []dynamo.Body, forces []r2.Vec) error {
	for i := range bodies {
		var total r2.Vec
		for j := range bodies {
			if i == j {
				continue
			}
			f, err := g.Attraction(&bodies[i], &bodies[j])
			if err != nil {
				return err
			}
			total = r2.Add(total, f)
		}
		forces[i] = total
	}
	return nil
}

// PotentialEnergy returns -Σ G·mi·mj/dij over unordered pairs.
func (g Gravity) PotentialEnergy(bodies []dynamo.Body) (float64, error) {
	pe := 0.0
	for i := range bodies {
		for j := i + 1; j < len(bodies); j++ {
			d, err := dynamo.Distance(bodies[i].Pos, bodies[j].Pos)
			if err != nil {
				return 0, &dynamo.CollisionError{A: bodies[i].Name, B: bodies[j].Name}
			}
			pe -= g.G * bodies[i].Mass * bodies[j].Mass / d
		}
	}
	return pe, nil
}
