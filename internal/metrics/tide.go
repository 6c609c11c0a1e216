package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/tidalsim/internal/dynamo"
)

// TidalRange reports the difference between the highest and lowest water
// on one ocean, measured as distance from the primary's centre. Value is
// the largest range seen; Current is the range at the last observation.
type TidalRange struct {
	name    string
	ocean   int
	radii   []float64
	current float64
	max     float64
}

func NewTidalRange(ocean int) *TidalRange {
	return &TidalRange{name: "tidal_range", ocean: ocean}
}

func (r *TidalRange) Name() string { return r.name }

func (r *TidalRange) Observe(w *dynamo.World, t float64) {
	if r.ocean < 0 || r.ocean >= len(w.Oceans) {
		return
	}
	o := &w.Oceans[r.ocean]
	if len(o.Points) == 0 {
		return
	}
	center := w.Bodies[o.Primary].Pos

	r.radii = r.radii[:0]
	for _, p := range o.Points {
		r.radii = append(r.radii, r2.Norm(r2.Sub(p.Pos, center)))
	}
	r.current = floats.Max(r.radii) - floats.Min(r.radii)
	r.max = math.Max(r.max, r.current)
}

func (r *TidalRange) Value() float64   { return r.max }
func (r *TidalRange) Current() float64 { return r.current }

func (r *TidalRange) Reset() {
	r.radii = r.radii[:0]
	r.current = 0
	r.max = 0
}
