package config

import (
	"sort"

	"github.com/san-kum/tidalsim/internal/physics"
)

// Presets are complete, runnable configurations. The masses and tide
// constants are tuned for what ends up on screen, not for realism.
var Presets = map[string]*Config{
	// A fixed planet with a water ring sampled every 3 degrees and a moon on
	// a circular orbit. The integrator applies forces as direct velocity
	// kicks and the window runs at 1000 ticks per second.
	"tides": {
		Name: "tides", Integrator: "direct", Dt: 1, TickRate: 1000,
		G: physics.G, PointRadius: 1, WaterColor: DefaultWaterColor,
		Bodies: []BodyConfig{
			{Name: "earth", Mass: 1.5e13, Diameter: 100, Color: "#808080", Fixed: true, Ocean: true},
			{Name: "moon", Mass: 1.85e11, Diameter: 10, Pos: Point{250, 0}, Vel: Point{0, 2}, Color: "#00ff00"},
		},
		Tide: TideConfig{
			WaterMass: physics.DefaultWaterMass, HeightFactor: -6, SampleStep: 3,
		},
		View: ViewConfig{Width: DefaultWidth, Height: DefaultHeight, Scale: 1.5},
	},
	// Two free planets orbiting their common centre of mass with zero total
	// momentum, one minute per step.
	"binary": {
		Name: "binary", Integrator: "euler", Dt: 60, TickRate: DefaultTickRate,
		G: physics.G, PointRadius: DefaultPointRadius, WaterColor: DefaultWaterColor,
		Bodies: []BodyConfig{
			{Name: "earth", Mass: 1e10, Diameter: 10, Pos: Point{-28.75, 0}, Vel: Point{0, -0.0043802}, Color: "#0000ff"},
			{Name: "mars", Mass: 1e9, Diameter: 10, Pos: Point{287.5, 0}, Vel: Point{0, 0.043802}, Color: "#ff0000"},
		},
		Tide: TideConfig{WaterMass: physics.DefaultWaterMass, SampleStep: DefaultSampleStep},
		View: ViewConfig{Width: DefaultWidth, Height: DefaultHeight, Scale: 1},
	},
	// An Earth-sized mass with an exaggerated radius, an ocean sampled every
	// half degree and two moons, one day per step in SI units. A small frame
	// weight drags the ring against the net pull of both moons.
	"trio": {
		Name: "trio", Integrator: "euler", Dt: 24 * 3600, TickRate: 30,
		G: physics.G, PointRadius: 2.5e6, WaterColor: DefaultWaterColor,
		Bodies: []BodyConfig{
			{Name: "planet", Mass: 5.97e24, Diameter: 6e7, Vel: Point{0, -8.49}, Color: "#3366cc", Ocean: true},
			{Name: "luna", Mass: 7.35e22, Diameter: 1.2e7, Pos: Point{3.84e8, 0}, Vel: Point{0, 1022}, Color: "#c0c0c0"},
			{Name: "selene", Mass: 3e22, Diameter: 9e6, Pos: Point{-6e8, 0}, Vel: Point{0, -815}, Color: "#ffff00"},
		},
		Tide: TideConfig{
			WaterMass: 100000, HeightFactor: -1.6e7, FrameWeight: 0.02,
			SampleStep: 0.5, EquilibriumHeight: 2e6,
		},
		View: ViewConfig{Width: DefaultWidth, Height: DefaultHeight, Scale: 4e-7},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
