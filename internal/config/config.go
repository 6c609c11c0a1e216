package config

import (
	"fmt"
	"image/color"
	"math"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/tidalsim/internal/dynamo"
	"github.com/san-kum/tidalsim/internal/integrators"
	"github.com/san-kum/tidalsim/internal/physics"
	"github.com/san-kum/tidalsim/internal/render"
	"github.com/san-kum/tidalsim/internal/sim"
)

const (
	DefaultPreset      = "tides"
	DefaultTickRate    = 60
	DefaultPointRadius = 1.0
	DefaultWaterColor  = "#0000ff"
	DefaultSampleStep  = 3.0
	DefaultWidth       = 1000
	DefaultHeight      = 800
)

// Point is an (x, y) pair written as a two-element YAML sequence.
type Point [2]float64

func (p Point) Vec() r2.Vec { return r2.Vec{X: p[0], Y: p[1]} }

type Config struct {
	Name        string       `yaml:"name"`
	Integrator  string       `yaml:"integrator"`
	Dt          float64      `yaml:"dt"`
	TickRate    int          `yaml:"tick_rate"`
	G           float64      `yaml:"g"`
	PointRadius float64      `yaml:"point_radius"`
	WaterColor  string       `yaml:"water_color"`
	LogEvery    int          `yaml:"log_every,omitempty"`
	Bodies      []BodyConfig `yaml:"bodies"`
	Tide        TideConfig   `yaml:"tide"`
	View        ViewConfig   `yaml:"view"`
}

type BodyConfig struct {
	Name     string  `yaml:"name"`
	Mass     float64 `yaml:"mass"`
	Diameter float64 `yaml:"diameter"`
	Pos      Point   `yaml:"pos,flow"`
	Vel      Point   `yaml:"vel,flow"`
	Color    string  `yaml:"color"`
	Fixed    bool    `yaml:"fixed,omitempty"`
	Ocean    bool    `yaml:"ocean,omitempty"`
}

// TideConfig holds the display tuning of the ocean deformation. The
// height factor and bias are visual constants, not derived physics.
type TideConfig struct {
	WaterMass         float64 `yaml:"water_mass"`
	HeightFactor      float64 `yaml:"height_factor"`
	FrameWeight       float64 `yaml:"frame_weight"`
	Bias              Point   `yaml:"bias,flow"`
	SampleStep        float64 `yaml:"sample_step"`
	EquilibriumHeight float64 `yaml:"equilibrium_height"`
}

type ViewConfig struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Scale  float64 `yaml:"scale"`
	Center Point   `yaml:"center,flow"`
}

// DefaultConfig returns a copy of the default preset.
func DefaultConfig() *Config {
	return Presets[DefaultPreset].Clone()
}

// Load reads a YAML file over the defaults. Lists in the file replace the
// default lists entirely.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	out := *c
	out.Bodies = make([]BodyConfig, len(c.Bodies))
	copy(out.Bodies, c.Bodies)
	return &out
}

func invalid(field, format string, args ...any) error {
	return &dynamo.ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 1) }

// Validate checks every value the loop depends on before anything runs.
func (c *Config) Validate() error {
	if _, err := integrators.New(c.Integrator); err != nil {
		return invalid("integrator", "%v", err)
	}
	if !positive(c.Dt) {
		return invalid("dt", "must be positive, got %g", c.Dt)
	}
	if c.TickRate < 0 {
		return invalid("tick_rate", "must not be negative, got %d", c.TickRate)
	}
	if c.G < 0 {
		return invalid("g", "must not be negative, got %g", c.G)
	}
	if c.LogEvery < 0 {
		return invalid("log_every", "must not be negative, got %d", c.LogEvery)
	}
	if c.PointRadius < 0 {
		return invalid("point_radius", "must not be negative, got %g", c.PointRadius)
	}
	if _, err := parseColor(c.WaterColor); err != nil {
		return invalid("water_color", "%v", err)
	}
	if len(c.Bodies) == 0 {
		return invalid("bodies", "at least one body is required")
	}

	for i, b := range c.Bodies {
		field := fmt.Sprintf("bodies[%d]", i)
		if b.Name == "" {
			return invalid(field+".name", "must not be empty")
		}
		if !positive(b.Mass) {
			return invalid(field+".mass", "must be positive, got %g", b.Mass)
		}
		if !positive(b.Diameter) {
			return invalid(field+".diameter", "must be positive, got %g", b.Diameter)
		}
		if _, err := parseColor(b.Color); err != nil {
			return invalid(field+".color", "%v", err)
		}
	}

	if !positive(c.Tide.WaterMass) {
		return invalid("tide.water_mass", "must be positive, got %g", c.Tide.WaterMass)
	}
	if !(c.Tide.SampleStep > 0 && c.Tide.SampleStep <= 360) {
		return invalid("tide.sample_step", "must be in (0, 360], got %g", c.Tide.SampleStep)
	}
	if c.View.Width <= 0 || c.View.Height <= 0 {
		return invalid("view", "width and height must be positive, got %dx%d", c.View.Width, c.View.Height)
	}
	if !positive(c.View.Scale) {
		return invalid("view.scale", "must be positive, got %g", c.View.Scale)
	}
	return nil
}

// Build validates the configuration and creates the world it describes.
// Every body marked ocean gets a ring at diameter/2 + equilibrium_height.
func (c *Config) Build() (*dynamo.World, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	w := &dynamo.World{Bodies: make([]dynamo.Body, len(c.Bodies))}
	for i, b := range c.Bodies {
		col, _ := parseColor(b.Color)
		w.Bodies[i] = dynamo.Body{
			Name:   b.Name,
			Mass:   b.Mass,
			Radius: b.Diameter / 2,
			Pos:    b.Pos.Vec(),
			Vel:    b.Vel.Vec(),
			Color:  col,
			Fixed:  b.Fixed,
		}
		if b.Ocean {
			radius := b.Diameter/2 + c.Tide.EquilibriumHeight
			w.Oceans = append(w.Oceans, dynamo.NewOcean(i, radius, c.Tide.SampleStep))
		}
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}
	w.ResetDisplay()
	return w, nil
}

func (c *Config) Gravity() physics.Gravity { return physics.NewGravity(c.G) }

func (c *Config) TidalModel() physics.TidalModel {
	return physics.NewTidalModel(c.G, c.Tide.WaterMass)
}

func (c *Config) Deformation() physics.Deformation {
	return physics.Deformation{
		HeightFactor: c.Tide.HeightFactor,
		FrameWeight:  c.Tide.FrameWeight,
		Bias:         c.Tide.Bias.Vec(),
	}
}

func (c *Config) SimConfig() sim.Config {
	water, err := parseColor(c.WaterColor)
	if err != nil {
		water = sim.DefaultConfig().WaterColor
	}
	return sim.Config{
		Dt:          c.Dt,
		PointRadius: c.PointRadius,
		WaterColor:  water,
		LogEvery:    c.LogEvery,
	}
}

func (c *Config) Viewport() render.Viewport {
	return render.Viewport{
		Width:  c.View.Width,
		Height: c.View.Height,
		Scale:  c.View.Scale,
		Center: c.View.Center.Vec(),
	}
}

// NewLoop builds the world and a loop wired with this configuration's
// gravity, tide model and integrator.
func (c *Config) NewLoop(opts ...sim.Option) (*sim.Loop, error) {
	w, err := c.Build()
	if err != nil {
		return nil, err
	}
	integ, err := integrators.New(c.Integrator)
	if err != nil {
		return nil, err
	}
	opts = append([]sim.Option{
		sim.WithGravity(c.Gravity()),
		sim.WithTides(c.TidalModel(), c.Deformation()),
	}, opts...)
	return sim.New(w, integ, c.SimConfig(), opts...)
}

func parseColor(s string) (color.RGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
