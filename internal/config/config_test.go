package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/tidalsim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Name != DefaultPreset {
		t.Errorf("expected preset %s, got %s", DefaultPreset, cfg.Name)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	cfg.Bodies[0].Mass = 1
	if Presets[DefaultPreset].Bodies[0].Mass == 1 {
		t.Error("DefaultConfig shares bodies with the preset")
	}
}

func TestPresetsBuild(t *testing.T) {
	tests := []struct {
		name   string
		bodies int
		points int
	}{
		{"tides", 2, 120},
		{"binary", 2, 0},
		{"trio", 3, 720},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetPreset(tt.name)
			if cfg == nil {
				t.Fatal("expected preset, got nil")
			}
			w, err := cfg.Build()
			if err != nil {
				t.Fatalf("build failed: %v", err)
			}
			if len(w.Bodies) != tt.bodies {
				t.Errorf("expected %d bodies, got %d", tt.bodies, len(w.Bodies))
			}
			points := 0
			for _, o := range w.Oceans {
				points += len(o.Points)
			}
			if points != tt.points {
				t.Errorf("expected %d surface points, got %d", tt.points, points)
			}
		})
	}
}

func TestPresetMomentumBalanced(t *testing.T) {
	for _, name := range []string{"binary", "trio"} {
		w, err := GetPreset(name).Build()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		scale := 0.0
		for _, b := range w.Bodies {
			scale += b.Mass * math.Hypot(b.Vel.X, b.Vel.Y)
		}
		p := w.Momentum()
		if math.Hypot(p.X, p.Y) > 1e-3*scale {
			t.Errorf("%s: expected near-zero momentum, got %v", name, p)
		}
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	want := []string{"binary", "tides", "trio"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %s at %d, got %s", want[i], i, names[i])
		}
	}
}

func TestBuildWorld(t *testing.T) {
	cfg := GetPreset("tides")
	cfg.Tide.EquilibriumHeight = 5
	w, err := cfg.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	earth := w.Bodies[0]
	if earth.Radius != 50 {
		t.Errorf("expected radius 50, got %g", earth.Radius)
	}
	if !earth.Fixed {
		t.Error("expected earth to be fixed")
	}
	if earth.Color.R != 0x80 || earth.Color.G != 0x80 || earth.Color.B != 0x80 || earth.Color.A != 255 {
		t.Errorf("expected gray, got %v", earth.Color)
	}

	p := w.Oceans[0].Points[0].Pos
	if math.Abs(p.X-55) > 1e-9 || math.Abs(p.Y) > 1e-9 {
		t.Errorf("expected first point at (55, 0), got %v", p)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"integrator", func(c *Config) { c.Integrator = "rk4" }, "integrator"},
		{"dt", func(c *Config) { c.Dt = 0 }, "dt"},
		{"tick rate", func(c *Config) { c.TickRate = -1 }, "tick_rate"},
		{"water color", func(c *Config) { c.WaterColor = "blue" }, "water_color"},
		{"no bodies", func(c *Config) { c.Bodies = nil }, "bodies"},
		{"mass", func(c *Config) { c.Bodies[1].Mass = 0 }, "bodies[1].mass"},
		{"diameter", func(c *Config) { c.Bodies[0].Diameter = -1 }, "bodies[0].diameter"},
		{"color", func(c *Config) { c.Bodies[1].Color = "#zz0000" }, "bodies[1].color"},
		{"name", func(c *Config) { c.Bodies[0].Name = "" }, "bodies[0].name"},
		{"water mass", func(c *Config) { c.Tide.WaterMass = 0 }, "tide.water_mass"},
		{"sample step", func(c *Config) { c.Tide.SampleStep = 400 }, "tide.sample_step"},
		{"view", func(c *Config) { c.View.Width = 0 }, "view"},
		{"scale", func(c *Config) { c.View.Scale = 0 }, "view.scale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			var cfgErr *dynamo.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, cfgErr.Field)
			}
			if !errors.Is(err, dynamo.ErrConfiguration) {
				t.Error("expected error to unwrap to ErrConfiguration")
			}
		})
	}
}

func TestBuildRejectsCoincidentBodies(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bodies[1].Pos = cfg.Bodies[0].Pos
	if _, err := cfg.Build(); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trio.yaml")

	cfg := GetPreset("trio")
	cfg.Tide.Bias = Point{1, -2}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Name != "trio" || len(loaded.Bodies) != 3 {
		t.Errorf("expected trio with 3 bodies, got %s with %d", loaded.Name, len(loaded.Bodies))
	}
	if loaded.Tide.Bias != (Point{1, -2}) {
		t.Errorf("expected bias [1 -2], got %v", loaded.Tide.Bias)
	}
	if loaded.Bodies[1].Pos != cfg.Bodies[1].Pos {
		t.Errorf("expected pos %v, got %v", cfg.Bodies[1].Pos, loaded.Bodies[1].Pos)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("dt: 0.5\ntide:\n  height_factor: -100\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Dt != 0.5 {
		t.Errorf("expected dt 0.5, got %g", cfg.Dt)
	}
	if cfg.Tide.HeightFactor != -100 {
		t.Errorf("expected height factor -100, got %g", cfg.Tide.HeightFactor)
	}
	if cfg.Tide.SampleStep != 3 {
		t.Errorf("expected default sample step 3, got %g", cfg.Tide.SampleStep)
	}
	if len(cfg.Bodies) != 2 {
		t.Errorf("expected default bodies, got %d", len(cfg.Bodies))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestNewLoop(t *testing.T) {
	loop, err := GetPreset("tides").NewLoop()
	if err != nil {
		t.Fatalf("NewLoop failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := loop.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if loop.Steps() != 10 {
		t.Errorf("expected 10 steps, got %d", loop.Steps())
	}
}

func TestPresetOceansStayNearSurface(t *testing.T) {
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		loop, err := cfg.NewLoop()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if err := loop.Step(); err != nil {
			t.Fatalf("%s: step: %v", name, err)
		}

		w := loop.World()
		for _, o := range w.Oceans {
			primary := w.Bodies[o.Primary]
			base := primary.Radius + cfg.Tide.EquilibriumHeight
			for i, p := range o.Points {
				r := r2.Norm(r2.Sub(p.Pos, primary.Pos))
				if r < base/1.5 || r > base*1.5 {
					t.Errorf("%s: point %d at radius %g, base %g", name, i, r, base)
					break
				}
			}
		}
	}
}

func TestFrameWeightShiftsRingUniformly(t *testing.T) {
	weighted := GetPreset("trio")
	if weighted.Tide.FrameWeight == 0 {
		t.Fatal("expected trio to carry a frame weight")
	}
	plain := GetPreset("trio")
	plain.Tide.FrameWeight = 0

	a, err := weighted.NewLoop()
	if err != nil {
		t.Fatal(err)
	}
	b, err := plain.NewLoop()
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Step(); err != nil {
		t.Fatal(err)
	}
	if err := b.Step(); err != nil {
		t.Fatal(err)
	}

	frame := a.World().Oceans[0].Frame
	want := r2.Scale(weighted.Tide.HeightFactor*weighted.Tide.FrameWeight, frame)
	pa, pb := a.World().Oceans[0].Points, b.World().Oceans[0].Points
	for _, i := range []int{0, 180, 360, 540} {
		got := r2.Sub(pa[i].Pos, pb[i].Pos)
		if !scalar.EqualWithinAbsOrRel(got.X, want.X, 1e-6, 1e-6) || !scalar.EqualWithinAbsOrRel(got.Y, want.Y, 1e-6, 1e-6) {
			t.Errorf("point %d: expected shift %v, got %v", i, want, got)
		}
	}
}
