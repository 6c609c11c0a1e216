package sim_test

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/tidalsim/internal/dynamo"
	"github.com/san-kum/tidalsim/internal/integrators"
	"github.com/san-kum/tidalsim/internal/physics"
	"github.com/san-kum/tidalsim/internal/sim"
)

type circle struct {
	center r2.Vec
	radius float64
	color  color.RGBA
}

type fakeRenderer struct {
	circles   []circle
	presents  int
	waits     []int
	quitAfter int
	polls     int
}

func (f *fakeRenderer) DrawCircle(c r2.Vec, radius float64, col color.RGBA) {
	f.circles = append(f.circles, circle{c, radius, col})
}

func (f *fakeRenderer) PollQuit() bool {
	f.polls++
	return f.quitAfter > 0 && f.polls >= f.quitAfter
}

func (f *fakeRenderer) Present()                 { f.presents++ }
func (f *fakeRenderer) WaitForNextTick(rate int) { f.waits = append(f.waits, rate) }

type countingMetric struct{ n int }

func (m *countingMetric) Name() string                   { return "count" }
func (m *countingMetric) Observe(*dynamo.World, float64) { m.n++ }
func (m *countingMetric) Value() float64                 { return float64(m.n) }
func (m *countingMetric) Reset()                         { m.n = 0 }

type stepRecorder struct {
	steps []int
	times []float64
}

func (r *stepRecorder) OnStep(_ *dynamo.World, step int, t float64) {
	r.steps = append(r.steps, step)
	r.times = append(r.times, t)
}

func earthMoon() *dynamo.World {
	return &dynamo.World{
		Bodies: []dynamo.Body{
			{Name: "earth", Mass: 1.5e13, Radius: 50, Fixed: true, Color: color.RGBA{G: 200, A: 255}},
			{Name: "moon", Mass: 1.85e11, Radius: 10, Pos: r2.Vec{X: 250}, Vel: r2.Vec{Y: 2}, Color: color.RGBA{R: 200, G: 200, B: 200, A: 255}},
		},
		Oceans: []dynamo.Ocean{dynamo.NewOcean(0, 50, 3)},
	}
}

var _ = Describe("Loop", func() {
	var (
		world *dynamo.World
		cfg   sim.Config
		loop  *sim.Loop
	)

	BeforeEach(func() {
		world = earthMoon()
		cfg = sim.DefaultConfig()
		cfg.PointRadius = 2

		var err error
		loop, err = sim.New(world, integrators.NewDirect(), cfg,
			sim.WithTides(
				physics.NewTidalModel(physics.G, physics.DefaultWaterMass),
				physics.Deformation{HeightFactor: -10},
			),
		)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("New", func() {
		It("starts running at step zero", func() {
			Expect(loop.State()).To(Equal(sim.Running))
			Expect(loop.Steps()).To(BeZero())
			Expect(loop.Time()).To(BeZero())
			Expect(loop.Reason()).To(BeEmpty())
		})

		It("places surface points on their anchors", func() {
			o := &world.Oceans[0]
			Expect(o.Points[0].Pos).To(Equal(r2.Vec{X: 50}))
		})

		It("rejects a non-positive timestep", func() {
			_, err := sim.New(earthMoon(), integrators.NewEuler(), sim.Config{Dt: 0})
			var cfgErr *dynamo.ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Field).To(Equal("dt"))
		})

		It("rejects an invalid world", func() {
			w := earthMoon()
			w.Bodies[1].Mass = -1
			_, err := sim.New(w, integrators.NewEuler(), sim.DefaultConfig())
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
		})
	})

	Describe("Step", func() {
		It("advances the counter and the clock", func() {
			Expect(loop.Step()).To(Succeed())
			Expect(loop.Step()).To(Succeed())
			Expect(loop.Steps()).To(Equal(2))
			Expect(loop.Time()).To(BeNumerically("~", 2*cfg.Dt, 1e-12))
		})

		It("keeps the fixed primary in place and moves the moon", func() {
			Expect(loop.Step()).To(Succeed())
			Expect(world.Bodies[0].Pos).To(Equal(r2.Vec{}))
			Expect(world.Bodies[0].Vel).To(Equal(r2.Vec{}))
			Expect(world.Bodies[1].Pos.Y).To(BeNumerically(">", 1.9))
		})

		It("raises water on the near and far sides and lowers it in between", func() {
			Expect(loop.Step()).To(Succeed())

			radius := func(i int) float64 { return r2.Norm(world.Oceans[0].Points[i].Pos) }
			Expect(radius(0)).To(BeNumerically(">", 50))
			Expect(radius(60)).To(BeNumerically(">", 50))
			Expect(radius(30)).To(BeNumerically("<", 50))
			Expect(radius(90)).To(BeNumerically("<", 50))
		})

		It("recomputes tidal forces from scratch every step", func() {
			Expect(loop.Step()).To(Succeed())
			first := world.Oceans[0].Points[0].Force
			Expect(loop.Step()).To(Succeed())
			second := world.Oceans[0].Points[0].Force
			Expect(second.X).To(BeNumerically("~", first.X, 0.05*first.X))
		})

		It("notifies observers with the completed step", func() {
			rec := &stepRecorder{}
			loop.AddObserver(rec)
			for i := 0; i < 3; i++ {
				Expect(loop.Step()).To(Succeed())
			}
			Expect(rec.steps).To(Equal([]int{1, 2, 3}))
			Expect(rec.times).To(HaveLen(3))
		})

		It("observes metrics on the initial state and after every step", func() {
			m := &countingMetric{n: 7}
			loop.AddMetric(m)
			for i := 0; i < 3; i++ {
				Expect(loop.Step()).To(Succeed())
			}
			Expect(loop.Results()).To(HaveKeyWithValue("count", 4.0))
		})

		It("logs body status at the configured interval", func() {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			c := cfg
			c.LogEvery = 2
			l, err := sim.New(earthMoon(), integrators.NewDirect(), c, sim.WithLogger(logger))
			Expect(err).NotTo(HaveOccurred())

			Expect(l.Step()).To(Succeed())
			Expect(buf.String()).NotTo(ContainSubstring("body status"))
			Expect(l.Step()).To(Succeed())
			Expect(buf.String()).To(ContainSubstring("body status"))
			Expect(buf.String()).To(ContainSubstring("name=moon"))
		})
	})

	Describe("collisions", func() {
		var crash *sim.Loop

		BeforeEach(func() {
			// b moves along +x onto a in exactly one step.
			w := &dynamo.World{Bodies: []dynamo.Body{
				{Name: "a", Mass: 1, Radius: 1, Fixed: true},
				{Name: "b", Mass: 1, Radius: 1, Pos: r2.Vec{X: -10}, Vel: r2.Vec{X: 10}},
			}}
			var err error
			crash, err = sim.New(w, integrators.NewEuler(), sim.DefaultConfig(),
				sim.WithGravity(physics.NewGravity(1e-30)),
				sim.WithLogger(slog.New(slog.NewTextHandler(GinkgoWriter, nil))),
			)
			Expect(err).NotTo(HaveOccurred())
		})

		It("stops the loop in the step that brings two bodies together", func() {
			err := crash.Step()
			Expect(err).To(MatchError(dynamo.ErrCollision))
			Expect(crash.World().Bodies[1].Pos).To(Equal(r2.Vec{}))

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(0))

			var col *dynamo.CollisionError
			Expect(errors.As(err, &col)).To(BeTrue())
			Expect([]string{col.A, col.B}).To(ConsistOf("a", "b"))

			Expect(crash.State()).To(Equal(sim.Stopped))
			Expect(crash.Reason()).To(Equal(sim.ReasonCollision))
			Expect(crash.Err()).To(Equal(err))
		})

		It("refuses to step once stopped", func() {
			Expect(crash.Step()).To(HaveOccurred())
			Expect(crash.Step()).To(MatchError(sim.ErrStopped))
			Expect(crash.Steps()).To(BeZero())
		})

		It("ends Run with the collision and draws no frame", func() {
			r := &fakeRenderer{}
			err := crash.Run(context.Background(), &sim.Session{Renderer: r})
			Expect(err).To(MatchError(dynamo.ErrCollision))
			Expect(r.presents).To(BeZero())
			Expect(crash.Reason()).To(Equal(sim.ReasonCollision))
		})
	})

	Describe("Frame", func() {
		It("draws every body followed by every surface point", func() {
			r := &fakeRenderer{}
			Expect(loop.Frame(r)).To(Succeed())

			Expect(r.circles).To(HaveLen(2 + 120))
			Expect(r.circles[0].radius).To(Equal(50.0))
			Expect(r.circles[1].radius).To(Equal(10.0))
			Expect(r.circles[2].radius).To(Equal(cfg.PointRadius))
			Expect(r.circles[2].color).To(Equal(cfg.WaterColor))
			Expect(r.presents).To(Equal(1))
		})

		It("stops on quit but still presents the frame", func() {
			r := &fakeRenderer{quitAfter: 1}
			Expect(loop.Frame(r)).To(Succeed())
			Expect(loop.State()).To(Equal(sim.Stopped))
			Expect(loop.Reason()).To(Equal(sim.ReasonQuit))
			Expect(r.presents).To(Equal(1))
		})
	})

	Describe("Run", func() {
		It("honours the frame cap", func() {
			r := &fakeRenderer{}
			s := &sim.Session{Renderer: r, TickRate: 60, MaxFrames: 5}

			Expect(loop.Run(context.Background(), s)).To(Succeed())
			Expect(loop.Steps()).To(Equal(5))
			Expect(loop.Reason()).To(Equal(sim.ReasonFrameLimit))
			Expect(r.presents).To(Equal(5))
			Expect(r.waits).To(HaveLen(5))
			Expect(r.waits[0]).To(Equal(60))
		})

		It("skips the wait after the quitting frame", func() {
			r := &fakeRenderer{quitAfter: 3}
			s := &sim.Session{Renderer: r, TickRate: 1000}

			Expect(loop.Run(context.Background(), s)).To(Succeed())
			Expect(loop.Steps()).To(Equal(3))
			Expect(r.waits).To(HaveLen(2))
		})

		It("returns the context error when canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			err := loop.Run(ctx, &sim.Session{Renderer: &fakeRenderer{}})
			Expect(err).To(MatchError(context.Canceled))
			Expect(loop.State()).To(Equal(sim.Stopped))
			Expect(loop.Reason()).To(Equal(sim.ReasonCanceled))
			Expect(loop.Steps()).To(BeZero())
		})
	})

	Describe("Session", func() {
		It("closes renderers that hold resources", func() {
			c := &closingRenderer{}
			s := &sim.Session{Renderer: c}
			Expect(s.Close()).To(Succeed())
			Expect(c.closed).To(BeTrue())
		})

		It("ignores renderers without Close", func() {
			s := &sim.Session{Renderer: &fakeRenderer{}}
			Expect(s.Close()).To(Succeed())
		})
	})
})

type closingRenderer struct {
	fakeRenderer
	closed bool
}

func (c *closingRenderer) Close() error {
	c.closed = true
	return nil
}
