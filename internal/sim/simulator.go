package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/tidalsim/internal/dynamo"
	"github.com/san-kum/tidalsim/internal/integrators"
	"github.com/san-kum/tidalsim/internal/physics"
)

// Loop advances a World one discrete step at a time and reports each frame
// to a renderer. It is driven from a single goroutine.
type Loop struct {
	world      *dynamo.World
	gravity    physics.Gravity
	tides      physics.TidalModel
	deform     physics.Deformation
	integrator integrators.Integrator
	cfg        Config
	forces     []r2.Vec

	state  State
	reason string
	err    error
	steps  int
	t      float64

	metrics   []Metric
	observers []Observer
	logger    *slog.Logger
}

type Option func(*Loop)

func WithGravity(g physics.Gravity) Option {
	return func(l *Loop) { l.gravity = g }
}

func WithTides(m physics.TidalModel, d physics.Deformation) Option {
	return func(l *Loop) {
		l.tides = m
		l.deform = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// New validates the world and returns a running loop. Surface points start
// on their equilibrium anchors.
func New(w *dynamo.World, integrator integrators.Integrator, cfg Config, opts ...Option) (*Loop, error) {
	if !(cfg.Dt > 0) {
		return nil, &dynamo.ConfigurationError{Field: "dt", Reason: fmt.Sprintf("must be positive, got %g", cfg.Dt)}
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	l := &Loop{
		world:      w,
		gravity:    physics.NewGravity(physics.G),
		tides:      physics.NewTidalModel(physics.G, physics.DefaultWaterMass),
		integrator: integrator,
		cfg:        cfg,
		forces:     make([]r2.Vec, len(w.Bodies)),
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}

	w.ResetDisplay()
	return l, nil
}

func (l *Loop) AddMetric(m Metric) {
	m.Reset()
	l.metrics = append(l.metrics, m)
}

func (l *Loop) AddObserver(o Observer) { l.observers = append(l.observers, o) }

func (l *Loop) World() *dynamo.World { return l.world }
func (l *Loop) State() State         { return l.state }
func (l *Loop) Steps() int           { return l.steps }
func (l *Loop) Time() float64        { return l.t }
func (l *Loop) Config() Config       { return l.cfg }

// Err returns the error that stopped the loop, if any.
func (l *Loop) Err() error { return l.err }

// Reason describes why the loop stopped; empty while running.
func (l *Loop) Reason() string { return l.reason }

// Stop moves the loop to Stopped on an external quit signal.
func (l *Loop) Stop() { l.halt(ReasonQuit, nil) }

func (l *Loop) halt(reason string, err error) {
	if l.state == Stopped {
		return
	}
	l.state = Stopped
	l.reason = reason
	l.err = err
}

// Step runs one discrete simulation step. A collision stops the loop and is
// returned wrapped in a *dynamo.SimulationError. Bodies moved onto the same
// point are caught before the step completes, so no frame shows them
// coincident.
func (l *Loop) Step() error {
	if l.state == Stopped {
		return ErrStopped
	}
	if l.steps == 0 {
		l.observe()
	}

	if err := l.advance(); err != nil {
		simErr := &dynamo.SimulationError{Step: l.steps, Time: l.t, Wrapped: err}
		reason := ReasonCollision
		if !errors.Is(err, dynamo.ErrCollision) {
			reason = err.Error()
		}
		l.halt(reason, simErr)
		l.logger.Error("simulation halted", "step", l.steps, "time", l.t, "error", err)
		return simErr
	}

	l.steps++
	l.t += l.cfg.Dt
	l.observe()
	for _, obs := range l.observers {
		obs.OnStep(l.world, l.steps, l.t)
	}

	if l.cfg.LogEvery > 0 && l.steps%l.cfg.LogEvery == 0 {
		l.logStatus()
	}
	return nil
}

func (l *Loop) advance() error {
	bodies := l.world.Bodies

	if err := l.gravity.NetForces(bodies, l.forces); err != nil {
		return err
	}
	for i := range bodies {
		l.integrator.Step(&bodies[i], l.forces[i], l.cfg.Dt)
	}
	if err := l.world.CheckSeparation(); err != nil {
		return err
	}

	for i := range l.world.Oceans {
		o := &l.world.Oceans[i]
		primary := &bodies[o.Primary]

		physics.Reset(o)
		for j := range bodies {
			if j == o.Primary {
				continue
			}
			if err := l.tides.Accumulate(o, primary, &bodies[j]); err != nil {
				return err
			}
		}
		l.deform.Apply(o, primary.Pos)
	}
	return nil
}

func (l *Loop) observe() {
	for _, m := range l.metrics {
		m.Observe(l.world, l.t)
	}
}

func (l *Loop) logStatus() {
	for i := range l.world.Bodies {
		b := &l.world.Bodies[i]
		l.logger.Debug("body status",
			"step", l.steps,
			"name", b.Name,
			"x", b.Pos.X, "y", b.Pos.Y,
			"vx", b.Vel.X, "vy", b.Vel.Y,
		)
	}
}

// Draw emits one circle per body and one per surface point.
func (l *Loop) Draw(r Renderer) {
	for i := range l.world.Bodies {
		b := &l.world.Bodies[i]
		r.DrawCircle(b.Pos, b.Radius, b.Color)
	}
	for i := range l.world.Oceans {
		for _, p := range l.world.Oceans[i].Points {
			r.DrawCircle(p.Pos, l.cfg.PointRadius, l.cfg.WaterColor)
		}
	}
}

// Frame performs one loop iteration: step, draw, poll for quit, present.
func (l *Loop) Frame(r Renderer) error {
	if err := l.Step(); err != nil {
		return err
	}
	l.Draw(r)
	if r.PollQuit() {
		l.Stop()
	}
	r.Present()
	return nil
}

// Run repeats Frame until the loop stops, the context is canceled or the
// session's frame cap is reached.
func (l *Loop) Run(ctx context.Context, s *Session) error {
	l.logger.Info("simulation started",
		"bodies", len(l.world.Bodies),
		"oceans", len(l.world.Oceans),
		"dt", l.cfg.Dt,
		"tick_rate", s.TickRate,
	)

	for frames := 0; l.state == Running; frames++ {
		if s.MaxFrames > 0 && frames >= s.MaxFrames {
			l.halt(ReasonFrameLimit, nil)
			break
		}

		select {
		case <-ctx.Done():
			l.halt(ReasonCanceled, ctx.Err())
			return ctx.Err()
		default:
		}

		if err := l.Frame(s.Renderer); err != nil {
			return err
		}
		if l.state == Running {
			s.Renderer.WaitForNextTick(s.TickRate)
		}
	}

	l.logger.Info("simulation stopped", "steps", l.steps, "time", l.t, "reason", l.reason)
	return nil
}

// Results collects the current value of every metric.
func (l *Loop) Results() map[string]float64 {
	out := make(map[string]float64, len(l.metrics))
	for _, m := range l.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}
