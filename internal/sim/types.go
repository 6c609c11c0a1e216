package sim

import (
	"errors"
	"image/color"
	"io"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/tidalsim/internal/dynamo"
)

// ErrStopped is returned when stepping a loop that has already stopped.
var ErrStopped = errors.New("sim: loop stopped")

type State int

const (
	Running State = iota
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stop reasons recorded by the loop.
const (
	ReasonQuit       = "quit"
	ReasonCollision  = "collision"
	ReasonFrameLimit = "frame limit"
	ReasonCanceled   = "canceled"
)

// Renderer is the drawing collaborator the loop reports to once per frame.
type Renderer interface {
	DrawCircle(center r2.Vec, radius float64, c color.RGBA)
	PollQuit() bool
	Present()
	WaitForNextTick(rate int)
}

type Observer interface {
	OnStep(w *dynamo.World, step int, t float64)
}

type Metric interface {
	Name() string
	Observe(w *dynamo.World, t float64)
	Value() float64
	Reset()
}

type Config struct {
	Dt          float64
	PointRadius float64
	WaterColor  color.RGBA
	LogEvery    int
}

func DefaultConfig() Config {
	return Config{
		Dt:          1,
		PointRadius: 1,
		WaterColor:  color.RGBA{R: 0, G: 0, B: 255, A: 255},
	}
}

// Session owns the renderer and the run parameters of one loop run.
type Session struct {
	Renderer  Renderer
	TickRate  int
	MaxFrames int
}

// Close releases the renderer when it holds resources.
func (s *Session) Close() error {
	if c, ok := s.Renderer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
