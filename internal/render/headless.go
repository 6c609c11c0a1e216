package render

import (
	"image/color"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// Headless is a renderer that draws nothing. It counts draw calls, asks the
// loop to quit after MaxFrames presented frames and, when Pace is set,
// sleeps to hold the requested tick rate.
type Headless struct {
	View      Viewport
	MaxFrames int
	Pace      bool

	Frames    int
	Circles   int
	Offscreen int
	// LastFrame is the number of circles drawn in the most recent frame.
	LastFrame int

	pending int
	ticker  *time.Ticker
	rate    int
}

func NewHeadless(view Viewport, maxFrames int) *Headless {
	return &Headless{View: view, MaxFrames: maxFrames}
}

func (h *Headless) DrawCircle(center r2.Vec, radius float64, _ color.RGBA) {
	h.Circles++
	h.pending++
	x, y := h.View.ToScreen(center)
	if !h.View.Contains(x, y, h.View.Radius(radius)) {
		h.Offscreen++
	}
}

func (h *Headless) PollQuit() bool {
	return h.MaxFrames > 0 && h.Frames+1 >= h.MaxFrames
}

func (h *Headless) Present() {
	h.Frames++
	h.LastFrame = h.pending
	h.pending = 0
}

func (h *Headless) WaitForNextTick(rate int) {
	if !h.Pace || rate <= 0 {
		return
	}
	if h.ticker == nil || rate != h.rate {
		if h.ticker != nil {
			h.ticker.Stop()
		}
		h.ticker = time.NewTicker(time.Second / time.Duration(rate))
		h.rate = rate
	}
	<-h.ticker.C
}

func (h *Headless) Close() error {
	if h.ticker != nil {
		h.ticker.Stop()
		h.ticker = nil
	}
	return nil
}
