package storage

import (
	"github.com/san-kum/tidalsim/internal/dynamo"
)

// Sample is one body's state at one recorded step.
type Sample struct {
	Step int     `csv:"step" json:"step"`
	Time float64 `csv:"time" json:"time"`
	Body string  `csv:"body" json:"body"`
	X    float64 `csv:"x" json:"x"`
	Y    float64 `csv:"y" json:"y"`
	VX   float64 `csv:"vx" json:"vx"`
	VY   float64 `csv:"vy" json:"vy"`
}

// Recorder keeps a sample of every body each Every steps. It is attached to
// a loop as an observer.
type Recorder struct {
	Every   int
	samples []Sample
}

func NewRecorder(every int) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{Every: every}
}

// Capture records the world unconditionally, typically the initial state.
func (r *Recorder) Capture(w *dynamo.World, step int, t float64) {
	for i := range w.Bodies {
		b := &w.Bodies[i]
		r.samples = append(r.samples, Sample{
			Step: step,
			Time: t,
			Body: b.Name,
			X:    b.Pos.X,
			Y:    b.Pos.Y,
			VX:   b.Vel.X,
			VY:   b.Vel.Y,
		})
	}
}

func (r *Recorder) OnStep(w *dynamo.World, step int, t float64) {
	if step%r.Every != 0 {
		return
	}
	r.Capture(w, step, t)
}

func (r *Recorder) Samples() []Sample { return r.samples }

// Series extracts one body's recorded positions in step order.
func Series(samples []Sample, body string) (times, xs, ys []float64) {
	for _, s := range samples {
		if s.Body != body {
			continue
		}
		times = append(times, s.Time)
		xs = append(xs, s.X)
		ys = append(ys, s.Y)
	}
	return times, xs, ys
}

// Bodies lists the distinct body names in first-seen order.
func Bodies(samples []Sample) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, s := range samples {
		if !seen[s.Body] {
			seen[s.Body] = true
			names = append(names, s.Body)
		}
	}
	return names
}
