// Package viz renders a running simulation in the terminal.
//
//   - [Canvas]: Braille dot matrix with per-cell colour
//   - [Terminal]: a renderer that draws onto a Canvas
//   - [Model]: Bubble Tea model that drives the loop from tick messages
//
// # Key Bindings
//
//	Space - Pause/Resume
//	+/-   - Zoom in/out
//	Q     - Quit
package viz
