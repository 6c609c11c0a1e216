package viz

import (
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

const blank = 0x2800

// Braille cells hold 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
var dotMask = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a dot matrix backed by Braille characters. Dot coordinates run
// over (Width*2) x (Height*4); each cell keeps the colour of the last dot
// drawn into it.
type Canvas struct {
	Width, Height int
	cells         [][]rune
	colors        [][]color.RGBA
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h}
	c.cells = make([][]rune, h)
	c.colors = make([][]color.RGBA, h)
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
		c.colors[i] = make([]color.RGBA, w)
	}
	c.Clear()
	return c
}

// Dots returns the canvas size in dots.
func (c *Canvas) Dots() (int, int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) Set(x, y int, col color.RGBA) {
	if x < 0 || y < 0 {
		return
	}
	cx, cy := x/2, y/4
	if cx >= c.Width || cy >= c.Height {
		return
	}
	c.cells[cy][cx] |= dotMask[y%4][x%2]
	c.colors[cy][cx] = col
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.cells[y/4][x/2]&dotMask[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		for j := range c.cells[i] {
			c.cells[i][j] = blank
			c.colors[i][j] = color.RGBA{}
		}
	}
}

// Circle draws a disc of radius r dots, or a single dot when r < 1.
func (c *Canvas) Circle(x, y, r int, col color.RGBA) {
	if r < 1 {
		c.Set(x, y, col)
		return
	}
	r2 := r * r
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r2 {
				c.Set(x+dx, y+dy, col)
			}
		}
	}
}

// Plain renders the dots without colour.
func (c *Canvas) Plain() string {
	var b strings.Builder
	for _, row := range c.cells {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// String renders the canvas, colouring runs of cells that share a colour.
func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.cells {
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && c.colors[i][j] == c.colors[i][start] {
				continue
			}
			b.WriteString(paint(string(row[start:j]), c.colors[i][start]))
			start = j
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func paint(s string, col color.RGBA) string {
	if col.A == 0 {
		return s
	}
	hex := colorful.Color{
		R: float64(col.R) / 255,
		G: float64(col.G) / 255,
		B: float64(col.B) / 255,
	}.Hex()
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render(s)
}
