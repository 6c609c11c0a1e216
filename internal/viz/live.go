package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/tidalsim/internal/metrics"
	"github.com/san-kum/tidalsim/internal/render"
	"github.com/san-kum/tidalsim/internal/sim"
)

const (
	cols            = 80
	rows            = 24
	historyCapacity = 300
	maxTickRate     = 60
	zoomStep        = 1.25
	barWidth        = 30
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(42)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model runs a loop inside a Bubble Tea program. Each tick advances the
// loop by enough steps to approximate its tick rate and presents one frame.
type Model struct {
	loop    *sim.Loop
	term    *Terminal
	title   string
	g       float64
	every   time.Duration
	perTick int
	running bool
	err     error

	spring     harmonica.Spring
	zoom       float64
	zoomVel    float64
	zoomTarget float64
	gauge      progress.Model

	tides    *metrics.TidalRange
	momentum *metrics.MomentumDrift
	history  []float64
}

// NewModel attaches tidal range and momentum metrics to the loop. Zoom
// keys move a target that the view follows on a critically damped spring.
func NewModel(loop *sim.Loop, view render.Viewport, title string, g float64, tickRate int) Model {
	if tickRate <= 0 {
		tickRate = maxTickRate
	}
	perTick := 1
	fps := tickRate
	if tickRate > maxTickRate {
		perTick = int(math.Ceil(float64(tickRate) / maxTickRate))
		fps = maxTickRate
	}

	gauge := progress.New(
		progress.WithScaledGradient("#0000ff", "#00ffff"),
		progress.WithoutPercentage(),
		progress.WithWidth(barWidth),
	)

	m := Model{
		loop:       loop,
		term:       NewTerminal(cols, rows, view),
		title:      title,
		g:          g,
		every:      time.Second / time.Duration(fps),
		perTick:    perTick,
		running:    true,
		spring:     harmonica.NewSpring(harmonica.FPS(fps), 6, 1),
		zoom:       1,
		zoomTarget: 1,
		gauge:      gauge,
		tides:      metrics.NewTidalRange(0),
		momentum:   metrics.NewMomentumDrift(),
		history:    make([]float64, 0, historyCapacity),
	}
	loop.AddMetric(m.tides)
	loop.AddMetric(m.momentum)
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.every, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.term.RequestQuit()
			if !m.running {
				m.loop.Stop()
				return m, tea.Quit
			}
		case " ":
			m.running = !m.running
		case "+", "=":
			m.zoomTarget *= zoomStep
		case "-", "_":
			m.zoomTarget /= zoomStep
		}
	case TickMsg:
		m.zoom, m.zoomVel = m.spring.Update(m.zoom, m.zoomVel, m.zoomTarget)
		m.term.SetZoom(m.zoom)
		if m.running {
			m.advance()
		}
		if m.loop.State() == sim.Stopped {
			return m, tea.Quit
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) advance() {
	for i := 1; i < m.perTick; i++ {
		if err := m.loop.Step(); err != nil {
			m.err = err
			return
		}
	}
	if err := m.loop.Frame(m.term); err != nil {
		m.err = err
		return
	}
	m.history = append(m.history, m.tides.Current())
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

// Err is the error that stopped the loop, if any.
func (m Model) Err() error { return m.err }

func (m Model) View() string {
	canvasView := canvasStyle.Render(m.term.Frame())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")

	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	if m.loop.State() == sim.Stopped {
		status = "STOPPED (" + m.loop.Reason() + ")"
	}
	s.WriteString(status + "\n\n")

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Tidal range"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Step") + valueStyle.Render(fmt.Sprintf("%d", m.loop.Steps())) + "\n")
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(formatDuration(m.loop.Time())) + "\n")
	s.WriteString(labelStyle.Render("Range") + valueStyle.Render(fmt.Sprintf("%.3g", m.tides.Current())) + "\n")
	if peak := m.tides.Value(); peak > 0 {
		s.WriteString(labelStyle.Render("of peak") + m.gauge.ViewAs(m.tides.Current()/peak) + "\n")
	}
	s.WriteString(labelStyle.Render("Momentum") + valueStyle.Render(fmt.Sprintf("%.2e", m.momentum.Value())) + "\n")

	s.WriteString("\nBODIES\n")
	w := m.loop.World()
	for i := range w.Bodies {
		b := &w.Bodies[i]
		line := fmt.Sprintf("%-8s g=%.3g", b.Name, b.SurfaceGravity(m.g))
		s.WriteString("  " + paint(line, b.Color) + "\n")
	}

	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("─────────────────────\nSP:Pause +/-:Zoom Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}

func formatDuration(seconds float64) string {
	switch {
	case seconds >= 86400:
		return fmt.Sprintf("%.1fd", seconds/86400)
	case seconds >= 3600:
		return fmt.Sprintf("%.1fh", seconds/3600)
	default:
		return fmt.Sprintf("%.0fs", seconds)
	}
}

// Run shows the loop in the terminal until it stops or ctx is done.
func Run(ctx context.Context, loop *sim.Loop, view render.Viewport, title string, g float64, tickRate int) error {
	m := NewModel(loop, view, title, g, tickRate)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
