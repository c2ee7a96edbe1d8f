package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/dynamo"
	"github.com/san-kum/clothsim/internal/metrics"
	"github.com/san-kum/clothsim/internal/physics"
	"github.com/san-kum/clothsim/internal/render"
	"github.com/san-kum/clothsim/internal/sim"
)

const (
	width           = 72
	height          = 22
	historyCapacity = 600
	frameInterval   = time.Second / 60

	minTimeScale = 0.125
	maxTimeScale = 4
	// pokeImpulse is the force per unit mass applied by the poke key.
	pokeImpulse = 400
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// history records per-tick diagnostics of the current state.
type history struct {
	energy []float64
	speed  []float64
}

func (h *history) OnTick(w *physics.Simulation, _ int, _ float64) {
	h.energy = appendCapped(h.energy, w.Energy())
	h.speed = appendCapped(h.speed, w.MaxSpeed())
}

func (h *history) clear() {
	h.energy = h.energy[:0]
	h.speed = h.speed[:0]
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

// Model drives a physics subsystem from wall-clock frames and draws its
// render state.
type Model struct {
	name      string
	cfg       *config.Config
	sub       *sim.Subsystem[*physics.Simulation]
	canvas    *render.Canvas
	hist      *history
	last      time.Time
	timeScale float64
	pokes     int

	keys     KeyMap
	help     help.Model
	theme    Theme
	styles   styles
	showHelp bool
	quitting bool
	err      error
}

// NewModel builds the world described by cfg and wraps it in a subsystem
// ticking at cfg.Dt.
func NewModel(name string, cfg *config.Config) (Model, error) {
	cfg = cfg.Clone()
	w, err := cfg.Build()
	if err != nil {
		return Model{}, err
	}
	sub, err := sim.NewSubsystem(w, cfg.Dt)
	if err != nil {
		return Model{}, err
	}
	sub.SetMaxFrame(config.DefaultMaxFrame)
	hist := &history{
		energy: make([]float64, 0, historyCapacity),
		speed:  make([]float64, 0, historyCapacity),
	}
	sub.AddObserver(hist)

	theme := Themes[0]
	return Model{
		name:      name,
		cfg:       cfg,
		sub:       sub,
		canvas:    render.NewCanvas(width, height),
		hist:      hist,
		timeScale: 1,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		theme:     theme,
		styles:    newStyles(theme),
	}, nil
}

// SetLogger forwards gate changes and resets to l.
func (m *Model) SetLogger(l *log.Logger) { m.sub.SetLogger(l) }

// Subsystem exposes the driven subsystem.
func (m Model) Subsystem() *sim.Subsystem[*physics.Simulation] { return m.sub }

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input and advances the subsystem by the wall-clock time
// since the previous tick, scaled by the playback speed.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.sub.Toggle()
		case key.Matches(msg, m.keys.Reset):
			m.reset()
		case key.Matches(msg, m.keys.Poke):
			m.poke()
		case key.Matches(msg, m.keys.Faster):
			m.timeScale = min(m.timeScale*2, maxTimeScale)
		case key.Matches(msg, m.keys.Slower):
			m.timeScale = max(m.timeScale/2, minTimeScale)
		case key.Matches(msg, m.keys.Theme):
			m.theme = NextTheme(m.theme.Name)
			m.styles = newStyles(m.theme)
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
		}
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case TickMsg:
		now := time.Time(msg)
		if !m.last.IsZero() {
			m.sub.Advance(now.Sub(m.last).Seconds() * m.timeScale)
		}
		m.last = now
		return m, tick()
	}
	return m, nil
}

// reset rebuilds the initial world. The enabled gate is left as it is.
func (m *Model) reset() {
	w, err := m.cfg.Build()
	if err != nil {
		m.err = err
		return
	}
	m.sub.Reset(w)
	m.hist.clear()
	m.pokes = 0
	m.err = nil
}

// poke pushes the bottom free particles sideways for the next tick,
// alternating direction on each press.
func (m *Model) poke() {
	w := m.sub.Current()
	p := w.Particles
	if p.Free() == 0 {
		return
	}
	dir := float32(1)
	if m.pokes%2 == 1 {
		dir = -1
	}
	m.pokes++

	lowest := p.Position[0][1]
	for i := 1; i < p.Free(); i++ {
		lowest = min(lowest, p.Position[i][1])
	}
	for i := 0; i < p.Free(); i++ {
		if p.Position[i][1]-lowest < 1e-3 {
			w.ApplyForce(i, dynamo.Vec3{dir * pokeImpulse * p.Mass[i], 0, 0})
		}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	st := m.styles
	w := m.sub.Render()
	m.canvas.DrawWorld(w)
	canvasView := st.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.name)) + "\n")
	if m.sub.Enabled() {
		s.WriteString(st.running.Render("● RUNNING"))
	} else {
		s.WriteString(st.paused.Render("◼ PAUSED"))
	}
	if !w.Valid() {
		s.WriteString("  " + st.alert.Render("UNSTABLE"))
	}
	s.WriteString("\n\n")

	if len(m.hist.energy) > 1 {
		chart := asciigraph.Plot(m.hist.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.sub.Time()))
	row("Ticks", fmt.Sprintf("%d", m.sub.Ticks()))
	row("Alpha", fmt.Sprintf("%.2f", m.sub.Alpha()))
	row("Speed", fmt.Sprintf("%.3gx", m.timeScale))
	row("Energy", fmt.Sprintf("%.2f", w.Energy()))
	row("Strain", fmt.Sprintf("%.1f%%", 100*metrics.Strain(w)))
	row("Particles", fmt.Sprintf("%d (%d frozen)", w.Particles.Len(), w.Particles.Frozen()))
	row("Springs", fmt.Sprintf("%d", w.Springs.Len()))
	row("Integrator", w.Params.Integrator.String())
	s.WriteString(st.label.Render("Max speed") + st.value.Render(SparklineChart(m.hist.speed, 20)) + "\n")
	if m.err != nil {
		s.WriteString("\n" + st.alert.Render(m.err.Error()) + "\n")
	}
	s.WriteString(st.subtle.Render("\n"+Separator(36)) + "\n")
	s.WriteString(st.help.Render(m.help.View(m.keys)))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
}

// Run opens the live viewer on the alternate screen and blocks until the
// user quits.
func Run(name string, cfg *config.Config, logger *log.Logger) error {
	m, err := NewModel(name, cfg)
	if err != nil {
		return err
	}
	if logger != nil {
		m.SetLogger(logger)
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
