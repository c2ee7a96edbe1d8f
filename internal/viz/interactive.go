package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/san-kum/clothsim/internal/config"
)

var presetInfo = map[string]string{
	"default":        "hanging sheet",
	"stiff":          "high stiffness, small dt",
	"soft":           "loose springs",
	"damped":         "spring and air damping",
	"shear":          "diagonal springs",
	"bouncy":         "high restitution",
	"explicit_euler": "explicit integrator",
	"implicit_euler": "implicit integrator",
	"pendulum":       "explicit particle list",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// app walks from a preset list through a parameter editor into the live
// viewer.
type app struct {
	state, cursor int
	presets       []string
	selected      string
	cfg           *config.Config
	paramNames    []string
	paramCursor   int
	editing       bool
	editBuf       string
	err           error
	styles        styles
	logger        *log.Logger
	live          Model
}

func newApp(logger *log.Logger) app {
	return app{
		presets:    config.ListPresets(),
		paramNames: config.Parameters(),
		styles:     newStyles(Themes[0]),
		logger:     logger,
	}
}

func (m app) Init() tea.Cmd { return nil }

func (m app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		live, cmd := m.live.Update(msg)
		m.live = live.(Model)
		return m, cmd
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case stateMenu:
			return m.menuKey(msg)
		case stateConfig:
			return m.configKey(msg)
		}
	}
	return m, nil
}

func (m app) menuKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.presets[m.cursor]
		m.cfg = config.GetPreset(m.selected)
		m.state, m.paramCursor, m.err = stateConfig, 0, nil
	}
	return m, nil
}

func (m app) configKey(msg tea.KeyMsg) (app, tea.Cmd) {
	name := m.paramNames[m.paramCursor]
	if m.editing {
		switch msg.String() {
		case "enter":
			v, err := strconv.ParseFloat(m.editBuf, 64)
			if err != nil {
				m.err = fmt.Errorf("%s: %w", name, err)
			} else {
				m.err = m.cfg.Set(name, v)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-e") {
				m.editBuf += s
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(m.paramNames)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		v, _ := m.cfg.Get(name)
		m.editing, m.editBuf = true, strconv.FormatFloat(v, 'g', -1, 64)
	case "left", "h":
		m.nudge(name, 1/1.1)
	case "right", "l":
		m.nudge(name, 1.1)
	case "s":
		return m.start()
	}
	return m, nil
}

// nudge scales a parameter; zero values step by 0.1 instead.
func (m *app) nudge(name string, factor float64) {
	v, err := m.cfg.Get(name)
	if err != nil {
		m.err = err
		return
	}
	switch {
	case v != 0:
		v *= factor
	case factor > 1:
		v = 0.1
	default:
		v = -0.1
	}
	m.err = m.cfg.Set(name, v)
}

func (m app) start() (app, tea.Cmd) {
	live, err := NewModel(m.selected, m.cfg)
	if err != nil {
		m.err = err
		return m, nil
	}
	if m.logger != nil {
		live.SetLogger(m.logger)
	}
	m.live, m.state, m.err = live, stateSim, nil
	return m, live.Init()
}

func (m app) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.live.View()
	}
	return ""
}

func (m app) viewMenu() string {
	st := m.styles
	var b strings.Builder
	b.WriteString("\n\n    " + st.header.Render("CLOTHSIM") + "\n    " + st.subtle.Render("mass-spring cloth") + "\n    " + st.subtle.Render(Separator(25)) + "\n\n")
	for i, name := range m.presets {
		line := fmt.Sprintf("%-16s %s", name, presetInfo[name])
		if i == m.cursor {
			b.WriteString("    " + st.cursor.Render("▸ "+line) + "\n")
		} else {
			b.WriteString("      " + st.subtle.Render(line) + "\n")
		}
	}
	b.WriteString(st.help.Render("\n    j/k navigate  enter select  q quit") + "\n")
	return b.String()
}

func (m app) viewConfig() string {
	st := m.styles
	var b strings.Builder
	b.WriteString("\n\n    " + st.header.Render(strings.ToUpper(m.selected)) + "\n    " + st.subtle.Render(presetInfo[m.selected]) + "\n    " + st.subtle.Render(Separator(25)) + "\n\n")
	for i, name := range m.paramNames {
		v, _ := m.cfg.Get(name)
		val := fmt.Sprintf("%10.4g", v)
		if m.editing && i == m.paramCursor {
			val = fmt.Sprintf("%10s", m.editBuf+"_")
		}
		line := fmt.Sprintf("%-16s %s", name, val)
		if i == m.paramCursor {
			b.WriteString("    " + st.cursor.Render("▸ "+line) + "\n")
		} else {
			b.WriteString("      " + st.subtle.Render(line) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + st.alert.Render(m.err.Error()) + "\n")
	}
	b.WriteString(st.help.Render("\n    j/k select  h/l adjust  enter edit  s start  esc back") + "\n")
	return b.String()
}

// RunInteractive opens the preset picker.
func RunInteractive(logger *log.Logger) error {
	_, err := tea.NewProgram(newApp(logger), tea.WithAltScreen()).Run()
	return err
}
