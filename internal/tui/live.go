// Package tui is the interactive loop tuner. Pick a plant, set gains,
// then nudge them while the closed loop runs and watch the response
// follow.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/pid"
	"github.com/san-kum/pidlab/internal/plant"
	"github.com/san-kum/pidlab/internal/tf"
	"github.com/san-kum/pidlab/internal/tuning"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

var kindInfo = map[string]string{
	"first_order":  "single lag",
	"second_order": "mass-spring-damper",
	"integrator":   "pure accumulator",
	"delayed":      "lag with dead time",
}

var gainNames = []string{"kp", "ki", "kd"}

const historyCap = 600

type state int

const (
	stateMenu state = iota
	stateConfig
	stateRun
)

type model struct {
	state    state
	cursor   int
	kinds    []string
	selected string

	params      map[string]float64
	paramNames  []string
	paramCursor int
	editing     bool
	editBuf     string
	errMsg      string

	running    bool
	paused     bool
	plantSim   *tf.Simulator
	ctrl       *pid.Controller
	output     float64
	simTime    float64
	dt         float64
	speed      float64
	gainCursor int

	history    []float64
	refHistory []float64
	effort     []float64
	lastFrame  time.Time
	fps        float64

	width  int
	height int
}

func newModel() *model {
	return &model{
		state: stateMenu,
		kinds: []string{"first_order", "second_order", "integrator", "delayed"},
		params: map[string]float64{
			"k": 1, "tau": 1, "wn": 1, "zeta": 0.5, "delay": 0.5,
			"kp": 1, "ki": 0, "kd": 0, "dt": 0.02, "setpoint": 1,
		},
		paramNames: []string{"k", "tau", "kp", "ki", "kd", "dt", "setpoint"},
		dt:         0.02,
		speed:      1.0,
		width:      80,
		height:     24,
	}
}

func (m model) Init() tea.Cmd { return nil }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateRun {
			return m, nil
		}
		if m.running && !m.paused && m.plantSim != nil {
			now := time.Now()
			if !m.lastFrame.IsZero() {
				if d := now.Sub(m.lastFrame).Seconds(); d > 0 {
					m.fps = 1.0 / d
				}
			}
			m.lastFrame = now
			steps := int(m.speed)
			if steps < 1 {
				steps = 1
			}
			for i := 0; i < steps; i++ {
				m.step()
			}
		}
		if m.running && m.state == stateRun {
			return m, tick()
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateRun:
		return m.runKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.kinds)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.kinds[m.cursor]
		m.state = stateConfig
		m.paramCursor = 0
		m.errMsg = ""
		m.setParamsForKind()
	}
	return m, nil
}

func (m model) configKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			var val float64
			fmt.Sscanf(m.editBuf, "%f", &val)
			m.params[m.paramNames[m.paramCursor]] = val
			m.editing = false
			m.editBuf = ""
		case "escape":
			m.editing = false
			m.editBuf = ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "escape":
		m.state = stateMenu
		m.errMsg = ""
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(m.paramNames)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		m.editing = true
		m.editBuf = fmt.Sprintf("%.2f", m.params[m.paramNames[m.paramCursor]])
	case "left", "h":
		m.params[m.paramNames[m.paramCursor]] -= 0.1
	case "right", "l":
		m.params[m.paramNames[m.paramCursor]] += 0.1
	case "g":
		m.suggestGains()
	case "s":
		m.start()
		if m.errMsg == "" {
			m.state = stateRun
			return m, tea.Batch(tea.ClearScreen, tick())
		}
	}
	return m, nil
}

func (m model) runKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "escape":
		m.running = false
		m.state = stateMenu
		m.reset()
		return m, tea.ClearScreen
	case " ", "p":
		m.paused = !m.paused
	case "r":
		m.start()
		return m, tea.Batch(tea.ClearScreen, tick())
	case "c":
		m.running = false
		m.state = stateConfig
		m.reset()
		return m, tea.ClearScreen
	case "+", "=":
		m.speed = math.Min(m.speed*2, 16)
	case "-", "_":
		m.speed = math.Max(m.speed/2, 0.25)
	case "0":
		m.speed = 1.0
	case "up", "k":
		if m.gainCursor > 0 {
			m.gainCursor--
		}
	case "down", "j":
		if m.gainCursor < len(gainNames)-1 {
			m.gainCursor++
		}
	case "left", "h":
		m.nudgeGain(-1)
	case "right", "l":
		m.nudgeGain(1)
	case "t":
		if m.ctrl != nil {
			if m.ctrl.Setpoint() != 0 {
				m.ctrl.SetSetpoint(0)
			} else {
				m.ctrl.SetSetpoint(m.params["setpoint"])
			}
		}
	}
	return m, nil
}

func (m *model) setParamsForKind() {
	switch m.selected {
	case "first_order":
		m.paramNames = []string{"k", "tau", "kp", "ki", "kd", "dt", "setpoint"}
	case "second_order":
		m.paramNames = []string{"k", "wn", "zeta", "kp", "ki", "kd", "dt", "setpoint"}
	case "integrator":
		m.paramNames = []string{"k", "kp", "ki", "kd", "dt", "setpoint"}
	case "delayed":
		m.paramNames = []string{"k", "tau", "delay", "kp", "ki", "kd", "dt", "setpoint"}
	}
}

func (m *model) spec() loop.Spec {
	switch m.selected {
	case "second_order":
		return loop.SecondOrderSpec(m.params["k"], m.params["wn"], m.params["zeta"])
	case "integrator":
		return loop.IntegratorSpec(m.params["k"])
	case "delayed":
		return loop.DelayedSpec(m.params["k"], m.params["tau"], m.params["delay"])
	default:
		return loop.FirstOrderSpec(m.params["k"], m.params["tau"])
	}
}

func (m *model) gains() loop.Gains {
	return loop.Gains{Kp: m.params["kp"], Ki: m.params["ki"], Kd: m.params["kd"]}
}

func (m *model) suggestGains() {
	g, err := tuning.Suggest(m.spec())
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.params["kp"], m.params["ki"], m.params["kd"] = g.Kp, g.Ki, g.Kd
	m.errMsg = ""
}

func (m *model) start() {
	if dt := m.params["dt"]; dt > 0 {
		m.dt = dt
	} else {
		m.dt = 0.02
	}

	g, err := plant.FromSpec(m.spec())
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	sim, err := tf.NewSimulator(g)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	if err := m.gains().Validate(); err != nil {
		m.errMsg = err.Error()
		return
	}

	m.plantSim = sim
	m.ctrl = pid.New(m.gains(), m.params["setpoint"])
	m.output = 0
	m.simTime = 0
	m.speed = 1.0
	m.gainCursor = 0
	m.history = make([]float64, 0, historyCap)
	m.refHistory = make([]float64, 0, historyCap)
	m.effort = make([]float64, 0, historyCap)
	m.lastFrame = time.Time{}
	m.errMsg = ""
	m.running = true
	m.paused = false
}

func (m *model) reset() {
	m.plantSim = nil
	m.ctrl = nil
	m.output = 0
	m.simTime = 0
	m.history = nil
	m.refHistory = nil
	m.effort = nil
	m.errMsg = ""
}

func (m *model) nudgeGain(dir int) {
	if m.ctrl == nil {
		return
	}
	name := gainNames[m.gainCursor]
	delta := math.Max(0.05*m.params[name], 0.01)
	next := m.params[name] + float64(dir)*delta
	if next < 0 {
		next = 0
	}
	m.params[name] = next
	m.ctrl.SetGains(m.gains())
}

func (m *model) step() {
	u := m.ctrl.Compute(m.output, m.dt)
	m.output = m.plantSim.Step(u, m.dt)
	m.simTime += m.dt

	if math.IsNaN(m.output) || math.IsInf(m.output, 0) {
		m.errMsg = "response diverged, back the gains off and reset"
		m.paused = true
		return
	}

	m.history = append(m.history, m.output)
	m.refHistory = append(m.refHistory, m.ctrl.Setpoint())
	m.effort = append(m.effort, u)
	if len(m.history) > historyCap {
		m.history = m.history[1:]
		m.refHistory = m.refHistory[1:]
		m.effort = m.effort[1:]
	}
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateRun:
		return m.viewRun()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("p i d l a b") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.kinds {
		desc := kindInfo[name]
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-16s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-16s", name)) + dimmer.Render(desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter configure   q quit") + "\n")

	return b.String()
}

func (m model) viewConfig() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("      " + cyan.Render(m.selected) + "  " + dim.Render(kindInfo[m.selected]) + "\n")
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 30)) + "\n\n")

	for i, name := range m.paramNames {
		val := fmt.Sprintf("%8.3f", m.params[name])
		if m.editing && i == m.paramCursor {
			val = fmt.Sprintf("%8s", m.editBuf+"▋")
		}
		if i == m.paramCursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-10s", name)) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-10s", name)) + dim.Render(val) + "\n")
		}
	}

	if m.errMsg != "" {
		b.WriteString("\n      " + red.Render(m.errMsg) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select  ←→ adjust  enter edit  g suggest gains  s start  esc back") + "\n")

	return b.String()
}

func (m model) viewRun() string {
	cw := m.width - 10
	ch := m.height - 14
	if cw < 50 {
		cw = 50
	}
	if ch < 8 {
		ch = 8
	}

	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	if m.paused {
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s  %s\n\n",
		statusIcon, cyan.Render(m.selected), statusText,
		dim.Render(fmt.Sprintf("t=%.1fs", m.simTime)),
		dim.Render(fmt.Sprintf("%.0ffps x%.2g", m.fps, m.speed))))

	if len(m.history) > 1 {
		chart := asciigraph.PlotMany([][]float64{m.refHistory, m.history},
			asciigraph.Height(ch),
			asciigraph.Width(cw),
			asciigraph.SeriesColors(asciigraph.Gray, asciigraph.Cyan),
		)
		for _, line := range strings.Split(chart, "\n") {
			b.WriteString("   " + line + "\n")
		}
	} else {
		b.WriteString(dim.Render("   waiting for samples...") + "\n")
	}

	b.WriteString("\n")
	for i, name := range gainNames {
		val := fmt.Sprintf("%8.3f", m.params[name])
		if i == m.gainCursor {
			b.WriteString("   " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-4s", name)) + magenta.Render(val))
		} else {
			b.WriteString("     " + dim.Render(fmt.Sprintf("%-4s", name)) + dim.Render(val))
		}
	}
	b.WriteString("\n\n")

	if m.ctrl != nil {
		e := m.ctrl.Setpoint() - m.output
		b.WriteString("   " + dim.Render("ref=") + white.Render(fmt.Sprintf("%.2f", m.ctrl.Setpoint())) +
			dim.Render("  y=") + white.Render(fmt.Sprintf("%.3f", m.output)) +
			dim.Render("  e=") + white.Render(fmt.Sprintf("%+.3f", e)) + "\n")
	}

	if len(m.effort) > 1 {
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("u"), cyan.Render(sparkline(m.effort, 32))))
	}

	if m.errMsg != "" {
		b.WriteString("\n   " + red.Render(m.errMsg) + "\n")
	}

	b.WriteString("\n" + dim.Render("   ↑↓ gain  ←→ nudge  t setpoint  space pause  ± speed  r reset  c config  q quit") + "\n")

	return b.String()
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rng := maxVal - minVal
	if rng == 0 {
		rng = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		v := data[i*step]
		idx := int((v - minVal) / rng * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

// Run starts the interactive tuner and blocks until the user quits.
func Run() error {
	p := tea.NewProgram(newModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
