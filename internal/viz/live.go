package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/chainsim/internal/dynamics"
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	canvasWidth     = 60
	canvasHeight    = 22
	historyCapacity = 600
	frameRate       = 60
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Snapshot is one recorded frame for time travel.
type Snapshot struct {
	State  dynamo.State
	Time   float64
	Energy float64
}

// param is a tunable multiplier applied to the base system.
type param struct {
	name  string
	value float64
}

// Model is a bubbletea model that either simulates a system live or replays
// precomputed body frames.
type Model struct {
	base, sys *dynamo.System
	initial   dynamo.State
	state     dynamo.State
	t         float64
	perFrame  int

	frames [][]spatial.Transform
	frame  int

	params   []param
	selected int

	canvas *Canvas
	camera *Camera
	theme  Theme

	energy   []float64
	history  []Snapshot
	playHead int

	running  bool
	showHelp bool
	ticks    int
	err      error
}

// NewModel simulates sys from st in real time.
func NewModel(sys *dynamo.System, st dynamo.State) Model {
	st, err := dynamics.Kinematics(sys, st)
	return Model{
		base:     sys,
		sys:      sys,
		initial:  st,
		state:    st,
		perFrame: max(1, int(math.Round(1/(frameRate*sys.Dt)))),
		params:   []param{{"damping", 1}, {"gravity", 1}},
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		camera:   NewCamera(),
		theme:    Themes[0],
		energy:   make([]float64, 0, historyCapacity),
		history:  make([]Snapshot, 0, historyCapacity),
		playHead: -1,
		running:  true,
		err:      err,
	}
}

// NewReplay plays frames of sys, one row of world transforms per sample,
// for example a generated motion.
func NewReplay(sys *dynamo.System, frames [][]spatial.Transform) Model {
	return Model{
		base:     sys,
		sys:      sys,
		frames:   frames,
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		camera:   NewCamera(),
		theme:    Themes[0],
		playHead: -1,
		running:  true,
	}
}

func (m Model) replaying() bool { return m.frames != nil }

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "tab":
			if len(m.params) > 0 {
				m.selected = (m.selected + 1) % len(m.params)
			}
		case "up", "k":
			m.tune(1.05)
		case "down", "j":
			m.tune(0.95)
		case "left", "h":
			m.camera.Orbit(-0.1, 0)
		case "right", "l":
			m.camera.Orbit(0.1, 0)
		case "w":
			m.camera.Orbit(0, 0.1)
		case "s":
			m.camera.Orbit(0, -0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "t":
			m.theme = nextTheme(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		m.ticks++
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance() {
	if m.replaying() {
		if m.frame < len(m.frames)-1 {
			m.frame++
		} else {
			m.running = false
		}
		return
	}
	if m.playHead != -1 {
		m.playHead++
		if m.playHead >= len(m.history) {
			m.playHead = -1
		}
		return
	}
	if m.err != nil {
		m.running = false
		return
	}
	for range m.perFrame {
		next, err := dynamics.Step(m.sys, m.state)
		if err == nil && !next.IsValid() {
			err = dynamo.ErrUnstable
		}
		if err != nil {
			m.err = err
			m.running = false
			return
		}
		m.state = next
		m.t += m.sys.Dt
	}
	m.record()
}

func (m *Model) record() {
	kin, pot, err := dynamics.Energy(m.sys, m.state)
	if err != nil {
		m.err = err
		return
	}
	e := kin + pot
	m.energy = appendCapped(m.energy, e)
	m.history = appendCapped(m.history, Snapshot{State: m.state, Time: m.t, Energy: e})
}

func appendCapped[T any](s []T, v T) []T {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

// scrub moves the playback position through the recorded history.
func (m *Model) scrub(dir int) {
	if m.replaying() {
		m.frame = min(max(m.frame+dir, 0), len(m.frames)-1)
		m.running = false
		return
	}
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead = max(m.playHead+dir, 0)
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// tune scales the selected parameter and rebuilds the system from the base.
func (m *Model) tune(factor float64) {
	if m.replaying() || len(m.params) == 0 {
		return
	}
	m.params[m.selected].value *= factor
	sys, err := m.derive()
	if err != nil {
		m.err = err
		return
	}
	m.sys = sys
}

func (m *Model) derive() (*dynamo.System, error) {
	var fields []dynamo.Field
	for _, p := range m.params {
		switch p.name {
		case "damping":
			d := m.base.Damping()
			for i := range d {
				d[i] *= p.value
			}
			fields = append(fields, dynamo.WithDamping(d))
		case "gravity":
			fields = append(fields, dynamo.WithGravity(r3.Scale(p.value, m.base.Gravity)))
		}
	}
	return m.base.Replace(fields...)
}

func (m *Model) reset() {
	m.t = 0
	m.frame = 0
	m.state = m.initial
	m.energy = m.energy[:0]
	m.history = m.history[:0]
	m.playHead = -1
	m.err = nil
	m.sys = m.base
	for i := range m.params {
		m.params[i].value = 1
	}
	m.running = true
}

// current returns the body frames and time on screen.
func (m Model) current() ([]spatial.Transform, float64) {
	if m.replaying() {
		if len(m.frames) == 0 {
			return nil, 0
		}
		return m.frames[m.frame], float64(m.frame) * m.sys.Dt
	}
	if m.playHead >= 0 && m.playHead < len(m.history) {
		snap := m.history[m.playHead]
		return snap.State.X, snap.Time
	}
	return m.state.X, m.t
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return "FAILED"
	case m.replaying() && !m.running:
		return "REPLAY PAUSED"
	case m.replaying():
		return "REPLAY " + spinner[m.ticks%len(spinner)]
	case m.playHead != -1:
		return fmt.Sprintf("REWIND (%.2fs)", m.history[m.playHead].Time-m.t)
	case !m.running:
		return "PAUSED"
	}
	return "RUNNING " + spinner[m.ticks%len(spinner)]
}

func (m Model) View() string {
	st := stylesFor(m.theme)
	x, t := m.current()

	m.canvas.Clear()
	if x != nil {
		Render(m.canvas, m.camera, Skeleton(m.sys, x))
	}

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.sys.Name)) + "\n")
	s.WriteString(m.status() + "\n\n")
	if m.err != nil {
		s.WriteString(st.err.Render(m.err.Error()) + "\n\n")
	}

	s.WriteString(st.label.Render("Time") + st.value.Render(fmt.Sprintf("%.2fs", t)) + "\n")
	s.WriteString(st.label.Render("Bodies") + st.value.Render(fmt.Sprintf("%d", m.sys.NumBodies())) + "\n")
	s.WriteString(st.label.Render("DoF") + st.value.Render(fmt.Sprintf("%d", m.sys.QDSize())) + "\n")

	if m.replaying() {
		frac := 0.0
		if len(m.frames) > 1 {
			frac = float64(m.frame) / float64(len(m.frames)-1)
		}
		s.WriteString("\n" + st.progressBar(frac, 30) + "\n")
	} else {
		if len(m.energy) > 1 {
			chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
			s.WriteString(st.graph.Render(chart) + "\n")
			s.WriteString(st.label.Render("Energy") + st.value.Render(fmt.Sprintf("%.3f J", m.energy[len(m.energy)-1])) + "\n")
		}
		s.WriteString("\nPARAMETERS\n")
		for i, p := range m.params {
			line := fmt.Sprintf("%-8s x%.2f", p.name, p.value)
			if i == m.selected {
				s.WriteString(st.active.Render("> "+line) + "\n")
			} else {
				s.WriteString("  " + st.label.Render(line) + "\n")
			}
		}
	}
	s.WriteString(st.muted.Render("\nSP:Pause R:Reset Q:Quit ?:Help"))

	view := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Padding(1, 2).Render(m.canvas.String()),
		st.panel.Render(s.String()))
	if m.showHelp {
		return help + "\n" + view
	}
	return view
}

const help = `  Space      pause / resume
  R          reset
  Tab        next parameter
  Up/Down    scale parameter by 5%
  [ ]        time travel
  Left/Right orbit camera
  W/S        tilt camera
  + -        zoom
  T          next theme
  Q          quit
`
