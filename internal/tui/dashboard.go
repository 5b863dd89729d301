package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/gaintune/internal/control"
	"github.com/san-kum/gaintune/internal/plant"
	"github.com/san-kum/gaintune/internal/tuner"
)

const historyLen = 120

// Controls reach the running engine. They are called from tea commands, so
// they may block until the driver applies them.
type Controls interface {
	SubmitOverride(text string) error
	SetRobustness(on bool) error
}

// SnapshotMsg carries the engine and plant state after a tick.
type SnapshotMsg struct {
	Tuner tuner.Snapshot
	Plant plant.Status
}

// DoneMsg reports the end of the run.
type DoneMsg struct {
	Err error
}

type overrideResultMsg struct {
	text string
	err  error
}

type robustnessMsg struct {
	on  bool
	err error
}

type Model struct {
	controls Controls
	input    textinput.Model
	editing  bool

	snap   tuner.Snapshot
	status plant.Status
	seen   bool

	errors    []float64
	durations []float64
	lastTrial int

	robustness bool
	message    string
	done       bool
	runErr     error
	width      int
}

func NewModel(controls Controls) Model {
	ti := textinput.New()
	ti.Placeholder = "kp, ki, kd"
	ti.Prompt = "override> "
	ti.CharLimit = 64
	ti.Width = 40
	return Model{
		controls: controls,
		input:    ti,
		width:    80,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.editKey(msg)
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case SnapshotMsg:
		m.observe(msg)
	case overrideResultMsg:
		if msg.err != nil {
			m.message = red.Render(msg.err.Error())
		} else {
			m.message = green.Render("override queued: " + msg.text)
		}
	case robustnessMsg:
		if msg.err != nil {
			m.message = red.Render(msg.err.Error())
		} else {
			m.robustness = msg.on
		}
	case DoneMsg:
		m.done = true
		m.runErr = msg.Err
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "o":
		if m.done {
			return m, nil
		}
		m.editing = true
		m.input.SetValue("")
		return m, m.input.Focus()
	case "r":
		if m.done {
			return m, nil
		}
		on := !m.robustness
		controls := m.controls
		return m, func() tea.Msg {
			return robustnessMsg{on: on, err: controls.SetRobustness(on)}
		}
	}
	return m, nil
}

func (m Model) editKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		m.editing = false
		m.input.Blur()
		if text == "" {
			return m, nil
		}
		controls := m.controls
		return m, func() tea.Msg {
			return overrideResultMsg{text: text, err: controls.SubmitOverride(text)}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) observe(msg SnapshotMsg) {
	m.snap = msg.Tuner
	m.status = msg.Plant
	m.seen = true

	if msg.Tuner.Phase == tuner.PhaseRunningTrial {
		m.errors = appendCapped(m.errors, msg.Tuner.Error, historyLen)
	}
	if msg.Tuner.Trial > m.lastTrial {
		m.lastTrial = msg.Tuner.Trial
		m.durations = appendCapped(m.durations, float64(msg.Tuner.LastDuration), historyLen)
	}
}

func appendCapped(xs []float64, v float64, limit int) []float64 {
	xs = append(xs, v)
	if len(xs) > limit {
		xs = xs[len(xs)-limit:]
	}
	return xs
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString("\n  " + title.Render("GAINTUNE") + "  " + dim.Render("evolutionary pid tuning") + "\n\n")

	if !m.seen {
		b.WriteString("  " + dim.Render("waiting for first tick...") + "\n")
		return b.String()
	}

	s := m.snap
	left := strings.Join([]string{
		row("plant", m.status.Name),
		row("phase", phaseStyle(s.Phase).Render(s.Phase.String())),
		row("trial", fmt.Sprintf("%d / %d", s.Trial, s.MaxTrials)),
		row("slot", fmt.Sprintf("%d", s.Slot)),
		row("tick", fmt.Sprintf("%d (settled %d)", s.Tick, s.WithinTolerance)),
		row("position", fmt.Sprintf("%.2f -> %.2f", m.status.Position, m.status.Target)),
		row("output", fmt.Sprintf("%+.3f", m.status.Output)),
	}, "\n")

	right := strings.Join([]string{
		row("best", gains(s.Best)+dim.Render(fmt.Sprintf("  %.1f ticks", s.BestDuration))),
		row("testing", gains(s.Testing)),
		row("running", gains(s.Running)),
		row("delta", fmt.Sprintf("%+.4g, %+.4g, %+.4g", s.Delta.P, s.Delta.I, s.Delta.D)),
		row("last", fmt.Sprintf("%d ticks", s.LastDuration)),
		row("search", m.searchMode()),
		row("flags", m.flags()),
	}, "\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panel.Render(left), " ", panel.Render(right)))
	b.WriteString("\n\n")

	if len(m.errors) > 1 {
		b.WriteString(asciigraph.Plot(m.errors, asciigraph.Height(6), asciigraph.Width(60), asciigraph.Caption("error")))
		b.WriteString("\n\n")
	}
	if len(m.durations) > 1 {
		b.WriteString(asciigraph.Plot(m.durations, asciigraph.Height(4), asciigraph.Width(60), asciigraph.Caption("trial duration")))
		b.WriteString("\n\n")
	}

	switch {
	case m.done && m.runErr != nil:
		b.WriteString("  " + red.Render("stopped: "+m.runErr.Error()) + "\n")
	case m.done:
		b.WriteString("  " + green.Render("tuning finished") + "\n")
	}
	if m.editing {
		b.WriteString("  " + m.input.View() + "\n")
	} else if m.message != "" {
		b.WriteString("  " + m.message + "\n")
	}
	b.WriteString("\n  " + dim.Render("o override  r robustness  q quit") + "\n")
	return b.String()
}

func (m Model) searchMode() string {
	if m.snap.Probing {
		return cyan.Render("coordinate probe")
	}
	return magenta.Render("random mutation")
}

func (m Model) flags() string {
	var f []string
	if m.snap.OverridePending {
		f = append(f, yellow.Render("override queued"))
	}
	if m.snap.OverrideActive {
		f = append(f, yellow.Render("override running"))
	}
	if m.snap.Robustness || m.robustness {
		f = append(f, magenta.Render("robustness"))
	}
	if m.status.Resetting {
		f = append(f, dim.Render("resetting"))
	}
	if len(f) == 0 {
		return dim.Render("-")
	}
	return strings.Join(f, " ")
}

func row(label, value string) string {
	return dim.Render(fmt.Sprintf("%-9s", label)) + white.Render(value)
}

func gains(g control.Gains) string {
	return fmt.Sprintf("%.4g, %.4g, %.4g", g.Kp, g.Ki, g.Kd)
}

func phaseStyle(p tuner.Phase) lipgloss.Style {
	switch p {
	case tuner.PhaseRunningTrial:
		return green
	case tuner.PhaseTerminated:
		return red
	case tuner.PhaseEvaluating:
		return cyan
	default:
		return yellow
	}
}

// Feed forwards snapshots to a program at most fps times per second.
type Feed struct {
	send     func(tea.Msg)
	snapshot func() SnapshotMsg
	interval time.Duration
	last     time.Time
}

func NewFeed(send func(tea.Msg), snapshot func() SnapshotMsg, fps int) *Feed {
	if fps <= 0 {
		fps = 30
	}
	return &Feed{send: send, snapshot: snapshot, interval: time.Second / time.Duration(fps)}
}

// OnTick implements sim.Observer.
func (f *Feed) OnTick(int) {
	if time.Since(f.last) < f.interval {
		return
	}
	f.last = time.Now()
	f.send(f.snapshot())
}

// Flush sends the current state regardless of rate.
func (f *Feed) Flush() {
	f.last = time.Now()
	f.send(f.snapshot())
}

// NewProgram builds the full-screen dashboard program.
func NewProgram(m Model, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
}
