package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jietuba/longstitch/internal/stitch"
)

type Model struct {
	events   <-chan stitch.Event
	started  time.Time
	accepted int
	rejected int
	length   int
	reason   string
	quitting bool
}

type doneMsg struct{}

type eventMsg stitch.Event

func NewModel(events <-chan stitch.Event) Model {
	return Model{events: events, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForEvents(m.events)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		ev := stitch.Event(msg)
		switch ev.Type {
		case stitch.EventProgress:
			m.accepted++
			m.length = ev.Length
		case stitch.EventRejected:
			m.rejected++
			m.reason = string(ev.Reason)
		case stitch.EventFinalized:
			m.length = ev.Length
			m.quitting = true
			return m, tea.Quit
		case stitch.EventAborted:
			m.reason = string(ev.Reason)
			m.quitting = true
			return m, tea.Quit
		}
		return m, listenForEvents(m.events)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	elapsed := time.Since(m.started).Round(time.Millisecond)

	lines := []string{
		titleStyle.Render("longstitch"),
		labelStyle.Render("Frames: ") + okStyle.Render(fmt.Sprintf("%d accepted", m.accepted)) + dimStyle.Render(fmt.Sprintf("  skipped:%d", m.rejected)),
		labelStyle.Render(fmt.Sprintf("Composite: %d rows", m.length)),
	}
	if m.reason != "" {
		lines = append(lines, warnStyle.Render("Last skip: "+m.reason))
	}
	lines = append(lines, dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)))

	return strings.Join(lines, "\n")
}

func listenForEvents(events <-chan stitch.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
	okStyle    = lipgloss.NewStyle().Foreground(ColorSuccess)
	warnStyle  = lipgloss.NewStyle().Foreground(ColorWarn)
)
