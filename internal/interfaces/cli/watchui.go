// Package cli holds the interactive terminal surfaces of the bundlekit CLI.
package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bundlekit/bundlekit/internal/watchhost"
)

const maxStatusLines = 12

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	buildingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	okStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	failedStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	footerStyle   = lipgloss.NewStyle().Faint(true)
)

// WatchModel is the Bubble Tea model behind `bundlekit watch --tui`. It
// renders the host's phase changes as a rolling status view.
type WatchModel struct {
	statuses <-chan watchhost.Status
	cancel   func()

	state      string
	lines      []string
	lastUpdate time.Time
	builds     int
	failures   int
}

// NewWatchModel creates a model fed by the given status channel. cancel is
// invoked when the user quits, so the watch loop shuts down with the UI.
func NewWatchModel(statuses <-chan watchhost.Status, cancel func()) WatchModel {
	return WatchModel{
		statuses: statuses,
		cancel:   cancel,
		state:    "starting",
	}
}

type statusMsg watchhost.Status

type tickMsg time.Time

func (m WatchModel) waitForStatus() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-m.statuses
		if !ok {
			return tea.Quit()
		}
		return statusMsg(s)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements the Bubble Tea init method.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.waitForStatus(), tickCmd())
}

// Update implements the Bubble Tea update method.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case tickMsg:
		return m, tickCmd()

	case statusMsg:
		m.state = msg.Kind
		m.lastUpdate = msg.At
		switch msg.Kind {
		case "built":
			m.builds++
		case "failed":
			m.failures++
		}
		m.lines = append(m.lines, renderStatusLine(watchhost.Status(msg)))
		if len(m.lines) > maxStatusLines {
			m.lines = m.lines[len(m.lines)-maxStatusLines:]
		}
		return m, m.waitForStatus()
	}

	return m, nil
}

// View implements the Bubble Tea view method.
func (m WatchModel) View() string {
	header := lipgloss.JoinHorizontal(lipgloss.Left,
		titleStyle.Render("bundlekit watch"),
		"  ",
		m.renderState(),
		"  ",
		fmt.Sprintf("builds: %d  failures: %d", m.builds, m.failures),
	)

	body := ""
	for _, line := range m.lines {
		body += line + "\n"
	}

	footer := footerStyle.Render("q: quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, footer)
}

func (m WatchModel) renderState() string {
	switch m.state {
	case "building":
		return buildingStyle.Render("BUILDING")
	case "failed":
		return failedStyle.Render("FAILED")
	case "built", "watching":
		return okStyle.Render("WATCHING")
	default:
		return footerStyle.Render("STARTING")
	}
}

func renderStatusLine(s watchhost.Status) string {
	stamp := s.At.Format("15:04:05")
	switch s.Kind {
	case "building":
		return fmt.Sprintf("%s  build started", stamp)
	case "built":
		return fmt.Sprintf("%s  build finished (%s)", stamp, s.Detail)
	case "failed":
		return fmt.Sprintf("%s  build failed: %v", stamp, s.Err)
	case "watching":
		return fmt.Sprintf("%s  watching for changes", stamp)
	default:
		return fmt.Sprintf("%s  %s", stamp, s.Kind)
	}
}
