package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/conspect/internal/logtail"
)

// logState holds all log-related state.
type logState struct {
	follow bool
	level  string // minimum level shown; "" shows everything
	lines  []string
	err    error

	// Content caching - skip re-render when unchanged
	contentVersion uint64
	lastRendered   uint64
}

// logLinesMsg carries a fresh tail of the client log.
type logLinesMsg struct {
	lines []string
	err   error
}

// refreshLogs reads the tail of the client log off the UI goroutine.
func (m Model) refreshLogs() tea.Cmd {
	if m.config == nil {
		return nil
	}
	path := m.config.LogPath()
	level := m.logState.level
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogTailLines)
		if err != nil {
			return logLinesMsg{err: err}
		}
		return logLinesMsg{lines: logtail.FilterLevel(lines, level)}
	}
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.logState.err = msg.err
	if msg.err == nil && !slices.Equal(m.logState.lines, msg.lines) {
		m.logState.lines = msg.lines
		m.logState.contentVersion++
	}
	m.updateLogViewport()
}

func (m *Model) initLogViewport() {
	m.logViewport = viewport.New(max(m.width-4, 0), max(m.height-7, 0))
}

// resizeLogViewport fits the viewport to the box below the header, command
// bar and log status line.
func (m *Model) resizeLogViewport() {
	m.logViewport.Width = max(m.width-4, 0)
	m.logViewport.Height = max(m.height-7, 0)
	m.logState.lastRendered = 0
}

// updateLogViewport updates the log viewport with current content.
func (m *Model) updateLogViewport() {
	if m.logViewport.Width == 0 {
		return
	}
	if m.logState.lastRendered == 0 || m.logState.contentVersion != m.logState.lastRendered {
		m.logViewport.SetContent(m.renderLogContent())
		m.logState.lastRendered = max(m.logState.contentVersion, 1)
	}
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.CycleLevel):
		m.logState.level = nextLogLevel(m.logState.level)
		return m, m.refreshLogs()
	case key.Matches(msg, m.keys.Bottom):
		m.logState.follow = true
		m.logViewport.GotoBottom()
	case key.Matches(msg, m.keys.Top):
		m.logState.follow = false
		m.logViewport.GotoTop()
	case key.Matches(msg, m.keys.Up):
		m.logState.follow = false
		m.logViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
		m.logState.follow = m.logViewport.AtBottom()
	case key.Matches(msg, m.keys.PageUp):
		m.logState.follow = false
		m.logViewport.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.logViewport.PageDown()
		m.logState.follow = m.logViewport.AtBottom()
	}
	return m, nil
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()

	status := []string{
		styles.PanelTitle.Render("Client log"),
		styles.MutedText.Render("level " + logLevelLabel(m.logState.level)),
	}
	if m.logState.follow {
		status = append(status, styles.SuccessText.Render("following"))
	} else {
		status = append(status, styles.FaintText.Render("paused (G to follow)"))
	}
	if m.config != nil {
		status = append(status, styles.FaintText.Render(truncateMiddle(m.config.LogPath(), 50)))
	}

	body := m.logViewport.View()
	switch {
	case m.logState.err != nil:
		body = styles.DangerText.Render(fmt.Sprintf("Cannot read log: %v", m.logState.err))
	case len(m.logState.lines) == 0:
		body = styles.FaintText.Render("No log lines yet.")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		" "+strings.Join(status, styles.FaintText.Render("  ·  ")),
		styles.PanelFocus.Width(max(m.width-2, 0)).Render(body),
	)
}

// renderLogContent colors each line by its level.
func (m Model) renderLogContent() string {
	styles := m.theme.Styles()
	out := make([]string, 0, len(m.logState.lines))
	for _, line := range m.logState.lines {
		line = truncate(line, m.logViewport.Width)
		out = append(out, m.levelStyle(logtail.Level(line), styles).Render(line))
	}
	return strings.Join(out, "\n")
}

func (m Model) levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "ERROR":
		return styles.DangerText
	case "WARN":
		return styles.WarningText
	case "DEBUG":
		return styles.FaintText
	default:
		return styles.Text
	}
}
