package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Deadolus/tschenggins-laempli/internal/logtail"
)

// logTailLines bounds how much of the log file the pane shows.
const logTailLines = 400

// loadLogCmd reads the tail of the lamp's log file.
func loadLogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Tail(path, logTailLines)
		if err != nil {
			return logErrorMsg{err: err}
		}
		return logLinesMsg(lines)
	}
}

// setLogContent styles and installs the fetched lines, keeping the view
// glued to the bottom while following.
func (m *Model) setLogContent(lines []string) {
	styles := m.theme.Styles()
	styled := make([]string, len(lines))
	for i, line := range lines {
		styled[i] = styleLogLine(line, styles)
	}
	m.logViewport.SetContent(strings.Join(styled, "\n"))
	if m.logFollow {
		m.logViewport.GotoBottom()
	}
}

// styleLogLine colors a log line by its level.
func styleLogLine(line string, styles Styles) string {
	switch logtail.LineLevel(line) {
	case logtail.LevelError:
		return styles.DangerText.Render(line)
	case logtail.LevelWarn:
		return styles.WarningText.Render(line)
	case logtail.LevelDebug:
		return styles.FaintText.Render(line)
	default:
		return styles.Text.Render(line)
	}
}

// renderLogs renders the log pane.
func (m Model) renderLogs() string {
	return m.logViewport.View()
}

// handleLogsKey processes keys in the log view: manual scrolling pauses
// follow mode, jumping to the bottom resumes it.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.logFollow = false
		m.logViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
		m.logFollow = m.logViewport.AtBottom()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.logFollow = false
		m.logViewport.HalfPageUp()
	case key.Matches(msg, m.keys.HalfPageDown):
		m.logViewport.HalfPageDown()
		m.logFollow = m.logViewport.AtBottom()
	case key.Matches(msg, m.keys.Top):
		m.logFollow = false
		m.logViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		m.logFollow = true
	}
	return m, nil
}
