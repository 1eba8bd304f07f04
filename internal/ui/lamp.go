package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Deadolus/tschenggins-laempli/internal/jenkins"
)

const (
	cellWidth  = 22
	cellHeight = 3
	cellGap    = 1
)

// renderLamp renders the channel grid: one cell per channel, colored by the
// job's last result, pulsing while the job runs.
func (m Model) renderLamp() string {
	styles := m.theme.Styles()

	cols := m.lampColumns()
	cells := make([]string, 0, m.maxChannels)
	for ch := 0; ch < m.maxChannels; ch++ {
		cells = append(cells, m.renderCell(ch, styles))
	}

	var rows []string
	for start := 0; start < len(cells); start += cols {
		end := start + cols
		if end > len(cells) {
			end = len(cells)
		}
		row := lipgloss.JoinHorizontal(lipgloss.Top, joinWithGap(cells[start:end])...)
		rows = append(rows, row)
	}

	grid := strings.Join(rows, "\n\n")
	if m.jobs.Jobs == nil {
		note := styles.MutedText.Render("waiting for the first status from the backend")
		grid += "\n\n" + note
	}
	return m.clampLines(grid)
}

// lampColumns picks how many cells fit one row.
func (m Model) lampColumns() int {
	cols := (m.width + cellGap) / (cellWidth + cellGap)
	if cols < 1 {
		cols = 1
	}
	if cols > m.maxChannels {
		cols = m.maxChannels
	}
	return cols
}

func joinWithGap(cells []string) []string {
	out := make([]string, 0, len(cells)*2)
	for i, c := range cells {
		if i > 0 {
			out = append(out, strings.Repeat(" ", cellGap))
		}
		out = append(out, c)
	}
	return out
}

// renderCell renders one channel. Channels beyond the received job list are
// switched off.
func (m Model) renderCell(ch int, styles Styles) string {
	var info jenkins.Info
	if ch < len(m.jobs.Jobs) {
		info = m.jobs.Jobs[ch]
	}

	color := styles.ResultColor(info.Result.String())
	if info.State == jenkins.StateOff || (ch >= len(m.jobs.Jobs)) {
		color = styles.ResultColor("off")
	}

	// A running job pulses between its result color and the faint border.
	border := lipgloss.NormalBorder()
	borderColor := color
	if info.State == jenkins.StateRunning && m.frame%2 == 1 {
		borderColor = m.theme.Faint
	}

	cell := lipgloss.NewStyle().
		Border(border).
		BorderForeground(lipgloss.Color(borderColor)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(cellWidth - 2).
		Height(cellHeight - 2).
		Padding(0, 1)

	return cell.Render(cellBody(ch, info, m.jobs.Jobs, styles))
}

// cellBody builds the two text lines inside a channel cell.
func cellBody(ch int, info jenkins.Info, jobs []jenkins.Info, styles Styles) string {
	if ch >= len(jobs) {
		return styles.FaintText.Render(fmt.Sprintf("ch %d", ch))
	}
	title := truncateCell(info.Job, cellWidth-4)
	sub := truncateCell(info.Server, cellWidth-4)
	line2 := styles.MutedText.Render(sub) + " " +
		styles.ResultStyle(info.Result.String()).Render(stateMark(info.State))
	return styles.Text.Render(title) + "\n" + line2
}

// stateMark is the one-character state tag in a channel cell.
func stateMark(st jenkins.State) string {
	switch st {
	case jenkins.StateRunning:
		return "▶"
	case jenkins.StateIdle:
		return "■"
	case jenkins.StateOff:
		return "·"
	default:
		return "?"
	}
}

func truncateCell(s string, width int) string {
	if width < 1 {
		return ""
	}
	if len(s) <= width {
		return s
	}
	if width <= 1 {
		return s[:width]
	}
	return s[:width-1] + "…"
}

func worstLabel(jobs []jenkins.Info) string {
	return jenkins.Worst(jobs).String()
}
