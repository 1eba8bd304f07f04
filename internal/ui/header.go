package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Deadolus/tschenggins-laempli/internal/status"
	"github.com/Deadolus/tschenggins-laempli/internal/wifi"
)

// renderHeader renders the two header lines: the status bar and the key
// hint bar.
func (m Model) renderHeader() string {
	return m.renderStatusBar() + "\n" + m.renderHintBar()
}

func (m Model) renderStatusBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{
		bg.Render("LÄMPLI", styles.Logo),
		bg.Render(m.stationName, styles.MutedText),
		bg.Render(m.supState.String(), m.stateStyle(m.supState, styles)),
	}
	if m.backendHost != "" {
		parts = append(parts, bg.Render(m.backendHost, styles.Text))
	}

	parts = append(parts, m.ledIndicator(styles, bg))

	if noise, ok := lastNoise(m.boardSnap); ok {
		parts = append(parts, bg.Render("♪ "+noise.String(), styles.InfoText))
	}

	worst := worstLabel(m.jobs.Jobs)
	parts = append(parts,
		bg.Render(fmt.Sprintf("%d/%d jobs", len(m.jobs.Jobs), m.maxChannels), styles.MutedText),
		styles.ResultStyle(worst).Render(worst),
	)
	if m.bell {
		parts = append(parts, bg.Render("bell", styles.FaintText))
	}

	line := strings.Join(parts, bg.Spaces(2))
	return bg.FillLine(bg.Space()+line, m.width)
}

// ledIndicator renders the lamp's LED mode as a colored dot. The heartbeat
// mode pulses with the tick counter, like the device's slow breathing LED.
func (m Model) ledIndicator(styles Styles, bg BgStyle) string {
	dot := "●"
	switch m.boardSnap.LED {
	case status.LEDFail:
		return bg.Render(dot+" fail", styles.DangerText)
	case status.LEDHeartbeat:
		style := styles.SuccessText
		if m.frame%2 == 1 {
			style = styles.FaintText
		}
		return bg.Render(dot+" heartbeat", style)
	default:
		return bg.Render(dot+" update", styles.WarningText)
	}
}

func (m Model) stateStyle(st wifi.State, styles Styles) lipgloss.Style {
	switch st {
	case wifi.StateConnected:
		return styles.SuccessText
	case wifi.StateFail:
		return styles.DangerText
	case wifi.StateOnline:
		return styles.WarningText
	default:
		return styles.MutedText
	}
}

func (m Model) renderHintBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.SurfaceAlt)

	hints := []string{"l logs", "tab lamp/logs", "b bell", "T theme", "h help", "q quit"}
	var parts []string
	for _, hint := range hints {
		k, rest, _ := strings.Cut(hint, " ")
		parts = append(parts, bg.Render(k, styles.WarningText)+bg.Space()+bg.Render(rest, styles.MutedText))
	}
	line := strings.Join(parts, bg.Spaces(3))
	return bg.FillLine(bg.Space()+line, m.width)
}

// lastNoise returns the most recent noise cue, if any.
func lastNoise(snap status.Snapshot) (status.Noise, bool) {
	if len(snap.Events) == 0 {
		return 0, false
	}
	return snap.Events[len(snap.Events)-1].Noise, true
}
