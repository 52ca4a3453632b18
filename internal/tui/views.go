package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const barWidth = 20

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	theme := m.config.Theme
	sections := []string{m.renderHeader()}

	switch {
	case m.lastError != nil:
		sections = append(sections, theme.StatusError.Render("Error: "+m.lastError.Error()))
	case !m.ready:
		sections = append(sections, theme.Subtitle.Render("Loading metrics..."))
	default:
		sections = append(sections, m.renderSummary())
		if alerts := m.renderAlerts(); alerts != "" {
			sections = append(sections, alerts)
		}
		sections = append(sections, m.renderPanel())
	}

	sections = append(sections, m.help.View(m.keymap))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	theme := m.config.Theme
	title := theme.Title.Render("Koperasi classification dashboard")

	var ranges []string
	for _, r := range []string{"7d", "30d", "90d"} {
		label := r
		if r == m.timeRange {
			label = theme.Bold.Render("[" + r + "]")
		}
		ranges = append(ranges, label)
	}

	status := ""
	if m.loading && m.ready {
		status = theme.Subtitle.Render(" refreshing...")
	}
	return title + "  " + strings.Join(ranges, " ") + status
}

func (m Model) renderSummary() string {
	theme := m.config.Theme
	mt := m.metrics

	window := fmt.Sprintf("%s to %s",
		mt.WindowStart.Format("2006-01-02"), mt.WindowEnd.Format("2006-01-02 15:04"))

	lines := []string{
		theme.Subtitle.Render(window),
		fmt.Sprintf("Classifications: %s   Accurate: %s   Overrides: %s",
			theme.Bold.Render(fmt.Sprint(mt.TotalClassifications)),
			theme.Bold.Render(fmt.Sprint(mt.AccurateClassifications)),
			theme.Bold.Render(fmt.Sprint(mt.ManualOverrides))),
		fmt.Sprintf("Accuracy:  %s %5.1f%%", m.bar(mt.AccuracyRate), mt.AccuracyRate),
		fmt.Sprintf("Overrides: %s %5.1f%%", m.bar(mt.OverrideRate), mt.OverrideRate),
		fmt.Sprintf("Average confidence: %.1f", mt.AvgConfidenceScore),
	}
	return theme.Box.Render(strings.Join(lines, "\n"))
}

func (m Model) bar(rate float64) string {
	filled := int(rate / 100 * barWidth)
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	theme := m.config.Theme
	return theme.ProgressFull.Render(strings.Repeat("█", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat("░", barWidth-filled))
}

func (m Model) renderAlerts() string {
	if len(m.alerts) == 0 {
		if m.metrics.TotalClassifications > 0 {
			return m.config.Theme.StatusSuccess.Render("No alerts")
		}
		return ""
	}
	lines := make([]string, 0, len(m.alerts))
	for _, a := range m.alerts {
		lines = append(lines, m.config.Theme.StatusWarning.Render("⚠ "+a.Message))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderPanel() string {
	theme := m.config.Theme

	var tabs []string
	for p := Panel(0); p < panelCount; p++ {
		label := p.String()
		if p == m.focus {
			label = theme.Bold.Render("▸ " + label)
		} else {
			label = theme.Subtitle.Render("  " + label)
		}
		tabs = append(tabs, label)
	}

	body := m.tables[m.focus].View()
	if len(m.tables[m.focus].Rows()) == 0 {
		body = theme.Subtitle.Render("No data in this window")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		strings.Join(tabs, "  "),
		theme.FocusedBox.Render(body))
}
