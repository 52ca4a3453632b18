// Package tui implements the classification monitoring dashboard.
package tui

import (
	"errors"
	"fmt"

	"github.com/Veraticus/koperasi/internal/analytics"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrNoSource is returned when the dashboard has nothing to read.
var ErrNoSource = errors.New("metrics source is required")

// Panel identifies one of the dashboard tables.
type Panel int

// Dashboard panels, in tab order.
const (
	PanelDaily Panel = iota
	PanelCategories
	PanelPatterns
	PanelConfidence
	panelCount
)

func (p Panel) String() string {
	switch p {
	case PanelDaily:
		return "Daily"
	case PanelCategories:
		return "Category accuracy"
	case PanelPatterns:
		return "Top patterns"
	case PanelConfidence:
		return "Confidence"
	}
	return "unknown"
}

// Model holds the dashboard state.
type Model struct {
	lastError error
	config    Config
	keymap    KeyMap
	help      help.Model
	tables    [panelCount]table.Model
	alerts    []analytics.Alert
	metrics   model.Metrics
	timeRange string
	width     int
	height    int
	focus     Panel
	loading   bool
	ready     bool
	quitting  bool
}

// newModel creates a dashboard with the given configuration.
func newModel(cfg Config) Model {
	m := Model{
		config:    cfg,
		keymap:    DefaultKeyMap(),
		help:      help.New(),
		timeRange: cfg.TimeRange,
		width:     cfg.Width,
		height:    cfg.Height,
		loading:   true,
	}

	styles := table.DefaultStyles()
	styles.Header = cfg.Theme.TableHeader
	styles.Selected = cfg.Theme.TableSelected
	for p := Panel(0); p < panelCount; p++ {
		t := table.New(table.WithColumns(columns(p)), table.WithHeight(m.tableHeight()))
		t.SetStyles(styles)
		m.tables[p] = t
	}
	m.tables[m.focus].Focus()
	return m
}

func columns(p Panel) []table.Column {
	switch p {
	case PanelDaily:
		return []table.Column{
			{Title: "Date", Width: 12},
			{Title: "Total", Width: 7},
			{Title: "Accurate", Width: 9},
			{Title: "Overrides", Width: 10},
			{Title: "Accuracy", Width: 9},
		}
	case PanelCategories:
		return []table.Column{
			{Title: "Category", Width: 24},
			{Title: "Suggested", Width: 10},
			{Title: "Accurate", Width: 9},
			{Title: "Accuracy", Width: 9},
		}
	case PanelPatterns:
		return []table.Column{
			{Title: "Pattern", Width: 28},
			{Title: "Used", Width: 6},
			{Title: "Accurate", Width: 9},
			{Title: "Accuracy", Width: 9},
		}
	default:
		return []table.Column{
			{Title: "Confidence", Width: 12},
			{Title: "Count", Width: 7},
			{Title: "Accurate", Width: 9},
			{Title: "Accuracy", Width: 9},
		}
	}
}

func (m Model) tableHeight() int {
	// Header, summary, alerts and help take roughly twelve lines.
	h := m.height - 12
	if h < 3 {
		h = 3
	}
	return h
}

// Init loads the first metrics.
func (m Model) Init() tea.Cmd {
	return loadMetrics(m.config.Source, m.timeRange)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		for p := range m.tables {
			m.tables[p].SetHeight(m.tableHeight())
		}
		return m, nil

	case metricsLoadedMsg:
		if msg.timeRange != m.timeRange {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.lastError = msg.err
			return m, nil
		}
		m.lastError = nil
		m.ready = true
		m.applyMetrics(msg.metrics)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keymap.NextPanel):
		m.setFocus((m.focus + 1) % panelCount)
		return m, nil
	case key.Matches(msg, m.keymap.PrevPanel):
		m.setFocus((m.focus + panelCount - 1) % panelCount)
		return m, nil
	case key.Matches(msg, m.keymap.Range7):
		return m.switchRange(analytics.Range7Days)
	case key.Matches(msg, m.keymap.Range30):
		return m.switchRange(analytics.Range30Days)
	case key.Matches(msg, m.keymap.Range90):
		return m.switchRange(analytics.Range90Days)
	case key.Matches(msg, m.keymap.Refresh):
		m.loading = true
		return m, loadMetrics(m.config.Source, m.timeRange)
	}

	var cmd tea.Cmd
	m.tables[m.focus], cmd = m.tables[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(p Panel) {
	m.tables[m.focus].Blur()
	m.focus = p
	m.tables[m.focus].Focus()
}

func (m Model) switchRange(timeRange string) (tea.Model, tea.Cmd) {
	if timeRange == m.timeRange && !m.loading {
		return m, nil
	}
	m.timeRange = timeRange
	m.loading = true
	return m, loadMetrics(m.config.Source, timeRange)
}

func (m *Model) applyMetrics(metrics model.Metrics) {
	m.metrics = metrics
	m.alerts = analytics.Alerts(metrics, m.config.Thresholds)

	daily := make([]table.Row, 0, len(metrics.DailyStats))
	for i := len(metrics.DailyStats) - 1; i >= 0; i-- {
		d := metrics.DailyStats[i]
		daily = append(daily, table.Row{
			d.Date.Format("2006-01-02"),
			fmt.Sprint(d.Classifications),
			fmt.Sprint(d.Accurate),
			fmt.Sprint(d.Overrides),
			percent(d.AccuracyRate, d.Classifications),
		})
	}
	m.tables[PanelDaily].SetRows(daily)

	categories := make([]table.Row, 0, len(metrics.CategoryAccuracy))
	for _, c := range metrics.CategoryAccuracy {
		name := "(no suggestion)"
		if c.CategoryID != 0 {
			name = m.config.CategoryName(c.CategoryID)
		}
		categories = append(categories, table.Row{
			name,
			fmt.Sprint(c.TotalSuggestions),
			fmt.Sprint(c.Accurate),
			percent(c.AccuracyRate, c.TotalSuggestions),
		})
	}
	m.tables[PanelCategories].SetRows(categories)

	patterns := make([]table.Row, 0, len(metrics.TopPatterns))
	for _, p := range metrics.TopPatterns {
		patterns = append(patterns, table.Row{
			p.PatternName,
			fmt.Sprint(p.UsageCount),
			fmt.Sprint(p.Accurate),
			percent(p.AccuracyRate, p.UsageCount),
		})
	}
	m.tables[PanelPatterns].SetRows(patterns)

	buckets := make([]table.Row, 0, len(metrics.ConfidenceDistribution))
	for _, b := range metrics.ConfidenceDistribution {
		buckets = append(buckets, table.Row{
			b.Label,
			fmt.Sprint(b.Count),
			fmt.Sprint(b.Accurate),
			percent(b.AccuracyRate, b.Count),
		})
	}
	m.tables[PanelConfidence].SetRows(buckets)
}

func percent(rate float64, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", rate)
}
