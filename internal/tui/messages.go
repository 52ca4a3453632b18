package tui

import (
	"context"
	"time"

	"github.com/Veraticus/koperasi/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

const loadTimeout = 10 * time.Second

type metricsLoadedMsg struct {
	err       error
	timeRange string
	metrics   model.Metrics
}

// loadMetrics reads metrics for timeRange from the source.
func loadMetrics(source MetricsSource, timeRange string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		metrics, err := source.Analytics(ctx, timeRange)
		return metricsLoadedMsg{metrics: metrics, err: err, timeRange: timeRange}
	}
}
