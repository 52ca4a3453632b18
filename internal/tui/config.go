package tui

import (
	"context"
	"strconv"

	"github.com/Veraticus/koperasi/internal/analytics"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/Veraticus/koperasi/internal/tui/themes"
)

// MetricsSource produces dashboard metrics for a time range.
type MetricsSource interface {
	Analytics(ctx context.Context, timeRange string) (model.Metrics, error)
}

// Config holds the configuration for the dashboard.
type Config struct {
	Source       MetricsSource
	CategoryName func(id int64) string
	Theme        themes.Theme
	TimeRange    string
	Thresholds   analytics.Thresholds
	Width        int
	Height       int
}

// Option configures the dashboard.
type Option func(*Config)

// DefaultConfig returns the default dashboard configuration.
func DefaultConfig() Config {
	return Config{
		Theme:        themes.Default,
		TimeRange:    analytics.RangeDefault,
		Thresholds:   analytics.DefaultThresholds(),
		CategoryName: func(id int64) string { return "#" + strconv.FormatInt(id, 10) },
		Width:        100,
		Height:       30,
	}
}

// WithSource sets where metrics come from.
func WithSource(source MetricsSource) Option {
	return func(c *Config) {
		c.Source = source
	}
}

// WithTimeRange sets the initial time range.
func WithTimeRange(timeRange string) Option {
	return func(c *Config) {
		_, c.TimeRange = analytics.RangeDays(timeRange)
	}
}

// WithThresholds sets the alert thresholds.
func WithThresholds(t analytics.Thresholds) Option {
	return func(c *Config) {
		c.Thresholds = t
	}
}

// WithCategoryNames resolves category ids for display.
func WithCategoryNames(name func(id int64) string) Option {
	return func(c *Config) {
		if name != nil {
			c.CategoryName = name
		}
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}
