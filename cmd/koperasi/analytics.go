package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/koperasi/internal/analytics"
	"github.com/Veraticus/koperasi/internal/cli"
	"github.com/Veraticus/koperasi/internal/config"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/Veraticus/koperasi/internal/tui"
	"github.com/Veraticus/koperasi/internal/tui/themes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func analyticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show classification accuracy and override metrics",
		Long: `Summarise the classification ledger over a time window: how often the
suggested category was kept, which categories and patterns are trusted, and
how accuracy varies with confidence.

Ranges: 7d, 30d, 90d, last_30_days. Unknown ranges fall back to 30d.`,
		RunE: runAnalytics,
	}

	cmd.Flags().StringP("range", "r", analytics.RangeDefault, "time range (7d, 30d, 90d, last_30_days)")
	cmd.Flags().Bool("tui", false, "open the interactive dashboard")
	cmd.Flags().Bool("json", false, "print the metrics as JSON")
	cmd.Flags().Bool("plain", false, "dashboard without colors, for limited terminals")

	return cmd
}

func runAnalytics(cmd *cobra.Command, _ []string) error {
	timeRange, _ := cmd.Flags().GetString("range")
	interactive, _ := cmd.Flags().GetBool("tui")
	asJSON, _ := cmd.Flags().GetBool("json")
	plain, _ := cmd.Flags().GetBool("plain")

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer closeStore(a)

	categories, err := a.store.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	name := categoryNamer(categories)
	thresholds := config.Thresholds(viper.GetViper())

	if interactive {
		theme := themes.Default
		if plain {
			theme = themes.Plain
		}
		return tui.Run(ctx,
			tui.WithSource(a.engine),
			tui.WithTimeRange(timeRange),
			tui.WithThresholds(thresholds),
			tui.WithCategoryNames(name),
			tui.WithTheme(theme),
		)
	}

	metrics, err := a.engine.Analytics(ctx, timeRange)
	if err != nil {
		return fmt.Errorf("failed to compute analytics: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(metrics)
	}
	return printMetrics(out, metrics, thresholds, name)
}

func printMetrics(out io.Writer, m model.Metrics, t analytics.Thresholds, name func(int64) string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Window:          %s to %s\n", m.WindowStart.Format(dateLayout), m.WindowEnd.Format(dateLayout))
	fmt.Fprintf(&b, "Classifications: %d\n", m.TotalClassifications)
	fmt.Fprintf(&b, "Accuracy:        %.1f%% (%d kept)\n", m.AccuracyRate, m.AccurateClassifications)
	fmt.Fprintf(&b, "Overrides:       %.1f%% (%d)\n", m.OverrideRate, m.ManualOverrides)
	fmt.Fprintf(&b, "Avg confidence:  %.1f", m.AvgConfidenceScore)
	fmt.Fprintln(out, cli.RenderBox("Classification analytics ("+m.TimeRange+")", b.String()))

	for _, alert := range analytics.Alerts(m, t) {
		fmt.Fprintln(out, cli.FormatWarning(alert.Message))
	}
	if m.TotalClassifications == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No classified submissions in this window."))
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.FormatTitle("By suggested category"))
	tw := newTable(out, "Category", "Suggestions", "Kept", "Accuracy")
	for _, c := range m.CategoryAccuracy {
		label := name(c.CategoryID)
		if c.CategoryID == 0 {
			label = "(no suggestion)"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\n", label, c.TotalSuggestions, c.Accurate, c.AccuracyRate)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.FormatTitle("Top patterns"))
	tw = newTable(out, "Pattern", "Used", "Kept", "Accuracy")
	for _, p := range m.TopPatterns {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\n", p.PatternName, p.UsageCount, p.Accurate, p.AccuracyRate)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.FormatTitle("Confidence distribution"))
	tw = newTable(out, "Confidence", "Count", "Kept", "Accuracy")
	for _, bucket := range m.ConfidenceDistribution {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\n", bucket.Label, bucket.Count, bucket.Accurate, bucket.AccuracyRate)
	}
	return tw.Flush()
}
