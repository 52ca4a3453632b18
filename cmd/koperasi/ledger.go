package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/koperasi/internal/cli"
	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/config"
	"github.com/Veraticus/koperasi/internal/ledger"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"
)

const (
	logClassifications = "classifications"
	logOverrides       = "overrides"
	exportTimeLayout   = time.RFC3339
)

// classificationRow is one classification log entry as written to CSV.
type classificationRow struct {
	Timestamp         string `csv:"timestamp"`
	ID                string `csv:"id"`
	TransactionID     string `csv:"transaction_id"`
	SuggestedCategory string `csv:"suggested_category_id"`
	ActualCategory    int64  `csv:"actual_category_id"`
	Confidence        string `csv:"confidence_score"`
	PatternMatched    string `csv:"pattern_matched"`
	ManualOverride    bool   `csv:"is_manual_override"`
}

// overrideRow is one manual override log entry as written to CSV.
type overrideRow struct {
	Timestamp        string `csv:"timestamp"`
	ID               string `csv:"id"`
	TransactionID    string `csv:"transaction_id"`
	OriginalCategory string `csv:"original_category_id"`
	NewCategory      int64  `csv:"new_category_id"`
	Reason           string `csv:"reason"`
	Confidence       string `csv:"confidence_score"`
	PatternMatched   string `csv:"pattern_matched"`
}

func optionalCategory(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func formatConfidence(score float64) string {
	return strconv.FormatFloat(score, 'f', 2, 64)
}

func classificationRows(entries []model.ClassificationLogEntry) []*classificationRow {
	rows := make([]*classificationRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, &classificationRow{
			Timestamp:         e.Timestamp.Format(exportTimeLayout),
			ID:                e.ID,
			TransactionID:     e.TransactionID,
			SuggestedCategory: optionalCategory(e.SuggestedCategoryID),
			ActualCategory:    e.ActualCategoryID,
			Confidence:        formatConfidence(e.ConfidenceScore),
			PatternMatched:    e.PatternMatched,
			ManualOverride:    e.IsManualOverride,
		})
	}
	return rows
}

func overrideRows(entries []model.ManualOverrideLogEntry) []*overrideRow {
	rows := make([]*overrideRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, &overrideRow{
			Timestamp:        e.Timestamp.Format(exportTimeLayout),
			ID:               e.ID,
			TransactionID:    e.TransactionID,
			OriginalCategory: optionalCategory(e.OriginalCategoryID),
			NewCategory:      e.NewCategoryID,
			Reason:           e.Reason,
			Confidence:       formatConfidence(e.ConfidenceScore),
			PatternMatched:   e.PatternMatched,
		})
	}
	return rows
}

// exportRange turns the --from/--to dates into an inclusive time range.
// A blank --from means the beginning of the ledger, a blank --to means now.
func exportRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	var start time.Time
	end := now
	if strings.TrimSpace(from) != "" {
		d, err := parseDate(from, now)
		if err != nil {
			return start, end, err
		}
		start = d
	}
	if strings.TrimSpace(to) != "" {
		d, err := parseDate(to, now)
		if err != nil {
			return start, end, err
		}
		end = d.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("%w: --to is before --from", common.ErrInvalidInput)
	}
	return start, end, nil
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the classification ledger",
	}

	export := &cobra.Command{
		Use:   "export <file>",
		Short: "Export classification or override log entries to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  runLedgerExport,
	}
	export.Flags().String("from", "", "first day to include (YYYY-MM-DD)")
	export.Flags().String("to", "", "last day to include (YYYY-MM-DD, default: today)")
	export.Flags().String("log", logClassifications, "which log to export (classifications, overrides)")
	cmd.AddCommand(export)

	return cmd
}

func runLedgerExport(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	which, _ := cmd.Flags().GetString("log")

	start, end, err := exportRange(from, to, time.Now())
	if err != nil {
		return err
	}
	if which != logClassifications && which != logOverrides {
		return fmt.Errorf("%w: --log must be %s or %s", common.ErrInvalidInput, logClassifications, logOverrides)
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	ledgerStore, closeLedger, err := openLedger(store)
	if err != nil {
		return err
	}
	defer closeLedger()

	path := config.ExpandPath(args[0])
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer closeStore(f)

	n, err := writeLedgerCSV(ctx, ledgerStore, which, start, end, f)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d %s entries to %s", n, which, path)))
	return nil
}

// writeLedgerCSV writes the chosen log for [start, end] to w and returns
// the number of entries written.
func writeLedgerCSV(ctx context.Context, store ledger.Store, which string, start, end time.Time, w io.Writer) (int, error) {
	if which == logOverrides {
		entries, err := store.ManualOverrideLogs(ctx, start, end)
		if err != nil {
			return 0, common.StorageError("read override log", err)
		}
		rows := overrideRows(entries)
		if err := gocsv.Marshal(&rows, w); err != nil {
			return 0, fmt.Errorf("failed to write CSV: %w", err)
		}
		return len(entries), nil
	}

	entries, err := store.ClassificationLogs(ctx, start, end)
	if err != nil {
		return 0, common.StorageError("read classification log", err)
	}
	rows := classificationRows(entries)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return 0, fmt.Errorf("failed to write CSV: %w", err)
	}
	return len(entries), nil
}
