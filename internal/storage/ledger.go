package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/koperasi/internal/model"
)

// AppendClassification implements ledger.Store.
func (s *SQLiteStorage) AppendClassification(ctx context.Context, entry *model.ClassificationLogEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("%w: classification log entry", ErrNilParameter)
	}
	if err := validateLogEntry(entry.TransactionID); err != nil {
		return err
	}
	return insertClassification(ctx, s.db, entry)
}

func insertClassification(ctx context.Context, q queryable, entry *model.ClassificationLogEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO classification_logs (id, transaction_id, suggested_category_id, actual_category_id,
			confidence_score, pattern_matched, is_manual_override, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.TransactionID, nullInt64(entry.SuggestedCategoryID), entry.ActualCategoryID,
		entry.ConfidenceScore, entry.PatternMatched, entry.IsManualOverride, formatTimestamp(entry.Timestamp))
	if err != nil {
		return fmt.Errorf("failed to insert classification log: %w", err)
	}
	return nil
}

// AppendManualOverride implements ledger.Store. The override row and its
// classification row commit together.
func (s *SQLiteStorage) AppendManualOverride(ctx context.Context, entry *model.ManualOverrideLogEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("%w: manual override log entry", ErrNilParameter)
	}
	if err := validateLogEntry(entry.TransactionID); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO manual_override_logs (id, transaction_id, original_category_id, new_category_id,
				reason, confidence_score, pattern_matched, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.TransactionID, nullInt64(entry.OriginalCategoryID), entry.NewCategoryID,
			entry.Reason, entry.ConfidenceScore, entry.PatternMatched, formatTimestamp(entry.Timestamp))
		if err != nil {
			return fmt.Errorf("failed to insert manual override log: %w", err)
		}

		classification := entry.AsClassification()
		return insertClassification(ctx, tx, &classification)
	})
}

// ClassificationLogs implements ledger.Store; the range is inclusive.
func (s *SQLiteStorage) ClassificationLogs(ctx context.Context, start, end time.Time) ([]model.ClassificationLogEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, end, start)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, suggested_category_id, actual_category_id,
			confidence_score, pattern_matched, is_manual_override, timestamp
		FROM classification_logs
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp, id`,
		formatTimestamp(start), formatTimestamp(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query classification logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.ClassificationLogEntry
	for rows.Next() {
		var (
			e         model.ClassificationLogEntry
			suggested sql.NullInt64
			ts        string
		)
		if err := rows.Scan(&e.ID, &e.TransactionID, &suggested, &e.ActualCategoryID,
			&e.ConfidenceScore, &e.PatternMatched, &e.IsManualOverride, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan classification log: %w", err)
		}
		e.SuggestedCategoryID = scanInt64(suggested)
		if e.Timestamp, err = parseTimestamp(ts); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating classification logs: %w", err)
	}
	return entries, nil
}

// ManualOverrideLogs implements ledger.Store; the range is inclusive.
func (s *SQLiteStorage) ManualOverrideLogs(ctx context.Context, start, end time.Time) ([]model.ManualOverrideLogEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, end, start)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, original_category_id, new_category_id,
			reason, confidence_score, pattern_matched, timestamp
		FROM manual_override_logs
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp, id`,
		formatTimestamp(start), formatTimestamp(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query manual override logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.ManualOverrideLogEntry
	for rows.Next() {
		var (
			e        model.ManualOverrideLogEntry
			original sql.NullInt64
			ts       string
		)
		if err := rows.Scan(&e.ID, &e.TransactionID, &original, &e.NewCategoryID,
			&e.Reason, &e.ConfidenceScore, &e.PatternMatched, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan manual override log: %w", err)
		}
		e.OriginalCategoryID = scanInt64(original)
		if e.Timestamp, err = parseTimestamp(ts); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating manual override logs: %w", err)
	}
	return entries, nil
}
