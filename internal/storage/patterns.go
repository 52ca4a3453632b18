package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/Veraticus/koperasi/internal/pattern"
	"github.com/mattn/go-sqlite3"
)

const patternColumns = `id, name, description_pattern, amount_range_min, amount_range_max, frequency,
	category_id, confidence_score, is_active, created_at, updated_at`

func scanPattern(row rowScanner) (model.Pattern, error) {
	var (
		p      model.Pattern
		lo, hi sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Keywords, &lo, &hi, &p.Frequency,
		&p.CategoryID, &p.Confidence, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return model.Pattern{}, err
	}

	var err error
	if p.AmountMin, err = scanDecimal(lo); err != nil {
		return p, fmt.Errorf("%w: pattern %d: %w", ErrMalformedRecord, p.ID, err)
	}
	if p.AmountMax, err = scanDecimal(hi); err != nil {
		return p, fmt.Errorf("%w: pattern %d: %w", ErrMalformedRecord, p.ID, err)
	}
	return p, nil
}

func (s *SQLiteStorage) queryPatterns(ctx context.Context, where string) ([]model.Pattern, error) {
	query := `SELECT ` + patternColumns + ` FROM patterns ` + where + ` ORDER BY updated_at DESC, id ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []model.Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if errors.Is(err, ErrMalformedRecord) {
			slog.Warn("Skipping malformed pattern", "id", p.ID, "name", p.Name, "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patterns: %w", err)
	}
	return patterns, nil
}

// GetPatterns returns every pattern, newest first.
func (s *SQLiteStorage) GetPatterns(ctx context.Context) ([]model.Pattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryPatterns(ctx, "")
}

// GetActivePatterns returns active patterns, newest first.
func (s *SQLiteStorage) GetActivePatterns(ctx context.Context) ([]model.Pattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	patterns, err := s.queryPatterns(ctx, "WHERE is_active = 1")
	if err != nil {
		return nil, err
	}
	slog.Debug("retrieved active patterns", "count", len(patterns))
	return patterns, nil
}

// GetPattern returns the pattern with id.
func (s *SQLiteStorage) GetPattern(ctx context.Context, id int64) (*model.Pattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+patternColumns+` FROM patterns WHERE id = ?`, id)
	p, err := scanPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pattern %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query pattern: %w", err)
	}
	return &p, nil
}

// CreatePattern inserts a well-formed pattern and sets its id and timestamps.
func (s *SQLiteStorage) CreatePattern(ctx context.Context, p *model.Pattern) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: pattern", ErrNilParameter)
	}
	if err := pattern.ValidatePattern(*p); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
	}

	now := s.now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO patterns (name, description_pattern, amount_range_min, amount_range_max, frequency,
			category_id, confidence_score, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Keywords, nullDecimal(p.AmountMin), nullDecimal(p.AmountMax), p.Frequency,
		p.CategoryID, p.Confidence, p.IsActive, now, now)
	if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
		return fmt.Errorf("category %d: %w", p.CategoryID, common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to create pattern: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get pattern ID: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now

	slog.Info("created pattern", "id", id, "name", p.Name, "category_id", p.CategoryID)
	return nil
}

// UpdatePattern replaces a stored pattern. UpdatedAt moves forward, which
// changes its tie-break rank.
func (s *SQLiteStorage) UpdatePattern(ctx context.Context, p *model.Pattern) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: pattern", ErrNilParameter)
	}
	if err := pattern.ValidatePattern(*p); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
	}

	now := s.now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE patterns
		SET name = ?, description_pattern = ?, amount_range_min = ?, amount_range_max = ?, frequency = ?,
			category_id = ?, confidence_score = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Keywords, nullDecimal(p.AmountMin), nullDecimal(p.AmountMax), p.Frequency,
		p.CategoryID, p.Confidence, p.IsActive, now, p.ID)
	if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
		return fmt.Errorf("category %d: %w", p.CategoryID, common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update pattern: %w", err)
	}
	if err := expectOneRow(result, fmt.Sprintf("pattern %d", p.ID)); err != nil {
		return err
	}
	p.UpdatedAt = now
	return nil
}

// SetPatternActive toggles a pattern without deleting it.
func (s *SQLiteStorage) SetPatternActive(ctx context.Context, id int64, active bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE patterns SET is_active = ?, updated_at = ? WHERE id = ?`, active, s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to update pattern: %w", err)
	}
	if err := expectOneRow(result, fmt.Sprintf("pattern %d", id)); err != nil {
		return err
	}

	slog.Info("set pattern active", "id", id, "active", active)
	return nil
}

// DeletePattern removes a pattern permanently.
func (s *SQLiteStorage) DeletePattern(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM patterns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pattern: %w", err)
	}
	return expectOneRow(result, fmt.Sprintf("pattern %d", id))
}
