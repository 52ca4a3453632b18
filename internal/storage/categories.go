package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/mattn/go-sqlite3"
)

const categoryColumns = `id, name, type, color, auto_rules, validation_rules, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (model.Category, error) {
	var (
		cat             model.Category
		autoRules       string
		validationRules string
	)
	if err := row.Scan(&cat.ID, &cat.Name, &cat.Type, &cat.Color, &autoRules, &validationRules,
		&cat.IsActive, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
		return model.Category{}, err
	}
	if err := json.Unmarshal([]byte(autoRules), &cat.AutoRules); err != nil {
		return cat, fmt.Errorf("%w: failed to decode auto rules for category %d: %w", ErrMalformedRecord, cat.ID, err)
	}
	if err := json.Unmarshal([]byte(validationRules), &cat.ValidationRules); err != nil {
		return cat, fmt.Errorf("%w: failed to decode validation rules for category %d: %w", ErrMalformedRecord, cat.ID, err)
	}
	return cat, nil
}

func encodeRules(cat *model.Category) (string, string, error) {
	autoRules, err := json.Marshal(cat.AutoRules)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode auto rules: %w", err)
	}
	validationRules, err := json.Marshal(cat.ValidationRules)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode validation rules: %w", err)
	}
	return string(autoRules), string(validationRules), nil
}

// GetCategories returns all active categories ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if errors.Is(err, ErrMalformedRecord) {
			slog.Warn("Skipping malformed category", "id", cat.ID, "name", cat.Name, "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategoryByID returns a category, active or not.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	return s.oneCategory(row, fmt.Sprintf("id %d", id))
}

// GetCategoryByName returns an active category by its exact name.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name = ? AND is_active = 1`, name)
	return s.oneCategory(row, fmt.Sprintf("name %q", name))
}

func (s *SQLiteStorage) oneCategory(row *sql.Row, key string) (*model.Category, error) {
	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", key, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return &cat, nil
}

// CreateCategory inserts cat and sets its id and timestamps.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, cat *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(cat); err != nil {
		return err
	}
	autoRules, validationRules, err := encodeRules(cat)
	if err != nil {
		return err
	}

	now := s.now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name, type, color, auto_rules, validation_rules, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		cat.Name, cat.Type, cat.Color, autoRules, validationRules, now, now)
	if isConstraint(err, sqlite3.ErrConstraintUnique) {
		return fmt.Errorf("category %q: %w", cat.Name, common.ErrDuplicateEntry)
	}
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get category ID: %w", err)
	}
	cat.ID = id
	cat.IsActive = true
	cat.CreatedAt = now
	cat.UpdatedAt = now

	slog.Info("created category", "id", id, "name", cat.Name, "type", cat.Type)
	return nil
}

// UpdateCategory replaces the stored name, type, color and rules of cat.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, cat *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(cat); err != nil {
		return err
	}
	autoRules, validationRules, err := encodeRules(cat)
	if err != nil {
		return err
	}

	now := s.now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET name = ?, type = ?, color = ?, auto_rules = ?, validation_rules = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		cat.Name, cat.Type, cat.Color, autoRules, validationRules, cat.IsActive, now, cat.ID)
	if isConstraint(err, sqlite3.ErrConstraintUnique) {
		return fmt.Errorf("category %q: %w", cat.Name, common.ErrDuplicateEntry)
	}
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if err := expectOneRow(result, fmt.Sprintf("category %d", cat.ID)); err != nil {
		return err
	}
	cat.UpdatedAt = now
	return nil
}

func expectOneRow(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, common.ErrNotFound)
	}
	return nil
}
