package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/mattn/go-sqlite3"
)

// GetPaymentMethods returns all payment methods ordered by name.
func (s *SQLiteStorage) GetPaymentMethods(ctx context.Context) ([]model.PaymentMethod, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, type FROM payment_methods ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment methods: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var methods []model.PaymentMethod
	for rows.Next() {
		var pm model.PaymentMethod
		if err := rows.Scan(&pm.ID, &pm.Name, &pm.Type); err != nil {
			return nil, fmt.Errorf("failed to scan payment method: %w", err)
		}
		methods = append(methods, pm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment methods: %w", err)
	}
	return methods, nil
}

// GetPaymentMethod returns the payment method with id.
func (s *SQLiteStorage) GetPaymentMethod(ctx context.Context, id int64) (*model.PaymentMethod, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var pm model.PaymentMethod
	err := s.db.QueryRowContext(ctx, `SELECT id, name, type FROM payment_methods WHERE id = ?`, id).
		Scan(&pm.ID, &pm.Name, &pm.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment method %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query payment method: %w", err)
	}
	return &pm, nil
}

// CreatePaymentMethod inserts pm and sets its id.
func (s *SQLiteStorage) CreatePaymentMethod(ctx context.Context, pm *model.PaymentMethod) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePaymentMethod(pm); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `INSERT INTO payment_methods (name, type) VALUES (?, ?)`, pm.Name, pm.Type)
	if isConstraint(err, sqlite3.ErrConstraintUnique) {
		return fmt.Errorf("payment method %q: %w", pm.Name, common.ErrDuplicateEntry)
	}
	if err != nil {
		return fmt.Errorf("failed to create payment method: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get payment method ID: %w", err)
	}
	pm.ID = id
	return nil
}
