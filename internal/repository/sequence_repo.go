package repository

import (
	"context"
	"errors"
	"fmt"

	"fms/internal/lifecycle"
	"fms/pkg/apperror"

	"gorm.io/gorm"
)

// SequenceRepository is the PostgreSQL-backed work order counter, used when
// Redis is not configured. The upsert is atomic per row and never falls
// behind the numbers already stored.
type SequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

func (r *SequenceRepository) Next(ctx context.Context, year int) (int64, error) {
	high, err := r.Highest(ctx, year)
	if err != nil {
		return 0, err
	}
	var next int64
	err = GetDB(ctx, r.db).Raw(`
		INSERT INTO work_order_sequences (year, last_value) VALUES (?, ?)
		ON CONFLICT (year) DO UPDATE
		SET last_value = GREATEST(work_order_sequences.last_value + 1, EXCLUDED.last_value)
		RETURNING last_value
	`, year, high+1).Scan(&next).Error
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return 0, apperror.Internal(err, "work order number space exhausted")
	}
	if err != nil {
		return 0, translate(err, "work order sequence")
	}
	return next, nil
}

// Highest returns the largest sequence already used in a stored work order
// number for year, or 0 when there is none.
func (r *SequenceRepository) Highest(ctx context.Context, year int) (int64, error) {
	var numbers []string
	err := GetDB(ctx, r.db).Raw(`
		SELECT work_order_number FROM work_orders
		WHERE work_order_number LIKE ?
		ORDER BY work_order_number DESC LIMIT 1
	`, fmt.Sprintf("WO-%04d-%%", year)).Scan(&numbers).Error
	if err != nil {
		return 0, translate(err, "work order")
	}
	if len(numbers) == 0 {
		return 0, nil
	}
	_, seq, ok := lifecycle.ParseNumber(numbers[0])
	if !ok {
		return 0, apperror.Internal(nil, fmt.Sprintf("malformed work order number %q", numbers[0]))
	}
	return seq, nil
}
