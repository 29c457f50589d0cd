package repository

import (
	"context"

	"fms/internal/lifecycle"
	"fms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExpenseRepository interface {
	Create(ctx context.Context, expense *model.Expense) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Expense, error)
	List(ctx context.Context, filter ListFilter) ([]model.Expense, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from lifecycle.Status, fields map[string]interface{}) error
}

type expenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) Create(ctx context.Context, expense *model.Expense) error {
	return translate(GetDB(ctx, r.db).Omit("Submitter").Create(expense).Error, "expense")
}

func (r *expenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	var expense model.Expense
	if err := GetDB(ctx, r.db).Preload("Submitter").First(&expense, "id = ?", id).Error; err != nil {
		return nil, translate(err, "expense")
	}
	return &expense, nil
}

func (r *expenseRepository) List(ctx context.Context, filter ListFilter) ([]model.Expense, int64, error) {
	var expenses []model.Expense
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.OwnerID != nil {
			db = db.Where("submitted_by = ?", *filter.OwnerID)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		return db
	}

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Expense{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "expense")
	}
	err := db.Scopes(scope).Preload("Submitter").Order("expense_date DESC, created_at DESC").
		Offset(filter.offset()).Limit(filter.limit()).Find(&expenses).Error
	if err != nil {
		return nil, 0, translate(err, "expense")
	}
	return expenses, total, nil
}

func (r *expenseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from lifecycle.Status, fields map[string]interface{}) error {
	return updateStatus(ctx, r.db, &model.Expense{}, "expense", id, from, fields)
}
