package repository

import (
	"context"
	"time"

	"fms/internal/lifecycle"
	"fms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContractRepository interface {
	Create(ctx context.Context, contract *model.Contract) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	List(ctx context.Context, filter ListFilter) ([]model.Contract, int64, error)
	// ListLapsed returns active or under-review contracts whose end date is before day.
	ListLapsed(ctx context.Context, day time.Time) ([]model.Contract, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from lifecycle.Status, fields map[string]interface{}) error
}

type contractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) ContractRepository {
	return &contractRepository{db: db}
}

func (r *contractRepository) Create(ctx context.Context, contract *model.Contract) error {
	return translate(GetDB(ctx, r.db).Omit("Vendor").Create(contract).Error, "contract")
}

func (r *contractRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	if err := GetDB(ctx, r.db).Preload("Vendor").First(&contract, "id = ?", id).Error; err != nil {
		return nil, translate(err, "contract")
	}
	return &contract, nil
}

func (r *contractRepository) List(ctx context.Context, filter ListFilter) ([]model.Contract, int64, error) {
	var contracts []model.Contract
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		return db
	}

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Contract{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "contract")
	}
	err := db.Scopes(scope).Preload("Vendor").Order("end_date").
		Offset(filter.offset()).Limit(filter.limit()).Find(&contracts).Error
	if err != nil {
		return nil, 0, translate(err, "contract")
	}
	return contracts, total, nil
}

func (r *contractRepository) ListLapsed(ctx context.Context, day time.Time) ([]model.Contract, error) {
	var contracts []model.Contract
	err := GetDB(ctx, r.db).
		Where("status IN ? AND end_date < ?", []lifecycle.Status{lifecycle.ContractActive, lifecycle.ContractUnderReview}, day).
		Find(&contracts).Error
	return contracts, translate(err, "contract")
}

func (r *contractRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from lifecycle.Status, fields map[string]interface{}) error {
	return updateStatus(ctx, r.db, &model.Contract{}, "contract", id, from, fields)
}
