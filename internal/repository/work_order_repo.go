package repository

import (
	"context"
	"errors"

	"fms/internal/lifecycle"
	"fms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkOrderRepository interface {
	// Create returns lifecycle.ErrNumberTaken when the number collides.
	Create(ctx context.Context, wo *model.WorkOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error)
	List(ctx context.Context, filter ListFilter) ([]model.WorkOrder, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from lifecycle.Status, fields map[string]interface{}) error
}

type workOrderRepository struct {
	db *gorm.DB
}

func NewWorkOrderRepository(db *gorm.DB) WorkOrderRepository {
	return &workOrderRepository{db: db}
}

func (r *workOrderRepository) Create(ctx context.Context, wo *model.WorkOrder) error {
	err := GetDB(ctx, r.db).Omit("Submitter", "Area", "Assignee", "Vendor").Create(wo).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return lifecycle.ErrNumberTaken
	}
	return translate(err, "work order")
}

func (r *workOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	var wo model.WorkOrder
	err := GetDB(ctx, r.db).
		Preload("Submitter").Preload("Area").Preload("Assignee").Preload("Vendor").
		First(&wo, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "work order")
	}
	return &wo, nil
}

func (r *workOrderRepository) List(ctx context.Context, filter ListFilter) ([]model.WorkOrder, int64, error) {
	var orders []model.WorkOrder
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
	if err := db.Model(&model.WorkOrder{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "work order")
	}
	err := db.Scopes(scope).Preload("Submitter").Preload("Area").
		Order("created_at DESC").Offset(filter.offset()).Limit(filter.limit()).
		Find(&orders).Error
	if err != nil {
		return nil, 0, translate(err, "work order")
	}
	return orders, total, nil
}

func (r *workOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from lifecycle.Status, fields map[string]interface{}) error {
	return updateStatus(ctx, r.db, &model.WorkOrder{}, "work order", id, from, fields)
}
