package repository

import (
	"context"

	"fms/internal/lifecycle"
	"fms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplyRequestRepository interface {
	// Create inserts the parent row only; items go through CreateItems.
	Create(ctx context.Context, req *model.SupplyRequest) error
	CreateItems(ctx context.Context, items []model.SupplyRequestItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.SupplyRequest, error)
	List(ctx context.Context, filter ListFilter) ([]model.SupplyRequest, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from lifecycle.Status, fields map[string]interface{}) error
	// ApproveItems marks the listed items approved; nil approves every item.
	ApproveItems(ctx context.Context, requestID uuid.UUID, itemIDs []uuid.UUID) (int64, error)
}

type supplyRequestRepository struct {
	db *gorm.DB
}

func NewSupplyRequestRepository(db *gorm.DB) SupplyRequestRepository {
	return &supplyRequestRepository{db: db}
}

func (r *supplyRequestRepository) Create(ctx context.Context, req *model.SupplyRequest) error {
	return translate(GetDB(ctx, r.db).Omit("Items", "Submitter", "Area").Create(req).Error, "supply request")
}

func (r *supplyRequestRepository) CreateItems(ctx context.Context, items []model.SupplyRequestItem) error {
	if len(items) == 0 {
		return nil
	}
	return translate(GetDB(ctx, r.db).Create(&items).Error, "supply request item")
}

func (r *supplyRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SupplyRequest, error) {
	var req model.SupplyRequest
	err := GetDB(ctx, r.db).Preload("Items").Preload("Submitter").Preload("Area").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "supply request")
	}
	return &req, nil
}

func (r *supplyRequestRepository) List(ctx context.Context, filter ListFilter) ([]model.SupplyRequest, int64, error) {
	var reqs []model.SupplyRequest
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
	if err := db.Model(&model.SupplyRequest{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "supply request")
	}
	err := db.Scopes(scope).Preload("Items").Preload("Submitter").Preload("Area").
		Order("created_at DESC").Offset(filter.offset()).Limit(filter.limit()).
		Find(&reqs).Error
	if err != nil {
		return nil, 0, translate(err, "supply request")
	}
	return reqs, total, nil
}

func (r *supplyRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from lifecycle.Status, fields map[string]interface{}) error {
	return updateStatus(ctx, r.db, &model.SupplyRequest{}, "supply request", id, from, fields)
}

func (r *supplyRequestRepository) ApproveItems(ctx context.Context, requestID uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
	q := GetDB(ctx, r.db).Model(&model.SupplyRequestItem{}).Where("supply_request_id = ?", requestID)
	if itemIDs != nil {
		q = q.Where("id IN ?", itemIDs)
	}
	res := q.Update("is_approved", true)
	return res.RowsAffected, translate(res.Error, "supply request item")
}
