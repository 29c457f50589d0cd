package repository

import (
	"context"
	"time"

	"fms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssetFilter struct {
	Category string
	AreaID   *uuid.UUID
	Page     int
	Limit    int
}

type AssetRepository interface {
	Create(ctx context.Context, asset *model.Asset) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Asset, error)
	List(ctx context.Context, filter AssetFilter) ([]model.Asset, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error

	CreateSchedule(ctx context.Context, schedule *model.AssetMaintenanceSchedule) error
	ListSchedules(ctx context.Context, assetID uuid.UUID) ([]model.AssetMaintenanceSchedule, error)
	DueSchedules(ctx context.Context, before time.Time) ([]model.AssetMaintenanceSchedule, error)
}

type assetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(ctx context.Context, asset *model.Asset) error {
	return translate(GetDB(ctx, r.db).Omit("Area", "ResponsibleUser").Create(asset).Error, "asset")
}

func (r *assetRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	var asset model.Asset
	if err := GetDB(ctx, r.db).Preload("Area").Preload("ResponsibleUser").First(&asset, "id = ?", id).Error; err != nil {
		return nil, translate(err, "asset")
	}
	return &asset, nil
}

func (r *assetRepository) List(ctx context.Context, filter AssetFilter) ([]model.Asset, int64, error) {
	var assets []model.Asset
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Category != "" {
			db = db.Where("category = ?", filter.Category)
		}
		if filter.AreaID != nil {
			db = db.Where("location_area_id = ?", *filter.AreaID)
		}
		return db
	}

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Asset{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "asset")
	}

	lf := ListFilter{Page: filter.Page, Limit: filter.Limit}
	err := db.Scopes(scope).Preload("Area").Preload("ResponsibleUser").
		Order("name").Offset(lf.offset()).Limit(lf.limit()).Find(&assets).Error
	if err != nil {
		return nil, 0, translate(err, "asset")
	}
	return assets, total, nil
}

func (r *assetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Asset{})
	if res.Error != nil {
		return translate(res.Error, "asset")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "asset")
	}
	return nil
}

func (r *assetRepository) CreateSchedule(ctx context.Context, schedule *model.AssetMaintenanceSchedule) error {
	return translate(GetDB(ctx, r.db).Omit("Asset").Create(schedule).Error, "maintenance schedule")
}

func (r *assetRepository) ListSchedules(ctx context.Context, assetID uuid.UUID) ([]model.AssetMaintenanceSchedule, error) {
	var schedules []model.AssetMaintenanceSchedule
	err := GetDB(ctx, r.db).Where("asset_id = ?", assetID).Order("next_due_date").Find(&schedules).Error
	return schedules, translate(err, "maintenance schedule")
}

func (r *assetRepository) DueSchedules(ctx context.Context, before time.Time) ([]model.AssetMaintenanceSchedule, error) {
	var schedules []model.AssetMaintenanceSchedule
	err := GetDB(ctx, r.db).Where("next_due_date <= ?", before).Order("next_due_date").Find(&schedules).Error
	return schedules, translate(err, "maintenance schedule")
}
