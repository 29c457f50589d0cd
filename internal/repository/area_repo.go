package repository

import (
	"context"

	"fms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AreaRepository interface {
	Create(ctx context.Context, area *model.FacilityArea) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.FacilityArea, error)
	List(ctx context.Context, bookableOnly bool) ([]model.FacilityArea, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type areaRepository struct {
	db *gorm.DB
}

func NewAreaRepository(db *gorm.DB) AreaRepository {
	return &areaRepository{db: db}
}

func (r *areaRepository) Create(ctx context.Context, area *model.FacilityArea) error {
	return translate(GetDB(ctx, r.db).Create(area).Error, "facility area")
}

func (r *areaRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.FacilityArea, error) {
	var area model.FacilityArea
	if err := GetDB(ctx, r.db).First(&area, "id = ?", id).Error; err != nil {
		return nil, translate(err, "facility area")
	}
	return &area, nil
}

func (r *areaRepository) List(ctx context.Context, bookableOnly bool) ([]model.FacilityArea, error) {
	var areas []model.FacilityArea
	q := GetDB(ctx, r.db).Order("name")
	if bookableOnly {
		q = q.Where("is_bookable = ?", true)
	}
	return areas, translate(q.Find(&areas).Error, "facility area")
}

// Delete fails with a validation error while anything still points at the area.
func (r *areaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.FacilityArea{})
	if res.Error != nil {
		return translate(res.Error, "facility area")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "facility area")
	}
	return nil
}
