package repository

import (
	"context"

	"fms/internal/lifecycle"
	"fms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.SpaceBooking) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.SpaceBooking, error)
	List(ctx context.Context, filter ListFilter) ([]model.SpaceBooking, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from lifecycle.Status, fields map[string]interface{}) error
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.SpaceBooking) error {
	return translate(GetDB(ctx, r.db).Omit("Area", "Requester").Create(booking).Error, "space booking")
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SpaceBooking, error) {
	var booking model.SpaceBooking
	if err := GetDB(ctx, r.db).Preload("Area").Preload("Requester").First(&booking, "id = ?", id).Error; err != nil {
		return nil, translate(err, "space booking")
	}
	return &booking, nil
}

func (r *bookingRepository) List(ctx context.Context, filter ListFilter) ([]model.SpaceBooking, int64, error) {
	var bookings []model.SpaceBooking
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.OwnerID != nil {
			db = db.Where("requested_by = ?", *filter.OwnerID)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		return db
	}

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.SpaceBooking{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "space booking")
	}
	err := db.Scopes(scope).Preload("Area").Preload("Requester").
		Order("booking_date DESC, start_time").
		Offset(filter.offset()).Limit(filter.limit()).Find(&bookings).Error
	if err != nil {
		return nil, 0, translate(err, "space booking")
	}
	return bookings, total, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from lifecycle.Status, fields map[string]interface{}) error {
	return updateStatus(ctx, r.db, &model.SpaceBooking{}, "space booking", id, from, fields)
}
