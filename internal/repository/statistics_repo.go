package repository

import (
	"context"
	"time"

	"fms/internal/model"

	"gorm.io/gorm"
)

// StatisticsRepository loads the slim rows that reports aggregate in memory.
type StatisticsRepository interface {
	WorkOrderFacts(ctx context.Context, since time.Time) ([]model.WorkOrderFact, error)
	ExpenseFacts(ctx context.Context, since time.Time) ([]model.ExpenseFact, error)
	BookingFacts(ctx context.Context, since time.Time) ([]model.BookingFact, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) WorkOrderFacts(ctx context.Context, since time.Time) ([]model.WorkOrderFact, error) {
	var facts []model.WorkOrderFact
	err := GetDB(ctx, r.db).Table("work_orders").
		Select("id, category, status, created_at").
		Where("created_at >= ?", since).
		Scan(&facts).Error
	return facts, translate(err, "work order")
}

func (r *statisticsRepository) ExpenseFacts(ctx context.Context, since time.Time) ([]model.ExpenseFact, error) {
	var facts []model.ExpenseFact
	err := GetDB(ctx, r.db).Table("expenses").
		Select("id, category, status, amount, expense_date").
		Where("expense_date >= ?", since).
		Scan(&facts).Error
	return facts, translate(err, "expense")
}

func (r *statisticsRepository) BookingFacts(ctx context.Context, since time.Time) ([]model.BookingFact, error) {
	var facts []model.BookingFact
	err := GetDB(ctx, r.db).Table("space_bookings").
		Select("space_bookings.id, facility_areas.name AS area_name, space_bookings.status, space_bookings.booking_date").
		Joins("JOIN facility_areas ON facility_areas.id = space_bookings.facility_area_id").
		Where("space_bookings.booking_date >= ?", since).
		Scan(&facts).Error
	return facts, translate(err, "space booking")
}
