package repository

import (
	"context"

	"fms/internal/model"

	"gorm.io/gorm"
)

type AuditFilter struct {
	EntityType string
	EntityID   string
	Page       int
	Limit      int
}

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return translate(GetDB(ctx, r.db).Omit("User").Create(entry).Error, "audit log")
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.EntityType != "" {
			db = db.Where("entity_type = ?", filter.EntityType)
		}
		if filter.EntityID != "" {
			db = db.Where("entity_id = ?", filter.EntityID)
		}
		return db
	}

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.AuditLog{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "audit log")
	}

	lf := ListFilter{Page: filter.Page, Limit: filter.Limit}
	if err := db.Scopes(scope).Preload("User").Order("created_at desc").Offset(lf.offset()).Limit(lf.limit()).Find(&logs).Error; err != nil {
		return nil, 0, translate(err, "audit log")
	}
	return logs, total, nil
}
