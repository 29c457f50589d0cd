package repository

import (
	"context"

	"fms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, notifications []model.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	// MarkRead only touches rows addressed to userID.
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return translate(GetDB(ctx, r.db).Create(&notifications).Error, "notification")
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]model.Notification, error) {
	var notifications []model.Notification
	q := GetDB(ctx, r.db).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&notifications).Error
	return notifications, translate(err, "notification")
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).Count(&n).Error
	return n, translate(err, "notification")
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	res := GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return translate(res.Error, "notification")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "notification")
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, translate(res.Error, "notification")
}
