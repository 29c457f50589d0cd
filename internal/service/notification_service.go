package service

import (
	"context"

	"fms/internal/lifecycle"
	"fms/internal/model"
	"fms/internal/repository"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

type NotificationService interface {
	List(ctx context.Context, actor lifecycle.Actor, unreadOnly bool, limit int) ([]model.Notification, error)
	UnreadCount(ctx context.Context, actor lifecycle.Actor) (int64, error)
	MarkRead(ctx context.Context, actor lifecycle.Actor, id string) error
	MarkAllRead(ctx context.Context, actor lifecycle.Actor) (int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

// List returns the caller's own notifications, newest first.
func (s *notificationService) List(ctx context.Context, actor lifecycle.Actor, unreadOnly bool, limit int) ([]model.Notification, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntityNotification); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	return s.repo.ListForUser(ctx, actor.UserID, unreadOnly, limit)
}

func (s *notificationService) UnreadCount(ctx context.Context, actor lifecycle.Actor) (int64, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntityNotification); err != nil {
		return 0, err
	}
	return s.repo.CountUnread(ctx, actor.UserID)
}

// MarkRead reports NotFound for notifications addressed to someone else.
func (s *notificationService) MarkRead(ctx context.Context, actor lifecycle.Actor, id string) error {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntityNotification); err != nil {
		return err
	}
	nid, err := parseID(id, "id")
	if err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, nid, actor.UserID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, actor lifecycle.Actor) (int64, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntityNotification); err != nil {
		return 0, err
	}
	return s.repo.MarkAllRead(ctx, actor.UserID)
}
