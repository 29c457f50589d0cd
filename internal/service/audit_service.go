package service

import (
	"context"

	"fms/internal/lifecycle"
	"fms/internal/repository"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditQuery struct {
	EntityType string
	EntityID   string
	Page       int
	Limit      int
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, actor lifecycle.Actor, q AuditQuery) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// GetAuditLogs returns the trail newest first with the acting user preloaded.
func (s *auditService) GetAuditLogs(ctx context.Context, actor lifecycle.Actor, q AuditQuery) ([]AuditLogResponse, int64, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntitySettings); err != nil {
		return nil, 0, err
	}
	logs, total, err := s.repo.List(ctx, repository.AuditFilter{
		EntityType: q.EntityType,
		EntityID:   q.EntityID,
		Page:       q.Page,
		Limit:      q.Limit,
	})
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		name := "System"
		userID := ""
		if l.User != nil {
			name = l.User.FullName
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}
		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			UserName:   name,
			Action:     l.Action,
			EntityType: l.EntityType,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format(timeLayout),
		})
	}
	return res, total, nil
}
