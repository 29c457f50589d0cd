package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fms/internal/lifecycle"
	"fms/internal/model"
	"fms/internal/repository"
	"fms/internal/storage"
	"fms/pkg/apperror"

	"github.com/google/uuid"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"
const dateLayout = "2006-01-02"

// FileSaver stores an uploaded attachment and returns the URL to persist.
// Discard removes uploads whose submission was not stored.
type FileSaver interface {
	Save(ctx context.Context, prefix string, f storage.File) (string, error)
	Discard(ctx context.Context, urls ...string)
}

// StatusRequest is the body of every PUT .../:id/status endpoint.
type StatusRequest struct {
	Status           string   `json:"status" binding:"required"`
	Reason           string   `json:"reason"`
	AssignedToUser   string   `json:"assigned_to_user" binding:"omitempty,uuid"`
	AssignedToVendor string   `json:"assigned_to_vendor" binding:"omitempty,uuid"`
	ApprovedItemIDs  []string `json:"approved_item_ids" binding:"omitempty,dive,uuid"`
}

// ListQuery carries the common list parameters.
type ListQuery struct {
	Status string
	Page   int
	Limit  int
}

// gate refuses the call unless the actor's role allows action on entity.
func gate(actor lifecycle.Actor, action lifecycle.Action, entity lifecycle.Entity) error {
	if actor.IsZero() {
		return apperror.Unauthenticated("authentication required")
	}
	if !actor.Can(action, entity) {
		return apperror.Unauthorized(fmt.Sprintf("role %s may not %s %s", actor.Role, action, entity))
	}
	return nil
}

// listFilter limits non-reviewers to their own rows.
func listFilter(actor lifecycle.Actor, entity lifecycle.Entity, q ListQuery) repository.ListFilter {
	f := repository.ListFilter{Status: q.Status, Page: q.Page, Limit: q.Limit}
	if !actor.SeesAll(entity) {
		id := actor.UserID
		f.OwnerID = &id
	}
	return f
}

// canSee hides rows owned by someone else from non-reviewers. The row is
// reported as missing rather than forbidden.
func canSee(actor lifecycle.Actor, entity lifecycle.Entity, owner uuid.UUID, label string) error {
	if actor.SeesAll(entity) || owner == actor.UserID {
		return nil
	}
	return apperror.NotFound(label)
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation("%s must be a valid id", field)
	}
	return id, nil
}

func parseOptionalID(raw, field string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(raw, field)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseDate(raw, field string) (time.Time, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, apperror.Validation("%s must be a date (YYYY-MM-DD)", field)
	}
	return t, nil
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if a == value {
			return true
		}
	}
	return false
}

func details(v map[string]interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func auditEntry(actor lifecycle.Actor, action string, entity lifecycle.Entity, id uuid.UUID, name string, d map[string]interface{}) *model.AuditLog {
	uid := actor.UserID
	return &model.AuditLog{
		UserID:     &uid,
		Action:     action,
		EntityType: string(entity),
		EntityID:   id.String(),
		EntityName: name,
		Details:    details(d),
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeLayout)
	return &s
}

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
