package service

import (
	"context"
	"fmt"

	"fms/internal/lifecycle"
	"fms/internal/model"
	"fms/internal/repository"
	"fms/pkg/apperror"

	"github.com/google/uuid"
)

// --- DTOs ---

type SupplyItemRequest struct {
	ItemName string `json:"item_name" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Unit     string `json:"unit" binding:"required"`
	Notes    string `json:"notes"`
}

type CreateSupplyRequestRequest struct {
	AreaOfUse string              `json:"area_of_use" binding:"required,uuid"`
	Priority  string              `json:"priority" binding:"required,supply_priority"`
	Items     []SupplyItemRequest `json:"items" binding:"required,min=1,dive"`
}

type SupplyItemResponse struct {
	ID         string `json:"id"`
	ItemName   string `json:"item_name"`
	Quantity   int    `json:"quantity"`
	Unit       string `json:"unit"`
	Notes      string `json:"notes,omitempty"`
	IsApproved bool   `json:"is_approved"`
}

type SupplyRequestResponse struct {
	ID               string               `json:"id"`
	SubmittedBy      string               `json:"submitted_by"`
	SubmitterName    string               `json:"submitter_name"`
	AreaOfUse        string               `json:"area_of_use"`
	AreaName         string               `json:"area_name"`
	Priority         string               `json:"priority"`
	Status           string               `json:"status"`
	ApprovedBy       *string              `json:"approved_by"`
	ApprovedAt       *string              `json:"approved_at"`
	ApprovalComments string               `json:"approval_comments,omitempty"`
	FulfilledBy      *string              `json:"fulfilled_by"`
	FulfilledAt      *string              `json:"fulfilled_at"`
	Items            []SupplyItemResponse `json:"items"`
	CreatedAt        string               `json:"created_at"`
}

// --- Interface ---

type SupplyRequestService interface {
	CreateSupplyRequest(ctx context.Context, actor lifecycle.Actor, req CreateSupplyRequestRequest) (SupplyRequestResponse, error)
	GetSupplyRequest(ctx context.Context, actor lifecycle.Actor, id string) (SupplyRequestResponse, error)
	ListSupplyRequests(ctx context.Context, actor lifecycle.Actor, q ListQuery) ([]SupplyRequestResponse, int64, error)
	UpdateStatus(ctx context.Context, actor lifecycle.Actor, id string, req StatusRequest) (SupplyRequestResponse, error)
}

type supplyRequestService struct {
	requests repository.SupplyRequestRepository
	areas    repository.AreaRepository
	audit    repository.AuditRepository
	tx       repository.TransactionManager
	reviewer *reviewer
}

func NewSupplyRequestService(requests repository.SupplyRequestRepository, areas repository.AreaRepository, deps Deps) SupplyRequestService {
	return &supplyRequestService{
		requests: requests,
		areas:    areas,
		audit:    deps.Audit,
		tx:       deps.Tx,
		reviewer: deps.reviewer(),
	}
}

// --- Implementation ---

// CreateSupplyRequest stores the request and its items in one transaction.
func (s *supplyRequestService) CreateSupplyRequest(ctx context.Context, actor lifecycle.Actor, req CreateSupplyRequestRequest) (SupplyRequestResponse, error) {
	if err := gate(actor, lifecycle.ActionCreate, lifecycle.EntitySupplyRequest); err != nil {
		return SupplyRequestResponse{}, err
	}
	if len(req.Items) == 0 {
		return SupplyRequestResponse{}, apperror.Validation("a supply request needs at least one item")
	}
	if !oneOf(req.Priority, model.SupplyPriorities) {
		return SupplyRequestResponse{}, apperror.Validation("unknown priority %q", req.Priority)
	}
	areaID, err := parseID(req.AreaOfUse, "area_of_use")
	if err != nil {
		return SupplyRequestResponse{}, err
	}
	area, err := s.areas.GetByID(ctx, areaID)
	if err != nil {
		return SupplyRequestResponse{}, err
	}

	initial, _ := lifecycle.InitialStatus(lifecycle.EntitySupplyRequest)
	sr := model.SupplyRequest{
		ID:          uuid.New(),
		SubmittedBy: actor.UserID,
		AreaOfUseID: area.ID,
		Priority:    req.Priority,
		Status:      initial,
	}
	items := make([]model.SupplyRequestItem, 0, len(req.Items))
	for i, it := range req.Items {
		if it.Quantity < 1 {
			return SupplyRequestResponse{}, apperror.Validation("item %d: quantity must be at least 1", i+1)
		}
		items = append(items, model.SupplyRequestItem{
			ID:              uuid.New(),
			SupplyRequestID: sr.ID,
			ItemName:        it.ItemName,
			Quantity:        it.Quantity,
			Unit:            it.Unit,
			Notes:           it.Notes,
		})
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.Create(txCtx, &sr); err != nil {
			return err
		}
		if err := s.requests.CreateItems(txCtx, items); err != nil {
			return err
		}
		return s.audit.Log(txCtx, auditEntry(actor, model.ActionCreateSupplyReq, lifecycle.EntitySupplyRequest, sr.ID, area.Name, map[string]interface{}{
			"priority": req.Priority,
			"items":    len(items),
		}))
	})
	if err != nil {
		return SupplyRequestResponse{}, err
	}

	sr.Items = items
	sr.Area = area
	sr.Submitter = &model.User{FullName: actor.FullName}
	return toSupplyRequestResponse(&sr), nil
}

func (s *supplyRequestService) GetSupplyRequest(ctx context.Context, actor lifecycle.Actor, id string) (SupplyRequestResponse, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntitySupplyRequest); err != nil {
		return SupplyRequestResponse{}, err
	}
	srID, err := parseID(id, "id")
	if err != nil {
		return SupplyRequestResponse{}, err
	}
	sr, err := s.requests.GetByID(ctx, srID)
	if err != nil {
		return SupplyRequestResponse{}, err
	}
	if err := canSee(actor, lifecycle.EntitySupplyRequest, sr.SubmittedBy, "supply request"); err != nil {
		return SupplyRequestResponse{}, err
	}
	return toSupplyRequestResponse(sr), nil
}

func (s *supplyRequestService) ListSupplyRequests(ctx context.Context, actor lifecycle.Actor, q ListQuery) ([]SupplyRequestResponse, int64, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntitySupplyRequest); err != nil {
		return nil, 0, err
	}
	reqs, total, err := s.requests.List(ctx, listFilter(actor, lifecycle.EntitySupplyRequest, q))
	if err != nil {
		return nil, 0, err
	}
	res := make([]SupplyRequestResponse, 0, len(reqs))
	for i := range reqs {
		res = append(res, toSupplyRequestResponse(&reqs[i]))
	}
	return res, total, nil
}

// UpdateStatus marks every item on approved and exactly the listed items on
// partially_approved, in the same transaction as the status change.
func (s *supplyRequestService) UpdateStatus(ctx context.Context, actor lifecycle.Actor, id string, req StatusRequest) (SupplyRequestResponse, error) {
	srID, err := parseID(id, "id")
	if err != nil {
		return SupplyRequestResponse{}, err
	}
	sr, err := s.requests.GetByID(ctx, srID)
	if err != nil {
		return SupplyRequestResponse{}, err
	}

	to := lifecycle.Status(req.Status)
	if err := gate(actor, lifecycle.ActionFor(to), lifecycle.EntitySupplyRequest); err != nil {
		return SupplyRequestResponse{}, err
	}
	within, err := s.itemApproval(sr, to, req.ApprovedItemIDs)
	if err != nil {
		return SupplyRequestResponse{}, err
	}

	name := ""
	if sr.Area != nil {
		name = "for " + sr.Area.Name
	}
	d, err := s.reviewer.apply(ctx, actor, reviewStep{
		Entity: lifecycle.EntitySupplyRequest,
		Label:  "supply request",
		ID:     sr.ID,
		Name:   name,
		Owner:  sr.SubmittedBy,
		From:   sr.Status,
		To:     to,
		Reason: req.Reason,
		Stamps: map[lifecycle.Status][2]string{
			lifecycle.SupplyApproved:          {"approved_by", "approved_at"},
			lifecycle.SupplyPartiallyApproved: {"approved_by", "approved_at"},
			lifecycle.SupplyFulfilled:         {"fulfilled_by", "fulfilled_at"},
		},
		ReasonColumn: "approval_comments",
		Update: func(ctx context.Context, from lifecycle.Status, f map[string]interface{}) error {
			return s.requests.UpdateStatus(ctx, sr.ID, from, f)
		},
		Within: within,
	})
	if err != nil {
		return SupplyRequestResponse{}, err
	}
	if d.NoOp {
		return toSupplyRequestResponse(sr), nil
	}

	updated, err := s.requests.GetByID(ctx, sr.ID)
	if err != nil {
		return SupplyRequestResponse{}, err
	}
	return toSupplyRequestResponse(updated), nil
}

func (s *supplyRequestService) itemApproval(sr *model.SupplyRequest, to lifecycle.Status, rawIDs []string) (func(context.Context) error, error) {
	switch to {
	case lifecycle.SupplyApproved:
		if len(rawIDs) > 0 {
			return nil, apperror.Validation("approved_item_ids only apply to partially_approved")
		}
		return func(ctx context.Context) error {
			_, err := s.requests.ApproveItems(ctx, sr.ID, nil)
			return err
		}, nil

	case lifecycle.SupplyPartiallyApproved:
		if len(rawIDs) == 0 {
			return nil, apperror.Validation("approved_item_ids is required for a partial approval")
		}
		own := make(map[uuid.UUID]bool, len(sr.Items))
		for _, it := range sr.Items {
			own[it.ID] = true
		}
		seen := map[uuid.UUID]bool{}
		ids := make([]uuid.UUID, 0, len(rawIDs))
		for _, raw := range rawIDs {
			itemID, err := parseID(raw, "approved_item_ids")
			if err != nil {
				return nil, err
			}
			if !own[itemID] {
				return nil, apperror.Validation("item %s is not part of this request", raw)
			}
			if !seen[itemID] {
				seen[itemID] = true
				ids = append(ids, itemID)
			}
		}
		if len(ids) == len(sr.Items) {
			return nil, apperror.Validation("every item is listed, approve the whole request instead")
		}
		return func(ctx context.Context) error {
			n, err := s.requests.ApproveItems(ctx, sr.ID, ids)
			if err != nil {
				return err
			}
			if n != int64(len(ids)) {
				return apperror.Conflict(fmt.Sprintf("expected to approve %d items, approved %d", len(ids), n))
			}
			return nil
		}, nil
	}

	if len(rawIDs) > 0 {
		return nil, apperror.Validation("approved_item_ids only apply to partially_approved")
	}
	return nil, nil
}

// --- Helpers ---

func toSupplyRequestResponse(sr *model.SupplyRequest) SupplyRequestResponse {
	res := SupplyRequestResponse{
		ID:               sr.ID.String(),
		SubmittedBy:      sr.SubmittedBy.String(),
		AreaOfUse:        sr.AreaOfUseID.String(),
		Priority:         sr.Priority,
		Status:           string(sr.Status),
		ApprovedBy:       idString(sr.ApprovedBy),
		ApprovedAt:       formatTime(sr.ApprovedAt),
		ApprovalComments: sr.ApprovalComments,
		FulfilledBy:      idString(sr.FulfilledBy),
		FulfilledAt:      formatTime(sr.FulfilledAt),
		Items:            make([]SupplyItemResponse, 0, len(sr.Items)),
		CreatedAt:        sr.CreatedAt.Format(timeLayout),
	}
	for _, it := range sr.Items {
		res.Items = append(res.Items, SupplyItemResponse{
			ID:         it.ID.String(),
			ItemName:   it.ItemName,
			Quantity:   it.Quantity,
			Unit:       it.Unit,
			Notes:      it.Notes,
			IsApproved: it.IsApproved,
		})
	}
	if sr.Submitter != nil {
		res.SubmitterName = sr.Submitter.FullName
	}
	if sr.Area != nil {
		res.AreaName = sr.Area.Name
	}
	return res
}
