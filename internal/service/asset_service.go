package service

import (
	"context"
	"time"

	"fms/internal/lifecycle"
	"fms/internal/model"
	"fms/internal/repository"
	"fms/internal/storage"
	"fms/pkg/apperror"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateAssetRequest struct {
	Name             string `json:"name" form:"name" binding:"required"`
	Category         string `json:"category" form:"category" binding:"required,asset_category"`
	LocationArea     string `json:"location_area" form:"location_area" binding:"required,uuid"`
	SerialNumber     string `json:"serial_number" form:"serial_number"`
	PurchaseDate     string `json:"purchase_date" form:"purchase_date"`
	Condition        string `json:"condition" form:"condition" binding:"omitempty,asset_condition"`
	Quantity         int    `json:"quantity" form:"quantity" binding:"omitempty,min=1"`
	ResponsibleParty string `json:"responsible_party" form:"responsible_party" binding:"omitempty,uuid"`
}

type AssetQuery struct {
	Category string
	AreaID   string
	Page     int
	Limit    int
}

type AssetResponse struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Category            string   `json:"category"`
	LocationArea        string   `json:"location_area"`
	AreaName            string   `json:"area_name"`
	SerialNumber        string   `json:"serial_number"`
	PurchaseDate        *string  `json:"purchase_date"`
	Condition           string   `json:"condition"`
	Quantity            int      `json:"quantity"`
	ImageURL            string   `json:"image_url,omitempty"`
	ResponsibleParty    *string  `json:"responsible_party"`
	ResponsibleName     string   `json:"responsible_name,omitempty"`
	DocumentAttachments []string `json:"document_attachments"`
	CreatedAt           string   `json:"created_at"`
}

type CreateScheduleRequest struct {
	ScheduleType string `json:"schedule_type" binding:"required,oneof=weekly monthly quarterly annually"`
	NextDueDate  string `json:"next_due_date" binding:"required,date"`
	Notes        string `json:"notes"`
}

type ScheduleResponse struct {
	ID           string `json:"id"`
	AssetID      string `json:"asset_id"`
	ScheduleType string `json:"schedule_type"`
	NextDueDate  string `json:"next_due_date"`
	Notes        string `json:"notes,omitempty"`
	Overdue      bool   `json:"overdue"`
}

// --- Interface ---

type AssetService interface {
	CreateAsset(ctx context.Context, actor lifecycle.Actor, req CreateAssetRequest, image *storage.File, documents []storage.File) (AssetResponse, error)
	ListAssets(ctx context.Context, actor lifecycle.Actor, q AssetQuery) ([]AssetResponse, int64, error)
	DeleteAsset(ctx context.Context, actor lifecycle.Actor, id string) error

	CreateSchedule(ctx context.Context, actor lifecycle.Actor, assetID string, req CreateScheduleRequest) (ScheduleResponse, error)
	ListSchedules(ctx context.Context, actor lifecycle.Actor, assetID string) ([]ScheduleResponse, error)
	DueSchedules(ctx context.Context, actor lifecycle.Actor, withinDays int) ([]ScheduleResponse, error)
}

type assetService struct {
	assets repository.AssetRepository
	areas  repository.AreaRepository
	users  repository.UserRepository
	audit  repository.AuditRepository
	tx     repository.TransactionManager
	files  FileSaver
	now    func() time.Time
}

func NewAssetService(assets repository.AssetRepository, areas repository.AreaRepository, deps Deps) AssetService {
	return &assetService{
		assets: assets,
		areas:  areas,
		users:  deps.Users,
		audit:  deps.Audit,
		tx:     deps.Tx,
		files:  deps.Files,
		now:    time.Now,
	}
}

// --- Implementation ---

func (s *assetService) CreateAsset(ctx context.Context, actor lifecycle.Actor, req CreateAssetRequest, image *storage.File, documents []storage.File) (AssetResponse, error) {
	if err := gate(actor, lifecycle.ActionCreate, lifecycle.EntityAsset); err != nil {
		return AssetResponse{}, err
	}
	if !oneOf(req.Category, model.AssetCategories) {
		return AssetResponse{}, apperror.Validation("unknown category %q", req.Category)
	}
	condition := req.Condition
	if condition == "" {
		condition = "good"
	}
	if !oneOf(condition, model.AssetConditions) {
		return AssetResponse{}, apperror.Validation("unknown condition %q", condition)
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	areaID, err := parseID(req.LocationArea, "location_area")
	if err != nil {
		return AssetResponse{}, err
	}
	area, err := s.areas.GetByID(ctx, areaID)
	if err != nil {
		return AssetResponse{}, err
	}
	var purchased *time.Time
	if req.PurchaseDate != "" {
		d, err := parseDate(req.PurchaseDate, "purchase_date")
		if err != nil {
			return AssetResponse{}, err
		}
		purchased = &d
	}
	responsible, err := parseOptionalID(req.ResponsibleParty, "responsible_party")
	if err != nil {
		return AssetResponse{}, err
	}
	var owner *model.User
	if responsible != nil {
		if owner, err = s.users.GetByID(ctx, *responsible); err != nil {
			return AssetResponse{}, err
		}
	}

	var imageURL string
	if image != nil {
		if imageURL, err = s.files.Save(ctx, "assets", *image); err != nil {
			return AssetResponse{}, err
		}
	}
	docs := make([]string, 0, len(documents))
	for _, d := range documents {
		url, err := s.files.Save(ctx, "asset-documents", d)
		if err != nil {
			s.files.Discard(ctx, append(docs, imageURL)...)
			return AssetResponse{}, err
		}
		docs = append(docs, url)
	}

	asset := model.Asset{
		ID:                  uuid.New(),
		Name:                req.Name,
		Category:            req.Category,
		LocationAreaID:      area.ID,
		SerialNumber:        req.SerialNumber,
		PurchaseDate:        purchased,
		Condition:           condition,
		Quantity:            quantity,
		ImageURL:            imageURL,
		ResponsibleParty:    responsible,
		DocumentAttachments: docs,
		CreatedBy:           actor.UserID,
	}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.assets.Create(txCtx, &asset); err != nil {
			return err
		}
		return s.audit.Log(txCtx, auditEntry(actor, model.ActionCreateAsset, lifecycle.EntityAsset, asset.ID, asset.Name, map[string]interface{}{
			"category": asset.Category,
			"area":     area.Name,
			"quantity": asset.Quantity,
		}))
	})
	if err != nil {
		s.files.Discard(ctx, append(docs, imageURL)...)
		return AssetResponse{}, err
	}

	asset.Area = area
	asset.ResponsibleUser = owner
	return toAssetResponse(&asset), nil
}

func (s *assetService) ListAssets(ctx context.Context, actor lifecycle.Actor, q AssetQuery) ([]AssetResponse, int64, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntityAsset); err != nil {
		return nil, 0, err
	}
	areaID, err := parseOptionalID(q.AreaID, "area_id")
	if err != nil {
		return nil, 0, err
	}
	assets, total, err := s.assets.List(ctx, repository.AssetFilter{
		Category: q.Category,
		AreaID:   areaID,
		Page:     q.Page,
		Limit:    q.Limit,
	})
	if err != nil {
		return nil, 0, err
	}
	res := make([]AssetResponse, 0, len(assets))
	for i := range assets {
		res = append(res, toAssetResponse(&assets[i]))
	}
	return res, total, nil
}

func (s *assetService) DeleteAsset(ctx context.Context, actor lifecycle.Actor, id string) error {
	if err := gate(actor, lifecycle.ActionDelete, lifecycle.EntityAsset); err != nil {
		return err
	}
	assetID, err := parseID(id, "id")
	if err != nil {
		return err
	}
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		asset, err := s.assets.GetByID(txCtx, assetID)
		if err != nil {
			return err
		}
		if err := s.assets.Delete(txCtx, asset.ID); err != nil {
			return err
		}
		return s.audit.Log(txCtx, auditEntry(actor, model.ActionDeleteAsset, lifecycle.EntityAsset, asset.ID, asset.Name, map[string]interface{}{
			"category": asset.Category,
		}))
	})
}

func (s *assetService) CreateSchedule(ctx context.Context, actor lifecycle.Actor, assetID string, req CreateScheduleRequest) (ScheduleResponse, error) {
	if err := gate(actor, lifecycle.ActionCreate, lifecycle.EntityAsset); err != nil {
		return ScheduleResponse{}, err
	}
	if !oneOf(req.ScheduleType, model.ScheduleTypes) {
		return ScheduleResponse{}, apperror.Validation("unknown schedule_type %q", req.ScheduleType)
	}
	id, err := parseID(assetID, "asset_id")
	if err != nil {
		return ScheduleResponse{}, err
	}
	due, err := parseDate(req.NextDueDate, "next_due_date")
	if err != nil {
		return ScheduleResponse{}, err
	}
	asset, err := s.assets.GetByID(ctx, id)
	if err != nil {
		return ScheduleResponse{}, err
	}

	schedule := model.AssetMaintenanceSchedule{
		ID:           uuid.New(),
		AssetID:      asset.ID,
		ScheduleType: req.ScheduleType,
		NextDueDate:  due,
		Notes:        req.Notes,
	}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.assets.CreateSchedule(txCtx, &schedule); err != nil {
			return err
		}
		return s.audit.Log(txCtx, auditEntry(actor, model.ActionCreateSchedule, lifecycle.EntityAsset, asset.ID, asset.Name, map[string]interface{}{
			"schedule_type": req.ScheduleType,
			"next_due_date": req.NextDueDate,
		}))
	})
	if err != nil {
		return ScheduleResponse{}, err
	}
	return s.toScheduleResponse(&schedule), nil
}

func (s *assetService) ListSchedules(ctx context.Context, actor lifecycle.Actor, assetID string) ([]ScheduleResponse, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntityAsset); err != nil {
		return nil, err
	}
	id, err := parseID(assetID, "asset_id")
	if err != nil {
		return nil, err
	}
	schedules, err := s.assets.ListSchedules(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toScheduleResponses(schedules), nil
}

// DueSchedules lists maintenance due within the next withinDays days,
// overdue items included.
func (s *assetService) DueSchedules(ctx context.Context, actor lifecycle.Actor, withinDays int) ([]ScheduleResponse, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntityAsset); err != nil {
		return nil, err
	}
	if withinDays < 0 || withinDays > 366 {
		return nil, apperror.Validation("days must be between 0 and 366")
	}
	schedules, err := s.assets.DueSchedules(ctx, today(s.now()).AddDate(0, 0, withinDays))
	if err != nil {
		return nil, err
	}
	return s.toScheduleResponses(schedules), nil
}

// --- Helpers ---

func (s *assetService) toScheduleResponses(schedules []model.AssetMaintenanceSchedule) []ScheduleResponse {
	res := make([]ScheduleResponse, 0, len(schedules))
	for i := range schedules {
		res = append(res, s.toScheduleResponse(&schedules[i]))
	}
	return res
}

func (s *assetService) toScheduleResponse(m *model.AssetMaintenanceSchedule) ScheduleResponse {
	return ScheduleResponse{
		ID:           m.ID.String(),
		AssetID:      m.AssetID.String(),
		ScheduleType: m.ScheduleType,
		NextDueDate:  m.NextDueDate.Format(dateLayout),
		Notes:        m.Notes,
		Overdue:      m.NextDueDate.Before(today(s.now())),
	}
}

func toAssetResponse(a *model.Asset) AssetResponse {
	res := AssetResponse{
		ID:                  a.ID.String(),
		Name:                a.Name,
		Category:            a.Category,
		LocationArea:        a.LocationAreaID.String(),
		SerialNumber:        a.SerialNumber,
		Condition:           a.Condition,
		Quantity:            a.Quantity,
		ImageURL:            a.ImageURL,
		ResponsibleParty:    idString(a.ResponsibleParty),
		DocumentAttachments: a.DocumentAttachments,
		CreatedAt:           a.CreatedAt.Format(timeLayout),
	}
	if res.DocumentAttachments == nil {
		res.DocumentAttachments = []string{}
	}
	if a.PurchaseDate != nil {
		d := a.PurchaseDate.Format(dateLayout)
		res.PurchaseDate = &d
	}
	if a.Area != nil {
		res.AreaName = a.Area.Name
	}
	if a.ResponsibleUser != nil {
		res.ResponsibleName = a.ResponsibleUser.FullName
	}
	return res
}
