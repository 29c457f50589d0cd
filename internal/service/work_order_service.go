package service

import (
	"context"
	"fmt"

	"fms/internal/lifecycle"
	"fms/internal/model"
	"fms/internal/repository"
	"fms/internal/storage"
	"fms/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- DTOs ---

type CreateWorkOrderRequest struct {
	LocationArea string `json:"location_area" form:"location_area" binding:"required,uuid"`
	Category     string `json:"category" form:"category" binding:"required,wo_category"`
	Description  string `json:"description" form:"description" binding:"required,min=5"`
	Urgency      string `json:"urgency" form:"urgency" binding:"required,wo_urgency"`
}

type WorkOrderResponse struct {
	ID               string   `json:"id"`
	WorkOrderNumber  string   `json:"work_order_number"`
	SubmittedBy      string   `json:"submitted_by"`
	SubmitterName    string   `json:"submitter_name"`
	LocationArea     string   `json:"location_area"`
	AreaName         string   `json:"area_name"`
	Category         string   `json:"category"`
	Description      string   `json:"description"`
	Urgency          string   `json:"urgency"`
	Status           string   `json:"status"`
	AssignedToUser   *string  `json:"assigned_to_user"`
	AssigneeName     string   `json:"assignee_name,omitempty"`
	AssignedToVendor *string  `json:"assigned_to_vendor"`
	VendorName       string   `json:"vendor_name,omitempty"`
	RejectionReason  string   `json:"rejection_reason,omitempty"`
	PhotoAttachments []string `json:"photo_attachments"`
	ApprovedBy       *string  `json:"approved_by"`
	ApprovedAt       *string  `json:"approved_at"`
	CompletedBy      *string  `json:"completed_by"`
	CompletedAt      *string  `json:"completed_at"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

// --- Interface ---

type WorkOrderService interface {
	CreateWorkOrder(ctx context.Context, actor lifecycle.Actor, req CreateWorkOrderRequest, photos []storage.File) (WorkOrderResponse, error)
	GetWorkOrder(ctx context.Context, actor lifecycle.Actor, id string) (WorkOrderResponse, error)
	ListWorkOrders(ctx context.Context, actor lifecycle.Actor, q ListQuery) ([]WorkOrderResponse, int64, error)
	UpdateStatus(ctx context.Context, actor lifecycle.Actor, id string, req StatusRequest) (WorkOrderResponse, error)
}

type workOrderService struct {
	orders   repository.WorkOrderRepository
	areas    repository.AreaRepository
	users    repository.UserRepository
	vendors  repository.VendorRepository
	audit    repository.AuditRepository
	tx       repository.TransactionManager
	numberer *lifecycle.Numberer
	files    FileSaver
	notifier *notifier
	reviewer *reviewer
	log      *zap.Logger
}

func NewWorkOrderService(
	orders repository.WorkOrderRepository,
	areas repository.AreaRepository,
	users repository.UserRepository,
	vendors repository.VendorRepository,
	deps Deps,
	numberer *lifecycle.Numberer,
) WorkOrderService {
	return &workOrderService{
		orders:   orders,
		areas:    areas,
		users:    users,
		vendors:  vendors,
		audit:    deps.Audit,
		tx:       deps.Tx,
		numberer: numberer,
		files:    deps.Files,
		notifier: deps.notifier(),
		reviewer: deps.reviewer(),
		log:      deps.logger(),
	}
}

// --- Implementation ---

func (s *workOrderService) CreateWorkOrder(ctx context.Context, actor lifecycle.Actor, req CreateWorkOrderRequest, photos []storage.File) (WorkOrderResponse, error) {
	if err := gate(actor, lifecycle.ActionCreate, lifecycle.EntityWorkOrder); err != nil {
		return WorkOrderResponse{}, err
	}
	if !oneOf(req.Category, model.WorkOrderCategories) {
		return WorkOrderResponse{}, apperror.Validation("unknown category %q", req.Category)
	}
	if !oneOf(req.Urgency, model.WorkOrderUrgencies) {
		return WorkOrderResponse{}, apperror.Validation("unknown urgency %q", req.Urgency)
	}
	areaID, err := parseID(req.LocationArea, "location_area")
	if err != nil {
		return WorkOrderResponse{}, err
	}
	area, err := s.areas.GetByID(ctx, areaID)
	if err != nil {
		return WorkOrderResponse{}, err
	}

	urls := make([]string, 0, len(photos))
	for _, p := range photos {
		url, err := s.files.Save(ctx, "work-orders", p)
		if err != nil {
			s.files.Discard(ctx, urls...)
			return WorkOrderResponse{}, err
		}
		urls = append(urls, url)
	}

	initial, _ := lifecycle.InitialStatus(lifecycle.EntityWorkOrder)
	wo := &model.WorkOrder{
		ID:               uuid.New(),
		SubmittedBy:      actor.UserID,
		LocationAreaID:   area.ID,
		Category:         req.Category,
		Description:      req.Description,
		Urgency:          req.Urgency,
		Status:           initial,
		PhotoAttachments: urls,
	}

	var staged []model.Notification
	number, err := s.numberer.Assign(ctx, func(ctx context.Context, number string) error {
		wo.WorkOrderNumber = number
		return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			if err := s.orders.Create(txCtx, wo); err != nil {
				return err
			}
			entry := auditEntry(actor, model.ActionCreateWorkOrder, lifecycle.EntityWorkOrder, wo.ID, number, map[string]interface{}{
				"category": wo.Category,
				"urgency":  wo.Urgency,
				"area":     area.Name,
			})
			if err := s.audit.Log(txCtx, entry); err != nil {
				return err
			}
			if wo.Urgency != model.UrgencyEmergency {
				return nil
			}
			notes, err := s.notifier.reviewers(txCtx, emergencyNotice(wo, area, actor))
			if err != nil {
				return err
			}
			staged = notes
			return s.notifier.stage(txCtx, staged)
		})
	})
	if err != nil {
		s.files.Discard(ctx, urls...)
		return WorkOrderResponse{}, err
	}

	s.log.Info("work order submitted", zap.String("number", number), zap.String("urgency", wo.Urgency))
	s.notifier.dispatch(ctx, staged)

	created, err := s.orders.GetByID(ctx, wo.ID)
	if err != nil {
		return WorkOrderResponse{}, err
	}
	return toWorkOrderResponse(created), nil
}

func (s *workOrderService) GetWorkOrder(ctx context.Context, actor lifecycle.Actor, id string) (WorkOrderResponse, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntityWorkOrder); err != nil {
		return WorkOrderResponse{}, err
	}
	woID, err := parseID(id, "id")
	if err != nil {
		return WorkOrderResponse{}, err
	}
	wo, err := s.orders.GetByID(ctx, woID)
	if err != nil {
		return WorkOrderResponse{}, err
	}
	if err := canSee(actor, lifecycle.EntityWorkOrder, wo.SubmittedBy, "work order"); err != nil {
		return WorkOrderResponse{}, err
	}
	return toWorkOrderResponse(wo), nil
}

func (s *workOrderService) ListWorkOrders(ctx context.Context, actor lifecycle.Actor, q ListQuery) ([]WorkOrderResponse, int64, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntityWorkOrder); err != nil {
		return nil, 0, err
	}
	orders, total, err := s.orders.List(ctx, listFilter(actor, lifecycle.EntityWorkOrder, q))
	if err != nil {
		return nil, 0, err
	}
	res := make([]WorkOrderResponse, 0, len(orders))
	for i := range orders {
		res = append(res, toWorkOrderResponse(&orders[i]))
	}
	return res, total, nil
}

func (s *workOrderService) UpdateStatus(ctx context.Context, actor lifecycle.Actor, id string, req StatusRequest) (WorkOrderResponse, error) {
	woID, err := parseID(id, "id")
	if err != nil {
		return WorkOrderResponse{}, err
	}
	wo, err := s.orders.GetByID(ctx, woID)
	if err != nil {
		return WorkOrderResponse{}, err
	}

	to := lifecycle.Status(req.Status)
	if err := gate(actor, lifecycle.ActionFor(to), lifecycle.EntityWorkOrder); err != nil {
		return WorkOrderResponse{}, err
	}
	fields, err := s.assignment(ctx, to, req)
	if err != nil {
		return WorkOrderResponse{}, err
	}

	d, err := s.reviewer.apply(ctx, actor, reviewStep{
		Entity: lifecycle.EntityWorkOrder,
		Label:  "work order",
		ID:     wo.ID,
		Name:   wo.WorkOrderNumber,
		Owner:  wo.SubmittedBy,
		From:   wo.Status,
		To:     to,
		Reason: req.Reason,
		Stamps: map[lifecycle.Status][2]string{
			lifecycle.WorkOrderApproved:  {"approved_by", "approved_at"},
			lifecycle.WorkOrderCompleted: {"completed_by", "completed_at"},
		},
		ReasonColumn: "rejection_reason",
		Fields:       fields,
		Update: func(ctx context.Context, from lifecycle.Status, f map[string]interface{}) error {
			return s.orders.UpdateStatus(ctx, wo.ID, from, f)
		},
	})
	if err != nil {
		return WorkOrderResponse{}, err
	}
	if d.NoOp {
		return toWorkOrderResponse(wo), nil
	}

	updated, err := s.orders.GetByID(ctx, wo.ID)
	if err != nil {
		return WorkOrderResponse{}, err
	}
	return toWorkOrderResponse(updated), nil
}

// assignment validates the optional assignee fields. They are only accepted
// when the order is approved or started.
func (s *workOrderService) assignment(ctx context.Context, to lifecycle.Status, req StatusRequest) (map[string]interface{}, error) {
	if req.AssignedToUser == "" && req.AssignedToVendor == "" {
		return nil, nil
	}
	if to != lifecycle.WorkOrderApproved && to != lifecycle.WorkOrderInProgress {
		return nil, apperror.Validation("work orders can only be assigned when approved or started")
	}
	fields := map[string]interface{}{}
	if req.AssignedToUser != "" {
		userID, err := parseID(req.AssignedToUser, "assigned_to_user")
		if err != nil {
			return nil, err
		}
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !user.IsActive {
			return nil, apperror.Validation("assignee %s is deactivated", user.FullName)
		}
		fields["assigned_to_user"] = user.ID
	}
	if req.AssignedToVendor != "" {
		vendorID, err := parseID(req.AssignedToVendor, "assigned_to_vendor")
		if err != nil {
			return nil, err
		}
		vendor, err := s.vendors.GetByID(ctx, vendorID)
		if err != nil {
			return nil, err
		}
		fields["assigned_to_vendor"] = vendor.ID
	}
	return fields, nil
}

// --- Helpers ---

func emergencyNotice(wo *model.WorkOrder, area *model.FacilityArea, actor lifecycle.Actor) model.Notification {
	ref := wo.ID
	return model.Notification{
		Title:         fmt.Sprintf("Emergency work order %s", wo.WorkOrderNumber),
		Message:       fmt.Sprintf("%s reported an emergency (%s) in %s: %s", actor.FullName, wo.Category, area.Name, wo.Description),
		Type:          model.NotificationWorkOrder,
		ReferenceID:   &ref,
		ReferenceType: string(lifecycle.EntityWorkOrder),
		Channel:       model.ChannelBoth,
	}
}

func toWorkOrderResponse(wo *model.WorkOrder) WorkOrderResponse {
	res := WorkOrderResponse{
		ID:               wo.ID.String(),
		WorkOrderNumber:  wo.WorkOrderNumber,
		SubmittedBy:      wo.SubmittedBy.String(),
		LocationArea:     wo.LocationAreaID.String(),
		Category:         wo.Category,
		Description:      wo.Description,
		Urgency:          wo.Urgency,
		Status:           string(wo.Status),
		AssignedToUser:   idString(wo.AssignedToUser),
		AssignedToVendor: idString(wo.AssignedToVendor),
		RejectionReason:  wo.RejectionReason,
		PhotoAttachments: wo.PhotoAttachments,
		ApprovedBy:       idString(wo.ApprovedBy),
		ApprovedAt:       formatTime(wo.ApprovedAt),
		CompletedBy:      idString(wo.CompletedBy),
		CompletedAt:      formatTime(wo.CompletedAt),
		CreatedAt:        wo.CreatedAt.Format(timeLayout),
		UpdatedAt:        wo.UpdatedAt.Format(timeLayout),
	}
	if res.PhotoAttachments == nil {
		res.PhotoAttachments = []string{}
	}
	if wo.Submitter != nil {
		res.SubmitterName = wo.Submitter.FullName
	}
	if wo.Area != nil {
		res.AreaName = wo.Area.Name
	}
	if wo.Assignee != nil {
		res.AssigneeName = wo.Assignee.FullName
	}
	if wo.Vendor != nil {
		res.VendorName = wo.Vendor.CompanyName
	}
	return res
}
