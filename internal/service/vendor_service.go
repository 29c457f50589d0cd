package service

import (
	"context"
	"time"

	"fms/internal/lifecycle"
	"fms/internal/model"
	"fms/internal/repository"
	"fms/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Contact DTO ---

type ContactPayload struct {
	Name      string `json:"name" binding:"required"`
	Phone     string `json:"phone"`
	Email     string `json:"email" binding:"omitempty,email"`
	IsPrimary bool   `json:"is_primary"`
}

type ContactResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	IsPrimary bool      `json:"is_primary"`
}

// --- Vendor DTOs ---

type CreateVendorRequest struct {
	CompanyName     string           `json:"company_name" binding:"required"`
	ServiceCategory string           `json:"service_category" binding:"required"`
	Rating          *int             `json:"rating" binding:"omitempty,min=1,max=5"`
	Notes           string           `json:"notes"`
	Contacts        []ContactPayload `json:"contacts" binding:"omitempty,dive"`
}

type VendorResponse struct {
	ID              uuid.UUID         `json:"id"`
	CompanyName     string            `json:"company_name"`
	ServiceCategory string            `json:"service_category"`
	Rating          *int              `json:"rating"`
	Notes           string            `json:"notes,omitempty"`
	Contacts        []ContactResponse `json:"contacts"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// --- Payment DTOs ---

type RecordPaymentRequest struct {
	ContractID       string `json:"contract_id" binding:"omitempty,uuid"`
	WorkOrderID      string `json:"work_order_id" binding:"omitempty,uuid"`
	Amount           string `json:"amount" binding:"required,decimal_gt0"`
	InvoiceReference string `json:"invoice_reference"`
	PaymentMethod    string `json:"payment_method"`
	PaymentDate      string `json:"payment_date" binding:"required,date"`
}

type PaymentResponse struct {
	ID               uuid.UUID `json:"id"`
	VendorID         uuid.UUID `json:"vendor_id"`
	ContractID       *string   `json:"contract_id"`
	WorkOrderID      *string   `json:"work_order_id"`
	Amount           string    `json:"amount"`
	InvoiceReference string    `json:"invoice_reference"`
	PaymentMethod    string    `json:"payment_method"`
	PaymentDate      string    `json:"payment_date"`
	RecordedBy       uuid.UUID `json:"recorded_by"`
	CreatedAt        time.Time `json:"created_at"`
}

// --- Interface ---

type VendorService interface {
	CreateVendor(ctx context.Context, actor lifecycle.Actor, req CreateVendorRequest) (VendorResponse, error)
	ListVendors(ctx context.Context, actor lifecycle.Actor, search string, page, limit int) ([]VendorResponse, int64, error)
	RecordPayment(ctx context.Context, actor lifecycle.Actor, vendorID string, req RecordPaymentRequest) (PaymentResponse, error)
	ListPayments(ctx context.Context, actor lifecycle.Actor, vendorID string) ([]PaymentResponse, error)
}

type vendorService struct {
	vendors   repository.VendorRepository
	contracts repository.ContractRepository
	orders    repository.WorkOrderRepository
	audit     repository.AuditRepository
	tx        repository.TransactionManager
}

func NewVendorService(
	vendors repository.VendorRepository,
	contracts repository.ContractRepository,
	orders repository.WorkOrderRepository,
	deps Deps,
) VendorService {
	return &vendorService{
		vendors:   vendors,
		contracts: contracts,
		orders:    orders,
		audit:     deps.Audit,
		tx:        deps.Tx,
	}
}

// --- Implementation ---

// CreateVendor inserts the vendor and its contacts in one transaction.
func (s *vendorService) CreateVendor(ctx context.Context, actor lifecycle.Actor, req CreateVendorRequest) (VendorResponse, error) {
	if err := gate(actor, lifecycle.ActionCreate, lifecycle.EntityVendor); err != nil {
		return VendorResponse{}, err
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return VendorResponse{}, apperror.Validation("rating must be between 1 and 5")
	}

	vendor := model.Vendor{
		ID:              uuid.New(),
		CompanyName:     req.CompanyName,
		ServiceCategory: req.ServiceCategory,
		Rating:          req.Rating,
		Notes:           req.Notes,
	}
	contacts := make([]model.VendorContact, 0, len(req.Contacts))
	primary := 0
	for _, c := range req.Contacts {
		if c.IsPrimary {
			primary++
		}
		contacts = append(contacts, model.VendorContact{
			ID:        uuid.New(),
			VendorID:  vendor.ID,
			Name:      c.Name,
			Phone:     c.Phone,
			Email:     c.Email,
			IsPrimary: c.IsPrimary,
		})
	}
	if primary > 1 {
		return VendorResponse{}, apperror.Validation("only one contact can be primary")
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.vendors.Create(txCtx, &vendor); err != nil {
			return err
		}
		if err := s.vendors.CreateContacts(txCtx, contacts); err != nil {
			return err
		}
		return s.audit.Log(txCtx, auditEntry(actor, model.ActionCreateVendor, lifecycle.EntityVendor, vendor.ID, vendor.CompanyName, map[string]interface{}{
			"service_category": vendor.ServiceCategory,
			"contacts":         len(contacts),
		}))
	})
	if err != nil {
		return VendorResponse{}, err
	}

	vendor.Contacts = contacts
	return toVendorResponse(&vendor), nil
}

func (s *vendorService) ListVendors(ctx context.Context, actor lifecycle.Actor, search string, page, limit int) ([]VendorResponse, int64, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntityVendor); err != nil {
		return nil, 0, err
	}
	vendors, total, err := s.vendors.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, err
	}
	res := make([]VendorResponse, 0, len(vendors))
	for i := range vendors {
		res = append(res, toVendorResponse(&vendors[i]))
	}
	return res, total, nil
}

// RecordPayment books money paid to a vendor. Only reviewers of vendors may
// record payments; the optional contract must belong to the same vendor.
func (s *vendorService) RecordPayment(ctx context.Context, actor lifecycle.Actor, vendorID string, req RecordPaymentRequest) (PaymentResponse, error) {
	if err := gate(actor, lifecycle.ActionApprove, lifecycle.EntityVendor); err != nil {
		return PaymentResponse{}, err
	}
	vid, err := parseID(vendorID, "vendor_id")
	if err != nil {
		return PaymentResponse{}, err
	}
	vendor, err := s.vendors.GetByID(ctx, vid)
	if err != nil {
		return PaymentResponse{}, err
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return PaymentResponse{}, apperror.Validation("amount must be a decimal number greater than 0")
	}
	paidOn, err := parseDate(req.PaymentDate, "payment_date")
	if err != nil {
		return PaymentResponse{}, err
	}

	contractID, err := parseOptionalID(req.ContractID, "contract_id")
	if err != nil {
		return PaymentResponse{}, err
	}
	if contractID != nil {
		contract, err := s.contracts.GetByID(ctx, *contractID)
		if err != nil {
			return PaymentResponse{}, err
		}
		if contract.VendorID != vendor.ID {
			return PaymentResponse{}, apperror.Validation("contract belongs to another vendor")
		}
	}
	workOrderID, err := parseOptionalID(req.WorkOrderID, "work_order_id")
	if err != nil {
		return PaymentResponse{}, err
	}
	if workOrderID != nil {
		if _, err := s.orders.GetByID(ctx, *workOrderID); err != nil {
			return PaymentResponse{}, err
		}
	}

	payment := model.VendorPayment{
		ID:               uuid.New(),
		VendorID:         vendor.ID,
		ContractID:       contractID,
		WorkOrderID:      workOrderID,
		Amount:           amount.Round(2),
		InvoiceReference: req.InvoiceReference,
		PaymentMethod:    req.PaymentMethod,
		PaymentDate:      paidOn,
		RecordedBy:       actor.UserID,
	}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.vendors.CreatePayment(txCtx, &payment); err != nil {
			return err
		}
		return s.audit.Log(txCtx, auditEntry(actor, model.ActionRecordPayment, lifecycle.EntityVendor, vendor.ID, vendor.CompanyName, map[string]interface{}{
			"payment_id": payment.ID,
			"amount":     payment.Amount.StringFixed(2),
			"invoice":    payment.InvoiceReference,
		}))
	})
	if err != nil {
		return PaymentResponse{}, err
	}
	return toPaymentResponse(&payment), nil
}

func (s *vendorService) ListPayments(ctx context.Context, actor lifecycle.Actor, vendorID string) ([]PaymentResponse, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntityVendor); err != nil {
		return nil, err
	}
	vid, err := parseID(vendorID, "vendor_id")
	if err != nil {
		return nil, err
	}
	payments, err := s.vendors.ListPayments(ctx, vid)
	if err != nil {
		return nil, err
	}
	res := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		res = append(res, toPaymentResponse(&payments[i]))
	}
	return res, nil
}

// --- Helpers ---

func toVendorResponse(v *model.Vendor) VendorResponse {
	res := VendorResponse{
		ID:              v.ID,
		CompanyName:     v.CompanyName,
		ServiceCategory: v.ServiceCategory,
		Rating:          v.Rating,
		Notes:           v.Notes,
		Contacts:        make([]ContactResponse, 0, len(v.Contacts)),
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
	for _, c := range v.Contacts {
		res.Contacts = append(res.Contacts, ContactResponse{
			ID:        c.ID,
			Name:      c.Name,
			Phone:     c.Phone,
			Email:     c.Email,
			IsPrimary: c.IsPrimary,
		})
	}
	return res
}

func toPaymentResponse(p *model.VendorPayment) PaymentResponse {
	return PaymentResponse{
		ID:               p.ID,
		VendorID:         p.VendorID,
		ContractID:       idString(p.ContractID),
		WorkOrderID:      idString(p.WorkOrderID),
		Amount:           p.Amount.StringFixed(2),
		InvoiceReference: p.InvoiceReference,
		PaymentMethod:    p.PaymentMethod,
		PaymentDate:      p.PaymentDate.Format(dateLayout),
		RecordedBy:       p.RecordedBy,
		CreatedAt:        p.CreatedAt,
	}
}
