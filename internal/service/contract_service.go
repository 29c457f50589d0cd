package service

import (
	"context"
	"errors"
	"time"

	"fms/internal/lifecycle"
	"fms/internal/model"
	"fms/internal/repository"
	"fms/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// --- DTOs ---

type CreateContractRequest struct {
	VendorID           string `json:"vendor_id" binding:"required,uuid"`
	ServiceDescription string `json:"service_description" binding:"required"`
	StartDate          string `json:"start_date" binding:"required,date"`
	EndDate            string `json:"end_date" binding:"required,date"`
	RenewalDate        string `json:"renewal_date" binding:"omitempty,date"`
	Value              string `json:"value" binding:"required,decimal_gt0"`
	DocumentAttachment string `json:"document_attachment"`
}

type ContractResponse struct {
	ID                 string  `json:"id"`
	VendorID           string  `json:"vendor_id"`
	VendorName         string  `json:"vendor_name"`
	ServiceDescription string  `json:"service_description"`
	StartDate          string  `json:"start_date"`
	EndDate            string  `json:"end_date"`
	RenewalDate        *string `json:"renewal_date"`
	Value              string  `json:"value"`
	Status             string  `json:"status"`
	DocumentAttachment string  `json:"document_attachment,omitempty"`
	ReviewedBy         *string `json:"reviewed_by"`
	ReviewedAt         *string `json:"reviewed_at"`
	CreatedAt          string  `json:"created_at"`
}

type ExpireResult struct {
	Expired     int      `json:"expired"`
	Skipped     int      `json:"skipped"`
	ContractIDs []string `json:"contract_ids"`
}

// --- Interface ---

type ContractService interface {
	CreateContract(ctx context.Context, actor lifecycle.Actor, req CreateContractRequest) (ContractResponse, error)
	ListContracts(ctx context.Context, actor lifecycle.Actor, q ListQuery) ([]ContractResponse, int64, error)
	UpdateStatus(ctx context.Context, actor lifecycle.Actor, id string, req StatusRequest) (ContractResponse, error)
	ExpireDue(ctx context.Context, actor lifecycle.Actor) (ExpireResult, error)
}

type contractService struct {
	contracts repository.ContractRepository
	vendors   repository.VendorRepository
	audit     repository.AuditRepository
	tx        repository.TransactionManager
	reviewer  *reviewer
	log       *zap.Logger
	now       func() time.Time
}

func NewContractService(contracts repository.ContractRepository, vendors repository.VendorRepository, deps Deps) ContractService {
	return &contractService{
		contracts: contracts,
		vendors:   vendors,
		audit:     deps.Audit,
		tx:        deps.Tx,
		reviewer:  deps.reviewer(),
		log:       deps.logger(),
		now:       time.Now,
	}
}

// --- Implementation ---

// CreateContract is limited to admins even though facility managers may
// review contracts.
func (s *contractService) CreateContract(ctx context.Context, actor lifecycle.Actor, req CreateContractRequest) (ContractResponse, error) {
	if err := gate(actor, lifecycle.ActionCreate, lifecycle.EntityContract); err != nil {
		return ContractResponse{}, err
	}
	if actor.Role != lifecycle.RoleAdmin {
		return ContractResponse{}, apperror.Unauthorized("only administrators can create contracts")
	}

	vendorID, err := parseID(req.VendorID, "vendor_id")
	if err != nil {
		return ContractResponse{}, err
	}
	start, err := parseDate(req.StartDate, "start_date")
	if err != nil {
		return ContractResponse{}, err
	}
	end, err := parseDate(req.EndDate, "end_date")
	if err != nil {
		return ContractResponse{}, err
	}
	if !end.After(start) {
		return ContractResponse{}, apperror.Validation("end_date must be after start_date")
	}
	var renewal *time.Time
	if req.RenewalDate != "" {
		r, err := parseDate(req.RenewalDate, "renewal_date")
		if err != nil {
			return ContractResponse{}, err
		}
		renewal = &r
	}
	value, err := decimal.NewFromString(req.Value)
	if err != nil || !value.IsPositive() {
		return ContractResponse{}, apperror.Validation("value must be a decimal number greater than 0")
	}

	vendor, err := s.vendors.GetByID(ctx, vendorID)
	if err != nil {
		return ContractResponse{}, err
	}

	initial, _ := lifecycle.InitialStatus(lifecycle.EntityContract)
	contract := model.Contract{
		ID:                 uuid.New(),
		VendorID:           vendor.ID,
		ServiceDescription: req.ServiceDescription,
		StartDate:          start,
		EndDate:            end,
		RenewalDate:        renewal,
		Value:              value.Round(2),
		Status:             initial,
		DocumentAttachment: req.DocumentAttachment,
		CreatedBy:          actor.UserID,
	}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.contracts.Create(txCtx, &contract); err != nil {
			return err
		}
		return s.audit.Log(txCtx, auditEntry(actor, model.ActionCreateContract, lifecycle.EntityContract, contract.ID, vendor.CompanyName, map[string]interface{}{
			"value":      contract.Value.StringFixed(2),
			"start_date": req.StartDate,
			"end_date":   req.EndDate,
		}))
	})
	if err != nil {
		return ContractResponse{}, err
	}

	contract.Vendor = vendor
	return toContractResponse(&contract), nil
}

func (s *contractService) ListContracts(ctx context.Context, actor lifecycle.Actor, q ListQuery) ([]ContractResponse, int64, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntityContract); err != nil {
		return nil, 0, err
	}
	contracts, total, err := s.contracts.List(ctx, repository.ListFilter{Status: q.Status, Page: q.Page, Limit: q.Limit})
	if err != nil {
		return nil, 0, err
	}
	res := make([]ContractResponse, 0, len(contracts))
	for i := range contracts {
		res = append(res, toContractResponse(&contracts[i]))
	}
	return res, total, nil
}

func (s *contractService) UpdateStatus(ctx context.Context, actor lifecycle.Actor, id string, req StatusRequest) (ContractResponse, error) {
	contractID, err := parseID(id, "id")
	if err != nil {
		return ContractResponse{}, err
	}
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return ContractResponse{}, err
	}
	d, err := s.transition(ctx, actor, contract, lifecycle.Status(req.Status), req.Reason)
	if err != nil {
		return ContractResponse{}, err
	}
	if d.NoOp {
		return toContractResponse(contract), nil
	}
	updated, err := s.contracts.GetByID(ctx, contract.ID)
	if err != nil {
		return ContractResponse{}, err
	}
	return toContractResponse(updated), nil
}

// ExpireDue moves every active or under-review contract whose end date has
// passed to expired. Contracts changed concurrently are skipped.
func (s *contractService) ExpireDue(ctx context.Context, actor lifecycle.Actor) (ExpireResult, error) {
	if err := gate(actor, lifecycle.ActionApprove, lifecycle.EntityContract); err != nil {
		return ExpireResult{}, err
	}
	if actor.Role != lifecycle.RoleAdmin {
		return ExpireResult{}, apperror.Unauthorized("only administrators can expire contracts")
	}
	lapsed, err := s.contracts.ListLapsed(ctx, today(s.now()))
	if err != nil {
		return ExpireResult{}, err
	}

	res := ExpireResult{ContractIDs: []string{}}
	for i := range lapsed {
		c := &lapsed[i]
		_, err := s.transition(ctx, actor, c, lifecycle.ContractExpired, "end date passed")
		switch {
		case err == nil:
			res.Expired++
			res.ContractIDs = append(res.ContractIDs, c.ID.String())
		case errors.Is(err, apperror.ErrConflict):
			res.Skipped++
		default:
			return res, err
		}
	}
	s.log.Info("expired lapsed contracts", zap.Int("expired", res.Expired), zap.Int("skipped", res.Skipped))
	return res, nil
}

func (s *contractService) transition(ctx context.Context, actor lifecycle.Actor, c *model.Contract, to lifecycle.Status, reason string) (lifecycle.Decision, error) {
	name := c.ServiceDescription
	if c.Vendor != nil {
		name = c.Vendor.CompanyName
	}
	return s.reviewer.apply(ctx, actor, reviewStep{
		Entity:      lifecycle.EntityContract,
		Label:       "contract",
		ID:          c.ID,
		Name:        name,
		Owner:       c.CreatedBy,
		From:        c.Status,
		To:          to,
		Reason:      reason,
		ReviewStamp: [2]string{"reviewed_by", "reviewed_at"},
		Update: func(ctx context.Context, from lifecycle.Status, f map[string]interface{}) error {
			return s.contracts.UpdateStatus(ctx, c.ID, from, f)
		},
	})
}

// --- Helpers ---

func toContractResponse(c *model.Contract) ContractResponse {
	res := ContractResponse{
		ID:                 c.ID.String(),
		VendorID:           c.VendorID.String(),
		ServiceDescription: c.ServiceDescription,
		StartDate:          c.StartDate.Format(dateLayout),
		EndDate:            c.EndDate.Format(dateLayout),
		Value:              c.Value.StringFixed(2),
		Status:             string(c.Status),
		DocumentAttachment: c.DocumentAttachment,
		ReviewedBy:         idString(c.ReviewedBy),
		ReviewedAt:         formatTime(c.ReviewedAt),
		CreatedAt:          c.CreatedAt.Format(timeLayout),
	}
	if c.RenewalDate != nil {
		d := c.RenewalDate.Format(dateLayout)
		res.RenewalDate = &d
	}
	if c.Vendor != nil {
		res.VendorName = c.Vendor.CompanyName
	}
	return res
}
