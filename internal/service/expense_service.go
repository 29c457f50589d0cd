package service

import (
	"context"

	"fms/internal/lifecycle"
	"fms/internal/model"
	"fms/internal/repository"
	"fms/internal/storage"
	"fms/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateExpenseRequest struct {
	Description string `json:"description" form:"description" binding:"required"`
	Amount      string `json:"amount" form:"amount" binding:"required,decimal_gt0"` // Decimal string
	Category    string `json:"category" form:"category" binding:"required,expense_category"`
	ExpenseDate string `json:"expense_date" form:"expense_date" binding:"required,date"`
	VendorPayee string `json:"vendor_payee" form:"vendor_payee"`
}

type ExpenseResponse struct {
	ID                string  `json:"id"`
	SubmittedBy       string  `json:"submitted_by"`
	SubmitterName     string  `json:"submitter_name"`
	Description       string  `json:"description"`
	Amount            string  `json:"amount"`
	Category          string  `json:"category"`
	ExpenseDate       string  `json:"expense_date"`
	VendorPayee       string  `json:"vendor_payee"`
	ReceiptAttachment string  `json:"receipt_attachment,omitempty"`
	Status            string  `json:"status"`
	ApprovedBy        *string `json:"approved_by"`
	ApprovedAt        *string `json:"approved_at"`
	ReimbursedBy      *string `json:"reimbursed_by"`
	ReimbursedAt      *string `json:"reimbursed_at"`
	RejectionReason   string  `json:"rejection_reason,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

// --- Interface ---

type ExpenseService interface {
	CreateExpense(ctx context.Context, actor lifecycle.Actor, req CreateExpenseRequest, receipt *storage.File) (ExpenseResponse, error)
	GetExpenses(ctx context.Context, actor lifecycle.Actor, q ListQuery) ([]ExpenseResponse, int64, error)
	UpdateStatus(ctx context.Context, actor lifecycle.Actor, id string, req StatusRequest) (ExpenseResponse, error)
}

type expenseService struct {
	expenseRepo repository.ExpenseRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	files       FileSaver
	reviewer    *reviewer
}

func NewExpenseService(expenseRepo repository.ExpenseRepository, deps Deps) ExpenseService {
	return &expenseService{
		expenseRepo: expenseRepo,
		auditRepo:   deps.Audit,
		txManager:   deps.Tx,
		files:       deps.Files,
		reviewer:    deps.reviewer(),
	}
}

// --- Implementation ---

func (s *expenseService) CreateExpense(ctx context.Context, actor lifecycle.Actor, req CreateExpenseRequest, receipt *storage.File) (ExpenseResponse, error) {
	if err := gate(actor, lifecycle.ActionCreate, lifecycle.EntityExpense); err != nil {
		return ExpenseResponse{}, err
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return ExpenseResponse{}, apperror.Validation("amount must be a decimal number")
	}
	if !amount.IsPositive() {
		return ExpenseResponse{}, apperror.Validation("amount must be greater than 0")
	}
	if !oneOf(req.Category, model.ExpenseCategories) {
		return ExpenseResponse{}, apperror.Validation("unknown category %q", req.Category)
	}
	date, err := parseDate(req.ExpenseDate, "expense_date")
	if err != nil {
		return ExpenseResponse{}, err
	}

	var receiptURL string
	if receipt != nil {
		if receiptURL, err = s.files.Save(ctx, "receipts", *receipt); err != nil {
			return ExpenseResponse{}, err
		}
	}

	initial, _ := lifecycle.InitialStatus(lifecycle.EntityExpense)
	expense := model.Expense{
		ID:                uuid.New(),
		SubmittedBy:       actor.UserID,
		Description:       req.Description,
		Amount:            amount.Round(2),
		Category:          req.Category,
		ExpenseDate:       date,
		VendorPayee:       req.VendorPayee,
		ReceiptAttachment: receiptURL,
		Status:            initial,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.expenseRepo.Create(txCtx, &expense); err != nil {
			return err
		}
		return s.auditRepo.Log(txCtx, auditEntry(actor, model.ActionCreateExpense, lifecycle.EntityExpense, expense.ID, req.Description, map[string]interface{}{
			"amount":       expense.Amount.StringFixed(2),
			"category":     req.Category,
			"expense_date": req.ExpenseDate,
		}))
	})
	if err != nil {
		s.files.Discard(ctx, receiptURL)
		return ExpenseResponse{}, err
	}

	expense.Submitter = &model.User{FullName: actor.FullName}
	return toExpenseResponse(&expense), nil
}

func (s *expenseService) GetExpenses(ctx context.Context, actor lifecycle.Actor, q ListQuery) ([]ExpenseResponse, int64, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntityExpense); err != nil {
		return nil, 0, err
	}
	expenses, total, err := s.expenseRepo.List(ctx, listFilter(actor, lifecycle.EntityExpense, q))
	if err != nil {
		return nil, 0, err
	}
	res := make([]ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		res = append(res, toExpenseResponse(&expenses[i]))
	}
	return res, total, nil
}

func (s *expenseService) UpdateStatus(ctx context.Context, actor lifecycle.Actor, id string, req StatusRequest) (ExpenseResponse, error) {
	expenseID, err := parseID(id, "id")
	if err != nil {
		return ExpenseResponse{}, err
	}
	expense, err := s.expenseRepo.FindByID(ctx, expenseID)
	if err != nil {
		return ExpenseResponse{}, err
	}

	d, err := s.reviewer.apply(ctx, actor, reviewStep{
		Entity: lifecycle.EntityExpense,
		Label:  "expense",
		ID:     expense.ID,
		Name:   expense.Description,
		Owner:  expense.SubmittedBy,
		From:   expense.Status,
		To:     lifecycle.Status(req.Status),
		Reason: req.Reason,
		Stamps: map[lifecycle.Status][2]string{
			lifecycle.ExpenseApproved:   {"approved_by", "approved_at"},
			lifecycle.ExpenseReimbursed: {"reimbursed_by", "reimbursed_at"},
		},
		ReasonColumn: "rejection_reason",
		Update: func(ctx context.Context, from lifecycle.Status, f map[string]interface{}) error {
			return s.expenseRepo.UpdateStatus(ctx, expense.ID, from, f)
		},
	})
	if err != nil {
		return ExpenseResponse{}, err
	}
	if d.NoOp {
		return toExpenseResponse(expense), nil
	}

	updated, err := s.expenseRepo.FindByID(ctx, expense.ID)
	if err != nil {
		return ExpenseResponse{}, err
	}
	return toExpenseResponse(updated), nil
}

// --- Helpers ---

func toExpenseResponse(e *model.Expense) ExpenseResponse {
	res := ExpenseResponse{
		ID:                e.ID.String(),
		SubmittedBy:       e.SubmittedBy.String(),
		Description:       e.Description,
		Amount:            e.Amount.StringFixed(2),
		Category:          e.Category,
		ExpenseDate:       e.ExpenseDate.Format(dateLayout),
		VendorPayee:       e.VendorPayee,
		ReceiptAttachment: e.ReceiptAttachment,
		Status:            string(e.Status),
		ApprovedBy:        idString(e.ApprovedBy),
		ApprovedAt:        formatTime(e.ApprovedAt),
		ReimbursedBy:      idString(e.ReimbursedBy),
		ReimbursedAt:      formatTime(e.ReimbursedAt),
		RejectionReason:   e.RejectionReason,
		CreatedAt:         e.CreatedAt.Format(timeLayout),
	}
	if e.Submitter != nil {
		res.SubmitterName = e.Submitter.FullName
	}
	return res
}
