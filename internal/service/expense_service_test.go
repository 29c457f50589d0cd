package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fms/internal/lifecycle"
	"fms/internal/model"
	"fms/internal/storage"
	"fms/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// barrierExpenses holds the first n reads until all of them arrived, so
// concurrent reviewers observe the same status.
type barrierExpenses struct {
	*fakeExpenses
	reads   atomic.Int32
	n       int32
	arrived sync.WaitGroup
}

func newBarrierExpenses(inner *fakeExpenses, n int) *barrierExpenses {
	b := &barrierExpenses{fakeExpenses: inner, n: int32(n)}
	b.arrived.Add(n)
	return b
}

func (b *barrierExpenses) FindByID(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	e, err := b.fakeExpenses.FindByID(ctx, id)
	if b.reads.Add(1) <= b.n {
		b.arrived.Done()
		b.arrived.Wait()
	}
	return e, err
}

func pendingExpense(owner uuid.UUID) *model.Expense {
	return &model.Expense{
		ID:          uuid.New(),
		SubmittedBy: owner,
		Description: "Mop heads",
		Amount:      decimal.RequireFromString("42.50"),
		Category:    "cleaning_supplies",
		ExpenseDate: time.Now(),
		Status:      lifecycle.ExpensePending,
	}
}

func TestConcurrentExpenseReviewsConflict(t *testing.T) {
	staff := newUser(lifecycle.RoleStaff, "Sam Staff")
	first := newUser(lifecycle.RoleAdmin, "First Admin")
	second := newUser(lifecycle.RoleAdmin, "Second Admin")
	fx := newFixture(staff, first, second)

	expense := pendingExpense(staff.ID)
	repo := newBarrierExpenses(newFakeExpenses(expense), 2)
	svc := NewExpenseService(repo, fx.deps())

	requests := []struct {
		actor  lifecycle.Actor
		status lifecycle.Status
	}{
		{actorOf(first), lifecycle.ExpenseApproved},
		{actorOf(second), lifecycle.ExpenseDenied},
	}
	errs := make([]error, len(requests))
	var wg sync.WaitGroup
	for i, r := range requests {
		wg.Add(1)
		go func(i int, actor lifecycle.Actor, to lifecycle.Status) {
			defer wg.Done()
			_, errs[i] = svc.UpdateStatus(context.Background(), actor, expense.ID.String(), StatusRequest{Status: string(to), Reason: "no receipt"})
		}(i, r.actor, r.status)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperror.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	stored, err := repo.fakeExpenses.FindByID(context.Background(), expense.ID)
	require.NoError(t, err)
	assert.Contains(t, []lifecycle.Status{lifecycle.ExpenseApproved, lifecycle.ExpenseDenied}, stored.Status)
	assert.Equal(t, []string{model.ActionTransition}, fx.audit.actions())
	assert.Len(t, fx.notifications.forUser(staff.ID), 1)
}

func TestExpenseReviewIsAdminOnly(t *testing.T) {
	staff := newUser(lifecycle.RoleStaff, "Sam Staff")
	manager := newUser(lifecycle.RoleFacilityManager, "Fran Manager")
	fx := newFixture(staff, manager)
	expense := pendingExpense(staff.ID)
	svc := NewExpenseService(newFakeExpenses(expense), fx.deps())

	_, err := svc.UpdateStatus(context.Background(), actorOf(manager), expense.ID.String(), StatusRequest{Status: string(lifecycle.ExpenseApproved)})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Empty(t, fx.audit.actions())
}

func TestCreateExpense(t *testing.T) {
	staff := newUser(lifecycle.RoleStaff, "Sam Staff")
	fx := newFixture(staff)
	repo := newFakeExpenses()
	svc := NewExpenseService(repo, fx.deps())
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateExpenseRequest
		kind apperror.Kind
	}{
		{"zero amount", CreateExpenseRequest{Description: "x", Amount: "0", Category: "utilities", ExpenseDate: "2025-03-01"}, apperror.KindValidation},
		{"not a number", CreateExpenseRequest{Description: "x", Amount: "ten", Category: "utilities", ExpenseDate: "2025-03-01"}, apperror.KindValidation},
		{"unknown category", CreateExpenseRequest{Description: "x", Amount: "10", Category: "travel", ExpenseDate: "2025-03-01"}, apperror.KindValidation},
		{"bad date", CreateExpenseRequest{Description: "x", Amount: "10", Category: "utilities", ExpenseDate: "03/01/2025"}, apperror.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateExpense(ctx, actorOf(staff), tt.req, nil)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}

	res, err := svc.CreateExpense(ctx, actorOf(staff), CreateExpenseRequest{
		Description: "Water bill",
		Amount:      "120.456",
		Category:    "utilities",
		ExpenseDate: "2025-03-01",
	}, &storage.File{Name: "bill.pdf", Body: strings.NewReader("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, "120.46", res.Amount)
	assert.Equal(t, string(lifecycle.ExpensePending), res.Status)
	assert.Equal(t, "/uploads/receipts/bill.pdf", res.ReceiptAttachment)
	assert.Equal(t, "Sam Staff", res.SubmitterName)
	assert.Equal(t, []string{model.ActionCreateExpense}, fx.audit.actions())
}
