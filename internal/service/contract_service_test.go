package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"fms/internal/lifecycle"
	"fms/internal/model"
	"fms/internal/repository"
	"fms/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContracts struct {
	mu        sync.Mutex
	contracts map[uuid.UUID]*model.Contract
	// afterList runs once ListLapsed has taken its snapshot.
	afterList func()
}

func newFakeContracts(contracts ...*model.Contract) *fakeContracts {
	f := &fakeContracts{contracts: map[uuid.UUID]*model.Contract{}}
	for _, c := range contracts {
		f.contracts[c.ID] = c
	}
	return f
}

func (f *fakeContracts) Create(_ context.Context, c *model.Contract) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.contracts[c.ID] = &cp
	return nil
}

func (f *fakeContracts) GetByID(_ context.Context, id uuid.UUID) (*model.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contracts[id]
	if !ok {
		return nil, apperror.NotFound("contract")
	}
	cp := *c
	return &cp, nil
}

func (f *fakeContracts) List(_ context.Context, _ repository.ListFilter) ([]model.Contract, int64, error) {
	return nil, 0, nil
}

func (f *fakeContracts) ListLapsed(_ context.Context, day time.Time) ([]model.Contract, error) {
	f.mu.Lock()
	var out []model.Contract
	for _, c := range f.contracts {
		open := c.Status == lifecycle.ContractActive || c.Status == lifecycle.ContractUnderReview
		if open && c.EndDate.Before(day) {
			out = append(out, *c)
		}
	}
	f.mu.Unlock()
	if f.afterList != nil {
		f.afterList()
	}
	return out, nil
}

func (f *fakeContracts) UpdateStatus(_ context.Context, id uuid.UUID, from lifecycle.Status, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contracts[id]
	if !ok || c.Status != from {
		return apperror.Conflict("contract was changed by someone else, reload and try again")
	}
	c.Status = fields["status"].(lifecycle.Status)
	if by, ok := fields["reviewed_by"].(uuid.UUID); ok {
		at := fields["reviewed_at"].(time.Time)
		c.ReviewedBy, c.ReviewedAt = &by, &at
	}
	return nil
}

func (f *fakeContracts) status(id uuid.UUID) lifecycle.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contracts[id].Status
}

func TestCreateContractIsAdminOnly(t *testing.T) {
	admin := newUser(lifecycle.RoleAdmin, "Ada Admin")
	manager := newUser(lifecycle.RoleFacilityManager, "Fran Manager")
	staff := newUser(lifecycle.RoleStaff, "Sam Staff")
	vendor := &model.Vendor{ID: uuid.New(), CompanyName: "Acme HVAC"}
	fx := newFixture(admin, manager, staff)
	svc := NewContractService(newFakeContracts(), &fakeVendors{vendors: map[uuid.UUID]*model.Vendor{vendor.ID: vendor}}, fx.deps())
	ctx := context.Background()

	valid := CreateContractRequest{
		VendorID:           vendor.ID.String(),
		ServiceDescription: "Quarterly HVAC servicing",
		StartDate:          "2026-01-01",
		EndDate:            "2026-12-31",
		Value:              "12000.505",
	}

	tests := []struct {
		name   string
		actor  lifecycle.Actor
		mutate func(r *CreateContractRequest)
		kind   apperror.Kind
	}{
		{"staff", actorOf(staff), nil, apperror.KindUnauthorized},
		{"facility manager", actorOf(manager), nil, apperror.KindUnauthorized},
		{"anonymous", lifecycle.Actor{}, nil, apperror.KindUnauthenticated},
		{"end before start", actorOf(admin), func(r *CreateContractRequest) { r.EndDate = "2025-12-31" }, apperror.KindValidation},
		{"zero value", actorOf(admin), func(r *CreateContractRequest) { r.Value = "0" }, apperror.KindValidation},
		{"unknown vendor", actorOf(admin), func(r *CreateContractRequest) { r.VendorID = uuid.NewString() }, apperror.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			_, err := svc.CreateContract(ctx, tt.actor, req)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}
	assert.Empty(t, fx.audit.actions())

	res, err := svc.CreateContract(ctx, actorOf(admin), valid)
	require.NoError(t, err)
	assert.Equal(t, string(lifecycle.ContractActive), res.Status)
	assert.Equal(t, "12000.51", res.Value)
	assert.Equal(t, "Acme HVAC", res.VendorName)
	assert.Equal(t, []string{model.ActionCreateContract}, fx.audit.actions())
}

func TestExpireDueSkipsContractsChangedMeanwhile(t *testing.T) {
	admin := newUser(lifecycle.RoleAdmin, "Ada Admin")
	manager := newUser(lifecycle.RoleFacilityManager, "Fran Manager")
	fx := newFixture(admin, manager)

	lastMonth := time.Now().AddDate(0, -1, 0)
	contract := func(status lifecycle.Status, end time.Time) *model.Contract {
		return &model.Contract{
			ID:        uuid.New(),
			VendorID:  uuid.New(),
			StartDate: end.AddDate(-1, 0, 0),
			EndDate:   end,
			Value:     decimal.NewFromInt(100),
			Status:    status,
			CreatedBy: admin.ID,
		}
	}
	lapsed := contract(lifecycle.ContractActive, lastMonth)
	raced := contract(lifecycle.ContractUnderReview, lastMonth)
	current := contract(lifecycle.ContractActive, time.Now().AddDate(0, 6, 0))
	repo := newFakeContracts(lapsed, raced, current)
	repo.afterList = func() {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		repo.contracts[raced.ID].Status = lifecycle.ContractTerminated
	}
	svc := NewContractService(repo, &fakeVendors{vendors: map[uuid.UUID]*model.Vendor{}}, fx.deps())
	ctx := context.Background()

	_, err := svc.ExpireDue(ctx, actorOf(manager))
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	res, err := svc.ExpireDue(ctx, actorOf(admin))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expired)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{lapsed.ID.String()}, res.ContractIDs)

	assert.Equal(t, lifecycle.ContractExpired, repo.status(lapsed.ID))
	assert.Equal(t, lifecycle.ContractTerminated, repo.status(raced.ID))
	assert.Equal(t, lifecycle.ContractActive, repo.status(current.ID))

	stored, err := repo.GetByID(ctx, lapsed.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReviewedBy)
	assert.Equal(t, admin.ID, *stored.ReviewedBy)
	assert.Equal(t, []string{model.ActionTransition}, fx.audit.actions())
}

func TestContractReviewByManager(t *testing.T) {
	admin := newUser(lifecycle.RoleAdmin, "Ada Admin")
	manager := newUser(lifecycle.RoleFacilityManager, "Fran Manager")
	supervisor := newUser(lifecycle.RoleCleaningSupervisor, "Cleo Supervisor")
	fx := newFixture(admin, manager, supervisor)
	c := &model.Contract{
		ID:        uuid.New(),
		VendorID:  uuid.New(),
		EndDate:   time.Now().AddDate(1, 0, 0),
		Status:    lifecycle.ContractActive,
		CreatedBy: admin.ID,
	}
	repo := newFakeContracts(c)
	svc := NewContractService(repo, &fakeVendors{vendors: map[uuid.UUID]*model.Vendor{}}, fx.deps())
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, actorOf(supervisor), c.ID.String(), StatusRequest{Status: string(lifecycle.ContractUnderReview)})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	res, err := svc.UpdateStatus(ctx, actorOf(manager), c.ID.String(), StatusRequest{Status: string(lifecycle.ContractUnderReview)})
	require.NoError(t, err)
	assert.Equal(t, string(lifecycle.ContractUnderReview), res.Status)
	require.NotNil(t, res.ReviewedBy)
	assert.Equal(t, manager.ID.String(), *res.ReviewedBy)

	res, err = svc.UpdateStatus(ctx, actorOf(manager), c.ID.String(), StatusRequest{Status: string(lifecycle.ContractTerminated), Reason: "breach"})
	require.NoError(t, err)
	assert.Equal(t, string(lifecycle.ContractTerminated), res.Status)

	_, err = svc.UpdateStatus(ctx, actorOf(admin), c.ID.String(), StatusRequest{Status: string(lifecycle.ContractActive)})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	assert.Len(t, fx.notifications.forUser(admin.ID), 2)
}
