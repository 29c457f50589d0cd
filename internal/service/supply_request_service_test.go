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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSupplyRequests struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*model.SupplyRequest
}

func newFakeSupplyRequests() *fakeSupplyRequests {
	return &fakeSupplyRequests{requests: map[uuid.UUID]*model.SupplyRequest{}}
}

func (f *fakeSupplyRequests) Create(_ context.Context, req *model.SupplyRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *req
	cp.Items = nil
	f.requests[req.ID] = &cp
	return nil
}

func (f *fakeSupplyRequests) CreateItems(_ context.Context, items []model.SupplyRequestItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range items {
		sr, ok := f.requests[it.SupplyRequestID]
		if !ok {
			return apperror.Validation("supply request item references a record that does not exist")
		}
		sr.Items = append(sr.Items, it)
	}
	return nil
}

func (f *fakeSupplyRequests) GetByID(_ context.Context, id uuid.UUID) (*model.SupplyRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sr, ok := f.requests[id]
	if !ok {
		return nil, apperror.NotFound("supply request")
	}
	cp := *sr
	cp.Items = append([]model.SupplyRequestItem(nil), sr.Items...)
	return &cp, nil
}

func (f *fakeSupplyRequests) List(_ context.Context, _ repository.ListFilter) ([]model.SupplyRequest, int64, error) {
	return nil, 0, nil
}

func (f *fakeSupplyRequests) UpdateStatus(_ context.Context, id uuid.UUID, from lifecycle.Status, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sr, ok := f.requests[id]
	if !ok || sr.Status != from {
		return apperror.Conflict("supply request was changed by someone else, reload and try again")
	}
	sr.Status = fields["status"].(lifecycle.Status)
	if c, ok := fields["approval_comments"].(string); ok {
		sr.ApprovalComments = c
	}
	if by, ok := fields["approved_by"].(uuid.UUID); ok {
		at := fields["approved_at"].(time.Time)
		sr.ApprovedBy, sr.ApprovedAt = &by, &at
	}
	if by, ok := fields["fulfilled_by"].(uuid.UUID); ok {
		at := fields["fulfilled_at"].(time.Time)
		sr.FulfilledBy, sr.FulfilledAt = &by, &at
	}
	return nil
}

func (f *fakeSupplyRequests) ApproveItems(_ context.Context, requestID uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sr := f.requests[requestID]
	want := map[uuid.UUID]bool{}
	for _, id := range itemIDs {
		want[id] = true
	}
	var n int64
	for i := range sr.Items {
		if itemIDs == nil || want[sr.Items[i].ID] {
			sr.Items[i].IsApproved = true
			n++
		}
	}
	return n, nil
}

func newSupplyFixture(t *testing.T) (SupplyRequestService, *fixture, *model.User, *model.User, SupplyRequestResponse) {
	t.Helper()
	supervisor := newUser(lifecycle.RoleCleaningSupervisor, "Cleo Supervisor")
	manager := newUser(lifecycle.RoleFacilityManager, "Fran Manager")
	area := &model.FacilityArea{ID: uuid.New(), Name: "Kitchen"}
	fx := newFixture(supervisor, manager)
	svc := NewSupplyRequestService(newFakeSupplyRequests(), newFakeAreas(area), fx.deps())

	created, err := svc.CreateSupplyRequest(context.Background(), actorOf(supervisor), CreateSupplyRequestRequest{
		AreaOfUse: area.ID.String(),
		Priority:  "urgent",
		Items: []SupplyItemRequest{
			{ItemName: "Gloves", Quantity: 10, Unit: "pairs"},
			{ItemName: "Bleach", Quantity: 2, Unit: "litres"},
			{ItemName: "Sponges", Quantity: 30, Unit: "pieces"},
		},
	})
	require.NoError(t, err)
	require.Len(t, created.Items, 3)
	return svc, fx, supervisor, manager, created
}

func TestPartialApprovalMarksListedItems(t *testing.T) {
	svc, fx, supervisor, manager, created := newSupplyFixture(t)

	res, err := svc.UpdateStatus(context.Background(), actorOf(manager), created.ID, StatusRequest{
		Status:          string(lifecycle.SupplyPartiallyApproved),
		ApprovedItemIDs: []string{created.Items[0].ID, created.Items[2].ID, created.Items[0].ID},
	})
	require.NoError(t, err)
	assert.Equal(t, string(lifecycle.SupplyPartiallyApproved), res.Status)

	approved := map[string]bool{}
	for _, it := range res.Items {
		approved[it.ItemName] = it.IsApproved
	}
	assert.Equal(t, map[string]bool{"Gloves": true, "Bleach": false, "Sponges": true}, approved)
	assert.Len(t, fx.notifications.forUser(supervisor.ID), 1)
}

func TestPartialApprovalRejectsBadItemSets(t *testing.T) {
	svc, _, _, manager, created := newSupplyFixture(t)
	ctx := context.Background()
	all := []string{created.Items[0].ID, created.Items[1].ID, created.Items[2].ID}

	tests := []struct {
		name string
		to   lifecycle.Status
		ids  []string
	}{
		{"no items", lifecycle.SupplyPartiallyApproved, nil},
		{"every item", lifecycle.SupplyPartiallyApproved, all},
		{"foreign item", lifecycle.SupplyPartiallyApproved, []string{uuid.NewString()}},
		{"ids on full approval", lifecycle.SupplyApproved, all[:1]},
		{"ids on rejection", lifecycle.SupplyRejected, all[:1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateStatus(ctx, actorOf(manager), created.ID, StatusRequest{Status: string(tt.to), ApprovedItemIDs: tt.ids})
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestFullApprovalApprovesEveryItem(t *testing.T) {
	svc, _, supervisor, manager, created := newSupplyFixture(t)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, actorOf(supervisor), created.ID, StatusRequest{Status: string(lifecycle.SupplyApproved)})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	res, err := svc.UpdateStatus(ctx, actorOf(manager), created.ID, StatusRequest{Status: string(lifecycle.SupplyApproved)})
	require.NoError(t, err)
	for _, it := range res.Items {
		assert.True(t, it.IsApproved, it.ItemName)
	}
	require.NotNil(t, res.ApprovedBy)
	assert.Equal(t, manager.ID.String(), *res.ApprovedBy)
	assert.Nil(t, res.FulfilledBy)

	res, err = svc.UpdateStatus(ctx, actorOf(manager), created.ID, StatusRequest{Status: string(lifecycle.SupplyFulfilled)})
	require.NoError(t, err)
	assert.Equal(t, string(lifecycle.SupplyFulfilled), res.Status)
	require.NotNil(t, res.FulfilledBy)
	assert.Equal(t, manager.ID.String(), *res.FulfilledBy)
	assert.NotNil(t, res.FulfilledAt)
}

func TestReviewerRefusesTargetWithoutStampColumns(t *testing.T) {
	manager := newUser(lifecycle.RoleFacilityManager, "Fran Manager")
	fx := newFixture(manager)
	writes := 0

	_, err := fx.deps().reviewer().apply(context.Background(), actorOf(manager), reviewStep{
		Entity: lifecycle.EntitySupplyRequest,
		Label:  "supply request",
		ID:     uuid.New(),
		From:   lifecycle.SupplyApproved,
		To:     lifecycle.SupplyFulfilled,
		Update: func(context.Context, lifecycle.Status, map[string]interface{}) error {
			writes++
			return nil
		},
	})
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	assert.Zero(t, writes)
	assert.Empty(t, fx.audit.actions())
}
