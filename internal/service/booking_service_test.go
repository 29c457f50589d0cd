package service

import (
	"context"
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

type fakeBookings struct {
	bookings map[uuid.UUID]*model.SpaceBooking
}

func (f *fakeBookings) Create(_ context.Context, b *model.SpaceBooking) error {
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id uuid.UUID) (*model.SpaceBooking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, apperror.NotFound("space booking")
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) List(_ context.Context, _ repository.ListFilter) ([]model.SpaceBooking, int64, error) {
	return nil, 0, nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id uuid.UUID, from lifecycle.Status, fields map[string]interface{}) error {
	b, ok := f.bookings[id]
	if !ok || b.Status != from {
		return apperror.Conflict("space booking was changed by someone else, reload and try again")
	}
	b.Status = fields["status"].(lifecycle.Status)
	if r, ok := fields["decision_reason"].(string); ok {
		b.DecisionReason = r
	}
	return nil
}

func TestCreateBookingRules(t *testing.T) {
	staff := newUser(lifecycle.RoleStaff, "Sam Staff")
	hall := &model.FacilityArea{ID: uuid.New(), Name: "Hall", Capacity: 20, IsBookable: true}
	closet := &model.FacilityArea{ID: uuid.New(), Name: "Closet"}
	fx := newFixture(staff)
	svc := NewBookingService(&fakeBookings{bookings: map[uuid.UUID]*model.SpaceBooking{}}, newFakeAreas(hall, closet), fx.deps())
	ctx := context.Background()

	tomorrow := time.Now().AddDate(0, 0, 1).Format(dateLayout)
	yesterday := time.Now().AddDate(0, 0, -1).Format(dateLayout)
	valid := CreateBookingRequest{
		FacilityAreaID:    hall.ID.String(),
		BookingDate:       tomorrow,
		StartTime:         "09:00",
		EndTime:           "10:30",
		Purpose:           "All hands",
		ExpectedAttendees: 12,
	}

	tests := []struct {
		name   string
		mutate func(r *CreateBookingRequest)
		kind   apperror.Kind
	}{
		{"past date", func(r *CreateBookingRequest) { r.BookingDate = yesterday }, apperror.KindValidation},
		{"end before start", func(r *CreateBookingRequest) { r.EndTime = "08:00" }, apperror.KindValidation},
		{"zero length", func(r *CreateBookingRequest) { r.EndTime = r.StartTime }, apperror.KindValidation},
		{"over capacity", func(r *CreateBookingRequest) { r.ExpectedAttendees = 21 }, apperror.KindValidation},
		{"not bookable", func(r *CreateBookingRequest) { r.FacilityAreaID = closet.ID.String() }, apperror.KindValidation},
		{"unknown space", func(r *CreateBookingRequest) { r.FacilityAreaID = uuid.NewString() }, apperror.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := svc.CreateBooking(ctx, actorOf(staff), req)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}

	res, err := svc.CreateBooking(ctx, actorOf(staff), valid)
	require.NoError(t, err)
	assert.Equal(t, string(lifecycle.BookingPending), res.Status)
	assert.Equal(t, "Hall", res.AreaName)
	assert.Equal(t, tomorrow, res.BookingDate)
}

func TestBookingCancellationKeepsReason(t *testing.T) {
	staff := newUser(lifecycle.RoleStaff, "Sam Staff")
	manager := newUser(lifecycle.RoleFacilityManager, "Fran Manager")
	hall := &model.FacilityArea{ID: uuid.New(), Name: "Hall", IsBookable: true}
	fx := newFixture(staff, manager)
	svc := NewBookingService(&fakeBookings{bookings: map[uuid.UUID]*model.SpaceBooking{}}, newFakeAreas(hall), fx.deps())
	ctx := context.Background()

	created, err := svc.CreateBooking(ctx, actorOf(staff), CreateBookingRequest{
		FacilityAreaID:    hall.ID.String(),
		BookingDate:       time.Now().AddDate(0, 0, 3).Format(dateLayout),
		StartTime:         "13:00",
		EndTime:           "14:00",
		Purpose:           "Training",
		ExpectedAttendees: 5,
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, actorOf(manager), created.ID, StatusRequest{Status: string(lifecycle.BookingCancelled)})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, actorOf(manager), created.ID, StatusRequest{Status: string(lifecycle.BookingApproved)})
	require.NoError(t, err)
	res, err := svc.UpdateStatus(ctx, actorOf(manager), created.ID, StatusRequest{
		Status: string(lifecycle.BookingCancelled),
		Reason: "Hall flooded",
	})
	require.NoError(t, err)
	assert.Equal(t, string(lifecycle.BookingCancelled), res.Status)
	assert.Equal(t, "Hall flooded", res.DecisionReason)
}

func TestBookingStatusChecksRoleBeforeDate(t *testing.T) {
	staff := newUser(lifecycle.RoleStaff, "Sam Staff")
	manager := newUser(lifecycle.RoleFacilityManager, "Fran Manager")
	fx := newFixture(staff, manager)
	past := &model.SpaceBooking{
		ID:             uuid.New(),
		FacilityAreaID: uuid.New(),
		RequestedBy:    staff.ID,
		BookingDate:    today(time.Now()).AddDate(0, 0, -3),
		StartTime:      "09:00",
		EndTime:        "10:00",
		Status:         lifecycle.BookingApproved,
	}
	repo := &fakeBookings{bookings: map[uuid.UUID]*model.SpaceBooking{past.ID: past}}
	svc := NewBookingService(repo, newFakeAreas(), fx.deps())
	ctx := context.Background()
	cancel := StatusRequest{Status: string(lifecycle.BookingCancelled), Reason: "no longer needed"}

	_, err := svc.UpdateStatus(ctx, actorOf(staff), past.ID.String(), cancel)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.UpdateStatus(ctx, actorOf(manager), past.ID.String(), cancel)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	assert.Equal(t, lifecycle.BookingApproved, repo.bookings[past.ID].Status)
	assert.Empty(t, fx.audit.actions())
}

func TestBookingDenialKeepsReason(t *testing.T) {
	staff := newUser(lifecycle.RoleStaff, "Sam Staff")
	manager := newUser(lifecycle.RoleFacilityManager, "Fran Manager")
	hall := &model.FacilityArea{ID: uuid.New(), Name: "Hall", IsBookable: true}
	fx := newFixture(staff, manager)
	svc := NewBookingService(&fakeBookings{bookings: map[uuid.UUID]*model.SpaceBooking{}}, newFakeAreas(hall), fx.deps())
	ctx := context.Background()

	created, err := svc.CreateBooking(ctx, actorOf(staff), CreateBookingRequest{
		FacilityAreaID:    hall.ID.String(),
		BookingDate:       time.Now().AddDate(0, 0, 5).Format(dateLayout),
		StartTime:         "15:00",
		EndTime:           "16:00",
		Purpose:           "Yoga",
		ExpectedAttendees: 8,
	})
	require.NoError(t, err)

	res, err := svc.UpdateStatus(ctx, actorOf(manager), created.ID, StatusRequest{
		Status: string(lifecycle.BookingDenied),
		Reason: "Hall reserved for maintenance",
	})
	require.NoError(t, err)
	assert.Equal(t, string(lifecycle.BookingDenied), res.Status)
	assert.Equal(t, "Hall reserved for maintenance", res.DecisionReason)
}
