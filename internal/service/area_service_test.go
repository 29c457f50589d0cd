package service

import (
	"context"
	"testing"

	"fms/internal/lifecycle"
	"fms/internal/model"
	"fms/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAreaRequiresManager(t *testing.T) {
	manager := newUser(lifecycle.RoleFacilityManager, "Fran Manager")
	supervisor := newUser(lifecycle.RoleCleaningSupervisor, "Cleo Supervisor")
	staff := newUser(lifecycle.RoleStaff, "Sam Staff")
	fx := newFixture(manager, supervisor, staff)
	areas := newFakeAreas()
	svc := NewAreaService(areas, fx.deps())
	ctx := context.Background()
	req := CreateAreaRequest{Name: "Board Room", Type: "meeting_room", Capacity: 12, IsBookable: true}

	for _, u := range []*model.User{staff, supervisor} {
		_, err := svc.CreateArea(ctx, actorOf(u), req)
		assert.ErrorIs(t, err, apperror.ErrUnauthorized, u.Role)
	}
	_, err := svc.CreateArea(ctx, lifecycle.Actor{}, req)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	assert.Empty(t, areas.areas)

	area, err := svc.CreateArea(ctx, actorOf(manager), req)
	require.NoError(t, err)
	assert.Equal(t, "Board Room", area.Name)
	assert.Contains(t, areas.areas, area.ID)
	assert.Equal(t, []string{model.ActionCreateArea}, fx.audit.actions())
}

func TestListAreasFiltersBookable(t *testing.T) {
	staff := newUser(lifecycle.RoleStaff, "Sam Staff")
	fx := newFixture(staff)
	hall := &model.FacilityArea{ID: uuid.New(), Name: "Hall", IsBookable: true}
	plant := &model.FacilityArea{ID: uuid.New(), Name: "Plant Room"}
	svc := NewAreaService(newFakeAreas(hall, plant), fx.deps())
	ctx := context.Background()

	all, err := svc.ListAreas(ctx, actorOf(staff), false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bookable, err := svc.ListAreas(ctx, actorOf(staff), true)
	require.NoError(t, err)
	require.Len(t, bookable, 1)
	assert.Equal(t, hall.ID, bookable[0].ID)

	_, err = svc.ListAreas(ctx, lifecycle.Actor{}, false)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestDeleteArea(t *testing.T) {
	manager := newUser(lifecycle.RoleFacilityManager, "Fran Manager")
	supervisor := newUser(lifecycle.RoleCleaningSupervisor, "Cleo Supervisor")
	staff := newUser(lifecycle.RoleStaff, "Sam Staff")
	fx := newFixture(manager, supervisor, staff)
	gym := &model.FacilityArea{ID: uuid.New(), Name: "Gym"}
	areas := newFakeAreas(gym)
	svc := NewAreaService(areas, fx.deps())
	ctx := context.Background()

	for _, u := range []*model.User{staff, supervisor} {
		err := svc.DeleteArea(ctx, actorOf(u), gym.ID.String())
		assert.ErrorIs(t, err, apperror.ErrUnauthorized, u.Role)
	}
	assert.Contains(t, areas.areas, gym.ID)

	assert.ErrorIs(t, svc.DeleteArea(ctx, actorOf(manager), "not-a-uuid"), apperror.ErrValidation)

	require.NoError(t, svc.DeleteArea(ctx, actorOf(manager), gym.ID.String()))
	assert.NotContains(t, areas.areas, gym.ID)
	assert.Equal(t, []string{model.ActionDeleteArea}, fx.audit.actions())

	assert.ErrorIs(t, svc.DeleteArea(ctx, actorOf(manager), gym.ID.String()), apperror.ErrNotFound)
}
