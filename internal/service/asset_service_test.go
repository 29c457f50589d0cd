package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"fms/internal/lifecycle"
	"fms/internal/model"
	"fms/internal/repository"
	"fms/internal/storage"
	"fms/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssets struct {
	assets    map[uuid.UUID]*model.Asset
	schedules []model.AssetMaintenanceSchedule
	createErr error
}

func newFakeAssets(assets ...*model.Asset) *fakeAssets {
	f := &fakeAssets{assets: map[uuid.UUID]*model.Asset{}}
	for _, a := range assets {
		f.assets[a.ID] = a
	}
	return f
}

func (f *fakeAssets) Create(_ context.Context, asset *model.Asset) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *asset
	f.assets[asset.ID] = &cp
	return nil
}

func (f *fakeAssets) GetByID(_ context.Context, id uuid.UUID) (*model.Asset, error) {
	a, ok := f.assets[id]
	if !ok {
		return nil, apperror.NotFound("asset")
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAssets) List(_ context.Context, _ repository.AssetFilter) ([]model.Asset, int64, error) {
	out := make([]model.Asset, 0, len(f.assets))
	for _, a := range f.assets {
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAssets) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.assets[id]; !ok {
		return apperror.NotFound("asset")
	}
	delete(f.assets, id)
	return nil
}

func (f *fakeAssets) CreateSchedule(_ context.Context, s *model.AssetMaintenanceSchedule) error {
	f.schedules = append(f.schedules, *s)
	return nil
}

func (f *fakeAssets) ListSchedules(_ context.Context, assetID uuid.UUID) ([]model.AssetMaintenanceSchedule, error) {
	var out []model.AssetMaintenanceSchedule
	for _, s := range f.schedules {
		if s.AssetID == assetID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeAssets) DueSchedules(_ context.Context, before time.Time) ([]model.AssetMaintenanceSchedule, error) {
	var out []model.AssetMaintenanceSchedule
	for _, s := range f.schedules {
		if !s.NextDueDate.After(before) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextDueDate.Before(out[j].NextDueDate) })
	return out, nil
}

func TestDeleteAssetRequiresManager(t *testing.T) {
	manager := newUser(lifecycle.RoleFacilityManager, "Fran Manager")
	supervisor := newUser(lifecycle.RoleCleaningSupervisor, "Cleo Supervisor")
	staff := newUser(lifecycle.RoleStaff, "Sam Staff")
	fx := newFixture(manager, supervisor, staff)
	asset := &model.Asset{ID: uuid.New(), Name: "Projector B2", Category: "av_electronics"}
	assets := newFakeAssets(asset)
	svc := NewAssetService(assets, newFakeAreas(), fx.deps())
	ctx := context.Background()

	for _, u := range []*model.User{staff, supervisor} {
		err := svc.DeleteAsset(ctx, actorOf(u), asset.ID.String())
		assert.ErrorIs(t, err, apperror.ErrUnauthorized, u.Role)
	}
	assert.Contains(t, assets.assets, asset.ID)
	assert.Empty(t, fx.audit.actions())

	require.NoError(t, svc.DeleteAsset(ctx, actorOf(manager), asset.ID.String()))
	assert.NotContains(t, assets.assets, asset.ID)
	assert.Equal(t, []string{model.ActionDeleteAsset}, fx.audit.actions())

	err := svc.DeleteAsset(ctx, actorOf(manager), asset.ID.String())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Len(t, fx.audit.actions(), 1)
}

func TestDueSchedules(t *testing.T) {
	manager := newUser(lifecycle.RoleFacilityManager, "Fran Manager")
	staff := newUser(lifecycle.RoleStaff, "Sam Staff")
	fx := newFixture(manager, staff)
	assets := newFakeAssets()
	day := today(time.Now())
	schedule := func(offset int) model.AssetMaintenanceSchedule {
		return model.AssetMaintenanceSchedule{
			ID:           uuid.New(),
			AssetID:      uuid.New(),
			ScheduleType: "monthly",
			NextDueDate:  day.AddDate(0, 0, offset),
		}
	}
	overdue, dueToday, soon, later := schedule(-1), schedule(0), schedule(10), schedule(60)
	assets.schedules = []model.AssetMaintenanceSchedule{later, soon, dueToday, overdue}
	svc := NewAssetService(assets, newFakeAreas(), fx.deps())
	ctx := context.Background()

	for _, days := range []int{-1, 367} {
		_, err := svc.DueSchedules(ctx, actorOf(manager), days)
		assert.ErrorIs(t, err, apperror.ErrValidation, days)
	}

	_, err := svc.DueSchedules(ctx, actorOf(staff), 30)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	res, err := svc.DueSchedules(ctx, actorOf(manager), 0)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, overdue.ID.String(), res[0].ID)
	assert.True(t, res[0].Overdue)
	assert.Equal(t, dueToday.ID.String(), res[1].ID)
	assert.False(t, res[1].Overdue)

	res, err = svc.DueSchedules(ctx, actorOf(manager), 30)
	require.NoError(t, err)
	ids := make([]string, 0, len(res))
	for _, r := range res {
		ids = append(ids, r.ID)
		if r.ID == soon.ID.String() {
			assert.False(t, r.Overdue)
		}
	}
	assert.Equal(t, []string{overdue.ID.String(), dueToday.ID.String(), soon.ID.String()}, ids)

	res, err = svc.DueSchedules(ctx, actorOf(manager), 366)
	require.NoError(t, err)
	assert.Len(t, res, 4)
}

func TestCreateScheduleValidatesType(t *testing.T) {
	manager := newUser(lifecycle.RoleFacilityManager, "Fran Manager")
	fx := newFixture(manager)
	asset := &model.Asset{ID: uuid.New(), Name: "Chiller 1", Category: "hvac_utilities"}
	assets := newFakeAssets(asset)
	svc := NewAssetService(assets, newFakeAreas(), fx.deps())
	ctx := context.Background()

	_, err := svc.CreateSchedule(ctx, actorOf(manager), asset.ID.String(), CreateScheduleRequest{ScheduleType: "hourly", NextDueDate: "2026-11-01"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	res, err := svc.CreateSchedule(ctx, actorOf(manager), asset.ID.String(), CreateScheduleRequest{ScheduleType: "quarterly", NextDueDate: "2026-11-01"})
	require.NoError(t, err)
	assert.Equal(t, "2026-11-01", res.NextDueDate)
	assert.Equal(t, []string{model.ActionCreateSchedule}, fx.audit.actions())

	listed, err := svc.ListSchedules(ctx, actorOf(manager), asset.ID.String())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, res.ID, listed[0].ID)
}

func TestFailedAssetInsertDiscardsUploads(t *testing.T) {
	supervisor := newUser(lifecycle.RoleCleaningSupervisor, "Cleo Supervisor")
	fx := newFixture(supervisor)
	area := &model.FacilityArea{ID: uuid.New(), Name: "Gym"}
	assets := newFakeAssets()
	assets.createErr = apperror.StoreUnavailable(errors.New("connection reset"))
	svc := NewAssetService(assets, newFakeAreas(area), fx.deps())

	_, err := svc.CreateAsset(context.Background(), actorOf(supervisor), CreateAssetRequest{
		Name:         "Rowing machine",
		Category:     "sports_recreation",
		LocationArea: area.ID.String(),
	}, &storage.File{Name: "rower.jpg", Body: strings.NewReader("img")}, []storage.File{
		{Name: "manual.pdf", Body: strings.NewReader("pdf")},
	})
	assert.ErrorIs(t, err, apperror.ErrStoreUnavailable)
	assert.ElementsMatch(t, []string{"/uploads/asset-documents/manual.pdf", "/uploads/assets/rower.jpg"}, fx.files.discarded)
	assert.Empty(t, fx.audit.actions())
}
