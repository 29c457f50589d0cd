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

// limitRecorder remembers the page size the service asked for.
type limitRecorder struct {
	*fakeNotifications
	limits []int
}

func (r *limitRecorder) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]model.Notification, error) {
	r.limits = append(r.limits, limit)
	return r.fakeNotifications.ListForUser(ctx, userID, unreadOnly, limit)
}

func inAppNote(userID uuid.UUID, read bool) model.Notification {
	return model.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Title:   "Work order approved",
		Message: "Your work order moved from pending to approved.",
		Type:    model.NotificationWorkOrder,
		Channel: model.ChannelInApp,
		IsRead:  read,
	}
}

func TestNotificationsAreOwnOnly(t *testing.T) {
	staff := newUser(lifecycle.RoleStaff, "Sam Staff")
	other := newUser(lifecycle.RoleCleaningSupervisor, "Cleo Supervisor")
	mine, mineRead, theirs := inAppNote(staff.ID, false), inAppNote(staff.ID, true), inAppNote(other.ID, false)
	repo := &fakeNotifications{notes: []model.Notification{mine, mineRead, theirs}}
	svc := NewNotificationService(repo)
	ctx := context.Background()

	all, err := svc.List(ctx, actorOf(staff), false, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, n := range all {
		assert.Equal(t, staff.ID, n.UserID)
	}

	unread, err := svc.List(ctx, actorOf(staff), true, 0)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, mine.ID, unread[0].ID)

	count, err := svc.UnreadCount(ctx, actorOf(staff))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	err = svc.MarkRead(ctx, actorOf(staff), theirs.ID.String())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.False(t, repo.forUser(other.ID)[0].IsRead)

	require.NoError(t, svc.MarkRead(ctx, actorOf(staff), mine.ID.String()))
	count, err = svc.UnreadCount(ctx, actorOf(staff))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkAllReadCountsChangedRows(t *testing.T) {
	staff := newUser(lifecycle.RoleStaff, "Sam Staff")
	other := newUser(lifecycle.RoleStaff, "Olu Staff")
	repo := &fakeNotifications{notes: []model.Notification{
		inAppNote(staff.ID, false), inAppNote(staff.ID, false), inAppNote(staff.ID, true), inAppNote(other.ID, false),
	}}
	svc := NewNotificationService(repo)
	ctx := context.Background()

	n, err := svc.MarkAllRead(ctx, actorOf(staff))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = svc.MarkAllRead(ctx, actorOf(staff))
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := svc.UnreadCount(ctx, actorOf(other))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNotificationListLimit(t *testing.T) {
	staff := newUser(lifecycle.RoleStaff, "Sam Staff")
	repo := &limitRecorder{fakeNotifications: &fakeNotifications{}}
	svc := NewNotificationService(repo)
	ctx := context.Background()

	for _, limit := range []int{0, -5, 20, 1000} {
		_, err := svc.List(ctx, actorOf(staff), false, limit)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{defaultNotificationLimit, defaultNotificationLimit, 20, maxNotificationLimit}, repo.limits)
}

func TestNotificationsRequireAuthentication(t *testing.T) {
	svc := NewNotificationService(&fakeNotifications{})
	ctx := context.Background()

	_, err := svc.List(ctx, lifecycle.Actor{}, false, 0)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	_, err = svc.UnreadCount(ctx, lifecycle.Actor{})
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	assert.ErrorIs(t, svc.MarkRead(ctx, lifecycle.Actor{}, uuid.NewString()), apperror.ErrUnauthenticated)
	_, err = svc.MarkAllRead(ctx, lifecycle.Actor{})
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}
