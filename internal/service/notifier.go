package service

import (
	"context"

	"fms/internal/lifecycle"
	"fms/internal/metrics"
	"fms/internal/model"
	"fms/internal/queue"
	"fms/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// notifier writes notification rows inside the caller's transaction and,
// once that transaction has committed, hands email-channel rows to the
// broker. Email failures never fail the request.
type notifier struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	publisher     queue.Publisher
	log           *zap.Logger
}

func newNotifier(notifications repository.NotificationRepository, users repository.UserRepository, publisher queue.Publisher, log *zap.Logger) *notifier {
	if publisher == nil {
		publisher = queue.NopPublisher{}
	}
	return &notifier{notifications: notifications, users: users, publisher: publisher, log: log}
}

func (n *notifier) stage(ctx context.Context, notes []model.Notification) error {
	if len(notes) == 0 {
		return nil
	}
	return n.notifications.Create(ctx, notes)
}

// dispatch must only be called after the rows are committed.
func (n *notifier) dispatch(ctx context.Context, notes []model.Notification) {
	for _, note := range notes {
		if !note.Emailed() {
			continue
		}
		user, err := n.users.GetByID(ctx, note.UserID)
		if err != nil {
			n.log.Warn("email recipient lookup failed", zap.String("user_id", note.UserID.String()), zap.Error(err))
			continue
		}
		err = n.publisher.PublishEmail(ctx, queue.EmailMessage{
			NotificationID: note.ID,
			To:             user.Email,
			RecipientName:  user.FullName,
			Subject:        note.Title,
			Body:           note.Message,
			CreatedAt:      note.CreatedAt,
		})
		metrics.RecordEmailPublished(err == nil)
		if err != nil {
			n.log.Warn("email notification not published", zap.String("notification_id", note.ID.String()), zap.Error(err))
		}
	}
}

// reviewers returns one notification per active facility manager and admin.
func (n *notifier) reviewers(ctx context.Context, template model.Notification) ([]model.Notification, error) {
	users, err := n.users.ListByRoles(ctx, lifecycle.RoleFacilityManager, lifecycle.RoleAdmin)
	if err != nil {
		return nil, err
	}
	notes := make([]model.Notification, 0, len(users))
	for _, u := range users {
		if !u.IsActive {
			continue
		}
		note := template
		note.ID = uuid.New()
		note.UserID = u.ID
		notes = append(notes, note)
	}
	return notes, nil
}

func toOwner(owner uuid.UUID, kind, title, message string, ref uuid.UUID, entity lifecycle.Entity) model.Notification {
	refID := ref
	return model.Notification{
		ID:            uuid.New(),
		UserID:        owner,
		Title:         title,
		Message:       message,
		Type:          kind,
		ReferenceID:   &refID,
		ReferenceType: string(entity),
		Channel:       model.ChannelInApp,
	}
}
