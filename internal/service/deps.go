package service

import (
	"fms/internal/queue"
	"fms/internal/repository"

	"go.uber.org/zap"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	Tx            repository.TransactionManager
	Audit         repository.AuditRepository
	Users         repository.UserRepository
	Notifications repository.NotificationRepository
	Publisher     queue.Publisher
	Files         FileSaver
	Log           *zap.Logger
}

func (d Deps) notifier() *notifier {
	return newNotifier(d.Notifications, d.Users, d.Publisher, d.logger())
}

func (d Deps) reviewer() *reviewer {
	return newReviewer(d.Tx, d.Audit, d.notifier(), d.logger())
}

func (d Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}
