package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fms/internal/lifecycle"
	"fms/internal/metrics"
	"fms/internal/model"
	"fms/internal/repository"
	"fms/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// reviewStep describes one status change of one row.
type reviewStep struct {
	Entity lifecycle.Entity
	Label  string // human name of the entity type, e.g. "work order"
	ID     uuid.UUID
	Name   string // human name of the row, e.g. the work order number
	Owner  uuid.UUID

	From   lifecycle.Status
	To     lifecycle.Status
	Reason string

	// Stamps maps target statuses to the (by, at) columns they stamp.
	Stamps map[lifecycle.Status][2]string
	// ReviewStamp, when set, is stamped on every applied transition.
	ReviewStamp  [2]string
	ReasonColumn string
	Fields       map[string]interface{}

	Update func(ctx context.Context, from lifecycle.Status, fields map[string]interface{}) error
	// Within runs inside the transaction after the status write.
	Within func(ctx context.Context) error
}

// reviewer applies status changes: gate, transition table, compare-and-swap,
// audit row and notification, all in one transaction.
type reviewer struct {
	tx       repository.TransactionManager
	audit    repository.AuditRepository
	notifier *notifier
	log      *zap.Logger
	now      func() time.Time
}

func newReviewer(tx repository.TransactionManager, audit repository.AuditRepository, n *notifier, log *zap.Logger) *reviewer {
	return &reviewer{tx: tx, audit: audit, notifier: n, log: log, now: time.Now}
}

// apply returns the decision. A no-op decision means nothing was written.
func (r *reviewer) apply(ctx context.Context, actor lifecycle.Actor, step reviewStep) (lifecycle.Decision, error) {
	if actor.IsZero() {
		return lifecycle.Decision{}, apperror.Unauthenticated("authentication required")
	}
	d, err := lifecycle.Authorize(actor, step.Entity, step.From, step.To)
	if err != nil {
		r.record(step, "rejected")
		return d, err
	}
	if d.NoOp {
		r.record(step, "noop")
		return d, nil
	}

	now := r.now()
	fields := map[string]interface{}{
		"status":     d.To,
		"updated_at": now,
	}
	for k, v := range step.Fields {
		fields[k] = v
	}
	if d.StampReviewer {
		cols, ok := step.Stamps[d.To]
		if !ok {
			return d, apperror.New(apperror.KindInternal, "%s has no reviewer columns for %s", step.Label, d.To)
		}
		fields[cols[0]] = actor.UserID
		fields[cols[1]] = now
	}
	if step.ReviewStamp[0] != "" {
		fields[step.ReviewStamp[0]] = actor.UserID
		fields[step.ReviewStamp[1]] = now
	}
	reason := strings.TrimSpace(step.Reason)
	if d.RecordReason && reason != "" && step.ReasonColumn != "" {
		fields[step.ReasonColumn] = reason
	}

	note := toOwner(step.Owner, notificationType(step.Entity),
		fmt.Sprintf("%s %s", capitalize(step.Label), humanize(d.To)),
		transitionMessage(step, d, reason),
		step.ID, step.Entity)
	staged := []model.Notification{note}

	err = r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := step.Update(txCtx, d.From, fields); err != nil {
			return err
		}
		if step.Within != nil {
			if err := step.Within(txCtx); err != nil {
				return err
			}
		}
		entry := auditEntry(actor, model.ActionTransition, step.Entity, step.ID, step.Name, map[string]interface{}{
			"from":   d.From,
			"to":     d.To,
			"reason": reason,
		})
		if err := r.audit.Log(txCtx, entry); err != nil {
			return err
		}
		return r.notifier.stage(txCtx, staged)
	})
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			r.record(step, "conflict")
		}
		return d, err
	}

	r.record(step, "applied")
	r.log.Info("status changed",
		zap.String("entity", string(step.Entity)),
		zap.String("id", step.ID.String()),
		zap.String("from", string(d.From)),
		zap.String("to", string(d.To)),
		zap.String("by", actor.UserID.String()))
	r.notifier.dispatch(ctx, staged)
	return d, nil
}

func (r *reviewer) record(step reviewStep, outcome string) {
	metrics.RecordTransition(string(step.Entity), string(step.To), outcome)
}

func notificationType(entity lifecycle.Entity) string {
	switch entity {
	case lifecycle.EntityWorkOrder:
		return model.NotificationWorkOrder
	case lifecycle.EntitySpaceBooking:
		return model.NotificationBooking
	case lifecycle.EntitySupplyRequest:
		return model.NotificationSupply
	case lifecycle.EntityExpense:
		return model.NotificationExpense
	case lifecycle.EntityContract:
		return model.NotificationContract
	}
	return model.NotificationSystem
}

func transitionMessage(step reviewStep, d lifecycle.Decision, reason string) string {
	subject := step.Label
	if step.Name != "" {
		subject = fmt.Sprintf("%s %s", step.Label, step.Name)
	}
	msg := fmt.Sprintf("Your %s moved from %s to %s.", subject, humanize(d.From), humanize(d.To))
	if reason != "" {
		msg += " Reason: " + reason
	}
	return msg
}

func humanize(s lifecycle.Status) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
