// Package queue carries outbound email notifications over RabbitMQ.
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EmailMessage is one email-channel notification for a single recipient.
type EmailMessage struct {
	NotificationID uuid.UUID `json:"notification_id"`
	To             string    `json:"to"`
	RecipientName  string    `json:"recipient_name"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	Link           string    `json:"link,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Publisher hands email messages to the delivery pipeline.
type Publisher interface {
	PublishEmail(ctx context.Context, msg EmailMessage) error
}

// NopPublisher drops every message. Used when the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishEmail(context.Context, EmailMessage) error { return nil }
