package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationWorkOrder = "work_order"
	NotificationBooking   = "booking"
	NotificationSupply    = "supply"
	NotificationExpense   = "expense"
	NotificationContract  = "contract"
	NotificationSystem    = "system"
)

const (
	ChannelInApp = "in_app"
	ChannelEmail = "email"
	ChannelBoth  = "both"
)

// Notification rows are never edited except for IsRead, and only by UserID.
type Notification struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Title         string     `gorm:"type:varchar(255);not null" json:"title"`
	Message       string     `gorm:"type:text;not null" json:"message"`
	Type          string     `gorm:"type:varchar(20);not null" json:"type"`
	ReferenceID   *uuid.UUID `gorm:"type:uuid" json:"reference_id,omitempty"`
	ReferenceType string     `gorm:"type:varchar(30)" json:"reference_type,omitempty"`
	Channel       string     `gorm:"type:varchar(10);not null;default:'in_app'" json:"channel"`
	IsRead        bool       `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
}

// Emailed reports whether the notification must also go out by email.
func (n Notification) Emailed() bool {
	return n.Channel == ChannelEmail || n.Channel == ChannelBoth
}
