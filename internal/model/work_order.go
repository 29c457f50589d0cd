package model

import (
	"time"

	"fms/internal/lifecycle"

	"github.com/google/uuid"
)

const (
	UrgencyLow       = "low"
	UrgencyMedium    = "medium"
	UrgencyHigh      = "high"
	UrgencyEmergency = "emergency"
)

var WorkOrderCategories = []string{"plumbing", "electrical", "hvac", "structural", "general", "other"}

var WorkOrderUrgencies = []string{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyEmergency}

type WorkOrder struct {
	ID               uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkOrderNumber  string           `gorm:"type:varchar(20);uniqueIndex;not null" json:"work_order_number"`
	SubmittedBy      uuid.UUID        `gorm:"type:uuid;not null;index" json:"submitted_by"`
	Submitter        *User            `gorm:"foreignKey:SubmittedBy" json:"submitter,omitempty"`
	LocationAreaID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"location_area"`
	Area             *FacilityArea    `gorm:"foreignKey:LocationAreaID" json:"area,omitempty"`
	Category         string           `gorm:"type:varchar(30);not null;index" json:"category"`
	Description      string           `gorm:"type:text;not null" json:"description"`
	Urgency          string           `gorm:"type:varchar(20);not null" json:"urgency"`
	Status           lifecycle.Status `gorm:"type:varchar(30);not null;default:'submitted';index" json:"status"`
	AssignedToUser   *uuid.UUID       `gorm:"type:uuid" json:"assigned_to_user,omitempty"`
	Assignee         *User            `gorm:"foreignKey:AssignedToUser" json:"assignee,omitempty"`
	AssignedToVendor *uuid.UUID       `gorm:"type:uuid" json:"assigned_to_vendor,omitempty"`
	Vendor           *Vendor          `gorm:"foreignKey:AssignedToVendor" json:"vendor,omitempty"`
	RejectionReason  string           `gorm:"type:text" json:"rejection_reason,omitempty"`
	PhotoAttachments []string         `gorm:"type:jsonb;serializer:json" json:"photo_attachments"`
	ApprovedBy       *uuid.UUID       `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt       *time.Time       `json:"approved_at,omitempty"`
	CompletedBy      *uuid.UUID       `gorm:"type:uuid" json:"completed_by,omitempty"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	CreatedAt        time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
