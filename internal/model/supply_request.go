package model

import (
	"time"

	"fms/internal/lifecycle"

	"github.com/google/uuid"
)

var SupplyPriorities = []string{"routine", "urgent"}

type SupplyRequest struct {
	ID               uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SubmittedBy      uuid.UUID           `gorm:"type:uuid;not null;index" json:"submitted_by"`
	Submitter        *User               `gorm:"foreignKey:SubmittedBy" json:"submitter,omitempty"`
	AreaOfUseID      uuid.UUID           `gorm:"type:uuid;not null;index" json:"area_of_use"`
	Area             *FacilityArea       `gorm:"foreignKey:AreaOfUseID" json:"area,omitempty"`
	Priority         string              `gorm:"type:varchar(20);not null;default:'routine'" json:"priority"`
	Status           lifecycle.Status    `gorm:"type:varchar(30);not null;default:'pending';index" json:"status"`
	ApprovedBy       *uuid.UUID          `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt       *time.Time          `json:"approved_at,omitempty"`
	ApprovalComments string              `gorm:"type:text" json:"approval_comments,omitempty"`
	FulfilledBy      *uuid.UUID          `gorm:"type:uuid" json:"fulfilled_by,omitempty"`
	FulfilledAt      *time.Time          `json:"fulfilled_at,omitempty"`
	Items            []SupplyRequestItem `gorm:"foreignKey:SupplyRequestID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// SupplyRequestItem is owned by its SupplyRequest and removed with it.
type SupplyRequestItem struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SupplyRequestID uuid.UUID `gorm:"type:uuid;not null;index" json:"supply_request_id"`
	ItemName        string    `gorm:"type:varchar(255);not null" json:"item_name"`
	Quantity        int       `gorm:"not null" json:"quantity"`
	Unit            string    `gorm:"type:varchar(30);not null" json:"unit"`
	Notes           string    `gorm:"type:text" json:"notes,omitempty"`
	IsApproved      bool      `gorm:"not null;default:false" json:"is_approved"`
}
