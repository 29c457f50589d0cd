package model

import (
	"time"

	"fms/internal/lifecycle"

	"github.com/google/uuid"
)

type SpaceBooking struct {
	ID                uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FacilityAreaID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"facility_area_id"`
	Area              *FacilityArea    `gorm:"foreignKey:FacilityAreaID" json:"area,omitempty"`
	RequestedBy       uuid.UUID        `gorm:"type:uuid;not null;index" json:"requested_by"`
	Requester         *User            `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	BookingDate       time.Time        `gorm:"type:date;not null;index" json:"booking_date"`
	StartTime         string           `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime           string           `gorm:"type:varchar(5);not null" json:"end_time"`
	Purpose           string           `gorm:"type:text;not null" json:"purpose"`
	ExpectedAttendees int              `gorm:"not null;default:1" json:"expected_attendees"`
	SetupRequirements string           `gorm:"type:text" json:"setup_requirements,omitempty"`
	Status            lifecycle.Status `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ApprovedBy        *uuid.UUID       `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt        *time.Time       `json:"approved_at,omitempty"`
	DecisionReason    string           `gorm:"type:text" json:"decision_reason,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}
