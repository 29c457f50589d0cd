package model

import (
	"time"

	"github.com/google/uuid"
)

var AssetCategories = []string{
	"hvac_utilities", "av_electronics", "kitchen_cafeteria",
	"sports_recreation", "furniture_fixtures", "cleaning_janitorial",
}

var AssetConditions = []string{"excellent", "good", "fair", "poor", "decommissioned"}

var ScheduleTypes = []string{"weekly", "monthly", "quarterly", "annually"}

type Asset struct {
	ID                  uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                string        `gorm:"type:varchar(255);not null" json:"name"`
	Category            string        `gorm:"type:varchar(30);not null;index" json:"category"`
	LocationAreaID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"location_area"`
	Area                *FacilityArea `gorm:"foreignKey:LocationAreaID" json:"area,omitempty"`
	SerialNumber        string        `gorm:"type:varchar(100)" json:"serial_number"`
	PurchaseDate        *time.Time    `gorm:"type:date" json:"purchase_date,omitempty"`
	Condition           string        `gorm:"type:varchar(20);not null;default:'good'" json:"condition"`
	Quantity            int           `gorm:"not null;default:1" json:"quantity"`
	ImageURL            string        `gorm:"type:text" json:"image_url,omitempty"`
	ResponsibleParty    *uuid.UUID    `gorm:"type:uuid" json:"responsible_party,omitempty"`
	ResponsibleUser     *User         `gorm:"foreignKey:ResponsibleParty" json:"responsible_user,omitempty"`
	DocumentAttachments []string      `gorm:"type:jsonb;serializer:json" json:"document_attachments"`
	CreatedBy           uuid.UUID     `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// AssetMaintenanceSchedule is a recurring service plan for an asset.
type AssetMaintenanceSchedule struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AssetID      uuid.UUID `gorm:"type:uuid;not null;index" json:"asset_id"`
	Asset        *Asset    `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE" json:"-"`
	ScheduleType string    `gorm:"type:varchar(20);not null" json:"schedule_type"`
	NextDueDate  time.Time `gorm:"type:date;not null;index" json:"next_due_date"`
	Notes        string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
