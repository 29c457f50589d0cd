package model

import (
	"time"

	"github.com/google/uuid"
)

// FacilityArea is a space that work orders, assets and bookings point at.
type FacilityArea struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Type        string    `gorm:"type:varchar(100)" json:"type"`
	Capacity    int       `gorm:"not null;default:0" json:"capacity"`
	KeyFeatures string    `gorm:"type:text" json:"key_features"`
	IsBookable  bool      `gorm:"not null;default:false" json:"is_bookable"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
