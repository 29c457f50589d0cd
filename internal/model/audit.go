package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionSignUp          = "SIGN_UP"
	ActionProvisionUser   = "PROVISION_USER"
	ActionSetUserActive   = "SET_USER_ACTIVE"
	ActionCreateArea      = "CREATE_AREA"
	ActionDeleteArea      = "DELETE_AREA"
	ActionCreateWorkOrder = "CREATE_WORK_ORDER"
	ActionCreateAsset     = "CREATE_ASSET"
	ActionDeleteAsset     = "DELETE_ASSET"
	ActionCreateSchedule  = "CREATE_MAINTENANCE_SCHEDULE"
	ActionCreateVendor    = "CREATE_VENDOR"
	ActionCreateContract  = "CREATE_CONTRACT"
	ActionRecordPayment   = "RECORD_VENDOR_PAYMENT"
	ActionCreateBooking   = "CREATE_BOOKING"
	ActionCreateSupplyReq = "CREATE_SUPPLY_REQUEST"
	ActionCreateExpense   = "CREATE_EXPENSE"

	// ActionTransition is logged for every accepted status change.
	ActionTransition = "STATUS_TRANSITION"
)

// AuditLog tracks Who, What, and When for every mutation.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for system actions
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityType string     `gorm:"type:varchar(30);index" json:"entity_type"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
