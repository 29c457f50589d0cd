package model

import (
	"time"

	"fms/internal/lifecycle"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ExpenseCategories = []string{
	"maintenance_repairs", "cleaning_supplies", "vendor_payments",
	"utilities", "equipment_purchase", "miscellaneous",
}

type Expense struct {
	ID                uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SubmittedBy       uuid.UUID        `gorm:"type:uuid;not null;index" json:"submitted_by"`
	Submitter         *User            `gorm:"foreignKey:SubmittedBy" json:"submitter,omitempty"`
	Description       string           `gorm:"type:text;not null" json:"description"`
	Amount            decimal.Decimal  `gorm:"type:decimal(14,2);not null" json:"amount"`
	Category          string           `gorm:"type:varchar(30);not null;index" json:"category"`
	ExpenseDate       time.Time        `gorm:"type:date;not null;index" json:"expense_date"`
	VendorPayee       string           `gorm:"type:varchar(255)" json:"vendor_payee"`
	ReceiptAttachment string           `gorm:"type:text" json:"receipt_attachment,omitempty"`
	Status            lifecycle.Status `gorm:"type:varchar(30);not null;default:'pending';index" json:"status"`
	ApprovedBy        *uuid.UUID       `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt        *time.Time       `json:"approved_at,omitempty"`
	ReimbursedBy      *uuid.UUID       `gorm:"type:uuid" json:"reimbursed_by,omitempty"`
	ReimbursedAt      *time.Time       `json:"reimbursed_at,omitempty"`
	RejectionReason   string           `gorm:"type:text" json:"rejection_reason,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}
