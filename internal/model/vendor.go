package model

import (
	"time"

	"fms/internal/lifecycle"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Vendor struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyName     string          `gorm:"type:varchar(255);not null;index" json:"company_name"`
	ServiceCategory string          `gorm:"type:varchar(100);not null" json:"service_category"`
	Rating          *int            `json:"rating,omitempty"`
	Notes           string          `gorm:"type:text" json:"notes,omitempty"`
	Contacts        []VendorContact `gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE" json:"contacts"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type VendorContact struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VendorID  uuid.UUID `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string    `gorm:"type:varchar(50)" json:"phone"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	IsPrimary bool      `gorm:"not null;default:false" json:"is_primary"`
}

type Contract struct {
	ID                 uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VendorID           uuid.UUID        `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Vendor             *Vendor          `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	ServiceDescription string           `gorm:"type:text;not null" json:"service_description"`
	StartDate          time.Time        `gorm:"type:date;not null" json:"start_date"`
	EndDate            time.Time        `gorm:"type:date;not null;index" json:"end_date"`
	RenewalDate        *time.Time       `gorm:"type:date" json:"renewal_date,omitempty"`
	Value              decimal.Decimal  `gorm:"type:decimal(14,2);not null" json:"value"`
	Status             lifecycle.Status `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	DocumentAttachment string           `gorm:"type:text" json:"document_attachment,omitempty"`
	CreatedBy          uuid.UUID        `gorm:"type:uuid;not null" json:"created_by"`
	ReviewedBy         *uuid.UUID       `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt         *time.Time       `json:"reviewed_at,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// VendorPayment records money paid to a vendor against a contract or work order.
type VendorPayment struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VendorID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"vendor_id"`
	ContractID       *uuid.UUID      `gorm:"type:uuid;index" json:"contract_id,omitempty"`
	WorkOrderID      *uuid.UUID      `gorm:"type:uuid;index" json:"work_order_id,omitempty"`
	Amount           decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	InvoiceReference string          `gorm:"type:varchar(100)" json:"invoice_reference"`
	PaymentMethod    string          `gorm:"type:varchar(50)" json:"payment_method"`
	PaymentDate      time.Time       `gorm:"type:date;not null" json:"payment_date"`
	RecordedBy       uuid.UUID       `gorm:"type:uuid;not null" json:"recorded_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
