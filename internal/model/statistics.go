package model

import (
	"time"

	"fms/internal/lifecycle"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Slim projections loaded for reporting. Aggregation happens in memory.

type WorkOrderFact struct {
	ID        uuid.UUID
	Category  string
	Status    lifecycle.Status
	CreatedAt time.Time
}

type ExpenseFact struct {
	ID          uuid.UUID
	Category    string
	Status      lifecycle.Status
	Amount      decimal.Decimal
	ExpenseDate time.Time
}

type BookingFact struct {
	ID          uuid.UUID
	AreaName    string
	Status      lifecycle.Status
	BookingDate time.Time
}
