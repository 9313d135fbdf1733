package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// FactFilter narrows the monthly consumption facts fetched from the warehouse.
type FactFilter struct {
	// AccountPattern is matched with ILIKE; "%" selects all accounts.
	AccountPattern string
	From           time.Time
	To             time.Time
}

// GrowthSnapshot is the latest computed MoM growth row for an account,
// materialised by the refresh loop.
type GrowthSnapshot struct {
	AccountID   string
	AccountName string
	Period      time.Time
	Amount      decimal.Decimal
	PriorAmount *decimal.Decimal
	GrowthPct   *decimal.Decimal
	RefreshedAt time.Time
}

// ReportRun records one report invocation for auditing.
type ReportRun struct {
	ID             int64
	Kind           string
	AccountPattern string
	WindowStart    time.Time
	WindowEnd      time.Time
	RowCount       int
	Status         string
	Error          *string
	CreatedAt      time.Time
}
