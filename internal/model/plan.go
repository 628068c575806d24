package model

import "github.com/shopspring/decimal"

// PlanEntry assigns one amount to one account index.
type PlanEntry struct {
	AccountIndex int
	Amount       decimal.Decimal // SOL, rounded to the allocator precision
	Lamports     uint64
}

// DistributionPlan is the immutable output of the allocator: an ordered
// per-account amount assignment for one funding request.
//
// TotalAmount is the actual sum of the entries. In uniform mode it can
// differ from the requested budget by a few units in the last decimal
// place because the per-account rounding remainder is not redistributed.
type DistributionPlan struct {
	Entries       []PlanEntry
	TotalAmount   decimal.Decimal
	EstimatedFee  decimal.Decimal // SOL
	TotalLamports uint64
	FeeLamports   uint64
}
