package fleet

import (
	"fmt"
	"math/rand/v2"

	"fleetd/internal/model"

	"github.com/shopspring/decimal"
)

// AllocationMode selects how a budget is split across accounts.
type AllocationMode string

const (
	ModeUniform       AllocationMode = "uniform"
	ModeBoundedRandom AllocationMode = "random"
)

const (
	// amountPrecision is the decimal precision of per-account amounts.
	amountPrecision = 4

	// feeLamportsPerTransfer is the network fee budgeted per transfer
	// (0.000005 SOL).
	feeLamportsPerTransfer = 5000
)

// AllocationRequest describes one funding request before amounts are drawn.
// MinAmount and MaxAmount apply to ModeBoundedRandom only.
type AllocationRequest struct {
	TotalBudget decimal.Decimal
	Count       int
	Mode        AllocationMode
	MinAmount   decimal.Decimal
	MaxAmount   decimal.Decimal
}

// Allocate splits the budget across Count accounts and returns the plan.
// Pure computation: no I/O, and deterministic in uniform mode.
func Allocate(req AllocationRequest) (*model.DistributionPlan, error) {
	return allocate(req, rand.Float64)
}

// AllocateWithRand is Allocate with an injected random source, for
// reproducible bounded-random plans in tests.
func AllocateWithRand(req AllocationRequest, r *rand.Rand) (*model.DistributionPlan, error) {
	return allocate(req, r.Float64)
}

func allocate(req AllocationRequest, randFloat func() float64) (*model.DistributionPlan, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var amounts []decimal.Decimal
	switch req.Mode {
	case ModeUniform:
		amounts = allocateUniform(req)
	case ModeBoundedRandom:
		amounts = allocateBoundedRandom(req, randFloat)
	default:
		return nil, &model.ValidationError{Reason: fmt.Sprintf("unknown mode %q", req.Mode)}
	}

	entries := make([]model.PlanEntry, len(amounts))
	total := decimal.Zero
	var totalLamports uint64
	for i, amount := range amounts {
		lamports := uint64(amount.Shift(9).IntPart())
		entries[i] = model.PlanEntry{
			AccountIndex: i,
			Amount:       amount,
			Lamports:     lamports,
		}
		total = total.Add(amount)
		totalLamports += lamports
	}

	feeLamports := uint64(feeLamportsPerTransfer * req.Count)
	return &model.DistributionPlan{
		Entries:       entries,
		TotalAmount:   total,
		EstimatedFee:  decimal.New(int64(feeLamports), -9),
		TotalLamports: totalLamports,
		FeeLamports:   feeLamports,
	}, nil
}

func validateRequest(req AllocationRequest) error {
	if req.Count < 1 {
		return &model.ValidationError{Reason: "count must be at least 1"}
	}
	if req.TotalBudget.Sign() <= 0 {
		return &model.ValidationError{Reason: "total budget must be positive"}
	}
	// amounts must stay lamport-representable: the remainder-driven last
	// entry inherits the budget's full precision
	if subLamport(req.TotalBudget) {
		return &model.ValidationError{Reason: "total budget has more than 9 decimal places"}
	}
	if req.Mode != ModeBoundedRandom {
		return nil
	}
	if req.MinAmount.Sign() < 0 {
		return &model.ValidationError{Reason: "minimum amount cannot be negative"}
	}
	if subLamport(req.MinAmount) || subLamport(req.MaxAmount) {
		return &model.ValidationError{Reason: "amount bounds have more than 9 decimal places"}
	}
	if req.MinAmount.Cmp(req.MaxAmount) > 0 {
		return &model.ValidationError{Reason: "minimum amount exceeds maximum amount"}
	}
	minTotal := req.MinAmount.Mul(decimal.NewFromInt(int64(req.Count)))
	if minTotal.Cmp(req.TotalBudget) > 0 {
		return &model.ValidationError{
			Reason: fmt.Sprintf("minimum allocation %s x %d exceeds budget %s",
				req.MinAmount.String(), req.Count, req.TotalBudget.String()),
		}
	}
	return nil
}

// subLamport reports whether d carries precision below one lamport.
func subLamport(d decimal.Decimal) bool {
	return !d.Equal(d.Truncate(9))
}

// allocateUniform gives every account budget/count rounded to the
// allocator precision. The rounding remainder is NOT redistributed, so
// the plan total can differ from the budget in the last decimal place;
// the plan reports the actual sum.
func allocateUniform(req AllocationRequest) []decimal.Decimal {
	per := req.TotalBudget.DivRound(decimal.NewFromInt(int64(req.Count)), amountPrecision)
	amounts := make([]decimal.Decimal, req.Count)
	for i := range amounts {
		amounts[i] = per
	}
	return amounts
}

// allocateBoundedRandom draws each amount uniformly from
// [min, min(max, remaining - min*accountsLeft)], which keeps enough
// budget for the remaining minimums after every draw. The last account
// takes whatever remains; it is not re-clamped to MaxAmount, so a
// remainder-driven overshoot past the nominal bound is possible.
func allocateBoundedRandom(req AllocationRequest, randFloat func() float64) []decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, req.Count)
	remaining := req.TotalBudget

	for i := 0; i < req.Count-1; i++ {
		left := int64(req.Count - i - 1)
		hi := remaining.Sub(req.MinAmount.Mul(decimal.NewFromInt(left)))
		if req.MaxAmount.Cmp(hi) < 0 {
			hi = req.MaxAmount
		}
		lo := req.MinAmount

		span := hi.Sub(lo)
		amount := lo.Add(span.Mul(decimal.NewFromFloat(randFloat()))).Round(amountPrecision)
		// rounding can nudge the draw just past the window
		if amount.Cmp(hi) > 0 {
			amount = hi
		}
		if amount.Cmp(lo) < 0 {
			amount = lo
		}

		amounts = append(amounts, amount)
		remaining = remaining.Sub(amount)
	}

	return append(amounts, remaining)
}
