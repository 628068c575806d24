package fleet

import (
	"math/rand/v2"
	"testing"

	"fleetd/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAllocateUniform(t *testing.T) {
	plan, err := Allocate(AllocationRequest{
		TotalBudget: dec("10"),
		Count:       4,
		Mode:        ModeUniform,
	})
	require.NoError(t, err)

	require.Len(t, plan.Entries, 4)
	for i, entry := range plan.Entries {
		assert.Equal(t, i, entry.AccountIndex)
		assert.True(t, entry.Amount.Equal(dec("2.5")), "amount %d = %s", i, entry.Amount)
		assert.Equal(t, uint64(2_500_000_000), entry.Lamports)
	}
	assert.True(t, plan.TotalAmount.Equal(dec("10")))
	assert.True(t, plan.EstimatedFee.Equal(dec("0.00002")), "fee = %s", plan.EstimatedFee)
	assert.Equal(t, uint64(10_000_000_000), plan.TotalLamports)
	assert.Equal(t, uint64(20_000), plan.FeeLamports)
}

func TestAllocateUniformIsIdempotent(t *testing.T) {
	req := AllocationRequest{TotalBudget: dec("7.77"), Count: 13, Mode: ModeUniform}

	first, err := Allocate(req)
	require.NoError(t, err)
	second, err := Allocate(req)
	require.NoError(t, err)

	require.Len(t, second.Entries, len(first.Entries))
	for i := range first.Entries {
		assert.True(t, first.Entries[i].Amount.Equal(second.Entries[i].Amount))
	}
	assert.True(t, first.TotalAmount.Equal(second.TotalAmount))
}

func TestAllocateUniformRoundingRemainderNotRedistributed(t *testing.T) {
	plan, err := Allocate(AllocationRequest{
		TotalBudget: dec("10"),
		Count:       3,
		Mode:        ModeUniform,
	})
	require.NoError(t, err)

	// 10/3 rounds to 3.3333 per account; the 0.0001 remainder stays
	// unallocated and the plan reports the actual sum.
	for _, entry := range plan.Entries {
		assert.True(t, entry.Amount.Equal(dec("3.3333")))
	}
	assert.True(t, plan.TotalAmount.Equal(dec("9.9999")), "total = %s", plan.TotalAmount)
}

func TestAllocateBoundedRandomProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 13))
	req := AllocationRequest{
		TotalBudget: dec("10"),
		Count:       5,
		Mode:        ModeBoundedRandom,
		MinAmount:   dec("0.5"),
		MaxAmount:   dec("3"),
	}

	for run := 0; run < 50; run++ {
		plan, err := AllocateWithRand(req, r)
		require.NoError(t, err)
		require.Len(t, plan.Entries, 5)

		sum := decimal.Zero
		for i, entry := range plan.Entries {
			assert.True(t, entry.Amount.Sign() >= 0, "run %d entry %d negative", run, i)
			if i < len(plan.Entries)-1 {
				assert.True(t, entry.Amount.Cmp(req.MinAmount) >= 0, "run %d entry %d below min: %s", run, i, entry.Amount)
				assert.True(t, entry.Amount.Cmp(req.MaxAmount) <= 0, "run %d entry %d above max: %s", run, i, entry.Amount)
			} else {
				// last entry is remainder-driven, only the floor holds
				assert.True(t, entry.Amount.Cmp(req.MinAmount) >= 0, "run %d last entry below min: %s", run, entry.Amount)
			}
			sum = sum.Add(entry.Amount)
		}
		assert.True(t, sum.Equal(req.TotalBudget), "run %d sum = %s", run, sum)
	}
}

func TestAllocateBoundedRandomSingleAccount(t *testing.T) {
	plan, err := AllocateWithRand(AllocationRequest{
		TotalBudget: dec("5"),
		Count:       1,
		Mode:        ModeBoundedRandom,
		MinAmount:   dec("1"),
		MaxAmount:   dec("2"),
	}, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)

	// remainder-driven last (and only) entry takes the full budget
	require.Len(t, plan.Entries, 1)
	assert.True(t, plan.Entries[0].Amount.Equal(dec("5")))
}

func TestAllocateLamportPrecisionBudgetIsExact(t *testing.T) {
	// 9 decimal places is the finest lamport-representable budget; the
	// remainder-driven last entry converts without truncation
	plan, err := AllocateWithRand(AllocationRequest{
		TotalBudget: dec("1.000000001"),
		Count:       1,
		Mode:        ModeBoundedRandom,
		MinAmount:   dec("0.5"),
		MaxAmount:   dec("2"),
	}, rand.New(rand.NewPCG(3, 9)))
	require.NoError(t, err)

	require.Len(t, plan.Entries, 1)
	assert.Equal(t, uint64(1_000_000_001), plan.Entries[0].Lamports)
	assert.Equal(t, uint64(1_000_000_001), plan.TotalLamports)
	assert.True(t, plan.TotalAmount.Equal(dec("1.000000001")))
}

func TestAllocateRejectsInfeasibleMinimum(t *testing.T) {
	_, err := Allocate(AllocationRequest{
		TotalBudget: dec("5"),
		Count:       10,
		Mode:        ModeBoundedRandom,
		MinAmount:   dec("1"),
		MaxAmount:   dec("2"),
	})

	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestAllocateRejectsMinAboveMax(t *testing.T) {
	_, err := Allocate(AllocationRequest{
		TotalBudget: dec("10"),
		Count:       2,
		Mode:        ModeBoundedRandom,
		MinAmount:   dec("3"),
		MaxAmount:   dec("2"),
	})

	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestAllocateRejectsBadInputs(t *testing.T) {
	cases := []struct {
		name string
		req  AllocationRequest
	}{
		{"zero count", AllocationRequest{TotalBudget: dec("1"), Count: 0, Mode: ModeUniform}},
		{"negative count", AllocationRequest{TotalBudget: dec("1"), Count: -2, Mode: ModeUniform}},
		{"zero budget", AllocationRequest{TotalBudget: dec("0"), Count: 3, Mode: ModeUniform}},
		{"negative budget", AllocationRequest{TotalBudget: dec("-4"), Count: 3, Mode: ModeUniform}},
		{"negative min", AllocationRequest{TotalBudget: dec("4"), Count: 3, Mode: ModeBoundedRandom, MinAmount: dec("-1"), MaxAmount: dec("1")}},
		{"unknown mode", AllocationRequest{TotalBudget: dec("4"), Count: 3, Mode: AllocationMode("weighted")}},
		{"sub-lamport budget", AllocationRequest{TotalBudget: dec("1.0000000005"), Count: 1, Mode: ModeUniform}},
		{"sub-lamport min", AllocationRequest{TotalBudget: dec("4"), Count: 2, Mode: ModeBoundedRandom, MinAmount: dec("0.0000000001"), MaxAmount: dec("2")}},
		{"sub-lamport max", AllocationRequest{TotalBudget: dec("4"), Count: 2, Mode: ModeBoundedRandom, MinAmount: dec("1"), MaxAmount: dec("2.0000000009")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Allocate(tc.req)
			var ve *model.ValidationError
			require.ErrorAs(t, err, &ve)
		})
	}
}
