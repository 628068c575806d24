package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fleetd/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"go.uber.org/ratelimit"
)

// ChainClient is the slice of the RPC layer the executor depends on.
// Implemented by client.SolanaClient and by test fakes.
type ChainClient interface {
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	GetTokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	WaitForConfirmation(ctx context.Context, sig solana.Signature) (bool, error)
}

// Executor drives one DistributionPlan against the chain: strictly
// sequential batches, one transaction per batch, fail-fast on any
// post-submission ambiguity.
type Executor struct {
	client    ChainClient
	treasury  solana.PrivateKey
	batchSize int
	limiter   ratelimit.Limiter
	tracker   *ProgressTracker
	log       *slog.Logger
}

// NewExecutor creates an executor. The limiter paces batch starts
// (production uses 1 batch/sec to throttle RPC load); the tracker is
// caller-owned so its snapshots can be observed while Fund runs.
func NewExecutor(client ChainClient, treasury solana.PrivateKey, batchSize int, limiter ratelimit.Limiter, tracker *ProgressTracker, log *slog.Logger) (*Executor, error) {
	if batchSize < 1 {
		return nil, errors.New("batch size must be at least 1")
	}
	if len(treasury) != 64 {
		return nil, errors.New("invalid treasury key length")
	}
	return &Executor{
		client:    client,
		treasury:  treasury,
		batchSize: batchSize,
		limiter:   limiter,
		tracker:   tracker,
		log:       log,
	}, nil
}

// Fund executes the plan against the account set. Target balances are
// updated optimistically as batches confirm; accounts is mutated in
// place. Any failure inside a batch aborts the whole run: the workflow
// is not resumable mid-batch, and a caller retrying after failure must
// allocate a fresh plan for the unprocessed remainder.
func (e *Executor) Fund(ctx context.Context, accounts []model.Account, plan *model.DistributionPlan) error {
	fail := func(err error) error {
		e.tracker.Fail(err)
		return err
	}

	// Resolve every target up front so a bad address aborts before any send.
	targets := make([]solana.PublicKey, len(plan.Entries))
	for i, entry := range plan.Entries {
		if entry.AccountIndex < 0 || entry.AccountIndex >= len(accounts) {
			return fail(fmt.Errorf("plan entry %d references unknown account index %d", i, entry.AccountIndex))
		}
		pk, err := solana.PublicKeyFromBase58(accounts[entry.AccountIndex].Address)
		if err != nil {
			return fail(fmt.Errorf("invalid address for account %d: %w", entry.AccountIndex, err))
		}
		targets[i] = pk
	}

	treasuryPub := e.treasury.PublicKey()

	// Precondition: the treasury must cover the plan total plus fees.
	balance, err := e.client.GetBalance(ctx, treasuryPub)
	if err != nil {
		return fail(fmt.Errorf("failed to check treasury balance: %w", err))
	}
	required := plan.TotalLamports + plan.FeeLamports
	if balance < required {
		return fail(&model.InsufficientBalanceError{
			RequiredLamports:  required,
			AvailableLamports: balance,
		})
	}

	batches := partitionEntries(plan.Entries, e.batchSize)
	for bi, batch := range batches {
		// First Take returns immediately, later ones pace batch starts.
		e.limiter.Take()

		if err := ctx.Err(); err != nil {
			return fail(fmt.Errorf("batch %d: %w", bi, err))
		}

		e.tracker.StartBatch(bi)

		first := batch[0].AccountIndex
		instructions := make([]solana.Instruction, 0, len(batch))
		for i, entry := range batch {
			target := targets[bi*e.batchSize+i]
			instructions = append(instructions, system.NewTransferInstruction(
				entry.Lamports,
				treasuryPub,
				target,
			).Build())
		}

		blockhash, err := e.client.GetLatestBlockhash(ctx)
		if err != nil {
			return fail(fmt.Errorf("batch %d: %w", bi, err))
		}

		tx, err := solana.NewTransaction(
			instructions,
			blockhash,
			solana.TransactionPayer(treasuryPub),
		)
		if err != nil {
			return fail(fmt.Errorf("batch %d: failed to create transaction: %w", bi, err))
		}

		_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
			if treasuryPub.Equals(key) {
				return &e.treasury
			}
			return nil
		})
		if err != nil {
			return fail(fmt.Errorf("batch %d: failed to sign transaction: %w", bi, err))
		}

		e.tracker.Confirming()

		sig, err := e.client.SendTransaction(ctx, tx)
		if err != nil {
			return fail(&model.SubmissionError{Batch: bi, Err: err})
		}
		e.log.Info("batch submitted",
			"batch", bi,
			"accounts", len(batch),
			"firstIndex", first,
			"signature", sig.String(),
		)

		confirmed, err := e.client.WaitForConfirmation(ctx, sig)
		if err != nil {
			return fail(fmt.Errorf("batch %d: %w", bi, err))
		}
		if !confirmed {
			return fail(&model.ConfirmationTimeoutError{Batch: bi, Signature: sig.String()})
		}

		// Optimistic local update; RefreshBalances re-syncs with chain truth.
		for _, entry := range batch {
			accounts[entry.AccountIndex].NativeLamports += entry.Lamports
		}
		e.tracker.BatchConfirmed(len(batch))
	}

	e.tracker.Complete()
	return nil
}

// partitionEntries splits entries into fixed-size groups; the last group
// holds the remainder.
func partitionEntries(entries []model.PlanEntry, size int) [][]model.PlanEntry {
	var batches [][]model.PlanEntry
	for start := 0; start < len(entries); start += size {
		end := start + size
		if end > len(entries) {
			end = len(entries)
		}
		batches = append(batches, entries[start:end])
	}
	return batches
}
