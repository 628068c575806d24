package client

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"fleetd/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/jonboulle/clockwork"
)

// RetryPolicy bounds every network interaction of the client. Reads are
// retried, sends are not, confirmation is polled up to a hard cap.
type RetryPolicy struct {
	MaxAttempts     int           // attempts for balance/blockhash reads
	ReadBackoff     time.Duration // base delay between read retries
	ConfirmAttempts int           // confirmation polls before reporting a timeout
	ConfirmInterval time.Duration // delay between confirmation polls
}

// DefaultRetryPolicy returns the production policy: 3 read attempts with
// a 1s backoff base, 30 confirmation polls at 1s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		ReadBackoff:     time.Second,
		ConfirmAttempts: 30,
		ConfirmInterval: time.Second,
	}
}

// rpcAPI is the slice of the Solana RPC surface the client uses,
// implemented by *rpc.Client and by test fakes.
type rpcAPI interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// SolanaClient wraps the Solana RPC endpoint with the retry and
// confirmation-polling policies, so callers stay deterministic.
type SolanaClient struct {
	rpc    rpcAPI
	policy RetryPolicy
	clock  clockwork.Clock
	log    *slog.Logger
}

// NewSolanaClient creates a client for the given RPC URL.
func NewSolanaClient(rpcURL string, policy RetryPolicy, log *slog.Logger) *SolanaClient {
	return &SolanaClient{
		rpc:    rpc.New(rpcURL),
		policy: policy,
		clock:  clockwork.NewRealClock(),
		log:    log,
	}
}

// newSolanaClientWithAPI is the test seam: same client over a fake RPC.
func newSolanaClientWithAPI(api rpcAPI, policy RetryPolicy, clock clockwork.Clock, log *slog.Logger) *SolanaClient {
	return &SolanaClient{rpc: api, policy: policy, clock: clock, log: log}
}

// GetBalance returns the lamport balance of an address. Retried up to
// MaxAttempts with linear backoff (attempt x ReadBackoff).
func (c *SolanaClient) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	var lamports uint64
	err := c.retryRead(ctx, "getBalance", true, func() error {
		out, err := c.rpc.GetBalance(ctx, account, rpc.CommitmentConfirmed)
		if err != nil {
			return err
		}
		lamports = out.Value
		return nil
	})
	if err != nil {
		return 0, err
	}
	return lamports, nil
}

// GetTokenBalance returns the raw token balance of owner's associated
// token account for mint. A missing token account reads as zero.
func (c *SolanaClient) GetTokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error) {
	ataAddress, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return 0, fmt.Errorf("failed to find associated token account address: %w", err)
	}

	var raw uint64
	err = c.retryRead(ctx, "getTokenAccountBalance", true, func() error {
		out, err := c.rpc.GetTokenAccountBalance(ctx, ataAddress, rpc.CommitmentConfirmed)
		if err != nil {
			if isAccountNotFoundError(err) {
				raw = 0
				return nil
			}
			return err
		}
		if out.Value == nil {
			raw = 0
			return nil
		}
		amount, err := strconv.ParseUint(out.Value.Amount, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse token balance amount: %w", err)
		}
		raw = amount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return raw, nil
}

// GetLatestBlockhash fetches a fresh blockhash. Retried up to
// MaxAttempts with a fixed ReadBackoff between attempts.
func (c *SolanaClient) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	var hash solana.Hash
	err := c.retryRead(ctx, "getLatestBlockhash", false, func() error {
		out, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		if err != nil {
			return err
		}
		hash = out.Value.Blockhash
		return nil
	})
	if err != nil {
		return solana.Hash{}, err
	}
	return hash, nil
}

// SendTransaction submits a signed transaction. Single attempt: a
// resend after an ambiguous failure risks a double spend, so errors
// propagate immediately.
func (c *SolanaClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// WaitForConfirmation polls the transaction status at ConfirmInterval up
// to ConfirmAttempts. A timeout is an outcome, not an error: it returns
// (false, nil) so the caller decides fatal vs. retryable. A transaction
// that landed with an on-chain error returns a non-nil error.
func (c *SolanaClient) WaitForConfirmation(ctx context.Context, sig solana.Signature) (bool, error) {
	for attempt := 1; attempt <= c.policy.ConfirmAttempts; attempt++ {
		out, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			c.log.Debug("status poll failed", "signature", sig.String(), "attempt", attempt, "err", err)
		} else if len(out.Value) > 0 && out.Value[0] != nil {
			status := out.Value[0]
			if status.Err != nil {
				return false, fmt.Errorf("transaction %s failed on chain: %v", sig.String(), status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return true, nil
			}
		}

		if attempt < c.policy.ConfirmAttempts {
			if err := c.sleep(ctx, c.policy.ConfirmInterval); err != nil {
				return false, err
			}
		}
	}
	return false, nil
}

// retryRead runs fn up to MaxAttempts. linear selects attempt-scaled
// backoff (balance reads) over fixed backoff (blockhash fetch). The last
// error is wrapped as a TransientRpcError once the budget is exhausted.
func (c *SolanaClient) retryRead(ctx context.Context, op string, linear bool, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		c.log.Debug("rpc read failed", "op", op, "attempt", attempt, "err", lastErr)

		if attempt < c.policy.MaxAttempts {
			backoff := c.policy.ReadBackoff
			if linear {
				backoff = time.Duration(attempt) * c.policy.ReadBackoff
			}
			if err := c.sleep(ctx, backoff); err != nil {
				return err
			}
		}
	}
	return &model.TransientRpcError{Op: op, Attempts: c.policy.MaxAttempts, Err: lastErr}
}

func (c *SolanaClient) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}

// isAccountNotFoundError checks if error indicates that an account doesn't exist
func isAccountNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "could not find account") ||
		strings.Contains(errStr, "not found")
}
