package fleet

import (
	"context"
	"log/slog"
	"sync/atomic"

	"fleetd/internal/model"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/sync/errgroup"
)

// refreshWaveSize bounds the balance-read fan-out to 5 concurrent
// accounts, keeping the RPC endpoint under its rate limit.
const refreshWaveSize = 5

// RefreshBalances re-reads the native (and, when a mint is tracked,
// token) balance of every account from the chain, in waves of
// refreshWaveSize. A failed read leaves that account's cached balance
// stale and is counted, not fatal: the rest of the wave proceeds.
// Returns the number of accounts whose refresh failed.
func RefreshBalances(ctx context.Context, c ChainClient, accounts []model.Account, mint *solana.PublicKey, log *slog.Logger) int {
	var failed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(refreshWaveSize)

	for i := range accounts {
		g.Go(func() error {
			acc := &accounts[i]

			owner, err := solana.PublicKeyFromBase58(acc.Address)
			if err != nil {
				log.Warn("skipping account with invalid address", "index", acc.Index, "err", err)
				failed.Add(1)
				return nil
			}

			lamports, err := c.GetBalance(ctx, owner)
			if err != nil {
				log.Warn("balance refresh failed", "index", acc.Index, "err", err)
				failed.Add(1)
				return nil
			}
			acc.NativeLamports = lamports

			if mint != nil {
				raw, err := c.GetTokenBalance(ctx, owner, *mint)
				if err != nil {
					log.Warn("token balance refresh failed", "index", acc.Index, "err", err)
					failed.Add(1)
					return nil
				}
				acc.TokenRaw = &raw
			}
			return nil
		})
	}

	// Workers never return errors; Wait only joins the waves.
	_ = g.Wait()
	return int(failed.Load())
}
