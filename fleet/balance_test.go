package fleet

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// refreshFake serves per-address balances and fails selected addresses.
type refreshFake struct {
	mu          sync.Mutex
	balances    map[string]uint64
	tokens      map[string]uint64
	failAddrs   map[string]bool
	maxInFlight int
	inFlight    int
}

func (f *refreshFake) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	addr := account.String()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAddrs[addr] {
		return 0, errors.New("rpc unavailable")
	}
	return f.balances[addr], nil
}

func (f *refreshFake) GetTokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[owner.String()], nil
}

func (f *refreshFake) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	return solana.Hash{}, nil
}

func (f *refreshFake) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	return solana.Signature{}, errors.New("not expected")
}

func (f *refreshFake) WaitForConfirmation(ctx context.Context, sig solana.Signature) (bool, error) {
	return false, errors.New("not expected")
}

func TestRefreshBalancesUpdatesAccounts(t *testing.T) {
	accounts := testAccounts(t, 12)
	fake := &refreshFake{balances: map[string]uint64{}}
	for i, acc := range accounts {
		fake.balances[acc.Address] = uint64(i+1) * 1000
	}

	failed := RefreshBalances(context.Background(), fake, accounts, nil, slog.New(slog.DiscardHandler))

	assert.Equal(t, 0, failed)
	for i, acc := range accounts {
		assert.Equal(t, uint64(i+1)*1000, acc.NativeLamports)
		assert.Nil(t, acc.TokenRaw)
	}
	assert.LessOrEqual(t, fake.maxInFlight, refreshWaveSize)
}

func TestRefreshBalancesPartialFailure(t *testing.T) {
	accounts := testAccounts(t, 6)
	fake := &refreshFake{
		balances:  map[string]uint64{},
		failAddrs: map[string]bool{},
	}
	for _, acc := range accounts {
		fake.balances[acc.Address] = 500
	}
	fake.failAddrs[accounts[2].Address] = true
	accounts[2].NativeLamports = 42 // stale cached value

	failed := RefreshBalances(context.Background(), fake, accounts, nil, slog.New(slog.DiscardHandler))

	// the failed account keeps its stale balance, the rest update
	assert.Equal(t, 1, failed)
	assert.Equal(t, uint64(42), accounts[2].NativeLamports)
	for i, acc := range accounts {
		if i == 2 {
			continue
		}
		assert.Equal(t, uint64(500), acc.NativeLamports)
	}
}

func TestRefreshBalancesTracksTokenMint(t *testing.T) {
	accounts := testAccounts(t, 3)
	fake := &refreshFake{
		balances: map[string]uint64{},
		tokens:   map[string]uint64{},
	}
	for _, acc := range accounts {
		fake.balances[acc.Address] = 100
		fake.tokens[acc.Address] = 7_000_000
	}

	mint := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	failed := RefreshBalances(context.Background(), fake, accounts, &mint, slog.New(slog.DiscardHandler))

	assert.Equal(t, 0, failed)
	for _, acc := range accounts {
		require.NotNil(t, acc.TokenRaw)
		assert.Equal(t, uint64(7_000_000), *acc.TokenRaw)
	}
}
