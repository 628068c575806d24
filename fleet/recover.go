package fleet

import (
	"context"
	"errors"

	"fleetd/internal/model"
)

// ErrNotImplemented marks operations that exist in the API surface but
// have no execution semantics yet.
var ErrNotImplemented = errors.New("not implemented")

// RecoverAll will sweep each account's lamports back to the treasury.
// TODO: needs per-account fee accounting so a sweep never leaves an
// account below rent exemption.
func RecoverAll(ctx context.Context, c ChainClient, accounts []model.Account) error {
	return ErrNotImplemented
}

// SellAll will liquidate each account's tracked token position.
func SellAll(ctx context.Context, c ChainClient, accounts []model.Account) error {
	return ErrNotImplemented
}
