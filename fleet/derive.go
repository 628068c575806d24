package fleet

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"fleetd/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/skip2/go-qrcode"
)

// treasuryDerivationTag separates the treasury keypair's seed domain
// from the indexed account seeds.
const treasuryDerivationTag = "fleet-treasury"

// DeriveKeypair derives the keypair for one subaccount. The seed is
// SHA-256(parentSignature || index as big-endian uint32), so the same
// parent signature and index always yield the same address.
func DeriveKeypair(parentSignature []byte, index uint32) solana.PrivateKey {
	h := sha256.New()
	h.Write(parentSignature)
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], index)
	h.Write(buf[:])
	seed := h.Sum(nil)
	return solana.PrivateKey(ed25519.NewKeyFromSeed(seed))
}

// DeriveTreasury derives the fleet's funding source keypair from the
// same parent signature, under a separate seed domain.
func DeriveTreasury(parentSignature []byte) solana.PrivateKey {
	h := sha256.New()
	h.Write(parentSignature)
	h.Write([]byte(treasuryDerivationTag))
	seed := h.Sum(nil)
	return solana.PrivateKey(ed25519.NewKeyFromSeed(seed))
}

// DeriveFleet derives count subaccounts from the parent signature.
// Indices run 0..count-1 and are unique within the set.
func DeriveFleet(parentSignature []byte, count int) ([]model.Account, error) {
	if len(parentSignature) == 0 {
		return nil, errors.New("parent signature is empty")
	}
	if count < 1 {
		return nil, errors.New("fleet size must be at least 1")
	}

	accounts := make([]model.Account, count)
	for i := 0; i < count; i++ {
		key := DeriveKeypair(parentSignature, uint32(i))
		accounts[i] = model.Account{
			Index:      i,
			Address:    key.PublicKey().String(),
			SigningKey: []byte(key),
		}
	}
	return accounts, nil
}

// BuildVaultData packs the treasury keypair and the derived set into the
// vault payload.
func BuildVaultData(treasury solana.PrivateKey, accounts []model.Account) *model.VaultData {
	vaultAccounts := make([]model.VaultAccount, len(accounts))
	for i, acc := range accounts {
		vaultAccounts[i] = model.VaultAccount{
			Index:      acc.Index,
			Address:    acc.Address,
			PrivateKey: acc.SigningKey,
		}
	}
	return &model.VaultData{
		TreasuryKey: []byte(treasury),
		Accounts:    vaultAccounts,
		CreatedAt:   time.Now().Format(time.RFC3339),
	}
}

// AccountsFromVault restores the in-memory account set and treasury
// keypair from a decrypted vault payload.
func AccountsFromVault(data *model.VaultData) ([]model.Account, solana.PrivateKey, error) {
	if len(data.TreasuryKey) != 64 {
		return nil, nil, errors.New("invalid treasury key length")
	}

	accounts := make([]model.Account, len(data.Accounts))
	for i, va := range data.Accounts {
		if len(va.PrivateKey) != 64 {
			return nil, nil, fmt.Errorf("invalid private key length for account %d", va.Index)
		}
		accounts[i] = model.Account{
			Index:      va.Index,
			Address:    va.Address,
			SigningKey: va.PrivateKey,
		}
	}
	return accounts, solana.PrivateKey(data.TreasuryKey), nil
}

// GenerateQRCode generates QR code of address in base64
func GenerateQRCode(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	// Get PNG image
	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	// Encode to base64
	return base64.StdEncoding.EncodeToString(png), nil
}
