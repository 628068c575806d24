package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"fleetd/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lowerScryptCost drops the work factor so tests do not spend seconds
// (and ~256MB) per key derivation.
func lowerScryptCost(t *testing.T) {
	t.Helper()
	orig := scryptN
	scryptN = 1 << 12
	t.Cleanup(func() { scryptN = orig })
}

func testVaultData() *model.VaultData {
	return &model.VaultData{
		TreasuryKey: make([]byte, 64),
		Accounts: []model.VaultAccount{
			{Index: 0, Address: "addr0", PrivateKey: make([]byte, 64)},
			{Index: 1, Address: "addr1", PrivateKey: make([]byte, 64)},
		},
		CreatedAt: "2026-01-02T15:04:05Z",
	}
}

func TestVaultSaveLoadRoundTrip(t *testing.T) {
	lowerScryptCost(t)
	path := filepath.Join(t.TempDir(), "fleet.fvt")
	password := []byte("correct horse")

	require.NoError(t, SaveVault(path, "parent-addr", "qr-png-base64", testVaultData(), password))

	vaultFile, data, err := LoadVault(path, password)
	require.NoError(t, err)

	assert.Equal(t, "solana", vaultFile.Network)
	assert.Equal(t, "parent-addr", vaultFile.ParentAddress)
	assert.Equal(t, "qr-png-base64", vaultFile.QR)
	assert.Equal(t, make([]byte, 64), data.TreasuryKey)
	require.Len(t, data.Accounts, 2)
	assert.Equal(t, "addr1", data.Accounts[1].Address)
	assert.Equal(t, "2026-01-02T15:04:05Z", data.CreatedAt)
}

func TestVaultFileStartsWithBOM(t *testing.T) {
	lowerScryptCost(t)
	path := filepath.Join(t.TempDir(), "fleet.fvt")

	require.NoError(t, SaveVault(path, "parent-addr", "", testVaultData(), []byte("pw")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(raw), 3)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, raw[:3])
}

func TestLoadVaultWrongPassword(t *testing.T) {
	lowerScryptCost(t)
	path := filepath.Join(t.TempDir(), "fleet.fvt")

	require.NoError(t, SaveVault(path, "parent-addr", "", testVaultData(), []byte("right")))

	_, _, err := LoadVault(path, []byte("wrong"))
	require.Error(t, err)
	assert.Equal(t, "invalid password", err.Error())
}

func TestSaveVaultRefusesExistingFile(t *testing.T) {
	lowerScryptCost(t)
	path := filepath.Join(t.TempDir(), "fleet.fvt")
	require.NoError(t, os.WriteFile(path, []byte("already here"), 0600))

	err := SaveVault(path, "parent-addr", "", testVaultData(), []byte("pw"))
	require.Error(t, err)
	assert.True(t, IsFileExistsError(err))
}

func TestSaveVaultRequiresFvtExtension(t *testing.T) {
	lowerScryptCost(t)
	path := filepath.Join(t.TempDir(), "fleet.json")

	err := SaveVault(path, "parent-addr", "", testVaultData(), []byte("pw"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".fvt")
}

func TestReadParentAddress(t *testing.T) {
	lowerScryptCost(t)
	path := filepath.Join(t.TempDir(), "fleet.fvt")

	require.NoError(t, SaveVault(path, "parent-addr", "", testVaultData(), []byte("pw")))

	// reads through the BOM prefix without needing the password
	parent, err := ReadParentAddress(path)
	require.NoError(t, err)
	assert.Equal(t, "parent-addr", parent)
}

func TestLoadVaultMissingFile(t *testing.T) {
	_, _, err := LoadVault(filepath.Join(t.TempDir(), "absent.fvt"), []byte("pw"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
