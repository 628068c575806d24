package model

// VaultFile represents .fvt file structure
type VaultFile struct {
	Network       string `json:"network"`
	ParentAddress string `json:"parentAddress"`
	QR            string `json:"QR"`
	Salt          string `json:"salt"`
	Nonce         string `json:"nonce"`
	CipherText    string `json:"cipherText"`
}

// VaultAccount is one derived account as stored inside the encrypted payload.
type VaultAccount struct {
	Index      int    `json:"index"`
	Address    string `json:"address"`
	PrivateKey []byte `json:"privateKey"` // 64 bytes (stored as base64 in JSON)
}

// VaultData represents the decrypted vault payload: the treasury keypair
// plus the full derived account set.
type VaultData struct {
	TreasuryKey []byte         `json:"treasuryKey"` // 64 bytes (stored as base64 in JSON)
	Accounts    []VaultAccount `json:"accounts"`
	CreatedAt   string         `json:"createdAt"`
}
