package model

// Account represents one derived subaccount of the fleet.
//
// SigningKey is the full 64-byte ed25519 private key. It is owned
// exclusively by the account: it is persisted only inside the encrypted
// vault and is never serialized into an API response or written to logs.
type Account struct {
	Index          int
	Address        string
	SigningKey     []byte
	NativeLamports uint64
	TokenRaw       *uint64 // raw units of the tracked token, nil when none is tracked
}

// AccountView is the API-safe projection of an Account.
type AccountView struct {
	Index   int    `json:"index"`
	Address string `json:"address"`
	SOL     string `json:"sol"`
	Token   string `json:"token,omitempty"`
}
