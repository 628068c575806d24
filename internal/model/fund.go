package model

// GenerateRequest represents request for POST /fleet/generate
type GenerateRequest struct {
	ParentAddress string `json:"parentAddress" binding:"required"`
	Signature     string `json:"signature" binding:"required"` // base64 of the parent wallet's authorization signature
}

// GenerateResponse represents response for POST /fleet/generate
type GenerateResponse struct {
	Success         bool     `json:"success"`
	Message         string   `json:"message"`
	TreasuryAddress string   `json:"treasuryAddress,omitempty"`
	Addresses       []string `json:"addresses,omitempty"`
	QR              string   `json:"qr,omitempty"` // base64 PNG of the treasury address
}

// ImportRequest represents request for POST /fleet/import
type ImportRequest struct {
	Vault string `json:"vault" binding:"required"` // base64 of the .fvt file bytes
}

// FundRequest represents request for POST /fleet/fund
type FundRequest struct {
	TotalBudget string `json:"totalBudget" binding:"required"` // SOL, decimal string
	Count       int    `json:"count" binding:"required"`
	Mode        string `json:"mode" binding:"required"` // "uniform" or "random"
	MinAmount   string `json:"minAmount,omitempty"`
	MaxAmount   string `json:"maxAmount,omitempty"`
}

// FundResponse represents response for POST /fleet/fund
type FundResponse struct {
	Started      bool   `json:"started"`
	TotalBatches int    `json:"totalBatches"`
	TotalAmount  string `json:"totalAmount"`
	EstimatedFee string `json:"estimatedFee"`
}

// RefreshResponse represents response for POST /fleet/refresh
type RefreshResponse struct {
	Accounts []AccountView `json:"accounts"`
	Failed   int           `json:"failed"` // accounts whose balance read failed this wave
}

// AccountsResponse represents response for GET /fleet/accounts
type AccountsResponse struct {
	TreasuryAddress string        `json:"treasuryAddress"`
	Accounts        []AccountView `json:"accounts"`
}

// TokenInfo represents response for GET /fleet/token
type TokenInfo struct {
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	Address string `json:"address"`
}
