package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fleetd/internal/model"
)

const (
	coingeckoAPI = "https://api.coingecko.com/api/v3"
)

// CoinGeckoClient client for CoinGecko API
type CoinGeckoClient struct {
	baseURL string
	client  *http.Client
}

// NewCoinGeckoClient creates a new CoinGecko client
func NewCoinGeckoClient() *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL: coingeckoAPI,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// contractResponse response from CoinGecko contract lookup
type contractResponse struct {
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	ContractAddress string `json:"contract_address"`
}

// LookupToken resolves a Solana mint address (or a birdeye/dexscreener
// URL containing one) to its listed name and symbol.
func (c *CoinGeckoClient) LookupToken(ctx context.Context, query string) (*model.TokenInfo, error) {
	mint := extractMint(query)
	if mint == "" {
		return nil, fmt.Errorf("empty token query")
	}

	url := fmt.Sprintf("%s/coins/solana/contract/%s", c.baseURL, mint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, model.ErrTokenNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to look up token: status %d", resp.StatusCode)
	}

	var contract contractResponse
	if err := json.NewDecoder(resp.Body).Decode(&contract); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	return &model.TokenInfo{
		Name:    contract.Name,
		Symbol:  strings.ToUpper(contract.Symbol),
		Address: contract.ContractAddress,
	}, nil
}

// extractMint reduces a pasted explorer URL to its trailing mint
// address; a bare mint passes through unchanged.
func extractMint(query string) string {
	query = strings.TrimSpace(query)
	if i := strings.Index(query, "?"); i >= 0 {
		query = query[:i]
	}
	query = strings.TrimSuffix(query, "/")
	if i := strings.LastIndex(query, "/"); i >= 0 {
		query = query[i+1:]
	}
	return query
}
