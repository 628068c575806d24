package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMint(t *testing.T) {
	const mint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare mint", mint, mint},
		{"surrounding whitespace", "  " + mint + "\n", mint},
		{"birdeye url with query", "https://birdeye.so/token/" + mint + "?chain=solana", mint},
		{"dexscreener url", "https://dexscreener.com/solana/" + mint, mint},
		{"trailing slash", "https://birdeye.so/token/" + mint + "/", mint},
		{"trailing slash and query", "https://birdeye.so/token/" + mint + "/?chain=solana", mint},
		{"empty", "", ""},
		{"only slashes", "https://", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractMint(tc.in))
		})
	}
}
