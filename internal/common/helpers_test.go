package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLamportsToSOL(t *testing.T) {
	assert.Equal(t, "0.024981836", LamportsToSOL(24981836))
	assert.Equal(t, "0.000000000", LamportsToSOL(0))
	assert.Equal(t, "1.000000000", LamportsToSOL(1_000_000_000))
	assert.Equal(t, "2.500000000", LamportsToSOL(2_500_000_000))
}

func TestSOLToLamports(t *testing.T) {
	n, err := SOLToLamports("2.5")
	require.NoError(t, err)
	assert.Equal(t, uint64(2_500_000_000), n)

	n, err = SOLToLamports("0.000005")
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), n)

	n, err = SOLToLamports("3")
	require.NoError(t, err)
	assert.Equal(t, uint64(3_000_000_000), n)
}

func TestSOLToLamportsTruncatesExtraPrecision(t *testing.T) {
	// more than 9 decimals: excess digits are dropped, not rounded
	n, err := SOLToLamports("0.1234567899")
	require.NoError(t, err)
	assert.Equal(t, uint64(123456789), n)
}

func TestParseUnitsErrors(t *testing.T) {
	_, err := ParseUnits("", 9)
	assert.Error(t, err)

	_, err = ParseUnits("1.2.3", 9)
	assert.Error(t, err)

	_, err = ParseUnits("abc", 9)
	assert.Error(t, err)
}

func TestUnitsRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 5000, 999_999_999, 1_000_000_000, 87_654_321_000} {
		parsed, err := ParseUnits(FormatUnits(v, 9), 9)
		require.NoError(t, err)
		assert.Equal(t, v, parsed)
	}
}
