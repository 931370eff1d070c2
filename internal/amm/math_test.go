package amm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAmountOut(t *testing.T) {
	tests := []struct {
		name       string
		amountIn   int64
		reserveIn  int64
		reserveOut int64
		want       int64
	}{
		{"balanced pool", 1000, 10000, 10000, 906},
		{"after prior swap", 1000, 11000, 9094, 755},
		{"dust floors to zero", 1, 10000, 10000, 0},
		{"large swap", 100000, 10000, 10000, 9088},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := GetAmountOut(big.NewInt(tc.amountIn), big.NewInt(tc.reserveIn), big.NewInt(tc.reserveOut))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Int64())
		})
	}
}

func TestGetAmountOutErrors(t *testing.T) {
	reserve := big.NewInt(10000)

	tests := []struct {
		name       string
		amountIn   *big.Int
		reserveIn  *big.Int
		reserveOut *big.Int
		wantErr    error
	}{
		{"nil amount", nil, reserve, reserve, ErrInvalidAmount},
		{"zero amount", big.NewInt(0), reserve, reserve, ErrInvalidAmount},
		{"negative amount", big.NewInt(-5), reserve, reserve, ErrInvalidAmount},
		{"nil reserve in", big.NewInt(100), nil, reserve, ErrInsufficientLiquidity},
		{"zero reserve in", big.NewInt(100), big.NewInt(0), reserve, ErrInsufficientLiquidity},
		{"zero reserve out", big.NewInt(100), reserve, big.NewInt(0), ErrInsufficientLiquidity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GetAmountOut(tc.amountIn, tc.reserveIn, tc.reserveOut)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestGetAmountIn(t *testing.T) {
	amountIn, err := GetAmountIn(big.NewInt(906), big.NewInt(10000), big.NewInt(10000))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), amountIn.Int64())

	// demanding the entire output reserve is unfillable
	_, err = GetAmountIn(big.NewInt(10000), big.NewInt(10000), big.NewInt(10000))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = GetAmountIn(big.NewInt(0), big.NewInt(10000), big.NewInt(10000))
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestGetAmountInCoversTarget(t *testing.T) {
	reserveIn := big.NewInt(10000)
	reserveOut := big.NewInt(10000)

	for _, target := range []int64{1, 50, 100, 906, 4000} {
		amountIn, err := GetAmountIn(big.NewInt(target), reserveIn, reserveOut)
		require.NoError(t, err)

		amountOut, err := GetAmountOut(amountIn, reserveIn, reserveOut)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, amountOut.Int64(), target, "input %s falls short of target", amountIn)
	}
}

func TestSpotPrice(t *testing.T) {
	price, err := SpotPrice(big.NewInt(10000), big.NewInt(10000))
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", price.String())

	price, err = SpotPrice(big.NewInt(2000), big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, "500000000000000000", price.String())

	_, err = SpotPrice(big.NewInt(0), big.NewInt(1000))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = SpotPrice(big.NewInt(1000), nil)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestFirstDepositShares(t *testing.T) {
	minted, err := firstDepositShares(big.NewInt(10000), big.NewInt(10000))
	require.NoError(t, err)
	assert.Equal(t, int64(10000), minted.Int64())

	minted, err = firstDepositShares(big.NewInt(1001), big.NewInt(1001))
	require.NoError(t, err)
	assert.Equal(t, int64(1001), minted.Int64())

	// a root exactly at MinLiquidity leaves the caller nothing
	_, err = firstDepositShares(big.NewInt(1000), big.NewInt(1000))
	require.ErrorIs(t, err, ErrInsufficientInitialLiquidity)
}

func TestMaxSwapOutput(t *testing.T) {
	assert.Equal(t, int64(9000), maxSwapOutput(big.NewInt(10000)).Int64())
	assert.Equal(t, int64(90), maxSwapOutput(big.NewInt(100)).Int64())
}
