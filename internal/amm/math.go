package amm

import "math/big"

// MinLiquidity is the share quantity permanently assigned to the zero address
// on a pool's first deposit.
const MinLiquidity = 1000

// Swap fee is 0.3%: effective input multiplier 997/1000.
const (
	feeNumerator   = 997
	feeDenominator = 1000
)

// maxSwapPercent caps a single swap's output at 90% of the output reserve.
const maxSwapPercent = 90

var (
	bigMinLiquidity   = big.NewInt(MinLiquidity)
	bigFeeNumerator   = big.NewInt(feeNumerator)
	bigFeeDenominator = big.NewInt(feeDenominator)
	bigMaxSwapPercent = big.NewInt(maxSwapPercent)
	bigHundred        = big.NewInt(100)

	// pricePrecision scales spot prices and oracle accumulators (1e18).
	pricePrecision = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

// GetAmountOut returns the fee-adjusted constant-product output for amountIn
// against the given reserves. Floor division throughout; the result never
// rounds up, which is what keeps the reserve product non-decreasing.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}

	amountInWithFee := new(big.Int).Mul(amountIn, bigFeeNumerator)
	numerator := new(big.Int).Mul(reserveOut, amountInWithFee)
	denominator := new(big.Int).Mul(reserveIn, bigFeeDenominator)
	denominator.Add(denominator, amountInWithFee)

	return numerator.Div(numerator, denominator), nil
}

// GetAmountIn returns the smallest input that yields at least amountOut
// against the given reserves.
func GetAmountIn(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}

	numerator := new(big.Int).Mul(reserveIn, amountOut)
	numerator.Mul(numerator, bigFeeDenominator)
	denominator := new(big.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, bigFeeNumerator)

	amountIn := numerator.Div(numerator, denominator)
	return amountIn.Add(amountIn, big.NewInt(1)), nil
}

// SpotPrice returns the instantaneous price of the asset backing reserve,
// quoted in the other asset and scaled by 1e18. Manipulable within a single
// time unit; oracle consumers must use TWAP instead.
func SpotPrice(reserve, reserveOther *big.Int) (*big.Int, error) {
	if reserve == nil || reserveOther == nil || reserve.Sign() <= 0 || reserveOther.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	price := new(big.Int).Mul(reserveOther, pricePrecision)
	return price.Div(price, reserve), nil
}

// firstDepositShares returns the total share mint for a first deposit:
// floor(sqrt(amountA*amountB)), which must clear MinLiquidity strictly.
func firstDepositShares(amountA, amountB *big.Int) (*big.Int, error) {
	product := new(big.Int).Mul(amountA, amountB)
	minted := product.Sqrt(product)
	if minted.Cmp(bigMinLiquidity) <= 0 {
		return nil, ErrInsufficientInitialLiquidity
	}
	return minted, nil
}

// depositShares returns the share mint for a follow-on deposit: the tighter of
// the two reserve ratios, so a skewed deposit cannot mint disproportionately.
func depositShares(amountA, amountB, reserveA, reserveB, totalShares *big.Int) *big.Int {
	sharesA := new(big.Int).Mul(amountA, totalShares)
	sharesA.Div(sharesA, reserveA)
	sharesB := new(big.Int).Mul(amountB, totalShares)
	sharesB.Div(sharesB, reserveB)
	if sharesA.Cmp(sharesB) < 0 {
		return sharesA
	}
	return sharesB
}

// withdrawalAmounts returns the proportional payout for burning shares,
// computed against unmutated reserves.
func withdrawalAmounts(shares, reserveA, reserveB, totalShares *big.Int) (*big.Int, *big.Int) {
	amountA := new(big.Int).Mul(shares, reserveA)
	amountA.Div(amountA, totalShares)
	amountB := new(big.Int).Mul(shares, reserveB)
	amountB.Div(amountB, totalShares)
	return amountA, amountB
}

// maxSwapOutput returns the largest single-swap output the pool allows for
// the given output reserve.
func maxSwapOutput(reserveOut *big.Int) *big.Int {
	limit := new(big.Int).Mul(reserveOut, bigMaxSwapPercent)
	return limit.Div(limit, bigHundred)
}
