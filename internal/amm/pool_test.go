package amm

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xykpool/internal/ledger"
)

const testStart = 1_000_000

var (
	poolAssetA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	poolAssetB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	alice      = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	bob        = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

type testClock struct {
	unix int64
}

func (c *testClock) now() time.Time {
	return time.Unix(c.unix, 0).UTC()
}

func newTestPool(t *testing.T) (*Pool, *ledger.Book, *testClock) {
	t.Helper()
	book := ledger.NewBook()
	clock := &testClock{unix: testStart}
	pool := NewPool(poolAssetA, poolAssetB, PoolAccount(poolAssetA, poolAssetB), book, clock.now)
	return pool, book, clock
}

// fund mints amount of asset to owner and approves the pool to pull it.
func fund(t *testing.T, book *ledger.Book, pool *Pool, asset, owner common.Address, amount int64) {
	t.Helper()
	require.NoError(t, book.Mint(asset, owner, big.NewInt(amount)))
	require.NoError(t, book.Approve(asset, owner, pool.Account(), big.NewInt(amount)))
}

// seedPool makes the canonical first deposit of 10000/10000 by alice.
func seedPool(t *testing.T, pool *Pool, book *ledger.Book) {
	t.Helper()
	fund(t, book, pool, poolAssetA, alice, 10000)
	fund(t, book, pool, poolAssetB, alice, 10000)
	shares, err := pool.AddLiquidity(alice, big.NewInt(10000), big.NewInt(10000), nil, 0)
	require.NoError(t, err)
	require.Equal(t, int64(9000), shares.Int64())
}

func reserves(t *testing.T, pool *Pool) (int64, int64) {
	t.Helper()
	reserveA, reserveB, _ := pool.Reserves()
	return reserveA.Int64(), reserveB.Int64()
}

func balance(t *testing.T, book *ledger.Book, asset, account common.Address) int64 {
	t.Helper()
	value, err := book.BalanceOf(asset, account)
	require.NoError(t, err)
	return value.Int64()
}

func TestPoolFirstDeposit(t *testing.T) {
	pool, book, _ := newTestPool(t)
	seedPool(t, pool, book)

	assert.Equal(t, int64(10000), pool.TotalShares().Int64())
	assert.Equal(t, int64(9000), pool.SharesOf(alice).Int64())
	assert.Equal(t, int64(MinLiquidity), pool.SharesOf(common.Address{}).Int64())

	reserveA, reserveB := reserves(t, pool)
	assert.Equal(t, int64(10000), reserveA)
	assert.Equal(t, int64(10000), reserveB)

	assert.Equal(t, int64(10000), balance(t, book, poolAssetA, pool.Account()))
	assert.Equal(t, int64(10000), balance(t, book, poolAssetB, pool.Account()))
	assert.Equal(t, int64(0), balance(t, book, poolAssetA, alice))
	assert.Equal(t, int64(0), balance(t, book, poolAssetB, alice))
}

func TestPoolFirstDepositBelowMinimum(t *testing.T) {
	pool, book, _ := newTestPool(t)
	fund(t, book, pool, poolAssetA, alice, 1000)
	fund(t, book, pool, poolAssetB, alice, 1000)

	_, err := pool.AddLiquidity(alice, big.NewInt(1000), big.NewInt(1000), nil, 0)
	require.ErrorIs(t, err, ErrInsufficientInitialLiquidity)

	assert.Equal(t, int64(0), pool.TotalShares().Int64())
	assert.Equal(t, int64(1000), balance(t, book, poolAssetA, alice))
}

func TestPoolFirstDepositJustAboveMinimum(t *testing.T) {
	pool, book, _ := newTestPool(t)
	fund(t, book, pool, poolAssetA, alice, 1001)
	fund(t, book, pool, poolAssetB, alice, 1001)

	shares, err := pool.AddLiquidity(alice, big.NewInt(1001), big.NewInt(1001), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), shares.Int64())
	assert.Equal(t, int64(1001), pool.TotalShares().Int64())
}

func TestPoolFollowOnDeposit(t *testing.T) {
	pool, book, _ := newTestPool(t)
	seedPool(t, pool, book)

	fund(t, book, pool, poolAssetA, bob, 5000)
	fund(t, book, pool, poolAssetB, bob, 5000)
	shares, err := pool.AddLiquidity(bob, big.NewInt(5000), big.NewInt(5000), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), shares.Int64())
	assert.Equal(t, int64(15000), pool.TotalShares().Int64())

	reserveA, reserveB := reserves(t, pool)
	assert.Equal(t, int64(15000), reserveA)
	assert.Equal(t, int64(15000), reserveB)
}

func TestPoolSkewedDepositMintsTighterRatio(t *testing.T) {
	pool, book, _ := newTestPool(t)
	seedPool(t, pool, book)

	// both amounts are pulled in full; the surplus asset A is donated
	fund(t, book, pool, poolAssetA, bob, 5000)
	fund(t, book, pool, poolAssetB, bob, 1000)
	shares, err := pool.AddLiquidity(bob, big.NewInt(5000), big.NewInt(1000), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), shares.Int64())
	assert.Equal(t, int64(11000), pool.TotalShares().Int64())

	reserveA, reserveB := reserves(t, pool)
	assert.Equal(t, int64(15000), reserveA)
	assert.Equal(t, int64(11000), reserveB)
}

func TestPoolAddLiquiditySlippage(t *testing.T) {
	pool, book, _ := newTestPool(t)
	seedPool(t, pool, book)

	fund(t, book, pool, poolAssetA, bob, 5000)
	fund(t, book, pool, poolAssetB, bob, 5000)
	_, err := pool.AddLiquidity(bob, big.NewInt(5000), big.NewInt(5000), big.NewInt(5001), 0)
	require.ErrorIs(t, err, ErrSlippageExceeded)

	assert.Equal(t, int64(10000), pool.TotalShares().Int64())
	assert.Equal(t, int64(5000), balance(t, book, poolAssetA, bob))
	assert.Equal(t, int64(5000), balance(t, book, poolAssetB, bob))
}

func TestPoolAddLiquidityInvalidAmounts(t *testing.T) {
	pool, _, _ := newTestPool(t)

	_, err := pool.AddLiquidity(alice, nil, big.NewInt(10), nil, 0)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = pool.AddLiquidity(alice, big.NewInt(10), big.NewInt(0), nil, 0)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = pool.AddLiquidity(alice, big.NewInt(-10), big.NewInt(10), nil, 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestPoolSwap(t *testing.T) {
	pool, book, _ := newTestPool(t)
	seedPool(t, pool, book)

	fund(t, book, pool, poolAssetA, bob, 1000)
	out, err := pool.Swap(bob, poolAssetA, big.NewInt(1000), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(906), out.Int64())

	reserveA, reserveB := reserves(t, pool)
	assert.Equal(t, int64(11000), reserveA)
	assert.Equal(t, int64(9094), reserveB)
	assert.Equal(t, int64(0), balance(t, book, poolAssetA, bob))
	assert.Equal(t, int64(906), balance(t, book, poolAssetB, bob))

	fund(t, book, pool, poolAssetA, bob, 1000)
	out, err = pool.Swap(bob, poolAssetA, big.NewInt(1000), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(755), out.Int64())

	reserveA, reserveB = reserves(t, pool)
	assert.Equal(t, int64(12000), reserveA)
	assert.Equal(t, int64(8339), reserveB)
}

func TestPoolSwapMinOut(t *testing.T) {
	pool, book, _ := newTestPool(t)
	seedPool(t, pool, book)

	fund(t, book, pool, poolAssetA, bob, 1000)
	_, err := pool.Swap(bob, poolAssetA, big.NewInt(1000), big.NewInt(907), 0)
	require.ErrorIs(t, err, ErrSlippageExceeded)

	reserveA, reserveB := reserves(t, pool)
	assert.Equal(t, int64(10000), reserveA)
	assert.Equal(t, int64(10000), reserveB)
	assert.Equal(t, int64(1000), balance(t, book, poolAssetA, bob))
}

func TestPoolSwapOutputCap(t *testing.T) {
	pool, book, _ := newTestPool(t)
	seedPool(t, pool, book)

	// 100000 in would buy 9088 out, past the 90% ceiling of 9000
	fund(t, book, pool, poolAssetA, bob, 100000)
	_, err := pool.Swap(bob, poolAssetA, big.NewInt(100000), nil, 0)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	reserveA, reserveB := reserves(t, pool)
	assert.Equal(t, int64(10000), reserveA)
	assert.Equal(t, int64(10000), reserveB)
}

func TestPoolSwapRejectsUnknownAsset(t *testing.T) {
	pool, book, _ := newTestPool(t)
	seedPool(t, pool, book)

	_, err := pool.Swap(bob, common.HexToAddress("0x00000000000000000000000000000000000000cc"), big.NewInt(1000), nil, 0)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPoolSwapZeroOutput(t *testing.T) {
	pool, book, _ := newTestPool(t)
	seedPool(t, pool, book)

	fund(t, book, pool, poolAssetA, bob, 1)
	_, err := pool.Swap(bob, poolAssetA, big.NewInt(1), nil, 0)
	require.ErrorIs(t, err, ErrInsufficientOutput)
}

func TestPoolDeadlines(t *testing.T) {
	pool, book, clock := newTestPool(t)
	seedPool(t, pool, book)

	fund(t, book, pool, poolAssetA, bob, 1000)
	_, err := pool.Swap(bob, poolAssetA, big.NewInt(1000), nil, uint64(clock.unix-1))
	require.ErrorIs(t, err, ErrDeadlineExpired)

	// a deadline equal to the current time is still live; zero disables the check
	out, err := pool.Swap(bob, poolAssetA, big.NewInt(1000), nil, uint64(clock.unix))
	require.NoError(t, err)
	assert.Equal(t, int64(906), out.Int64())

	_, err = pool.AddLiquidity(alice, big.NewInt(10), big.NewInt(10), nil, uint64(clock.unix-1))
	require.ErrorIs(t, err, ErrDeadlineExpired)

	_, _, err = pool.RemoveLiquidity(alice, big.NewInt(1000), nil, nil, uint64(clock.unix-1))
	require.ErrorIs(t, err, ErrDeadlineExpired)
}

func TestPoolRemoveLiquidity(t *testing.T) {
	pool, book, _ := newTestPool(t)
	seedPool(t, pool, book)

	fund(t, book, pool, poolAssetA, bob, 1000)
	_, err := pool.Swap(bob, poolAssetA, big.NewInt(1000), nil, 0)
	require.NoError(t, err)

	amountA, amountB, err := pool.RemoveLiquidity(alice, big.NewInt(1000), nil, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), amountA.Int64())
	assert.Equal(t, int64(909), amountB.Int64())

	reserveA, reserveB := reserves(t, pool)
	assert.Equal(t, int64(9900), reserveA)
	assert.Equal(t, int64(8185), reserveB)
	assert.Equal(t, int64(9000), pool.TotalShares().Int64())
	assert.Equal(t, int64(8000), pool.SharesOf(alice).Int64())
	assert.Equal(t, int64(1100), balance(t, book, poolAssetA, alice))
	assert.Equal(t, int64(909), balance(t, book, poolAssetB, alice))
}

func TestPoolRemoveAllLeavesDeadShares(t *testing.T) {
	pool, book, _ := newTestPool(t)
	seedPool(t, pool, book)

	amountA, amountB, err := pool.RemoveLiquidity(alice, big.NewInt(9000), nil, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(9000), amountA.Int64())
	assert.Equal(t, int64(9000), amountB.Int64())

	assert.Equal(t, int64(MinLiquidity), pool.TotalShares().Int64())
	assert.Equal(t, int64(0), pool.SharesOf(alice).Int64())

	reserveA, reserveB := reserves(t, pool)
	assert.Equal(t, int64(1000), reserveA)
	assert.Equal(t, int64(1000), reserveB)
}

func TestPoolRemoveLiquidityValidations(t *testing.T) {
	pool, book, _ := newTestPool(t)
	seedPool(t, pool, book)

	_, _, err := pool.RemoveLiquidity(alice, big.NewInt(9001), nil, nil, 0)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, _, err = pool.RemoveLiquidity(bob, big.NewInt(1), nil, nil, 0)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, _, err = pool.RemoveLiquidity(alice, big.NewInt(0), nil, nil, 0)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, _, err = pool.RemoveLiquidity(alice, big.NewInt(1000), big.NewInt(1001), nil, 0)
	require.ErrorIs(t, err, ErrSlippageExceeded)

	assert.Equal(t, int64(10000), pool.TotalShares().Int64())
	reserveA, reserveB := reserves(t, pool)
	assert.Equal(t, int64(10000), reserveA)
	assert.Equal(t, int64(10000), reserveB)
}

func TestPoolZeroMintAndZeroBurn(t *testing.T) {
	pool, book, _ := newTestPool(t)
	fund(t, book, pool, poolAssetA, alice, 40000)
	fund(t, book, pool, poolAssetB, alice, 250)
	shares, err := pool.AddLiquidity(alice, big.NewInt(40000), big.NewInt(250), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2162), shares.Int64())

	fund(t, book, pool, poolAssetA, bob, 1)
	fund(t, book, pool, poolAssetB, bob, 1)
	_, err = pool.AddLiquidity(bob, big.NewInt(1), big.NewInt(1), nil, 0)
	require.ErrorIs(t, err, ErrZeroMint)

	// one share of the scarce side pays out zero
	_, _, err = pool.RemoveLiquidity(alice, big.NewInt(1), nil, nil, 0)
	require.ErrorIs(t, err, ErrZeroBurn)
}

func TestPoolRoundTripNeverProfits(t *testing.T) {
	pool, book, _ := newTestPool(t)
	seedPool(t, pool, book)

	fund(t, book, pool, poolAssetA, bob, 3334)
	fund(t, book, pool, poolAssetB, bob, 3333)
	shares, err := pool.AddLiquidity(bob, big.NewInt(3334), big.NewInt(3333), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3333), shares.Int64())

	amountA, amountB, err := pool.RemoveLiquidity(bob, shares, nil, nil, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, amountA.Int64(), int64(3334))
	assert.LessOrEqual(t, amountB.Int64(), int64(3333))
	assert.LessOrEqual(t, balance(t, book, poolAssetA, bob), int64(3334))
	assert.LessOrEqual(t, balance(t, book, poolAssetB, bob), int64(3333))
}

func TestPoolSwapTransferFailureRollsBack(t *testing.T) {
	pool, book, clock := newTestPool(t)
	seedPool(t, pool, book)

	clock.unix += 60
	fund(t, book, pool, poolAssetA, bob, 1000)
	_, err := pool.Swap(bob, poolAssetA, big.NewInt(1000), nil, 0)
	require.NoError(t, err)
	before := pool.Observe()

	// minted but never approved, so the pull fails mid-operation
	clock.unix += 40
	require.NoError(t, book.Mint(poolAssetA, bob, big.NewInt(500)))
	_, err = pool.Swap(bob, poolAssetA, big.NewInt(500), nil, 0)
	require.ErrorIs(t, err, ErrTransferFailed)

	reserveA, reserveB := reserves(t, pool)
	assert.Equal(t, int64(11000), reserveA)
	assert.Equal(t, int64(9094), reserveB)
	assert.Equal(t, int64(500), balance(t, book, poolAssetA, bob))

	after := pool.Observe()
	assert.Equal(t, before.Timestamp, after.Timestamp)
	assert.Equal(t, before.PriceACumulative.String(), after.PriceACumulative.String())
	assert.Equal(t, before.PriceBCumulative.String(), after.PriceBCumulative.String())
}

func TestPoolAddLiquidityPartialTransferRollsBack(t *testing.T) {
	pool, book, _ := newTestPool(t)
	require.NoError(t, book.Mint(poolAssetA, alice, big.NewInt(10000)))
	require.NoError(t, book.Approve(poolAssetA, alice, pool.Account(), big.NewInt(10000)))
	require.NoError(t, book.Mint(poolAssetB, alice, big.NewInt(10000)))

	// asset A is pulled first and must come back when the B pull fails
	_, err := pool.AddLiquidity(alice, big.NewInt(10000), big.NewInt(10000), nil, 0)
	require.ErrorIs(t, err, ErrTransferFailed)

	assert.Equal(t, int64(0), pool.TotalShares().Int64())
	assert.Equal(t, int64(0), pool.SharesOf(alice).Int64())
	assert.Equal(t, int64(0), pool.SharesOf(common.Address{}).Int64())

	reserveA, reserveB := reserves(t, pool)
	assert.Equal(t, int64(0), reserveA)
	assert.Equal(t, int64(0), reserveB)
	assert.Equal(t, int64(10000), balance(t, book, poolAssetA, alice))
	assert.Equal(t, int64(0), balance(t, book, poolAssetA, pool.Account()))
}

func TestPoolReentrancyRejected(t *testing.T) {
	pool, book, _ := newTestPool(t)
	seedPool(t, pool, book)

	fund(t, book, pool, poolAssetA, bob, 1000)

	var innerErr error
	book.SetTransferHook(func(tr ledger.Transfer) {
		if tr.To == pool.Account() {
			_, innerErr = pool.Swap(bob, poolAssetB, big.NewInt(1), nil, 0)
		}
	})

	out, err := pool.Swap(bob, poolAssetA, big.NewInt(1000), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(906), out.Int64())
	require.ErrorIs(t, innerErr, ErrReentrantCall)
}

func TestPoolHostileAssetViolatesInvariant(t *testing.T) {
	pool, book, _ := newTestPool(t)
	seedPool(t, pool, book)

	attacker := common.HexToAddress("0x0000000000000000000000000000000000000bad")
	fund(t, book, pool, poolAssetA, bob, 777)

	// drain the pool's output reserve while its own swap is in flight
	book.SetTransferHook(func(tr ledger.Transfer) {
		if tr.To == pool.Account() && tr.Amount.Int64() == 777 {
			_ = book.Transfer(poolAssetB, pool.Account(), attacker, big.NewInt(3000))
		}
	})

	_, err := pool.Swap(bob, poolAssetA, big.NewInt(777), nil, 0)
	require.ErrorIs(t, err, ErrInvariantViolated)

	reserveA, reserveB := reserves(t, pool)
	assert.Equal(t, int64(10000), reserveA)
	assert.Equal(t, int64(10000), reserveB)
	assert.Equal(t, int64(10000), balance(t, book, poolAssetB, pool.Account()))
	assert.Equal(t, int64(0), balance(t, book, poolAssetB, attacker))
	assert.Equal(t, int64(777), balance(t, book, poolAssetA, bob))
	assert.Equal(t, int64(0), balance(t, book, poolAssetB, bob))
}

func TestPoolSyncAbsorbsDonation(t *testing.T) {
	pool, book, clock := newTestPool(t)
	seedPool(t, pool, book)

	clock.unix += 60
	require.NoError(t, book.Mint(poolAssetA, pool.Account(), big.NewInt(500)))

	reserveA, reserveB := reserves(t, pool)
	assert.Equal(t, int64(10000), reserveA)
	assert.Equal(t, int64(10000), reserveB)

	require.NoError(t, pool.Sync())

	reserveA, reserveB = reserves(t, pool)
	assert.Equal(t, int64(10500), reserveA)
	assert.Equal(t, int64(10000), reserveB)

	// the 60s before the sync accumulate at the pre-donation 1:1 price
	obs := pool.Observe()
	assert.Equal(t, uint64(testStart+60), obs.Timestamp)
	assert.Equal(t, "60000000000000000000", obs.PriceACumulative.String())
	assert.Equal(t, "60000000000000000000", obs.PriceBCumulative.String())

	price, err := pool.SpotPrice(poolAssetA)
	require.NoError(t, err)
	assert.Equal(t, "952380952380952380", price.String())
}

func TestPoolOracleAccumulation(t *testing.T) {
	pool, book, clock := newTestPool(t)
	seedPool(t, pool, book)

	first := pool.Observe()
	assert.Equal(t, uint64(testStart), first.Timestamp)
	assert.Equal(t, "0", first.PriceACumulative.String())

	clock.unix += 60
	fund(t, book, pool, poolAssetA, bob, 1000)
	_, err := pool.Swap(bob, poolAssetA, big.NewInt(1000), nil, 0)
	require.NoError(t, err)

	mid := pool.Observe()
	assert.Equal(t, uint64(testStart+60), mid.Timestamp)
	assert.Equal(t, "60000000000000000000", mid.PriceACumulative.String())
	assert.Equal(t, "60000000000000000000", mid.PriceBCumulative.String())

	priceA, priceB, err := TWAP(first, mid)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", priceA.String())
	assert.Equal(t, "1000000000000000000", priceB.String())

	clock.unix += 40
	require.NoError(t, pool.Sync())

	last := pool.Observe()
	assert.Equal(t, uint64(testStart+100), last.Timestamp)
	assert.Equal(t, "93069090909090909080", last.PriceACumulative.String())
	assert.Equal(t, "108383549593138332960", last.PriceBCumulative.String())

	priceA, priceB, err = TWAP(first, last)
	require.NoError(t, err)
	assert.Equal(t, "930690909090909090", priceA.String())
	assert.Equal(t, "1083835495931383329", priceB.String())
}

func TestPoolSpotPrice(t *testing.T) {
	pool, book, _ := newTestPool(t)

	_, err := pool.SpotPrice(poolAssetA)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	seedPool(t, pool, book)

	price, err := pool.SpotPrice(poolAssetA)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", price.String())

	fund(t, book, pool, poolAssetA, bob, 1000)
	_, err = pool.Swap(bob, poolAssetA, big.NewInt(1000), nil, 0)
	require.NoError(t, err)

	price, err = pool.SpotPrice(poolAssetA)
	require.NoError(t, err)
	assert.Equal(t, "826727272727272727", price.String())

	price, err = pool.SpotPrice(poolAssetB)
	require.NoError(t, err)
	assert.Equal(t, "1209588739828458324", price.String())

	_, err = pool.SpotPrice(common.HexToAddress("0x00000000000000000000000000000000000000cc"))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPoolSwapKeepsProductNonDecreasing(t *testing.T) {
	pool, book, _ := newTestPool(t)
	seedPool(t, pool, book)

	reserveA, reserveB, _ := pool.Reserves()
	product := new(big.Int).Mul(reserveA, reserveB)

	swaps := []struct {
		asset  common.Address
		amount int64
	}{
		{poolAssetA, 1000},
		{poolAssetB, 700},
		{poolAssetA, 2500},
		{poolAssetB, 300},
		{poolAssetA, 50},
	}
	for _, s := range swaps {
		fund(t, book, pool, s.asset, bob, s.amount)
		_, err := pool.Swap(bob, s.asset, big.NewInt(s.amount), nil, 0)
		require.NoError(t, err)

		reserveA, reserveB, _ = pool.Reserves()
		next := new(big.Int).Mul(reserveA, reserveB)
		assert.True(t, next.Cmp(product) >= 0, "product shrank from %s to %s", product, next)
		product = next
	}
}
