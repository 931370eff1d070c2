package amm

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"xykpool/internal/ledger"
)

// Pool is a constant-product liquidity pool over one asset pair. It owns two
// reserve balances on the ledger, mints and burns liquidity shares, and
// executes swaps against the x*y=k invariant. All bookkeeping commits before
// any external ledger transfer; a failed transfer rolls the whole operation
// back. Methods are single-writer; the guard only rejects reentry arriving
// through a ledger transfer hook.
type Pool struct {
	assetA  common.Address
	assetB  common.Address
	account common.Address

	reserveA    *big.Int
	reserveB    *big.Int
	totalShares *big.Int
	shares      map[common.Address]*big.Int

	priceACumulative *big.Int
	priceBCumulative *big.Int
	lastUpdate       uint64

	book   ledger.Ledger
	clock  func() time.Time
	locked bool
}

// NewPool builds an empty pool for the given pair, holding balances under
// account on book. A nil clock defaults to time.Now.
func NewPool(assetA, assetB, account common.Address, book ledger.Ledger, clock func() time.Time) *Pool {
	if clock == nil {
		clock = time.Now
	}
	p := &Pool{
		assetA:           assetA,
		assetB:           assetB,
		account:          account,
		reserveA:         new(big.Int),
		reserveB:         new(big.Int),
		totalShares:      new(big.Int),
		shares:           make(map[common.Address]*big.Int),
		priceACumulative: new(big.Int),
		priceBCumulative: new(big.Int),
		book:             book,
		clock:            clock,
	}
	p.lastUpdate = p.now()
	return p
}

// AddLiquidity deposits amountA and amountB, minting liquidity shares to the
// caller. The first deposit mints floor(sqrt(amountA*amountB)) total shares
// and permanently assigns MinLiquidity of them to the zero address; follow-on
// deposits mint the tighter of the two reserve ratios. Returns the caller's
// minted shares.
func (p *Pool) AddLiquidity(caller common.Address, amountA, amountB, minShares *big.Int, deadline uint64) (*big.Int, error) {
	if err := p.enter(); err != nil {
		return nil, fmt.Errorf("add liquidity: %w", err)
	}
	defer p.exit()

	if amountA == nil || amountA.Sign() <= 0 {
		return nil, fmt.Errorf("add liquidity amount a: %w", ErrInvalidAmount)
	}
	if amountB == nil || amountB.Sign() <= 0 {
		return nil, fmt.Errorf("add liquidity amount b: %w", ErrInvalidAmount)
	}
	if err := p.checkDeadline(deadline); err != nil {
		return nil, fmt.Errorf("add liquidity: %w", err)
	}

	firstDeposit := p.totalShares.Sign() == 0
	var callerShares, minted *big.Int
	if firstDeposit {
		var err error
		minted, err = firstDepositShares(amountA, amountB)
		if err != nil {
			return nil, fmt.Errorf("add liquidity: %w", err)
		}
		callerShares = new(big.Int).Sub(minted, bigMinLiquidity)
	} else {
		callerShares = depositShares(amountA, amountB, p.reserveA, p.reserveB, p.totalShares)
		minted = callerShares
	}

	if minShares != nil && callerShares.Cmp(minShares) < 0 {
		return nil, fmt.Errorf("add liquidity: minted %s below minimum %s: %w", callerShares, minShares, ErrSlippageExceeded)
	}
	if callerShares.Sign() == 0 {
		return nil, fmt.Errorf("add liquidity: %w", ErrZeroMint)
	}

	state := p.captureState()
	p.accumulatePrices(p.now())

	if firstDeposit {
		p.creditShares(common.Address{}, bigMinLiquidity)
	}
	p.creditShares(caller, callerShares)
	p.totalShares.Add(p.totalShares, minted)

	p.reserveA.Add(p.reserveA, amountA)
	p.reserveB.Add(p.reserveB, amountB)

	if err := p.book.TransferFrom(p.assetA, p.account, caller, p.account, amountA); err != nil {
		p.restoreState(state)
		return nil, fmt.Errorf("add liquidity pull asset a: %w: %v", ErrTransferFailed, err)
	}
	if err := p.book.TransferFrom(p.assetB, p.account, caller, p.account, amountB); err != nil {
		p.restoreState(state)
		return nil, fmt.Errorf("add liquidity pull asset b: %w: %v", ErrTransferFailed, err)
	}

	if err := p.syncReserves(); err != nil {
		p.restoreState(state)
		return nil, fmt.Errorf("add liquidity: %w", err)
	}

	return new(big.Int).Set(callerShares), nil
}

// RemoveLiquidity burns the caller's shares and pays out the proportional
// amount of each reserve, computed before any mutation. Returns the two
// payouts.
func (p *Pool) RemoveLiquidity(caller common.Address, shares, minAmountA, minAmountB *big.Int, deadline uint64) (*big.Int, *big.Int, error) {
	if err := p.enter(); err != nil {
		return nil, nil, fmt.Errorf("remove liquidity: %w", err)
	}
	defer p.exit()

	if shares == nil || shares.Sign() <= 0 {
		return nil, nil, fmt.Errorf("remove liquidity shares: %w", ErrInvalidAmount)
	}
	balance, ok := p.shares[caller]
	if !ok || balance.Cmp(shares) < 0 {
		return nil, nil, fmt.Errorf("remove liquidity: share balance below %s: %w", shares, ErrInvalidAmount)
	}
	if err := p.checkDeadline(deadline); err != nil {
		return nil, nil, fmt.Errorf("remove liquidity: %w", err)
	}

	amountA, amountB := withdrawalAmounts(shares, p.reserveA, p.reserveB, p.totalShares)
	if minAmountA != nil && amountA.Cmp(minAmountA) < 0 {
		return nil, nil, fmt.Errorf("remove liquidity: payout a %s below minimum %s: %w", amountA, minAmountA, ErrSlippageExceeded)
	}
	if minAmountB != nil && amountB.Cmp(minAmountB) < 0 {
		return nil, nil, fmt.Errorf("remove liquidity: payout b %s below minimum %s: %w", amountB, minAmountB, ErrSlippageExceeded)
	}
	if amountA.Sign() == 0 || amountB.Sign() == 0 {
		return nil, nil, fmt.Errorf("remove liquidity: %w", ErrZeroBurn)
	}

	state := p.captureState()
	p.accumulatePrices(p.now())

	p.debitShares(caller, shares)
	p.totalShares.Sub(p.totalShares, shares)

	p.reserveA.Sub(p.reserveA, amountA)
	p.reserveB.Sub(p.reserveB, amountB)

	if err := p.book.Transfer(p.assetA, p.account, caller, amountA); err != nil {
		p.restoreState(state)
		return nil, nil, fmt.Errorf("remove liquidity push asset a: %w: %v", ErrTransferFailed, err)
	}
	if err := p.book.Transfer(p.assetB, p.account, caller, amountB); err != nil {
		p.restoreState(state)
		return nil, nil, fmt.Errorf("remove liquidity push asset b: %w: %v", ErrTransferFailed, err)
	}

	return amountA, amountB, nil
}

// Swap trades amountIn of assetIn for the fee-adjusted constant-product
// output of the other asset. After the transfers settle it recomputes the
// balance product from the ledger and aborts with ErrInvariantViolated if it
// fell below the pre-swap reserve product. Returns the output amount.
func (p *Pool) Swap(caller, assetIn common.Address, amountIn, minOut *big.Int, deadline uint64) (*big.Int, error) {
	if err := p.enter(); err != nil {
		return nil, fmt.Errorf("swap: %w", err)
	}
	defer p.exit()

	var reserveIn, reserveOut *big.Int
	var assetOut common.Address
	switch assetIn {
	case p.assetA:
		reserveIn, reserveOut, assetOut = p.reserveA, p.reserveB, p.assetB
	case p.assetB:
		reserveIn, reserveOut, assetOut = p.reserveB, p.reserveA, p.assetA
	default:
		return nil, fmt.Errorf("swap asset %s: %w", assetIn, ErrInvalidToken)
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("swap amount in: %w", ErrInvalidAmount)
	}
	if err := p.checkDeadline(deadline); err != nil {
		return nil, fmt.Errorf("swap: %w", err)
	}

	amountOut, err := GetAmountOut(amountIn, reserveIn, reserveOut)
	if err != nil {
		return nil, fmt.Errorf("swap: %w", err)
	}
	if minOut != nil && amountOut.Cmp(minOut) < 0 {
		return nil, fmt.Errorf("swap: output %s below minimum %s: %w", amountOut, minOut, ErrSlippageExceeded)
	}
	if amountOut.Sign() == 0 || amountOut.Cmp(reserveOut) >= 0 {
		return nil, fmt.Errorf("swap: %w", ErrInsufficientOutput)
	}
	if amountOut.Cmp(maxSwapOutput(reserveOut)) > 0 {
		return nil, fmt.Errorf("swap: output exceeds %d%% of reserve: %w", maxSwapPercent, ErrInsufficientLiquidity)
	}

	preProduct := new(big.Int).Mul(p.reserveA, p.reserveB)

	state := p.captureState()
	p.accumulatePrices(p.now())

	reserveIn.Add(reserveIn, amountIn)
	reserveOut.Sub(reserveOut, amountOut)

	if err := p.book.TransferFrom(assetIn, p.account, caller, p.account, amountIn); err != nil {
		p.restoreState(state)
		return nil, fmt.Errorf("swap pull: %w: %v", ErrTransferFailed, err)
	}
	if err := p.book.Transfer(assetOut, p.account, caller, amountOut); err != nil {
		p.restoreState(state)
		return nil, fmt.Errorf("swap push: %w: %v", ErrTransferFailed, err)
	}

	balanceA, balanceB, err := p.poolBalances()
	if err != nil {
		p.restoreState(state)
		return nil, fmt.Errorf("swap: %w", err)
	}
	product := new(big.Int).Mul(balanceA, balanceB)
	if product.Cmp(preProduct) < 0 {
		p.restoreState(state)
		return nil, fmt.Errorf("swap: product %s below %s: %w", product, preProduct, ErrInvariantViolated)
	}

	return amountOut, nil
}

// Sync resets both reserves to the ledger-reported balances of the pool
// account, absorbing direct transfers made outside add-liquidity.
func (p *Pool) Sync() error {
	if err := p.enter(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	defer p.exit()

	balanceA, balanceB, err := p.poolBalances()
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	p.accumulatePrices(p.now())
	p.reserveA = balanceA
	p.reserveB = balanceB
	return nil
}

// Assets returns the pool pair in canonical order.
func (p *Pool) Assets() (common.Address, common.Address) {
	return p.assetA, p.assetB
}

// Account returns the pool's own ledger account.
func (p *Pool) Account() common.Address {
	return p.account
}

// Reserves returns copies of both reserves and the last oracle update time.
func (p *Pool) Reserves() (*big.Int, *big.Int, uint64) {
	return new(big.Int).Set(p.reserveA), new(big.Int).Set(p.reserveB), p.lastUpdate
}

// TotalShares returns a copy of the outstanding share total, dead shares
// included.
func (p *Pool) TotalShares() *big.Int {
	return new(big.Int).Set(p.totalShares)
}

// SharesOf returns a copy of the provider's share balance.
func (p *Pool) SharesOf(owner common.Address) *big.Int {
	if balance, ok := p.shares[owner]; ok {
		return new(big.Int).Set(balance)
	}
	return new(big.Int)
}

// Observe captures the current cumulative price accumulators.
func (p *Pool) Observe() Observation {
	return Observation{
		PriceACumulative: new(big.Int).Set(p.priceACumulative),
		PriceBCumulative: new(big.Int).Set(p.priceBCumulative),
		Timestamp:        p.lastUpdate,
	}
}

// SpotPrice returns the instantaneous price of asset quoted in the other pool
// asset, scaled by 1e18.
func (p *Pool) SpotPrice(asset common.Address) (*big.Int, error) {
	switch asset {
	case p.assetA:
		return SpotPrice(p.reserveA, p.reserveB)
	case p.assetB:
		return SpotPrice(p.reserveB, p.reserveA)
	default:
		return nil, fmt.Errorf("spot price asset %s: %w", asset, ErrInvalidToken)
	}
}

func (p *Pool) now() uint64 {
	return uint64(p.clock().Unix())
}

func (p *Pool) checkDeadline(deadline uint64) error {
	if deadline != 0 && p.now() > deadline {
		return ErrDeadlineExpired
	}
	return nil
}

func (p *Pool) creditShares(owner common.Address, amount *big.Int) {
	balance, ok := p.shares[owner]
	if !ok {
		balance = new(big.Int)
		p.shares[owner] = balance
	}
	balance.Add(balance, amount)
}

func (p *Pool) debitShares(owner common.Address, amount *big.Int) {
	balance := p.shares[owner]
	balance.Sub(balance, amount)
	if balance.Sign() == 0 {
		delete(p.shares, owner)
	}
}

// syncReserves sets both reserves to the pool account's ledger balances.
// Callers have already folded elapsed time into the oracle accumulators.
func (p *Pool) syncReserves() error {
	balanceA, balanceB, err := p.poolBalances()
	if err != nil {
		return err
	}
	p.reserveA = balanceA
	p.reserveB = balanceB
	return nil
}

func (p *Pool) poolBalances() (*big.Int, *big.Int, error) {
	balanceA, err := p.book.BalanceOf(p.assetA, p.account)
	if err != nil {
		return nil, nil, fmt.Errorf("balance of asset a: %w: %v", ErrTransferFailed, err)
	}
	balanceB, err := p.book.BalanceOf(p.assetB, p.account)
	if err != nil {
		return nil, nil, fmt.Errorf("balance of asset b: %w: %v", ErrTransferFailed, err)
	}
	return balanceA, balanceB, nil
}

// poolState is a full copy of the pool's mutable fields plus a ledger
// revision, taken before the ordered side effects of an operation begin.
type poolState struct {
	reserveA         *big.Int
	reserveB         *big.Int
	totalShares      *big.Int
	priceACumulative *big.Int
	priceBCumulative *big.Int
	lastUpdate       uint64
	shares           map[common.Address]*big.Int
	ledgerRev        int
}

func (p *Pool) captureState() poolState {
	shares := make(map[common.Address]*big.Int, len(p.shares))
	for owner, balance := range p.shares {
		shares[owner] = new(big.Int).Set(balance)
	}
	return poolState{
		reserveA:         new(big.Int).Set(p.reserveA),
		reserveB:         new(big.Int).Set(p.reserveB),
		totalShares:      new(big.Int).Set(p.totalShares),
		priceACumulative: new(big.Int).Set(p.priceACumulative),
		priceBCumulative: new(big.Int).Set(p.priceBCumulative),
		lastUpdate:       p.lastUpdate,
		shares:           shares,
		ledgerRev:        p.book.Snapshot(),
	}
}

func (p *Pool) restoreState(state poolState) {
	p.reserveA = state.reserveA
	p.reserveB = state.reserveB
	p.totalShares = state.totalShares
	p.priceACumulative = state.priceACumulative
	p.priceBCumulative = state.priceBCumulative
	p.lastUpdate = state.lastUpdate
	p.shares = state.shares
	p.book.RevertToSnapshot(state.ledgerRev)
}
