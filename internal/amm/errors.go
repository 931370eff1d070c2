package amm

import "errors"

var (
	// ErrInvalidAmount is returned when an input quantity is nil, zero, or negative.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidToken is returned when an asset is not part of the pool's pair.
	ErrInvalidToken = errors.New("invalid token")
	// ErrSlippageExceeded is returned when a computed amount violates the caller's stated minimum.
	ErrSlippageExceeded = errors.New("slippage exceeded")
	// ErrInsufficientLiquidity is returned when pool reserves preclude the requested operation.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrInsufficientInitialLiquidity is returned when a first deposit would not clear the dead-share minimum.
	ErrInsufficientInitialLiquidity = errors.New("insufficient initial liquidity")
	// ErrTransferFailed is returned when a ledger call fails; the operation rolls back completely.
	ErrTransferFailed = errors.New("transfer failed")
	// ErrInvariantViolated is returned when the post-swap balance product falls below the pre-swap
	// reserve product. It signals a defect, not a bad input.
	ErrInvariantViolated = errors.New("invariant violated")
	// ErrDeadlineExpired is returned when the caller-supplied deadline has passed at entry.
	ErrDeadlineExpired = errors.New("deadline expired")
	// ErrReentrantCall is returned when a state-changing call re-enters an in-flight pool.
	ErrReentrantCall = errors.New("reentrant call")
	// ErrZeroMint is returned when a deposit would mint zero shares.
	ErrZeroMint = errors.New("zero shares minted")
	// ErrZeroBurn is returned when a withdrawal would pay out zero of either asset.
	ErrZeroBurn = errors.New("zero amount withdrawn")
	// ErrInsufficientOutput is returned when a swap output is zero or would drain the output reserve.
	ErrInsufficientOutput = errors.New("insufficient output")
	// ErrPoolExists is returned when creating a pool for a pair that already has one.
	ErrPoolExists = errors.New("pool already exists")
	// ErrPoolNotFound is returned when no pool exists for the requested pair.
	ErrPoolNotFound = errors.New("pool not found")
)
