package ledger

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInvalidAmount is returned when a transfer or mint amount is nil, zero, or negative.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientBalance is returned when the sender's balance cannot cover the amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientAllowance is returned when a transferFrom exceeds the recorded allowance.
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Ledger is the fungible asset capability a pool holds its balances on. All
// calls are fallible; a failure must abort the caller's entire operation.
// Snapshot and RevertToSnapshot let the caller unwind partial transfers
// atomically.
type Ledger interface {
	// Transfer moves amount of asset from one account to another.
	Transfer(asset, from, to common.Address, amount *big.Int) error
	// TransferFrom moves amount on behalf of spender, consuming the
	// owner's prior allowance for that spender.
	TransferFrom(asset, spender, from, to common.Address, amount *big.Int) error
	// BalanceOf reports the current balance of an account.
	BalanceOf(asset, account common.Address) (*big.Int, error)
	// Snapshot marks the current state and returns a revision id.
	Snapshot() int
	// RevertToSnapshot unwinds all changes made since the given revision.
	RevertToSnapshot(id int)
}
