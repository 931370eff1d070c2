package ledger

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// balanceKey identifies one account's balance of one asset.
type balanceKey struct {
	asset   common.Address
	account common.Address
}

// allowanceKey identifies one owner-to-spender allowance of one asset.
type allowanceKey struct {
	asset   common.Address
	owner   common.Address
	spender common.Address
}

// Transfer describes one applied balance movement, as observed by hooks.
type Transfer struct {
	Asset  common.Address
	From   common.Address
	To     common.Address
	Amount *big.Int
}

// undoEntry records the prior value of a single balance or allowance slot.
// A nil prev means the slot was absent.
type undoEntry struct {
	balance   *balanceKey
	allowance *allowanceKey
	prev      *big.Int
}

// revision marks a snapshot boundary in the undo journal.
type revision struct {
	id           int
	journalIndex int
}

// Book is an in-memory fungible asset ledger with allowances and a
// snapshot/revert journal. State is held in flat composite-key maps. The
// mutex covers concurrent reads from tests and the metrics endpoint; pool
// operations themselves are single-writer.
type Book struct {
	mu         sync.Mutex
	balances   map[balanceKey]*big.Int
	allowances map[allowanceKey]*big.Int

	journal   []undoEntry
	revisions []revision
	nextRevID int

	// hook fires after each applied transfer, outside the lock. It is the
	// reentrancy surface a hostile asset would use.
	hook func(Transfer)
}

// NewBook returns an empty ledger.
func NewBook() *Book {
	return &Book{
		balances:   make(map[balanceKey]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
	}
}

// SetTransferHook installs a callback invoked after every applied transfer.
// Passing nil removes it.
func (b *Book) SetTransferHook(hook func(Transfer)) {
	b.mu.Lock()
	b.hook = hook
	b.mu.Unlock()
}

// Mint credits newly issued units of asset to an account.
func (b *Book) Mint(asset, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := balanceKey{asset: asset, account: to}
	balance := new(big.Int).Add(b.currentBalance(key), amount)
	b.setBalance(key, balance)
	return nil
}

// Approve records an absolute allowance from owner to spender.
func (b *Book) Approve(asset, owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.setAllowance(allowanceKey{asset: asset, owner: owner, spender: spender}, new(big.Int).Set(amount))
	return nil
}

// Allowance reports the remaining allowance from owner to spender.
func (b *Book) Allowance(asset, owner, spender common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := allowanceKey{asset: asset, owner: owner, spender: spender}
	if allowance, ok := b.allowances[key]; ok {
		return new(big.Int).Set(allowance)
	}
	return new(big.Int)
}

// Transfer moves amount of asset between accounts.
func (b *Book) Transfer(asset, from, to common.Address, amount *big.Int) error {
	b.mu.Lock()
	err := b.move(asset, from, to, amount)
	hook := b.hook
	b.mu.Unlock()

	if err != nil {
		return err
	}
	if hook != nil {
		hook(Transfer{Asset: asset, From: from, To: to, Amount: new(big.Int).Set(amount)})
	}
	return nil
}

// TransferFrom moves amount on behalf of spender, consuming allowance.
func (b *Book) TransferFrom(asset, spender, from, to common.Address, amount *big.Int) error {
	b.mu.Lock()
	err := b.moveFrom(asset, spender, from, to, amount)
	hook := b.hook
	b.mu.Unlock()

	if err != nil {
		return err
	}
	if hook != nil {
		hook(Transfer{Asset: asset, From: from, To: to, Amount: new(big.Int).Set(amount)})
	}
	return nil
}

// BalanceOf reports the current balance of an account.
func (b *Book) BalanceOf(asset, account common.Address) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return new(big.Int).Set(b.currentBalance(balanceKey{asset: asset, account: account})), nil
}

// Snapshot marks the current state and returns a revision id.
func (b *Book) Snapshot() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextRevID
	b.nextRevID++
	b.revisions = append(b.revisions, revision{id: id, journalIndex: len(b.journal)})
	return id
}

// Finalise drops the undo journal and every outstanding revision. Called
// between operations once their effects are final; any revision id taken
// before the call can no longer be reverted.
func (b *Book) Finalise() {
	b.mu.Lock()
	b.journal = b.journal[:0]
	b.revisions = b.revisions[:0]
	b.mu.Unlock()
}

// RevertToSnapshot unwinds every change made since the given revision. An
// unknown or already-reverted id is a programmer error.
func (b *Book) RevertToSnapshot(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := -1
	for i := len(b.revisions) - 1; i >= 0; i-- {
		if b.revisions[i].id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		panic(fmt.Errorf("revision id %d cannot be reverted", id))
	}

	mark := b.revisions[idx].journalIndex
	for i := len(b.journal) - 1; i >= mark; i-- {
		entry := b.journal[i]
		switch {
		case entry.balance != nil:
			if entry.prev == nil {
				delete(b.balances, *entry.balance)
			} else {
				b.balances[*entry.balance] = entry.prev
			}
		case entry.allowance != nil:
			if entry.prev == nil {
				delete(b.allowances, *entry.allowance)
			} else {
				b.allowances[*entry.allowance] = entry.prev
			}
		}
	}
	b.journal = b.journal[:mark]
	b.revisions = b.revisions[:idx]
}

func (b *Book) move(asset, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	fromKey := balanceKey{asset: asset, account: from}
	fromBalance := b.currentBalance(fromKey)
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, fromBalance, amount)
	}

	toKey := balanceKey{asset: asset, account: to}
	b.setBalance(fromKey, new(big.Int).Sub(fromBalance, amount))
	b.setBalance(toKey, new(big.Int).Add(b.currentBalance(toKey), amount))
	return nil
}

func (b *Book) moveFrom(asset, spender, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	key := allowanceKey{asset: asset, owner: from, spender: spender}
	allowance, ok := b.allowances[key]
	if !ok || allowance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: spender %s", ErrInsufficientAllowance, spender)
	}

	if err := b.move(asset, from, to, amount); err != nil {
		return err
	}
	b.setAllowance(key, new(big.Int).Sub(allowance, amount))
	return nil
}

// currentBalance returns the live balance value for key; never nil. The
// returned value must not be mutated.
func (b *Book) currentBalance(key balanceKey) *big.Int {
	if balance, ok := b.balances[key]; ok {
		return balance
	}
	return new(big.Int)
}

func (b *Book) setBalance(key balanceKey, value *big.Int) {
	var prev *big.Int
	if current, ok := b.balances[key]; ok {
		prev = current
	}
	b.journal = append(b.journal, undoEntry{balance: &key, prev: prev})
	b.balances[key] = value
}

func (b *Book) setAllowance(key allowanceKey, value *big.Int) {
	var prev *big.Int
	if current, ok := b.allowances[key]; ok {
		prev = current
	}
	b.journal = append(b.journal, undoEntry{allowance: &key, prev: prev})
	b.allowances[key] = value
}
