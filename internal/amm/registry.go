package amm

import (
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"xykpool/internal/ledger"
)

// pairKey is the canonical (ordered) identity of an asset pair.
type pairKey struct {
	assetA common.Address
	assetB common.Address
}

// Registry holds one pool per asset pair and hands each pool the ledger and
// clock it operates with.
type Registry struct {
	book  ledger.Ledger
	clock func() time.Time
	pools map[pairKey]*Pool
}

// NewRegistry builds an empty registry. A nil clock defaults to time.Now.
func NewRegistry(book ledger.Ledger, clock func() time.Time) *Registry {
	if clock == nil {
		clock = time.Now
	}
	return &Registry{
		book:  book,
		clock: clock,
		pools: make(map[pairKey]*Pool),
	}
}

// Create registers a new pool for the pair. The pair is canonicalized, the
// pool account is derived from it, and duplicates are rejected.
func (r *Registry) Create(assetA, assetB common.Address) (*Pool, error) {
	zero := common.Address{}
	if assetA == zero || assetB == zero {
		return nil, fmt.Errorf("create pool: zero asset: %w", ErrInvalidToken)
	}
	if assetA == assetB {
		return nil, fmt.Errorf("create pool: identical assets: %w", ErrInvalidToken)
	}

	key := canonicalPair(assetA, assetB)
	if _, ok := r.pools[key]; ok {
		return nil, fmt.Errorf("create pool %s/%s: %w", key.assetA, key.assetB, ErrPoolExists)
	}

	pool := NewPool(key.assetA, key.assetB, PoolAccount(key.assetA, key.assetB), r.book, r.clock)
	r.pools[key] = pool
	return pool, nil
}

// Get returns the pool for the pair, in either asset order.
func (r *Registry) Get(assetA, assetB common.Address) (*Pool, error) {
	pool, ok := r.pools[canonicalPair(assetA, assetB)]
	if !ok {
		return nil, fmt.Errorf("pool %s/%s: %w", assetA, assetB, ErrPoolNotFound)
	}
	return pool, nil
}

// Pools returns all pools ordered by account address.
func (r *Registry) Pools() []*Pool {
	pools := make([]*Pool, 0, len(r.pools))
	for _, pool := range r.pools {
		pools = append(pools, pool)
	}
	sort.Slice(pools, func(i, j int) bool {
		return pools[i].account.Cmp(pools[j].account) < 0
	})
	return pools
}

// PoolAccount derives the deterministic ledger account for a pair from the
// keccak256 hash of the canonically ordered asset addresses.
func PoolAccount(assetA, assetB common.Address) common.Address {
	key := canonicalPair(assetA, assetB)
	return common.BytesToAddress(crypto.Keccak256(key.assetA.Bytes(), key.assetB.Bytes()))
}

func canonicalPair(assetA, assetB common.Address) pairKey {
	if assetA.Cmp(assetB) > 0 {
		assetA, assetB = assetB, assetA
	}
	return pairKey{assetA: assetA, assetB: assetB}
}
