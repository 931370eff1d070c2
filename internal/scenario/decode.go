package scenario

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"xykpool/internal/model"
)

// Op is a fully decoded, validated operation request. Amount fields are nil
// when the record omitted them; business rules on signs and magnitudes are
// the pool's to enforce.
type Op struct {
	Seq        uint64
	Time       uint64
	Kind       string
	Caller     common.Address
	AssetA     common.Address
	AssetB     common.Address
	AssetIn    common.Address
	AmountA    *big.Int
	AmountB    *big.Int
	AmountIn   *big.Int
	Shares     *big.Int
	MinShares  *big.Int
	MinAmountA *big.Int
	MinAmountB *big.Int
	MinOut     *big.Int
	Deadline   uint64
}

// Decode validates a raw operation record and parses it into an Op.
func Decode(record model.OpRecord) (Op, error) {
	op := Op{
		Seq:      record.Seq,
		Time:     record.Time,
		Kind:     record.Kind,
		Deadline: record.Deadline,
	}

	switch record.Kind {
	case model.KindCreate, model.KindAdd, model.KindRemove, model.KindSwap, model.KindSync:
	default:
		return Op{}, fmt.Errorf("unsupported kind: %q", record.Kind)
	}

	caller, err := parseAddress("caller", record.Caller)
	if err != nil {
		return Op{}, err
	}
	op.Caller = caller

	op.AssetA, err = parseAddress("asset_a", record.AssetA)
	if err != nil {
		return Op{}, err
	}
	op.AssetB, err = parseAddress("asset_b", record.AssetB)
	if err != nil {
		return Op{}, err
	}

	switch record.Kind {
	case model.KindAdd:
		if op.AmountA, err = parseAmount("amount_a", record.AmountA, true); err != nil {
			return Op{}, err
		}
		if op.AmountB, err = parseAmount("amount_b", record.AmountB, true); err != nil {
			return Op{}, err
		}
		if op.MinShares, err = parseAmount("min_shares", record.MinShares, false); err != nil {
			return Op{}, err
		}
	case model.KindRemove:
		if op.Shares, err = parseAmount("shares", record.Shares, true); err != nil {
			return Op{}, err
		}
		if op.MinAmountA, err = parseAmount("min_amount_a", record.MinAmountA, false); err != nil {
			return Op{}, err
		}
		if op.MinAmountB, err = parseAmount("min_amount_b", record.MinAmountB, false); err != nil {
			return Op{}, err
		}
	case model.KindSwap:
		if op.AssetIn, err = parseAddress("asset_in", record.AssetIn); err != nil {
			return Op{}, err
		}
		if op.AmountIn, err = parseAmount("amount_in", record.AmountIn, true); err != nil {
			return Op{}, err
		}
		if op.MinOut, err = parseAmount("min_out", record.MinOut, false); err != nil {
			return Op{}, err
		}
	}

	return op, nil
}

func parseAddress(field, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid %s address: %q", field, value)
	}
	return common.HexToAddress(value), nil
}

// parseAmount parses a decimal string. Sign checks belong to the pool, so
// negative values pass through; only malformed or missing-required values
// are decode errors.
func parseAmount(field, value string, required bool) (*big.Int, error) {
	if value == "" {
		if required {
			return nil, fmt.Errorf("missing %s", field)
		}
		return nil, nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s amount: %q", field, value)
	}
	return parsed, nil
}
