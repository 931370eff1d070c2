package engine

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"xykpool/internal/amm"
	"xykpool/internal/model"
	"xykpool/internal/scenario"
)

// outcome is the journaled result of one record: exactly one of event or
// reject is set.
type outcome struct {
	event  *model.EventRecord
	reject *model.RejectRecord
}

// applyRecord decodes and executes one operation record against the engine
// state. Operation failures turn into reject outcomes; an invariant violation
// or an internal fault is returned as an error and aborts the run.
func (r *Runner) applyRecord(record model.OpRecord, ingestedAt time.Time) (outcome, error) {
	op, err := scenario.Decode(record)
	if err != nil {
		return rejectOutcome(record, "decode", "malformed_record", err), nil
	}

	if record.Time < r.simTime {
		err := fmt.Errorf("time %d is before current time %d", record.Time, r.simTime)
		return rejectOutcome(record, record.Kind, "time_regression", err), nil
	}
	r.simTime = record.Time

	switch op.Kind {
	case model.KindCreate:
		return r.applyCreate(record, op, ingestedAt)
	case model.KindAdd:
		return r.applyAdd(record, op, ingestedAt)
	case model.KindRemove:
		return r.applyRemove(record, op, ingestedAt)
	case model.KindSwap:
		return r.applySwap(record, op, ingestedAt)
	case model.KindSync:
		return r.applySync(record, op, ingestedAt)
	}

	return outcome{}, fmt.Errorf("seq %d: unhandled kind %q", record.Seq, op.Kind)
}

func (r *Runner) applyCreate(record model.OpRecord, op scenario.Op, ingestedAt time.Time) (outcome, error) {
	pool, err := r.registry.Create(op.AssetA, op.AssetB)
	if err != nil {
		return r.rejectOrAbort(record, op, err)
	}
	if _, ok := r.firstSeen[pool.Account()]; !ok {
		r.firstSeen[pool.Account()] = record.Seq
	}

	event := buildEventRecord(record, op, pool, ingestedAt)
	return outcome{event: &event}, nil
}

func (r *Runner) applyAdd(record model.OpRecord, op scenario.Op, ingestedAt time.Time) (outcome, error) {
	pool, err := r.registry.Get(op.AssetA, op.AssetB)
	if err != nil {
		return r.rejectOrAbort(record, op, err)
	}

	if err := r.fund(op.Caller, pool.Account(), op.AssetA, op.AmountA); err != nil {
		return outcome{}, err
	}
	if err := r.fund(op.Caller, pool.Account(), op.AssetB, op.AmountB); err != nil {
		return outcome{}, err
	}

	amountA, amountB := orientPair(pool, op.AssetA, op.AmountA, op.AmountB)
	shares, err := pool.AddLiquidity(op.Caller, amountA, amountB, op.MinShares, op.Deadline)
	if err != nil {
		return r.rejectOrAbort(record, op, err)
	}

	event := buildEventRecord(record, op, pool, ingestedAt)
	event.AmountA = amountA.String()
	event.AmountB = amountB.String()
	event.Shares = shares.String()
	return outcome{event: &event}, nil
}

func (r *Runner) applyRemove(record model.OpRecord, op scenario.Op, ingestedAt time.Time) (outcome, error) {
	pool, err := r.registry.Get(op.AssetA, op.AssetB)
	if err != nil {
		return r.rejectOrAbort(record, op, err)
	}

	minA, minB := orientPair(pool, op.AssetA, op.MinAmountA, op.MinAmountB)
	amountA, amountB, err := pool.RemoveLiquidity(op.Caller, op.Shares, minA, minB, op.Deadline)
	if err != nil {
		return r.rejectOrAbort(record, op, err)
	}

	event := buildEventRecord(record, op, pool, ingestedAt)
	event.AmountA = amountA.String()
	event.AmountB = amountB.String()
	event.Shares = op.Shares.String()
	return outcome{event: &event}, nil
}

func (r *Runner) applySwap(record model.OpRecord, op scenario.Op, ingestedAt time.Time) (outcome, error) {
	pool, err := r.registry.Get(op.AssetA, op.AssetB)
	if err != nil {
		return r.rejectOrAbort(record, op, err)
	}

	if err := r.fund(op.Caller, pool.Account(), op.AssetIn, op.AmountIn); err != nil {
		return outcome{}, err
	}

	amountOut, err := pool.Swap(op.Caller, op.AssetIn, op.AmountIn, op.MinOut, op.Deadline)
	if err != nil {
		return r.rejectOrAbort(record, op, err)
	}

	event := buildEventRecord(record, op, pool, ingestedAt)
	event.AssetIn = op.AssetIn.Hex()
	event.AmountIn = op.AmountIn.String()
	event.AmountOut = amountOut.String()
	return outcome{event: &event}, nil
}

func (r *Runner) applySync(record model.OpRecord, op scenario.Op, ingestedAt time.Time) (outcome, error) {
	pool, err := r.registry.Get(op.AssetA, op.AssetB)
	if err != nil {
		return r.rejectOrAbort(record, op, err)
	}

	if err := pool.Sync(); err != nil {
		return r.rejectOrAbort(record, op, err)
	}

	event := buildEventRecord(record, op, pool, ingestedAt)
	return outcome{event: &event}, nil
}

// fund mints and approves the input amount for a caller before an operation
// that pulls funds. Scenarios describe intent; the faucet supplies the ledger
// ceremony unless disabled for adversarial runs.
func (r *Runner) fund(caller, poolAccount, asset common.Address, amount *big.Int) error {
	if !r.cfg.Faucet || amount == nil || amount.Sign() <= 0 {
		return nil
	}
	if err := r.book.Mint(asset, caller, amount); err != nil {
		return fmt.Errorf("faucet mint: %w", err)
	}
	if err := r.book.Approve(asset, caller, poolAccount, amount); err != nil {
		return fmt.Errorf("faucet approve: %w", err)
	}
	return nil
}

// rejectOrAbort turns an operation error into a reject outcome, except for an
// invariant violation, which aborts the whole run.
func (r *Runner) rejectOrAbort(record model.OpRecord, op scenario.Op, err error) (outcome, error) {
	if errors.Is(err, amm.ErrInvariantViolated) {
		return outcome{}, fmt.Errorf("seq %d: %w", record.Seq, err)
	}
	return rejectOutcome(record, op.Kind, errorReason(err), err), nil
}

func rejectOutcome(record model.OpRecord, kind, reason string, err error) outcome {
	return outcome{reject: &model.RejectRecord{
		Seq:       record.Seq,
		Kind:      kind,
		Timestamp: record.Time,
		Caller:    record.Caller,
		Reason:    reason,
		Error:     err.Error(),
	}}
}

// orientPair maps record-order values onto the pool's canonical asset order.
// recordAssetA is the asset the record called asset_a; first/second are the
// values keyed to the record's order.
func orientPair(pool *amm.Pool, recordAssetA common.Address, first, second *big.Int) (*big.Int, *big.Int) {
	canonicalA, _ := pool.Assets()
	if recordAssetA == canonicalA {
		return first, second
	}
	return second, first
}

// buildEventRecord captures the post-operation pool state common to every
// event kind. Callers fill the kind-specific amount fields.
func buildEventRecord(record model.OpRecord, op scenario.Op, pool *amm.Pool, ingestedAt time.Time) model.EventRecord {
	assetA, assetB := pool.Assets()
	reserveA, reserveB, _ := pool.Reserves()
	obs := pool.Observe()

	return model.EventRecord{
		Seq:              record.Seq,
		Kind:             op.Kind,
		Timestamp:        record.Time,
		Pool:             pool.Account().Hex(),
		AssetA:           assetA.Hex(),
		AssetB:           assetB.Hex(),
		Caller:           op.Caller.Hex(),
		ReserveA:         reserveA.String(),
		ReserveB:         reserveB.String(),
		TotalShares:      pool.TotalShares().String(),
		PriceACumulative: obs.PriceACumulative.String(),
		PriceBCumulative: obs.PriceBCumulative.String(),
		IngestedAt:       ingestedAt.UTC().Format(time.RFC3339Nano),
	}
}

// errorReason maps an operation error onto its journal reason label.
func errorReason(err error) string {
	switch {
	case errors.Is(err, amm.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, amm.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, amm.ErrSlippageExceeded):
		return "slippage_exceeded"
	case errors.Is(err, amm.ErrInsufficientInitialLiquidity):
		return "insufficient_initial_liquidity"
	case errors.Is(err, amm.ErrInsufficientLiquidity):
		return "insufficient_liquidity"
	case errors.Is(err, amm.ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, amm.ErrDeadlineExpired):
		return "deadline_expired"
	case errors.Is(err, amm.ErrReentrantCall):
		return "reentrant_call"
	case errors.Is(err, amm.ErrZeroMint):
		return "zero_mint"
	case errors.Is(err, amm.ErrZeroBurn):
		return "zero_burn"
	case errors.Is(err, amm.ErrInsufficientOutput):
		return "insufficient_output"
	case errors.Is(err, amm.ErrPoolExists):
		return "pool_exists"
	case errors.Is(err, amm.ErrPoolNotFound):
		return "pool_not_found"
	default:
		return "internal"
	}
}
