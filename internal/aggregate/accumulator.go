package aggregate

import (
	"fmt"
	"math/big"

	"xykpool/internal/amm"
	"xykpool/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	Pool        string
	AssetA      string
	AssetB      string
	WindowStart uint64
	WindowEnd   uint64
	SwapCount   uint64
	AddCount    uint64
	RemoveCount uint64
	VolumeA     *big.Int
	VolumeB     *big.Int
	FeeA        *big.Int
	FeeB        *big.Int
	FirstObs    *amm.Observation
	LastObs     *amm.Observation
	EndReserveA *big.Int
	EndReserveB *big.Int
	EndShares   *big.Int
	LastTS      uint64
	FirstSeq    uint64
}

func NewAccumulator(record model.EventRecord, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		Pool:        record.Pool,
		AssetA:      record.AssetA,
		AssetB:      record.AssetB,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		VolumeA:     big.NewInt(0),
		VolumeB:     big.NewInt(0),
		FeeA:        big.NewInt(0),
		FeeB:        big.NewInt(0),
		LastTS:      record.Timestamp,
		FirstSeq:    record.Seq,
	}
}

func (a *Accumulator) AddEvent(record model.EventRecord) error {
	reserveA, err := parseBigInt(record.ReserveA)
	if err != nil {
		return fmt.Errorf("reserve_a: %w", err)
	}
	reserveB, err := parseBigInt(record.ReserveB)
	if err != nil {
		return fmt.Errorf("reserve_b: %w", err)
	}
	totalShares, err := parseBigInt(record.TotalShares)
	if err != nil {
		return fmt.Errorf("total_shares: %w", err)
	}
	cumA, err := parseBigInt(record.PriceACumulative)
	if err != nil {
		return fmt.Errorf("price_a_cumulative: %w", err)
	}
	cumB, err := parseBigInt(record.PriceBCumulative)
	if err != nil {
		return fmt.Errorf("price_b_cumulative: %w", err)
	}

	if record.Timestamp >= a.LastTS {
		a.LastTS = record.Timestamp
		a.EndReserveA = reserveA
		a.EndReserveB = reserveB
		a.EndShares = totalShares
	}
	if record.Seq < a.FirstSeq {
		a.FirstSeq = record.Seq
	}

	obs := &amm.Observation{
		PriceACumulative: cumA,
		PriceBCumulative: cumB,
		Timestamp:        record.Timestamp,
	}
	if a.FirstObs == nil {
		a.FirstObs = obs
	}
	a.LastObs = obs

	switch record.Kind {
	case model.KindSwap:
		return a.applySwap(record)
	case model.KindAdd:
		a.AddCount++
	case model.KindRemove:
		a.RemoveCount++
	}
	return nil
}

// applySwap attributes swap volume to each moved side and the fee to the
// input side. The fee is the 3-per-mille cut the pool retains from amountIn.
func (a *Accumulator) applySwap(record model.EventRecord) error {
	amountIn, err := parseBigInt(record.AmountIn)
	if err != nil {
		return fmt.Errorf("amount_in: %w", err)
	}
	amountOut, err := parseBigInt(record.AmountOut)
	if err != nil {
		return fmt.Errorf("amount_out: %w", err)
	}

	if record.AssetIn == a.AssetA {
		a.VolumeA.Add(a.VolumeA, amountIn)
		a.VolumeB.Add(a.VolumeB, amountOut)
		a.FeeA.Add(a.FeeA, feeFromAmountIn(amountIn))
	} else {
		a.VolumeB.Add(a.VolumeB, amountIn)
		a.VolumeA.Add(a.VolumeA, amountOut)
		a.FeeB.Add(a.FeeB, feeFromAmountIn(amountIn))
	}

	a.SwapCount++
	return nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}

func feeFromAmountIn(amountIn *big.Int) *big.Int {
	fee := new(big.Int).Mul(amountIn, big.NewInt(3))
	return fee.Div(fee, big.NewInt(1000))
}
