package amm

import (
	"fmt"
	"math/big"
)

// Observation is a point-in-time capture of the pool's cumulative price
// accumulators, taken via Pool.Observe.
type Observation struct {
	PriceACumulative *big.Int
	PriceBCumulative *big.Int
	Timestamp        uint64
}

// TWAP returns the time-weighted average prices between two observations,
// scaled by 1e18: asset A quoted in B, and asset B quoted in A. The window
// must advance and the accumulators must be monotonic.
func TWAP(first, last Observation) (*big.Int, *big.Int, error) {
	if last.Timestamp <= first.Timestamp {
		return nil, nil, fmt.Errorf("observation window must advance: %d to %d", first.Timestamp, last.Timestamp)
	}
	if first.PriceACumulative == nil || first.PriceBCumulative == nil ||
		last.PriceACumulative == nil || last.PriceBCumulative == nil {
		return nil, nil, fmt.Errorf("observation missing accumulator")
	}

	deltaA := new(big.Int).Sub(last.PriceACumulative, first.PriceACumulative)
	deltaB := new(big.Int).Sub(last.PriceBCumulative, first.PriceBCumulative)
	if deltaA.Sign() < 0 || deltaB.Sign() < 0 {
		return nil, nil, fmt.Errorf("observations out of order")
	}

	elapsed := new(big.Int).SetUint64(last.Timestamp - first.Timestamp)
	return deltaA.Div(deltaA, elapsed), deltaB.Div(deltaB, elapsed), nil
}

// accumulatePrices folds the elapsed time since the last update into the
// cumulative price integrals, using the current (pre-mutation) reserves.
// Called at the top of every state-changing operation.
func (p *Pool) accumulatePrices(now uint64) {
	if now <= p.lastUpdate {
		return
	}
	elapsed := new(big.Int).SetUint64(now - p.lastUpdate)
	if p.reserveA.Sign() > 0 && p.reserveB.Sign() > 0 {
		priceA := new(big.Int).Mul(p.reserveB, pricePrecision)
		priceA.Div(priceA, p.reserveA)
		priceA.Mul(priceA, elapsed)
		p.priceACumulative.Add(p.priceACumulative, priceA)

		priceB := new(big.Int).Mul(p.reserveA, pricePrecision)
		priceB.Div(priceB, p.reserveB)
		priceB.Mul(priceB, elapsed)
		p.priceBCumulative.Add(p.priceBCumulative, priceB)
	}
	p.lastUpdate = now
}
