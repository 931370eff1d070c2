package aggregate

import (
	"math/big"
	"time"
)

const ratioScale = 18

func computeFeeRates(feeA *big.Int, feeB *big.Int, reserveA *big.Int, reserveB *big.Int) (*string, *string) {
	var feeRateA *string
	var feeRateB *string

	if rate := computeRateFromInt(feeA, reserveA); rate != "" {
		feeRateA = &rate
	}
	if rate := computeRateFromInt(feeB, reserveB); rate != "" {
		feeRateB = &rate
	}
	return feeRateA, feeRateB
}

func computeRateFromInt(fee *big.Int, reserve *big.Int) string {
	if fee == nil || fee.Sign() == 0 || reserve == nil || reserve.Sign() == 0 {
		return ""
	}
	rat := new(big.Rat).SetFrac(fee, reserve)
	return rat.FloatString(ratioScale)
}

func computeAPR(feeRateA *string, feeRateB *string, windowSeconds uint64) *string {
	if windowSeconds == 0 {
		return nil
	}
	var selected string
	if feeRateA != nil && feeRateB == nil {
		selected = *feeRateA
	} else if feeRateB != nil && feeRateA == nil {
		selected = *feeRateB
	} else {
		return nil
	}

	rat, ok := new(big.Rat).SetString(selected)
	if !ok {
		return nil
	}
	yearSeconds := big.NewRat(int64(365*24*time.Hour/time.Second), 1)
	window := big.NewRat(int64(windowSeconds), 1)
	apr := new(big.Rat).Mul(rat, yearSeconds)
	apr.Quo(apr, window)
	val := apr.FloatString(ratioScale)
	return &val
}
