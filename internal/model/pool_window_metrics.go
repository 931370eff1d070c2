package model

import "time"

// PoolWindowMetrics stores aggregated metrics for a pool window.
type PoolWindowMetrics struct {
	Pool           string
	WindowSizeSecs int64
	WindowStart    time.Time
	WindowEnd      time.Time
	SwapCount      uint64
	AddCount       uint64
	RemoveCount    uint64
	VolumeA        string
	VolumeB        string
	FeeA           string
	FeeB           string
	TWAPA          *string
	TWAPB          *string
	EndReserveA    string
	EndReserveB    string
	EndTotalShares string
	FeeRateA       *string
	FeeRateB       *string
	APR            *string
}
