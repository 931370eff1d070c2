package model

// PoolSnapshot is a pool state row for storage.
type PoolSnapshot struct {
	Account          string `json:"account"`
	AssetA           string `json:"asset_a"`
	AssetB           string `json:"asset_b"`
	ReserveA         string `json:"reserve_a"`
	ReserveB         string `json:"reserve_b"`
	TotalShares      string `json:"total_shares"`
	PriceACumulative string `json:"price_a_cumulative"`
	PriceBCumulative string `json:"price_b_cumulative"`
	LastUpdate       uint64 `json:"last_update"`
	FirstSeenSeq     uint64 `json:"first_seen_seq"`
}
