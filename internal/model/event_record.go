package model

import "encoding/json"

// Operation kinds journaled by the engine.
const (
	KindCreate = "create"
	KindAdd    = "add"
	KindRemove = "remove"
	KindSwap   = "swap"
	KindSync   = "sync"
)

// EventRecord is one applied operation with the pool state it left behind.
// Amounts and accumulators are decimal strings.
type EventRecord struct {
	Seq              uint64 `json:"seq"`
	Kind             string `json:"kind"`
	Timestamp        uint64 `json:"timestamp"`
	Pool             string `json:"pool"`
	AssetA           string `json:"asset_a"`
	AssetB           string `json:"asset_b"`
	Caller           string `json:"caller"`
	AssetIn          string `json:"asset_in,omitempty"`
	AmountA          string `json:"amount_a,omitempty"`
	AmountB          string `json:"amount_b,omitempty"`
	AmountIn         string `json:"amount_in,omitempty"`
	AmountOut        string `json:"amount_out,omitempty"`
	Shares           string `json:"shares,omitempty"`
	ReserveA         string `json:"reserve_a"`
	ReserveB         string `json:"reserve_b"`
	TotalShares      string `json:"total_shares"`
	PriceACumulative string `json:"price_a_cumulative"`
	PriceBCumulative string `json:"price_b_cumulative"`
	IngestedAt       string `json:"ingested_at"`
}

// MarshalJSON ensures EventRecord is encoded with stable field names.
func (r EventRecord) MarshalJSON() ([]byte, error) {
	type Alias EventRecord
	return json.Marshal(Alias(r))
}

// UnmarshalJSON decodes an EventRecord from JSON.
func (r *EventRecord) UnmarshalJSON(data []byte) error {
	type Alias EventRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = EventRecord(a)
	return nil
}
