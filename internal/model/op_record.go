package model

import (
	"encoding/json"
)

// OpRecord is one requested pool operation in a scenario file. Amounts are
// decimal strings; unused fields stay empty per kind.
type OpRecord struct {
	Seq        uint64 `json:"seq"`
	Time       uint64 `json:"time"`
	Kind       string `json:"kind"`
	Caller     string `json:"caller"`
	AssetA     string `json:"asset_a,omitempty"`
	AssetB     string `json:"asset_b,omitempty"`
	AssetIn    string `json:"asset_in,omitempty"`
	AmountA    string `json:"amount_a,omitempty"`
	AmountB    string `json:"amount_b,omitempty"`
	AmountIn   string `json:"amount_in,omitempty"`
	Shares     string `json:"shares,omitempty"`
	MinShares  string `json:"min_shares,omitempty"`
	MinAmountA string `json:"min_amount_a,omitempty"`
	MinAmountB string `json:"min_amount_b,omitempty"`
	MinOut     string `json:"min_out,omitempty"`
	Deadline   uint64 `json:"deadline,omitempty"`
}

// MarshalJSON ensures OpRecord is encoded with stable field names.
func (r OpRecord) MarshalJSON() ([]byte, error) {
	type Alias OpRecord
	return json.Marshal(Alias(r))
}

// UnmarshalJSON decodes an OpRecord from JSON.
func (r *OpRecord) UnmarshalJSON(data []byte) error {
	type Alias OpRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = OpRecord(a)
	return nil
}
