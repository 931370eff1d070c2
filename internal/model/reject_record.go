package model

// RejectRecord records a rejected operation and why it was refused.
type RejectRecord struct {
	Seq       uint64 `json:"seq"`
	Kind      string `json:"kind"`
	Timestamp uint64 `json:"timestamp"`
	Caller    string `json:"caller"`
	Reason    string `json:"reason"`
	Error     string `json:"error"`
}
