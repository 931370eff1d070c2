package scenario

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"xykpool/internal/model"
)

func TestDecodeSwap(t *testing.T) {
	record := model.OpRecord{
		Seq:      4,
		Time:     1700000100,
		Kind:     model.KindSwap,
		Caller:   "0x1111111111111111111111111111111111111111",
		AssetA:   "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		AssetB:   "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		AssetIn:  "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		AmountIn: "1000",
		MinOut:   "900",
		Deadline: 1700000600,
	}

	op, err := Decode(record)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}

	if op.Caller != common.HexToAddress(record.Caller) {
		t.Fatalf("caller mismatch: %s", op.Caller)
	}
	if op.AssetIn != common.HexToAddress(record.AssetIn) {
		t.Fatalf("asset in mismatch: %s", op.AssetIn)
	}
	if op.AmountIn.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("amount in mismatch: %s", op.AmountIn)
	}
	if op.MinOut.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("min out mismatch: %s", op.MinOut)
	}
	if op.Deadline != 1700000600 {
		t.Fatalf("deadline mismatch: %d", op.Deadline)
	}
}

func TestDecodeAddDefaults(t *testing.T) {
	record := model.OpRecord{
		Seq:     2,
		Time:    1700000000,
		Kind:    model.KindAdd,
		Caller:  "0x1111111111111111111111111111111111111111",
		AssetA:  "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		AssetB:  "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		AmountA: "10000",
		AmountB: "10000",
	}

	op, err := Decode(record)
	if err != nil {
		t.Fatalf("decode add: %v", err)
	}

	if op.MinShares != nil {
		t.Fatalf("min shares should default to nil, got %s", op.MinShares)
	}
	if op.Deadline != 0 {
		t.Fatalf("deadline should default to zero, got %d", op.Deadline)
	}
}

func TestDecodeNegativeAmountPassesThrough(t *testing.T) {
	record := model.OpRecord{
		Seq:      9,
		Time:     1700000000,
		Kind:     model.KindSwap,
		Caller:   "0x1111111111111111111111111111111111111111",
		AssetA:   "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		AssetB:   "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		AssetIn:  "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		AmountIn: "-5",
	}

	op, err := Decode(record)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if op.AmountIn.Sign() >= 0 {
		t.Fatalf("negative amount should parse: %s", op.AmountIn)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	base := model.OpRecord{
		Time:    1700000000,
		Caller:  "0x1111111111111111111111111111111111111111",
		AssetA:  "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		AssetB:  "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		AssetIn: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
	}

	cases := []struct {
		name    string
		mutate  func(*model.OpRecord)
		wantErr string
	}{
		{
			name:    "unknown kind",
			mutate:  func(r *model.OpRecord) { r.Kind = "drain" },
			wantErr: "unsupported kind",
		},
		{
			name: "bad caller",
			mutate: func(r *model.OpRecord) {
				r.Kind = model.KindSync
				r.Caller = "not-an-address"
			},
			wantErr: "invalid caller address",
		},
		{
			name: "bad asset",
			mutate: func(r *model.OpRecord) {
				r.Kind = model.KindSync
				r.AssetB = "0x123"
			},
			wantErr: "invalid asset_b address",
		},
		{
			name: "missing swap amount",
			mutate: func(r *model.OpRecord) {
				r.Kind = model.KindSwap
			},
			wantErr: "missing amount_in",
		},
		{
			name: "malformed amount",
			mutate: func(r *model.OpRecord) {
				r.Kind = model.KindSwap
				r.AmountIn = "12x4"
			},
			wantErr: "invalid amount_in",
		},
		{
			name: "missing remove shares",
			mutate: func(r *model.OpRecord) {
				r.Kind = model.KindRemove
			},
			wantErr: "missing shares",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record := base
			tc.mutate(&record)
			_, err := Decode(record)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}
