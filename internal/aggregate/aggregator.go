package aggregate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"xykpool/internal/amm"
	"xykpool/internal/model"
	"xykpool/internal/storage/postgres"
)

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	StateStore    StateStore
}

// Aggregator rolls the event journal up into pool window metrics.
type Aggregator struct {
	cfg          Config
	store        *postgres.Store
	logger       *zap.Logger
	accumulators map[string]*Accumulator
	poolSeen     map[string]model.PoolSnapshot
}

func NewAggregator(cfg Config, store *postgres.Store, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
		poolSeen:     make(map[string]model.PoolSnapshot),
	}
}

// Run executes aggregation over an event journal JSONL file.
func (a *Aggregator) Run(ctx context.Context, inputPath string) error {
	if a.store == nil {
		return fmt.Errorf("store is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startTs, err := a.loadStartTimestamp(ctx)
	if err != nil {
		return err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)
	snapshots := make([]model.PoolSnapshot, 0, 64)
	maxTs := startTs
	var total, flushed, skipped, failed int

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var record model.EventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			a.logger.Warn("decode event", zap.Error(err))
			continue
		}

		if record.Timestamp <= startTs {
			skipped++
			continue
		}

		windowStart := windowStart(record.Timestamp, a.cfg.WindowSeconds)
		windowEnd := windowStart + a.cfg.WindowSeconds

		accKey := poolKey(record.Pool)
		acc := a.accumulators[accKey]
		if acc == nil {
			acc = NewAccumulator(record, windowStart, windowEnd)
			a.accumulators[accKey] = acc
		} else if acc.WindowStart != windowStart {
			metrics, snapshot := a.flushAccumulator(acc)
			if metrics != nil {
				batch = append(batch, *metrics)
				flushed++
			}
			if snapshot != nil {
				snapshots = append(snapshots, *snapshot)
			}
			acc = NewAccumulator(record, windowStart, windowEnd)
			a.accumulators[accKey] = acc
		}

		if err := acc.AddEvent(record); err != nil {
			failed++
			a.logger.Warn("aggregate event", zap.Error(err), zap.String("pool", record.Pool), zap.String("kind", record.Kind))
			continue
		}

		if record.Timestamp > maxTs {
			maxTs = record.Timestamp
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.flushBatches(ctx, batch, snapshots); err != nil {
				return err
			}
			batch = batch[:0]
			snapshots = snapshots[:0]

			if err := a.saveState(ctx); err != nil {
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	for _, acc := range a.accumulators {
		metrics, snapshot := a.flushAccumulator(acc)
		if metrics != nil {
			batch = append(batch, *metrics)
			flushed++
		}
		if snapshot != nil {
			snapshots = append(snapshots, *snapshot)
		}
	}
	a.accumulators = make(map[string]*Accumulator)

	if len(batch) > 0 || len(snapshots) > 0 {
		if err := a.flushBatches(ctx, batch, snapshots); err != nil {
			return err
		}
	}

	a.cfg.RecomputeFrom = maxTs
	if err := a.saveState(ctx); err != nil {
		return err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("windows", flushed),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)

	return nil
}

func (a *Aggregator) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

func (a *Aggregator) saveState(ctx context.Context) error {
	if a.cfg.StateStore == nil {
		return nil
	}

	if len(a.accumulators) == 0 {
		return a.cfg.StateStore.Save(ctx, a.cfg.RecomputeFrom)
	}

	safeTs := minOpenWindowStart(a.accumulators)
	if safeTs > 0 {
		safeTs = safeTs - 1
	}
	if safeTs == 0 {
		safeTs = a.cfg.RecomputeFrom
	}
	return a.cfg.StateStore.Save(ctx, safeTs)
}

func (a *Aggregator) flushBatches(ctx context.Context, batch []model.PoolWindowMetrics, snapshots []model.PoolSnapshot) error {
	if len(snapshots) > 0 {
		if err := a.store.UpsertPoolSnapshots(ctx, snapshots); err != nil {
			return err
		}
	}
	if len(batch) > 0 {
		if err := a.store.UpsertWindowMetrics(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

// flushAccumulator turns a closed window into a metrics row and an updated
// pool snapshot. TWAP needs two observations spanning nonzero time; windows
// without them get nil TWAPs.
func (a *Aggregator) flushAccumulator(acc *Accumulator) (*model.PoolWindowMetrics, *model.PoolSnapshot) {
	if acc == nil {
		return nil, nil
	}

	snapshot := a.registerPool(acc)

	var twapA, twapB *string
	if acc.FirstObs != nil && acc.LastObs != nil && acc.LastObs.Timestamp > acc.FirstObs.Timestamp {
		priceA, priceB, err := amm.TWAP(*acc.FirstObs, *acc.LastObs)
		if err != nil {
			a.logger.Warn("window twap", zap.Error(err), zap.String("pool", acc.Pool))
		} else {
			valA, valB := priceA.String(), priceB.String()
			twapA, twapB = &valA, &valB
		}
	}

	feeRateA, feeRateB := computeFeeRates(acc.FeeA, acc.FeeB, acc.EndReserveA, acc.EndReserveB)
	apr := computeAPR(feeRateA, feeRateB, a.cfg.WindowSeconds)

	metrics := &model.PoolWindowMetrics{
		Pool:           acc.Pool,
		WindowSizeSecs: int64(a.cfg.WindowSeconds),
		WindowStart:    time.Unix(int64(acc.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(acc.WindowEnd), 0).UTC(),
		SwapCount:      acc.SwapCount,
		AddCount:       acc.AddCount,
		RemoveCount:    acc.RemoveCount,
		VolumeA:        acc.VolumeA.String(),
		VolumeB:        acc.VolumeB.String(),
		FeeA:           acc.FeeA.String(),
		FeeB:           acc.FeeB.String(),
		TWAPA:          twapA,
		TWAPB:          twapB,
		EndReserveA:    bigString(acc.EndReserveA),
		EndReserveB:    bigString(acc.EndReserveB),
		EndTotalShares: bigString(acc.EndShares),
		FeeRateA:       feeRateA,
		FeeRateB:       feeRateB,
		APR:            apr,
	}

	return metrics, snapshot
}

// registerPool folds the accumulator's end state into the per-pool snapshot,
// keeping the earliest first-seen seq across windows.
func (a *Aggregator) registerPool(acc *Accumulator) *model.PoolSnapshot {
	key := poolKey(acc.Pool)

	snapshot := model.PoolSnapshot{
		Account:      acc.Pool,
		AssetA:       acc.AssetA,
		AssetB:       acc.AssetB,
		ReserveA:     bigString(acc.EndReserveA),
		ReserveB:     bigString(acc.EndReserveB),
		TotalShares:  bigString(acc.EndShares),
		LastUpdate:   acc.LastTS,
		FirstSeenSeq: acc.FirstSeq,
	}
	if acc.LastObs != nil {
		snapshot.PriceACumulative = acc.LastObs.PriceACumulative.String()
		snapshot.PriceBCumulative = acc.LastObs.PriceBCumulative.String()
	} else {
		snapshot.PriceACumulative = "0"
		snapshot.PriceBCumulative = "0"
	}

	if existing, ok := a.poolSeen[key]; ok && existing.FirstSeenSeq < snapshot.FirstSeenSeq {
		snapshot.FirstSeenSeq = existing.FirstSeenSeq
	}

	a.poolSeen[key] = snapshot
	return &snapshot
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func poolKey(account string) string {
	return strings.ToLower(account)
}

func bigString(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}

func minOpenWindowStart(acc map[string]*Accumulator) uint64 {
	var min uint64
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if min == 0 || entry.WindowStart < min {
			min = entry.WindowStart
		}
	}
	return min
}
