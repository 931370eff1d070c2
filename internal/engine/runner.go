package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"xykpool/internal/amm"
	"xykpool/internal/ledger"
	"xykpool/internal/metrics"
	"xykpool/internal/model"
	"xykpool/internal/storage"
)

// RunConfig holds runtime settings for the scenario engine.
type RunConfig struct {
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	Faucet            bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// SnapshotSink receives final pool snapshots after a run.
type SnapshotSink interface {
	UpsertPoolSnapshots(ctx context.Context, snapshots []model.PoolSnapshot) error
}

// Runner executes a scenario file against a fresh ledger and pool registry,
// journaling applied events and rejects to storage.
type Runner struct {
	cfg        RunConfig
	book       *ledger.Book
	registry   *amm.Registry
	storage    storage.Storage
	snapshots  SnapshotSink
	logger     *zap.Logger
	metrics    *metrics.Metrics
	seen       map[uint64]struct{}
	firstSeen  map[common.Address]uint64
	checkpoint *CheckpointStore
	simTime    uint64
}

// NewRunner builds a Runner with its dependencies. The ledger and registry
// are created fresh; pools read simulated time through the injected clock.
func NewRunner(cfg RunConfig, storageSink storage.Storage, logger *zap.Logger, m *metrics.Metrics) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}

	r := &Runner{
		cfg:        cfg,
		book:       ledger.NewBook(),
		storage:    storageSink,
		logger:     logger,
		metrics:    m,
		seen:       make(map[uint64]struct{}),
		firstSeen:  make(map[common.Address]uint64),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
	r.registry = amm.NewRegistry(r.book, func() time.Time {
		return time.Unix(int64(r.simTime), 0).UTC()
	})
	return r
}

// SetSnapshotSink wires an optional destination for end-of-run pool state.
func (r *Runner) SetSnapshotSink(sink SnapshotSink) {
	r.snapshots = sink
}

// Book exposes the underlying ledger for scenario setup and inspection.
func (r *Runner) Book() *ledger.Book {
	return r.book
}

// Registry exposes the pool registry for inspection.
func (r *Runner) Registry() *amm.Registry {
	return r.registry
}

// Run executes the scenario at inputPath.
func (r *Runner) Run(ctx context.Context, inputPath string) error {
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if inputPath == "" {
		return fmt.Errorf("scenario path is required")
	}

	records, err := readRecords(inputPath)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		r.logger.Info("nothing to apply", zap.String("input", inputPath))
		return nil
	}

	from := records[0].Seq
	to := records[len(records)-1].Seq

	var replayHorizon uint64
	var resuming bool
	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load()
		if err != nil {
			return err
		}
		if ok && cp.LastAppliedSeq >= from {
			replayHorizon = cp.LastAppliedSeq
			resuming = true
			r.logger.Info("resume from checkpoint", zap.Uint64("last_applied", cp.LastAppliedSeq))
		}
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	var applied, rejected, replayed, duplicates int
	next := 0
	for _, seqRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ingestedAt := time.Now().UTC()
		events := make([]model.EventRecord, 0, r.cfg.BatchSize)
		var rejects []model.RejectRecord

		for next < len(records) && records[next].Seq <= seqRange.To {
			record := records[next]
			next++

			if r.isDuplicate(record.Seq) {
				duplicates++
				continue
			}

			out, err := r.applyRecord(record, ingestedAt)
			if err != nil {
				return err
			}
			r.book.Finalise()

			if resuming && record.Seq <= replayHorizon {
				replayed++
				continue
			}

			if out.event != nil {
				applied++
				events = append(events, *out.event)
				r.metrics.OpsApplied.WithLabelValues(out.event.Kind).Inc()
				if out.event.Kind == model.KindCreate {
					r.metrics.PoolsCreated.Inc()
				}
			}
			if out.reject != nil {
				rejected++
				rejects = append(rejects, *out.reject)
				r.metrics.OpsRejected.WithLabelValues(out.reject.Reason).Inc()
			}
		}

		if err := r.flushWithRetry(ctx, events, rejects); err != nil {
			return fmt.Errorf("store batch: %w", err)
		}

		// Never move the checkpoint backwards while replaying.
		if r.checkpoint != nil && (!resuming || seqRange.To > replayHorizon) {
			if err := r.checkpoint.Save(seqRange.To); err != nil {
				return err
			}
		}

		r.logger.Info("batch complete",
			zap.Uint64("from", seqRange.From),
			zap.Uint64("to", seqRange.To),
			zap.Int("events", len(events)),
			zap.Int("rejects", len(rejects)),
		)
	}

	if r.snapshots != nil {
		if err := r.snapshots.UpsertPoolSnapshots(ctx, r.poolSnapshots()); err != nil {
			return fmt.Errorf("store pool snapshots: %w", err)
		}
	}

	r.logger.Info("run complete",
		zap.Int("applied", applied),
		zap.Int("rejected", rejected),
		zap.Int("replayed", replayed),
		zap.Int("duplicates", duplicates),
		zap.Uint64("last_seq", to),
	)

	return nil
}

func (r *Runner) flushWithRetry(ctx context.Context, events []model.EventRecord, rejects []model.RejectRecord) error {
	timer := prometheus.NewTimer(r.metrics.FlushSeconds)
	defer timer.ObserveDuration()

	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		if err := r.storage.PutEventBatch(events); err != nil {
			r.logger.Warn("event batch flush failed", zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	return withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		if err := r.storage.PutRejectBatch(rejects); err != nil {
			r.logger.Warn("reject batch flush failed", zap.Error(err))
			return err
		}
		return nil
	})
}

func (r *Runner) isDuplicate(seq uint64) bool {
	if _, ok := r.seen[seq]; ok {
		return true
	}
	r.seen[seq] = struct{}{}
	return false
}

func (r *Runner) poolSnapshots() []model.PoolSnapshot {
	pools := r.registry.Pools()
	snapshots := make([]model.PoolSnapshot, 0, len(pools))
	for _, pool := range pools {
		assetA, assetB := pool.Assets()
		reserveA, reserveB, lastUpdate := pool.Reserves()
		obs := pool.Observe()
		snapshots = append(snapshots, model.PoolSnapshot{
			Account:          pool.Account().Hex(),
			AssetA:           assetA.Hex(),
			AssetB:           assetB.Hex(),
			ReserveA:         reserveA.String(),
			ReserveB:         reserveB.String(),
			TotalShares:      pool.TotalShares().String(),
			PriceACumulative: obs.PriceACumulative.String(),
			PriceBCumulative: obs.PriceBCumulative.String(),
			LastUpdate:       lastUpdate,
			FirstSeenSeq:     r.firstSeen[pool.Account()],
		})
	}
	return snapshots
}

// readRecords loads and decodes every operation record, sorted by seq. The
// sort is stable so the first occurrence of a duplicated seq wins.
func readRecords(inputPath string) ([]model.OpRecord, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var records []model.OpRecord
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var record model.OpRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("parse scenario line %d: %w", lineNo, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan scenario: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Seq < records[j].Seq
	})

	return records, nil
}
