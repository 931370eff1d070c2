package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"xykpool/internal/model"
)

// Store provides Postgres persistence for pool state and metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertPoolSnapshots inserts or updates pool state rows.
func (s *Store) UpsertPoolSnapshots(ctx context.Context, snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		batch.Queue(`
			INSERT INTO pools (
				pool_account, asset_a, asset_b, reserve_a, reserve_b, total_shares,
				price_a_cumulative, price_b_cumulative, last_update_ts, first_seen_seq,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
			ON CONFLICT (pool_account)
			DO UPDATE SET
				reserve_a = EXCLUDED.reserve_a,
				reserve_b = EXCLUDED.reserve_b,
				total_shares = EXCLUDED.total_shares,
				price_a_cumulative = EXCLUDED.price_a_cumulative,
				price_b_cumulative = EXCLUDED.price_b_cumulative,
				last_update_ts = EXCLUDED.last_update_ts,
				first_seen_seq = LEAST(pools.first_seen_seq, EXCLUDED.first_seen_seq),
				updated_at = now()
		`,
			snap.Account,
			snap.AssetA,
			snap.AssetB,
			snap.ReserveA,
			snap.ReserveB,
			snap.TotalShares,
			snap.PriceACumulative,
			snap.PriceBCumulative,
			int64(snap.LastUpdate),
			int64(snap.FirstSeenSeq),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				pool_account, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, add_count, remove_count, volume_a, volume_b, fee_a, fee_b,
				twap_a, twap_b, end_reserve_a, end_reserve_b, end_total_shares,
				fee_rate_a, fee_rate_b, apr, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,now(),now())
			ON CONFLICT (pool_account, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				add_count = EXCLUDED.add_count,
				remove_count = EXCLUDED.remove_count,
				volume_a = EXCLUDED.volume_a,
				volume_b = EXCLUDED.volume_b,
				fee_a = EXCLUDED.fee_a,
				fee_b = EXCLUDED.fee_b,
				twap_a = EXCLUDED.twap_a,
				twap_b = EXCLUDED.twap_b,
				end_reserve_a = EXCLUDED.end_reserve_a,
				end_reserve_b = EXCLUDED.end_reserve_b,
				end_total_shares = EXCLUDED.end_total_shares,
				fee_rate_a = EXCLUDED.fee_rate_a,
				fee_rate_b = EXCLUDED.fee_rate_b,
				apr = EXCLUDED.apr,
				updated_at = now()
		`,
			m.Pool,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.AddCount),
			int64(m.RemoveCount),
			m.VolumeA,
			m.VolumeB,
			m.FeeA,
			m.FeeB,
			m.TWAPA,
			m.TWAPB,
			m.EndReserveA,
			m.EndReserveB,
			m.EndTotalShares,
			m.FeeRateA,
			m.FeeRateB,
			m.APR,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metrics {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns last_processed_ts for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts uint64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_ts FROM poolsim_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return ts, true, nil
}

// SaveState upserts last_processed_ts for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO poolsim_state (name, last_processed_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_ts = EXCLUDED.last_processed_ts, updated_at = now()
	`, name, ts)
	return err
}
