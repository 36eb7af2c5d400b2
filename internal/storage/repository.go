package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wolfcubecho/quil-monitor/internal/metrics"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	upsertDailyRecordSQL = `INSERT INTO daily_records (
        day,
        balance_quil,
        earnings_quil,
        shard_count,
        duration_sum_s,
        fast_count,
        medium_count,
        slow_count
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    )
    ON CONFLICT (day) DO UPDATE
    SET
        balance_quil   = EXCLUDED.balance_quil,
        earnings_quil  = EXCLUDED.earnings_quil,
        shard_count    = EXCLUDED.shard_count,
        duration_sum_s = EXCLUDED.duration_sum_s,
        fast_count     = EXCLUDED.fast_count,
        medium_count   = EXCLUDED.medium_count,
        slow_count     = EXCLUDED.slow_count;`

	listRecordsBetweenSQL = `SELECT
        day,
        balance_quil,
        earnings_quil,
        shard_count,
        duration_sum_s,
        fast_count,
        medium_count,
        slow_count
    FROM daily_records
    WHERE ($1 = '' OR day >= $1)
      AND ($2 = '' OR day < $2)
    ORDER BY day;`

	listRecentRecordsSQL = `SELECT
        day,
        balance_quil,
        earnings_quil,
        shard_count,
        duration_sum_s,
        fast_count,
        medium_count,
        slow_count
    FROM daily_records
    ORDER BY day DESC
    LIMIT $1;`

	countRecordsSQL = `SELECT COUNT(*) FROM daily_records;`
)

// DailyRecordStore defines operations for the optional Postgres mirror of
// the history file.
type DailyRecordStore interface {
	UpsertDailyRecord(ctx context.Context, rec metrics.DailyRecord) error
	ListRecordsBetween(ctx context.Context, from, to string) ([]metrics.DailyRecord, error)
	ListRecentRecords(ctx context.Context, limit int) ([]metrics.DailyRecord, error)
	CountRecords(ctx context.Context) (int64, error)
}

// Store mirrors daily records into PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertDailyRecord persists or replaces one day's record.
func (s *Store) UpsertDailyRecord(ctx context.Context, rec metrics.DailyRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, upsertDailyRecordSQL,
		rec.Date,
		rec.Balance.String(),
		rec.Earnings.String(),
		rec.ShardCount,
		rec.DurationSum,
		rec.Buckets.Fast,
		rec.Buckets.Medium,
		rec.Buckets.Slow,
	)
	if execErr != nil {
		return fmt.Errorf("upsert daily record: %w", execErr)
	}
	return nil
}

// ListRecordsBetween lists records with from <= day < to. An empty
// bound leaves that side of the window open.
func (s *Store) ListRecordsBetween(ctx context.Context, from, to string) ([]metrics.DailyRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecordsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list records between: %w", queryErr)
	}
	defer rows.Close()

	return collectRecords(rows, 0)
}

// ListRecentRecords lists the most recent records ordered by descending day.
func (s *Store) ListRecentRecords(ctx context.Context, limit int) ([]metrics.DailyRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentRecordsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent records: %w", queryErr)
	}
	defer rows.Close()

	return collectRecords(rows, limit)
}

// CountRecords counts stored records.
func (s *Store) CountRecords(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countRecordsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count records: %w", scanErr)
	}
	return count, nil
}

func collectRecords(rows pgx.Rows, hint int) ([]metrics.DailyRecord, error) {
	records := make([]metrics.DailyRecord, 0, hint)
	for rows.Next() {
		rec, scanErr := scanDailyRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

func scanDailyRecord(rows pgx.Rows) (metrics.DailyRecord, error) {
	var (
		rec         metrics.DailyRecord
		balanceStr  string
		earningsStr string
	)

	if err := rows.Scan(
		&rec.Date,
		&balanceStr,
		&earningsStr,
		&rec.ShardCount,
		&rec.DurationSum,
		&rec.Buckets.Fast,
		&rec.Buckets.Medium,
		&rec.Buckets.Slow,
	); err != nil {
		return metrics.DailyRecord{}, err
	}

	var convErr error
	rec.Balance, convErr = decimal.NewFromString(balanceStr)
	if convErr != nil {
		return metrics.DailyRecord{}, fmt.Errorf("parse balance: %w", convErr)
	}
	rec.Earnings, convErr = decimal.NewFromString(earningsStr)
	if convErr != nil {
		return metrics.DailyRecord{}, fmt.Errorf("parse earnings: %w", convErr)
	}

	return rec, nil
}

var _ DailyRecordStore = (*Store)(nil)
