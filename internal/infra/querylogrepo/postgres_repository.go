package querylogrepo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/hydro-agent/internal/domain/querylog"
)

// PostgresRepository implements querylog.Repository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the query log table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS query_log (
			id           UUID PRIMARY KEY,
			query        TEXT NOT NULL,
			status       TEXT NOT NULL,
			kind         TEXT NOT NULL DEFAULT '',
			station_code TEXT NOT NULL DEFAULT '',
			message      TEXT NOT NULL DEFAULT '',
			duration_ms  BIGINT NOT NULL DEFAULT 0,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS query_log_created_at_idx ON query_log (created_at DESC);
	`)
	return err
}

// Insert implements querylog.Repository.
func (r *PostgresRepository) Insert(ctx context.Context, entry querylog.Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO query_log (id, query, status, kind, station_code, message, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, entry.Query, entry.Status, entry.Kind, entry.StationCode, entry.Message, entry.DurationMillis, entry.CreatedAt)
	return err
}

// Recent implements querylog.Repository.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]querylog.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, query, status, kind, station_code, message, duration_ms, created_at
		FROM query_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (querylog.Entry, error) {
		var entry querylog.Entry
		err := row.Scan(&entry.ID, &entry.Query, &entry.Status, &entry.Kind, &entry.StationCode, &entry.Message, &entry.DurationMillis, &entry.CreatedAt)
		return entry, err
	})
}

var _ querylog.Repository = (*PostgresRepository)(nil)
