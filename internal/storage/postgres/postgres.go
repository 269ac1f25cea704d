package postgres

import (
	"context"
	"fmt"

	"github.com/FranksOps/trendscout/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS term_records (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	term TEXT NOT NULL,
	points INTEGER NOT NULL,
	latest DOUBLE PRECISION NOT NULL,
	delta DOUBLE PRECISION NOT NULL,
	selected BOOLEAN NOT NULL,
	result_file TEXT,
	result_count INTEGER NOT NULL,
	list_length DOUBLE PRECISION,
	error TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_term_records_run ON term_records (run_id);
`

// New creates a new Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("context: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("context: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, r *storage.Record) error {
	query := `
	INSERT INTO term_records (
		id, run_id, term, points, latest, delta, selected, result_file, result_count, list_length, error, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := b.pool.Exec(ctx, query,
		r.ID,
		r.RunID,
		r.Term,
		r.Points,
		r.Latest,
		r.Delta,
		r.Selected,
		r.ResultFile,
		r.ResultCount,
		r.ListLength,
		r.Error,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("context: %w", err)
	}

	return nil
}

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Record, error) {
	query := `SELECT id, run_id, term, points, latest, delta, selected, result_file, result_count, list_length, error, created_at FROM term_records WHERE 1=1`
	args := []any{}
	param := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.RunID != "" {
		query += ` AND run_id = ` + param(filter.RunID)
	}
	if filter.Term != "" {
		query += ` AND term = ` + param(filter.Term)
	}
	if filter.Selected != nil {
		query += ` AND selected = ` + param(*filter.Selected)
	}
	if filter.Since != nil {
		query += ` AND created_at >= ` + param(*filter.Since)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ` + param(filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ` + param(filter.Offset)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	defer rows.Close()

	var results []*storage.Record
	for rows.Next() {
		var r storage.Record
		var resultFile, errText *string

		err := rows.Scan(
			&r.ID, &r.RunID, &r.Term, &r.Points, &r.Latest, &r.Delta, &r.Selected,
			&resultFile, &r.ResultCount, &r.ListLength, &errText, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("context: %w", err)
		}
		if resultFile != nil {
			r.ResultFile = *resultFile
		}
		if errText != nil {
			r.Error = *errText
		}

		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}

	return results, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
