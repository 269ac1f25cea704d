package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/FranksOps/trendscout/internal/storage"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS term_records (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	term TEXT NOT NULL,
	points INTEGER NOT NULL,
	latest REAL NOT NULL,
	delta REAL NOT NULL,
	selected BOOLEAN NOT NULL,
	result_file TEXT,
	result_count INTEGER NOT NULL,
	list_length REAL,
	error TEXT,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_term_records_run ON term_records (run_id);
`

// New creates a new SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("context: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, r *storage.Record) error {
	query := `
	INSERT INTO term_records (
		id, run_id, term, points, latest, delta, selected, result_file, result_count, list_length, error, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := b.db.ExecContext(ctx, query,
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

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Record, error) {
	query := `SELECT id, run_id, term, points, latest, delta, selected, result_file, result_count, list_length, error, created_at FROM term_records WHERE 1=1`
	args := []any{}

	if filter.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}
	if filter.Term != "" {
		query += ` AND term = ?`
		args = append(args, filter.Term)
	}
	if filter.Selected != nil {
		query += ` AND selected = ?`
		args = append(args, *filter.Selected)
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		// SQLite only accepts OFFSET after a LIMIT clause.
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	defer rows.Close()

	var results []*storage.Record
	for rows.Next() {
		var r storage.Record
		var resultFile, errText sql.NullString
		var listLength sql.NullFloat64

		err := rows.Scan(
			&r.ID, &r.RunID, &r.Term, &r.Points, &r.Latest, &r.Delta, &r.Selected,
			&resultFile, &r.ResultCount, &listLength, &errText, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("context: %w", err)
		}

		r.ResultFile = resultFile.String
		r.Error = errText.String
		if listLength.Valid {
			v := listLength.Float64
			r.ListLength = &v
		}

		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}

	return results, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
