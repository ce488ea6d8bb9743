package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/flexbid/core/model"
)

// SQLiteStore persists runs to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS runs (
        run_id TEXT PRIMARY KEY,
        started INTEGER NOT NULL,
        finished INTEGER NOT NULL,
        income REAL NOT NULL,
        failed INTEGER NOT NULL,
        record TEXT NOT NULL
    );
    CREATE INDEX IF NOT EXISTS runs_started ON runs (started);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Save inserts the run, replacing an earlier run with the same id.
func (s *SQLiteStore) Save(ctx context.Context, res model.WeekResult) error {
	rec := NewRecord(res)
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (run_id, started, finished, income, failed, record) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.StartedAt.UnixNano(), rec.FinishedAt.UnixNano(), rec.Income, rec.Failed, string(b))
	return err
}

// Query returns runs matching q, newest first.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Record, error) {
	var args []any
	query := `SELECT record FROM runs WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND started >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND started <= ?`
		args = append(args, q.End.UnixNano())
	}
	query += ` ORDER BY started DESC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

type scanner interface{ Scan(dest ...any) error }

func scanRecord(sc scanner) (Record, error) {
	var data string
	if err := sc.Scan(&data); err != nil {
		return Record{}, err
	}
	var r Record
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return Record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) Get(ctx context.Context, runID string) (Record, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx, `SELECT record FROM runs WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return r, err
}

func (s *SQLiteStore) Latest(ctx context.Context) (Record, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx, `SELECT record FROM runs ORDER BY started DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return r, err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
