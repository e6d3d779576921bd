//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"hpfold/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, record model.RunRecord) error {
	if record.RunID == "" {
		return errors.New("run id is required")
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeRunRecord(record)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (run_id, schema_version, codec_version, created_at_utc, sequence, min_energy, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			created_at_utc = excluded.created_at_utc,
			sequence = excluded.sequence,
			min_energy = excluded.min_energy,
			payload = excluded.payload
	`, record.RunID, record.SchemaVersion, record.CodecVersion, record.CreatedAtUTC, record.Sequence, record.MinEnergy, payload)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (model.RunRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.RunRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, err
	}

	record, err := DecodeRunRecord(payload)
	if err != nil {
		return model.RunRecord{}, false, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return record, true, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id, payload FROM runs
		ORDER BY created_at_utc DESC, run_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]model.RunRecord, 0)
	for rows.Next() {
		var runID string
		var payload []byte
		if err := rows.Scan(&runID, &payload); err != nil {
			return nil, err
		}
		record, err := DecodeRunRecord(payload)
		if err != nil {
			return nil, fmt.Errorf("decode run %s: %w", runID, err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) DeleteRun(ctx context.Context, runID string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
	return err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			created_at_utc TEXT NOT NULL,
			sequence TEXT NOT NULL,
			min_energy REAL NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at_utc);
	`)
	return err
}
