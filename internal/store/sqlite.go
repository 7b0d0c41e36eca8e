package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"bitwatch/internal/analysis"
	"bitwatch/internal/classify"
	"bitwatch/internal/stats"
)

// Schema for the bitwatch record store.
const schema = `
CREATE TABLE IF NOT EXISTS records (
    id          TEXT PRIMARY KEY,
    timestamp   INTEGER NOT NULL,
    kind        TEXT NOT NULL,
    input       TEXT NOT NULL,
    pattern     TEXT NOT NULL,
    complexity  REAL NOT NULL,
    summary     TEXT NOT NULL,
    metrics     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_timestamp ON records(timestamp);
CREATE INDEX IF NOT EXISTS idx_records_pattern ON records(pattern, timestamp);
`

// SQLiteStore persists analysis records in a SQLite database. Metrics are
// stored as a JSON column; the classification fields are first-class
// columns so history queries can filter on them.
type SQLiteStore struct {
	db  *sql.DB
	max int
}

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(path string, maxRecords int) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store: sqlite backend requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db, max: maxRecords}, nil
}

// Save inserts a record, ignoring duplicates by ID, then prunes to the
// configured maximum.
func (s *SQLiteStore) Save(record *analysis.Record) error {
	metricsJSON, err := json.Marshal(record.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT OR IGNORE INTO records (id, timestamp, kind, input, pattern, complexity, summary, metrics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Timestamp, string(record.Kind), record.Input,
		string(record.Classification.Type), record.Classification.ComplexityLevel,
		record.Summary, string(metricsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	if s.max > 0 {
		if _, err := s.Prune(s.max); err != nil {
			return err
		}
	}
	return nil
}

// LoadRecent returns up to n records, newest first.
func (s *SQLiteStore) LoadRecent(n int) ([]analysis.Record, error) {
	query := `
		SELECT id, timestamp, kind, input, pattern, complexity, summary, metrics
		FROM records
		ORDER BY timestamp DESC, rowid DESC`
	args := []any{}
	if n > 0 {
		query += ` LIMIT ?`
		args = append(args, n)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []analysis.Record
	for rows.Next() {
		var (
			r           analysis.Record
			kind        string
			pattern     string
			complexity  float64
			metricsJSON string
		)
		if err := rows.Scan(&r.ID, &r.Timestamp, &kind, &r.Input, &pattern, &complexity, &r.Summary, &metricsJSON); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		r.Kind = analysis.ResultKind(kind)
		r.Classification = classify.Classification{
			Type:            classify.PatternType(pattern),
			ComplexityLevel: complexity,
		}

		var m stats.Metrics
		if err := json.Unmarshal([]byte(metricsJSON), &m); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
		r.Metrics = m

		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Prune deletes the oldest records until at most max remain.
func (s *SQLiteStore) Prune(max int) (int, error) {
	if max < 0 {
		max = 0
	}

	result, err := s.db.Exec(`
		DELETE FROM records WHERE id NOT IN (
			SELECT id FROM records ORDER BY timestamp DESC, rowid DESC LIMIT ?
		)`, max)
	if err != nil {
		return 0, fmt.Errorf("prune records: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return int(removed), nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
