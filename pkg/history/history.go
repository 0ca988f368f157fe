package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/chatbridge/chatbridge/pkg/metrics"
)

// Store persists dispatch metrics in a local SQLite database so that
// throttling behavior and failure patterns can be inspected across process
// restarts.
type Store struct {
	db   *sql.DB
	path string
}

// Summary aggregates the stored dispatch outcomes.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Fallbacks int
}

// Open opens (creating if necessary) the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	store := &Store{
		db:   db,
		path: dbPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database tables
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS dispatches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		operation TEXT NOT NULL,
		prompt_hash TEXT,
		final_status TEXT NOT NULL,
		error_kind TEXT,
		wait_seconds REAL NOT NULL DEFAULT 0,
		adapter_seconds REAL NOT NULL DEFAULT 0,
		fallback BOOLEAN NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_dispatches_created_at ON dispatches(created_at);
	CREATE INDEX IF NOT EXISTS idx_dispatches_operation ON dispatches(operation);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record stores one dispatch metric.
func (s *Store) Record(m *metrics.DispatchMetric) error {
	_, err := s.db.Exec(`
		INSERT INTO dispatches
			(operation, prompt_hash, final_status, error_kind, wait_seconds, adapter_seconds, fallback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Operation, m.PromptHash, m.FinalStatus, m.ErrorKind,
		m.WaitSeconds, m.AdapterSeconds, m.Fallback, m.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record dispatch: %w", err)
	}
	return nil
}

// Recent returns up to limit dispatch metrics, most recent first.
func (s *Store) Recent(limit int) ([]metrics.DispatchMetric, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT operation, prompt_hash, final_status, error_kind, wait_seconds, adapter_seconds, fallback, created_at
		FROM dispatches
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispatch history: %w", err)
	}
	defer rows.Close()

	var result []metrics.DispatchMetric
	for rows.Next() {
		var m metrics.DispatchMetric
		var promptHash, errorKind sql.NullString
		if err := rows.Scan(&m.Operation, &promptHash, &m.FinalStatus, &errorKind,
			&m.WaitSeconds, &m.AdapterSeconds, &m.Fallback, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch row: %w", err)
		}
		m.PromptHash = promptHash.String
		m.ErrorKind = errorKind.String
		result = append(result, m)
	}
	return result, rows.Err()
}

// Prune deletes records older than maxAge and returns how many were removed.
func (s *Store) Prune(maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-maxAge).Unix()

	res, err := s.db.Exec(`DELETE FROM dispatches WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune dispatch history: %w", err)
	}
	return res.RowsAffected()
}

// Summarize aggregates outcome counts over the whole store.
func (s *Store) Summarize() (*Summary, error) {
	row := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN final_status = 'succeeded' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN final_status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN fallback THEN 1 ELSE 0 END), 0)
		FROM dispatches`)

	var summary Summary
	if err := row.Scan(&summary.Total, &summary.Succeeded, &summary.Failed, &summary.Fallbacks); err != nil {
		return nil, fmt.Errorf("failed to summarize dispatch history: %w", err)
	}
	return &summary, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
