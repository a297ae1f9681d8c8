// Package history stores which call ids were started when, in sqlite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"callcomposite/internal/domain"
	"callcomposite/internal/ports"
)

// DefaultRetention is how long records are kept.
const DefaultRetention = 31 * 24 * time.Hour

// Repository is a ports.HistoryRepository backed by one sqlite file.
type Repository struct {
	mu        sync.Mutex
	db        *sql.DB
	retention time.Duration
	now       func() time.Time
}

var _ ports.HistoryRepository = (*Repository)(nil)

// Option configures a Repository.
type Option func(*Repository)

// WithClock replaces time.Now for pruning.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// Open creates the database at path if needed and applies the schema.
// A retention of zero or less uses DefaultRetention.
func Open(path string, retention time.Duration, opts ...Option) (*Repository, error) {
	if path == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	if retention <= 0 {
		retention = DefaultRetention
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// One connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	r := &Repository{db: db, retention: retention, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

const schema = `
	CREATE TABLE IF NOT EXISTS call_history (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		started_on INTEGER NOT NULL,
		call_id    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS call_history_started_on ON call_history (started_on);
`

// Insert records callID under startedOn and prunes records past retention.
func (r *Repository) Insert(ctx context.Context, startedOn time.Time, callID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO call_history (started_on, call_id) VALUES (?, ?)`,
		startedOn.UnixNano(), callID,
	); err != nil {
		return fmt.Errorf("failed to insert call history: %w", err)
	}

	cutoff := r.now().Add(-r.retention).UnixNano()
	if _, err := tx.ExecContext(ctx, `DELETE FROM call_history WHERE started_on < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to prune call history: %w", err)
	}
	return tx.Commit()
}

// All returns records ordered by start time. Call ids sharing a start time
// are grouped in insertion order.
func (r *Repository) All(ctx context.Context) ([]domain.CallHistoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx,
		`SELECT started_on, call_id FROM call_history ORDER BY started_on, seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query call history: %w", err)
	}
	defer rows.Close()

	var records []domain.CallHistoryRecord
	for rows.Next() {
		var (
			startedOn int64
			callID    string
		)
		if err := rows.Scan(&startedOn, &callID); err != nil {
			return nil, fmt.Errorf("failed to scan call history: %w", err)
		}
		at := time.Unix(0, startedOn).UTC()
		if n := len(records); n > 0 && records[n-1].CallStartedOn.Equal(at) {
			records[n-1].CallIDs = append(records[n-1].CallIDs, callID)
			continue
		}
		records = append(records, domain.CallHistoryRecord{CallStartedOn: at, CallIDs: []string{callID}})
	}
	return records, rows.Err()
}

func (r *Repository) Close() error {
	return r.db.Close()
}
