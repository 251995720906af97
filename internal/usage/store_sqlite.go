package usage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite's default bindable-parameter limit is 999; with 10 columns per
// entry, 99 entries fit in one multi-row insert.
const (
	maxSQLiteParams   = 999
	columnsPerEntry   = 10
	maxEntriesPerStmt = maxSQLiteParams / columnsPerEntry
)

// SQLiteStore implements Store on an embedded SQLite database.
type SQLiteStore struct {
	db            *sql.DB
	retentionDays int
	stopCleanup   chan struct{}
	closeOnce     sync.Once
}

// OpenSQLite opens (or creates) the usage database at the given path.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage database: %w", err)
	}
	// The modernc driver serializes writes itself, but a single connection
	// avoids SQLITE_BUSY under concurrent flushes.
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewSQLiteStore creates the schema if needed and starts the retention
// cleanup goroutine when retentionDays > 0.
func NewSQLiteStore(db *sql.DB, retentionDays int) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS usage (
			id TEXT PRIMARY KEY,
			request_id TEXT NOT NULL,
			provider_id TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			model TEXT NOT NULL,
			provider TEXT NOT NULL,
			input_tokens INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			total_tokens INTEGER NOT NULL DEFAULT 0,
			raw_data JSON
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create usage table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_usage_timestamp ON usage(timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_usage_request_id ON usage(request_id)",
		"CREATE INDEX IF NOT EXISTS idx_usage_model ON usage(model)",
		"CREATE INDEX IF NOT EXISTS idx_usage_provider ON usage(provider)",
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return nil, fmt.Errorf("failed to create index: %w", err)
		}
	}

	s := &SQLiteStore{
		db:            db,
		retentionDays: retentionDays,
		stopCleanup:   make(chan struct{}),
	}
	if retentionDays > 0 {
		go s.cleanupLoop()
	}
	return s, nil
}

// WriteBatch inserts entries using multi-row statements, chunked to stay
// under the parameter limit.
func (s *SQLiteStore) WriteBatch(ctx context.Context, entries []*Entry) error {
	for start := 0; start < len(entries); start += maxEntriesPerStmt {
		end := start + maxEntriesPerStmt
		if end > len(entries) {
			end = len(entries)
		}
		if err := s.writeChunk(ctx, entries[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) writeChunk(ctx context.Context, entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO usage
		(id, request_id, provider_id, timestamp, model, provider, input_tokens, output_tokens, total_tokens, raw_data)
		VALUES `)

	args := make([]any, 0, len(entries)*columnsPerEntry)
	for i, e := range entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")

		var rawData any
		if len(e.RawData) > 0 {
			if data, err := json.Marshal(e.RawData); err == nil {
				rawData = string(data)
			}
		}
		args = append(args,
			e.ID, e.RequestID, e.ProviderID, e.Timestamp.Format(time.RFC3339Nano),
			e.Model, e.Provider, e.InputTokens, e.OutputTokens, e.TotalTokens, rawData,
		)
	}

	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to write usage batch: %w", err)
	}
	return nil
}

// Close stops the cleanup goroutine and closes the database.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopCleanup)
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteStore) cleanupLoop() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *SQLiteStore) cleanup() {
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays).Format(time.RFC3339Nano)
	res, err := s.db.Exec("DELETE FROM usage WHERE timestamp < ?", cutoff)
	if err != nil {
		slog.Error("usage retention cleanup failed", "error", err)
		return
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.Info("usage retention cleanup removed entries", "entries", n)
	}
}
