package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Aman-CERP/indexprep/internal/item"
)

// SQLiteSink writes batches into an SQLite FTS5 table, one row per item
// field.
type SQLiteSink struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	lock   *FileLock
	closed bool
}

var _ Sink = (*SQLiteSink)(nil)

// validateSQLiteIntegrity checks an existing database before opening.
// A missing database is valid.
func validateSQLiteIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// NewSQLiteSink opens or creates an FTS5 database at path. An empty path
// creates an in-memory database.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	var (
		dsn  string
		lock *FileLock
	)
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		var err error
		lock, err = acquire(path)
		if err != nil {
			return nil, err
		}

		if validErr := validateSQLiteIntegrity(path); validErr != nil {
			slog.Warn("sqlite_sink_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))
			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				_ = lock.Unlock()
				return nil, fmt.Errorf("database corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: an in-memory database exists per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// modernc.org/sqlite ignores most DSN parameters.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &SQLiteSink{db: db, path: path, lock: lock}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteSink) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS items (
		item_id    TEXT PRIMARY KEY,
		datasource TEXT NOT NULL,
		indexed_at INTEGER NOT NULL
	);

	-- One row per item field; only content is tokenized.
	CREATE VIRTUAL TABLE IF NOT EXISTS item_fields USING fts5(
		item_id UNINDEXED,
		field UNINDEXED,
		content,
		tokenize='unicode61'
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Write replaces the rows of every item in the batch in one transaction.
func (s *SQLiteSink) Write(ctx context.Context, b *item.Batch) error {
	if b.Len() == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("index is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// FTS5 tables don't support REPLACE, so rows are deleted first.
	deleteStmt, err := tx.PrepareContext(ctx, `DELETE FROM item_fields WHERE item_id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer deleteStmt.Close()

	itemStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO items(item_id, datasource, indexed_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare item statement: %w", err)
	}
	defer itemStmt.Close()

	fieldStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO item_fields(item_id, field, content) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare field statement: %w", err)
	}
	defer fieldStmt.Close()

	now := time.Now().Unix()
	for _, it := range b.Items {
		doc := DocumentFromItem(it)

		if _, err := deleteStmt.ExecContext(ctx, doc.ID); err != nil {
			return fmt.Errorf("failed to delete existing document %s: %w", doc.ID, err)
		}
		if _, err := itemStmt.ExecContext(ctx, doc.ID, doc.Datasource, now); err != nil {
			return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
		}
		for _, field := range doc.FieldIDs() {
			if _, err := fieldStmt.ExecContext(ctx, doc.ID, field, doc.Text(field)); err != nil {
				return fmt.Errorf("failed to index field %s of %s: %w", field, doc.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	slog.Debug("sqlite_sink_write",
		slog.String("path", s.path),
		slog.Int("documents", b.Len()))
	return nil
}

// Count implements Sink.
func (s *SQLiteSink) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, fmt.Errorf("index is closed")
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// Match implements Sink. text is matched as an FTS5 phrase.
func (s *SQLiteSink) Match(ctx context.Context, text string, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("index is closed")
	}

	phrase := `"` + strings.ReplaceAll(text, `"`, `""`) + `"`
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT item_id FROM item_fields WHERE item_fields MATCH ? ORDER BY item_id LIMIT ?`,
		phrase, limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close checkpoints the WAL, closes the database and releases the lock.
func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	err := s.db.Close()
	if unlockErr := s.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}
