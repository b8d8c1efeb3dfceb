// Package sqlite implements the canonical store on SQLite.
//
// The database is opened in WAL mode with foreign keys on. AddSource is
// the single write transaction that grows a canonical group; it uses
// BEGIN IMMEDIATE so concurrent batch runs against the same database
// serialize at the write lock instead of failing mid-transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/openarchive/canon/internal/storage"
	"github.com/openarchive/canon/internal/types"
)

// Store implements storage.Store on a SQLite database
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New opens (creating if necessary) the canonical store at path
func New(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// WAL keeps readers unblocked while a batch commits
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// beginImmediate acquires a dedicated connection and starts an IMMEDIATE
// transaction on it. IMMEDIATE takes the write lock up front, so two
// concurrent AddSource calls serialize here rather than deadlocking at
// commit. database/sql cannot express the transaction mode through
// BeginTx, hence the raw statements on a pinned connection.
func (s *Store) beginImmediate(ctx context.Context) (*sql.Conn, func(), error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to begin immediate transaction: %w", err)
	}

	cleanup := func() {
		// Background context so rollback runs even when ctx is done.
		// After a successful COMMIT this is a harmless no-op error.
		_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		conn.Close()
	}
	return conn, cleanup, nil
}

// commit finalizes an immediate transaction started by beginImmediate
func commit(ctx context.Context, conn *sql.Conn) error {
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return &types.StoreWriteError{Operation: "commit", Err: err}
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
