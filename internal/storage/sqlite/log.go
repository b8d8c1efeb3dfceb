package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openarchive/canon/internal/storage"
	"github.com/openarchive/canon/internal/types"
)

// AppendLog appends one audit row. The log is append-only; nothing ever
// updates or deletes rows once written.
func (s *Store) AppendLog(ctx context.Context, entry *types.ProcessingLogEntry) error {
	return appendLog(ctx, s.db, entry)
}

func appendLog(ctx context.Context, ex execer, entry *types.ProcessingLogEntry) error {
	if entry.Operation == "" {
		return fmt.Errorf("operation is required")
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO processing_log (id, batch_id, operation, canonical_id, source, status, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.BatchID, entry.Operation, entry.CanonicalID, entry.Source, entry.Status, entry.Message, entry.CreatedAt)
	if err != nil {
		return &types.StoreWriteError{Operation: "append log", Err: err}
	}
	return nil
}

// GetLog returns audit rows matching the filter, newest first
func (s *Store) GetLog(ctx context.Context, filter storage.LogFilter) ([]types.ProcessingLogEntry, error) {
	whereClauses := []string{}
	args := []interface{}{}

	if filter.BatchID != "" {
		whereClauses = append(whereClauses, "batch_id = ?")
		args = append(args, filter.BatchID)
	}
	if filter.CanonicalID != "" {
		whereClauses = append(whereClauses, "canonical_id = ?")
		args = append(args, filter.CanonicalID)
	}
	if filter.Status != "" {
		whereClauses = append(whereClauses, "status = ?")
		args = append(args, filter.Status)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	limitSQL := ""
	if filter.Limit > 0 {
		limitSQL = fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	query := fmt.Sprintf(`
		SELECT id, batch_id, operation, canonical_id, source, status, message, created_at
		FROM processing_log
		%s
		ORDER BY created_at DESC, id DESC
		%s
	`, whereSQL, limitSQL)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query processing log: %w", err)
	}
	defer rows.Close()

	var entries []types.ProcessingLogEntry
	for rows.Next() {
		var e types.ProcessingLogEntry
		if err := rows.Scan(&e.ID, &e.BatchID, &e.Operation, &e.CanonicalID, &e.Source, &e.Status, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// IsCommitted reports whether a (source, file hash) pair was already
// fully committed by an earlier batch run
func (s *Store) IsCommitted(ctx context.Context, sourceName, fileHash string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM ingest_checkpoints
		WHERE source_name = ? AND file_hash = ?
	`, sourceName, fileHash).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check checkpoint: %w", err)
	}
	return count > 0, nil
}

// MarkCommitted checkpoints a fully committed (source, file hash) pair.
// Written only after every other write for the document has committed,
// so a checkpoint row is proof the document needs no re-processing.
func (s *Store) MarkCommitted(ctx context.Context, sourceName, fileHash, canonicalID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_checkpoints (source_name, file_hash, canonical_id)
		VALUES (?, ?, ?)
		ON CONFLICT(source_name, file_hash) DO NOTHING
	`, sourceName, fileHash, canonicalID)
	if err != nil {
		return &types.StoreWriteError{Operation: "mark committed", Err: err}
	}
	return nil
}
