package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openarchive/canon/internal/hash"
	"github.com/openarchive/canon/internal/selector"
	"github.com/openarchive/canon/internal/storage"
	"github.com/openarchive/canon/internal/types"
)

// AddSource atomically grows a canonical group by one source record.
//
// In one IMMEDIATE transaction it upserts the canonical row, inserts the
// source and its page hashes, records the merge evidence, re-runs primary
// selection over the whole group and appends the audit entry. Either all
// of it commits or none of it does, so a crash mid-batch can never leave
// a source without a selected primary.
func (s *Store) AddSource(ctx context.Context, req storage.AddSourceRequest) (*types.CanonicalDocument, error) {
	if req.Record == nil || req.Canonical == nil {
		return nil, fmt.Errorf("record and canonical document are required")
	}
	if err := req.Record.Validate(); err != nil {
		return nil, fmt.Errorf("invalid source record: %w", err)
	}
	if req.Record.CanonicalID != req.Canonical.ID {
		return nil, fmt.Errorf("record canonical id %s does not match document %s", req.Record.CanonicalID, req.Canonical.ID)
	}
	if req.Method != "" && !req.Method.IsValid() {
		return nil, fmt.Errorf("invalid match method: %s", req.Method)
	}

	rec := req.Record
	if rec.IngestedAt.IsZero() {
		rec.IngestedAt = time.Now().UTC()
	}

	conn, cleanup, err := s.beginImmediate(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	bucket := hash.FuzzyBucket(rec.Digests.FuzzyHash)
	if err := upsertCanonical(ctx, conn, req.Canonical, rec.Digests.FuzzyHash, bucket, req.NormalizedText); err != nil {
		return nil, err
	}

	if err := insertSource(ctx, conn, rec, req.MetadataKey); err != nil {
		return nil, err
	}

	if req.Method != "" {
		_, err = conn.ExecContext(ctx, `
			INSERT INTO duplicate_groups (canonical_id, source_id, method, confidence)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(canonical_id, source_id) DO NOTHING
		`, rec.CanonicalID, rec.ID, req.Method, req.Confidence)
		if err != nil {
			return nil, &types.StoreWriteError{Operation: "record merge", Err: err}
		}
	}

	// Re-select the primary over the grown group. Selection is a pure
	// function of the records, so running it inside the transaction keeps
	// the primary flag consistent with the rows just written.
	group, err := getSources(ctx, conn, rec.CanonicalID)
	if err != nil {
		return nil, err
	}
	sel, err := selector.Select(group)
	if err != nil {
		return nil, fmt.Errorf("primary selection failed: %w", err)
	}

	if _, err := conn.ExecContext(ctx, `
		UPDATE document_sources
		SET is_primary = CASE WHEN source_id = ? THEN 1 ELSE 0 END
		WHERE canonical_id = ?
	`, sel.PrimarySourceID, rec.CanonicalID); err != nil {
		return nil, &types.StoreWriteError{Operation: "update primary flag", Err: err}
	}

	if _, err := conn.ExecContext(ctx, `
		UPDATE canonical_documents
		SET primary_source_id = ?, selection_reason = ?, duplicates_found = ?, updated_at = ?
		WHERE canonical_id = ?
	`, sel.PrimarySourceID, sel.Reason, len(group)-1, time.Now().UTC(), rec.CanonicalID); err != nil {
		return nil, &types.StoreWriteError{Operation: "update canonical", Err: err}
	}

	operation := "ingest"
	message := fmt.Sprintf("first source %s", rec.SourceName)
	if req.Method != "" {
		operation = "merge"
		message = fmt.Sprintf("merged %s via %s (confidence %.2f)", rec.SourceName, req.Method, req.Confidence)
	}
	if err := appendLog(ctx, conn, &types.ProcessingLogEntry{
		ID:          uuid.New().String(),
		BatchID:     req.BatchID,
		Operation:   operation,
		CanonicalID: rec.CanonicalID,
		Source:      rec.SourceName,
		Status:      types.LogOK,
		Message:     message,
	}); err != nil {
		return nil, err
	}

	updated, err := getCanonical(ctx, conn, rec.CanonicalID)
	if err != nil {
		return nil, err
	}

	if err := commit(ctx, conn); err != nil {
		return nil, err
	}
	return updated, nil
}

func insertSource(ctx context.Context, ex execer, rec *types.SourceRecord, metadataKey string) error {
	var downloadedAt interface{}
	if !rec.DownloadedAt.IsZero() {
		downloadedAt = rec.DownloadedAt
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO document_sources (
			source_id, canonical_id, source_name, collection, url, authority_tier,
			file_hash, content_hash, fuzzy_hash, metadata_key,
			word_score, corruption_score, line_score, overall_score,
			redaction_completeness, completeness, file_quality,
			is_primary, ingested_at, downloaded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`,
		rec.ID, rec.CanonicalID, rec.SourceName, rec.Collection, rec.URL, rec.AuthorityTier,
		rec.Digests.FileHash, rec.Digests.ContentHash, rec.Digests.FuzzyHash, metadataKey,
		rec.Quality.WordScore, rec.Quality.CorruptionScore, rec.Quality.LineScore, rec.Quality.OverallScore,
		rec.RedactionCompleteness, rec.Completeness, rec.FileQuality,
		rec.IngestedAt, downloadedAt,
	)
	if err != nil {
		return &types.StoreWriteError{Operation: "insert source", Err: err}
	}

	for idx, pageHash := range rec.Digests.PageHashes {
		if _, err := ex.ExecContext(ctx, `
			INSERT INTO source_pages (source_id, canonical_id, page_index, page_hash)
			VALUES (?, ?, ?, ?)
		`, rec.ID, rec.CanonicalID, idx, pageHash); err != nil {
			return &types.StoreWriteError{Operation: "insert page hash", Err: err}
		}
	}
	return nil
}

// GetSources returns the source records of a canonical group, primary
// first, then by ingestion time
func (s *Store) GetSources(ctx context.Context, canonicalID string) ([]*types.SourceRecord, error) {
	return getSources(ctx, s.db, canonicalID)
}

func getSources(ctx context.Context, ex execer, canonicalID string) ([]*types.SourceRecord, error) {
	rows, err := ex.QueryContext(ctx, `
		SELECT source_id, canonical_id, source_name, collection, url, authority_tier,
		       file_hash, content_hash, fuzzy_hash,
		       word_score, corruption_score, line_score, overall_score,
		       redaction_completeness, completeness, file_quality,
		       is_primary, ingested_at, downloaded_at
		FROM document_sources
		WHERE canonical_id = ?
		ORDER BY is_primary DESC, ingested_at ASC, source_id ASC
	`, canonicalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var records []*types.SourceRecord
	for rows.Next() {
		var rec types.SourceRecord
		var downloadedAt sql.NullTime
		err := rows.Scan(
			&rec.ID, &rec.CanonicalID, &rec.SourceName, &rec.Collection, &rec.URL, &rec.AuthorityTier,
			&rec.Digests.FileHash, &rec.Digests.ContentHash, &rec.Digests.FuzzyHash,
			&rec.Quality.WordScore, &rec.Quality.CorruptionScore, &rec.Quality.LineScore, &rec.Quality.OverallScore,
			&rec.RedactionCompleteness, &rec.Completeness, &rec.FileQuality,
			&rec.Primary, &rec.IngestedAt, &downloadedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source record: %w", err)
		}
		if downloadedAt.Valid {
			rec.DownloadedAt = downloadedAt.Time
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
