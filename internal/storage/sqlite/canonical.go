package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/openarchive/canon/internal/types"
)

// execer is satisfied by *sql.DB and *sql.Conn so the same statements
// serve both standalone calls and the add-source transaction
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// UpsertCanonical inserts a canonical document if its id is new.
// Re-inserting an existing id is a no-op; the canonical id is a pure
// function of the content hash, so the first insert always wins and
// later copies of the same content land on the same row.
func (s *Store) UpsertCanonical(ctx context.Context, doc *types.CanonicalDocument) error {
	return upsertCanonical(ctx, s.db, doc, "", "", "")
}

func upsertCanonical(ctx context.Context, ex execer, doc *types.CanonicalDocument, fuzzyHash, fuzzyBucket, normalizedText string) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := ex.ExecContext(ctx, `
		INSERT INTO canonical_documents (
			canonical_id, document_type, title, date, content_hash,
			fuzzy_hash, fuzzy_bucket, normalized_text,
			primary_source_id, selection_reason, duplicates_found,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(canonical_id) DO NOTHING
	`,
		doc.ID, doc.DocumentType, doc.Title, doc.Date, doc.ContentHash,
		fuzzyHash, fuzzyBucket, normalizedText,
		doc.PrimarySourceID, doc.SelectionReason, doc.DuplicatesFound,
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return &types.StoreWriteError{Operation: "upsert canonical", Err: err}
	}
	return nil
}

// GetCanonical retrieves a canonical document by id, nil when absent
func (s *Store) GetCanonical(ctx context.Context, id string) (*types.CanonicalDocument, error) {
	return getCanonical(ctx, s.db, id)
}

func getCanonical(ctx context.Context, ex execer, id string) (*types.CanonicalDocument, error) {
	var doc types.CanonicalDocument
	err := ex.QueryRowContext(ctx, `
		SELECT canonical_id, document_type, title, date, content_hash,
		       primary_source_id, selection_reason, duplicates_found,
		       created_at, updated_at
		FROM canonical_documents
		WHERE canonical_id = ?
	`, id).Scan(
		&doc.ID, &doc.DocumentType, &doc.Title, &doc.Date, &doc.ContentHash,
		&doc.PrimarySourceID, &doc.SelectionReason, &doc.DuplicatesFound,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get canonical document: %w", err)
	}
	return &doc, nil
}

// FindByDigest returns the canonical id owning any source record with
// the given file or content hash, or "" when none exists
func (s *Store) FindByDigest(ctx context.Context, digest string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT canonical_id FROM document_sources
		WHERE file_hash = ? OR content_hash = ?
		LIMIT 1
	`, digest, digest).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up digest: %w", err)
	}
	return id, nil
}

// FindByFuzzyBucket returns the canonical documents whose fuzzy hash
// falls in the given blocking bucket, with the stored normalized text
// for corroboration
func (s *Store) FindByFuzzyBucket(ctx context.Context, bucket string) ([]types.FuzzyCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT canonical_id, fuzzy_hash, normalized_text
		FROM canonical_documents
		WHERE fuzzy_bucket = ?
		ORDER BY canonical_id
	`, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to query fuzzy bucket: %w", err)
	}
	defer rows.Close()

	var candidates []types.FuzzyCandidate
	for rows.Next() {
		var c types.FuzzyCandidate
		if err := rows.Scan(&c.CanonicalID, &c.FuzzyHash, &c.NormalizedText); err != nil {
			return nil, fmt.Errorf("failed to scan fuzzy candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// FindByMetadataKey returns the canonical id holding a source with the
// given metadata comparison key, or "" when none exists
func (s *Store) FindByMetadataKey(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT canonical_id FROM document_sources
		WHERE metadata_key = ?
		LIMIT 1
	`, key).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up metadata key: %w", err)
	}
	return id, nil
}

// FindByPageHash returns the canonical documents containing the given
// page hash. Each canonical appears once per distinct matching page.
func (s *Store) FindByPageHash(ctx context.Context, pageHash string) ([]types.PageHashHit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT canonical_id, page_index, page_hash
		FROM source_pages
		WHERE page_hash = ?
		ORDER BY canonical_id, page_index
	`, pageHash)
	if err != nil {
		return nil, fmt.Errorf("failed to query page hash: %w", err)
	}
	defer rows.Close()

	var hits []types.PageHashHit
	for rows.Next() {
		var h types.PageHashHit
		if err := rows.Scan(&h.CanonicalID, &h.PageIndex, &h.PageHash); err != nil {
			return nil, fmt.Errorf("failed to scan page hash hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// ListDuplicates returns every canonical group holding more than one
// source record, with the detection methods that justified each merge
func (s *Store) ListDuplicates(ctx context.Context) ([]*types.DuplicateGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT canonical_id FROM document_sources
		GROUP BY canonical_id
		HAVING COUNT(*) > 1
		ORDER BY canonical_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list duplicate groups: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan canonical id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var groups []*types.DuplicateGroup
	for _, id := range ids {
		group := &types.DuplicateGroup{CanonicalID: id}

		sources, err := s.GetSources(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, rec := range sources {
			group.SourceIDs = append(group.SourceIDs, rec.ID)
			group.Sources = append(group.Sources, *rec)
		}

		methodRows, err := s.db.QueryContext(ctx, `
			SELECT method FROM duplicate_groups
			WHERE canonical_id = ?
			ORDER BY created_at
		`, id)
		if err != nil {
			return nil, fmt.Errorf("failed to query merge methods: %w", err)
		}
		for methodRows.Next() {
			var m types.MatchMethod
			if err := methodRows.Scan(&m); err != nil {
				methodRows.Close()
				return nil, fmt.Errorf("failed to scan merge method: %w", err)
			}
			group.Methods = append(group.Methods, m)
		}
		if err := methodRows.Err(); err != nil {
			methodRows.Close()
			return nil, err
		}
		methodRows.Close()

		groups = append(groups, group)
	}
	return groups, nil
}
