package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openarchive/canon/internal/types"
)

// RecordOverlap stores a partial-overlap relation. One row per ordered
// pair; re-recording the same pair replaces the page lists, since a
// re-ingested copy may reveal more shared pages.
func (s *Store) RecordOverlap(ctx context.Context, overlap types.PartialOverlap) error {
	if err := overlap.Validate(); err != nil {
		return fmt.Errorf("invalid overlap: %w", err)
	}
	if overlap.RecordedAt.IsZero() {
		overlap.RecordedAt = time.Now().UTC()
	}

	pagesA, err := json.Marshal(overlap.PagesA)
	if err != nil {
		return fmt.Errorf("failed to encode page indexes: %w", err)
	}
	pagesB, err := json.Marshal(overlap.PagesB)
	if err != nil {
		return fmt.Errorf("failed to encode page indexes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO partial_overlaps (canonical_a, canonical_b, pages_a, pages_b, shared_pages, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(canonical_a, canonical_b) DO UPDATE SET
			pages_a = excluded.pages_a,
			pages_b = excluded.pages_b,
			shared_pages = excluded.shared_pages,
			recorded_at = excluded.recorded_at
	`, overlap.CanonicalA, overlap.CanonicalB, string(pagesA), string(pagesB), overlap.SharedPages, overlap.RecordedAt)
	if err != nil {
		return &types.StoreWriteError{Operation: "record overlap", Err: err}
	}
	return nil
}

// GetOverlaps returns the overlap relations touching a canonical
// document, on either side of the pair
func (s *Store) GetOverlaps(ctx context.Context, canonicalID string) ([]types.PartialOverlap, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT canonical_a, canonical_b, pages_a, pages_b, shared_pages, recorded_at
		FROM partial_overlaps
		WHERE canonical_a = ? OR canonical_b = ?
		ORDER BY canonical_a, canonical_b
	`, canonicalID, canonicalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query overlaps: %w", err)
	}
	defer rows.Close()

	var overlaps []types.PartialOverlap
	for rows.Next() {
		var o types.PartialOverlap
		var pagesA, pagesB string
		if err := rows.Scan(&o.CanonicalA, &o.CanonicalB, &pagesA, &pagesB, &o.SharedPages, &o.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan overlap: %w", err)
		}
		if err := json.Unmarshal([]byte(pagesA), &o.PagesA); err != nil {
			return nil, fmt.Errorf("failed to decode page indexes: %w", err)
		}
		if err := json.Unmarshal([]byte(pagesB), &o.PagesB); err != nil {
			return nil, fmt.Errorf("failed to decode page indexes: %w", err)
		}
		overlaps = append(overlaps, o)
	}
	return overlaps, rows.Err()
}
