package sqlite

import (
	"context"
	"fmt"

	"github.com/openarchive/canon/internal/types"
)

// GetStatistics summarizes the canonical corpus: document and source
// counts, merges, overlaps, log volume, and breakdowns by quality
// category and source collection
func (s *Store) GetStatistics(ctx context.Context) (*types.Statistics, error) {
	stats := &types.Statistics{
		ByQuality: make(map[string]int),
		BySource:  make(map[string]int),
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM canonical_documents", &stats.CanonicalDocuments},
		{"SELECT COUNT(*) FROM document_sources", &stats.SourceRecords},
		{"SELECT COUNT(*) FROM duplicate_groups", &stats.DuplicatesFound},
		{"SELECT COUNT(*) FROM partial_overlaps", &stats.PartialOverlaps},
		{"SELECT COUNT(*) FROM processing_log", &stats.LogEntries},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count rows: %w", err)
		}
	}

	// Quality buckets use the same thresholds as QualityMetrics.Category
	rows, err := s.db.QueryContext(ctx, `
		SELECT CASE
			WHEN overall_score >= 0.90 THEN 'high'
			WHEN overall_score >= 0.70 THEN 'medium'
			ELSE 'low'
		END AS category, COUNT(*)
		FROM document_sources
		GROUP BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query quality breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan quality breakdown: %w", err)
		}
		stats.ByQuality[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sourceRows, err := s.db.QueryContext(ctx, `
		SELECT source_name, COUNT(*) FROM document_sources
		GROUP BY source_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query source breakdown: %w", err)
	}
	defer sourceRows.Close()
	for sourceRows.Next() {
		var name string
		var count int
		if err := sourceRows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan source breakdown: %w", err)
		}
		stats.BySource[name] = count
	}
	return stats, sourceRows.Err()
}
