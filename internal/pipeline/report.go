package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/openarchive/canon/internal/storage"
	"github.com/openarchive/canon/internal/types"
)

// ReportSource is one provenance entry in a canonical report record
type ReportSource struct {
	Name         string    `json:"name"`
	Collection   string    `json:"collection,omitempty"`
	URL          string    `json:"url,omitempty"`
	DownloadedAt time.Time `json:"downloaded_at,omitempty"`
	Quality      float64   `json:"quality"`
	Primary      bool      `json:"primary"`
}

// ReportRecord is one line of the batch report: the canonical document
// with its full provenance and cross references
type ReportRecord struct {
	CanonicalID     string             `json:"canonical_id"`
	DocumentType    types.DocumentType `json:"document_type"`
	Title           string             `json:"title,omitempty"`
	Date            string             `json:"date,omitempty"`
	ContentHash     string             `json:"content_hash"`
	DuplicatesFound int                `json:"duplicates_found"`
	PrimarySource   string             `json:"primary_source"`
	SelectionReason string             `json:"selection_reason,omitempty"`
	Sources         []ReportSource     `json:"sources"`
	CrossReferences []string           `json:"cross_references,omitempty"`
}

// buildReport assembles the report record for a canonical document from
// the store's current view of the group
func buildReport(ctx context.Context, store storage.Store, canonical *types.CanonicalDocument) (*ReportRecord, error) {
	sources, err := store.GetSources(ctx, canonical.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sources for report: %w", err)
	}

	record := &ReportRecord{
		CanonicalID:     canonical.ID,
		DocumentType:    canonical.DocumentType,
		Title:           canonical.Title,
		Date:            canonical.Date,
		ContentHash:     canonical.ContentHash,
		DuplicatesFound: canonical.DuplicatesFound,
		SelectionReason: canonical.SelectionReason,
	}

	for _, src := range sources {
		if src.Primary {
			record.PrimarySource = src.SourceName
		}
		record.Sources = append(record.Sources, ReportSource{
			Name:         src.SourceName,
			Collection:   src.Collection,
			URL:          src.URL,
			DownloadedAt: src.DownloadedAt,
			Quality:      src.Quality.OverallScore,
			Primary:      src.Primary,
		})
	}

	overlaps, err := store.GetOverlaps(ctx, canonical.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load overlaps for report: %w", err)
	}
	for _, o := range overlaps {
		other := o.CanonicalA
		if other == canonical.ID {
			other = o.CanonicalB
		}
		record.CrossReferences = append(record.CrossReferences, other)
	}

	return record, nil
}

// writeReport emits one report record as a JSON line
func writeReport(w io.Writer, record *ReportRecord) error {
	if w == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode report record: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return fmt.Errorf("failed to write report record: %w", err)
	}
	return nil
}
