// Package storage defines the canonical store interface.
//
// The store is the single writer boundary of the engine: all merges,
// selector re-runs and audit rows go through it, and AddSource is the
// one transactional operation that mutates a canonical group. Everything
// else is a read or an append.
package storage

import (
	"context"

	"github.com/openarchive/canon/internal/types"
)

// AddSourceRequest bundles everything the add-source transaction
// persists atomically: the source record, the canonical group it joins
// or creates, and the match evidence.
type AddSourceRequest struct {
	// Record is the new source record. Its Digests drive the index
	// columns; its ID must be set by the caller.
	Record *types.SourceRecord

	// Canonical is the group the source belongs to. For a first source
	// it is inserted; for a merge the existing row wins and this copy
	// only supplies the id.
	Canonical *types.CanonicalDocument

	// Method is the detection phase that justified the merge. Empty for
	// the first source of a new group.
	Method types.MatchMethod

	// Confidence is the match confidence recorded with the merge
	Confidence float64

	// MetadataKey is the normalized comparison key for structured
	// documents, empty otherwise
	MetadataKey string

	// NormalizedText is the normalized content, stored once per
	// canonical group for fuzzy-phase corroboration
	NormalizedText string

	// BatchID ties the resulting audit row to the ingestion batch
	BatchID string
}

// LogFilter narrows a processing-log query
type LogFilter struct {
	BatchID     string
	CanonicalID string
	Status      types.LogStatus
	Limit       int
}

// Store is the canonical document store. The sqlite package provides
// the only production implementation; the matcher consumes the four
// Find methods through its own narrower interface.
type Store interface {
	// UpsertCanonical inserts a canonical document if its id is new.
	// Idempotent: re-inserting the same id is a no-op.
	UpsertCanonical(ctx context.Context, doc *types.CanonicalDocument) error

	// GetCanonical retrieves a canonical document by id, nil when absent
	GetCanonical(ctx context.Context, id string) (*types.CanonicalDocument, error)

	// AddSource atomically inserts a source record, re-runs primary
	// selection over the grown group, updates the canonical row and
	// appends an audit entry. Returns the updated canonical document.
	AddSource(ctx context.Context, req AddSourceRequest) (*types.CanonicalDocument, error)

	// GetSources returns the source records of a canonical group,
	// primary first
	GetSources(ctx context.Context, canonicalID string) ([]*types.SourceRecord, error)

	// FindByDigest returns the canonical id owning any source with the
	// given file or content hash, or "" when none exists
	FindByDigest(ctx context.Context, digest string) (string, error)

	// FindByFuzzyBucket returns the canonical documents whose fuzzy
	// hash falls in the given blocking bucket
	FindByFuzzyBucket(ctx context.Context, bucket string) ([]types.FuzzyCandidate, error)

	// FindByMetadataKey returns the canonical id holding a source with
	// the given comparison key, or "" when none exists
	FindByMetadataKey(ctx context.Context, key string) (string, error)

	// FindByPageHash returns the canonical documents containing the
	// given page hash
	FindByPageHash(ctx context.Context, pageHash string) ([]types.PageHashHit, error)

	// ListDuplicates returns every canonical group with more than one
	// source, with the methods that justified each merge
	ListDuplicates(ctx context.Context) ([]*types.DuplicateGroup, error)

	// RecordOverlap stores a partial-overlap relation between two
	// canonical documents. Idempotent per ordered pair.
	RecordOverlap(ctx context.Context, overlap types.PartialOverlap) error

	// GetOverlaps returns the overlap relations touching a canonical
	// document
	GetOverlaps(ctx context.Context, canonicalID string) ([]types.PartialOverlap, error)

	// AppendLog appends one audit row. The log is append-only.
	AppendLog(ctx context.Context, entry *types.ProcessingLogEntry) error

	// GetLog returns audit rows matching the filter, newest first
	GetLog(ctx context.Context, filter LogFilter) ([]types.ProcessingLogEntry, error)

	// GetStatistics summarizes the canonical corpus
	GetStatistics(ctx context.Context) (*types.Statistics, error)

	// IsCommitted reports whether a (source, file hash) pair was already
	// fully committed by an earlier batch run
	IsCommitted(ctx context.Context, sourceName, fileHash string) (bool, error)

	// MarkCommitted checkpoints a fully committed (source, file hash)
	// pair so interrupted batches can resume without re-processing
	MarkCommitted(ctx context.Context, sourceName, fileHash, canonicalID string) error

	// Close releases the underlying database
	Close() error
}
