// Package pipeline orchestrates ingestion batches: it fans document
// preparation out over a bounded worker pool, then matches and commits
// each document through a single serialized loop so canonical ids are
// allocated linearizably.
//
// Preparation (reading, hashing, quality scoring) is pure and CPU-bound,
// so it parallelizes freely. Everything that touches the store happens
// in batch order on one goroutine; the store's transaction is the only
// shared-state synchronization in the engine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/openarchive/canon/internal/dedup"
	"github.com/openarchive/canon/internal/hash"
	"github.com/openarchive/canon/internal/manifest"
	"github.com/openarchive/canon/internal/quality"
	"github.com/openarchive/canon/internal/storage"
	"github.com/openarchive/canon/internal/types"
)

// Config controls batch execution
type Config struct {
	// Workers bounds the preparation fan-out
	Workers int

	// DocTimeout bounds matching and committing one document
	DocTimeout time.Duration

	// Dedup configures the four matching phases
	Dedup dedup.Config
}

// DefaultConfig returns the default pipeline configuration
func DefaultConfig() Config {
	return Config{
		Workers:    4,
		DocTimeout: 30 * time.Second,
		Dedup:      dedup.DefaultConfig(),
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Workers < 1 || c.Workers > 256 {
		return fmt.Errorf("workers must be between 1 and 256 (got %d)", c.Workers)
	}
	if c.DocTimeout < time.Second {
		return fmt.Errorf("document timeout must be at least 1s (got %v)", c.DocTimeout)
	}
	return c.Dedup.Validate()
}

// Options configures one batch run
type Options struct {
	// Dir is the batch directory of extracted documents
	Dir string

	// Manifest carries the provenance shared by the batch
	Manifest *manifest.Manifest

	// BatchID ties log entries to this run; generated when empty
	BatchID string

	// Report receives one JSON line per committed canonical record.
	// Nil disables report output.
	Report io.Writer
}

// Result summarizes a completed batch
type Result struct {
	BatchID   string `json:"batch_id"`
	Processed int    `json:"processed"`
	Created   int    `json:"created"`
	Merged    int    `json:"merged"`
	Skipped   int    `json:"skipped"`
	Degraded  int    `json:"degraded"`
	Review    int    `json:"review"`
	Failed    int    `json:"failed"`
	Overlaps  int    `json:"overlaps"`
}

// Runner executes ingestion batches against a canonical store
type Runner struct {
	store  storage.Store
	cfg    Config
	logger zerolog.Logger
}

// NewRunner creates a batch runner
func NewRunner(store storage.Store, cfg Config, logger zerolog.Logger) (*Runner, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Runner{store: store, cfg: cfg, logger: logger}, nil
}

// prepared is the fan-out product for one document. Either err is set
// or doc, digests and quality are.
type prepared struct {
	name    string
	doc     *types.SourceDocument
	digests types.DigestSet
	quality types.QualityMetrics
	err     error
}

// Run executes one batch. Recoverable per-document failures are logged
// and skipped; a store write failure aborts the batch with all committed
// work intact. The returned result is valid even on error.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Manifest == nil {
		return nil, fmt.Errorf("manifest is required")
	}
	if err := opts.Manifest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if opts.BatchID == "" {
		opts.BatchID = uuid.New().String()
	}
	result := &Result{BatchID: opts.BatchID}

	paths, err := manifest.ListDocuments(opts.Dir)
	if err != nil {
		return result, err
	}
	r.logger.Info().
		Str("batch", opts.BatchID).
		Str("source", opts.Manifest.SourceName).
		Int("documents", len(paths)).
		Msg("starting batch")

	docs, err := r.prepare(ctx, paths, opts.Manifest)
	if err != nil {
		return result, err
	}

	matcher, err := dedup.NewMatcher(r.store, r.cfg.Dedup)
	if err != nil {
		return result, err
	}

	for _, p := range docs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := r.commitOne(ctx, matcher, p, opts, result); err != nil {
			r.logger.Error().Err(err).Str("batch", opts.BatchID).Msg("batch aborted")
			return result, err
		}
	}

	r.logger.Info().
		Str("batch", opts.BatchID).
		Int("processed", result.Processed).
		Int("created", result.Created).
		Int("merged", result.Merged).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("batch complete")
	return result, nil
}

// prepare reads, hashes and scores the batch documents over a bounded
// worker pool. Per-document failures land in the prepared entry; only
// infrastructure failures abort.
func (r *Runner) prepare(ctx context.Context, paths []string, m *manifest.Manifest) ([]*prepared, error) {
	out := make([]*prepared, len(paths))
	sem := semaphore.NewWeighted(int64(r.cfg.Workers))
	g, gctx := errgroup.WithContext(ctx)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			p := &prepared{name: filepath.Base(path)}
			out[i] = p

			doc, err := manifest.ReadDocument(path, m)
			if err != nil {
				p.err = err
				return nil
			}
			p.doc = doc

			digests, err := hash.Compute(doc)
			if err != nil {
				p.err = err
				return nil
			}
			p.digests = digests

			metrics := quality.Assess(doc.Text)
			if err := metrics.Validate(); err != nil {
				// Unassessable copies keep a zero overall score rather
				// than blocking the batch
				p.err = &types.QualityAssessmentError{Document: doc.Name, Err: err}
				p.quality = types.QualityMetrics{}
				return nil
			}
			p.quality = metrics
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// commitOne matches and commits a single prepared document. A non-nil
// return aborts the batch; recoverable failures are logged and counted.
func (r *Runner) commitOne(ctx context.Context, matcher *dedup.Matcher, p *prepared, opts Options, result *Result) error {
	log := r.logger.With().Str("batch", opts.BatchID).Str("document", p.name).Logger()

	// Quality assessment failures are recoverable: the document still
	// ingests, with a zero score
	var qualityErr *types.QualityAssessmentError
	if errors.As(p.err, &qualityErr) {
		log.Warn().Err(p.err).Msg("quality assessment failed, scoring zero")
		if err := r.appendLog(ctx, opts.BatchID, "assess", "", p.name, types.LogDegraded, p.err.Error()); err != nil {
			return err
		}
		p.err = nil
	}

	if p.err != nil {
		result.Failed++
		log.Warn().Err(p.err).Msg("document skipped")
		return r.appendLog(ctx, opts.BatchID, "extract", "", p.name, types.LogError, p.err.Error())
	}

	doc := p.doc

	committed, err := r.store.IsCommitted(ctx, doc.SourceName, p.digests.FileHash)
	if err != nil {
		return err
	}
	if committed {
		result.Skipped++
		log.Debug().Msg("already committed, skipping")
		return r.appendLog(ctx, opts.BatchID, "skip", "", p.name, types.LogSkipped, "already committed by an earlier run")
	}

	docCtx, cancel := context.WithTimeout(ctx, r.cfg.DocTimeout)
	defer cancel()

	decision, err := matcher.Match(docCtx, doc, p.digests)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			// Treat a blown document budget like a fuzzy-phase timeout:
			// fall back to no match rather than failing the document
			timeout := &types.DedupTimeout{Document: doc.Name, Budget: r.cfg.DocTimeout.String()}
			log.Warn().Err(timeout).Msg("matching timed out, continuing without fuzzy results")
			decision = &dedup.Decision{Degraded: true}
			if logErr := r.appendLog(ctx, opts.BatchID, "match", "", p.name, types.LogDegraded, timeout.Error()); logErr != nil {
				return logErr
			}
		} else {
			return fmt.Errorf("matching %s failed: %w", p.name, err)
		}
	}

	canonicalID := decision.CanonicalID
	if !decision.Matched {
		canonicalID = hash.CanonicalID(p.digests.ContentHash)
	}

	canonical := &types.CanonicalDocument{
		ID:           canonicalID,
		DocumentType: doc.DocumentType(),
		ContentHash:  p.digests.ContentHash,
	}
	if doc.Metadata != nil {
		canonical.Title = doc.Metadata.Title()
		canonical.Date = doc.Metadata.Date()
	}

	rec := &types.SourceRecord{
		ID:                    "src-" + uuid.New().String(),
		CanonicalID:           canonicalID,
		SourceName:            doc.SourceName,
		Collection:            doc.Collection,
		URL:                   doc.URL,
		AuthorityTier:         doc.AuthorityTier,
		Digests:               p.digests,
		Quality:               p.quality,
		RedactionCompleteness: redactionCompleteness(doc.Text),
		Completeness:          completeness(doc.Pages),
		// Text containers carry no resolution or damage signal beyond
		// character corruption
		FileQuality:  p.quality.CorruptionScore,
		IngestedAt:   time.Now().UTC(),
		DownloadedAt: doc.DownloadedAt,
	}

	metadataKey := ""
	if doc.Metadata != nil {
		metadataKey = doc.Metadata.ComparisonKey()
	}

	req := storage.AddSourceRequest{
		Record:         rec,
		Canonical:      canonical,
		MetadataKey:    metadataKey,
		NormalizedText: hash.Normalize(doc.Text),
		BatchID:        opts.BatchID,
	}
	if decision.Matched {
		req.Method = decision.Method
		req.Confidence = decision.Confidence
	}

	updated, err := r.store.AddSource(ctx, req)
	if err != nil {
		// Store write failures are fatal: committed documents stay, the
		// rest of the batch does not run
		return fmt.Errorf("committing %s failed: %w", p.name, err)
	}

	if decision.Matched {
		result.Merged++
	} else {
		result.Created++
	}
	if decision.Degraded {
		result.Degraded++
		if err := r.appendLog(ctx, opts.BatchID, "match", canonicalID, p.name, types.LogDegraded, "fuzzy phase skipped, exact and metadata matching only"); err != nil {
			return err
		}
	}
	if decision.Review != nil {
		result.Review++
		log.Warn().Str("canonical", canonicalID).Msg("ambiguous match flagged for review")
		if err := r.appendLog(ctx, opts.BatchID, "review", canonicalID, p.name, types.LogReview, decision.Review.Error()); err != nil {
			return err
		}
	}

	for _, hit := range decision.Overlaps {
		if hit.CanonicalID == canonicalID {
			continue
		}
		overlap := types.OrderedOverlap(canonicalID, hit.CanonicalID, hit.LocalPages, hit.RemotePages, len(hit.LocalPages), time.Now().UTC())
		if err := r.store.RecordOverlap(ctx, overlap); err != nil {
			return fmt.Errorf("recording overlap for %s failed: %w", p.name, err)
		}
		result.Overlaps++
		if err := r.appendLog(ctx, opts.BatchID, "overlap", canonicalID, p.name, types.LogOK,
			fmt.Sprintf("shares %d pages with %s", len(hit.LocalPages), hit.CanonicalID)); err != nil {
			return err
		}
	}

	report, err := buildReport(ctx, r.store, updated)
	if err != nil {
		return err
	}
	if err := writeReport(opts.Report, report); err != nil {
		return err
	}

	// Checkpoint last: a checkpoint row certifies every write above
	if err := r.store.MarkCommitted(ctx, doc.SourceName, p.digests.FileHash, canonicalID); err != nil {
		return fmt.Errorf("checkpointing %s failed: %w", p.name, err)
	}

	result.Processed++
	log.Info().
		Str("canonical", canonicalID).
		Bool("merged", decision.Matched).
		Str("method", string(decision.Method)).
		Msg("document committed")
	return nil
}

func (r *Runner) appendLog(ctx context.Context, batchID, operation, canonicalID, source string, status types.LogStatus, message string) error {
	return r.store.AppendLog(ctx, &types.ProcessingLogEntry{
		BatchID:     batchID,
		Operation:   operation,
		CanonicalID: canonicalID,
		Source:      source,
		Status:      status,
		Message:     message,
	})
}

