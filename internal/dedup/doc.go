// Package dedup detects copies of the same underlying document across
// independent, overlapping source collections.
//
// # Overview
//
// Given a new document's digests and metadata, the matcher runs four
// detection phases against the existing canonical corpus, in order, and
// stops at the first phase that yields a confident match:
//
//  1. Exact: file-hash or content-hash equality. O(1) store lookup,
//     confidence 1.0.
//  2. Fuzzy: candidates restricted to one fuzzy-hash bucket (blocking
//     keeps the comparison count near-linear); a candidate merges only if
//     both the fuzzy-hash similarity and an independent normalized-text
//     similarity clear their thresholds. Two signals must agree so a
//     hash-bucket collision can never merge on its own.
//  3. Metadata: for structured types (email, court filing, financial
//     record), exact match on a normalized comparison-key tuple, with
//     confidence scaled by how many identifying fields are populated.
//  4. Partial overlap: shared page hashes without a full match record a
//     relation between the two canonical documents. Never a merge.
//
// # Ambiguity
//
// A document matching two different canonical groups under different
// phases is an error condition. The matcher keeps the higher-confidence
// phase's group, surfaces the conflict on the decision for the pipeline
// to log and flag for review, and never retroactively merges two
// pre-existing groups; that would require an explicit reconciliation
// step this engine does not perform.
//
// # Degraded mode
//
// The fuzzy phase carries a per-document time budget and a candidate cap.
// When either is exceeded the matcher skips fuzzy comparison for the
// document and relies on exact and metadata matching only, reporting
// Degraded on the decision so the pipeline can log the reduced recall.
//
// # Configuration
//
// Thresholds are deliberately configuration, not constants: see Config
// and ConfigFromEnv for the CANON_DEDUP_* environment overrides.
package dedup
