package sqlite

const schema = `
-- Canonical documents table
-- canonical_id is derived from content_hash, so the UNIQUE constraint on
-- content_hash and the primary key enforce the same idempotency invariant
-- from two directions
CREATE TABLE IF NOT EXISTS canonical_documents (
    canonical_id TEXT PRIMARY KEY,
    document_type TEXT NOT NULL DEFAULT 'generic',
    title TEXT NOT NULL DEFAULT '',
    date TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL UNIQUE,
    fuzzy_hash TEXT NOT NULL DEFAULT '',
    fuzzy_bucket TEXT NOT NULL DEFAULT '',
    normalized_text TEXT NOT NULL DEFAULT '',
    primary_source_id TEXT NOT NULL DEFAULT '',
    selection_reason TEXT NOT NULL DEFAULT '',
    duplicates_found INTEGER NOT NULL DEFAULT 0 CHECK(duplicates_found >= 0),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_canonical_content_hash ON canonical_documents(content_hash);
CREATE INDEX IF NOT EXISTS idx_canonical_fuzzy_bucket ON canonical_documents(fuzzy_bucket);
CREATE INDEX IF NOT EXISTS idx_canonical_type ON canonical_documents(document_type);

-- Source records table (provenance)
CREATE TABLE IF NOT EXISTS document_sources (
    source_id TEXT PRIMARY KEY,
    canonical_id TEXT NOT NULL,
    source_name TEXT NOT NULL,
    collection TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    authority_tier TEXT NOT NULL CHECK(authority_tier IN ('court', 'government', 'official-release', 'archive', 'media')),
    file_hash TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    fuzzy_hash TEXT NOT NULL,
    metadata_key TEXT NOT NULL DEFAULT '',
    word_score REAL NOT NULL DEFAULT 0,
    corruption_score REAL NOT NULL DEFAULT 0,
    line_score REAL NOT NULL DEFAULT 0,
    overall_score REAL NOT NULL DEFAULT 0,
    redaction_completeness REAL NOT NULL DEFAULT 0,
    completeness REAL NOT NULL DEFAULT 0,
    file_quality REAL NOT NULL DEFAULT 0,
    is_primary INTEGER NOT NULL DEFAULT 0,
    ingested_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    downloaded_at DATETIME,
    FOREIGN KEY (canonical_id) REFERENCES canonical_documents(canonical_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_sources_canonical ON document_sources(canonical_id);
CREATE INDEX IF NOT EXISTS idx_sources_file_hash ON document_sources(file_hash);
CREATE INDEX IF NOT EXISTS idx_sources_content_hash ON document_sources(content_hash);
CREATE INDEX IF NOT EXISTS idx_sources_metadata_key ON document_sources(metadata_key);
CREATE INDEX IF NOT EXISTS idx_sources_source_name ON document_sources(source_name);

-- Per-page hashes for partial-overlap detection
CREATE TABLE IF NOT EXISTS source_pages (
    source_id TEXT NOT NULL,
    canonical_id TEXT NOT NULL,
    page_index INTEGER NOT NULL CHECK(page_index >= 0),
    page_hash TEXT NOT NULL,
    PRIMARY KEY (source_id, page_index),
    FOREIGN KEY (source_id) REFERENCES document_sources(source_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_pages_hash ON source_pages(page_hash);
CREATE INDEX IF NOT EXISTS idx_pages_canonical ON source_pages(canonical_id);

-- Merge evidence: which phase justified folding each source into its group
CREATE TABLE IF NOT EXISTS duplicate_groups (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    canonical_id TEXT NOT NULL,
    source_id TEXT NOT NULL,
    method TEXT NOT NULL CHECK(method IN ('exact', 'fuzzy', 'metadata')),
    confidence REAL NOT NULL CHECK(confidence >= 0.0 AND confidence <= 1.0),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (canonical_id, source_id),
    FOREIGN KEY (canonical_id) REFERENCES canonical_documents(canonical_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_dupgroups_canonical ON duplicate_groups(canonical_id);

-- Partial overlaps: one row per unordered pair, stored ordered a < b.
-- Page index lists are JSON arrays.
CREATE TABLE IF NOT EXISTS partial_overlaps (
    canonical_a TEXT NOT NULL,
    canonical_b TEXT NOT NULL,
    pages_a TEXT NOT NULL DEFAULT '[]',
    pages_b TEXT NOT NULL DEFAULT '[]',
    shared_pages INTEGER NOT NULL CHECK(shared_pages >= 1),
    recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (canonical_a, canonical_b),
    CHECK(canonical_a < canonical_b)
);

CREATE INDEX IF NOT EXISTS idx_overlaps_b ON partial_overlaps(canonical_b);

-- Processing log (append-only audit trail)
CREATE TABLE IF NOT EXISTS processing_log (
    id TEXT PRIMARY KEY,
    batch_id TEXT NOT NULL,
    operation TEXT NOT NULL,
    canonical_id TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL CHECK(status IN ('ok', 'skipped', 'degraded', 'review', 'error')),
    message TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_log_batch ON processing_log(batch_id);
CREATE INDEX IF NOT EXISTS idx_log_canonical ON processing_log(canonical_id);
CREATE INDEX IF NOT EXISTS idx_log_created_at ON processing_log(created_at);

-- Batch checkpoints: a (source, file hash) row exists only after every
-- write for that document committed, so interrupted batches resume
-- exactly where they stopped
CREATE TABLE IF NOT EXISTS ingest_checkpoints (
    source_name TEXT NOT NULL,
    file_hash TEXT NOT NULL,
    canonical_id TEXT NOT NULL,
    committed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (source_name, file_hash)
);
`
