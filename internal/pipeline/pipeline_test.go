package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/openarchive/canon/internal/manifest"
	"github.com/openarchive/canon/internal/storage"
	"github.com/openarchive/canon/internal/storage/sqlite"
	"github.com/openarchive/canon/internal/types"
)

// filingText is a clean extracted document used across scenarios
const filingText = "the court having considered the motion and the supporting " +
	"exhibits finds that the parties entered the agreement on the date stated " +
	"and that the record supports the relief requested in the petition the " +
	"motion is granted and the clerk is directed to enter judgment for the " +
	"plaintiff with costs assessed against the defendant as provided by the " +
	"order of this court"

func newTestRunner(t *testing.T) (*Runner, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "canon.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	runner, err := NewRunner(store, DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create runner: %v", err)
	}
	return runner, store
}

// writeBatch creates a batch directory with the given documents
func writeBatch(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return dir
}

func batchManifest(source string, tier types.AuthorityTier) *manifest.Manifest {
	return &manifest.Manifest{
		SourceName:    source,
		Collection:    "release-1",
		AuthorityTier: tier,
	}
}

func run(t *testing.T, runner *Runner, dir, source string, tier types.AuthorityTier) *Result {
	t.Helper()
	result, err := runner.Run(context.Background(), Options{
		Dir:      dir,
		Manifest: batchManifest(source, tier),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return result
}

// Scenario: the same bytes delivered by two different sources end up
// under one canonical id with both sources recorded
func TestIdenticalCopiesMerge(t *testing.T) {
	runner, store := newTestRunner(t)
	ctx := context.Background()

	dirA := writeBatch(t, map[string]string{"filing.txt": filingText})
	dirB := writeBatch(t, map[string]string{"filing-copy.txt": filingText})

	resA := run(t, runner, dirA, "national-archives", types.TierGovernment)
	if resA.Created != 1 || resA.Merged != 0 {
		t.Fatalf("first batch: created=%d merged=%d", resA.Created, resA.Merged)
	}

	resB := run(t, runner, dirB, "court-records", types.TierCourt)
	if resB.Merged != 1 || resB.Created != 0 {
		t.Fatalf("second batch: created=%d merged=%d", resB.Created, resB.Merged)
	}

	groups, err := store.ListDuplicates(ctx)
	if err != nil {
		t.Fatalf("ListDuplicates failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 duplicate group, got %d", len(groups))
	}
	if len(groups[0].SourceIDs) != 2 {
		t.Errorf("expected 2 sources, got %d", len(groups[0].SourceIDs))
	}
	if groups[0].Methods[0] != types.MatchExact {
		t.Errorf("expected exact merge, got %s", groups[0].Methods[0])
	}

	canonical, err := store.GetCanonical(ctx, groups[0].CanonicalID)
	if err != nil {
		t.Fatalf("GetCanonical failed: %v", err)
	}
	if canonical.DuplicatesFound != 1 {
		t.Errorf("duplicates_found = %d, want 1", canonical.DuplicatesFound)
	}
}

// Scenario: two renderings of the same content at different OCR quality
// merge, and the cleaner copy becomes primary with a reason citing OCR
// quality. Corruption characters normalize away, so the content hash is
// identical while the quality scores differ.
func TestPrimaryGoesToCleanerCopy(t *testing.T) {
	runner, store := newTestRunner(t)
	ctx := context.Background()

	noisy := strings.ReplaceAll(filingText, "the", "th�e")

	dirClean := writeBatch(t, map[string]string{"filing.txt": filingText})
	dirNoisy := writeBatch(t, map[string]string{"filing.txt": noisy})

	// Noisy copy first, so selection has to actually flip the primary
	run(t, runner, dirNoisy, "scan-archive", types.TierArchive)
	run(t, runner, dirClean, "clean-archive", types.TierArchive)

	groups, err := store.ListDuplicates(ctx)
	if err != nil {
		t.Fatalf("ListDuplicates failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected the copies to merge, got %d groups", len(groups))
	}

	canonical, err := store.GetCanonical(ctx, groups[0].CanonicalID)
	if err != nil {
		t.Fatalf("GetCanonical failed: %v", err)
	}

	sources, err := store.GetSources(ctx, canonical.ID)
	if err != nil {
		t.Fatalf("GetSources failed: %v", err)
	}
	var primary *types.SourceRecord
	for _, src := range sources {
		if src.Primary {
			primary = src
		}
	}
	if primary == nil {
		t.Fatal("no primary source selected")
	}
	if primary.SourceName != "clean-archive" {
		t.Errorf("primary = %s, want clean-archive", primary.SourceName)
	}
	if !strings.Contains(canonical.SelectionReason, "OCR quality") {
		t.Errorf("selection reason = %q, want OCR quality cited", canonical.SelectionReason)
	}
}

// Scenario: two documents sharing a page range stay separate canonical
// documents related by exactly one overlap row
func TestPartialOverlapNeverMerges(t *testing.T) {
	runner, store := newTestRunner(t)
	ctx := context.Background()

	pageOne := "the first page describes the procedural history of the case in detail"
	pageTwo := "the second page lists the exhibits entered into the record by counsel"
	pageThree := "the third page contains the findings of fact adopted by the court"
	pageFour := "the fourth page sets out the conclusions of law and the final order"

	docA := strings.Join([]string{pageOne, pageTwo, pageThree}, "\f")
	docB := strings.Join([]string{pageThree, pageFour}, "\f")

	dirA := writeBatch(t, map[string]string{"part-a.txt": docA})
	dirB := writeBatch(t, map[string]string{"part-b.txt": docB})

	run(t, runner, dirA, "archive-a", types.TierArchive)
	resB := run(t, runner, dirB, "archive-b", types.TierArchive)

	if resB.Merged != 0 {
		t.Fatal("partially overlapping documents must never merge")
	}
	if resB.Overlaps != 1 {
		t.Fatalf("expected 1 overlap recorded, got %d", resB.Overlaps)
	}

	stats, err := store.GetStatistics(ctx)
	if err != nil {
		t.Fatalf("GetStatistics failed: %v", err)
	}
	if stats.CanonicalDocuments != 2 {
		t.Errorf("expected 2 canonical documents, got %d", stats.CanonicalDocuments)
	}
	if stats.PartialOverlaps != 1 {
		t.Errorf("expected 1 overlap row, got %d", stats.PartialOverlaps)
	}
}

// A trailing form feed splits into a blank final page. Two unrelated
// documents that both end this way share nothing and must not be related.
func TestTrailingFormFeedDoesNotCreateOverlap(t *testing.T) {
	runner, store := newTestRunner(t)
	ctx := context.Background()

	dirA := writeBatch(t, map[string]string{
		"ruling.txt": "the clerk is directed to enter judgment for the plaintiff\f",
	})
	dirB := writeBatch(t, map[string]string{
		"manifest.txt": "the cargo weights and port calls were listed for the spring season\f",
	})

	run(t, runner, dirA, "court-records", types.TierCourt)
	resB := run(t, runner, dirB, "shipping-archive", types.TierArchive)

	if resB.Merged != 0 || resB.Overlaps != 0 {
		t.Fatalf("unrelated documents related via blank pages: merged=%d overlaps=%d", resB.Merged, resB.Overlaps)
	}

	stats, err := store.GetStatistics(ctx)
	if err != nil {
		t.Fatalf("GetStatistics failed: %v", err)
	}
	if stats.CanonicalDocuments != 2 {
		t.Errorf("expected 2 canonical documents, got %d", stats.CanonicalDocuments)
	}
	if stats.PartialOverlaps != 0 {
		t.Errorf("expected no overlap rows, got %d", stats.PartialOverlaps)
	}
}

/// Scenario: two emails with an identical header tuple but OCR noise in
// the body merge through metadata (or fuzzy corroboration when the
// digests land close enough)
func TestEmailsMergeOnMetadata(t *testing.T) {
	runner, store := newTestRunner(t)
	ctx := context.Background()

	sidecar := `
document_type: email
email:
  from: alice@example.org
  to: bob@example.org
  date: "2024-01-15"
  subject: Filing schedule
`
	noisy := strings.Replace(filingText, "motion", "m0tion", 2)

	dirA := writeBatch(t, map[string]string{
		"msg.txt":       filingText,
		"msg.meta.yaml": sidecar,
	})
	dirB := writeBatch(t, map[string]string{
		"msg.txt":       noisy,
		"msg.meta.yaml": sidecar,
	})

	run(t, runner, dirA, "mail-archive", types.TierArchive)
	resB := run(t, runner, dirB, "estate-release", types.TierOfficialRelease)

	if resB.Merged != 1 {
		t.Fatalf("noisy copy with matching metadata should merge, got merged=%d created=%d", resB.Merged, resB.Created)
	}

	groups, err := store.ListDuplicates(ctx)
	if err != nil {
		t.Fatalf("ListDuplicates failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	method := groups[0].Methods[0]
	if method != types.MatchMetadata && method != types.MatchFuzzy {
		t.Errorf("merge method = %s, want metadata or fuzzy", method)
	}

	canonical, err := store.GetCanonical(ctx, groups[0].CanonicalID)
	if err != nil {
		t.Fatalf("GetCanonical failed: %v", err)
	}
	if canonical.DocumentType != types.TypeEmail {
		t.Errorf("document type = %s, want email", canonical.DocumentType)
	}
	if canonical.Title != "Filing schedule" {
		t.Errorf("title = %q", canonical.Title)
	}
}

// Scenario: garbled extracted text still produces a canonical record,
// scored low instead of discarded
func TestGarbledTextStillIngested(t *testing.T) {
	runner, store := newTestRunner(t)
	ctx := context.Background()

	garbled := strings.Repeat("x�j9 q�#z kf� w�1 ", 40)
	dir := writeBatch(t, map[string]string{"garbled.txt": garbled})

	res := run(t, runner, dir, "damaged-archive", types.TierArchive)
	if res.Created != 1 {
		t.Fatalf("garbled document should still be ingested, got created=%d failed=%d", res.Created, res.Failed)
	}

	stats, err := store.GetStatistics(ctx)
	if err != nil {
		t.Fatalf("GetStatistics failed: %v", err)
	}
	if stats.ByQuality["low"] != 1 {
		t.Errorf("expected 1 low-quality source, got %v", stats.ByQuality)
	}
}

// Property: re-running an identical batch is a no-op beyond skip logs
func TestIdempotentReingestion(t *testing.T) {
	runner, store := newTestRunner(t)
	ctx := context.Background()

	dir := writeBatch(t, map[string]string{
		"one.txt": filingText,
		"two.txt": "a different document about the estate inventory and appraisal",
	})

	first := run(t, runner, dir, "archive-1", types.TierArchive)
	if first.Processed != 2 {
		t.Fatalf("first run processed %d, want 2", first.Processed)
	}

	second := run(t, runner, dir, "archive-1", types.TierArchive)
	if second.Skipped != 2 || second.Processed != 0 {
		t.Fatalf("second run should skip everything: %+v", second)
	}

	stats, err := store.GetStatistics(ctx)
	if err != nil {
		t.Fatalf("GetStatistics failed: %v", err)
	}
	if stats.CanonicalDocuments != 2 || stats.SourceRecords != 2 {
		t.Errorf("re-ingestion changed the corpus: %+v", stats)
	}
	if stats.DuplicatesFound != 0 {
		t.Errorf("re-ingestion created duplicates: %d", stats.DuplicatesFound)
	}
}

// Property: canonical ids are a pure function of content, reproducible
// across independent stores
func TestCanonicalIDDeterminism(t *testing.T) {
	runnerA, storeA := newTestRunner(t)
	runnerB, storeB := newTestRunner(t)
	ctx := context.Background()

	dirA := writeBatch(t, map[string]string{"doc.txt": filingText})
	dirB := writeBatch(t, map[string]string{"doc.txt": filingText})

	run(t, runnerA, dirA, "archive-1", types.TierArchive)
	run(t, runnerB, dirB, "archive-2", types.TierArchive)

	logA, err := storeA.GetLog(ctx, storage.LogFilter{})
	if err != nil {
		t.Fatalf("GetLog failed: %v", err)
	}
	logB, err := storeB.GetLog(ctx, storage.LogFilter{})
	if err != nil {
		t.Fatalf("GetLog failed: %v", err)
	}
	if len(logA) == 0 || len(logB) == 0 {
		t.Fatal("expected ingest log entries")
	}
	if logA[len(logA)-1].CanonicalID != logB[len(logB)-1].CanonicalID {
		t.Errorf("same content produced different canonical ids: %s vs %s",
			logA[len(logA)-1].CanonicalID, logB[len(logB)-1].CanonicalID)
	}
}

// The batch report carries one JSON line per committed document with
// full provenance
func TestBatchReport(t *testing.T) {
	runner, _ := newTestRunner(t)

	dir := writeBatch(t, map[string]string{"filing.txt": filingText})
	var report bytes.Buffer
	result, err := runner.Run(context.Background(), Options{
		Dir:      dir,
		Manifest: batchManifest("court-records", types.TierCourt),
		Report:   &report,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Processed != 1 {
		t.Fatalf("processed = %d", result.Processed)
	}

	lines := strings.Split(strings.TrimSpace(report.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 report line, got %d", len(lines))
	}

	var record ReportRecord
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("report line is not valid JSON: %v", err)
	}
	if !strings.HasPrefix(record.CanonicalID, "doc-") {
		t.Errorf("canonical id = %q", record.CanonicalID)
	}
	if record.PrimarySource != "court-records" {
		t.Errorf("primary source = %q", record.PrimarySource)
	}
	if len(record.Sources) != 1 || !record.Sources[0].Primary {
		t.Errorf("unexpected sources: %+v", record.Sources)
	}
}

// A document that cannot be extracted is logged and skipped without
// taking the batch down
func TestUnreadableDocumentSkipped(t *testing.T) {
	runner, store := newTestRunner(t)
	ctx := context.Background()

	dir := writeBatch(t, map[string]string{
		"good.txt": filingText,
		"bad.txt":  "body",
		"bad.meta.yaml": `
document_type: court_filing
email:
  from: wrong-block
`,
	})

	result := run(t, runner, dir, "archive-1", types.TierArchive)
	if result.Processed != 1 {
		t.Errorf("good document should commit, processed = %d", result.Processed)
	}
	if result.Failed != 1 {
		t.Errorf("bad document should fail, failed = %d", result.Failed)
	}

	entries, err := store.GetLog(ctx, storage.LogFilter{Status: types.LogError})
	if err != nil {
		t.Fatalf("GetLog failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Operation != "extract" {
		t.Errorf("expected one extract error entry, got %+v", entries)
	}
}

func TestRunRejectsInvalidManifest(t *testing.T) {
	runner, _ := newTestRunner(t)
	_, err := runner.Run(context.Background(), Options{
		Dir:      t.TempDir(),
		Manifest: &manifest.Manifest{},
	})
	if err == nil {
		t.Fatal("expected error for manifest without source name")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	bad := DefaultConfig()
	bad.Workers = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero workers should fail validation")
	}
}
