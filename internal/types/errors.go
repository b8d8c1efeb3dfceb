package types

import "fmt"

// ExtractionError means one document could not be read or digested.
// Recoverable: the pipeline logs it, skips the document, and continues
// the batch.
type ExtractionError struct {
	Document string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.Document, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// QualityAssessmentError means quality scoring failed for a document.
// Recoverable: the pipeline records an overall score of 0.0 and continues.
type QualityAssessmentError struct {
	Document string
	Err      error
}

func (e *QualityAssessmentError) Error() string {
	return fmt.Sprintf("quality assessment failed for %s: %v", e.Document, e.Err)
}

func (e *QualityAssessmentError) Unwrap() error { return e.Err }

// AmbiguousMatchError means a document matched two distinct existing
// canonical documents under different detection phases. The pipeline logs
// it, keeps the document under the higher-confidence match, and flags the
// pair for manual review. It never merges the two pre-existing groups;
// that would require an explicit reconciliation step.
type AmbiguousMatchError struct {
	Document string

	// Winner is the canonical id of the higher-confidence phase
	Winner       string
	WinnerMethod MatchMethod

	// Loser is the canonical id the lower-confidence phase matched
	Loser       string
	LoserMethod MatchMethod
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("document %s matched both %s (%s) and %s (%s); keeping %s",
		e.Document, e.Winner, e.WinnerMethod, e.Loser, e.LoserMethod, e.Winner)
}

// StoreWriteError means a canonical store write failed. Fatal for the
// batch: the pipeline aborts with nothing partially committed for the
// failing write. Documents committed earlier in the batch stay committed.
type StoreWriteError struct {
	Operation string
	Err       error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write failed during %s: %v", e.Operation, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// DedupTimeout means the fuzzy comparison phase exceeded its budget for
// the batch. The pipeline falls back to exact and metadata matching only
// and logs a degraded-mode warning.
type DedupTimeout struct {
	Document string
	Budget   string
}

func (e *DedupTimeout) Error() string {
	return fmt.Sprintf("fuzzy matching for %s exceeded budget %s; degrading to exact+metadata", e.Document, e.Budget)
}
