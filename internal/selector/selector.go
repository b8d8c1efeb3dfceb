// Package selector picks the best version of a canonical document from
// its source records using a fixed weighted rubric. Selection is
// deterministic: the same set of sources always produces the same
// primary, and ties resolve to the earliest-ingested source so re-runs
// never flap the primary.
package selector

import (
	"fmt"
	"sort"

	"github.com/openarchive/canon/internal/types"
)

// Rubric weights. Fixed by design; changing them re-scores the whole
// corpus, so they are constants rather than configuration.
const (
	weightOCRQuality = 0.40
	weightRedaction  = 0.25
	weightComplete   = 0.20
	weightAuthority  = 0.10
	weightFile       = 0.05
)

// Selection is the outcome of evaluating one canonical group
type Selection struct {
	// PrimarySourceID is the winning source record
	PrimarySourceID string `json:"primary_source_id"`

	// Score is the winner's rubric score
	Score float64 `json:"score"`

	// Reason is a human-readable explanation citing the dominant factor
	Reason string `json:"reason"`
}

// Score computes the rubric score for one source record, in [0,1]
func Score(rec *types.SourceRecord) float64 {
	return weightOCRQuality*rec.Quality.OverallScore +
		weightRedaction*rec.RedactionCompleteness +
		weightComplete*rec.Completeness +
		weightAuthority*rec.AuthorityTier.Score() +
		weightFile*rec.FileQuality
}

// Select picks the primary source for a canonical group. Re-run every
// time a source is added or re-scored; the result depends only on the
// records passed in.
//
// Ties break by earliest ingestion timestamp, then by source id, so the
// primary is stable across re-runs and insertion orders.
func Select(records []*types.SourceRecord) (Selection, error) {
	if len(records) == 0 {
		return Selection{}, fmt.Errorf("cannot select from an empty group")
	}

	ranked := make([]*types.SourceRecord, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := Score(ranked[i]), Score(ranked[j])
		if si != sj {
			return si > sj
		}
		if !ranked[i].IngestedAt.Equal(ranked[j].IngestedAt) {
			return ranked[i].IngestedAt.Before(ranked[j].IngestedAt)
		}
		return ranked[i].ID < ranked[j].ID
	})

	winner := ranked[0]
	return Selection{
		PrimarySourceID: winner.ID,
		Score:           Score(winner),
		Reason:          reason(winner, ranked),
	}, nil
}

// reason names the factor that carried the decision. With a single
// source there is nothing to compare, so the reason says so.
func (s Selection) String() string {
	return fmt.Sprintf("%s (%.3f): %s", s.PrimarySourceID, s.Score, s.Reason)
}

func reason(winner *types.SourceRecord, ranked []*types.SourceRecord) string {
	if len(ranked) == 1 {
		return fmt.Sprintf("only source (%s)", winner.SourceName)
	}

	runnerUp := ranked[1]

	// Weighted contribution deltas against the runner-up identify the
	// dominant factor
	factors := []struct {
		name  string
		delta float64
	}{
		{"OCR quality", weightOCRQuality * (winner.Quality.OverallScore - runnerUp.Quality.OverallScore)},
		{"redaction completeness", weightRedaction * (winner.RedactionCompleteness - runnerUp.RedactionCompleteness)},
		{"completeness", weightComplete * (winner.Completeness - runnerUp.Completeness)},
		{"source authority", weightAuthority * (winner.AuthorityTier.Score() - runnerUp.AuthorityTier.Score())},
		{"file quality", weightFile * (winner.FileQuality - runnerUp.FileQuality)},
	}

	best := factors[0]
	for _, f := range factors[1:] {
		if f.delta > best.delta {
			best = f
		}
	}

	if best.delta <= 0 {
		// Scores tied; timestamp order decided
		return fmt.Sprintf("earliest ingested of %d equally scored sources", len(ranked))
	}
	return fmt.Sprintf("highest %s among %d sources (%.2f vs %.2f overall)",
		best.name, len(ranked), Score(winner), Score(runnerUp))
}
