package dedup

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the tunable thresholds for the matching engine.
//
// The fuzzy scheme (simhash over word shingles) and its thresholds are a
// deliberate implementation choice: the thresholds are configuration, not
// constants, so operators can tighten or relax them per corpus.
type Config struct {
	// FuzzyThreshold is the minimum fuzzy-hash similarity (0.0-1.0) for a
	// fuzzy-phase candidate to be considered a match.
	// Higher values = more conservative (fewer false merges)
	// Default: 0.90
	FuzzyThreshold float64

	// TextThreshold is the minimum normalized-text similarity required to
	// corroborate a fuzzy-hash match. The fuzzy hash alone never merges;
	// both signals must agree to rule out bucket collisions.
	// Default: 0.90
	TextThreshold float64

	// MetadataThreshold is the minimum metadata-match confidence to merge
	// in the metadata phase. Confidence is scaled by field completeness.
	// Default: 0.95
	MetadataThreshold float64

	// MaxFuzzyCandidates caps how many bucket neighbors the fuzzy phase
	// will compare against. Exceeding the cap degrades the batch to
	// exact+metadata matching rather than blowing the comparison budget.
	// Default: 200
	MaxFuzzyCandidates int

	// FuzzyBudget is the per-document time budget for the fuzzy phase.
	// On expiry the engine degrades to exact+metadata for the document
	// and logs a degraded-mode warning.
	// Default: 10 seconds
	FuzzyBudget time.Duration

	// MinOverlapPages is the minimum number of shared page hashes that
	// constitutes a partial overlap worth recording.
	// Default: 1
	MinOverlapPages int
}

// DefaultConfig returns the default matching configuration
//
// These defaults are chosen to:
// - Prevent false merges (two-signal fuzzy corroboration, high thresholds)
// - Keep the fuzzy phase near-linear (bucket blocking plus a hard cap)
// - Degrade predictably instead of stalling a batch
func DefaultConfig() Config {
	return Config{
		FuzzyThreshold:     0.90,
		TextThreshold:      0.90,
		MetadataThreshold:  0.95,
		MaxFuzzyCandidates: 200,
		FuzzyBudget:        10 * time.Second,
		MinOverlapPages:    1,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.FuzzyThreshold < 0.5 || c.FuzzyThreshold > 1.0 {
		return fmt.Errorf("fuzzy_threshold must be between 0.5 and 1.0 (got %.2f)", c.FuzzyThreshold)
	}
	if c.TextThreshold < 0.5 || c.TextThreshold > 1.0 {
		return fmt.Errorf("text_threshold must be between 0.5 and 1.0 (got %.2f)", c.TextThreshold)
	}
	if c.MetadataThreshold < 0.5 || c.MetadataThreshold > 1.0 {
		return fmt.Errorf("metadata_threshold must be between 0.5 and 1.0 (got %.2f)", c.MetadataThreshold)
	}
	if c.MaxFuzzyCandidates <= 0 {
		return fmt.Errorf("max_fuzzy_candidates must be positive (got %d)", c.MaxFuzzyCandidates)
	}
	if c.MaxFuzzyCandidates > 10000 {
		return fmt.Errorf("max_fuzzy_candidates too large (got %d, max 10000)", c.MaxFuzzyCandidates)
	}
	if c.FuzzyBudget <= 0 {
		return fmt.Errorf("fuzzy_budget must be positive (got %v)", c.FuzzyBudget)
	}
	if c.FuzzyBudget > 10*time.Minute {
		return fmt.Errorf("fuzzy_budget too large (got %v, max 10 minutes)", c.FuzzyBudget)
	}
	if c.MinOverlapPages < 1 {
		return fmt.Errorf("min_overlap_pages must be at least 1 (got %d)", c.MinOverlapPages)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{Fuzzy: %.2f, Text: %.2f, Metadata: %.2f, MaxCandidates: %d, Budget: %v, MinOverlap: %d}",
		c.FuzzyThreshold, c.TextThreshold, c.MetadataThreshold,
		c.MaxFuzzyCandidates, c.FuzzyBudget, c.MinOverlapPages,
	)
}

// ConfigFromEnv creates a Config from environment variables, falling back
// to defaults
//
// Environment variables:
//   - CANON_DEDUP_FUZZY_THRESHOLD: Minimum fuzzy-hash similarity (default: 0.90)
//   - CANON_DEDUP_TEXT_THRESHOLD: Minimum corroborating text similarity (default: 0.90)
//   - CANON_DEDUP_METADATA_THRESHOLD: Minimum metadata confidence (default: 0.95)
//   - CANON_DEDUP_MAX_CANDIDATES: Fuzzy candidate cap per document (default: 200)
//   - CANON_DEDUP_BUDGET_SECS: Fuzzy phase budget in seconds (default: 10)
//   - CANON_DEDUP_MIN_OVERLAP_PAGES: Pages shared to record an overlap (default: 1)
//
// Returns an error if any environment variable has an invalid value.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := parseEnvFloat("CANON_DEDUP_FUZZY_THRESHOLD", &cfg.FuzzyThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("CANON_DEDUP_TEXT_THRESHOLD", &cfg.TextThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("CANON_DEDUP_METADATA_THRESHOLD", &cfg.MetadataThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("CANON_DEDUP_MAX_CANDIDATES", &cfg.MaxFuzzyCandidates); err != nil {
		return cfg, err
	}
	if err := parseEnvDuration("CANON_DEDUP_BUDGET_SECS", &cfg.FuzzyBudget, time.Second); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("CANON_DEDUP_MIN_OVERLAP_PAGES", &cfg.MinOverlapPages); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}

	return cfg, nil
}

// parseEnvFloat parses a float64 from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvDuration parses a duration from an environment variable.
// The multiplier converts the numeric value to a duration.
func parseEnvDuration(key string, dest *time.Duration, multiplier time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = time.Duration(parsed) * multiplier
	return nil
}
