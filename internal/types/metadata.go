package types

import (
	"fmt"
	"strings"
)

// DocumentMetadata is the capability shared by the structured metadata
// variants. Each document type with matchable structure implements it:
// the comparison key is a normalized tuple of the identifying fields, and
// completeness reports how many of those fields are populated so the
// matcher can scale its confidence.
type DocumentMetadata interface {
	// DocumentType returns the variant's document type
	DocumentType() DocumentType

	// ComparisonKey returns the normalized identity tuple for metadata
	// matching. Two documents of the same type with equal keys are the
	// same underlying document with very high probability.
	ComparisonKey() string

	// Completeness returns the fraction of identifying fields that are
	// populated, in [0,1]. The matcher multiplies its confidence by this.
	Completeness() float64

	// Title returns a display title derived from the metadata
	Title() string

	// Date returns the document date as recorded in the metadata
	Date() string
}

// normalizeField lowercases and collapses interior whitespace so that
// trivially different renderings of the same value compare equal.
func normalizeField(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// EmailMetadata identifies an email by its header tuple
type EmailMetadata struct {
	From    string `json:"from" yaml:"from"`
	To      string `json:"to" yaml:"to"`
	Sent    string `json:"date" yaml:"date"`
	Subject string `json:"subject" yaml:"subject"`
}

// DocumentType returns TypeEmail
func (m *EmailMetadata) DocumentType() DocumentType { return TypeEmail }

// ComparisonKey returns the normalized from/to/date/subject tuple
func (m *EmailMetadata) ComparisonKey() string {
	return fmt.Sprintf("email|%s|%s|%s|%s",
		normalizeField(m.From), normalizeField(m.To),
		normalizeField(m.Sent), normalizeField(m.Subject))
}

// Completeness returns the populated fraction of the four header fields
func (m *EmailMetadata) Completeness() float64 {
	return populatedFraction(m.From, m.To, m.Sent, m.Subject)
}

// Title returns the subject line
func (m *EmailMetadata) Title() string { return m.Subject }

// Date returns the sent date
func (m *EmailMetadata) Date() string { return m.Sent }

// CourtFilingMetadata identifies a court filing by case number, filing
// date and party caption
type CourtFilingMetadata struct {
	CaseNumber string `json:"case_number" yaml:"case_number"`
	Filed      string `json:"date" yaml:"date"`
	Parties    string `json:"parties" yaml:"parties"`
	FilingType string `json:"filing_type,omitempty" yaml:"filing_type"`
}

// DocumentType returns TypeCourtFiling
func (m *CourtFilingMetadata) DocumentType() DocumentType { return TypeCourtFiling }

// ComparisonKey returns the normalized case-number/date/parties tuple
func (m *CourtFilingMetadata) ComparisonKey() string {
	return fmt.Sprintf("court|%s|%s|%s",
		normalizeField(m.CaseNumber), normalizeField(m.Filed),
		normalizeField(m.Parties))
}

// Completeness returns the populated fraction of the identifying fields
func (m *CourtFilingMetadata) Completeness() float64 {
	return populatedFraction(m.CaseNumber, m.Filed, m.Parties)
}

// Title returns the party caption with the filing type if present
func (m *CourtFilingMetadata) Title() string {
	if m.FilingType != "" {
		return fmt.Sprintf("%s (%s)", m.Parties, m.FilingType)
	}
	return m.Parties
}

// Date returns the filing date
func (m *CourtFilingMetadata) Date() string { return m.Filed }

// FinancialRecordMetadata identifies a financial record by account,
// institution, period and statement type
type FinancialRecordMetadata struct {
	AccountID   string `json:"account_id" yaml:"account_id"`
	Institution string `json:"institution" yaml:"institution"`
	Period      string `json:"date" yaml:"date"`
	RecordType  string `json:"record_type,omitempty" yaml:"record_type"`
}

// DocumentType returns TypeFinancialRecord
func (m *FinancialRecordMetadata) DocumentType() DocumentType { return TypeFinancialRecord }

// ComparisonKey returns the normalized account/institution/period tuple
func (m *FinancialRecordMetadata) ComparisonKey() string {
	return fmt.Sprintf("financial|%s|%s|%s",
		normalizeField(m.AccountID), normalizeField(m.Institution),
		normalizeField(m.Period))
}

// Completeness returns the populated fraction of the identifying fields
func (m *FinancialRecordMetadata) Completeness() float64 {
	return populatedFraction(m.AccountID, m.Institution, m.Period)
}

// Title returns the institution and record type
func (m *FinancialRecordMetadata) Title() string {
	if m.RecordType != "" {
		return fmt.Sprintf("%s %s", m.Institution, m.RecordType)
	}
	return m.Institution
}

// Date returns the statement period
func (m *FinancialRecordMetadata) Date() string { return m.Period }

// populatedFraction counts non-blank fields
func populatedFraction(fields ...string) float64 {
	if len(fields) == 0 {
		return 0.0
	}
	populated := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			populated++
		}
	}
	return float64(populated) / float64(len(fields))
}
