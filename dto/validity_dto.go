package dto

import (
	"encoding/json"
	"fmt"
	"time"
)

// DefaultValidityYears applies when a document does not state its validity period.
const DefaultValidityYears = 2

// ExpirationUnknown is the sentinel written when no expiration can be determined.
const ExpirationUnknown = "nda"

// Degradations reported in DocumentValidityResult.Issues.
const (
	IssueIssuanceMissing     = "issuance_date_missing"
	IssueIssuanceUnparseable = "issuance_date_unparseable"
	IssueValidityDefaulted   = "validity_period_defaulted"
)

// Entity is a typed, confidence-scored mention produced by an extractor.
type Entity struct {
	Type        string  `json:"type"`
	MentionText string  `json:"mention_text"`
	Confidence  float64 `json:"confidence"`
}

// UnmarshalJSON accepts both "type" and the "type_" key emitted by
// Document AI exports.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type        string  `json:"type"`
		TypeAlt     string  `json:"type_"`
		MentionText string  `json:"mention_text"`
		Confidence  float64 `json:"confidence"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Type = raw.Type
	if e.Type == "" {
		e.Type = raw.TypeAlt
	}
	e.MentionText = raw.MentionText
	e.Confidence = raw.Confidence
	return nil
}

// ExpirationDate is either a known date or the "nda" sentinel.
type ExpirationDate struct {
	Date  CanonicalDate
	Known bool
}

// KnownExpiration wraps a computed expiration date.
func KnownExpiration(d CanonicalDate) ExpirationDate {
	return ExpirationDate{Date: d, Known: true}
}

func (e ExpirationDate) String() string {
	if !e.Known {
		return ExpirationUnknown
	}
	return e.Date.ISO()
}

func (e ExpirationDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

func (e *ExpirationDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == ExpirationUnknown || s == "" {
		*e = ExpirationDate{}
		return nil
	}
	t, err := time.Parse(ISODateLayout, s)
	if err != nil {
		return fmt.Errorf("%w: expiration %q", ErrInvalidDate, s)
	}
	*e = KnownExpiration(DateOf(t))
	return nil
}

// DocumentValidityResult is the normalized validity record of one document.
type DocumentValidityResult struct {
	IssuanceDate   *CanonicalDate `json:"issuance_date"`
	ValidityPeriod int            `json:"validity_period"`
	ExpirationDate ExpirationDate `json:"expiration_date"`
	IsValid        bool           `json:"is_valid"`
	Issues         []string       `json:"issues,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// UndeterminedResult is the record for a document whose issuance is unknown.
func UndeterminedResult() DocumentValidityResult {
	return DocumentValidityResult{
		ValidityPeriod: DefaultValidityYears,
		ExpirationDate: ExpirationDate{},
		IsValid:        false,
	}
}

// ComputeRequest is the body of POST /validity/compute.
type ComputeRequest struct {
	Schema   string   `json:"schema"`
	Today    string   `json:"today,omitempty"` // YYYY-MM-DD, defaults to the server clock
	Entities []Entity `json:"entities" binding:"required"`
}

// Validate checks the request shape before computing.
func (r *ComputeRequest) Validate() error {
	if len(r.Entities) == 0 {
		return ErrNoEntities
	}
	if r.Today != "" {
		if _, err := time.Parse(ISODateLayout, r.Today); err != nil {
			return fmt.Errorf("%w: today must be YYYY-MM-DD", ErrInvalidDate)
		}
	}
	return nil
}

// ValidityResponse is returned by every validity endpoint.
type ValidityResponse struct {
	RequestID   string                 `json:"request_id"`
	Schema      string                 `json:"schema"`
	Source      string                 `json:"source,omitempty"` // "pdf_text", "ocr", "qr" or "entities"
	Entities    []Entity               `json:"entities,omitempty"`
	Result      DocumentValidityResult `json:"result"`
	ProcessedAt string                 `json:"processed_at"`
	SavedTo     string                 `json:"saved_to,omitempty"`
}

// BatchItem is the outcome of one document inside a batch.
type BatchItem struct {
	Filename string            `json:"filename"`
	Response *ValidityResponse `json:"response,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// BatchResponse is returned by POST /validity/batch.
type BatchResponse struct {
	Items       []BatchItem `json:"items"`
	Succeeded   int         `json:"succeeded"`
	Failed      int         `json:"failed"`
	ProcessedAt string      `json:"processed_at"`
}
