package service

import (
	"fmt"
	"time"

	"github.com/Aashish23092/ocr-document-validity/dto"
	"github.com/Aashish23092/ocr-document-validity/metrics"
	"github.com/Aashish23092/ocr-document-validity/utils/dateparser"
	"github.com/Aashish23092/ocr-document-validity/utils/validity"
	"github.com/rs/zerolog/log"
)

// ValidityService turns extracted entities into a document validity record.
// It holds no mutable state and may be shared between goroutines.
type ValidityService struct {
	parser  *dateparser.DateParser
	metrics *metrics.Metrics
}

// NewValidityService creates a ValidityService. A nil parser uses the
// default month table; nil metrics disables instrumentation.
func NewValidityService(parser *dateparser.DateParser, m *metrics.Metrics) *ValidityService {
	if parser == nil {
		parser = dateparser.NewDateParser(nil)
	}
	return &ValidityService{
		parser:  parser,
		metrics: m,
	}
}

// Compute builds the validity record from a type -> mention map.
// Two-digit years are resolved against today's year.
func (s *ValidityService) Compute(fields map[string]string, schema dto.DocumentSchema, today time.Time) (result dto.DocumentValidityResult) {
	defer s.recoverInto(&result, schema)

	var (
		issuance *dto.CanonicalDate
		issues   []string
	)

	raw := fields[schema.IssuanceType]
	if raw == "" {
		issues = append(issues, dto.IssueIssuanceMissing)
	} else if d, err := s.parser.Parse(raw, today.Year()); err != nil {
		log.Debug().Err(err).Str("schema", schema.Name).Str("raw", raw).Msg("issuance date not parsed")
		s.metrics.IncDateParseFailure(schema.Name)
		issues = append(issues, dto.IssueIssuanceUnparseable)
	} else {
		issuance = &d
	}

	return s.finish(schema, issuance, issues, fields[schema.ValidityType], today)
}

// ComputeEntities builds the validity record from an entity list. When the
// schema selects the most recent issuance date every mention of the
// issuance type is considered; otherwise the last mention of each type wins.
func (s *ValidityService) ComputeEntities(entities []dto.Entity, schema dto.DocumentSchema, today time.Time) (result dto.DocumentValidityResult) {
	defer s.recoverInto(&result, schema)

	fields := EntitiesToFields(entities)
	if !schema.SelectMostRecent {
		return s.Compute(fields, schema, today)
	}

	var issues []string
	var issuance *dto.CanonicalDate
	if d, ok := SelectMostRecent(s.parser, entities, schema.IssuanceType, today.Year()); ok {
		issuance = &d
	} else if !hasMention(entities, schema.IssuanceType) {
		issues = append(issues, dto.IssueIssuanceMissing)
	} else {
		s.metrics.IncDateParseFailure(schema.Name)
		issues = append(issues, dto.IssueIssuanceUnparseable)
	}

	return s.finish(schema, issuance, issues, fields[schema.ValidityType], today)
}

func (s *ValidityService) finish(schema dto.DocumentSchema, issuance *dto.CanonicalDate, issues []string, validityText string, today time.Time) dto.DocumentValidityResult {
	years, defaulted := validity.ExtractYearsDetailed(validityText)
	if defaulted {
		s.metrics.IncValidityDefaulted()
		issues = append(issues, dto.IssueValidityDefaulted)
	}

	result := dto.DocumentValidityResult{
		IssuanceDate:   issuance,
		ValidityPeriod: years,
		Issues:         issues,
	}

	if issuance == nil {
		result.ExpirationDate = dto.ExpirationDate{}
		result.IsValid = false
		s.metrics.ObserveResult(schema.Name, metrics.OutcomeUndetermined)
		return result
	}

	if !issuance.CanAddYears(years) {
		log.Warn().Str("schema", schema.Name).Int("years", years).Msg("expiration year out of range")
		result.Error = fmt.Sprintf("computation error: %s plus %d years is past year %d", issuance.ISO(), years, dto.MaxYear)
		s.metrics.ObserveResult(schema.Name, metrics.OutcomeError)
		return result
	}

	expiration := issuance.AddYears(years)
	result.ExpirationDate = dto.KnownExpiration(expiration)
	result.IsValid = expiration.Compare(dto.DateOf(today)) >= 0
	log.Debug().
		Str("schema", schema.Name).
		Str("issued", issuance.Human()).
		Str("expires", expiration.Human()).
		Bool("valid", result.IsValid).
		Msg("validity computed")

	outcome := metrics.OutcomeExpired
	if result.IsValid {
		outcome = metrics.OutcomeValid
	}
	s.metrics.ObserveResult(schema.Name, outcome)
	return result
}

// recoverInto turns a panic into a well-formed record with Error set.
func (s *ValidityService) recoverInto(result *dto.DocumentValidityResult, schema dto.DocumentSchema) {
	r := recover()
	if r == nil {
		return
	}
	log.Error().Str("schema", schema.Name).Interface("panic", r).Msg("validity computation failed")
	*result = dto.UndeterminedResult()
	result.Error = fmt.Sprintf("computation error: %v", r)
	if s != nil {
		s.metrics.ObserveResult(schema.Name, metrics.OutcomeError)
	}
}

// hasMention reports whether any entity of roleType carries text.
func hasMention(entities []dto.Entity, roleType string) bool {
	for _, e := range entities {
		if e.Type == roleType && e.MentionText != "" {
			return true
		}
	}
	return false
}

// EntitiesToFields collapses an entity list into a type -> mention map; the
// last mention of a type wins.
func EntitiesToFields(entities []dto.Entity) map[string]string {
	fields := make(map[string]string, len(entities))
	for _, e := range entities {
		if e.Type == "" {
			continue
		}
		fields[e.Type] = e.MentionText
	}
	return fields
}
