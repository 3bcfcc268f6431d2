package service

import (
	"github.com/Aashish23092/ocr-document-validity/dto"
	"github.com/Aashish23092/ocr-document-validity/utils/dateparser"
)

// SelectMostRecent parses every entity of roleType and returns the latest
// date among those that parse. ok is false when none parses.
func SelectMostRecent(parser *dateparser.DateParser, entities []dto.Entity, roleType string, referenceYear int) (latest dto.CanonicalDate, ok bool) {
	for _, e := range entities {
		if e.Type != roleType {
			continue
		}
		d, err := parser.Parse(e.MentionText, referenceYear)
		if err != nil {
			continue
		}
		if !ok || d.After(latest) {
			latest, ok = d, true
		}
	}
	return latest, ok
}
