// Package validity reads a document's validity period, in years, from free text.
package validity

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Aashish23092/ocr-document-validity/dto"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	// "CINCO (5) AÑOS", "(02) AÑO"
	reParenYears = regexp.MustCompile(`\((\d+)\)\s*AÑOS?`)
	// "5 AÑOS"
	reBareYears = regexp.MustCompile(`\b(\d+)\s*AÑOS?`)
)

// ExtractYears returns the stated validity period, or dto.DefaultValidityYears
// when the text does not state one.
func ExtractYears(text string) int {
	years, _ := ExtractYearsDetailed(text)
	return years
}

// ExtractYearsDetailed also reports whether the default was used.
func ExtractYearsDetailed(text string) (years int, defaulted bool) {
	if strings.TrimSpace(text) == "" {
		return dto.DefaultValidityYears, true
	}

	// OCR output may carry a decomposed Ñ (N + U+0303); NFC recombines it.
	// A Caser is stateful, so one is built per call.
	normalized := cases.Upper(language.Spanish).String(norm.NFC.String(text))

	for _, re := range []*regexp.Regexp{reParenYears, reBareYears} {
		if m := re.FindStringSubmatch(normalized); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil {
				return n, false
			}
		}
	}
	return dto.DefaultValidityYears, true
}
