// Package dateparser turns OCR-damaged date strings into canonical dates.
//
// Numeric layouts are tried first (21/05/2025, 2025-05-21, 04.03.97); when
// none matches, the text is read as "<day> <month word> <year>" with the
// month resolved through a MonthTable that also knows common OCR misreadings
// (SFP for SEP, MAI for MAY).
package dateparser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Aashish23092/ocr-document-validity/dto"
)

// ErrUnrecognizedDate is returned when no layout matches the input.
var ErrUnrecognizedDate = errors.New("unrecognized date")

// CenturyWindow is how many years past the reference year a two-digit year
// may land before it is read as the previous century.
const CenturyWindow = 2

var (
	reSeparators = regexp.MustCompile(`[./\-\s]+`)
	reConnectors = regexp.MustCompile(`\b(DE|DEL)\b`)
	reSplitDigit = regexp.MustCompile(`(\d)\s+(\d)`)

	// The day must start a digit run so a leading year is never split into day digits.
	reWordDate = regexp.MustCompile(`(?:^|\D)(\d{1,3})\s*([A-Z]{3,})\s*(\d{4}|\d{2}\b)`)
)

type numericLayout struct {
	name    string
	re      *regexp.Regexp
	yearIdx int
	monIdx  int
	dayIdx  int
}

// Order matters: the first layout that matches wins.
var numericLayouts = []numericLayout{
	{"DD/MM/YYYY", regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`), 3, 2, 1},
	{"YYYY/MM/DD", regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`), 1, 2, 3},
	{"DD/MM/YY", regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2})$`), 3, 2, 1},
}

// DateParser is safe for concurrent use; it holds no mutable state.
type DateParser struct {
	months *MonthTable
	now    func() time.Time
}

// Option configures a DateParser.
type Option func(*DateParser)

// WithClock overrides the clock used by ParseNow.
func WithClock(now func() time.Time) Option {
	return func(p *DateParser) { p.now = now }
}

// NewDateParser builds a parser over the given month table. A nil table means
// DefaultMonthTable.
func NewDateParser(months *MonthTable, opts ...Option) *DateParser {
	if months == nil {
		months = DefaultMonthTable()
	}
	p := &DateParser{months: months, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Months returns the table the parser resolves month words with.
func (p *DateParser) Months() *MonthTable { return p.months }

// ParseNow parses raw using the current year as reference year.
func (p *DateParser) ParseNow(raw string) (dto.CanonicalDate, error) {
	return p.Parse(raw, p.now().Year())
}

// Parse converts raw into a canonical date. referenceYear drives the century
// of two-digit years.
func (p *DateParser) Parse(raw string, referenceYear int) (dto.CanonicalDate, error) {
	text := strings.ToUpper(strings.TrimSpace(raw))
	if text == "" {
		return dto.CanonicalDate{}, fmt.Errorf("%w: empty input", ErrUnrecognizedDate)
	}

	if d, ok := parseNumeric(text, referenceYear); ok {
		return d, nil
	}
	return p.parseWords(text, referenceYear)
}

func parseNumeric(text string, referenceYear int) (dto.CanonicalDate, bool) {
	clean := reSeparators.ReplaceAllString(text, "/")
	for _, layout := range numericLayouts {
		m := layout.re.FindStringSubmatch(clean)
		if m == nil {
			continue
		}
		day, _ := strconv.Atoi(m[layout.dayIdx])
		month, _ := strconv.Atoi(m[layout.monIdx])
		year, _ := strconv.Atoi(m[layout.yearIdx])
		if day == 0 {
			continue
		}
		if len(m[layout.yearIdx]) == 2 {
			year = ResolveTwoDigitYear(year, referenceYear)
		}
		d, err := dto.NewCanonicalDate(year, time.Month(month), day)
		if err != nil {
			continue
		}
		return d, true
	}
	return dto.CanonicalDate{}, false
}

func (p *DateParser) parseWords(text string, referenceYear int) (dto.CanonicalDate, error) {
	text = reConnectors.ReplaceAllString(text, " ")
	text = joinSplitDigits(text)

	m := reWordDate.FindStringSubmatch(text)
	if m == nil {
		return dto.CanonicalDate{}, fmt.Errorf("%w: %q", ErrUnrecognizedDate, text)
	}

	day, _ := strconv.Atoi(m[1])
	if day > 31 {
		return dto.CanonicalDate{}, fmt.Errorf("%w: day %d out of range", ErrUnrecognizedDate, day)
	}

	month, ok := p.months.Lookup(m[2])
	if !ok {
		return dto.CanonicalDate{}, fmt.Errorf("%w: unknown month %q", ErrUnrecognizedDate, m[2])
	}

	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year = ResolveTwoDigitYear(year, referenceYear)
	}

	d, err := dto.NewCanonicalDate(year, month, day)
	if err != nil {
		return dto.CanonicalDate{}, fmt.Errorf("%w: %v", ErrUnrecognizedDate, err)
	}
	return d, nil
}

// joinSplitDigits glues digit runs that OCR split with whitespace ("0 3" -> "03").
func joinSplitDigits(s string) string {
	for {
		next := reSplitDigit.ReplaceAllString(s, "${1}${2}")
		if next == s {
			return s
		}
		s = next
	}
}

// ResolveTwoDigitYear maps yy to 20yy, or 19yy when 20yy is more than
// CenturyWindow years past referenceYear.
func ResolveTwoDigitYear(yy, referenceYear int) int {
	year := 2000 + yy
	if year > referenceYear+CenturyWindow {
		year -= 100
	}
	return year
}
