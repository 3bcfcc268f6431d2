package dto

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// ISODateLayout is the machine-facing representation.
	ISODateLayout = "2006-01-02"
	// HumanDateLayout is the human-facing representation.
	HumanDateLayout = "02-01-2006"
)

// Years outside this range cannot be written as YYYY.
const (
	MinYear = 1
	MaxYear = 9999
)

// CanonicalDate is a calendar date in the proleptic Gregorian calendar.
// The zero value is not a valid date; use NewCanonicalDate or DateOf.
type CanonicalDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewCanonicalDate validates that year/month/day name a real calendar day.
func NewCanonicalDate(year int, month time.Month, day int) (CanonicalDate, error) {
	if year < MinYear || year > MaxYear {
		return CanonicalDate{}, fmt.Errorf("%w: year %d", ErrInvalidDate, year)
	}
	if month < time.January || month > time.December {
		return CanonicalDate{}, fmt.Errorf("%w: month %d", ErrInvalidDate, month)
	}
	if day < 1 || day > DaysIn(year, month) {
		return CanonicalDate{}, fmt.Errorf("%w: day %d of %s %d", ErrInvalidDate, day, month, year)
	}
	return CanonicalDate{Year: year, Month: month, Day: day}, nil
}

// DateOf truncates a clock value to its calendar date in its own location.
func DateOf(t time.Time) CanonicalDate {
	y, m, d := t.Date()
	return CanonicalDate{Year: y, Month: m, Day: d}
}

// DaysIn returns the number of days of month in year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Time returns midnight UTC of d.
func (d CanonicalDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// ISO formats d as YYYY-MM-DD.
func (d CanonicalDate) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Human formats d as DD-MM-YYYY.
func (d CanonicalDate) Human() string {
	return fmt.Sprintf("%02d-%02d-%04d", d.Day, int(d.Month), d.Year)
}

func (d CanonicalDate) String() string {
	return d.ISO()
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after other.
func (d CanonicalDate) Compare(other CanonicalDate) int {
	switch {
	case d.Year != other.Year:
		return order(d.Year < other.Year)
	case d.Month != other.Month:
		return order(d.Month < other.Month)
	case d.Day != other.Day:
		return order(d.Day < other.Day)
	}
	return 0
}

func (d CanonicalDate) Before(other CanonicalDate) bool { return d.Compare(other) < 0 }
func (d CanonicalDate) After(other CanonicalDate) bool  { return d.Compare(other) > 0 }

// CanAddYears reports whether d.AddYears(n) stays within MinYear..MaxYear.
func (d CanonicalDate) CanAddYears(n int) bool {
	if n >= 0 {
		return n <= MaxYear-d.Year
	}
	return n >= MinYear-d.Year
}

// AddYears adds n calendar years. When the target month has no such day
// (Feb 29 into a common year) the day is clamped to the month's last day.
// Check CanAddYears first when n is untrusted.
func (d CanonicalDate) AddYears(n int) CanonicalDate {
	year := d.Year + n
	day := d.Day
	if last := DaysIn(year, d.Month); day > last {
		day = last
	}
	return CanonicalDate{Year: year, Month: d.Month, Day: day}
}

func (d CanonicalDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.ISO())
}

func (d *CanonicalDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(ISODateLayout, s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	*d = DateOf(t)
	return nil
}

func order(less bool) int {
	if less {
		return -1
	}
	return 1
}
