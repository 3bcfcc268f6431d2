package dateparser

import (
	"testing"
	"time"

	"github.com/Aashish23092/ocr-document-validity/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, y int, m time.Month, d int) dto.CanonicalDate {
	t.Helper()
	cd, err := dto.NewCanonicalDate(y, m, d)
	require.NoError(t, err)
	return cd
}

func TestParseNumericFormats(t *testing.T) {
	p := NewDateParser(nil)

	tests := []struct {
		raw  string
		want dto.CanonicalDate
	}{
		{"21/05/2025", date(t, 2025, time.May, 21)},
		{"2025-05-21", date(t, 2025, time.May, 21)},
		{"21.05.2025", date(t, 2025, time.May, 21)},
		{" 21 05 2025 ", date(t, 2025, time.May, 21)},
		{"1-2-2024", date(t, 2024, time.February, 1)},
		{"21 / 05 / 2025", date(t, 2025, time.May, 21)},
		{"29/02/2024", date(t, 2024, time.February, 29)},
	}

	for _, tt := range tests {
		got, err := p.Parse(tt.raw, 2025)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestParseCenturyCorrection(t *testing.T) {
	p := NewDateParser(nil)

	got, err := p.Parse("04-03-97", 2024)
	require.NoError(t, err)
	assert.Equal(t, date(t, 1997, time.March, 4), got)

	got, err = p.Parse("04-03-20", 2024)
	require.NoError(t, err)
	assert.Equal(t, date(t, 2020, time.March, 4), got)

	// exactly referenceYear+2 stays in the current century
	got, err = p.Parse("04-03-26", 2024)
	require.NoError(t, err)
	assert.Equal(t, 2026, got.Year)

	got, err = p.Parse("04-03-27", 2024)
	require.NoError(t, err)
	assert.Equal(t, 1927, got.Year)
}

func TestParseOCRWordDates(t *testing.T) {
	p := NewDateParser(nil)

	tests := []struct {
		raw  string
		want dto.CanonicalDate
	}{
		{"0 3 SFP 2025", date(t, 2025, time.September, 3)},
		{"21 MAY 2025", date(t, 2025, time.May, 21)},
		{"21MAI2025", date(t, 2025, time.May, 21)},
		{"5 dic 2023", date(t, 2023, time.December, 5)},
		{"21 DE MAYO DE 2025", date(t, 2025, time.May, 21)},
		{"1 DE SEPTIEMBRE DEL 2019", date(t, 2019, time.September, 1)},
		{"Expedido el 14 AUG 2022 en Bogota", date(t, 2022, time.August, 14)},
		{"15 ENE 98", date(t, 1998, time.January, 15)},
	}

	for _, tt := range tests {
		got, err := p.Parse(tt.raw, 2024)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestParseFailures(t *testing.T) {
	p := NewDateParser(nil)

	for _, raw := range []string{
		"",
		"   ",
		"31 XXX 2025",
		"32 MAY 2025",
		"31 FEB 2025",
		"00/05/2025",
		"30/02/2024",
		"SIN FECHA",
		"2025",
		"2025 MAY 21",
		"2019 ENE 05",
		"2019ENE2020",
	} {
		_, err := p.Parse(raw, 2025)
		assert.ErrorIs(t, err, ErrUnrecognizedDate, "input %q", raw)
	}
}

func TestParseIdempotent(t *testing.T) {
	p := NewDateParser(nil)

	inputs := []struct {
		raw    string
		layout string
	}{
		{"21/05/2025", "02/01/2006"},
		{"2025-05-21", "2006-01-02"},
		{"0 3 SFP 2025", "02/01/2006"},
		{"04-03-97", "02-01-06"},
		{"7.11.2001", "02.01.2006"},
	}

	for _, in := range inputs {
		first, err := p.Parse(in.raw, 2024)
		require.NoError(t, err, in.raw)

		again, err := p.Parse(first.Time().Format(in.layout), 2024)
		require.NoError(t, err, in.raw)
		assert.Equal(t, first, again, in.raw)
	}
}

func TestParseWithExtendedTable(t *testing.T) {
	table, err := DefaultMonthTable().Extend("v1+test", []MonthAlias{{Token: "0CT", Month: time.October}})
	assert.Error(t, err, "digits are not letters")
	assert.Nil(t, table)

	table, err = DefaultMonthTable().Extend("v1+test", []MonthAlias{{Token: "nqv", Month: time.November}})
	require.NoError(t, err)

	_, err = NewDateParser(nil).Parse("12 NQV 2024", 2024)
	assert.ErrorIs(t, err, ErrUnrecognizedDate)

	got, err := NewDateParser(table).Parse("12 NQV 2024", 2024)
	require.NoError(t, err)
	assert.Equal(t, date(t, 2024, time.November, 12), got)
}

func TestParseNowUsesClock(t *testing.T) {
	clock := func() time.Time { return time.Date(1990, time.June, 1, 0, 0, 0, 0, time.UTC) }
	p := NewDateParser(nil, WithClock(clock))

	got, err := p.ParseNow("01/01/10")
	require.NoError(t, err)
	assert.Equal(t, 1910, got.Year)
}

func TestResolveTwoDigitYear(t *testing.T) {
	assert.Equal(t, 1997, ResolveTwoDigitYear(97, 2024))
	assert.Equal(t, 2000, ResolveTwoDigitYear(0, 2024))
	assert.Equal(t, 2026, ResolveTwoDigitYear(26, 2024))
	assert.Equal(t, 1927, ResolveTwoDigitYear(27, 2024))
}
