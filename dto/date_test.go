package dto

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCanonicalDateRejectsImpossibleDays(t *testing.T) {
	_, err := NewCanonicalDate(2023, time.February, 29)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = NewCanonicalDate(2023, 13, 1)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = NewCanonicalDate(2023, time.April, 0)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = NewCanonicalDate(10000, time.January, 1)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = NewCanonicalDate(0, time.January, 1)
	assert.ErrorIs(t, err, ErrInvalidDate)

	d, err := NewCanonicalDate(2024, time.February, 29)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.ISO())
	assert.Equal(t, "29-02-2024", d.Human())
}

func TestAddYearsClampsLeapDay(t *testing.T) {
	d := CanonicalDate{Year: 2024, Month: time.February, Day: 29}

	assert.Equal(t, CanonicalDate{Year: 2025, Month: time.February, Day: 28}, d.AddYears(1))
	assert.Equal(t, CanonicalDate{Year: 2028, Month: time.February, Day: 29}, d.AddYears(4))
	assert.Equal(t, CanonicalDate{Year: 2024, Month: time.February, Day: 29}, d.AddYears(0))
}

func TestCompare(t *testing.T) {
	a := CanonicalDate{Year: 2024, Month: time.May, Day: 1}
	b := CanonicalDate{Year: 2024, Month: time.May, Day: 2}

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, CanonicalDate{Year: 2023, Month: time.December, Day: 31}.Before(a))
}

func TestCompareExtremeYears(t *testing.T) {
	low := CanonicalDate{Year: math.MinInt, Month: time.January, Day: 1}
	high := CanonicalDate{Year: math.MaxInt, Month: time.January, Day: 1}

	assert.Equal(t, -1, low.Compare(high))
	assert.Equal(t, 1, high.Compare(low))
	assert.True(t, low.Before(CanonicalDate{Year: 2025, Month: time.January, Day: 1}))
}

func TestCanAddYears(t *testing.T) {
	d := CanonicalDate{Year: 2020, Month: time.January, Day: 1}

	assert.True(t, d.CanAddYears(2))
	assert.True(t, d.CanAddYears(MaxYear-2020))
	assert.False(t, d.CanAddYears(MaxYear-2020+1))
	assert.False(t, d.CanAddYears(math.MaxInt))
	assert.True(t, d.CanAddYears(-2019))
	assert.False(t, d.CanAddYears(-2020))
	assert.False(t, d.CanAddYears(math.MinInt))
}

func TestDateOfIgnoresClockTime(t *testing.T) {
	loc := time.FixedZone("COT", -5*3600)
	got := DateOf(time.Date(2025, time.March, 9, 23, 59, 0, 0, loc))
	assert.Equal(t, CanonicalDate{Year: 2025, Month: time.March, Day: 9}, got)
}

func TestExpirationDateJSON(t *testing.T) {
	var e ExpirationDate
	require.NoError(t, json.Unmarshal([]byte(`"nda"`), &e))
	assert.False(t, e.Known)

	require.NoError(t, json.Unmarshal([]byte(`"2027-01-31"`), &e))
	assert.True(t, e.Known)
	assert.Equal(t, CanonicalDate{Year: 2027, Month: time.January, Day: 31}, e.Date)

	assert.Error(t, json.Unmarshal([]byte(`"31-01-2027"`), &e))
}

func TestEntityAcceptsDocumentAIKey(t *testing.T) {
	var entities []Entity
	require.NoError(t, json.Unmarshal([]byte(`[
		{"type_": "fecha_emision", "mention_text": "21 MAY 2025", "confidence": 0.91},
		{"type": "validity_period", "mention_text": "(5) AÑOS", "confidence": 0.7}
	]`), &entities))

	require.Len(t, entities, 2)
	assert.Equal(t, "fecha_emision", entities[0].Type)
	assert.Equal(t, 0.91, entities[0].Confidence)
	assert.Equal(t, "validity_period", entities[1].Type)
}

func TestLookupSchema(t *testing.T) {
	s, err := LookupSchema(" DAEX ")
	require.NoError(t, err)
	assert.Equal(t, "fecha_emision", s.IssuanceType)
	assert.True(t, s.SelectMostRecent)

	_, err = LookupSchema("passport")
	assert.ErrorIs(t, err, ErrUnknownSchema)
	assert.Equal(t, []string{"daex", "racda"}, SchemaNames())
}
