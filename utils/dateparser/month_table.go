package dateparser

import (
	"fmt"
	"strings"
	"time"
)

// MonthAlias maps a month token (abbreviation, full name or a known OCR
// misreading) to its month.
type MonthAlias struct {
	Token string     `json:"token" mapstructure:"token"`
	Month time.Month `json:"month" mapstructure:"month"`
}

// MonthTable is an immutable, versioned, ordered list of month aliases.
// Lookup is by containment in table order, so "SEPTIEMBRE" resolves through
// "SEP" and "MAYO" through "MAY".
type MonthTable struct {
	version string
	aliases []MonthAlias
}

// DefaultTableVersion identifies the built-in alias set.
const DefaultTableVersion = "v1"

var defaultAliases = []MonthAlias{
	{"ENE", time.January}, {"JAN", time.January},
	{"FEB", time.February},
	{"MAR", time.March},
	{"ABR", time.April}, {"APR", time.April},
	{"MAY", time.May}, {"MAI", time.May},
	{"JUN", time.June},
	{"JUL", time.July},
	{"AGO", time.August}, {"AUG", time.August},
	{"SEP", time.September}, {"SET", time.September}, {"SFP", time.September}, {"SEPT", time.September},
	{"OCT", time.October},
	{"NOV", time.November},
	{"DIC", time.December}, {"DEC", time.December},
}

var defaultTable = mustTable(DefaultTableVersion, defaultAliases)

// DefaultMonthTable returns the built-in Spanish/English table.
func DefaultMonthTable() *MonthTable {
	return defaultTable
}

// NewMonthTable validates aliases and builds a table. Tokens are uppercased;
// a token may appear only once.
func NewMonthTable(version string, aliases []MonthAlias) (*MonthTable, error) {
	if version == "" {
		return nil, fmt.Errorf("month table version is required")
	}
	seen := make(map[string]bool, len(aliases))
	out := make([]MonthAlias, 0, len(aliases))
	for _, a := range aliases {
		token := strings.ToUpper(strings.TrimSpace(a.Token))
		if token == "" {
			return nil, fmt.Errorf("month table %s: empty token", version)
		}
		for _, r := range token {
			if r < 'A' || r > 'Z' {
				return nil, fmt.Errorf("month table %s: token %q must be letters A-Z", version, token)
			}
		}
		if a.Month < time.January || a.Month > time.December {
			return nil, fmt.Errorf("month table %s: token %q has invalid month %d", version, token, a.Month)
		}
		if seen[token] {
			return nil, fmt.Errorf("month table %s: duplicate token %q", version, token)
		}
		seen[token] = true
		out = append(out, MonthAlias{Token: token, Month: a.Month})
	}
	return &MonthTable{version: version, aliases: out}, nil
}

func mustTable(version string, aliases []MonthAlias) *MonthTable {
	t, err := NewMonthTable(version, aliases)
	if err != nil {
		panic(err)
	}
	return t
}

// Extend returns a new table with extra aliases appended after the existing
// ones. Existing tokens keep precedence.
func (t *MonthTable) Extend(version string, extra []MonthAlias) (*MonthTable, error) {
	all := make([]MonthAlias, 0, len(t.aliases)+len(extra))
	all = append(all, t.aliases...)
	all = append(all, extra...)
	return NewMonthTable(version, all)
}

// Version returns the table version.
func (t *MonthTable) Version() string { return t.version }

// Aliases returns a copy of the table entries.
func (t *MonthTable) Aliases() []MonthAlias {
	out := make([]MonthAlias, len(t.aliases))
	copy(out, t.aliases)
	return out
}

// Lookup resolves an uppercase letter run to a month.
func (t *MonthTable) Lookup(word string) (time.Month, bool) {
	for _, a := range t.aliases {
		if strings.Contains(word, a.Token) {
			return a.Month, true
		}
	}
	return 0, false
}
